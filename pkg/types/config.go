package types

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Translator TranslatorConfig
	Microsoft  MicrosoftConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
}

type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxUploadBytes  int64
	AppEnv          string
	LogLevel        string
}

type DatabaseConfig struct {
	Driver   string
	Name     string
	Host     string
	Port     string
	User     string
	Password string
	SSLMode  string
	Path     string
}

// TranslatorConfig holds the batching and token settings shared by all
// providers.
type TranslatorConfig struct {
	Provider       string
	CharLimit      int
	Delimiter      string
	TokenInterval  time.Duration
	RequestTimeout time.Duration
	JobTimeout     time.Duration
}

type MicrosoftConfig struct {
	BaseURL         string
	TokenURL        string
	SubscriptionKey string
}

type OpenAIConfig struct {
	APIKey string
	Model  string
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

func validateRequiredEnvs(v *viper.Viper, requiredEnvs []string) error {
	for _, env := range requiredEnvs {
		if v.GetString(env) == "" {
			return fmt.Errorf("%s is required", env)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "6777")
	v.SetDefault("SERVER_READ_TIMEOUT", "30s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "15m")
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("MAX_UPLOAD_BYTES", 100000)
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_PATH", "data/doc-bridge.db")
	v.SetDefault("TRANSLATOR_PROVIDER", "microsoft")
	v.SetDefault("TRANSLATOR_CHAR_LIMIT", 4000)
	v.SetDefault("TRANSLATOR_BATCH_DELIMITER", "||")
	v.SetDefault("TRANSLATOR_TOKEN_INTERVAL", "590s")
	v.SetDefault("TRANSLATOR_REQUEST_TIMEOUT", "20s")
	v.SetDefault("TRANSLATOR_JOB_TIMEOUT", "10m")
	v.SetDefault("MS_TRANSLATION_TEXT_BASE_URL", "https://api.cognitive.microsofttranslator.com/translate?api-version=3.0")
	v.SetDefault("MS_TRANSLATION_TEXT_ACCESS_TOKEN_URL", "https://api.cognitive.microsoft.com/sts/v1.0/issueToken")
}

// LoadConfig reads configuration from a .env file and environment variables
func LoadConfig() (*Config, error) {
	v := viper.New()

	// Enable environment variable reading first
	v.AutomaticEnv()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		log.Print("No config file found, falling back to environment variables")
	}

	return FromViper(v)
}

// FromViper builds and validates a Config from v.
func FromViper(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	var requiredEnvs []string
	if v.GetString("DB_DRIVER") == "postgres" {
		requiredEnvs = append(requiredEnvs,
			"DB_NAME",
			"DB_HOST",
			"DB_PORT",
			"DB_USER",
			"DB_PASSWORD",
			"DB_SSLMODE",
		)
	}
	switch v.GetString("TRANSLATOR_PROVIDER") {
	case "microsoft":
		requiredEnvs = append(requiredEnvs, "MS_TRANSLATION_TEXT_SUBSCRIPTION_KEY")
	case "openai":
		requiredEnvs = append(requiredEnvs, "OPENAI_API_KEY")
	case "gemini":
		requiredEnvs = append(requiredEnvs, "GEMINI_API_KEY")
	default:
		return nil, fmt.Errorf("unsupported TRANSLATOR_PROVIDER: %s", v.GetString("TRANSLATOR_PROVIDER"))
	}

	if err := validateRequiredEnvs(v, requiredEnvs); err != nil {
		return nil, err
	}

	config := &Config{
		Server: ServerConfig{
			Host:            v.GetString("SERVER_HOST"),
			Port:            v.GetString("SERVER_PORT"),
			ReadTimeout:     v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout:    v.GetDuration("SERVER_WRITE_TIMEOUT"),
			ShutdownTimeout: v.GetDuration("SERVER_SHUTDOWN_TIMEOUT"),
			MaxUploadBytes:  v.GetInt64("MAX_UPLOAD_BYTES"),
			AppEnv:          v.GetString("APP_ENV"),
			LogLevel:        v.GetString("LOG_LEVEL"),
		},
		Database: DatabaseConfig{
			Driver:   v.GetString("DB_DRIVER"),
			Name:     v.GetString("DB_NAME"),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			SSLMode:  v.GetString("DB_SSLMODE"),
			Path:     v.GetString("DB_PATH"),
		},
		Translator: TranslatorConfig{
			Provider:       v.GetString("TRANSLATOR_PROVIDER"),
			CharLimit:      v.GetInt("TRANSLATOR_CHAR_LIMIT"),
			Delimiter:      v.GetString("TRANSLATOR_BATCH_DELIMITER"),
			TokenInterval:  v.GetDuration("TRANSLATOR_TOKEN_INTERVAL"),
			RequestTimeout: v.GetDuration("TRANSLATOR_REQUEST_TIMEOUT"),
			JobTimeout:     v.GetDuration("TRANSLATOR_JOB_TIMEOUT"),
		},
		Microsoft: MicrosoftConfig{
			BaseURL:         v.GetString("MS_TRANSLATION_TEXT_BASE_URL"),
			TokenURL:        v.GetString("MS_TRANSLATION_TEXT_ACCESS_TOKEN_URL"),
			SubscriptionKey: v.GetString("MS_TRANSLATION_TEXT_SUBSCRIPTION_KEY"),
		},
		OpenAI: OpenAIConfig{
			APIKey: v.GetString("OPENAI_API_KEY"),
			Model:  v.GetString("OPENAI_MODEL"),
		},
		Gemini: GeminiConfig{
			APIKey: v.GetString("GEMINI_API_KEY"),
			Model:  v.GetString("GEMINI_MODEL"),
		},
	}

	if config.Translator.CharLimit <= 0 {
		return nil, fmt.Errorf("TRANSLATOR_CHAR_LIMIT must be positive, got %d", config.Translator.CharLimit)
	}
	// synchronous translations and job streams stay open for up to a job
	if wt := config.Server.WriteTimeout; wt > 0 && wt < config.Translator.JobTimeout {
		return nil, fmt.Errorf("SERVER_WRITE_TIMEOUT (%s) must not be shorter than TRANSLATOR_JOB_TIMEOUT (%s)",
			wt, config.Translator.JobTimeout)
	}

	return config, nil
}

// GetServerAddress returns the full server address
func (c *ServerConfig) GetServerAddress() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}
