// Package cli implements the doctranslate command line tool.
package cli

import (
	"context"
	"fmt"
	"os"

	"doc-bridge/internal/doc_translator"
	"doc-bridge/internal/segment"
	"doc-bridge/internal/store"
	"doc-bridge/internal/translator_provider"
	"doc-bridge/pkg/database"
	"doc-bridge/pkg/types"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Flags holds the command line options shared by the subcommands.
type Flags struct {
	CfgFile   string
	In        string
	Out       string
	From      string
	To        string
	DBPath    string
	Provider  string
	CharLimit int
	Verbose   bool
}

func NewFlags() *Flags {
	return &Flags{
		DBPath:    "doc-bridge.db",
		CharLimit: segment.DefaultCharLimit,
	}
}

// CreateRootCommand creates the root command with the translate and count
// subcommands attached.
func CreateRootCommand(flags *Flags) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "doctranslate",
		Short: "Translate plain text documents in provider-sized batches",
		Long: `doctranslate splits a plain text document into sentences, sends them
to a translation provider in batches under the character limit and writes
the translated document with its line structure intact.

Examples:
  doctranslate count --in notes.txt
  doctranslate translate --in notes.txt --out notes_de.txt --to de`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&flags.CfgFile, "config", "", "env file with provider settings (default: environment only)")
	rootCmd.PersistentFlags().StringVar(&flags.In, "in", "", "input text file")
	rootCmd.PersistentFlags().IntVar(&flags.CharLimit, "char-limit", flags.CharLimit, "character budget per batch")
	rootCmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "log progress to stderr")
	_ = rootCmd.MarkPersistentFlagRequired("in")

	rootCmd.AddCommand(newCountCommand(flags), newTranslateCommand(flags))
	return rootCmd
}

func newCountCommand(flags *Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the character count and number of batches for a document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := segment.ReadFile(flags.In, segment.Options{CharLimit: flags.CharLimit})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "characters: %d\n", res.TotalCharLength)
			fmt.Fprintf(cmd.OutOrStdout(), "segments: %d\n", len(res.Segments)-res.Boundaries())
			fmt.Fprintf(cmd.OutOrStdout(), "batches: %d\n", res.Boundaries()+1)
			return nil
		},
	}
}

func newTranslateCommand(flags *Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "translate",
		Short: "Translate a document and write the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTranslate(cmd, flags)
		},
	}
	cmd.Flags().StringVar(&flags.Out, "out", "", "output file (default: <in>.<to>)")
	cmd.Flags().StringVar(&flags.From, "from", "", "source language, empty for auto-detect")
	cmd.Flags().StringVar(&flags.To, "to", "", "target language")
	cmd.Flags().StringVar(&flags.DBPath, "db", flags.DBPath, "SQLite file caching provider tokens")
	cmd.Flags().StringVar(&flags.Provider, "provider", "", "translation provider: microsoft, openai or gemini")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

// LoadConfig builds the provider configuration from the environment and the
// optional env file. The CLI always keeps its token cache in SQLite.
func LoadConfig(flags *Flags) (*types.Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	if flags.CfgFile != "" {
		v.SetConfigFile(flags.CfgFile)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", flags.CfgFile, err)
		}
	}
	v.Set("DB_DRIVER", database.DriverSQLite)
	v.Set("DB_PATH", flags.DBPath)
	v.Set("TRANSLATOR_CHAR_LIMIT", flags.CharLimit)
	if flags.Provider != "" {
		v.Set("TRANSLATOR_PROVIDER", flags.Provider)
	}
	return types.FromViper(v)
}

func newLogger(verbose bool) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func runTranslate(cmd *cobra.Command, flags *Flags) error {
	cfg, err := LoadConfig(flags)
	if err != nil {
		return err
	}
	logger := newLogger(flags.Verbose)
	defer logger.Sync()

	db, err := database.NewSQLite(cfg.Database.Path, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := store.CreateSchema(ctx, db); err != nil {
		return err
	}

	provider, tokens, err := translator_provider.NewFactory(cfg, logger, store.NewCredentialStore(db)).
		CreateProvider(translator_provider.ProviderType(cfg.Translator.Provider))
	if err != nil {
		return err
	}
	opts := segment.Options{CharLimit: cfg.Translator.CharLimit, Delimiter: cfg.Translator.Delimiter}
	translator := doc_translator.NewDocTranslatorService(logger, doc_translator.NewDispatcher(logger, provider, tokens), opts)

	segments, err := segment.ReadFile(flags.In, opts)
	if err != nil {
		return err
	}

	if cfg.Translator.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Translator.JobTimeout)
		defer cancel()
	}
	res, err := translator.TranslateSegments(ctx, segments, flags.From, flags.To, func(p doc_translator.Progress) {
		logger.Info("batch translated", zap.Int("batch", p.Batch), zap.Int("batches", p.Batches))
	})
	if err != nil {
		return fmt.Errorf("translate %s: %w", flags.In, err)
	}

	out := flags.Out
	if out == "" {
		out = flags.In + "." + flags.To
	}
	if err := segment.WriteFile(out, res.Lines); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "translated %d characters in %d batches to %s\n",
		res.TotalCharLength, segments.Boundaries()+1, out)
	return nil
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	flags := NewFlags()
	if err := CreateRootCommand(flags).Execute(); err != nil {
		os.Exit(1)
	}
}
