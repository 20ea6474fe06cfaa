package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

func writeInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := CreateRootCommand(NewFlags())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCreateRootCommand(t *testing.T) {
	cmd := CreateRootCommand(NewFlags())
	if cmd.Use != "doctranslate" {
		t.Errorf("Use = %q", cmd.Use)
	}
	for _, name := range []string{"config", "in", "char-limit", "verbose"} {
		if cmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("missing persistent flag %q", name)
		}
	}
	translate, _, err := cmd.Find([]string{"translate"})
	if err != nil {
		t.Fatalf("find translate: %v", err)
	}
	for _, name := range []string{"out", "from", "to", "db", "provider"} {
		if translate.Flags().Lookup(name) == nil {
			t.Errorf("missing translate flag %q", name)
		}
	}
}

func TestCountCommand(t *testing.T) {
	in := writeInput(t, "Hello world. This is a test.\n\nBye.")

	out, err := run(t, "count", "--in", in)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	for _, want := range []string{"characters: 32", "segments: 6", "batches: 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestCountCommandSmallLimit(t *testing.T) {
	in := writeInput(t, "One. Two. Three.")

	out, err := run(t, "count", "--in", in, "--char-limit", "5")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if !strings.Contains(out, "batches: 4") {
		t.Errorf("output %q, want 4 batches", out)
	}
}

func TestCountCommandMissingFile(t *testing.T) {
	if _, err := run(t, "count", "--in", filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestTranslateRequiresTarget(t *testing.T) {
	in := writeInput(t, "Hello.")
	if _, err := run(t, "translate", "--in", in); err == nil {
		t.Fatal("expected error without --to")
	}
}

func TestTranslateCommand(t *testing.T) {
	var tokenCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls.Add(1)
		_, _ = w.Write([]byte("cli-token"))
	})
	mux.HandleFunc("/translate", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer cli-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var items []struct {
			Text string `json:"Text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&items); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		type tr struct {
			Text string `json:"text"`
			To   string `json:"to"`
		}
		resp := make([]map[string][]tr, len(items))
		for i, it := range items {
			resp[i] = map[string][]tr{"translations": {{Text: strings.ToUpper(it.Text), To: r.URL.Query().Get("to")}}}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	t.Setenv("TRANSLATOR_PROVIDER", "microsoft")
	t.Setenv("MS_TRANSLATION_TEXT_SUBSCRIPTION_KEY", "key")
	t.Setenv("MS_TRANSLATION_TEXT_BASE_URL", srv.URL+"/translate?api-version=3.0")
	t.Setenv("MS_TRANSLATION_TEXT_ACCESS_TOKEN_URL", srv.URL+"/token")

	dir := t.TempDir()
	in := writeInput(t, "Hello world. This is a test.\n\nBye.")
	outPath := filepath.Join(dir, "out.txt")
	db := filepath.Join(dir, "tokens.db")

	for i := 0; i < 2; i++ {
		out, err := run(t, "translate", "--in", in, "--out", outPath, "--to", "de", "--db", db)
		if err != nil {
			t.Fatalf("translate: %v (%s)", err, out)
		}
		if !strings.Contains(out, "translated 32 characters in 1 batches") {
			t.Errorf("output = %q", out)
		}
	}

	got, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	want := "HELLO WORLD. THIS IS A TEST.\n\nBYE.\n"
	if string(got) != want {
		t.Errorf("output file = %q, want %q", got, want)
	}
	if n := tokenCalls.Load(); n != 1 {
		t.Errorf("token fetched %d times, want 1 across runs sharing the cache", n)
	}
}
