package microsoft

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"doc-bridge/pkg/types"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(types.MicrosoftConfig{
		BaseURL:         srv.URL + "/translate?api-version=3.0",
		TokenURL:        srv.URL + "/sts/v1.0/issueToken",
		SubscriptionKey: "sub-key",
	}, 5*time.Second)
}

func TestFetchToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/sts/v1.0/issueToken" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Ocp-Apim-Subscription-Key"); got != "sub-key" {
			t.Errorf("subscription key = %q", got)
		}
		_, _ = w.Write([]byte("eyJ0eXAi.token\n"))
	})

	tok, err := c.FetchToken(context.Background())
	if err != nil {
		t.Fatalf("FetchToken: %v", err)
	}
	if tok != "eyJ0eXAi.token" {
		t.Fatalf("token = %q", tok)
	}
}

func TestFetchTokenRejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid subscription key", http.StatusUnauthorized)
	})
	if _, err := c.FetchToken(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestTranslateBatch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/translate" {
			t.Errorf("path = %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("api-version") != "3.0" || q.Get("from") != "en" || q.Get("to") != "de" || q.Get("textType") != "plain" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("authorization = %q", got)
		}

		var body []map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
			return
		}
		resp := make([]map[string]any, len(body))
		for i, item := range body {
			resp[i] = map[string]any{
				"translations": []map[string]string{{"text": "de:" + item["Text"], "to": "de"}},
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})

	got, err := c.TranslateBatch(context.Background(), "tok", []string{"Hello.", "", " Bye."}, "en", "de")
	if err != nil {
		t.Fatalf("TranslateBatch: %v", err)
	}
	want := []string{"de:Hello.", "de:", "de: Bye."}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestTranslateBatchProviderError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400036,"message":"The target language is not valid."}}`))
	})

	_, err := c.TranslateBatch(context.Background(), "tok", []string{"a."}, "en", "xx")
	var pe *types.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want ProviderError", err)
	}
	if pe.Status != http.StatusBadRequest || pe.Message != "The target language is not valid." {
		t.Fatalf("unexpected error %+v", pe)
	}
}

func TestTranslateBatchCountMismatch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"translations":[{"text":"only one"}]}]`))
	})

	_, err := c.TranslateBatch(context.Background(), "tok", []string{"a.", "b."}, "en", "de")
	if !errors.Is(err, types.ErrProvider) {
		t.Fatalf("err = %v, want provider error", err)
	}
}

func TestTranslateBatchErrorInSuccessResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error":{"code":400036,"message":"bad lang"}}`))
	})

	_, err := c.TranslateBatch(context.Background(), "tok", []string{"a."}, "en", "xx")
	var pe *types.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want ProviderError", err)
	}
	if pe.Status != http.StatusOK || pe.Message != "bad lang (code 400036)" {
		t.Fatalf("unexpected error %+v", pe)
	}
	if !errors.Is(err, types.ErrProvider) {
		t.Fatal("want ErrProvider")
	}
}

func TestTranslateBatchUndecodableResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`<html>gateway</html>`))
	})

	_, err := c.TranslateBatch(context.Background(), "tok", []string{"a."}, "en", "de")
	var pe *types.ProviderError
	if !errors.As(err, &pe) || pe.Err == nil {
		t.Fatalf("err = %v, want ProviderError with decode cause", err)
	}
}
