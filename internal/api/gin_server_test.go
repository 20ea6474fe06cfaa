package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"doc-bridge/internal/doc_translator"
	"doc-bridge/internal/segment"
	"doc-bridge/internal/services"
	"doc-bridge/internal/store"
	"doc-bridge/internal/token"
	"doc-bridge/pkg/database"
	"doc-bridge/pkg/types"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type suffixProvider struct {
	err   error
	delay time.Duration
}

func (p suffixProvider) TranslateBatch(ctx context.Context, _ string, texts []string, _, to string) ([]string, error) {
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.err != nil {
		return nil, p.err
	}
	out := make([]string, len(texts))
	for i, t := range texts {
		if t != "" {
			out[i] = t + "[" + to + "]"
		}
	}
	return out, nil
}

func newTestServer(t *testing.T, provider suffixProvider) *GinServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewSQLite(":memory:", zap.NewNop())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := store.CreateSchema(context.Background(), db); err != nil {
		t.Fatal(err)
	}

	logger := zap.NewNop()
	dispatcher := doc_translator.NewDispatcher(logger, provider, token.Static(""))
	translator := doc_translator.NewDocTranslatorService(logger, dispatcher, segment.Options{CharLimit: 4000})
	documents := doc_translator.NewDocumentService(logger, translator, store.NewDocumentStore(db))

	s := NewGinServer(logger, services.NewServices(translator, documents), Options{MaxUploadBytes: 1000, JobTimeout: time.Minute})
	t.Cleanup(s.Close)
	return s
}

func multipartBody(t *testing.T, filename, content string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		_, _ = part.Write([]byte(content))
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return body, w.FormDataContentType()
}

func do(s *GinServer, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.GetRouter().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, suffixProvider{})
	rec := do(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "healthy") {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
}

func TestBuildSegments(t *testing.T) {
	s := newTestServer(t, suffixProvider{})
	body, ct := multipartBody(t, "a.txt", "Hello world. This is a test.\n\nBye.", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/translate/segments", body)
	req.Header.Set("Content-Type", ct)

	rec := do(s, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
	var resp struct {
		TotalCharLength int               `json:"totalCharLength"`
		Batches         int               `json:"batches"`
		Segments        []segment.Segment `json:"segments"`
		Text            string            `json:"text"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.TotalCharLength != 32 || resp.Batches != 1 || len(resp.Segments) != 6 {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.Text != "Hello world. This is a test.\n\nBye.\n" {
		t.Errorf("rebuilt text = %q", resp.Text)
	}
}

func TestTranslateText(t *testing.T) {
	s := newTestServer(t, suffixProvider{})
	req := httptest.NewRequest(http.MethodPost, "/api/translate/text",
		strings.NewReader(`{"text":"One. Two.\nThree.","fromLanguage":"en","toLanguage":"de"}`))
	req.Header.Set("Content-Type", "application/json")

	rec := do(s, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
	var resp struct {
		Text string `json:"text"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Text != "One.[de] Two.[de]\nThree.[de]\n" {
		t.Fatalf("text = %q", resp.Text)
	}
}

func TestTranslateTextValidation(t *testing.T) {
	s := newTestServer(t, suffixProvider{})
	req := httptest.NewRequest(http.MethodPost, "/api/translate/text", strings.NewReader(`{"text":"x."}`))
	req.Header.Set("Content-Type", "application/json")

	if rec := do(s, req); rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestTranslateTextProviderFailure(t *testing.T) {
	s := newTestServer(t, suffixProvider{err: errors.New("unreachable")})
	req := httptest.NewRequest(http.MethodPost, "/api/translate/text",
		strings.NewReader(`{"text":"x.","toLanguage":"de"}`))
	req.Header.Set("Content-Type", "application/json")

	rec := do(s, req)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
}

func TestDocumentLifecycle(t *testing.T) {
	s := newTestServer(t, suffixProvider{})
	fields := map[string]string{"owner": "ann@example.com", "fromLanguage": "en", "toLanguage": "it"}

	for i := 0; i < 2; i++ {
		body, ct := multipartBody(t, "guide.txt", "Welcome home.", fields)
		req := httptest.NewRequest(http.MethodPost, "/api/translate/documents/translate", body)
		req.Header.Set("Content-Type", ct)
		if rec := do(s, req); rec.Code != http.StatusOK {
			t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
		}
	}

	rec := do(s, httptest.NewRequest(http.MethodGet, "/api/translate/documents?owner=ann@example.com", nil))
	var list struct {
		Msg   string                 `json:"msg"`
		Files []types.TranslatedFile `json:"translatedFiles"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if list.Msg != "user has files" || len(list.Files) != 2 {
		t.Fatalf("unexpected list %+v", list)
	}
	if list.Files[0].Name != "guide_it.txt" || list.Files[1].Name != "guide_it_2.txt" {
		t.Fatalf("names = %+v", list.Files)
	}

	id := list.Files[0].ID
	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/translate/documents/"+itoa(id)+"?owner=ann@example.com", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("download status = %d", rec.Code)
	}
	if rec.Body.String() != "Welcome home.[it]\n" {
		t.Fatalf("content = %q", rec.Body.String())
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "guide_it.txt") {
		t.Fatalf("disposition = %q", rec.Header().Get("Content-Disposition"))
	}

	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/translate/documents/"+itoa(id)+"?owner=bob@example.com", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("foreign download status = %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/translate/documents",
		strings.NewReader(`{"owner":"ann@example.com","ids":[`+itoa(id)+`]}`))
	req.Header.Set("Content-Type", "application/json")
	rec = do(s, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "guide_it_2.txt") {
		t.Fatalf("delete status = %d body = %s", rec.Code, rec.Body)
	}
}

func TestUploadErrors(t *testing.T) {
	s := newTestServer(t, suffixProvider{})
	fields := map[string]string{"owner": "ann@example.com", "toLanguage": "it"}

	body, ct := multipartBody(t, "", "", fields)
	req := httptest.NewRequest(http.MethodPost, "/api/translate/documents/translate", body)
	req.Header.Set("Content-Type", ct)
	if rec := do(s, req); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing file status = %d", rec.Code)
	}

	body, ct = multipartBody(t, "big.txt", strings.Repeat("x", 2000), fields)
	req = httptest.NewRequest(http.MethodPost, "/api/translate/documents/translate", body)
	req.Header.Set("Content-Type", ct)
	if rec := do(s, req); rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("large file status = %d", rec.Code)
	}

	body, ct = multipartBody(t, "a.txt", "x.", map[string]string{"owner": "ann@example.com"})
	req = httptest.NewRequest(http.MethodPost, "/api/translate/documents/translate", body)
	req.Header.Set("Content-Type", ct)
	if rec := do(s, req); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing language status = %d", rec.Code)
	}
}

func TestJobStream(t *testing.T) {
	s := newTestServer(t, suffixProvider{})
	fields := map[string]string{"owner": "ann@example.com", "toLanguage": "fr"}
	body, ct := multipartBody(t, "story.txt", "Once upon a time.\nThe end.", fields)
	req := httptest.NewRequest(http.MethodPost, "/api/translate/jobs", body)
	req.Header.Set("Content-Type", ct)

	rec := do(s, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil || created.ID == "" {
		t.Fatalf("bad job response %s", rec.Body)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	streamReq := httptest.NewRequest(http.MethodGet, "/api/translate/jobs/"+created.ID+"/stream", nil).WithContext(ctx)
	rec = do(s, streamReq)

	out := rec.Body.String()
	for _, want := range []string{`"type":"progress"`, `"type":"result"`, `story_fr.txt`, `{"type":"done"}`} {
		if !strings.Contains(out, want) {
			t.Fatalf("stream missing %s:\n%s", want, out)
		}
	}
}

func TestJobStreamOutlivesWriteTimeout(t *testing.T) {
	s := newTestServer(t, suffixProvider{delay: 800 * time.Millisecond})
	srv := httptest.NewUnstartedServer(s.GetRouter())
	srv.Config.WriteTimeout = 300 * time.Millisecond
	srv.Start()
	defer srv.Close()

	fields := map[string]string{"owner": "ann@example.com", "toLanguage": "fr"}
	body, ct := multipartBody(t, "slow.txt", "Slow going.", fields)
	req := httptest.NewRequest(http.MethodPost, "/api/translate/jobs", body)
	req.Header.Set("Content-Type", ct)
	rec := do(s, req)
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil || created.ID == "" {
		t.Fatalf("bad job response %s", rec.Body)
	}

	resp, err := srv.Client().Get(srv.URL + "/api/translate/jobs/" + created.ID + "/stream")
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)

	for _, want := range []string{`slow_fr.txt`, `{"type":"done"}`} {
		if !strings.Contains(string(out), want) {
			t.Fatalf("stream cut short, missing %s:\n%s", want, out)
		}
	}
}

func TestJobStreamUnknown(t *testing.T) {
	s := newTestServer(t, suffixProvider{})
	rec := do(s, httptest.NewRequest(http.MethodGet, "/api/translate/jobs/nope/stream", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func itoa(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}
