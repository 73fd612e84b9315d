package http

import (
	"context"
	"encoding/json"
	"errors"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paperdeck/internal/app"
	"paperdeck/internal/domain"
	"paperdeck/internal/model"
	"paperdeck/internal/pkg/jwtutil"
	"paperdeck/internal/transport/http/handler"
)

type fakeProcessor struct {
	outcome *app.Outcome
	err     error
	gotName string
}

func (f *fakeProcessor) Process(_ context.Context, name string) (*app.Outcome, error) {
	f.gotName = name
	if strings.TrimSpace(name) == "" {
		return nil, app.ErrMissingDocumentName
	}
	return f.outcome, f.err
}

func (f *fakeProcessor) Enqueue(_ context.Context, name string) (string, error) {
	f.gotName = name
	if f.err != nil {
		return "", f.err
	}
	return name + ".pdf", nil
}

type fakeSummaries struct {
	pages []model.SummaryPage
	err   error
}

func (f *fakeSummaries) List(context.Context) ([]model.SummaryPage, error) {
	return f.pages, f.err
}

func (f *fakeSummaries) GetSummary(_ context.Context, id string) (*model.SummaryPage, error) {
	for _, p := range f.pages {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, domain.NotFound("summary page "+id, nil)
}

func setupTestServer(t *testing.T, proc *fakeProcessor, sums *fakeSummaries, authEnabled bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := app.HashPassword("correct horse")
	require.NoError(t, err)

	return NewEngine(RouterDeps{
		Processor: proc,
		Summaries: sums,
		Auth:      app.NewAuthService(authEnabled, "operator", hash, "secret", time.Hour),
		Health: handler.NewHealthHandler("paperdeck", "test", time.Now(), map[string]handler.CheckFunc{
			"mysql": func(context.Context) error { return nil },
		}),
		AuthEnabled: authEnabled,
		JWTSecret:   "secret",
		CORSOrigins: []string{"http://localhost", "http://localhost:3000"},
		Logger:      zerolog.Nop(),
	})
}

func doJSON(engine *gin.Engine, method, path, body string, headers map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	var decoded map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &decoded)
	return rec, decoded
}

func TestProcessReturnsHTMLURL(t *testing.T) {
	proc := &fakeProcessor{outcome: &app.Outcome{State: app.StateCleanedUp, URL: "https://cdn.example.com/paper/paper_x_slide.html"}}
	engine := setupTestServer(t, proc, &fakeSummaries{}, false)

	rec, body := doJSON(engine, nethttp.MethodPost, "/api/process", `{"document_name":"paper_x.pdf"}`, nil)

	assert.Equal(t, nethttp.StatusOK, rec.Code)
	assert.Equal(t, "https://cdn.example.com/paper/paper_x_slide.html", body["html_url"])
	assert.Equal(t, "paper_x.pdf", proc.gotName)
}

func TestProcessErrorMapping(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		err     error
		status  int
		message string
	}{
		{"blank name", `{"document_name":""}`, nil, nethttp.StatusBadRequest, "No PDF file name provided"},
		{"no body", ``, nil, nethttp.StatusBadRequest, "No PDF file name provided"},
		{"missing source", `{"document_name":"x"}`, domain.NotFound("source", nil), nethttp.StatusNotFound, "PDF file not found"},
		{"busy", `{"document_name":"x"}`, app.ErrBusy, nethttp.StatusConflict, "PDF file is already being processed"},
		{"render failure", `{"document_name":"x"}`, domain.RenderError("marp failed", errors.New("exit 1")), nethttp.StatusInternalServerError, "Failed to process the PDF file"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			engine := setupTestServer(t, &fakeProcessor{err: tc.err}, &fakeSummaries{}, false)

			rec, body := doJSON(engine, nethttp.MethodPost, "/api/process", tc.body, nil)

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.message, body["error"])
		})
	}
}

func TestProcessRequiresTokenWhenAuthEnabled(t *testing.T) {
	proc := &fakeProcessor{outcome: &app.Outcome{URL: "u"}}
	engine := setupTestServer(t, proc, &fakeSummaries{}, true)

	rec, _ := doJSON(engine, nethttp.MethodPost, "/api/process", `{"document_name":"x"}`, nil)
	assert.Equal(t, nethttp.StatusUnauthorized, rec.Code)

	rec, body := doJSON(engine, nethttp.MethodPost, "/api/auth/login", `{"username":"operator","password":"correct horse"}`, nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	token, _ := body["token"].(string)
	_, err := jwtutil.ParseToken("secret", token)
	require.NoError(t, err)

	rec, _ = doJSON(engine, nethttp.MethodPost, "/api/process", `{"document_name":"x"}`, map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, nethttp.StatusOK, rec.Code)
}

func TestEnqueue(t *testing.T) {
	engine := setupTestServer(t, &fakeProcessor{}, &fakeSummaries{}, false)

	rec, body := doJSON(engine, nethttp.MethodPost, "/api/process/async", `{"document_name":"paper_x"}`, nil)
	assert.Equal(t, nethttp.StatusAccepted, rec.Code)
	assert.Equal(t, "paper_x.pdf", body["document_name"])
	assert.Equal(t, true, body["queued"])

	engine = setupTestServer(t, &fakeProcessor{err: app.ErrQueueDisabled}, &fakeSummaries{}, false)
	rec, _ = doJSON(engine, nethttp.MethodPost, "/api/process/async", `{"document_name":"paper_x"}`, nil)
	assert.Equal(t, nethttp.StatusServiceUnavailable, rec.Code)
}

func TestSummaryPages(t *testing.T) {
	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	sums := &fakeSummaries{pages: []model.SummaryPage{
		{ID: "id-1", Title: "paper_x", URL: "https://cdn.example.com/paper/paper_x_slide.html", Summary: "M'", CreatedAt: ts, UpdatedAt: ts.Add(time.Hour)},
	}}
	engine := setupTestServer(t, &fakeProcessor{}, sums, false)

	rec, body := doJSON(engine, nethttp.MethodGet, "/api/summary_pages", "", nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)

	pages, ok := body["summary_pages"].([]any)
	require.True(t, ok)
	require.Len(t, pages, 1)
	first := pages[0].(map[string]any)
	assert.Equal(t, "id-1", first["id"])
	assert.Equal(t, "paper_x", first["title"])
	assert.Equal(t, "2024-05-01T10:00:00Z", first["created_at"])
	assert.Equal(t, "2024-05-01T11:00:00Z", first["updated_at"])
	assert.NotContains(t, first, "summary")

	rec, body = doJSON(engine, nethttp.MethodGet, "/api/summary_pages/id-1/summary", "", nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	assert.Equal(t, "M'", body["summary"])

	rec, _ = doJSON(engine, nethttp.MethodGet, "/api/summary_pages/nope/summary", "", nil)
	assert.Equal(t, nethttp.StatusNotFound, rec.Code)
}

func TestSummaryPagesFailure(t *testing.T) {
	engine := setupTestServer(t, &fakeProcessor{}, &fakeSummaries{err: errors.New("db down")}, false)

	rec, body := doJSON(engine, nethttp.MethodGet, "/api/summary_pages", "", nil)
	assert.Equal(t, nethttp.StatusInternalServerError, rec.Code)
	assert.Equal(t, "An internal server error occurred", body["error"])
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	engine := setupTestServer(t, &fakeProcessor{}, &fakeSummaries{}, false)

	req := httptest.NewRequest(nethttp.MethodOptions, "/api/summary_pages", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealthz(t *testing.T) {
	engine := setupTestServer(t, &fakeProcessor{}, &fakeSummaries{}, false)

	rec, body := doJSON(engine, nethttp.MethodGet, "/healthz", "", nil)
	assert.Equal(t, nethttp.StatusOK, rec.Code)
	deps := body["dependencies"].(map[string]any)
	assert.Equal(t, true, deps["mysql"].(map[string]any)["ok"])
}
