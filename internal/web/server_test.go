package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/csvloc/internal/codec"
	"github.com/JonMunkholm/csvloc/internal/config"
	"github.com/JonMunkholm/csvloc/internal/core"
	"github.com/JonMunkholm/csvloc/internal/testutil"
	"github.com/JonMunkholm/csvloc/internal/translation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{RequestTimeout: 10 * time.Second},
		Jobs:   config.JobsConfig{MaxFileSize: 1 << 20},
		Rate:   config.RateLimitConfig{Enabled: false},
		Security: config.SecurityConfig{
			EnableCSP: true,
		},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) (*Server, translation.Store) {
	t.Helper()

	reg := core.NewRegistry()
	reg.Register(core.FileType{
		Glob:    "**/strings.csv",
		Options: codec.Options{Key: "id", NonLocalizable: []string{"id"}},
	})

	store := translation.NewMemoryStore()
	svc, err := core.NewService(core.Options{
		Registry: reg,
		Store:    store,
		Project:  "webapp",
		Logger:   testutil.NewTestLogger(t),
	})
	require.NoError(t, err)

	srv := NewServer(svc, cfg)
	t.Cleanup(func() { srv.Shutdown(context.Background()) })
	return srv, store
}

func do(t *testing.T, srv *Server, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

const stringsBody = "id,name\n1,Save\n2,\"Open, then edit\"\n"

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	rec := do(t, srv, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
}

func TestParse(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	rec := do(t, srv, http.MethodPost, "/api/parse?path=res/strings.csv", stringsBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[ParseResponse](t, rec)
	assert.Equal(t, "id", resp.Key)
	assert.Equal(t, ",", resp.Separator)
	assert.Equal(t, []codec.Column{{Name: "id"}, {Name: "name", Localizable: true}}, resp.Columns)
	require.Len(t, resp.Records, 2)
	assert.Equal(t, "Open, then edit", resp.Records[1]["name"])
	require.Len(t, resp.Cells, 2)
	assert.Equal(t, "en-US", resp.Cells[0].Locale)
}

func TestParse_Errors(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	tests := []struct {
		name     string
		target   string
		body     string
		wantCode int
		wantErr  string
	}{
		{"missing path", "/api/parse", stringsBody, http.StatusBadRequest, "FILE004"},
		{"empty body", "/api/parse?path=a.csv", "  \n", http.StatusBadRequest, "FILE003"},
		{"no mapping", "/api/parse?path=notes.txt", stringsBody, http.StatusUnprocessableEntity, "MAP001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, tt.target, tt.body)
			assert.Equal(t, tt.wantCode, rec.Code)
			resp := decode[ErrorResponse](t, rec)
			assert.Equal(t, tt.wantErr, resp.Code)
			assert.NotEmpty(t, resp.Action)
		})
	}
}

func TestParse_TooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.Jobs.MaxFileSize = 8
	srv, _ := newTestServer(t, cfg)

	rec := do(t, srv, http.MethodPost, "/api/parse?path=a.csv", stringsBody)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "FILE001", decode[ErrorResponse](t, rec).Code)
}

func TestExtractThenLocalize(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	rec := do(t, srv, http.MethodPost, "/api/extract?path=strings.csv", stringsBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	extracted := decode[ExtractResponse](t, rec)
	assert.Equal(t, 2, extracted.Count)

	rec = do(t, srv, http.MethodGet, "/api/translations", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]translation.Resource](t, rec), 2)

	rec = do(t, srv, http.MethodPost, "/api/translations",
		`[{"source":"Open, then edit","target":"Ouvrir, puis modifier","targetLocale":"fr-FR"}]`,
		"Content-Type", "application/json")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/api/translations?locale=fr-FR", "")
	saved := decode[[]translation.Resource](t, rec)
	require.Len(t, saved, 1)
	assert.Equal(t, "webapp", saved[0].Project)

	rec = do(t, srv, http.MethodPost, "/api/localize/fr-FR?path=strings.csv", stringsBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "id,name\n1,Save\n2,\"Ouvrir, puis modifier\"", rec.Body.String())
	assert.Equal(t, "fr-FR", rec.Header().Get("Content-Language"))
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
}

func TestLocalize_InvalidLocale(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	rec := do(t, srv, http.MethodPost, "/api/localize/not_a_locale!?path=a.csv", stringsBody)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "LOC001", decode[ErrorResponse](t, rec).Code)
}

func TestSaveTranslations_Errors(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	rec := do(t, srv, http.MethodPost, "/api/translations", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/translations", `[]`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/translations", `[{"source":"a","target":"b"}]`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "LOC001", decode[ErrorResponse](t, rec).Code)
}

func TestMerge(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	body, err := json.Marshal(MergeRequest{
		Path:   "strings.csv",
		Target: "id,name\n1,Save\n2,Open\n",
		Source: "id,name,note\n2,Open file,new\n3,Close,\n",
	})
	require.NoError(t, err)

	rec := do(t, srv, http.MethodPost, "/api/merge", string(body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[MergeResponse](t, rec)
	assert.Equal(t, "id,name,note\n1,Save,\n2,Open file,new\n3,Close,", resp.Text)
	assert.Equal(t, codec.MergeStats{ColumnsAdded: 1, Updated: 1, Appended: 1}, resp.Stats)

	rec = do(t, srv, http.MethodPost, "/api/merge", `{"target":"a"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFileTypesAndJobs(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	rec := do(t, srv, http.MethodGet, "/api/file-types", "")
	require.Equal(t, http.StatusOK, rec.Code)
	types := decode[[]FileTypeResponse](t, rec)
	require.Len(t, types, 3)
	assert.Equal(t, "**/*.csv", types[0].Glob)
	assert.Equal(t, "\t", types[1].Separator)
	assert.Equal(t, "id", types[2].Key)

	rec = do(t, srv, http.MethodGet, "/api/file-types/**/strings.csv", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	ft := decode[FileTypeResponse](t, rec)
	assert.Equal(t, "**/strings.csv", ft.Glob)
	assert.Equal(t, ",", ft.Separator)
	assert.Equal(t, []string{"id"}, ft.NonLocalizable)

	rec = do(t, srv, http.MethodGet, "/api/file-types/**/*.psv", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "MAP002", decode[ErrorResponse](t, rec).Code)

	rec = do(t, srv, http.MethodGet, "/api/jobs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	jobs := decode[JobsResponse](t, rec)
	assert.Empty(t, jobs.Jobs)
	assert.Equal(t, core.DefaultMaxConcurrentJobs, jobs.Limiter.MaxConcurrent)

	rec = do(t, srv, http.MethodGet, "/api/jobs/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 2, JobLimit: 1}
	srv, _ := newTestServer(t, cfg)

	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/healthz", "").Code)

	rec := do(t, srv, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, "RATE001", decode[ErrorResponse](t, rec).Code)
}

func TestAPIKeyAuth(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RequireAPIKey = true
	cfg.Security.APIKeys = []string{"secret"}
	srv, _ := newTestServer(t, cfg)

	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/healthz", "").Code, "health is public")
	assert.Equal(t, http.StatusUnauthorized, do(t, srv, http.MethodGet, "/api/jobs", "").Code)
	assert.Equal(t, http.StatusForbidden, do(t, srv, http.MethodGet, "/api/jobs", "", "X-API-Key", "nope").Code)
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/api/jobs", "", "X-API-Key", "secret").Code)
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/api/jobs", "", "Authorization", "Bearer secret").Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(core.ErrTooManyJobs))
	assert.Equal(t, http.StatusGatewayTimeout, statusFor(context.DeadlineExceeded))
	assert.Equal(t, http.StatusBadRequest, statusFor(core.ErrNoLocales))
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}
