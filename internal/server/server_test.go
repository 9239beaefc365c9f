package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/worldview/internal/model"
	"github.com/ppiankov/worldview/internal/pipeline"
)

const validDoc = `Trust
  .formation
    - slow | uncertain situations @experience
`

const invalidDoc = `Trust
 .formation
    - slow
`

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *model.Config {
	cfg := model.DefaultConfig()
	cfg.Cache.Enabled = false
	cfg.Limits.MaxDocumentBytes = 1024
	cfg.Server.RequestsPerSecond = 0
	return cfg
}

func newTestServer(t *testing.T, cfg *model.Config) *Server {
	t.Helper()
	s, err := New(cfg, pipeline.NewPipeline(cfg), nil)
	require.NoError(t, err)
	return s
}

func do(s *Server, method, path, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, testConfig())
	rec := do(s, http.MethodGet, "/healthz", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestValidate_PlainText(t *testing.T) {
	s := newTestServer(t, testConfig())
	rec := do(s, http.MethodPost, "/v1/validate", "text/plain", validDoc)
	require.Equal(t, http.StatusOK, rec.Code)

	var report model.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.True(t, report.Valid)
	assert.Empty(t, report.Errors)
	assert.Equal(t, rec.Header().Get(RequestIDHeader), report.Source)
	require.NotNil(t, report.Stats)
	assert.Equal(t, 1, report.Stats.Claims)
}

func TestValidate_JSONBody(t *testing.T) {
	s := newTestServer(t, testConfig())
	body, err := json.Marshal(map[string]string{"document": invalidDoc})
	require.NoError(t, err)

	rec := do(s, http.MethodPost, "/v1/validate", "application/json", string(body))
	require.Equal(t, http.StatusOK, rec.Code)

	var report model.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.False(t, report.Valid)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, model.KindMalformedIndentation, report.Errors[0].Kind)
	assert.Equal(t, 2, report.Errors[0].Line)
}

func TestValidate_BadJSON(t *testing.T) {
	s := newTestServer(t, testConfig())
	rec := do(s, http.MethodPost, "/v1/validate", "application/json", `{"document":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "decode request body")
}

func TestValidate_TooLarge(t *testing.T) {
	s := newTestServer(t, testConfig())

	big := "Trust\n  .formation\n" + strings.Repeat("    - slow\n", 200)
	rec := do(s, http.MethodPost, "/v1/validate", "text/plain", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	body, err := json.Marshal(map[string]string{"document": big})
	require.NoError(t, err)
	rec = do(s, http.MethodPost, "/v1/validate", "application/json", string(body))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestParse_ReturnsTree(t *testing.T) {
	s := newTestServer(t, testConfig())
	rec := do(s, http.MethodPost, "/v1/parse", "text/plain", validDoc)
	require.Equal(t, http.StatusOK, rec.Code)

	var res pipeline.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.NotNil(t, res.Document)
	require.Len(t, res.Document.Concepts, 1)

	concept := res.Document.Concepts[0]
	assert.Equal(t, "Trust", concept.Name)
	require.Len(t, concept.Facets, 1)
	require.Len(t, concept.Facets[0].Claims, 1)

	claim := concept.Facets[0].Claims[0]
	assert.Equal(t, "slow", claim.Text)
	assert.Equal(t, []model.Condition{{Text: "uncertain situations"}}, claim.Conditions)
	assert.Equal(t, []model.Source{{Text: "experience"}}, claim.Sources)
	assert.True(t, res.Report.Valid)
}

func TestRequestID_Echoed(t *testing.T) {
	s := newTestServer(t, testConfig())
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Server.RequestsPerSecond = 1
	cfg.Server.Burst = 1
	s := newTestServer(t, cfg)

	first := do(s, http.MethodPost, "/v1/validate", "text/plain", validDoc)
	second := do(s, http.MethodPost, "/v1/validate", "text/plain", validDoc)

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)

	// health checks are not limited
	assert.Equal(t, http.StatusOK, do(s, http.MethodGet, "/healthz", "", "").Code)
}

func limitedPost(s *Server, remoteAddr, forwardedFor string) int {
	req := httptest.NewRequest(http.MethodPost, "/v1/validate", strings.NewReader(validDoc))
	req.Header.Set("Content-Type", "text/plain")
	req.RemoteAddr = remoteAddr
	if forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", forwardedFor)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimit_IgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	cfg := testConfig()
	cfg.Server.RequestsPerSecond = 0.001
	cfg.Server.Burst = 1
	s := newTestServer(t, cfg)

	var codes []int
	for i := 1; i <= 5; i++ {
		codes = append(codes, limitedPost(s, "192.0.2.10:4000", fmt.Sprintf("203.0.113.%d", i)))
	}

	assert.Equal(t, []int{200, 429, 429, 429, 429}, codes)
	assert.Equal(t, 1, s.limiter.Len())
}

func TestRateLimit_TrustedProxyForwardsClient(t *testing.T) {
	cfg := testConfig()
	cfg.Server.RequestsPerSecond = 0.001
	cfg.Server.Burst = 1
	s := newTestServer(t, cfg)

	assert.Equal(t, http.StatusOK, limitedPost(s, "127.0.0.1:4000", "203.0.113.1"))
	assert.Equal(t, http.StatusOK, limitedPost(s, "127.0.0.1:4000", "203.0.113.2"))
	assert.Equal(t, http.StatusTooManyRequests, limitedPost(s, "127.0.0.1:4000", "203.0.113.1"))
}

func TestNew_RejectsInvalidTrustedProxy(t *testing.T) {
	cfg := testConfig()
	cfg.Server.TrustedProxies = []string{"not-an-address"}

	_, err := New(cfg, pipeline.NewPipeline(cfg), nil)
	assert.Error(t, err)
}

func TestCORS(t *testing.T) {
	cfg := testConfig()
	cfg.Server.AllowOrigins = []string{"http://localhost:3000"}
	s := newTestServer(t, cfg)

	req := httptest.NewRequest(http.MethodOptions, "/v1/validate", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}
