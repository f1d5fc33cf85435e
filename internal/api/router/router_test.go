package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalhouse/triage/internal/classification"
	"github.com/signalhouse/triage/internal/ledger"
	"github.com/signalhouse/triage/internal/pipeline"
	"github.com/signalhouse/triage/internal/routing"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	return New(&Config{
		IngestHandler:   pipeline.NewIngestHandler(pipeline.NewMemoryQueue(8), nil, nil),
		MessagesHandler: classification.NewHandler(classification.NewMemoryStore(), nil),
		UsageHandler:    ledger.NewHandler(ledger.NewMemoryStore(), nil),
		RoutingHandler:  routing.NewHandler(routing.NewMemoryRegistry(), nil, nil),
		AdminAuthSecret: "secret",
	})
}

func TestHealthEndpoint(t *testing.T) {
	h := newTestHandler(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestIngestEndpointAccepts(t *testing.T) {
	h := newTestHandler(t)
	body := []byte(`{"id":"msg-1","content":"hi","channel":{"id":"c1"}}`)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ingest/messages", bytes.NewReader(body)))
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestDashboardReadsArePublic(t *testing.T) {
	h := newTestHandler(t)
	for _, path := range []string{
		"/api/messages/",
		"/api/messages/needing-response",
		"/api/messages/stats",
		"/api/usage/stats",
		"/api/usage/models",
		"/api/destinations",
		"/api/webhook-settings",
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, "GET %s", path)
	}
}

func TestMutationsRequireAdminJWT(t *testing.T) {
	h := newTestHandler(t)

	body := []byte(`{"name":"Backend","webhook_url":"https://hooks.test/backend"}`)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/destinations", bytes.NewReader(body)))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	token := signedToken(t, "secret")
	req := httptest.NewRequest(http.MethodPost, "/api/destinations", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestIngestRateLimit(t *testing.T) {
	h := New(&Config{
		IngestHandler:   pipeline.NewIngestHandler(pipeline.NewMemoryQueue(16), nil, nil),
		IngestRateLimit: 1,
		IngestBurst:     2,
	})

	body := `{"id":"msg-%d","content":"hi","channel":{"id":"c1"}}`
	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ingest/messages", bytes.NewBufferString(body)))
		codes = append(codes, rec.Code)
	}
	assert.Contains(t, codes, http.StatusTooManyRequests)
}

func signedToken(t *testing.T, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}
