package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remedyhq/remedy"
	"github.com/remedyhq/remedy/pkg/adapters/memory"
	"github.com/remedyhq/remedy/pkg/adapters/rules"
	"github.com/remedyhq/remedy/pkg/observability"
)

func newTestHandler(t *testing.T, opts ...Option) http.Handler {
	t.Helper()
	eng, err := remedy.New(memory.NewStore(), rules.NewAdapterSet())
	require.NoError(t, err)
	return NewHandler(eng, opts...)
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	h := newTestHandler(t)

	w := doJSON(t, h, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
}

func TestStartSeedSessionCompletes(t *testing.T) {
	h := newTestHandler(t)

	w := doJSON(t, h, http.MethodPost, "/sessions", startRequest{
		SessionID: "inc-1",
		Seed: map[string]any{
			"alert_info": map[string]any{
				"id": "a1", "severity": "high", "source": "web-1", "message": "cpu load spike at 98%",
			},
			"symptoms": []string{"cpu spike at 98%", "load climbing", "app slow"},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := decode(t, w)
	state := body["state"].(map[string]any)
	assert.Equal(t, "terminated", state["status"])
	assert.Equal(t, "completed", state["terminal_reason"])
	assert.NotNil(t, state["report"])
	assert.Nil(t, body["waiting"])
}

func TestStartTextSuspendsAndResumes(t *testing.T) {
	h := newTestHandler(t)

	w := doJSON(t, h, http.MethodPost, "/sessions", startRequest{
		SessionID: "inc-2",
		Text:      "please help, it is broken",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	waiting := decode(t, w)["waiting"].(map[string]any)
	token := waiting["token"].(string)
	require.NotEmpty(t, token)

	// The prompt is queryable while suspended.
	w = doJSON(t, h, http.MethodGet, "/sessions/inc-2/prompt", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, token, decode(t, w)["token"])

	w = doJSON(t, h, http.MethodPost, "/resume/"+token, resumeRequest{
		Input: "CPU is at 98% on web-1 and the app is slow.",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	state := decode(t, w)["state"].(map[string]any)
	assert.Equal(t, "terminated", state["status"])
}

func TestStartValidation(t *testing.T) {
	h := newTestHandler(t)

	// Neither text nor seed.
	w := doJSON(t, h, http.MethodPost, "/sessions", startRequest{SessionID: "inc-3"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown seed fields.
	w = doJSON(t, h, http.MethodPost, "/sessions", startRequest{
		SessionID: "inc-3",
		Seed:      map[string]any{"bogus": 1},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStartDuplicateConflicts(t *testing.T) {
	h := newTestHandler(t)

	w := doJSON(t, h, http.MethodPost, "/sessions", startRequest{SessionID: "inc-4", Text: "please help"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, h, http.MethodPost, "/sessions", startRequest{SessionID: "inc-4", Text: "please help"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestResumeUnknownTokenIs404(t *testing.T) {
	h := newTestHandler(t)

	w := doJSON(t, h, http.MethodPost, "/resume/nope", resumeRequest{Input: "hello"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetListCancelDelete(t *testing.T) {
	h := newTestHandler(t)

	w := doJSON(t, h, http.MethodPost, "/sessions", startRequest{SessionID: "inc-5", Text: "please help"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, h, http.MethodGet, "/sessions/inc-5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "inc-5", decode(t, w)["session_id"])

	w = doJSON(t, h, http.MethodGet, "/sessions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	sessions := decode(t, w)["sessions"].([]any)
	require.Len(t, sessions, 1)

	w = doJSON(t, h, http.MethodPost, "/sessions/inc-5/cancel", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cancelled", decode(t, w)["terminal_reason"])

	// Cancelling a terminal session conflicts.
	w = doJSON(t, h, http.MethodPost, "/sessions/inc-5/cancel", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, h, http.MethodDelete, "/sessions/inc-5", nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, h, http.MethodGet, "/sessions/inc-5", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics("remedy")
	require.NoError(t, m.Register(reg))

	h := newTestHandler(t, WithMetrics(reg))

	w := doJSON(t, h, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodOptions, "/sessions", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
