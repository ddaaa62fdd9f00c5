package v1

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantle/sibyl/pkg/utils/json"
)

type upstreamCapture struct {
	body    []byte
	headers http.Header
}

func newStreamEngine(t *testing.T, lines []string, capture *upstreamCapture) *gin.Engine {
	t.Helper()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if capture != nil {
			capture.body, _ = io.ReadAll(r.Body)
			capture.headers = r.Header.Clone()
		}
		w.Header().Set("Content-Type", "application/x-ndjson")
		for _, line := range lines {
			_, _ = io.WriteString(w, line+"\n")
		}
	}))
	t.Cleanup(upstream.Close)

	gin.SetMode(gin.TestMode)
	g := gin.New()
	handler := NewQueryStreamHandler(func() (string, string) {
		return upstream.URL, "backend-secret"
	})
	g.POST("/api/v1/query/stream", handler.Handle)
	return g
}

func postStream(g *gin.Engine, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/query/stream", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	g.ServeHTTP(rec, req)
	return rec
}

func TestQueryStreamBridgesEventsToSSE(t *testing.T) {
	capture := &upstreamCapture{}
	g := newStreamEngine(t, []string{
		`{"event":"phase","phase":"generating_sql","iteration":1}`,
		`{"event":"step","step":{"iteration":1,"sql":"SELECT 1"}}`,
		`{"event":"completed","final_sql":"SELECT 1"}`,
	}, capture)

	rec := postStream(g, `{"question":"how many orders?"}`, map[string]string{
		"X-Sibyl-Principal": "7e57ab1e-0000-4000-8000-000000000001",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no", rec.Header().Get("X-Accel-Buffering"))

	body := rec.Body.String()
	assert.Contains(t, body, "event:phase")
	assert.Contains(t, body, "event:step")
	assert.Contains(t, body, "event:completed")
	assert.Contains(t, body, `"final_sql":"SELECT 1"`)

	// The upstream call carried the backend token and the caller identity.
	assert.Equal(t, "Bearer backend-secret", capture.headers.Get("Authorization"))
	assert.Equal(t, "7e57ab1e-0000-4000-8000-000000000001", capture.headers.Get("X-Sibyl-Principal"))

	var fwd map[string]any
	require.NoError(t, json.Unmarshal(capture.body, &fwd))
	assert.Equal(t, "how many orders?", fwd["question"])
}

func TestQueryStreamStopsAtTerminalEvent(t *testing.T) {
	g := newStreamEngine(t, []string{
		`{"event":"completed","final_sql":"SELECT 1"}`,
		`{"event":"phase","phase":"generating_sql","iteration":9}`,
	}, nil)

	rec := postStream(g, `{"question":"q"}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "event:completed")
	assert.NotContains(t, body, `"iteration":9`)
}

func TestQueryStreamDropsUndecodableLines(t *testing.T) {
	g := newStreamEngine(t, []string{
		`{"event":"phase","phase":"analyzing_question","iteration":1}`,
		`{not json`,
		`{"no_discriminator":true}`,
		`{"event":"completed"}`,
	}, nil)

	rec := postStream(g, `{"question":"q"}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "event:phase")
	assert.Contains(t, body, "event:completed")
	assert.NotContains(t, body, "not json")
	assert.NotContains(t, body, "no_discriminator")
}

func TestQueryStreamRejectsEmptyQuestion(t *testing.T) {
	g := newStreamEngine(t, nil, nil)

	rec := postStream(g, `{"question":""}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "question must not be empty")
}

func TestQueryStreamAllowsResumeWithoutQuestion(t *testing.T) {
	capture := &upstreamCapture{}
	g := newStreamEngine(t, []string{
		`{"event":"completed","final_sql":"SELECT 1"}`,
	}, capture)

	rec := postStream(g, `{"question":"","session_state":"tok123","user_response":"last 30 days"}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var fwd map[string]any
	require.NoError(t, json.Unmarshal(capture.body, &fwd))
	assert.Equal(t, "tok123", fwd["session_state"])
	assert.Equal(t, "last 30 days", fwd["user_response"])
}

func TestQueryStreamUpstreamUnreachable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	g := gin.New()
	handler := NewQueryStreamHandler(func() (string, string) {
		return "http://127.0.0.1:1", ""
	})
	g.POST("/api/v1/query/stream", handler.Handle)

	rec := postStream(g, `{"question":"q"}`, nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "code")
}
