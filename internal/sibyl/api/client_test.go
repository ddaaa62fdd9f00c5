package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantle/sibyl/internal/sibyl/react"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{
		BaseURL:   srv.URL,
		Token:     "secret-token",
		Principal: uuid.MustParse("7e57ab1e-0000-4000-8000-000000000001"),
	})
	require.NoError(t, err)
	return c
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestNewClientValidatesBaseURL(t *testing.T) {
	for _, bad := range []string{"", "not a url", "localhost:8080"} {
		_, err := NewClient(Config{BaseURL: bad})
		assert.Error(t, err, "base URL %q", bad)
	}
}

func TestClientSendsAuthAndPrincipalHeaders(t *testing.T) {
	var gotAuth, gotPrincipal string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPrincipal = r.Header.Get(PrincipalHeader)
		w.Write([]byte(`{"cubes":[]}`))
	}))

	_, err := c.OLAP().List(testCtx(t))
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret-token", gotAuth)
	assert.Equal(t, "7e57ab1e-0000-4000-8000-000000000001", gotPrincipal)
}

func TestClientDecodesRichErrorBody(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"detail":"cube name already taken","error_type":"conflict"}`))
	}))

	_, err := c.OLAP().Create(testCtx(t), &Cube{Name: "sales"})
	require.Error(t, err)

	apiErr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Equal(t, "conflict", apiErr.Code)
	assert.Equal(t, "cube name already taken", apiErr.Detail)
	assert.Equal(t, "conflict: cube name already taken", apiErr.Error())
}

func TestClientDecodesPlainTextError(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream unavailable"))
	}))

	_, err := c.Graph().Summary(testCtx(t))
	require.Error(t, err)
	apiErr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, "upstream unavailable", apiErr.Detail)
}

func TestClientEmptyErrorBodyFallsBackToStatus(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	_, err := c.Graph().Summary(testCtx(t))
	require.Error(t, err)
	assert.Equal(t, "HTTP 503", err.Error())
}

func TestIsNotFound(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail":"no such incident"}`))
	}))

	_, err := c.Incidents().Get(testCtx(t), "missing")
	assert.True(t, IsNotFound(err))
	assert.False(t, IsNotFound(context.Canceled))
}

func TestText2SQLStreamTurnDecodesEvents(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/text2sql/stream", r.URL.Path)
		w.Write([]byte(
			`{"event":"phase","phase":"thinking"}` + "\n" +
				`this line is not json` + "\n" +
				`{"event":"step","step":{"iteration":1,"reasoning":"r","partial_sql":"SELECT 1"}}` + "\n" +
				`{"event":"completed","response":{"final_sql":"SELECT 1"}}` + "\n" +
				`{"event":"phase","phase":"acting"}` + "\n"))
	}))

	var events []react.EventType
	err := c.Text2SQL().StreamTurn(testCtx(t), &react.TurnRequest{Question: "q"}, func(ev *react.Event) bool {
		events = append(events, ev.Event)
		return true
	})
	require.NoError(t, err)
	// Malformed line dropped, post-terminal line never surfaced.
	assert.Equal(t, []react.EventType{react.EventPhase, react.EventStep, react.EventCompleted}, events)
}

func TestText2SQLStreamTurnForwardsRequestBody(t *testing.T) {
	var gotBody []byte
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{"event":"completed","response":{}}` + "\n"))
	}))

	req := &react.TurnRequest{Question: "orders", SessionState: "tok123", UserResponse: "last 30 days"}
	err := c.Text2SQL().StreamTurn(testCtx(t), req, func(*react.Event) bool { return true })
	require.NoError(t, err)

	assert.Contains(t, string(gotBody), `"question":"orders"`)
	assert.Contains(t, string(gotBody), `"session_state":"tok123"`)
	assert.Contains(t, string(gotBody), `"user_response":"last 30 days"`)
}

func TestGraphSearchRequiresQuery(t *testing.T) {
	c := testClient(t, http.NotFoundHandler())
	_, err := c.Graph().Search(testCtx(t), "", 10)
	assert.Error(t, err)
}
