package v1

import (
	"net/http"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"

	"github.com/vantle/sibyl/internal/sibyl/react"
	"github.com/vantle/sibyl/pkg/core"
	"github.com/vantle/sibyl/pkg/errorx"
	"github.com/vantle/sibyl/pkg/logger"
	"github.com/vantle/sibyl/pkg/streaming"
)

// Backend resolves the current upstream address and token. Returned through a
// function so config hot reload takes effect without restarting handlers.
type Backend func() (addr, token string)

// QueryStreamHandler bridges the backend NDJSON turn stream to SSE for
// EventSource consumers.
type QueryStreamHandler struct {
	backend Backend
	client  *streaming.Client
}

// NewQueryStreamHandler creates the handler.
func NewQueryStreamHandler(backend Backend) *QueryStreamHandler {
	return &QueryStreamHandler{
		backend: backend,
		client:  streaming.NewClient(&http.Client{}),
	}
}

// Handle runs one agent turn upstream and re-emits every event as SSE. The
// SSE event name is the protocol event type, the data the untouched JSON
// payload, so browser clients keep the exact wire semantics.
func (h *QueryStreamHandler) Handle(c *gin.Context) {
	var req react.TurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		core.WriteResponse(c, errorx.WrapC(err, ErrBind, "decode turn request"), nil)
		return
	}
	if req.Question == "" && req.SessionState == "" {
		core.WriteResponse(c, errorx.WithCode(ErrValidation, "question must not be empty"), nil)
		return
	}

	addr, token := h.backend()
	headers := map[string]string{}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}
	if principal := c.GetHeader("X-Sibyl-Principal"); principal != "" {
		headers["X-Sibyl-Principal"] = principal
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	w := c.Writer
	wroteEvent := false

	err := h.client.StreamLines(c.Request.Context(), addr+"/api/v1/text2sql/stream", &req, headers, func(line []byte) bool {
		ev, err := react.DecodeLine(line)
		if err != nil {
			logger.Warn("[query_stream] dropping undecodable line: %v", err)
			return true
		}

		if encodeErr := sse.Encode(w, sse.Event{
			Event: string(ev.Event),
			Data:  string(line),
		}); encodeErr != nil {
			return false
		}
		w.Flush()
		wroteEvent = true

		return !ev.Terminal()
	})
	if err != nil {
		if !wroteEvent {
			core.WriteResponse(c, errorx.WrapC(err, ErrUpstreamConnect, "open turn stream"), nil)
			return
		}
		// Headers are gone; surface the failure in-band like any other
		// terminal event.
		logger.Warn("[query_stream] upstream stream failed mid-turn: %v", err)
		_ = sse.Encode(w, sse.Event{
			Event: string(react.EventError),
			Data:  `{"event":"error","message":"upstream stream failed"}`,
		})
		w.Flush()
	}
}
