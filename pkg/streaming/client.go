package streaming

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vantle/sibyl/pkg/logger"
	"github.com/vantle/sibyl/pkg/utils/json"
)

// Client consumes NDJSON streaming endpoints: POST a JSON body, then read the
// response body line by line, handing each decoded record to a callback in
// arrival order.
type Client struct {
	HTTPClient *http.Client
}

// NewClient creates a streaming client. A nil httpClient gets a default with
// no overall timeout: agent turns routinely run for minutes, so deadlines are
// the caller's job via context.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 0}
	}
	return &Client{HTTPClient: httpClient}
}

// readBufSize is the chunk size for the response body read loop.
const readBufSize = 32 * 1024

// StreamLines POSTs body as JSON and feeds every response line to onLine
// until the stream ends, onLine returns false, or ctx is cancelled. A non-2xx
// response is returned as a *StatusError before any line is emitted.
func (c *Client) StreamLines(ctx context.Context, url string, body interface{}, headers map[string]string, onLine EmitFunc) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/x-ndjson")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	// net/http guarantees a non-nil Body on every client response.
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newStatusError(resp)
	}

	var dec LineDecoder
	buf := make([]byte, readBufSize)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			dec.Write(buf[:n], onLine)
			if dec.Stopped() {
				return nil
			}
		}
		if readErr == io.EOF {
			dec.Flush(onLine)
			return nil
		}
		if readErr != nil {
			// Context cancellation surfaces here; let the caller
			// tell an abort apart from a genuine failure.
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read stream: %w", readErr)
		}
	}
}

// EventFunc receives one decoded generic event. Returning false stops
// consumption.
type EventFunc func(ev *Event) bool

// Stream consumes a generic progress stream. Lines that fail to parse are
// dropped with a warning rather than aborting the stream; one bad line must
// not lose the rest of a multi-minute run. Events typed "complete" or "error"
// end consumption even when more lines are already buffered.
func (c *Client) Stream(ctx context.Context, url string, body interface{}, headers map[string]string, onEvent EventFunc) error {
	return c.StreamLines(ctx, url, body, headers, func(line []byte) bool {
		var ev Event
		if err := json.Unmarshal(line, &ev); err != nil {
			logger.Warn("[streaming] dropping malformed line: %v", err)
			return true
		}
		if ev.Terminal() {
			onEvent(&ev)
			return false
		}
		return onEvent(&ev)
	})
}

// StatusError is a non-2xx response from a streaming endpoint.
type StatusError struct {
	Status    int
	ErrorType string
	Detail    string
}

// newStatusError drains the response body and builds the most specific
// message available: structured detail/message/error_type fields when the
// body is JSON, the raw text otherwise, a bare status as a last resort.
func newStatusError(resp *http.Response) *StatusError {
	se := &StatusError{Status: resp.StatusCode}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil || len(bytes.TrimSpace(raw)) == 0 {
		return se
	}

	var parsed struct {
		Detail    string `json:"detail"`
		Message   string `json:"message"`
		Error     string `json:"error"`
		ErrorType string `json:"error_type"`
	}
	if jsonErr := json.Unmarshal(raw, &parsed); jsonErr == nil {
		se.ErrorType = parsed.ErrorType
		switch {
		case parsed.Detail != "":
			se.Detail = parsed.Detail
		case parsed.Message != "":
			se.Detail = parsed.Message
		case parsed.Error != "":
			se.Detail = parsed.Error
		}
	}
	if se.Detail == "" {
		se.Detail = strings.TrimSpace(string(raw))
	}
	return se
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("HTTP %d", e.Status)
	if e.ErrorType != "" {
		msg += " [" + e.ErrorType + "]"
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Timeout returns a child context bounded by d when d > 0, otherwise the
// parent unchanged.
func Timeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d > 0 {
		return context.WithTimeout(ctx, d)
	}
	return context.WithCancel(ctx)
}
