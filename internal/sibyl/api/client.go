package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vantle/sibyl/pkg/streaming"
	"github.com/vantle/sibyl/pkg/utils/json"
)

// PrincipalHeader carries the caller identity on every request.
const PrincipalHeader = "X-Sibyl-Principal"

// Config configures a backend client. BaseURL is required; everything else
// has a usable zero value.
type Config struct {
	// BaseURL is the root of the backend API, e.g. "http://localhost:11789".
	BaseURL string
	// Token is sent as a bearer token when non-empty.
	Token string
	// Principal identifies the caller. Resolved once at bootstrap and
	// passed in explicitly; the client never reads ambient identity.
	Principal uuid.UUID
	// Timeout applies to non-streaming requests only. Zero means 30s.
	Timeout time.Duration

	HTTPClient *http.Client
}

// Client is the typed HTTP client for the sibyl backend services. Service
// accessors (Text2SQL, Graph, ...) share its connection and identity.
type Client struct {
	baseURL   string
	token     string
	principal uuid.UUID
	http      *http.Client
	stream    *streaming.Client
}

// NewClient validates the config and builds a client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL must not be empty")
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		token:     cfg.Token,
		principal: cfg.Principal,
		http:      httpClient,
		// Streaming requests must not inherit the request timeout;
		// a turn can legitimately run for minutes.
		stream: streaming.NewClient(&http.Client{}),
	}, nil
}

// Principal returns the identity the client sends with every request.
func (c *Client) Principal() uuid.UUID { return c.principal }

func (c *Client) url(path string) string {
	return c.baseURL + path
}

func (c *Client) headers() map[string]string {
	h := map[string]string{}
	if c.token != "" {
		h["Authorization"] = "Bearer " + c.token
	}
	if c.principal != uuid.Nil {
		h[PrincipalHeader] = c.principal.String()
	}
	return h
}

// doJSON performs one JSON request. in and out may be nil; non-2xx responses
// are turned into *Error built from the response body.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers() {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// streamLines drives an NDJSON POST through the shared line decoder with the
// client's auth headers attached.
func (c *Client) streamLines(ctx context.Context, path string, body interface{}, onLine func(line []byte) bool) error {
	return c.stream.StreamLines(ctx, c.url(path), body, c.headers(), onLine)
}

// streamEvents follows a generic progress stream until a terminal event.
func (c *Client) streamEvents(ctx context.Context, path string, body interface{}, onEvent func(*streaming.Event) bool) error {
	return c.stream.Stream(ctx, c.url(path), body, c.headers(), onEvent)
}
