package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/vantle/sibyl/pkg/streaming"
	"github.com/vantle/sibyl/pkg/utils/json"
)

// UploadService pushes DDL and source archives to the parsing pipeline.
type UploadService struct {
	c *Client
}

// Upload returns the upload service.
func (c *Client) Upload() *UploadService {
	return &UploadService{c: c}
}

// Upload kinds accepted by the parsing pipeline.
const (
	UploadKindDDL    = "ddl"
	UploadKindSource = "source"
)

// UploadResult identifies the analysis task created for an uploaded archive.
type UploadResult struct {
	TaskID   string `json:"task_id"`
	FileName string `json:"file_name"`
	Size     int64  `json:"size"`
	Status   string `json:"status"`
}

// Push uploads one archive as multipart form data and returns the created
// analysis task. kind selects the pipeline (ddl or source).
func (s *UploadService) Push(ctx context.Context, path, kind string) (*UploadResult, error) {
	if kind != UploadKindDDL && kind != UploadKindSource {
		return nil, fmt.Errorf("unknown upload kind %q", kind)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("build form: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("read archive: %w", err)
	}
	if err := writer.WriteField("kind", kind); err != nil {
		return nil, fmt.Errorf("build form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("build form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.c.url("/api/v1/upload"), &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	for k, v := range s.c.headers() {
		req.Header.Set(k, v)
	}

	resp, err := s.c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeError(resp)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	var result UploadResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &result, nil
}

// Follow streams parsing progress for an upload task until a terminal event.
func (s *UploadService) Follow(ctx context.Context, taskID string, onEvent streaming.EventFunc) error {
	if taskID == "" {
		return fmt.Errorf("task id must not be empty")
	}
	body := map[string]string{"task_id": taskID}
	return s.c.streamEvents(ctx, "/api/v1/upload/stream", body, onEvent)
}
