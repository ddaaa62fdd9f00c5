package api

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/vantle/sibyl/pkg/utils/json"
)

// Error is a failed backend call. Detail is the human-readable message the
// service returned, Code its machine error type when it sent one.
type Error struct {
	Status int
	Code   string
	Detail string
}

func (e *Error) Error() string {
	switch {
	case e.Code != "" && e.Detail != "":
		return fmt.Sprintf("%s: %s", e.Code, e.Detail)
	case e.Detail != "":
		return e.Detail
	default:
		return fmt.Sprintf("HTTP %d", e.Status)
	}
}

// IsNotFound reports whether err is a backend 404.
func IsNotFound(err error) bool {
	apiErr, ok := err.(*Error)
	return ok && apiErr.Status == http.StatusNotFound
}

// decodeError builds an *Error from a non-2xx response. The services are not
// uniform: detail, message and error are all in use as the message field.
func decodeError(resp *http.Response) *Error {
	apiErr := &Error{Status: resp.StatusCode}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil || len(raw) == 0 {
		return apiErr
	}

	var payload struct {
		Detail    string `json:"detail"`
		Message   string `json:"message"`
		Err       string `json:"error"`
		ErrorType string `json:"error_type"`
		Code      string `json:"code"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		apiErr.Detail = strings.TrimSpace(string(raw))
		return apiErr
	}

	for _, candidate := range []string{payload.Detail, payload.Message, payload.Err} {
		if candidate != "" {
			apiErr.Detail = candidate
			break
		}
	}
	if apiErr.Detail == "" {
		apiErr.Detail = strings.TrimSpace(string(raw))
	}
	if payload.ErrorType != "" {
		apiErr.Code = payload.ErrorType
	} else {
		apiErr.Code = payload.Code
	}
	return apiErr
}
