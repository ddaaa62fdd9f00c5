// Package errorx implements coded errors for the gateway's HTTP surface.
//
// A Coder binds a business error code to an HTTP status and a user-safe
// message. Handlers wrap causes with WrapC/WithCode and the response writer
// resolves the Coder to shape the reply.
package errorx

import (
	"fmt"
	"net/http"
	"sync"
)

// Coder describes a registered error code.
type Coder interface {
	// Code returns the business error code.
	Code() int
	// HTTPStatus returns the HTTP status to respond with.
	HTTPStatus() int
	// String returns the user-safe message.
	String() string
	// Reference returns an optional documentation link.
	Reference() string
}

var (
	mu     sync.RWMutex
	coders = map[int]Coder{}
)

// unknownCoder is returned for codes that were never registered.
type unknownCoder struct{}

func (unknownCoder) Code() int         { return 1 }
func (unknownCoder) HTTPStatus() int   { return http.StatusInternalServerError }
func (unknownCoder) String() string    { return "An internal server error occurred" }
func (unknownCoder) Reference() string { return "" }

// MustRegister registers a Coder, panicking on duplicates. Intended for
// package init blocks.
func MustRegister(c Coder) {
	if c.Code() == 1 {
		panic("code 1 is reserved for unknown errors")
	}
	mu.Lock()
	defer mu.Unlock()
	if _, ok := coders[c.Code()]; ok {
		panic(fmt.Sprintf("code %d is already registered", c.Code()))
	}
	coders[c.Code()] = c
}

// ParseCoder resolves err to its registered Coder. Unregistered or non-coded
// errors resolve to the unknown coder.
func ParseCoder(err error) Coder {
	if err == nil {
		return nil
	}
	if coded, ok := err.(*withCode); ok {
		mu.RLock()
		defer mu.RUnlock()
		if c, found := coders[coded.code]; found {
			return c
		}
	}
	return unknownCoder{}
}

// Message returns the handler-attached message of a coded error, without
// its cause. Non-coded errors return "".
func Message(err error) string {
	if coded, ok := err.(*withCode); ok {
		return coded.msg
	}
	return ""
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code int) bool {
	coded, ok := err.(*withCode)
	return ok && coded.code == code
}

type withCode struct {
	code  int
	msg   string
	cause error
}

func (e *withCode) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.cause)
	}
	return e.msg
}

func (e *withCode) Unwrap() error { return e.cause }

// Code returns the business code carried by the error.
func (e *withCode) Code() int { return e.code }

// WithCode creates a coded error with a printf-formatted message.
func WithCode(code int, format string, args ...interface{}) error {
	return &withCode{code: code, msg: fmt.Sprintf(format, args...)}
}

// WrapC wraps a cause with a code and a printf-formatted message.
func WrapC(err error, code int, format string, args ...interface{}) error {
	return &withCode{code: code, msg: fmt.Sprintf(format, args...), cause: err}
}
