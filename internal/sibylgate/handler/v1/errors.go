package v1

import (
	"net/http"

	"github.com/vantle/sibyl/pkg/errorx"
)

// Sibylgate handler error codes.
// Code format: 2XXYYZ
//   - 2:  module prefix (sibylgate handler)
//   - XX: resource group (00=common, 01=query stream, 02=proxy)
//   - YY: sequential error number
//   - Z:  reserved (0)

const (
	// Common request errors (200xxx).
	ErrBind       = 200001
	ErrValidation = 200002

	// Query stream errors (2001xx).
	ErrUpstreamConnect = 200101
	ErrUpstreamStream  = 200102

	// Proxy errors (2002xx).
	ErrProxyBackend = 200201
)

func init() {
	// Common.
	errorx.MustRegister(newCoder(ErrBind, http.StatusBadRequest, "Request body binding failed"))
	errorx.MustRegister(newCoder(ErrValidation, http.StatusBadRequest, "Request validation failed"))

	// Query stream.
	errorx.MustRegister(newCoder(ErrUpstreamConnect, http.StatusBadGateway, "Failed to reach the query backend"))
	errorx.MustRegister(newCoder(ErrUpstreamStream, http.StatusBadGateway, "Query backend stream failed"))

	// Proxy.
	errorx.MustRegister(newCoder(ErrProxyBackend, http.StatusBadGateway, "Backend request failed"))
}

type coder struct {
	code   int
	status int
	msg    string
}

func newCoder(code, status int, msg string) coder {
	return coder{code: code, status: status, msg: msg}
}

func (c coder) Code() int         { return c.code }
func (c coder) HTTPStatus() int   { return c.status }
func (c coder) String() string    { return c.msg }
func (c coder) Reference() string { return "" }
