package core

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantle/sibyl/pkg/errorx"
)

const errTestValidation = 900001

type testCoder struct{}

func (testCoder) Code() int         { return errTestValidation }
func (testCoder) HTTPStatus() int   { return http.StatusBadRequest }
func (testCoder) String() string    { return "Request validation failed" }
func (testCoder) Reference() string { return "" }

func init() {
	errorx.MustRegister(testCoder{})
}

func testContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	return c, rec
}

func TestWriteResponseData(t *testing.T) {
	c, rec := testContext()

	WriteResponse(c, nil, gin.H{"ok": true})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
}

func TestWriteResponseKeepsHandlerDetail(t *testing.T) {
	c, rec := testContext()

	WriteResponse(c, errorx.WithCode(errTestValidation, "question must not be empty"), nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Request validation failed")
	assert.Contains(t, body, "question must not be empty")
}

func TestWriteResponseHidesCause(t *testing.T) {
	c, rec := testContext()

	cause := errors.New("dial tcp 127.0.0.1:5432: connection refused")
	WriteResponse(c, errorx.WrapC(cause, errTestValidation, "decode turn request"), nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "decode turn request")
	assert.NotContains(t, body, "connection refused")
}

func TestWriteResponseUnknownError(t *testing.T) {
	c, rec := testContext()

	WriteResponse(c, errors.New("boom"), nil)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "An internal server error occurred")
	assert.NotContains(t, body, "boom")
}
