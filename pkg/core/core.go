package core

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vantle/sibyl/pkg/errorx"
	"github.com/vantle/sibyl/pkg/logger"
)

// ErrResponse is the error body returned to clients. Reference is only set
// when the coder carries a troubleshooting link.
type ErrResponse struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Reference string `json:"reference,omitempty"`
}

// WriteResponse writes err or data into the response. Coded errors map to
// their registered HTTP status; everything else becomes an internal error.
func WriteResponse(c *gin.Context, err error, data interface{}) {
	if err != nil {
		coder := errorx.ParseCoder(err)
		logger.ErrorX("core", "request failed", "code", coder.Code(), "err", err.Error())

		// The registered text names the failure class; the message the
		// handler attached carries the specifics. Causes stay in the log.
		message := coder.String()
		if detail := errorx.Message(err); detail != "" && detail != message {
			message = message + ": " + detail
		}

		c.JSON(coder.HTTPStatus(), ErrResponse{
			Code:      coder.Code(),
			Message:   message,
			Reference: coder.Reference(),
		})
		return
	}

	c.JSON(http.StatusOK, data)
}
