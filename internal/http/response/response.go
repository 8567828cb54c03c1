package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zpgpf/gpf-ledger/internal/domain/ledger"
)

// APIError is the error body. Clients branch on Code; Message carries the
// underlying text and is not stable.
type APIError struct {
	Message string `json:"error"`
	Code    string `json:"code"`
}

type MessageBody struct {
	Message string `json:"message"`
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind ledger.Kind) int {
	switch kind {
	case ledger.KindValidation:
		return http.StatusBadRequest
	case ledger.KindNotFound:
		return http.StatusNotFound
	case ledger.KindConflict:
		return http.StatusConflict
	case ledger.KindStorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes err using its ledger kind; untyped errors are internal.
func RespondError(c *gin.Context, err error) {
	kind := ledger.KindOf(err)
	if kind == "" {
		kind = ledger.KindInternal
	}
	msg := ledger.MessageOf(err)
	if msg == "" {
		msg = "unknown error"
	}
	c.JSON(StatusFor(kind), APIError{Message: msg, Code: string(kind)})
}

func RespondValidation(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, APIError{Message: msg, Code: string(ledger.KindValidation)})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

func RespondMessage(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, MessageBody{Message: msg})
}
