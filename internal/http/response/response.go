// Package response defines the JSON shapes the catalog API answers with.
// Successes return the payload bare; failures return a single envelope so
// clients branch on one field.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIError is the client-facing failure description. Code is a stable
// machine-readable slug; Message is human-readable and must never carry
// internal detail on 5xx responses.
type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{Error: APIError{Message: msg, Code: code}})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
