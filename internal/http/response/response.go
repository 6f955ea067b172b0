package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/flora-backend/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

type statusCoder interface {
	HTTPStatusCode() int
}

// RespondServiceError maps a service error to a status. Internal failures are
// answered with a generic message; the detail stays in the logs.
func RespondServiceError(c *gin.Context, err error, fallbackCode string) {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		status, code := apierr.StatusAndCode(err, fallbackCode)
		RespondError(c, status, code, ae)
		return
	}
	status := http.StatusInternalServerError
	var sc statusCoder
	if errors.As(err, &sc) && sc.HTTPStatusCode() > 0 {
		status = sc.HTTPStatusCode()
	}
	RespondError(c, status, fallbackCode, errors.New(http.StatusText(status)))
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
