package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// errorCodeKey holds the code of the error envelope written for a request.
const errorCodeKey = "response.error_code"

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// RespondError aborts the handler chain with the error envelope. A nil err
// falls back to the status text.
func RespondError(c *gin.Context, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	if msg == "" {
		msg = "unknown error"
	}
	c.Set(errorCodeKey, code)
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// ErrorCode returns the code passed to RespondError for this request.
func ErrorCode(c *gin.Context) (string, bool) {
	v, ok := c.Get(errorCodeKey)
	if !ok {
		return "", false
	}
	code, _ := v.(string)
	return code, true
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
