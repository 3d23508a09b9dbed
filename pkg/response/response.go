package response

import (
	"expenseflow/pkg/apperr"

	"github.com/gin-gonic/gin"
)

// Response represents a standard API response format
type Response struct {
	Status     string      `json:"status"`      // "success" or "error"
	StatusCode int         `json:"status_code"` // HTTP status code
	Data       interface{} `json:"data,omitempty"`
	Code       string      `json:"code,omitempty"` // stable error code
	Error      string      `json:"error,omitempty"`
}

// Success returns a standard success response wrapping the data
func Success(statusCode int, data interface{}) Response {
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Data:       data,
	}
}

// Error returns a standard error response wrapping the error message
func Error(statusCode int, err string) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Error:      err,
	}
}

// WriteError writes err to the client using its taxonomy code and the
// mapped HTTP status. Unclassified errors become opaque 500s.
func WriteError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	resp := Response{
		Status:     "error",
		StatusCode: status,
		Error:      err.Error(),
	}
	if code, ok := apperr.CodeOf(err); ok {
		resp.Code = string(code)
	} else {
		resp.Error = "internal server error"
	}
	c.JSON(status, resp)
}
