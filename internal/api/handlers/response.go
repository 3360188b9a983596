package handlers

import "github.com/gin-gonic/gin"

// Stable error codes callers can branch on.
const (
	CodeDetectionFailed = "DETECTION_FAILED"
	CodeAlertNotFound   = "ALERT_NOT_FOUND"
	CodeRateLimited     = "RATE_LIMITED"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeInternal        = "INTERNAL"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *errorBody  `json:"error,omitempty"`
}

func respondOK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, envelope{Success: true, Data: data})
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, envelope{
		Success: false,
		Error:   &errorBody{Code: code, Message: message},
	})
}
