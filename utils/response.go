package utils

import "github.com/gin-gonic/gin"

// Success writes a JSON response of the form {message, <entity>...}.
func Success(ctx *gin.Context, status int, message string, payload gin.H) {
	body := gin.H{"message": message}
	for k, v := range payload {
		body[k] = v
	}
	ctx.JSON(status, body)
}

// Error writes a standard {message} failure response.
func Error(ctx *gin.Context, status int, message string) {
	ctx.JSON(status, gin.H{"message": message})
}

// ErrorWith writes a {message, error} failure response carrying the
// underlying error text, used for unexpected storage failures.
func ErrorWith(ctx *gin.Context, status int, message string, err error) {
	body := gin.H{"message": message}
	if err != nil {
		body["error"] = err.Error()
	}
	ctx.JSON(status, body)
}
