package response

import "github.com/gin-gonic/gin"

const (
	MsgMissingDocument = "No PDF file name provided"
	MsgDocumentMissing = "PDF file not found"
	MsgDocumentBusy    = "PDF file is already being processed"
	MsgProcessFailed   = "Failed to process the PDF file"
	MsgInternal        = "An internal server error occurred"
	MsgQueueDisabled   = "Process queue is not configured"
	MsgUnauthorized    = "Unauthorized"
	MsgBadRequest      = "Invalid request payload"
	MsgNotFound        = "Not found"
)

type ErrorBody struct {
	Error string `json:"error"`
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(200, data)
}

func Error(c *gin.Context, httpStatus int, message string) {
	c.JSON(httpStatus, ErrorBody{Error: message})
}

// Abort writes the error body and stops the handler chain.
func Abort(c *gin.Context, httpStatus int, message string) {
	c.AbortWithStatusJSON(httpStatus, ErrorBody{Error: message})
}
