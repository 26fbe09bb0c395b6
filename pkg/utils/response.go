package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SuccessResponse is the envelope for successful responses.
type SuccessResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// PagedData wraps a page of list results.
type PagedData struct {
	Items      interface{} `json:"items"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	TotalPages int64       `json:"total_pages"`
}

// NewPagedData computes the page count for a list response.
func NewPagedData(items interface{}, total int64, page, limit int) PagedData {
	pages := int64(0)
	if limit > 0 {
		pages = (total + int64(limit) - 1) / int64(limit)
	}
	return PagedData{Items: items, Total: total, Page: page, Limit: limit, TotalPages: pages}
}

// RespondSuccess sends the standard success envelope.
func RespondSuccess(c *gin.Context, status int, data interface{}, message string) {
	response := SuccessResponse{
		Status:  "success",
		Message: message,
		Data:    data,
	}
	if message == "" && data == nil {
		response.Message = "Operation successful"
	}
	c.JSON(status, response)
}

// APIErrorResponse is the {"error": ..., "details": ...} shape used by the API.
// Details may be a string or a map.
type APIErrorResponse struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

// RespondAPIError aborts the chain with an APIErrorResponse.
func RespondAPIError(c *gin.Context, status int, errorMessage string, details interface{}) {
	response := APIErrorResponse{
		Error: errorMessage,
	}
	if details != nil {
		response.Details = details
	}
	c.AbortWithStatusJSON(status, response)
}

func RespondValidationError(c *gin.Context, details interface{}) {
	RespondAPIError(c, http.StatusBadRequest, "Invalid request parameters", details)
}

func RespondUnauthorizedError(c *gin.Context, message ...string) {
	errMsg := "Not authenticated or token invalid/expired"
	if len(message) > 0 && message[0] != "" {
		errMsg = message[0]
	}
	RespondAPIError(c, http.StatusUnauthorized, errMsg, nil)
}

func RespondForbiddenError(c *gin.Context, message ...string) {
	errMsg := "Permission denied"
	if len(message) > 0 && message[0] != "" {
		errMsg = message[0]
	}
	RespondAPIError(c, http.StatusForbidden, errMsg, nil)
}

// RespondNotFoundError reports a missing record.
func RespondNotFoundError(c *gin.Context, message string) {
	RespondAPIError(c, http.StatusNotFound, message, nil)
}

// RespondUnprocessableError reports a request that referenced missing data.
func RespondUnprocessableError(c *gin.Context, message string, details interface{}) {
	RespondAPIError(c, http.StatusUnprocessableEntity, message, details)
}

func RespondInternalServerError(c *gin.Context, message string, errDetails ...string) {
	var details interface{}
	if len(errDetails) > 0 {
		details = errDetails[0]
	}
	RespondAPIError(c, http.StatusInternalServerError, message, details)
}

// RespondConflictError is for state conflicts such as duplicates or an occupied position.
func RespondConflictError(c *gin.Context, message string, details ...interface{}) {
	var detailContent interface{}
	if len(details) > 0 {
		detailContent = details[0]
	}
	RespondAPIError(c, http.StatusConflict, message, detailContent)
}
