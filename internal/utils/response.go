package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIResponse is the JSON envelope every endpoint answers with.
type APIResponse struct {
	Status  string      `json:"status"`
	Results *int        `json:"results,omitempty"`
	Token   string      `json:"token,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   interface{} `json:"error,omitempty"`
	Stack   string      `json:"stack,omitempty"`
}

func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Status: StatusSuccess,
		Data:   data,
	})
}

// ListResponse always includes results, so an empty page reads results: 0.
func ListResponse(c *gin.Context, results int, data interface{}) {
	resp := APIResponse{
		Status:  StatusSuccess,
		Results: &results,
		Data:    data,
	}
	if results == 0 {
		resp.Message = MsgNoData
	}
	c.JSON(http.StatusOK, resp)
}

func CreatedResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{
		Status: StatusSuccess,
		Data:   data,
	})
}

func TokenResponse(c *gin.Context, statusCode int, token string, data interface{}) {
	c.JSON(statusCode, APIResponse{
		Status: StatusSuccess,
		Token:  token,
		Data:   data,
	})
}

func MessageResponse(c *gin.Context, message string) {
	c.JSON(http.StatusOK, APIResponse{
		Status:  StatusSuccess,
		Message: message,
	})
}

func NoContentResponse(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// FailResponse aborts with a bare {status, message} body.
func FailResponse(c *gin.Context, statusCode int, message string) {
	status := StatusError
	if statusCode < http.StatusInternalServerError {
		status = StatusFail
	}
	c.AbortWithStatusJSON(statusCode, APIResponse{
		Status:  status,
		Message: message,
	})
}
