package api

import "github.com/gin-gonic/gin"

// Response is the success envelope: {success: true, data}
type Response struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// Respond writes a success envelope
func Respond(c *gin.Context, status int, data any) {
	c.JSON(status, Response{Success: true, Data: data})
}

// RespondPage writes a list envelope with pagination metadata
func RespondPage[T any](c *gin.Context, status int, data []T, page PageRequest, total int64) {
	c.JSON(status, NewPageResponse(data, page.Page, page.PageSize, total))
}
