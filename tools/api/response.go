package api

import (
	"github.com/gin-gonic/gin"

	"parley/tools/errs"
)

// Response is the envelope every REST handler returns.
type Response struct {
	StatusCode int         `json:"statusCode"`
	Data       interface{} `json:"data"`
	Message    string      `json:"message"`
	Success    bool        `json:"success"`
}

func OK(c *gin.Context, status int, data interface{}, msg string) {
	c.JSON(status, Response{
		StatusCode: status,
		Data:       data,
		Message:    msg,
		Success:    true,
	})
}

func Fail(c *gin.Context, err error) {
	ce := errs.AsCodeError(err)
	c.AbortWithStatusJSON(ce.Code, Response{
		StatusCode: ce.Code,
		Message:    ce.Msg,
		Success:    false,
	})
}
