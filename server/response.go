package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/streamkit/errors"
	"github.com/kbukum/streamkit/server/middleware"
)

// RespondWithError writes err as an error body tagged with the request ID.
// An *errors.AppError keeps its status and code; anything else becomes a 500.
func RespondWithError(c *gin.Context, err error) {
	appErr := errors.From(err)
	body := appErr.ToResponse().WithRequestID(c.GetHeader(middleware.HeaderRequestID))
	c.AbortWithStatusJSON(appErr.HTTPStatus, body)
}

// RespondOK sends a 200 JSON body.
func RespondOK(c *gin.Context, body any) {
	c.JSON(http.StatusOK, body)
}
