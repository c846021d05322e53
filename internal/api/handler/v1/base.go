package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/artxchange/artx-api/internal/api/handler/v1/response"
	"github.com/artxchange/artx-api/internal/api/middleware"
)

var errNoAccount = errors.New("no authenticated account")

// HandleHealthcheck godoc
// @Summary      Health check
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       / [get]
func HandleHealthcheck(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func getAccountID(ctx *gin.Context) (string, *response.Err) {
	id := ctx.GetString(middleware.AccountIDKey)
	if id == "" {
		return "", response.ErrUnauthorized(errNoAccount)
	}

	return id, nil
}
