package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sagha-api/internal/middleware"
	"github.com/noah-isme/sagha-api/internal/models"
	appErrors "github.com/noah-isme/sagha-api/pkg/errors"
	"github.com/noah-isme/sagha-api/pkg/response"
)

// actorFromContext builds the caller identity from the validated token. It
// writes a 401 response and returns false when the request is anonymous.
func actorFromContext(c *gin.Context) (models.Actor, bool) {
	claims := middleware.Claims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return models.Actor{}, false
	}
	return models.ActorFromClaims(claims, c.ClientIP(), c.GetHeader("User-Agent")), true
}

func bindError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}
