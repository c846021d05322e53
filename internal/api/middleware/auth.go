package middleware

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/artxchange/artx-api/internal/api/handler/v1/response"
	"github.com/artxchange/artx-api/internal/domain"
	"github.com/artxchange/artx-api/internal/pkg/jwthelper"
)

const (
	AccountIDKey = "account_id"
	RoleKey      = "role"
)

var (
	errMissingToken      = errors.New("missing bearer token")
	errUserAgentMismatch = errors.New("token was issued to another client")
	errNotModerator      = errors.New("moderator role required")
)

type Authenticator struct {
	signingKey []byte
}

func NewAuthenticator(signingKey string) *Authenticator {
	return &Authenticator{
		signingKey: []byte(signingKey),
	}
}

// VerifyJWT rejects requests without a valid token issued to the same user
// agent, and stores the account ID and role in the context.
func (a *Authenticator) VerifyJWT() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, ok := strings.CutPrefix(ctx.GetHeader("Authorization"), "Bearer ")
		if !ok || token == "" {
			response.RenderErr(ctx, response.ErrUnauthorized(errMissingToken))
			return
		}

		claims, err := jwthelper.ParseToken(a.signingKey, token)
		if err != nil {
			response.RenderErr(ctx, response.ErrUnauthorized(fmt.Errorf("jwthelper.ParseToken -> %w", err)))
			return
		}
		if claims.UserAgent != ctx.Request.UserAgent() {
			response.RenderErr(ctx, response.ErrUnauthorized(errUserAgentMismatch))
			return
		}

		ctx.Set(AccountIDKey, claims.AccountID)
		ctx.Set(RoleKey, claims.Role)
		ctx.Next()
	}
}

// RequireModerator must run after VerifyJWT.
func RequireModerator() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.GetString(RoleKey) != string(domain.RoleModerator) {
			response.RenderErr(ctx, response.ErrPermissionDenied(errNotModerator))
			return
		}

		ctx.Next()
	}
}
