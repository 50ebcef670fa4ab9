package auth

import (
	"api/domain"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrMissingTokenStr          = "missing-token"
	ErrExpiredTokenStr          = "expired-token"
	ErrInvalidRequestFormatStr  = "bad-request-format"
	ErrInvalidUsernameFormatStr = "invalid-username-format"
	ErrUnknownStr               = "unknown-error"
)

type authHandler struct {
	tokenManager TokenManager
	cookieMaxAge time.Duration
}

func NewAuthHandler(tokenManager TokenManager, cookieMaxAge time.Duration) *authHandler {
	return &authHandler{tokenManager: tokenManager, cookieMaxAge: cookieMaxAge}
}

func validateUsernameFormat(username string) bool {
	n := utf8.RuneCountInString(username)
	return n >= 1 && n <= 32
}

// GuestHandler mints an anonymous guest identity. There are no accounts: the
// token only pins a stable id/username pair to the browser session so a
// participant can reconnect and be addressed for signaling.
func (ah *authHandler) GuestHandler(ctx *gin.Context) {
	var req struct {
		Username string `json:"username"`
	}

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": ErrInvalidRequestFormatStr})
		return
	}

	username := strings.TrimSpace(req.Username)
	if !validateUsernameFormat(username) {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": ErrInvalidUsernameFormatStr})
		return
	}

	guest := domain.Guest{Id: uuid.NewString(), Username: username}

	token, err := ah.tokenManager.Generate(guest, time.Now())
	if err != nil {
		log.Error().Err(err).Msg("guest token generation failed")
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": ErrUnknownStr})
		return
	}

	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie("token", token, int(ah.cookieMaxAge.Seconds()), "/", "", false, true)
	ctx.JSON(http.StatusCreated, gin.H{"id": guest.Id, "username": guest.Username})
}

func (ah *authHandler) RequireAuthMiddleware(trollTime time.Duration) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, err := ctx.Cookie("token")
		if err != nil {
			ctx.String(http.StatusUnauthorized, ErrMissingTokenStr)
			ctx.Abort()
			return
		}
		guest, err := ah.tokenManager.Verify(token)

		if err != nil {
			switch {
			case errors.Is(err, domain.ErrInvalidSigningAlg), errors.Is(err, domain.ErrInvalidTokenSignature), errors.Is(err, domain.ErrCorruptedToken):
				time.Sleep(trollTime)
				ctx.Status(http.StatusInternalServerError)
				ctx.Abort()
			case errors.Is(err, domain.ErrExpiredToken):
				ctx.String(http.StatusUnauthorized, ErrExpiredTokenStr)
				ctx.Abort()
			default:
				ctx.String(http.StatusInternalServerError, ErrUnknownStr)
				ctx.Abort()
			}

			return
		}

		ctx.Set("id", guest.Id)
		ctx.Set("username", guest.Username)
		ctx.Next()
	}
}
