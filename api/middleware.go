package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/katatrina/backoffice-BE/internal/model"
	"github.com/katatrina/backoffice-BE/internal/token"
)

const (
	authorizationHeaderKey  = "Authorization"
	authorizationTypeBearer = "Bearer"
	authorizationPayloadKey = "authPayload"
	// Browsers cannot set headers on an EventSource, so streams may pass the
	// token as a query parameter instead.
	accessTokenQueryKey = "access_token"
)

// authMiddleware authenticates the user.
func authMiddleware(verifier token.Verifier) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		accessToken, err := extractAccessToken(ctx)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse(err))
			return
		}

		payload, err := verifier.VerifyToken(ctx, accessToken)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse(err))
			return
		}

		ctx.Set(authorizationPayloadKey, payload)
		ctx.Next()
	}
}

func extractAccessToken(ctx *gin.Context) (string, error) {
	authorizationHeader := ctx.GetHeader(authorizationHeaderKey)
	if authorizationHeader == "" {
		if queryToken := ctx.Query(accessTokenQueryKey); queryToken != "" && strings.HasSuffix(ctx.FullPath(), "/stream") {
			return queryToken, nil
		}
		return "", errors.New("authorization header is not provided")
	}

	fields := strings.Fields(authorizationHeader)
	if len(fields) != 2 {
		return "", errors.New("invalid authorization header format")
	}

	if fields[0] != authorizationTypeBearer {
		return "", errors.New("unsupported authorization header type")
	}

	return fields[1], nil
}

// requireRole lets through users whose role is at least min.
func requireRole(min model.UserRole) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authPayload := ctx.MustGet(authorizationPayloadKey).(*token.Payload)
		if !authPayload.Role.AtLeast(min) {
			ctx.AbortWithStatusJSON(http.StatusForbidden, errorResponse(ErrInsufficientRole))
			return
		}
		ctx.Next()
	}
}

func currentUser(ctx *gin.Context) *token.Payload {
	return ctx.MustGet(authorizationPayloadKey).(*token.Payload)
}
