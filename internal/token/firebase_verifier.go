package token

import (
	"context"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/golang-jwt/jwt/v5"
	"github.com/katatrina/backoffice-BE/internal/model"
)

// FirebaseVerifier accepts Firebase Authentication ID tokens. The role comes
// from the "role" custom claim and defaults to operator.
type FirebaseVerifier struct {
	client *auth.Client
}

func NewFirebaseVerifier(client *auth.Client) *FirebaseVerifier {
	return &FirebaseVerifier{client: client}
}

func (v *FirebaseVerifier) VerifyToken(ctx context.Context, idToken string) (*Payload, error) {
	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		if auth.IsIDTokenExpired(err) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	return payloadFromClaims(token.UID, token.Claims, time.Unix(token.IssuedAt, 0), time.Unix(token.Expires, 0)), nil
}

func payloadFromClaims(uid string, claims map[string]interface{}, issuedAt, expiresAt time.Time) *Payload {
	role := model.UserRoleOperator
	if value, ok := claims["role"].(string); ok && model.UserRole(value).AtLeast(model.UserRoleOperator) {
		role = model.UserRole(value)
	}
	email, _ := claims["email"].(string)

	return &Payload{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
}
