package token

import (
	"context"
	"time"

	"github.com/katatrina/backoffice-BE/internal/model"
)

// Verifier checks an access token and returns who it was issued to.
type Verifier interface {
	VerifyToken(ctx context.Context, token string) (*Payload, error)
}

// Maker issues access tokens on top of verifying them.
type Maker interface {
	Verifier
	CreateToken(userID, email string, role model.UserRole, duration time.Duration) (token string, payload *Payload, err error)
}
