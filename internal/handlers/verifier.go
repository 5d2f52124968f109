package handlers

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/footprint-shop/api/internal/platform/requestctx"
)

var errTokenMismatch = errors.New("token mismatch")

// StaticTokenVerifier accepts a single pre-shared admin token. Every
// verified request acts as the same fixed actor.
type StaticTokenVerifier struct {
	token string
	actor requestctx.Actor
}

// NewStaticTokenVerifier builds a verifier around the given token. A nil
// verifier is returned when the token is empty so RequireAdmin rejects
// everything instead of accepting blank credentials.
func NewStaticTokenVerifier(token string, actor requestctx.Actor) *StaticTokenVerifier {
	if token == "" {
		return nil
	}
	return &StaticTokenVerifier{token: token, actor: actor}
}

func (v *StaticTokenVerifier) Verify(_ context.Context, token string) (requestctx.Actor, error) {
	if subtle.ConstantTimeCompare([]byte(v.token), []byte(token)) != 1 {
		return requestctx.Actor{}, errTokenMismatch
	}
	return v.actor, nil
}
