// Package identity implements the verifier seam to the external identity
// provider. Registration and login live elsewhere; this service only maps a
// presented credential to a user id.
package identity

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/varoOP/shelfdb/internal/domain"
)

// StaticVerifier resolves bearer tokens from a fixed token -> user id map,
// typically loaded from configuration.
type StaticVerifier struct {
	log    zerolog.Logger
	tokens map[string]string
}

// NewStaticVerifier creates a verifier over the given token map.
func NewStaticVerifier(log zerolog.Logger, tokens map[string]string) domain.IdentityVerifier {
	return &StaticVerifier{
		log:    log.With().Str("module", "identity").Logger(),
		tokens: tokens,
	}
}

// Verify returns the user id for a known token.
func (v *StaticVerifier) Verify(_ context.Context, token string) (string, bool) {
	if token == "" {
		return "", false
	}
	userID, ok := v.tokens[token]
	if !ok {
		v.log.Debug().Msg("Unknown bearer token")
		return "", false
	}
	return userID, true
}
