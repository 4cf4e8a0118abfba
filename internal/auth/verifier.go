package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/soundwave-fm/realtime-server/internal/realtime"
)

// ErrInvalidCredential is returned for a credential that is present but
// does not verify. Connections presenting one are closed at handshake.
var ErrInvalidCredential = errors.New("invalid credential")

// Verifier resolves bearer credentials into identities. No credential
// resolves to the anonymous identity; a bad credential is an error, never
// silently downgraded to anonymous.
type Verifier struct {
	cfg *TokenConfig
}

// NewVerifier builds a Verifier over the given token parameters.
func NewVerifier(cfg *TokenConfig) *Verifier {
	return &Verifier{cfg: cfg}
}

// Verify implements realtime.Authenticator.
func (v *Verifier) Verify(_ context.Context, credential string) (realtime.Identity, error) {
	credential = strings.TrimSpace(strings.TrimPrefix(credential, "Bearer "))
	if credential == "" {
		return realtime.Anon(), nil
	}

	claims, err := ParseToken(v.cfg, credential)
	if err != nil {
		return realtime.Identity{}, errors.Join(ErrInvalidCredential, err)
	}
	if claims.UserID == "" {
		return realtime.Identity{}, ErrInvalidCredential
	}

	role := claims.Role
	if role == "" {
		role = "user"
	}
	return realtime.Identity{UserID: claims.UserID, Role: role}, nil
}
