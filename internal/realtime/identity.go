package realtime

import "context"

// RoleAnonymous is assigned to connections that present no credential.
const RoleAnonymous = "anonymous"

// Identity is the caller identity resolved once at handshake time.
// UserID is empty for anonymous connections and never mutated afterwards.
type Identity struct {
	UserID string
	Role   string
}

// Anonymous reports whether the identity carries no user.
func (id Identity) Anonymous() bool {
	return id.UserID == ""
}

// Anon returns the anonymous identity.
func Anon() Identity {
	return Identity{Role: RoleAnonymous}
}

// Authenticator verifies a bearer credential during the handshake.
// An empty credential resolves to the anonymous identity; an invalid
// credential is an error and the connection never becomes active.
type Authenticator interface {
	Verify(ctx context.Context, credential string) (Identity, error)
}
