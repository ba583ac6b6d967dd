// Package identity derives the per-user storage namespace from the
// session token supplied by the caller.
package identity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Anonymous is the shared bucket used when no session token is present.
const Anonymous = "anonymous"

const idLength = 16

// Resolve maps a session token to a short, filesystem-safe id. The same
// token always yields the same id.
func Resolve(token string) string {
	token = strings.TrimSpace(token)
	if token == "" {
		return Anonymous
	}
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])[:idLength]
}

type ctxKey struct{}

// WithUser returns a copy of ctx carrying userID.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

// UserFrom returns the user id stored on ctx, or Anonymous.
func UserFrom(ctx context.Context) string {
	if id, ok := ctx.Value(ctxKey{}).(string); ok && id != "" {
		return id
	}
	return Anonymous
}
