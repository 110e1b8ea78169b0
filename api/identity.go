package api

import (
	"context"
	"strings"
)

// IdentityHeader carries the caller identity of a JSON-RPC request. The daemon trusts the
// header; it must sit behind a proxy that authenticates callers.
const IdentityHeader = "X-Governor-Identity"

type identityKey struct{}

// ContextWithIdentity returns a copy of ctx carrying the caller identity.
func ContextWithIdentity(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFrom returns the caller identity carried by ctx.
func IdentityFrom(ctx context.Context) (string, error) {
	identity, _ := ctx.Value(identityKey{}).(string)
	if strings.TrimSpace(identity) == "" {
		return "", ErrMissingIdentity
	}

	return identity, nil
}
