package google

import (
	"context"

	"golang.org/x/oauth2"
)

// TokenProvider is an interface for providing OAuth tokens for Google APIs.
// This abstraction allows different token sources (static credentials,
// test fakes) to be plugged in.
type TokenProvider interface {
	// TokenSource returns an OAuth2 token source that refreshes itself.
	TokenSource(ctx context.Context) (oauth2.TokenSource, error)

	// HasToken reports whether a credential is configured at all.
	HasToken() bool
}
