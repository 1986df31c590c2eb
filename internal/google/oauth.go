package google

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	calendar "google.golang.org/api/calendar/v3"
)

// Credentials holds the externally provisioned Google OAuth credential for
// the shared calendar: client ID/secret plus a long-lived refresh token.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// Complete reports whether all three credential parts are present.
func (c Credentials) Complete() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
}

// oauthConfig returns the OAuth2 configuration for Calendar access.
func (c Credentials) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes: []string{
			calendar.CalendarScope,
		},
	}
}

// RefreshTokenProvider yields token sources backed by a stored refresh
// token. The access token is obtained lazily and refreshed by the oauth2
// token source as it expires.
type RefreshTokenProvider struct {
	creds Credentials
}

// NewRefreshTokenProvider creates a token provider from the given credentials.
func NewRefreshTokenProvider(creds Credentials) *RefreshTokenProvider {
	return &RefreshTokenProvider{creds: creds}
}

// HasToken reports whether the provider has a complete credential.
func (p *RefreshTokenProvider) HasToken() bool {
	return p.creds.Complete()
}

// TokenSource returns a self-refreshing OAuth2 token source.
func (p *RefreshTokenProvider) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	if !p.creds.Complete() {
		return nil, fmt.Errorf("no Google credential configured")
	}

	conf := p.creds.oauthConfig()
	seed := &oauth2.Token{
		TokenType:    "Bearer",
		RefreshToken: p.creds.RefreshToken,
		// Force an immediate refresh; we never persist access tokens.
		Expiry: time.Unix(1, 0),
	}
	return conf.TokenSource(ctx, seed), nil
}

// NewHTTPClient returns an HTTP client authenticated with the provider's
// credential. The client forces HTTP/1.1: the Google API endpoints
// occasionally break long-lived HTTP/2 connections.
func NewHTTPClient(ctx context.Context, provider TokenProvider) (*http.Client, error) {
	ts, err := provider.TokenSource(ctx)
	if err != nil {
		return nil, err
	}

	client := oauth2.NewClient(ctx, ts)
	if transport, ok := client.Transport.(*oauth2.Transport); ok {
		transport.Base = &http.Transport{
			ForceAttemptHTTP2: false,
		}
	}
	return client, nil
}
