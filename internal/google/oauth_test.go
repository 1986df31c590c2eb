package google

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentials_Complete(t *testing.T) {
	tests := []struct {
		name     string
		creds    Credentials
		expected bool
	}{
		{
			name: "all fields present",
			creds: Credentials{
				ClientID:     "id",
				ClientSecret: "secret",
				RefreshToken: "refresh",
			},
			expected: true,
		},
		{
			name:     "empty",
			creds:    Credentials{},
			expected: false,
		},
		{
			name: "missing refresh token",
			creds: Credentials{
				ClientID:     "id",
				ClientSecret: "secret",
			},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.creds.Complete())
		})
	}
}

func TestRefreshTokenProvider_NoCredential(t *testing.T) {
	p := NewRefreshTokenProvider(Credentials{})
	assert.False(t, p.HasToken())

	_, err := p.TokenSource(context.Background())
	assert.Error(t, err)
}

func TestRefreshTokenProvider_TokenSource(t *testing.T) {
	p := NewRefreshTokenProvider(Credentials{
		ClientID:     "id",
		ClientSecret: "secret",
		RefreshToken: "refresh",
	})
	require.True(t, p.HasToken())

	ts, err := p.TokenSource(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, ts)
}
