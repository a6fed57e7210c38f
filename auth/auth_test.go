package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "pairchat/errors"
)

const (
	testSecret = "my_strong_and_long_secret_key_2026"
	testIssuer = "pairchat"
)

func TestVerifyRoundTrip(t *testing.T) {
	req := require.New(t)
	token, err := GenerateToken(testSecret, testIssuer, "42", "Alice", time.Hour)
	req.NoError(err)

	identity, err := NewVerifier(testSecret, testIssuer).Verify(token)
	req.NoError(err)
	req.Equal("42", identity.UserID)
	req.Equal("Alice", identity.DisplayName)
}

func TestVerifyRejections(t *testing.T) {
	req := require.New(t)
	verifier := NewVerifier(testSecret, testIssuer)

	expired, err := GenerateToken(testSecret, testIssuer, "42", "", -time.Minute)
	req.NoError(err)

	wrongKey, err := GenerateToken("another_secret_entirely_123456789", testIssuer, "42", "", time.Hour)
	req.NoError(err)

	wrongIssuer, err := GenerateToken(testSecret, "someone-else", "42", "", time.Hour)
	req.NoError(err)

	tests := []struct {
		name       string
		credential string
	}{
		{"Garbage", "not-a-jwt"},
		{"Empty", ""},
		{"Expired", expired},
		{"Wrong key", wrongKey},
		{"Wrong issuer", wrongIssuer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := verifier.Verify(tt.credential)
			require.ErrorIs(t, err, apperrors.ErrUnauthorized)
		})
	}
}

func TestExtractCredentialPrecedence(t *testing.T) {
	req := require.New(t)

	r := httptest.NewRequest("GET", "/ws/rooms/1?token=from-query", nil)
	r.Header.Set("Authorization", "Bearer from-header")

	token, err := ExtractCredential(r)
	req.NoError(err)
	req.Equal("from-header", token)
}

func TestExtractCredentialQueryFallback(t *testing.T) {
	req := require.New(t)

	r := httptest.NewRequest("GET", "/ws/rooms/1?token=from-query", nil)
	token, err := ExtractCredential(r)
	req.NoError(err)
	req.Equal("from-query", token)
}

func TestExtractCredentialMissing(t *testing.T) {
	r := httptest.NewRequest("GET", "/ws/rooms/1", nil)
	_, err := ExtractCredential(r)
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)

	r = httptest.NewRequest("GET", "/ws/rooms/1", nil)
	r.Header.Set("Authorization", "NotBearer something")
	_, err = ExtractCredential(r)
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)
}
