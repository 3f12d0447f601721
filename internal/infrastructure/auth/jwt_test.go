package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-at-least-32-chars"

func TestParseBearer(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{"valid", "Bearer abc.def.ghi", "abc.def.ghi", false},
		{"lowercase scheme", "bearer abc", "abc", false},
		{"extra spaces", "  Bearer   abc  ", "abc", false},
		{"missing", "", "", true},
		{"no token", "Bearer", "", true},
		{"blank token", "Bearer    ", "", true},
		{"basic scheme", "Basic dXNlcjpwYXNz", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBearer(tt.header)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, shared.ErrUnauthorized))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHMACVerifier_RoundTrip(t *testing.T) {
	v := NewHMACVerifier(testSecret, "invoicer-dev")

	token, err := v.Issue("user-a", "a@example.com", time.Hour)
	require.NoError(t, err)

	p, err := Verify(context.Background(), v, "Bearer "+token)
	require.NoError(t, err)
	assert.Equal(t, "user-a", p.ID)
	assert.Equal(t, "a@example.com", p.Email)
}

func TestHMACVerifier_Rejects(t *testing.T) {
	v := NewHMACVerifier(testSecret, "invoicer-dev")
	ctx := context.Background()

	t.Run("wrong secret", func(t *testing.T) {
		other := NewHMACVerifier("another-secret-another-secret-xx", "invoicer-dev")
		token, err := other.Issue("user-a", "", time.Hour)
		require.NoError(t, err)

		_, err = v.VerifyToken(ctx, token)
		assert.True(t, errors.Is(err, shared.ErrInvalidToken))
	})

	t.Run("expired", func(t *testing.T) {
		token, err := v.Issue("user-a", "", -time.Minute)
		require.NoError(t, err)

		_, err = v.VerifyToken(ctx, token)
		assert.True(t, errors.Is(err, shared.ErrInvalidToken))
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewHMACVerifier(testSecret, "someone-else")
		token, err := other.Issue("user-a", "", time.Hour)
		require.NoError(t, err)

		_, err = v.VerifyToken(ctx, token)
		assert.True(t, errors.Is(err, shared.ErrInvalidToken))
	})

	t.Run("missing subject", func(t *testing.T) {
		token, err := v.Issue("", "", time.Hour)
		require.NoError(t, err)

		_, err = v.VerifyToken(ctx, token)
		assert.True(t, errors.Is(err, shared.ErrInvalidToken))
	})

	t.Run("alg none", func(t *testing.T) {
		claims := jwt.RegisteredClaims{
			Subject:   "user-a",
			Issuer:    "invoicer-dev",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = v.VerifyToken(ctx, token)
		assert.True(t, errors.Is(err, shared.ErrInvalidToken))
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := v.VerifyToken(ctx, "not-a-jwt")
		assert.True(t, errors.Is(err, shared.ErrInvalidToken))
	})
}

func TestVerify_MissingHeader(t *testing.T) {
	v := NewHMACVerifier(testSecret, "")
	_, err := Verify(context.Background(), v, "")
	assert.True(t, errors.Is(err, shared.ErrUnauthorized))
}
