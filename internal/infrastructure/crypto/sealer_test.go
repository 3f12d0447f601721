package crypto

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(b byte) []byte {
	return bytes.Repeat([]byte{b}, 32)
}

func TestNewSealer_KeyLength(t *testing.T) {
	_, err := NewSealer([]byte("short"))
	assert.Error(t, err)

	_, err = NewSealer(testKey(1))
	assert.NoError(t, err)
}

func TestSealer_RoundTrip(t *testing.T) {
	s, err := NewSealer(testKey(7))
	require.NoError(t, err)

	sealed, err := s.Seal("1//0refresh-token", "user-a")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sealed, "v1."))
	assert.NotContains(t, sealed, "refresh-token")

	opened, err := s.Open(sealed, "user-a")
	require.NoError(t, err)
	assert.Equal(t, "1//0refresh-token", opened)
}

func TestSealer_NonceIsRandom(t *testing.T) {
	s, err := NewSealer(testKey(7))
	require.NoError(t, err)

	a, err := s.Seal("same", "user-a")
	require.NoError(t, err)
	b, err := s.Seal("same", "user-a")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestSealer_Rejects(t *testing.T) {
	s, err := NewSealer(testKey(7))
	require.NoError(t, err)
	sealed, err := s.Seal("secret", "user-a")
	require.NoError(t, err)

	t.Run("other principal", func(t *testing.T) {
		_, err := s.Open(sealed, "user-b")
		assert.ErrorIs(t, err, ErrUnsealable)
	})

	t.Run("other key", func(t *testing.T) {
		other, err := NewSealer(testKey(8))
		require.NoError(t, err)
		_, err = other.Open(sealed, "user-a")
		assert.ErrorIs(t, err, ErrUnsealable)
	})

	t.Run("tampered", func(t *testing.T) {
		tampered := sealed[:len(sealed)-2] + "AA"
		if tampered == sealed {
			tampered = sealed[:len(sealed)-2] + "BB"
		}
		_, err := s.Open(tampered, "user-a")
		assert.ErrorIs(t, err, ErrUnsealable)
	})

	t.Run("plaintext legacy value", func(t *testing.T) {
		_, err := s.Open("1//0plain", "user-a")
		assert.ErrorIs(t, err, ErrUnsealable)
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := s.Open("v1.AAAA", "user-a")
		assert.ErrorIs(t, err, ErrUnsealable)
	})
}
