package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestCreateAndVerify(t *testing.T) {
	maker, err := NewMaker(testSecret, time.Minute)
	require.NoError(t, err)

	signed, issued, err := maker.Create("user-1", "user", "")
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	claims, err := maker.Verify(signed)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, "user", claims.Role)
	require.Equal(t, issued.ID, claims.ID)
}

func TestTokensAreUnique(t *testing.T) {
	maker, err := NewMaker(testSecret, time.Minute)
	require.NoError(t, err)

	first, _, err := maker.Create("user-1", "user", "")
	require.NoError(t, err)
	second, _, err := maker.Create("user-1", "user", "")
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	maker, err := NewMaker(testSecret, time.Minute)
	require.NoError(t, err)
	other, err := NewMaker("fedcba9876543210fedcba9876543210", time.Minute)
	require.NoError(t, err)

	signed, _, err := maker.Create("user-1", "user", "")
	require.NoError(t, err)

	_, err = other.Verify(signed)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsExpired(t *testing.T) {
	maker, err := NewMaker(testSecret, time.Minute)
	require.NoError(t, err)
	maker.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	signed, _, err := maker.Create("user-1", "user", "")
	require.NoError(t, err)

	maker.now = time.Now
	_, err = maker.Verify(signed)
	require.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	maker, err := NewMaker(testSecret, time.Minute)
	require.NoError(t, err)

	_, err = maker.Verify("not-a-token")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewMakerRejectsShortSecret(t *testing.T) {
	_, err := NewMaker("short", time.Minute)
	require.Error(t, err)
}
