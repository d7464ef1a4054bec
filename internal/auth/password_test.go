package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestHasher(t *testing.T) *PasswordHasher {
	t.Helper()
	h, err := NewPasswordHasher(MinCost)
	require.NoError(t, err)
	return h
}

func TestPasswordHasher_HashAndVerify(t *testing.T) {
	h := newTestHasher(t)

	for _, password := range []string{"123", "correct horse battery staple", "Pässwörd!", " "} {
		hash, err := h.Hash(password)
		require.NoError(t, err)
		assert.NotEqual(t, password, hash)
		assert.True(t, h.Verify(password, hash), "password %q should verify", password)
	}
}

func TestPasswordHasher_IsSalted(t *testing.T) {
	h := newTestHasher(t)

	first, err := h.Hash("secret")
	require.NoError(t, err)
	second, err := h.Hash("secret")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, h.Verify("secret", first))
	assert.True(t, h.Verify("secret", second))
}

func TestPasswordHasher_RejectsWrongPassword(t *testing.T) {
	h := newTestHasher(t)
	hash, err := h.Hash("secret")
	require.NoError(t, err)

	assert.False(t, h.Verify("Secret", hash))
	assert.False(t, h.Verify("", hash))
	assert.False(t, h.Verify("secret ", hash))
}

func TestPasswordHasher_MalformedHashIsMismatch(t *testing.T) {
	h := newTestHasher(t)
	hash, err := h.Hash("secret")
	require.NoError(t, err)

	for _, bad := range []string{"", "invalid_hash", "$2a$04$short", hash[:len(hash)-5], strings.Repeat("x", 60)} {
		assert.False(t, h.Verify("secret", bad), "hash %q should not verify", bad)
	}
}

func TestPasswordHasher_VerifyMissing(t *testing.T) {
	h := newTestHasher(t)
	assert.False(t, h.VerifyMissing("no-such-account"))
	assert.False(t, h.VerifyMissing("anything"))
}

func TestPasswordHasher_UsesConfiguredCost(t *testing.T) {
	h, err := NewPasswordHasher(6)
	require.NoError(t, err)
	assert.Equal(t, 6, h.Cost())

	hash, err := h.Hash("secret")
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, 6, cost)
}

func TestNewPasswordHasher_CostBounds(t *testing.T) {
	_, err := NewPasswordHasher(MinCost - 1)
	assert.Error(t, err)
	_, err = NewPasswordHasher(MaxCost + 1)
	assert.Error(t, err)
}

func TestPasswordHasher_TooLong(t *testing.T) {
	h := newTestHasher(t)

	_, err := h.Hash(strings.Repeat("a", MaxPasswordBytes+1))
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	// multi-byte runes count by bytes
	_, err = h.Hash(strings.Repeat("ä", 37))
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	_, err = h.Hash(strings.Repeat("a", MaxPasswordBytes))
	assert.NoError(t, err)
}

func TestPasswordHasher_VerifyRejectsOverlongInput(t *testing.T) {
	h := newTestHasher(t)
	password := strings.Repeat("a", MaxPasswordBytes)
	hash, err := h.Hash(password)
	require.NoError(t, err)

	assert.True(t, h.Verify(password, hash))
	assert.False(t, h.Verify(password+"DIFFERENT", hash))
	assert.False(t, h.Verify(password+"a", hash))
}
