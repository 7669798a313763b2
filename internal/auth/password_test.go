package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.True(t, CheckPassword("correct horse battery staple", hash))
	assert.False(t, CheckPassword("wrong password", hash))
}

func TestHashPasswordSalted(t *testing.T) {
	first, err := HashPassword("same-password")
	require.NoError(t, err)
	second, err := HashPassword("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, CheckPassword("same-password", first))
	assert.True(t, CheckPassword("same-password", second))
}
