package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBcryptHasher_HashAndVerify(t *testing.T) {
	hasher := NewBcryptHasher()

	digest, err := hasher.Hash("StrongPass1")
	require.NoError(t, err)

	assert.NotEqual(t, "StrongPass1", digest)
	assert.True(t, hasher.Verify("StrongPass1", digest))
	assert.False(t, hasher.Verify("WrongPass", digest))
}

func TestBcryptHasher_SaltedDigests(t *testing.T) {
	hasher := NewBcryptHasher()

	digest1, err := hasher.Hash("StrongPass1")
	require.NoError(t, err)
	digest2, err := hasher.Hash("StrongPass1")
	require.NoError(t, err)

	// соль делает хеши разными, но оба проверяются
	assert.NotEqual(t, digest1, digest2)
	assert.True(t, hasher.Verify("StrongPass1", digest1))
	assert.True(t, hasher.Verify("StrongPass1", digest2))
}
