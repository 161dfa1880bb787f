package keys

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := &MemoryStore{}
	value := []byte("secret")

	require.NoError(t, store.Put(SigningKeyID, value))
	got, err := store.Get(SigningKeyID)
	require.NoError(t, err)
	assert.Equal(t, value, got)

	require.NoError(t, store.Delete(SigningKeyID))
	_, err = store.Get(SigningKeyID)
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestSigningSecretIsStable(t *testing.T) {
	store := &MemoryStore{}
	first, err := SigningSecret(store)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(first), 32)

	second, err := SigningSecret(store)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()
	store := &KeyringStore{Service: "muse-test"}

	_, err := store.Get(SigningKeyID)
	assert.ErrorIs(t, err, ErrKeyNotFound)

	secret, err := SigningSecret(store)
	require.NoError(t, err)
	again, err := SigningSecret(store)
	require.NoError(t, err)
	assert.Equal(t, secret, again)

	require.NoError(t, store.Delete(SigningKeyID))
	require.NoError(t, store.Delete(SigningKeyID))
}
