package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptionManager_Disabled(t *testing.T) {
	em := NewEncryptionManager("")
	data := []byte("plaintext")

	assert.False(t, em.Enabled())

	encrypted, err := em.Encrypt(data)
	require.NoError(t, err)
	assert.Equal(t, data, encrypted)

	decrypted, err := em.Decrypt(encrypted)
	require.NoError(t, err)
	assert.Equal(t, data, decrypted)
}

func TestEncryptionManager_RoundTrip(t *testing.T) {
	em := NewEncryptionManager("correct horse battery staple")
	data := []byte("database bytes worth protecting")

	encrypted, err := em.Encrypt(data)
	require.NoError(t, err)
	assert.NotEqual(t, data, encrypted)
	assert.Greater(t, len(encrypted), len(data))

	decrypted, err := em.Decrypt(encrypted)
	require.NoError(t, err)
	assert.Equal(t, data, decrypted)
}

func TestEncryptionManager_UniqueCiphertexts(t *testing.T) {
	// Random salt and nonce: encrypting twice never repeats output.
	em := NewEncryptionManager("passphrase")
	data := []byte("same input")

	first, err := em.Encrypt(data)
	require.NoError(t, err)
	second, err := em.Encrypt(data)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestEncryptionManager_WrongPassphrase(t *testing.T) {
	encrypted, err := NewEncryptionManager("right").Encrypt([]byte("secret"))
	require.NoError(t, err)

	_, err = NewEncryptionManager("wrong").Decrypt(encrypted)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "wrong passphrase or corrupted data")
}

func TestEncryptionManager_TruncatedInput(t *testing.T) {
	em := NewEncryptionManager("passphrase")

	_, err := em.Decrypt([]byte("short"))
	assert.Error(t, err)

	_, err = em.Decrypt(make([]byte, saltSize+2))
	assert.Error(t, err)
}
