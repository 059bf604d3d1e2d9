package utils

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setTestEncryptionKey(t *testing.T) {
	t.Helper()
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	t.Setenv("ENCRYPTION_KEY", base64.StdEncoding.EncodeToString(key))
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	setTestEncryptionKey(t)

	plaintext := "I have trouble sleeping and would like calming music."
	ciphertext, err := Encrypt(plaintext)
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, ciphertext)

	decrypted, err := Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestEncryptEmptyString(t *testing.T) {
	setTestEncryptionKey(t)

	ciphertext, err := Encrypt("")
	require.NoError(t, err)
	assert.Equal(t, "", ciphertext)

	decrypted, err := Decrypt("")
	require.NoError(t, err)
	assert.Equal(t, "", decrypted)
}

func TestEncryptProducesUniqueNonces(t *testing.T) {
	setTestEncryptionKey(t)

	c1, err := Encrypt("same message")
	require.NoError(t, err)
	c2, err := Encrypt("same message")
	require.NoError(t, err)
	assert.NotEqual(t, c1, c2)
}

func TestDecryptRejectsTamperedCiphertext(t *testing.T) {
	setTestEncryptionKey(t)

	ciphertext, err := Encrypt("sensitive")
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xff
	tampered := base64.StdEncoding.EncodeToString(raw)

	_, err = Decrypt(tampered)
	assert.Error(t, err)
}

func TestDecryptRejectsGarbage(t *testing.T) {
	setTestEncryptionKey(t)

	_, err := Decrypt("not base64 at all!!!")
	assert.Error(t, err)

	_, err = Decrypt(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.Error(t, err)
}

func TestGetEncryptionKeyValidation(t *testing.T) {
	t.Setenv("ENCRYPTION_KEY", "")
	_, err := GetEncryptionKey()
	assert.Error(t, err)

	t.Setenv("ENCRYPTION_KEY", "%%%not-base64%%%")
	_, err = GetEncryptionKey()
	assert.Error(t, err)

	t.Setenv("ENCRYPTION_KEY", base64.StdEncoding.EncodeToString([]byte("too short")))
	_, err = GetEncryptionKey()
	assert.Error(t, err)
}
