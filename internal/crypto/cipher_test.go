package crypto

import (
	"bytes"
	"crypto/rand"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cloudtab_errors "cloudtab/pkg/errors"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	key, err := GenerateKey()
	require.NoError(t, err)
	return key
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := testKey(t)

	sizes := []int{0, 1, 15, 16, 17, 255, chunkSize - 1, chunkSize, chunkSize + 5, 3*chunkSize + 100}
	for _, size := range sizes {
		plaintext := make([]byte, size)
		_, err := rand.Read(plaintext)
		require.NoError(t, err)

		var ciphertext bytes.Buffer
		written, err := Encrypt(&ciphertext, bytes.NewReader(plaintext), key)
		require.NoError(t, err, "size %d", size)
		assert.Equal(t, int64(ciphertext.Len()), written)
		// IV plus at least one padding block, body block-aligned.
		assert.Greater(t, ciphertext.Len(), size)
		assert.Zero(t, (ciphertext.Len()-IVSize)%16)

		var decrypted bytes.Buffer
		n, err := Decrypt(&decrypted, &ciphertext, key)
		require.NoError(t, err, "size %d", size)
		assert.Equal(t, int64(size), n)
		assert.Equal(t, plaintext, decrypted.Bytes()[:size])
	}
}

func TestEncryptFreshIVPerCall(t *testing.T) {
	key := testKey(t)
	plaintext := []byte("the same document twice")

	var first, second bytes.Buffer
	_, err := Encrypt(&first, bytes.NewReader(plaintext), key)
	require.NoError(t, err)
	_, err = Encrypt(&second, bytes.NewReader(plaintext), key)
	require.NoError(t, err)

	assert.NotEqual(t, first.Bytes()[:IVSize], second.Bytes()[:IVSize])
	assert.NotEqual(t, first.Bytes(), second.Bytes())
}

func TestDecryptWrongKey(t *testing.T) {
	var ciphertext bytes.Buffer
	_, err := Encrypt(&ciphertext, bytes.NewReader([]byte("secret receipt")), testKey(t))
	require.NoError(t, err)

	_, err = Decrypt(io.Discard, &ciphertext, testKey(t))
	assert.ErrorIs(t, err, cloudtab_errors.ErrCorruptCiphertext)
}

func TestDecryptCorruptInputs(t *testing.T) {
	key := testKey(t)

	var ciphertext bytes.Buffer
	_, err := Encrypt(&ciphertext, bytes.NewReader([]byte("tamper with me")), key)
	require.NoError(t, err)
	good := ciphertext.Bytes()

	t.Run("flipped byte in final block", func(t *testing.T) {
		bad := append([]byte(nil), good...)
		bad[len(bad)-1] ^= 0xff
		_, err := Decrypt(io.Discard, bytes.NewReader(bad), key)
		assert.ErrorIs(t, err, cloudtab_errors.ErrCorruptCiphertext)
	})

	t.Run("truncated body", func(t *testing.T) {
		_, err := Decrypt(io.Discard, bytes.NewReader(good[:len(good)-5]), key)
		assert.ErrorIs(t, err, cloudtab_errors.ErrCorruptCiphertext)
	})

	t.Run("iv only", func(t *testing.T) {
		_, err := Decrypt(io.Discard, bytes.NewReader(good[:IVSize]), key)
		assert.ErrorIs(t, err, cloudtab_errors.ErrCorruptCiphertext)
	})

	t.Run("shorter than iv", func(t *testing.T) {
		_, err := Decrypt(io.Discard, bytes.NewReader(good[:7]), key)
		assert.ErrorIs(t, err, cloudtab_errors.ErrCorruptCiphertext)
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := Decrypt(io.Discard, bytes.NewReader(nil), key)
		assert.ErrorIs(t, err, cloudtab_errors.ErrCorruptCiphertext)
	})
}

func TestBadKeySize(t *testing.T) {
	short := make([]byte, 16)
	_, err := Encrypt(io.Discard, bytes.NewReader(nil), short)
	assert.ErrorIs(t, err, cloudtab_errors.ErrInvalidKey)

	_, err = Decrypt(io.Discard, bytes.NewReader(nil), short)
	assert.ErrorIs(t, err, cloudtab_errors.ErrInvalidKey)
}
