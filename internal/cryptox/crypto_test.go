package cryptox

import (
	"bytes"
	"crypto/aes"
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/secretsync/internal/common"
)

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	plaintext := []byte("KEY-A\nX=1\nsome longer content spanning blocks....")
	passphrase := []byte("hunter2")

	blob, err := Encrypt(plaintext, passphrase)
	require.NoError(t, err)

	got, err := Decrypt(blob, passphrase)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestEncryptDecrypt_EmptyPlaintext(t *testing.T) {
	blob, err := Encrypt(nil, []byte("p"))
	require.NoError(t, err)

	got, err := Decrypt(blob, []byte("p"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEncrypt_FreshSaltAndIVEachCall(t *testing.T) {
	pt := []byte("same input")
	pw := []byte("same passphrase")

	blob1, err := Encrypt(pt, pw)
	require.NoError(t, err)
	blob2, err := Encrypt(pt, pw)
	require.NoError(t, err)

	assert.NotEqual(t, blob1[:SaltSize+IVSize], blob2[:SaltSize+IVSize])
	assert.NotEqual(t, blob1, blob2)
}

func TestDecrypt_WrongPassphrase(t *testing.T) {
	blob, err := Encrypt([]byte("secret"), []byte("hunter2"))
	require.NoError(t, err)

	_, err = Decrypt(blob, []byte("wrong"))
	assert.ErrorIs(t, err, common.ErrDecryption)
}

func TestDecrypt_CorruptedCiphertext(t *testing.T) {
	blob, err := Encrypt([]byte("secret"), []byte("hunter2"))
	require.NoError(t, err)

	blob[SaltSize+IVSize] ^= 0xff

	_, err = Decrypt(blob, []byte("hunter2"))
	assert.ErrorIs(t, err, common.ErrDecryption)
}

func TestDecrypt_Truncated(t *testing.T) {
	blob, err := Encrypt([]byte("secret"), []byte("hunter2"))
	require.NoError(t, err)

	for _, n := range []int{0, 1, SaltSize, SaltSize + IVSize, len(blob) - 1} {
		_, err = Decrypt(blob[:n], []byte("hunter2"))
		assert.ErrorIs(t, err, common.ErrDecryption, "truncated to %d bytes", n)
	}
}

func TestDeriveKeys_Deterministic(t *testing.T) {
	enc1, mac1 := deriveKeys([]byte("pw"), []byte("salt"))
	enc2, mac2 := deriveKeys([]byte("pw"), []byte("salt"))

	assert.True(t, bytes.Equal(enc1, enc2))
	assert.True(t, bytes.Equal(mac1, mac2))
	assert.NotEqual(t, enc1, mac1)
}

func TestHeaderLayout(t *testing.T) {
	blob, err := Encrypt([]byte("x"), []byte("p"))
	require.NoError(t, err)

	// salt + iv + one padded block + mac
	assert.Equal(t, SaltSize+IVSize+aes.BlockSize+sha256.Size, len(blob))
}

func TestUnpad_Invalid(t *testing.T) {
	cases := [][]byte{
		{},
		bytes.Repeat([]byte{0}, aes.BlockSize),
		bytes.Repeat([]byte{17}, aes.BlockSize),
		append(bytes.Repeat([]byte{1}, aes.BlockSize-2), 2, 3),
	}
	for i, c := range cases {
		_, err := unpad(c, aes.BlockSize)
		assert.Error(t, err, "case %d", i)
	}
}
