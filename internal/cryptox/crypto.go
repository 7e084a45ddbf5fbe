// Package cryptox implements the passphrase encryption used for pushed
// archives: PBKDF2-derived keys, AES-256-CBC with PKCS#7 padding and an
// encrypt-then-MAC integrity trailer.
//
// Wire layout of an encrypted blob:
//
//	salt (16) ‖ iv (16) ‖ ciphertext ‖ hmac-sha256 (32)
//
// The header makes decryption a pure function of (passphrase, blob): the
// salt and IV travel with the data, nothing has to be communicated
// out-of-band.
package cryptox

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"errors"

	"golang.org/x/crypto/pbkdf2"

	"github.com/dmitrijs2005/secretsync/internal/common"
)

const (
	SaltSize = 16
	IVSize   = 16
	macSize  = sha256.Size

	// KDFIterations is the PBKDF2-SHA256 round count. High on purpose:
	// the ciphertext may sit in a low-trust note service.
	KDFIterations = 600_000

	keySize = 32
)

// deriveKeys stretches the passphrase into an AES-256 key and a separate
// HMAC key. Deterministic for a given (passphrase, salt) pair.
func deriveKeys(passphrase, salt []byte) (encKey, macKey []byte) {
	k := pbkdf2.Key(passphrase, salt, KDFIterations, 2*keySize, sha256.New)
	return k[:keySize], k[keySize:]
}

// Encrypt seals plaintext under the passphrase with a fresh random salt
// and IV. The returned blob is self-describing; see the package comment
// for the layout.
func Encrypt(plaintext, passphrase []byte) ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	iv := make([]byte, IVSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, err
	}

	encKey, macKey := deriveKeys(passphrase, salt)

	block, err := aes.NewCipher(encKey)
	if err != nil {
		return nil, err
	}

	padded := pad(plaintext, aes.BlockSize)
	out := make([]byte, 0, SaltSize+IVSize+len(padded)+macSize)
	out = append(out, salt...)
	out = append(out, iv...)

	ct := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ct, padded)
	out = append(out, ct...)

	mac := hmac.New(sha256.New, macKey)
	mac.Write(out)
	return mac.Sum(out), nil
}

// Decrypt reverses Encrypt. Every failure mode (wrong passphrase, bad MAC,
// truncated blob, bad padding) returns common.ErrDecryption; callers must
// not be able to tell which check failed.
func Decrypt(blob, passphrase []byte) ([]byte, error) {
	if len(blob) < SaltSize+IVSize+aes.BlockSize+macSize {
		return nil, common.ErrDecryption
	}

	body, tag := blob[:len(blob)-macSize], blob[len(blob)-macSize:]
	salt, iv := body[:SaltSize], body[SaltSize:SaltSize+IVSize]
	ct := body[SaltSize+IVSize:]

	if len(ct)%aes.BlockSize != 0 {
		return nil, common.ErrDecryption
	}

	encKey, macKey := deriveKeys(passphrase, salt)

	mac := hmac.New(sha256.New, macKey)
	mac.Write(body)
	if !hmac.Equal(mac.Sum(nil), tag) {
		return nil, common.ErrDecryption
	}

	block, err := aes.NewCipher(encKey)
	if err != nil {
		return nil, common.ErrDecryption
	}

	pt := make([]byte, len(ct))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(pt, ct)

	pt, err = unpad(pt, aes.BlockSize)
	if err != nil {
		return nil, common.ErrDecryption
	}
	return pt, nil
}

func pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, errors.New("invalid padding")
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, errors.New("invalid padding")
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, errors.New("invalid padding")
		}
	}
	return data[:len(data)-n], nil
}
