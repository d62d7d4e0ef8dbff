package snapshot

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/pbkdf2"

	"litestream-sidecar/internal/apperrors"
)

const (
	saltSize         = 32
	pbkdf2Iterations = 100000
	keySize          = 32 // AES-256
)

// EncryptionManager encrypts snapshot archives with AES-256-GCM. The key is
// derived from a passphrase via PBKDF2; the random salt is prepended to the
// ciphertext so decryption needs only the passphrase.
type EncryptionManager struct {
	passphrase string
}

// NewEncryptionManager creates an encryption manager. An empty passphrase
// disables encryption: Encrypt and Decrypt become pass-throughs.
func NewEncryptionManager(passphrase string) *EncryptionManager {
	return &EncryptionManager{passphrase: passphrase}
}

// Enabled reports whether snapshots will be encrypted
func (em *EncryptionManager) Enabled() bool {
	return em.passphrase != ""
}

// Encrypt encrypts data using AES-256-GCM. Output layout:
// salt || nonce || ciphertext.
func (em *EncryptionManager) Encrypt(data []byte) ([]byte, error) {
	if !em.Enabled() {
		return data, nil
	}

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, apperrors.NewSnapshotError("failed to generate salt", err)
	}

	gcm, err := em.cipherFor(salt)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, apperrors.NewSnapshotError("failed to generate nonce", err)
	}

	out := make([]byte, 0, saltSize+len(nonce)+len(data)+gcm.Overhead())
	out = append(out, salt...)
	out = append(out, nonce...)
	return gcm.Seal(out, nonce, data, nil), nil
}

// Decrypt decrypts data produced by Encrypt
func (em *EncryptionManager) Decrypt(data []byte) ([]byte, error) {
	if !em.Enabled() {
		return data, nil
	}

	if len(data) < saltSize {
		return nil, apperrors.NewSnapshotError("encrypted snapshot is truncated", nil)
	}
	salt, rest := data[:saltSize], data[saltSize:]

	gcm, err := em.cipherFor(salt)
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(rest) < nonceSize {
		return nil, apperrors.NewSnapshotError("encrypted snapshot is truncated", nil)
	}
	nonce, ciphertext := rest[:nonceSize], rest[nonceSize:]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, apperrors.NewSnapshotError("failed to decrypt snapshot: wrong passphrase or corrupted data", err)
	}
	return plaintext, nil
}

func (em *EncryptionManager) cipherFor(salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key([]byte(em.passphrase), salt, pbkdf2Iterations, keySize, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, apperrors.NewSnapshotError("failed to create AES cipher", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, apperrors.NewSnapshotError("failed to create GCM cipher", err)
	}
	return gcm, nil
}
