// Package crypto provides the cryptographic primitives for rokioctl.
//
// This package implements AES-256-GCM authenticated encryption over a key
// derived with PBKDF2-HMAC-SHA256 from the master password and the
// machine identity.
//
// # Security Features
//
//   - AES-256-GCM authenticated encryption
//   - PBKDF2 key derivation (SHA-256, 100,000 iterations)
//   - Cryptographically secure random nonce generation
//   - Secure memory wiping for sensitive data
//
// # Example Usage
//
//	// Derive a key from the master password
//	key := crypto.DeriveKey("password", hwid.Machine{})
//
//	// Encrypt a session token
//	blob, err := crypto.EncryptString(token, key)
//
//	// Decrypt it again
//	token, err := crypto.DecryptString(blob, key)
//
//	// Securely wipe the key when locking
//	crypto.SecureWipe(key)
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/crypto/pbkdf2"

	"github.com/rokio-app/rokioctl/pkg/hwid"
)

// Key derivation and cipher parameters.
const (
	// PBKDF2Iterations is the PBKDF2 iteration count. High enough to
	// impose real brute-force cost, low enough for interactive unlock.
	PBKDF2Iterations = 100_000

	// KeyLength is the length of encryption keys in bytes (256 bits).
	KeyLength = 32

	// NonceLength is the length of GCM nonces in bytes (96 bits).
	NonceLength = 12

	// saltPrefix is prepended to the machine identity to form the KDF
	// salt. Changing it invalidates every existing vault.
	saltPrefix = "ROKIO-VAULT-"
)

// Sentinel errors returned by crypto functions.
var (
	// ErrInvalidKeyLength indicates the key is not 32 bytes.
	ErrInvalidKeyLength = errors.New("crypto: invalid key length, must be 32 bytes")

	// ErrCiphertextTooShort indicates the decoded blob is shorter than a nonce.
	ErrCiphertextTooShort = errors.New("crypto: ciphertext too short")

	// ErrDecodeFailed indicates the blob is not valid base64.
	ErrDecodeFailed = errors.New("crypto: malformed base64 ciphertext")

	// ErrAuthenticationFailed indicates a wrong key or tampered/corrupted
	// ciphertext. The two causes are deliberately indistinguishable so
	// the cipher provides no oracle for password guessing.
	ErrAuthenticationFailed = errors.New("crypto: decryption failed, wrong key or corrupted data")
)

// DeriveKey derives a 256-bit encryption key from the master password and
// the machine identity.
//
// The derivation is deterministic: the same password on the same machine
// always yields the same key. Any change to either input changes the key,
// which is how the vault stays bound to its host. No caching is done;
// every call recomputes from scratch.
func DeriveKey(password string, identity hwid.Provider) []byte {
	salt := saltPrefix + identity.ID()
	return pbkdf2.Key([]byte(password), []byte(salt), PBKDF2Iterations, KeyLength, sha256.New)
}

// EncryptString encrypts a string with AES-256-GCM and encodes the result
// for storage as text.
//
// Each call draws a fresh 12-byte nonce from crypto/rand; a nonce is
// never reused with the same key. The returned blob is
// base64(nonce || ciphertext || tag).
func EncryptString(plaintext string, key []byte) (string, error) {
	if len(key) != KeyLength {
		return "", ErrInvalidKeyLength
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("crypto: failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("crypto: failed to create GCM: %w", err)
	}

	nonce := make([]byte, NonceLength)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("crypto: failed to generate nonce: %w", err)
	}

	// Seal appends ciphertext+tag after the nonce so the whole blob is
	// self-contained.
	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)

	return base64.StdEncoding.EncodeToString(sealed), nil
}

// DecryptString decrypts a blob produced by EncryptString.
//
// Returns ErrDecodeFailed for malformed base64, ErrCiphertextTooShort for
// blobs shorter than a nonce, and ErrAuthenticationFailed when the key is
// wrong or the data was tampered with.
func DecryptString(blob string, key []byte) (string, error) {
	if len(key) != KeyLength {
		return "", ErrInvalidKeyLength
	}

	combined, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}

	// Reject blobs shorter than the nonce before touching the cipher.
	if len(combined) < NonceLength {
		return "", ErrCiphertextTooShort
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("crypto: failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("crypto: failed to create GCM: %w", err)
	}

	nonce, ciphertext := combined[:NonceLength], combined[NonceLength:]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrAuthenticationFailed
	}

	return string(plaintext), nil
}

// SecureWipe overwrites a byte slice with zeros in a way that prevents
// compiler optimization from removing the operation.
// This is critical for securely destroying the vault key on lock.
func SecureWipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
	// runtime.KeepAlive ensures the write operations are not optimized away
	// by the compiler since b is still "in use" after the loop.
	runtime.KeepAlive(b)
}
