package crypto

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/rokio-app/rokioctl/pkg/hwid"
)

// TestDeriveKey tests the PBKDF2 key derivation function
func TestDeriveKey(t *testing.T) {
	identity := hwid.Static("ROKIO-TEST-AABBCCDDEEFF")

	// Test key derivation produces correct length
	key := DeriveKey("test-password-123", identity)
	if len(key) != KeyLength {
		t.Errorf("DeriveKey() returned key of length %d, want %d", len(key), KeyLength)
	}

	// Test same password + identity produces same key (deterministic)
	key2 := DeriveKey("test-password-123", identity)
	if !bytes.Equal(key, key2) {
		t.Error("DeriveKey() with same inputs should produce identical keys")
	}

	// Test different password produces different key
	differentKey := DeriveKey("different-password", identity)
	if bytes.Equal(key, differentKey) {
		t.Error("DeriveKey() with different password should produce different key")
	}

	// Test different machine identity produces different key
	differentKey = DeriveKey("test-password-123", hwid.Static("ROKIO-TEST-112233445566"))
	if bytes.Equal(key, differentKey) {
		t.Error("DeriveKey() with different identity should produce different key")
	}
}

// TestDeriveKeyParameters verifies the KDF parameters match the vault format
func TestDeriveKeyParameters(t *testing.T) {
	if PBKDF2Iterations != 100_000 {
		t.Errorf("PBKDF2Iterations = %d, want 100000", PBKDF2Iterations)
	}
	if KeyLength != 32 {
		t.Errorf("KeyLength = %d, want 32 (256-bit)", KeyLength)
	}
	if NonceLength != 12 {
		t.Errorf("NonceLength = %d, want 12 (96-bit)", NonceLength)
	}
}

// TestEncryptDecryptRoundTrip tests that decryption recovers the plaintext
func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := make([]byte, KeyLength)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}

	tests := []struct {
		name      string
		plaintext string
	}{
		{"session token", "_|WARNING:-DO-NOT-SHARE-THIS...|_ABC123"},
		{"empty string", ""},
		{"unicode", "ロキオ🔐"},
		{"long value", strings.Repeat("x", 4096)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blob, err := EncryptString(tt.plaintext, key)
			if err != nil {
				t.Fatalf("EncryptString() error = %v", err)
			}

			got, err := DecryptString(blob, key)
			if err != nil {
				t.Fatalf("DecryptString() error = %v", err)
			}
			if got != tt.plaintext {
				t.Errorf("round trip = %q, want %q", got, tt.plaintext)
			}
		})
	}
}

// TestEncryptFreshNonce verifies each encryption uses a fresh nonce
func TestEncryptFreshNonce(t *testing.T) {
	key := make([]byte, KeyLength)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}

	blob1, err := EncryptString("same plaintext", key)
	if err != nil {
		t.Fatalf("EncryptString() error = %v", err)
	}
	blob2, err := EncryptString("same plaintext", key)
	if err != nil {
		t.Fatalf("EncryptString() error = %v", err)
	}

	if blob1 == blob2 {
		t.Error("EncryptString() produced identical blobs for two calls, nonce was reused")
	}
}

// TestDecryptWrongKey verifies decryption fails cleanly with the wrong key
func TestDecryptWrongKey(t *testing.T) {
	key1 := DeriveKey("password1", hwid.Static("ROKIO-TEST-A"))
	key2 := DeriveKey("password2", hwid.Static("ROKIO-TEST-A"))

	blob, err := EncryptString("secret", key1)
	if err != nil {
		t.Fatalf("EncryptString() error = %v", err)
	}

	_, err = DecryptString(blob, key2)
	if !errors.Is(err, ErrAuthenticationFailed) {
		t.Errorf("DecryptString() with wrong key error = %v, want ErrAuthenticationFailed", err)
	}
}

// TestDecryptTamperedBlob verifies any single-byte mutation is rejected
func TestDecryptTamperedBlob(t *testing.T) {
	key := make([]byte, KeyLength)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}

	blob, err := EncryptString("integrity matters", key)
	if err != nil {
		t.Fatalf("EncryptString() error = %v", err)
	}

	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		t.Fatalf("failed to decode blob: %v", err)
	}

	for i := range raw {
		mutated := make([]byte, len(raw))
		copy(mutated, raw)
		mutated[i] ^= 0x01

		_, err := DecryptString(base64.StdEncoding.EncodeToString(mutated), key)
		if err == nil {
			t.Fatalf("DecryptString() accepted blob with byte %d flipped", i)
		}
	}
}

// TestDecryptMalformedInput tests error cases before cipher operations
func TestDecryptMalformedInput(t *testing.T) {
	key := make([]byte, KeyLength)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}

	tests := []struct {
		name    string
		blob    string
		wantErr error
	}{
		{"not base64", "!!!not-base64!!!", ErrDecodeFailed},
		{"empty blob", "", ErrCiphertextTooShort},
		{"shorter than nonce", base64.StdEncoding.EncodeToString([]byte("short")), ErrCiphertextTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecryptString(tt.blob, key)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("DecryptString() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestInvalidKeyLength tests that both directions reject bad key sizes
func TestInvalidKeyLength(t *testing.T) {
	for _, keyLen := range []int{0, 16, 24, 48} {
		key := make([]byte, keyLen)

		if _, err := EncryptString("data", key); !errors.Is(err, ErrInvalidKeyLength) {
			t.Errorf("EncryptString() with %d-byte key error = %v, want ErrInvalidKeyLength", keyLen, err)
		}
		if _, err := DecryptString("AAAA", key); !errors.Is(err, ErrInvalidKeyLength) {
			t.Errorf("DecryptString() with %d-byte key error = %v, want ErrInvalidKeyLength", keyLen, err)
		}
	}
}

// TestSecureWipe verifies the buffer is zeroed
func TestSecureWipe(t *testing.T) {
	key := make([]byte, KeyLength)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}

	SecureWipe(key)
	for i, b := range key {
		if b != 0 {
			t.Fatalf("SecureWipe() left non-zero byte at index %d", i)
		}
	}
}
