package security

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestAppKeyCipherRoundTrip(t *testing.T) {
	cipher, err := NewAppKeyCipherFromString("application-master-key")
	if err != nil {
		t.Fatalf("NewAppKeyCipherFromString failed: %v", err)
	}

	plaintext := []byte("endpoint-signing-secret")
	ciphertext, err := cipher.Encrypt(context.Background(), plaintext)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if !strings.HasPrefix(string(ciphertext), envelopePrefix) {
		t.Fatalf("expected envelope prefix, got %q", ciphertext[:20])
	}
	if bytes.Contains(ciphertext, plaintext) {
		t.Fatalf("ciphertext must not contain the plaintext")
	}

	decrypted, err := cipher.Decrypt(context.Background(), ciphertext)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if !bytes.Equal(decrypted, plaintext) {
		t.Fatalf("expected %q, got %q", plaintext, decrypted)
	}
}

func TestAppKeyCipherRejectsUnknownKeyID(t *testing.T) {
	first, err := NewAppKeyCipherFromString("key-material-a", WithKeyID("key-a"))
	if err != nil {
		t.Fatalf("cipher setup failed: %v", err)
	}
	second, err := NewAppKeyCipherFromString("key-material-b", WithKeyID("key-b"))
	if err != nil {
		t.Fatalf("cipher setup failed: %v", err)
	}

	ciphertext, err := first.Encrypt(context.Background(), []byte("secret"))
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if _, err := second.Decrypt(context.Background(), ciphertext); err == nil {
		t.Fatalf("expected unknown key id error")
	}
}

func TestAppKeyCipherDecryptsWithPreviousKeyDuringRotation(t *testing.T) {
	old, err := NewAppKeyCipherFromString("old-master-key", WithKeyID("key-2025"))
	if err != nil {
		t.Fatalf("cipher setup failed: %v", err)
	}
	ciphertext, err := old.Encrypt(context.Background(), []byte("secret"))
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	rotated, err := NewAppKeyCipherFromString(
		"new-master-key",
		WithKeyID("key-2026"),
		WithVersion(2),
		WithPreviousKey("key-2025", []byte("old-master-key")),
	)
	if err != nil {
		t.Fatalf("cipher setup failed: %v", err)
	}

	decrypted, err := rotated.Decrypt(context.Background(), ciphertext)
	if err != nil {
		t.Fatalf("Decrypt with previous key failed: %v", err)
	}
	if string(decrypted) != "secret" {
		t.Fatalf("expected secret, got %q", decrypted)
	}

	fresh, err := rotated.Encrypt(context.Background(), []byte("secret"))
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if !strings.Contains(string(fresh), `"kid":"key-2026"`) {
		t.Fatalf("new ciphertexts must use the active key id")
	}
}

func TestNormalizeKeyAlwaysDerivesAES256Keys(t *testing.T) {
	for _, material := range [][]byte{
		[]byte("short"),
		[]byte("sixteen-byte-key"),
		[]byte("twenty-four-byte-key-pad"),
		[]byte("exactly-thirty-two-bytes-of-key!"),
		bytes.Repeat([]byte("x"), 64),
	} {
		key := normalizeKey(material)
		if len(key) != 32 {
			t.Fatalf("expected 32-byte key for %d-byte material, got %d", len(material), len(key))
		}
		if bytes.Equal(key, material) {
			t.Fatalf("raw key material must not be used directly as the cipher key")
		}
		if !bytes.Equal(key, normalizeKey(material)) {
			t.Fatalf("derivation must be deterministic")
		}
	}

	if bytes.Equal(normalizeKey([]byte("key-a")), normalizeKey([]byte("key-b"))) {
		t.Fatalf("distinct app keys must derive distinct cipher keys")
	}
}

func TestAppKeyCipherShortKeyMaterialStillEncryptsAES256(t *testing.T) {
	cipher, err := NewAppKeyCipherFromString("sixteen-byte-key")
	if err != nil {
		t.Fatalf("cipher setup failed: %v", err)
	}

	ciphertext, err := cipher.Encrypt(context.Background(), []byte("secret"))
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if !strings.Contains(string(ciphertext), `"alg":"aes-256-gcm"`) {
		t.Fatalf("expected aes-256-gcm envelope, got %s", ciphertext)
	}

	decrypted, err := cipher.Decrypt(context.Background(), ciphertext)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if string(decrypted) != "secret" {
		t.Fatalf("expected round trip, got %q", decrypted)
	}
}

func TestAppKeyCipherRequiresInputs(t *testing.T) {
	if _, err := NewAppKeyCipher(nil); err == nil {
		t.Fatalf("expected key material error")
	}

	cipher, err := NewAppKeyCipherFromString("application-master-key")
	if err != nil {
		t.Fatalf("cipher setup failed: %v", err)
	}
	if _, err := cipher.Encrypt(context.Background(), nil); err == nil {
		t.Fatalf("expected plaintext error")
	}
	if _, err := cipher.Decrypt(context.Background(), nil); err == nil {
		t.Fatalf("expected ciphertext error")
	}
	if _, err := cipher.Decrypt(context.Background(), []byte("not-an-envelope")); err == nil {
		t.Fatalf("expected envelope decode error")
	}
}
