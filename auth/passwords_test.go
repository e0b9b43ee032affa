package auth

import "testing"

func TestHashAndVerifyPassword(t *testing.T) {
	hashed, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hashed == "correct horse battery staple" {
		t.Fatalf("hash must not equal the plaintext")
	}
	if err := VerifyPassword(hashed, "correct horse battery staple"); err != nil {
		t.Fatalf("expected matching password, got %v", err)
	}
	if err := VerifyPassword(hashed, "wrong password"); err == nil {
		t.Fatalf("expected mismatch error")
	}
}

func TestHashPasswordRejectsShortInput(t *testing.T) {
	if _, err := HashPassword("short"); err == nil {
		t.Fatalf("expected length error")
	}
}

func TestVerifyPasswordRejectsEmptyHash(t *testing.T) {
	if err := VerifyPassword("", "anything at all"); err == nil {
		t.Fatalf("expected empty hash error")
	}
}
