package auth

import "testing"

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Secret@Pass1")
	if err != nil {
		t.Fatalf("unexpected error hashing password: %v", err)
	}
	if hash == "Secret@Pass1" {
		t.Fatal("hash must not equal the plaintext password")
	}
	if err := VerifyPassword(hash, "Secret@Pass1"); err != nil {
		t.Fatalf("expected password to verify: %v", err)
	}
	if err := VerifyPassword(hash, "Wrong@Pass1"); err == nil {
		t.Fatal("expected verification failure for wrong password")
	}
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	if _, err := HashPassword("   "); err == nil {
		t.Fatal("expected error for blank password")
	}
}

func TestVerifyPasswordRejectsEmptyHash(t *testing.T) {
	if err := VerifyPassword("", "whatever"); err == nil {
		t.Fatal("expected error for empty stored hash")
	}
}
