package utils

import "testing"

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("hunter2-but-longer")
	if err != nil {
		t.Fatalf("failed hashing password: %v", err)
	}
	if hash == "hunter2-but-longer" {
		t.Fatal("expected hash to differ from the plaintext")
	}

	if !CheckPassword(hash, "hunter2-but-longer") {
		t.Fatal("expected matching password to verify")
	}
	if CheckPassword(hash, "wrong-password") {
		t.Fatal("expected wrong password to fail verification")
	}
}
