package auth

import "testing"

func TestVerifyPasswordLiteral(t *testing.T) {
	if !VerifyPassword("hunter2", "hunter2") {
		t.Fatal("expected literal match")
	}
	if VerifyPassword("hunter2", "wrong") {
		t.Fatal("expected literal mismatch")
	}
	if VerifyPassword("", "anything") {
		t.Fatal("empty stored password must never match")
	}
	if VerifyPassword("hunter2", "") {
		t.Fatal("empty submitted password must never match")
	}
}

func TestVerifyPasswordBcrypt(t *testing.T) {
	hash, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if !VerifyPassword(hash, "hunter2") {
		t.Fatal("expected bcrypt match")
	}
	if VerifyPassword(hash, "wrong") {
		t.Fatal("expected bcrypt mismatch")
	}
}
