package auth

import "testing"

func TestJWTRoundTrip(t *testing.T) {
	j := NewJWT("secret")

	token, err := j.Sign("user-42")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	uid, err := j.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if uid != "user-42" {
		t.Fatalf("subject = %q, want user-42", uid)
	}
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	token, err := NewJWT("secret-a").Sign("user-42")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := NewJWT("secret-b").Verify(token); err == nil {
		t.Fatal("token verified with wrong secret")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct-horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !ComparePassword(hash, "correct-horse") {
		t.Fatal("correct password rejected")
	}
	if ComparePassword(hash, "wrong") {
		t.Fatal("wrong password accepted")
	}
}
