package auth_test

import (
	"testing"

	"github.com/dalemusser/reviewhub/internal/app/system/auth"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := auth.HashPassword("secret1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "secret1" {
		t.Fatal("hash must not equal the plain password")
	}
	if !auth.CheckPassword(hash, "secret1") {
		t.Error("expected matching password to check")
	}
	if auth.CheckPassword(hash, "secret2") {
		t.Error("expected wrong password to fail")
	}
	if auth.CheckPassword("not-a-hash", "secret1") {
		t.Error("expected malformed hash to fail")
	}
}

func TestGeneratePassword(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		pw, err := auth.GeneratePassword()
		if err != nil {
			t.Fatal(err)
		}
		if len(pw) != 8 {
			t.Errorf("len(%q) = %d, want 8", pw, len(pw))
		}
		if len(pw) < auth.MinPasswordLength {
			t.Errorf("generated password shorter than minimum")
		}
		seen[pw] = true
	}
	if len(seen) < 19 {
		t.Errorf("expected mostly unique passwords, got %d distinct", len(seen))
	}
}
