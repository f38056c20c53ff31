package auth_test

import (
	"strings"
	"testing"

	"madrigal/internal/auth"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := auth.HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Fatalf("expected PHC encoded hash, got %q", hash)
	}
	if !auth.VerifyPassword("correct horse battery staple", hash) {
		t.Fatal("expected matching password to verify")
	}
	if auth.VerifyPassword("wrong password", hash) {
		t.Fatal("expected mismatched password to fail")
	}
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	if _, err := auth.HashPassword(""); err == nil {
		t.Fatal("expected error for empty password")
	}
}

func TestHashPasswordSaltsUniquely(t *testing.T) {
	first, err := auth.HashPassword("pw")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	second, err := auth.HashPassword("pw")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if first == second {
		t.Fatal("expected distinct salts to produce distinct hashes")
	}
}

func TestVerifyPasswordRejectsMalformedHashes(t *testing.T) {
	for _, encoded := range []string{
		"",
		"not a hash",
		"$argon2id$v=19$m=65536,t=3,p=4$short",
		"$bcrypt$v=19$m=65536,t=3,p=4$c2FsdA$ZGlnZXN0ZGlnZXN0ZGln",
		"$argon2id$v=18$m=65536,t=3,p=4$c2FsdA$ZGlnZXN0ZGlnZXN0ZGln",
	} {
		if auth.VerifyPassword("pw", encoded) {
			t.Fatalf("expected verification to fail for %q", encoded)
		}
	}
}

func TestVerifyPasswordTamperedDigest(t *testing.T) {
	hash, err := auth.HashPassword("pw")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	tampered := hash[:len(hash)-2] + "zz"
	if auth.VerifyPassword("pw", tampered) {
		t.Fatal("expected tampered hash to fail verification")
	}
}
