package secret

import (
	"strings"
	"testing"
)

func TestHashAndCompare(t *testing.T) {
	hash, err := Hash("correct horse")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if !strings.HasPrefix(hash, "$2") {
		t.Errorf("expected a bcrypt hash, got %q", hash)
	}
	if !Compare(hash, "correct horse") {
		t.Error("matching password must verify")
	}
	if Compare(hash, "wrong") {
		t.Error("wrong password must not verify")
	}
	if Compare("", "anything") {
		t.Error("empty hash must never verify")
	}
}
