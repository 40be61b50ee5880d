package utils

import "testing"

// TestNewShareToken verifies tokens are URL-safe, fixed-length, and do
// not repeat across a batch of issuances.
func TestNewShareToken(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		tok, err := NewShareToken()
		if err != nil {
			t.Fatalf("issue token: %v", err)
		}
		if len(tok) != 32 {
			t.Fatalf("token length = %d, want 32", len(tok))
		}
		for _, r := range tok {
			if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
				t.Fatalf("token contains non-URL-safe rune %q", r)
			}
		}
		if seen[tok] {
			t.Fatalf("duplicate token issued: %s", tok)
		}
		seen[tok] = true
	}
}
