package services

import (
	"regexp"
	"testing"
)

func TestTokenIssuer_Issue(t *testing.T) {
	issuer := NewTokenIssuer()

	token, err := issuer.Issue()
	if err != nil {
		t.Fatalf("Issue() unexpected error: %v", err)
	}
	if got := len(token); got < 32 || got > 64 {
		t.Errorf("token length = %d, want between 32 and 64", got)
	}
	if !regexp.MustCompile(`^[0-9a-f]+$`).MatchString(token) {
		t.Errorf("token %q contains characters outside lowercase hex", token)
	}
}

func TestTokenIssuer_IssueUnique(t *testing.T) {
	issuer := NewTokenIssuer()

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		token, err := issuer.Issue()
		if err != nil {
			t.Fatalf("Issue() #%d unexpected error: %v", i, err)
		}
		if seen[token] {
			t.Fatalf("Issue() returned duplicate token %q", token)
		}
		seen[token] = true
	}
}
