package vaultref

import (
	"regexp"
	"testing"
)

var hex4 = regexp.MustCompile(`^[0-9a-f]{4}$`)

func TestGenerateParseRoundTrip(t *testing.T) {
	id, err := Generate("openai", "api_key")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	ref, err := Parse(id)
	if err != nil {
		t.Fatalf("Parse(%q): %v", id, err)
	}
	if ref.Service != "openai" {
		t.Errorf("Service = %q, want openai", ref.Service)
	}
	if ref.Type != "api_key" {
		t.Errorf("Type = %q, want api_key", ref.Type)
	}
	if !hex4.MatchString(ref.Hash) {
		t.Errorf("Hash = %q, want 4 lowercase hex chars", ref.Hash)
	}
	if ref.String() != id {
		t.Errorf("String() = %q, want %q", ref.String(), id)
	}
}

func TestGenerateTypeWithUnderscore(t *testing.T) {
	id, err := Generate("google", "oauth_token")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	ref, err := Parse(id)
	if err != nil {
		t.Fatalf("Parse(%q): %v", id, err)
	}
	if ref.Type != "oauth_token" {
		t.Errorf("Type = %q, want oauth_token", ref.Type)
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"not-a-reference",
		"cred_openai_api_key",      // missing hash
		"cred_openai_api_key_zzzz", // not hex
		"cred_openai_1234",         // no type component between service and hash
		"nocred_openai_api_key_1234",
	}
	for _, c := range cases {
		if Valid(c) {
			t.Errorf("Valid(%q) = true, want false", c)
		}
		if _, err := Parse(c); err != ErrInvalidFormat {
			t.Errorf("Parse(%q) err = %v, want ErrInvalidFormat", c, err)
		}
	}
}

func TestGenerateIsNonDeterministic(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 16; i++ {
		id, err := Generate("svc", "api_key")
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		seen[id] = struct{}{}
	}
	if len(seen) < 2 {
		t.Fatalf("expected distinct ids across calls, got %d unique of 16", len(seen))
	}
}
