package models

import "testing"

func TestGenerateTokenIsRandom(t *testing.T) {
	a, err := generateToken(DefaultTokenLength)
	if err != nil {
		t.Fatalf("generateToken: %v", err)
	}
	b, err := generateToken(DefaultTokenLength)
	if err != nil {
		t.Fatalf("generateToken: %v", err)
	}

	if a == b {
		t.Error("two generated tokens were identical")
	}
	if len(a) == 0 {
		t.Error("generated token is empty")
	}
}

func TestHashTokenDeterministic(t *testing.T) {
	token, err := generateToken(DefaultTokenLength)
	if err != nil {
		t.Fatalf("generateToken: %v", err)
	}

	h1 := hashToken(token)
	h2 := hashToken(token)
	if h1 != h2 {
		t.Error("hashing the same token gave different results")
	}
	if h1 == token {
		t.Error("hash equals the raw token; raw tokens must never be stored")
	}

	other := hashToken(token + "x")
	if other == h1 {
		t.Error("different tokens hashed to the same value")
	}
}
