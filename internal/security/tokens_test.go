package security

import (
	"testing"
	"time"
)

func TestTokenProvider_IssueAndDecode(t *testing.T) {
	p := NewTokenProvider([]byte("test-signing-key"), time.Minute)

	token, exp, err := p.Issue("visa-application", "https://forms.example.gov.uk/cb")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if token == "" {
		t.Fatal("Issue returned empty token")
	}
	if exp.Before(time.Now()) {
		t.Fatal("expires at in the past")
	}

	claims, err := p.Decode(token)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if claims.Group != "visa-application" {
		t.Errorf("Group = %q, want %q", claims.Group, "visa-application")
	}
	if claims.Callback != "https://forms.example.gov.uk/cb" {
		t.Errorf("Callback = %q, want callback URL", claims.Callback)
	}
	if len(claims.User) != UserIDLength {
		t.Errorf("User length = %d, want %d", len(claims.User), UserIDLength)
	}
}

func TestTokenProvider_UserIDUniquePerToken(t *testing.T) {
	p := NewTokenProvider([]byte("test-signing-key"), time.Minute)

	t1, _, err := p.Issue("form-a", "https://a.example.com/cb")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	t2, _, err := p.Issue("form-a", "https://a.example.com/cb")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	c1, _ := p.Decode(t1)
	c2, _ := p.Decode(t2)
	if c1.User == c2.User {
		t.Errorf("user IDs should differ per token, both %q", c1.User)
	}
}

func TestTokenProvider_DecodeMalformed(t *testing.T) {
	p := NewTokenProvider([]byte("test-signing-key"), time.Minute)
	if _, err := p.Decode("not-a-token"); err != ErrInvalidToken {
		t.Errorf("Decode malformed: want ErrInvalidToken, got %v", err)
	}
}

func TestTokenProvider_DecodeWrongKey(t *testing.T) {
	p := NewTokenProvider([]byte("key-one"), time.Minute)
	other := NewTokenProvider([]byte("key-two"), time.Minute)

	token, _, err := p.Issue("form-a", "https://a.example.com/cb")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := other.Decode(token); err != ErrInvalidToken {
		t.Errorf("Decode with wrong key: want ErrInvalidToken, got %v", err)
	}
}

func TestTokenProvider_DecodeExpired(t *testing.T) {
	p := NewTokenProvider([]byte("test-signing-key"), -time.Minute)
	token, _, err := p.Issue("form-a", "https://a.example.com/cb")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := p.Decode(token); err != ErrInvalidToken {
		t.Errorf("Decode expired: want ErrInvalidToken, got %v", err)
	}
}
