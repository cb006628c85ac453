package security

import (
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHash_RoundTrip(t *testing.T) {
	h := &BcryptHash{Cost: bcrypt.MinCost}

	hash, err := h.GenerateFromPassword("Sup3r!Secret")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if hash == "Sup3r!Secret" {
		t.Fatal("hash must not equal the plaintext")
	}

	if !h.VerifyPasswd("Sup3r!Secret", hash) {
		t.Error("expected the original password to verify")
	}

	if h.VerifyPasswd("wrong-password", hash) {
		t.Error("expected a wrong password to fail")
	}
}

// The longest password the validators accept has to hash cleanly
func TestBcryptHash_HandlesMaxLengthPassword(t *testing.T) {
	h := &BcryptHash{Cost: bcrypt.MinCost}

	p := strings.Repeat("p", 72)

	hash, err := h.GenerateFromPassword(p)
	if err != nil {
		t.Fatalf("expected a 72-byte password to hash, got %v", err)
	}

	if !h.VerifyPasswd(p, hash) {
		t.Error("expected the password to verify")
	}
}

func TestBcryptHash_MalformedHash_IsMismatch(t *testing.T) {
	h := &BcryptHash{Cost: bcrypt.MinCost}

	if h.VerifyPasswd("anything", "not-a-bcrypt-hash") {
		t.Error("expected a malformed hash to fail verification")
	}
}

func testIssuer(ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte("0123456789abcdef0123456789abcdef"),
		ttl:    ttl,
	}
}

func TestTokenIssuer_IssueAndVerify(t *testing.T) {
	issuer := testIssuer(time.Hour)

	token, err := issuer.Issue("user-123", "user@example.com")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	claims, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if claims.UserID != "user-123" {
		t.Errorf("expected user-123, got %q", claims.UserID)
	}

	if claims.Email != "user@example.com" {
		t.Errorf("expected user@example.com, got %q", claims.Email)
	}
}

func TestTokenIssuer_ExpiredToken(t *testing.T) {
	issuer := testIssuer(-time.Minute)

	token, err := issuer.Issue("user-123", "user@example.com")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	_, err = issuer.Verify(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestTokenIssuer_WrongSecret(t *testing.T) {
	token, err := testIssuer(time.Hour).Issue("user-123", "user@example.com")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	other := &TokenIssuer{
		secret: []byte("ffffffffffffffffffffffffffffffff"),
		ttl:    time.Hour,
	}

	_, err = other.Verify(token)
	if !errors.Is(err, ErrTokenSignature) {
		t.Errorf("expected ErrTokenSignature, got %v", err)
	}
}

func TestTokenIssuer_MalformedToken(t *testing.T) {
	_, err := testIssuer(time.Hour).Verify("definitely.not.a-jwt")
	if !errors.Is(err, ErrTokenMalformed) {
		t.Errorf("expected ErrTokenMalformed, got %v", err)
	}
}

func TestMakeResetToken(t *testing.T) {
	token, expiresAt, err := MakeResetToken()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(token) != 64 {
		t.Errorf("expected a 64 char hex token, got %d chars", len(token))
	}

	if !expiresAt.After(time.Now()) {
		t.Error("expected the expiry to be in the future")
	}

	second, _, err := MakeResetToken()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if token == second {
		t.Error("expected each token to be unique")
	}
}
