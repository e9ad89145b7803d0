package middleware

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"KaziAI/pkg/config"
	tokenstore "KaziAI/pkg/token"
)

func signToken(t *testing.T, sub, jti string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": sub,
		"exp": time.Now().Add(time.Hour).Unix(),
		"jti": jti,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(config.JWTSecret))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestParseTokenRoundTrip(t *testing.T) {
	jti := uuid.NewString()
	uid, gotJTI, err := ParseToken(signToken(t, "42", jti))
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if uid != 42 || gotJTI != jti {
		t.Fatalf("got uid=%d jti=%q", uid, gotJTI)
	}
}

func TestParseTokenRejectsRevoked(t *testing.T) {
	jti := uuid.NewString()
	tok := signToken(t, "42", jti)
	tokenstore.Revoke(jti, time.Now().Add(time.Hour))
	if _, _, err := ParseToken(tok); err == nil {
		t.Fatal("expected revoked token to fail")
	}
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	if _, _, err := ParseToken("not-a-token"); err == nil {
		t.Fatal("expected parse failure")
	}
}
