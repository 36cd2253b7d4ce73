package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/atinyakov/NoteKeeper/internal/models"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	m := NewTokenManager("0123456789abcdef", 30*24*time.Hour)
	token, err := m.Issue(models.User{ID: 42, Username: "alice"})
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	claims, err := m.Parse(token)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if claims.UserID != 42 || claims.Username != "alice" {
		t.Errorf("claims = %+v", claims)
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != 30*24*time.Hour {
		t.Errorf("token lifetime = %v; want 720h", got)
	}
}

func TestTokenManager_Rejects(t *testing.T) {
	m := NewTokenManager("0123456789abcdef", time.Hour)
	valid, err := m.Issue(models.User{ID: 1, Username: "alice"})
	if err != nil {
		t.Fatal(err)
	}

	expired := NewTokenManager("0123456789abcdef", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := expired.Issue(models.User{ID: 1, Username: "alice"})
	if err != nil {
		t.Fatal(err)
	}

	other, err := NewTokenManager("another-secret-value", time.Hour).Issue(models.User{ID: 1, Username: "alice"})
	if err != nil {
		t.Fatal(err)
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Username: "alice"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}

	noName, err := m.Issue(models.User{ID: 1})
	if err != nil {
		t.Fatal(err)
	}

	parts := strings.Split(valid, ".")
	forged := strings.Split(noName, ".")
	tampered := parts[0] + "." + forged[1] + "." + parts[2]

	tests := map[string]string{
		"garbage":       "not-a-token",
		"tampered":      tampered,
		"expired":       old,
		"wrong secret":  other,
		"alg none":      none,
		"empty subject": noName,
		"empty":         "",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := m.Parse(token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Parse error = %v; want ErrInvalidToken", err)
			}
		})
	}
}
