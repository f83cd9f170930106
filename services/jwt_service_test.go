package services

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestJWTServiceRoundTrip(t *testing.T) {
	svc := NewJWTService("secret", time.Hour)
	id := primitive.NewObjectID()

	token, err := svc.GenerateToken(id)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	got, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got != id {
		t.Fatalf("expected %s, got %s", id.Hex(), got.Hex())
	}
}

func TestJWTServiceRejects(t *testing.T) {
	id := primitive.NewObjectID()
	issuer := NewJWTService("secret", time.Hour)
	issuer.now = func() time.Time { return fixedNow.Add(-2 * time.Hour) }
	expired, err := issuer.GenerateToken(id)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	foreign, err := NewJWTService("other", time.Hour).GenerateToken(id)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: id.Hex()}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	validator := NewJWTService("secret", time.Hour)
	validator.now = func() time.Time { return fixedNow }

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"expired", expired},
		{"wrong secret", foreign},
		{"alg none", none},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := validator.ValidateToken(tt.token); !errors.Is(err, ErrUnauthenticated) {
				t.Fatalf("expected unauthenticated, got %v", err)
			}
		})
	}
}
