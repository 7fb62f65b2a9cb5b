package livekit

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestMintToken(t *testing.T) {
	t.Parallel()

	client := New(Config{
		URL:       "wss://example.livekit.cloud",
		APIKey:    "api-key",
		APISecret: "super-secret",
		TokenTTL:  2 * time.Hour,
	})

	signed, err := client.MintToken("room-42", "caller-1")
	if err != nil {
		t.Fatalf("MintToken() error = %v", err)
	}

	claims := &tokenClaims{}
	parsed, err := jwt.ParseWithClaims(signed, claims, func(token *jwt.Token) (any, error) {
		return []byte("super-secret"), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		t.Fatalf("token does not verify: %v", err)
	}
	if !parsed.Valid {
		t.Fatal("token invalid")
	}

	if claims.Issuer != "api-key" {
		t.Fatalf("issuer = %q", claims.Issuer)
	}
	if claims.Subject != "caller-1" || claims.Name != "caller-1" {
		t.Fatalf("identity not carried: sub=%q name=%q", claims.Subject, claims.Name)
	}
	if !claims.Video.RoomJoin || claims.Video.Room != "room-42" {
		t.Fatalf("unexpected grant: %+v", claims.Video)
	}
	if !claims.Video.CanPublish || !claims.Video.CanSubscribe || !claims.Video.CanPublishData {
		t.Fatalf("permissions missing: %+v", claims.Video)
	}

	ttl := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	if ttl != 2*time.Hour {
		t.Fatalf("ttl = %v", ttl)
	}
}

func TestMintTokenWrongSecretFailsVerification(t *testing.T) {
	t.Parallel()

	client := New(Config{APIKey: "k", APISecret: "right", TokenTTL: time.Hour})
	signed, err := client.MintToken("room", "id")
	if err != nil {
		t.Fatalf("MintToken() error = %v", err)
	}

	_, err = jwt.ParseWithClaims(signed, &tokenClaims{}, func(*jwt.Token) (any, error) {
		return []byte("wrong"), nil
	})
	if err == nil {
		t.Fatal("expected verification failure with wrong secret")
	}
}
