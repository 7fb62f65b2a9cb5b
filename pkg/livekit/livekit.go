// Package livekit mints room access tokens for the voice transport. Tokens
// are standard HS256 JWTs carrying a video grant, signed with the project's
// API secret.
package livekit

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Config struct {
	URL       string        `envconfig:"URL" required:"true"`
	APIKey    string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	APISecret string        `envconfig:"API_SECRET" split_words:"true" required:"true"`
	TokenTTL  time.Duration `envconfig:"TOKEN_TTL" split_words:"true" default:"6h"`
}

// VideoGrant is the room permission block embedded in the token.
type VideoGrant struct {
	RoomJoin       bool   `json:"roomJoin"`
	Room           string `json:"room"`
	CanPublish     bool   `json:"canPublish"`
	CanSubscribe   bool   `json:"canSubscribe"`
	CanPublishData bool   `json:"canPublishData"`
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Name  string     `json:"name,omitempty"`
	Video VideoGrant `json:"video"`
}

type Client struct {
	cfg Config
}

func New(cfg Config) *Client {
	return &Client{cfg: cfg}
}

func (c *Client) URL() string {
	return c.cfg.URL
}

// MintToken issues a join token for one participant in one room, with full
// publish and subscribe permissions.
func (c *Client) MintToken(room, identity string) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.cfg.APIKey,
			Subject:   identity,
			ExpiresAt: jwt.NewNumericDate(now.Add(c.cfg.TokenTTL)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Name: identity,
		Video: VideoGrant{
			RoomJoin:       true,
			Room:           room,
			CanPublish:     true,
			CanSubscribe:   true,
			CanPublishData: true,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(c.cfg.APISecret))
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}
