// Package avatar drives the Beyond Presence rendered-avatar API: session
// lifecycle, expressions and the conversational state machine shown while
// the assistant listens, thinks and speaks.
package avatar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	APIKey   string        `envconfig:"API_KEY" split_words:"true"`
	AvatarID string        `envconfig:"AVATAR_ID" split_words:"true" default:"default"`
	BaseURL  string        `envconfig:"BASE_URL" split_words:"true" default:"https://api.beyondpresence.ai/v1"`
	Timeout  time.Duration `envconfig:"TIMEOUT" default:"30s"`
}

// Session is the live avatar session handle returned by CreateSession.
type Session struct {
	SessionID string `json:"session_id"`
	StreamURL string `json:"stream_url,omitempty"`
	AvatarID  string `json:"avatar_id"`
}

type Client struct {
	cfg  Config
	http *http.Client
}

func New(cfg Config) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// CreateSession starts an avatar render session bound to a room. On API
// failure it degrades to a stream-less demo session rather than blocking
// the call.
func (c *Client) CreateSession(ctx context.Context, roomName string) (*Session, error) {
	payload := map[string]any{
		"avatar_id": c.cfg.AvatarID,
		"room_name": roomName,
		"settings": map[string]any{
			"resolution": "720p",
			"fps":        30,
			"quality":    "high",
			"background": "transparent",
		},
	}

	var resp struct {
		SessionID string `json:"session_id"`
		StreamURL string `json:"stream_url"`
	}
	if err := c.post(ctx, "/sessions", payload, &resp); err != nil {
		log.Error().Err(err).Str("room", roomName).Msg("failed to create avatar session")
		return &Session{
			SessionID: "demo-" + roomName,
			AvatarID:  c.cfg.AvatarID,
		}, nil
	}

	log.Info().Str("session_id", resp.SessionID).Msg("avatar session created")
	return &Session{
		SessionID: resp.SessionID,
		StreamURL: resp.StreamURL,
		AvatarID:  c.cfg.AvatarID,
	}, nil
}

// SetExpression switches the avatar's facial expression (neutral, happy,
// thinking, ...).
func (c *Client) SetExpression(ctx context.Context, sessionID, expression string) error {
	return c.post(ctx, "/sessions/"+sessionID+"/expression", map[string]any{"expression": expression}, nil)
}

// SetState switches the avatar's animation state (idle, listening, thinking,
// speaking).
func (c *Client) SetState(ctx context.Context, sessionID, state string) error {
	return c.post(ctx, "/sessions/"+sessionID+"/state", map[string]any{"state": state}, nil)
}

func (c *Client) EndSession(ctx context.Context, sessionID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.cfg.BaseURL+"/sessions/"+sessionID, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("end avatar session: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("end avatar session: status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("avatar api %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("avatar api %s: status %d", path, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("avatar api %s: decode: %w", path, err)
		}
	}
	return nil
}
