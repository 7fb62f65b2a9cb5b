package avatar

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Conversation-driven avatar states.
const (
	StateIdle      = "idle"
	StateListening = "listening"
	StateThinking  = "thinking"
	StateSpeaking  = "speaking"
)

var validStates = map[string]bool{
	StateIdle:      true,
	StateListening: true,
	StateThinking:  true,
	StateSpeaking:  true,
}

// StateGuard serializes avatar state transitions and drops stale ones. Each
// transition gets a monotonic sequence number; a commit only applies when no
// newer transition has landed in the meantime, so a slow API call can never
// clobber a fresher state.
type StateGuard struct {
	client    *Client
	sessionID string

	mu      sync.Mutex
	seq     uint64
	applied uint64
	current string
}

func NewStateGuard(client *Client, sessionID string) *StateGuard {
	return &StateGuard{
		client:    client,
		sessionID: sessionID,
		current:   StateIdle,
	}
}

func (g *StateGuard) Current() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current
}

// TransitionTo moves the avatar to a new state. No-op when already there or
// when the state name is unknown.
func (g *StateGuard) TransitionTo(ctx context.Context, state string) bool {
	if !validStates[state] {
		log.Warn().Str("state", state).Msg("invalid avatar state")
		return false
	}

	g.mu.Lock()
	if state == g.current {
		g.mu.Unlock()
		return true
	}
	g.seq++
	seq := g.seq
	g.mu.Unlock()

	if err := g.client.SetState(ctx, g.sessionID, state); err != nil {
		log.Warn().Err(err).Str("state", state).Msg("avatar state transition failed")
		return false
	}
	return g.commit(seq, state)
}

// commit records a completed transition, discarding it when a newer one has
// already been applied.
func (g *StateGuard) commit(seq uint64, state string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if seq < g.applied {
		log.Debug().Str("state", state).Msg("stale avatar transition dropped")
		return false
	}
	g.applied = seq
	g.current = state
	return true
}

func (g *StateGuard) OnUserSpeaking(ctx context.Context)  { g.TransitionTo(ctx, StateListening) }
func (g *StateGuard) OnUserStopped(ctx context.Context)   { g.TransitionTo(ctx, StateThinking) }
func (g *StateGuard) OnAgentSpeaking(ctx context.Context) { g.TransitionTo(ctx, StateSpeaking) }
func (g *StateGuard) OnAgentStopped(ctx context.Context)  { g.TransitionTo(ctx, StateIdle) }
func (g *StateGuard) OnToolCall(ctx context.Context)      { g.TransitionTo(ctx, StateThinking) }
