// Package orchestrator runs one voice conversation end to end: it owns the
// turn loop, feeds user utterances to the model, dispatches the tool calls
// the model requests and persists the audit trail. Turns arrive over a
// channel so the transport layer only ever pushes utterances and reads
// replies.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "github.com/Satyam6024/superbryn-agent/agent/contract"
	"github.com/Satyam6024/superbryn-agent/agent/llm"
	modelx "github.com/Satyam6024/superbryn-agent/agent/model"
	toolx "github.com/Satyam6024/superbryn-agent/agent/tool"
)

type Config struct {
	AgentName         string `envconfig:"AGENT_NAME" split_words:"true" default:"Bryn"`
	MaxTurns          int    `envconfig:"MAX_TURNS" split_words:"true" default:"50"`
	MaxToolIterations int    `envconfig:"MAX_TOOL_ITERATIONS" split_words:"true" default:"5"`
	MaxTokens         int    `envconfig:"MAX_TOKENS" split_words:"true" default:"1024"`
}

// TranscriptEntry is one spoken line pushed to the transcript hook.
type TranscriptEntry struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Hooks are optional frontend callbacks. Each is invoked synchronously from
// the session goroutine; panics are contained so a broken callback never
// kills the call.
type Hooks struct {
	OnToolCall   func(display map[string]any)
	OnTranscript func(entry TranscriptEntry)
	Speak        func(text string)
}

// Session drives one conversation. Create with NewSession, feed utterances
// with HandleUserTurn (or the Turns channel via Run) and close with End.
// Turn handling is serialized: concurrent callers queue behind the session
// mutex, so history, counters and the conversation state see one turn at a
// time even when the transport delivers turns from multiple goroutines.
type Session struct {
	ID string

	mu         sync.Mutex
	cfg        Config
	chain      *llm.Chain
	tools      *toolx.Tools
	store      contractx.Store
	summarizer *llm.Summarizer
	hooks      Hooks

	history      []llm.Message
	toolCallLogs []*modelx.ToolCallLog
	turnCount    int
	startedAt    time.Time
	active       bool

	turns chan string
}

func NewSession(cfg Config, chain *llm.Chain, tools *toolx.Tools, store contractx.Store, hooks Hooks, timezone string) *Session {
	s := &Session{
		ID:         uuid.NewString(),
		cfg:        cfg,
		chain:      chain,
		tools:      tools,
		store:      store,
		summarizer: llm.NewSummarizer(chain),
		hooks:      hooks,
		startedAt:  time.Now().UTC(),
		active:     true,
		turns:      make(chan string, 1),
	}
	tools.InitConversation(s.ID, timezone)
	return s
}

// Turns is the inbound utterance channel consumed by Run. Closing it ends
// the session.
func (s *Session) Turns() chan<- string {
	return s.turns
}

// Run consumes the turn channel until it closes, the context is cancelled,
// the model ends the conversation or the turn cap is hit. It speaks the
// greeting first and always finishes with a summary.
func (s *Session) Run(ctx context.Context) error {
	s.store.LogEvent(ctx, &modelx.EventLog{
		SessionID: s.ID,
		EventType: "conversation_started",
		EventData: map[string]any{"agent_name": s.cfg.AgentName},
	})
	s.speak(s.Greeting())

	for {
		select {
		case <-ctx.Done():
			s.End(context.WithoutCancel(ctx))
			return ctx.Err()
		case utterance, ok := <-s.turns:
			if !ok {
				s.End(ctx)
				return nil
			}
			reply, err := s.HandleUserTurn(ctx, utterance)
			if err != nil {
				log.Error().Err(err).Str("session_id", s.ID).Msg("turn failed")
				s.speak("I'm sorry, I'm having trouble right now. Could you say that again?")
				continue
			}
			s.speak(reply)

			s.mu.Lock()
			done := s.tools.State().ShouldEnd || s.turnCount >= s.cfg.MaxTurns
			s.mu.Unlock()
			if done {
				s.End(ctx)
				return nil
			}
		}
	}
}

// ShouldEnd reports whether the model has asked to close the conversation.
func (s *Session) ShouldEnd() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tools.State().ShouldEnd
}

// Greeting picks the opening line based on whether the caller is already
// identified.
func (s *Session) Greeting() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.tools.State()
	switch {
	case state.UserName != "":
		return fmt.Sprintf("Hi %s! Welcome back. How can I help you today?", state.UserName)
	case state.Identified:
		return "Welcome back! How can I help you today?"
	}
	return fmt.Sprintf("Hi, I'm %s! I can help you book, check, or manage your appointments. How can I assist you today?", s.cfg.AgentName)
}

// HandleUserTurn runs one request/response cycle: completion, bounded tool
// iterations, final text.
func (s *Session) HandleUserTurn(ctx context.Context, utterance string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return "", fmt.Errorf("session %s is closed", s.ID)
	}

	s.turnCount++
	s.transcript("user", utterance)
	s.history = append(s.history, llm.Message{Role: llm.RoleUser, Content: utterance})

	state := s.tools.State()
	system := llm.BuildSystemPrompt(llm.PromptContext{
		AgentName:       s.cfg.AgentName,
		IsReturningUser: state.Identified,
		UserName:        state.UserName,
	})

	for i := 0; i < s.cfg.MaxToolIterations; i++ {
		completion, err := s.chain.Complete(ctx, llm.Request{
			System:    system,
			Messages:  s.history,
			Tools:     toolx.Infos(),
			MaxTokens: s.cfg.MaxTokens,
		})
		if err != nil {
			return "", err
		}

		if len(completion.ToolCalls) == 0 {
			s.history = append(s.history, llm.Message{Role: llm.RoleAssistant, Content: completion.Content})
			return completion.Content, nil
		}

		s.history = append(s.history, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   completion.Content,
			ToolCalls: completion.ToolCalls,
		})

		for _, tc := range completion.ToolCalls {
			result := s.dispatchToolCall(ctx, tc)
			s.history = append(s.history, llm.Message{
				Role:       llm.RoleTool,
				Content:    result.Verbal,
				ToolCallID: tc.ID,
			})
		}
	}

	// Iteration cap reached; surface the last verbal result instead of
	// looping further.
	last := s.history[len(s.history)-1]
	log.Warn().Str("session_id", s.ID).Msg("tool iteration cap reached")
	return last.Content, nil
}

// dispatchToolCall executes one model-requested tool, records the audit log
// entry and notifies the frontend.
func (s *Session) dispatchToolCall(ctx context.Context, tc llm.RawToolCall) contractx.ToolResult {
	start := time.Now()
	result := s.tools.ExecuteRaw(ctx, tc.Name, []byte(tc.Arguments))
	durationMS := time.Since(start).Milliseconds()

	var params map[string]any
	if err := json.Unmarshal([]byte(tc.Arguments), &params); err != nil {
		params = map[string]any{"raw": tc.Arguments}
	}

	entry := &modelx.ToolCallLog{
		SessionID:    s.ID,
		ToolName:     tc.Name,
		Parameters:   params,
		Result:       result.Data,
		Success:      result.Success,
		ErrorMessage: result.Error,
		DurationMS:   durationMS,
		Timestamp:    time.Now().UTC(),
	}
	s.toolCallLogs = append(s.toolCallLogs, entry)
	s.store.LogToolCall(ctx, entry)

	if s.hooks.OnToolCall != nil {
		s.guarded("tool call hook", func() {
			s.hooks.OnToolCall(entry.DisplayDict(false))
		})
	}

	log.Info().
		Str("session_id", s.ID).
		Str("tool", tc.Name).
		Bool("success", result.Success).
		Int64("duration_ms", durationMS).
		Msg("tool executed")
	return result
}

// End closes the session: logs the end event, generates and persists the
// summary. Safe to call more than once.
func (s *Session) End(ctx context.Context) *modelx.ConversationSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return nil
	}
	s.active = false

	s.store.LogEvent(ctx, &modelx.EventLog{
		SessionID: s.ID,
		EventType: "conversation_ended",
		EventData: map[string]any{"reason": "normal_end"},
	})

	state := s.tools.State()
	data := s.summarizer.Summarize(ctx, s.history, llm.SummaryStats{
		ToolCalls: len(s.toolCallLogs),
		Booked:    len(state.Booked),
		Modified:  len(state.Modified),
		Cancelled: len(state.Cancelled),
	})

	now := time.Now().UTC()
	summary := &modelx.ConversationSummary{
		SessionID:             s.ID,
		UserPhone:             state.UserPhone,
		UserName:              state.UserName,
		SummaryText:           data.Summary,
		KeyPoints:             data.KeyPoints,
		AppointmentsBooked:    state.Booked,
		AppointmentsModified:  state.Modified,
		AppointmentsCancelled: state.Cancelled,
		UserPreferences:       data.Preferences,
		TotalTurns:            s.turnCount,
		TotalToolCalls:        len(s.toolCallLogs),
		DurationSeconds:       int(now.Sub(s.startedAt).Seconds()),
		StartedAt:             s.startedAt,
		EndedAt:               now,
	}
	s.store.SaveConversationSummary(ctx, summary)

	log.Info().
		Str("session_id", s.ID).
		Int("turns", s.turnCount).
		Int("tool_calls", len(s.toolCallLogs)).
		Msg("session ended")
	return summary
}

func (s *Session) speak(text string) {
	if text == "" {
		return
	}
	s.transcript("assistant", text)
	if s.hooks.Speak != nil {
		s.guarded("speak hook", func() {
			s.hooks.Speak(text)
		})
	}
}

func (s *Session) transcript(role, content string) {
	if s.hooks.OnTranscript == nil {
		return
	}
	s.guarded("transcript hook", func() {
		s.hooks.OnTranscript(TranscriptEntry{
			Role:      role,
			Content:   content,
			Timestamp: time.Now().UTC(),
		})
	})
}

// guarded runs a hook, containing panics.
func (s *Session) guarded(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Any("panic", r).Str("hook", name).Str("session_id", s.ID).Msg("hook panicked")
		}
	}()
	fn()
}
