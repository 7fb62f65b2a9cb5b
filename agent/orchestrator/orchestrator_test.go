package orchestrator

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	contractx "github.com/Satyam6024/superbryn-agent/agent/contract"
	"github.com/Satyam6024/superbryn-agent/agent/llm"
	modelx "github.com/Satyam6024/superbryn-agent/agent/model"
	schedulex "github.com/Satyam6024/superbryn-agent/agent/schedule"
)

// recordingStore is a minimal in-memory Store that records what the session
// persists.
type recordingStore struct {
	users     map[string]*modelx.User
	toolLogs  []*modelx.ToolCallLog
	events    []*modelx.EventLog
	summaries []*modelx.ConversationSummary
}

func newRecordingStore() *recordingStore {
	return &recordingStore{users: make(map[string]*modelx.User)}
}

func (r *recordingStore) GetUserByPhone(_ context.Context, phone string) (*modelx.User, error) {
	return r.users[phone], nil
}

func (r *recordingStore) CreateOrUpdateUser(_ context.Context, phone, name string) (*modelx.User, error) {
	u := &modelx.User{PhoneNumber: phone, Name: name}
	r.users[phone] = u
	return u, nil
}

func (r *recordingStore) GetAppointmentsByPhone(context.Context, string, modelx.AppointmentStatus, bool) ([]modelx.Appointment, error) {
	return nil, nil
}

func (r *recordingStore) GetAppointmentByID(context.Context, string) (*modelx.Appointment, error) {
	return nil, nil
}

func (r *recordingStore) BookedSlots(context.Context) ([]modelx.SlotKey, error) {
	return nil, nil
}

func (r *recordingStore) CheckSlotAvailable(context.Context, string, string) (bool, error) {
	return true, nil
}

func (r *recordingStore) CreateAppointment(_ context.Context, apt *modelx.Appointment) (*modelx.Appointment, error) {
	apt.ID = "apt-1"
	return apt, nil
}

func (r *recordingStore) CancelAppointment(context.Context, string) (*modelx.Appointment, error) {
	return nil, contractx.ErrNotFound
}

func (r *recordingStore) ModifyAppointment(context.Context, string, string, string) (*modelx.Appointment, error) {
	return nil, contractx.ErrNotFound
}

func (r *recordingStore) LogToolCall(_ context.Context, entry *modelx.ToolCallLog) {
	r.toolLogs = append(r.toolLogs, entry)
}

func (r *recordingStore) LogEvent(_ context.Context, event *modelx.EventLog) {
	r.events = append(r.events, event)
}

func (r *recordingStore) SaveConversationSummary(_ context.Context, summary *modelx.ConversationSummary) {
	r.summaries = append(r.summaries, summary)
}

func (r *recordingStore) GetConversationHistory(context.Context, string, int) ([]modelx.ConversationSummary, error) {
	return nil, nil
}

func (r *recordingStore) GetAllAppointments(context.Context, int, int) ([]modelx.Appointment, error) {
	return nil, nil
}

func (r *recordingStore) CountAppointments(context.Context) (int, error) { return 0, nil }

func (r *recordingStore) CountAppointmentsByStatus(context.Context) (map[string]int, error) {
	return nil, nil
}

var _ contractx.Store = (*recordingStore)(nil)

// scriptedProvider replays completions in order.
type scriptedProvider struct {
	completions []*llm.Completion
	idx         int
}

func (s *scriptedProvider) Name() string { return "scripted" }

func (s *scriptedProvider) Complete(context.Context, llm.Request) (*llm.Completion, error) {
	if s.idx >= len(s.completions) {
		return &llm.Completion{Content: "anything else?"}, nil
	}
	c := s.completions[s.idx]
	s.idx++
	return c, nil
}

func newTestFactory(store contractx.Store, provider llm.Provider) *Factory {
	gen := schedulex.NewGenerator(schedulex.Config{
		BusinessHoursStart:  8,
		BusinessHoursEnd:    20,
		BusinessDays:        []int{0, 1, 2, 3, 4, 5},
		BookingAdvanceDays:  30,
		SlotDurationMinutes: 30,
	}).WithClock(func() time.Time {
		return time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	})

	cfg := Config{AgentName: "Bryn", MaxTurns: 50, MaxToolIterations: 5, MaxTokens: 512}
	return NewFactory(cfg, llm.NewChainOf(provider), store, gen)
}

func newTestSession(store contractx.Store, provider llm.Provider, hooks Hooks) *Session {
	return newTestFactory(store, provider).NewSession(hooks, "UTC")
}

func TestGreetingForAnonymousCaller(t *testing.T) {
	t.Parallel()

	session := newTestSession(newRecordingStore(), &scriptedProvider{}, Hooks{})
	got := session.Greeting()
	if !strings.Contains(got, "Hi, I'm Bryn!") {
		t.Fatalf("unexpected greeting: %q", got)
	}
}

func TestHandleUserTurnPlainText(t *testing.T) {
	t.Parallel()

	provider := &scriptedProvider{completions: []*llm.Completion{
		{Content: "Sure, what day works for you?"},
	}}
	session := newTestSession(newRecordingStore(), provider, Hooks{})

	reply, err := session.HandleUserTurn(context.Background(), "I'd like to book something")
	if err != nil {
		t.Fatalf("HandleUserTurn() error = %v", err)
	}
	if reply != "Sure, what day works for you?" {
		t.Fatalf("unexpected reply: %q", reply)
	}
}

func TestHandleUserTurnDispatchesToolCalls(t *testing.T) {
	t.Parallel()

	store := newRecordingStore()
	provider := &scriptedProvider{completions: []*llm.Completion{
		{ToolCalls: []llm.RawToolCall{{
			ID:        "call-1",
			Name:      "identify_user",
			Arguments: `{"phone_number":"5551234567"}`,
		}}},
		{Content: "Got it, you're all set."},
	}}

	var toolCallDisplays []map[string]any
	session := newTestSession(store, provider, Hooks{
		OnToolCall: func(d map[string]any) { toolCallDisplays = append(toolCallDisplays, d) },
	})

	reply, err := session.HandleUserTurn(context.Background(), "my number is 555-123-4567")
	if err != nil {
		t.Fatalf("HandleUserTurn() error = %v", err)
	}
	if reply != "Got it, you're all set." {
		t.Fatalf("unexpected reply: %q", reply)
	}

	if len(store.toolLogs) != 1 {
		t.Fatalf("expected 1 tool log, got %d", len(store.toolLogs))
	}
	entry := store.toolLogs[0]
	if entry.ToolName != "identify_user" || !entry.Success {
		t.Fatalf("unexpected tool log: %+v", entry)
	}
	if entry.Parameters["phone_number"] != "5551234567" {
		t.Fatalf("unexpected logged params: %+v", entry.Parameters)
	}

	if len(toolCallDisplays) != 1 {
		t.Fatalf("expected 1 tool call hook invocation, got %d", len(toolCallDisplays))
	}
	if toolCallDisplays[0]["action"] != "Identifying user" {
		t.Fatalf("unexpected display: %+v", toolCallDisplays[0])
	}
}

func TestHandleUserTurnHookPanicContained(t *testing.T) {
	t.Parallel()

	provider := &scriptedProvider{completions: []*llm.Completion{
		{ToolCalls: []llm.RawToolCall{{ID: "c1", Name: "end_conversation", Arguments: `{}`}}},
		{Content: "Bye."},
	}}
	session := newTestSession(newRecordingStore(), provider, Hooks{
		OnToolCall: func(map[string]any) { panic("broken frontend") },
	})

	if _, err := session.HandleUserTurn(context.Background(), "goodbye"); err != nil {
		t.Fatalf("hook panic escaped: %v", err)
	}
}

func TestEndPersistsSummary(t *testing.T) {
	t.Parallel()

	store := newRecordingStore()
	provider := &scriptedProvider{completions: []*llm.Completion{
		{ToolCalls: []llm.RawToolCall{{
			ID:        "c1",
			Name:      "book_appointment",
			Arguments: `{"date":"2024-01-03","time":"10:00","purpose":"checkup"}`,
		}}},
		{Content: "Booked!"},
		// Summarizer call.
		{Content: `{"summary":"Booked a checkup.","key_points":["booked"],"preferences":{}}`},
	}}
	session := newTestSession(store, provider, Hooks{})

	// Identify directly so the booking tool call succeeds.
	session.tools.IdentifyUser(context.Background(), "5551234567")

	if _, err := session.HandleUserTurn(context.Background(), "book me wednesday at ten"); err != nil {
		t.Fatalf("HandleUserTurn() error = %v", err)
	}

	summary := session.End(context.Background())
	if summary == nil {
		t.Fatal("expected summary")
	}
	if summary.SummaryText != "Booked a checkup." {
		t.Fatalf("unexpected summary text: %q", summary.SummaryText)
	}
	if len(summary.AppointmentsBooked) != 1 {
		t.Fatalf("expected 1 booked record, got %+v", summary.AppointmentsBooked)
	}
	if summary.TotalToolCalls != 1 {
		t.Fatalf("unexpected tool call count: %d", summary.TotalToolCalls)
	}
	if len(store.summaries) != 1 {
		t.Fatalf("summary not persisted: %d", len(store.summaries))
	}

	// Second End is a no-op.
	if again := session.End(context.Background()); again != nil {
		t.Fatal("End() should be idempotent")
	}
}

func TestConcurrentTurnsSerialized(t *testing.T) {
	t.Parallel()

	store := newRecordingStore()
	session := newTestSession(store, &scriptedProvider{}, Hooks{})

	const turns = 8
	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := session.HandleUserTurn(context.Background(), "hello"); err != nil {
				t.Errorf("HandleUserTurn() error = %v", err)
			}
		}()
	}
	wg.Wait()

	summary := session.End(context.Background())
	if summary == nil {
		t.Fatal("expected summary")
	}
	if summary.TotalTurns != turns {
		t.Fatalf("turn count = %d, want %d", summary.TotalTurns, turns)
	}
	// Each turn appends exactly one user and one assistant message.
	if got := len(session.history); got != turns*2 {
		t.Fatalf("history length = %d, want %d", got, turns*2)
	}
}

func TestTurnAfterEndFails(t *testing.T) {
	t.Parallel()

	session := newTestSession(newRecordingStore(), &scriptedProvider{}, Hooks{})
	session.End(context.Background())

	if _, err := session.HandleUserTurn(context.Background(), "hello?"); err == nil {
		t.Fatal("expected error on closed session")
	}
}

func TestRunConsumesTurnChannel(t *testing.T) {
	t.Parallel()

	provider := &scriptedProvider{completions: []*llm.Completion{
		{Content: "Happy to help."},
		// Summarizer call after channel close.
		{Content: `{"summary":"Short call.","key_points":[],"preferences":{}}`},
	}}
	store := newRecordingStore()

	var spoken []string
	session := newTestSession(store, provider, Hooks{
		Speak: func(text string) { spoken = append(spoken, text) },
	})

	done := make(chan error, 1)
	go func() { done <- session.Run(context.Background()) }()

	session.Turns() <- "hello"
	close(session.turns)

	if err := <-done; err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(spoken) < 2 {
		t.Fatalf("expected greeting plus reply, got %+v", spoken)
	}
	if !strings.Contains(spoken[0], "Hi, I'm Bryn!") {
		t.Fatalf("first utterance should be greeting: %q", spoken[0])
	}
	if spoken[1] != "Happy to help." {
		t.Fatalf("unexpected reply: %q", spoken[1])
	}
	if len(store.summaries) != 1 {
		t.Fatal("session did not persist summary on close")
	}
}
