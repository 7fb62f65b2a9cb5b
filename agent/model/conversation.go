package model

import (
	"time"

	"github.com/uptrace/bun"
)

// ToolCallLog is an append-only audit record of one tool invocation.
type ToolCallLog struct {
	bun.BaseModel `bun:"table:tool_call_logs" json:"-"`

	ID           int64          `bun:"id,pk,autoincrement" json:"id,omitempty"`
	SessionID    string         `bun:"session_id" json:"session_id"`
	ToolName     string         `bun:"tool_name" json:"tool_name"`
	Parameters   map[string]any `bun:"parameters,type:jsonb" json:"parameters"`
	Result       any            `bun:"result,type:jsonb" json:"result,omitempty"`
	Success      bool           `bun:"success" json:"success"`
	ErrorMessage string         `bun:"error_message,nullzero" json:"error_message,omitempty"`
	DurationMS   int64          `bun:"duration_ms" json:"duration_ms"`
	Timestamp    time.Time      `bun:"timestamp" json:"timestamp"`
}

var friendlyToolNames = map[string]string{
	"identify_user":         "Identifying user",
	"fetch_slots":           "Checking available slots",
	"book_appointment":      "Booking appointment",
	"retrieve_appointments": "Fetching appointments",
	"cancel_appointment":    "Cancelling appointment",
	"modify_appointment":    "Modifying appointment",
	"end_conversation":      "Ending conversation",
}

// DisplayDict projects the log entry for a frontend. The technical form keeps
// raw parameters and results; the default form is user-facing.
func (l *ToolCallLog) DisplayDict(technical bool) map[string]any {
	if technical {
		return map[string]any{
			"tool":        l.ToolName,
			"params":      l.Parameters,
			"result":      l.Result,
			"success":     l.Success,
			"duration_ms": l.DurationMS,
			"timestamp":   l.Timestamp.Format(time.RFC3339),
		}
	}

	friendly, ok := friendlyToolNames[l.ToolName]
	if !ok {
		friendly = l.ToolName
	}
	status := "completed"
	if !l.Success {
		status = "failed"
	}

	return map[string]any{
		"action":    friendly,
		"status":    status,
		"details":   l.friendlyDetails(),
		"timestamp": l.Timestamp.Format(time.RFC3339),
	}
}

func (l *ToolCallLog) friendlyDetails() string {
	switch {
	case l.ToolName == "book_appointment" && l.Success:
		date, _ := l.Parameters["date"].(string)
		tm, _ := l.Parameters["time"].(string)
		return "Booked for " + date + " at " + tm
	case l.ToolName == "cancel_appointment" && l.Success:
		return "Appointment cancelled"
	case l.ToolName == "identify_user" && l.Success:
		return "User identified"
	case !l.Success:
		if l.ErrorMessage != "" {
			return l.ErrorMessage
		}
		return "Action failed"
	}
	return ""
}

// EventLog is an append-only record of a notable session event.
type EventLog struct {
	bun.BaseModel `bun:"table:event_logs" json:"-"`

	ID        int64          `bun:"id,pk,autoincrement" json:"id,omitempty"`
	SessionID string         `bun:"session_id" json:"session_id"`
	EventType string         `bun:"event_type" json:"event_type"`
	EventData map[string]any `bun:"event_data,type:jsonb" json:"event_data"`
	Severity  string         `bun:"severity" json:"severity"`
	Timestamp time.Time      `bun:"timestamp" json:"timestamp"`
}

// ConversationSummary is written once when a call ends.
type ConversationSummary struct {
	bun.BaseModel `bun:"table:conversation_summaries" json:"-"`

	ID        int64  `bun:"id,pk,autoincrement" json:"id,omitempty"`
	SessionID string `bun:"session_id" json:"session_id"`
	UserPhone string `bun:"user_phone,nullzero" json:"user_phone,omitempty"`
	UserName  string `bun:"user_name,nullzero" json:"user_name,omitempty"`

	SummaryText           string               `bun:"summary_text" json:"summary_text"`
	KeyPoints             []string             `bun:"key_points,type:jsonb" json:"key_points"`
	AppointmentsBooked    []BookingRecord      `bun:"appointments_booked,type:jsonb" json:"appointments_booked"`
	AppointmentsModified  []ModificationRecord `bun:"appointments_modified,type:jsonb" json:"appointments_modified"`
	AppointmentsCancelled []CancellationRecord `bun:"appointments_cancelled,type:jsonb" json:"appointments_cancelled"`
	UserPreferences       map[string]any       `bun:"user_preferences,type:jsonb" json:"user_preferences"`

	TotalTurns      int `bun:"total_turns" json:"total_turns"`
	TotalToolCalls  int `bun:"total_tool_calls" json:"total_tool_calls"`
	DurationSeconds int `bun:"duration_seconds" json:"duration_seconds"`

	StartedAt time.Time `bun:"started_at" json:"started_at"`
	EndedAt   time.Time `bun:"ended_at" json:"ended_at"`
}

// DisplayDict projects the summary for frontend history views.
func (s *ConversationSummary) DisplayDict() map[string]any {
	return map[string]any{
		"summary":   s.SummaryText,
		"keyPoints": s.KeyPoints,
		"appointments": map[string]any{
			"booked":    s.AppointmentsBooked,
			"modified":  s.AppointmentsModified,
			"cancelled": s.AppointmentsCancelled,
		},
		"preferences": s.UserPreferences,
		"metrics": map[string]any{
			"turns":           s.TotalTurns,
			"toolCalls":       s.TotalToolCalls,
			"durationSeconds": s.DurationSeconds,
		},
		"timestamp": s.EndedAt.Format(time.RFC3339),
	}
}
