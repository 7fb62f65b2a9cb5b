package contract

import (
	"context"

	modelx "github.com/Satyam6024/superbryn-agent/agent/model"
)

// Store is the appointment datastore contract. Logging methods have no error
// return: audit failures are swallowed and logged by the implementation so a
// broken log pipeline can never abort a conversation.
type Store interface {
	GetUserByPhone(ctx context.Context, phone string) (*modelx.User, error)
	CreateOrUpdateUser(ctx context.Context, phone, name string) (*modelx.User, error)

	GetAppointmentsByPhone(ctx context.Context, phone string, status modelx.AppointmentStatus, includePast bool) ([]modelx.Appointment, error)
	GetAppointmentByID(ctx context.Context, id string) (*modelx.Appointment, error)
	BookedSlots(ctx context.Context) ([]modelx.SlotKey, error)
	CheckSlotAvailable(ctx context.Context, date, time string) (bool, error)
	CreateAppointment(ctx context.Context, apt *modelx.Appointment) (*modelx.Appointment, error)
	CancelAppointment(ctx context.Context, id string) (*modelx.Appointment, error)
	ModifyAppointment(ctx context.Context, id, newDate, newTime string) (*modelx.Appointment, error)

	LogToolCall(ctx context.Context, entry *modelx.ToolCallLog)
	LogEvent(ctx context.Context, event *modelx.EventLog)
	SaveConversationSummary(ctx context.Context, summary *modelx.ConversationSummary)

	GetConversationHistory(ctx context.Context, phone string, limit int) ([]modelx.ConversationSummary, error)
	GetAllAppointments(ctx context.Context, limit, offset int) ([]modelx.Appointment, error)
	CountAppointments(ctx context.Context) (int, error)
	CountAppointmentsByStatus(ctx context.Context) (map[string]int, error)
}
