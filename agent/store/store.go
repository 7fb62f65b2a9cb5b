// Package store is the Postgres-backed implementation of contract.Store,
// built on bun. One Store is shared by every session; bun's *sql.DB pool
// handles concurrency.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	contractx "github.com/Satyam6024/superbryn-agent/agent/contract"
	modelx "github.com/Satyam6024/superbryn-agent/agent/model"
)

type Config struct {
	DSN string `envconfig:"DSN" required:"true"`
}

type Store struct {
	db *bun.DB
}

var _ contractx.Store = (*Store)(nil)

func New(cfg Config) *Store {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN)))
	db := bun.NewDB(sqldb, pgdialect.New())
	return &Store{db: db}
}

// NewWithDB wraps an existing bun handle. Test hook.
func NewWithDB(db *bun.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) GetUserByPhone(ctx context.Context, phone string) (*modelx.User, error) {
	user := new(modelx.User)
	err := s.db.NewSelect().Model(user).Where("phone_number = ?", phone).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by phone: %w", err)
	}
	return user, nil
}

// CreateOrUpdateUser upserts the user row, refreshing last_interaction and
// filling in the name when one is provided.
func (s *Store) CreateOrUpdateUser(ctx context.Context, phone, name string) (*modelx.User, error) {
	now := time.Now().UTC()
	user := &modelx.User{
		PhoneNumber:     phone,
		Name:            name,
		CreatedAt:       now,
		LastInteraction: now,
		Preferences:     map[string]any{},
	}

	q := s.db.NewInsert().Model(user).
		On("CONFLICT (phone_number) DO UPDATE").
		Set("last_interaction = EXCLUDED.last_interaction")
	if name != "" {
		q = q.Set("name = EXCLUDED.name")
	}
	if _, err := q.Exec(ctx); err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}

	return s.GetUserByPhone(ctx, phone)
}

func (s *Store) GetAppointmentsByPhone(ctx context.Context, phone string, status modelx.AppointmentStatus, includePast bool) ([]modelx.Appointment, error) {
	var appointments []modelx.Appointment
	q := s.db.NewSelect().Model(&appointments).
		Where("user_phone = ?", phone).
		Order("date ASC", "time ASC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if !includePast {
		q = q.Where("date >= ?", time.Now().UTC().Format("2006-01-02"))
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("get appointments by phone: %w", err)
	}
	return appointments, nil
}

func (s *Store) GetAppointmentByID(ctx context.Context, id string) (*modelx.Appointment, error) {
	apt := new(modelx.Appointment)
	err := s.db.NewSelect().Model(apt).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get appointment by id: %w", err)
	}
	return apt, nil
}

// BookedSlots returns the (date, time) pairs currently held by scheduled
// appointments, from today forward.
func (s *Store) BookedSlots(ctx context.Context) ([]modelx.SlotKey, error) {
	var keys []modelx.SlotKey
	err := s.db.NewSelect().
		Model((*modelx.Appointment)(nil)).
		Column("date", "time").
		Where("status = ?", modelx.StatusScheduled).
		Where("date >= ?", time.Now().UTC().Format("2006-01-02")).
		Scan(ctx, &keys)
	if err != nil {
		return nil, fmt.Errorf("booked slots: %w", err)
	}
	return keys, nil
}

func (s *Store) CheckSlotAvailable(ctx context.Context, date, timeStr string) (bool, error) {
	count, err := s.db.NewSelect().
		Model((*modelx.Appointment)(nil)).
		Where("date = ?", date).
		Where("time = ?", timeStr).
		Where("status = ?", modelx.StatusScheduled).
		Count(ctx)
	if err != nil {
		return false, fmt.Errorf("check slot: %w", err)
	}
	return count == 0, nil
}

// CreateAppointment persists the appointment. The slot is re-checked inside
// the write; the partial unique index on (date, time) is the final arbiter
// under concurrent bookings and surfaces here as ErrSlotTaken.
func (s *Store) CreateAppointment(ctx context.Context, apt *modelx.Appointment) (*modelx.Appointment, error) {
	available, err := s.CheckSlotAvailable(ctx, apt.Date, apt.Time)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, contractx.ErrSlotTaken
	}

	now := time.Now().UTC()
	apt.ID = uuid.NewString()
	apt.CreatedAt = now
	apt.UpdatedAt = now
	if apt.Status == "" {
		apt.Status = modelx.StatusScheduled
	}

	if _, err := s.db.NewInsert().Model(apt).Exec(ctx); err != nil {
		var pgErr pgdriver.Error
		if errors.As(err, &pgErr) && pgErr.IntegrityViolation() {
			return nil, contractx.ErrSlotTaken
		}
		return nil, fmt.Errorf("create appointment: %w", err)
	}

	_, err = s.db.NewUpdate().
		Model((*modelx.User)(nil)).
		Set("total_appointments = total_appointments + 1").
		Set("last_interaction = ?", now).
		Where("phone_number = ?", apt.UserPhone).
		Exec(ctx)
	if err != nil {
		log.Warn().Err(err).Str("phone", apt.UserPhone).Msg("failed to bump appointment count")
	}

	return apt, nil
}

func (s *Store) CancelAppointment(ctx context.Context, id string) (*modelx.Appointment, error) {
	apt, err := s.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if apt == nil {
		return nil, contractx.ErrNotFound
	}

	apt.Status = modelx.StatusCancelled
	apt.UpdatedAt = time.Now().UTC()
	_, err = s.db.NewUpdate().Model(apt).
		Column("status", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("cancel appointment: %w", err)
	}
	return apt, nil
}

// ModifyAppointment moves an appointment, keeping the current value for any
// empty new field. The target slot must be free.
func (s *Store) ModifyAppointment(ctx context.Context, id, newDate, newTime string) (*modelx.Appointment, error) {
	apt, err := s.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if apt == nil {
		return nil, contractx.ErrNotFound
	}

	targetDate := newDate
	if targetDate == "" {
		targetDate = apt.Date
	}
	targetTime := newTime
	if targetTime == "" {
		targetTime = apt.Time
	}

	if targetDate != apt.Date || targetTime != apt.Time {
		available, err := s.CheckSlotAvailable(ctx, targetDate, targetTime)
		if err != nil {
			return nil, err
		}
		if !available {
			return nil, contractx.ErrSlotTaken
		}
	}

	apt.Date = targetDate
	apt.Time = targetTime
	apt.UpdatedAt = time.Now().UTC()
	_, err = s.db.NewUpdate().Model(apt).
		Column("date", "time", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		var pgErr pgdriver.Error
		if errors.As(err, &pgErr) && pgErr.IntegrityViolation() {
			return nil, contractx.ErrSlotTaken
		}
		return nil, fmt.Errorf("modify appointment: %w", err)
	}
	return apt, nil
}

func (s *Store) LogToolCall(ctx context.Context, entry *modelx.ToolCallLog) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	if _, err := s.db.NewInsert().Model(entry).Exec(ctx); err != nil {
		log.Warn().Err(err).Str("tool", entry.ToolName).Msg("failed to log tool call")
	}
}

func (s *Store) LogEvent(ctx context.Context, event *modelx.EventLog) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.Severity == "" {
		event.Severity = "info"
	}
	if _, err := s.db.NewInsert().Model(event).Exec(ctx); err != nil {
		log.Warn().Err(err).Str("event_type", event.EventType).Msg("failed to log event")
	}
}

func (s *Store) SaveConversationSummary(ctx context.Context, summary *modelx.ConversationSummary) {
	if _, err := s.db.NewInsert().Model(summary).Exec(ctx); err != nil {
		log.Warn().Err(err).Str("session_id", summary.SessionID).Msg("failed to save conversation summary")
	}
}

func (s *Store) GetConversationHistory(ctx context.Context, phone string, limit int) ([]modelx.ConversationSummary, error) {
	if limit <= 0 {
		limit = 10
	}
	var summaries []modelx.ConversationSummary
	err := s.db.NewSelect().Model(&summaries).
		Where("user_phone = ?", phone).
		Order("ended_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("get conversation history: %w", err)
	}
	return summaries, nil
}

func (s *Store) GetAllAppointments(ctx context.Context, limit, offset int) ([]modelx.Appointment, error) {
	if limit <= 0 {
		limit = 50
	}
	var appointments []modelx.Appointment
	err := s.db.NewSelect().Model(&appointments).
		Order("date DESC", "time DESC").
		Limit(limit).
		Offset(offset).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("get all appointments: %w", err)
	}
	return appointments, nil
}

func (s *Store) CountAppointments(ctx context.Context) (int, error) {
	count, err := s.db.NewSelect().Model((*modelx.Appointment)(nil)).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count appointments: %w", err)
	}
	return count, nil
}

func (s *Store) CountAppointmentsByStatus(ctx context.Context) (map[string]int, error) {
	var rows []struct {
		Status string `bun:"status"`
		Count  int    `bun:"count"`
	}
	err := s.db.NewSelect().
		Model((*modelx.Appointment)(nil)).
		Column("status").
		ColumnExpr("count(*) AS count").
		Group("status").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("count appointments by status: %w", err)
	}

	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}
