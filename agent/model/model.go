package model

import (
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusCompleted AppointmentStatus = "completed"
	StatusNoShow    AppointmentStatus = "no_show"
)

// TimeSlot is a candidate bookable slot produced by the slot generator.
// Never persisted.
type TimeSlot struct {
	Date            string `json:"date"`
	Time            string `json:"time"`
	DurationMinutes int    `json:"duration_minutes"`
	IsAvailable     bool   `json:"is_available"`
}

// SlotKey identifies the (date, time) pair an appointment occupies.
type SlotKey struct {
	Date string `bun:"date" json:"date"`
	Time string `bun:"time" json:"time"`
}

type User struct {
	bun.BaseModel `bun:"table:users" json:"-"`

	PhoneNumber       string         `bun:"phone_number,pk" json:"phone_number"`
	Name              string         `bun:"name,nullzero" json:"name,omitempty"`
	CreatedAt         time.Time      `bun:"created_at" json:"created_at"`
	LastInteraction   time.Time      `bun:"last_interaction" json:"last_interaction"`
	Preferences       map[string]any `bun:"preferences,type:jsonb" json:"preferences"`
	TotalAppointments int            `bun:"total_appointments" json:"total_appointments"`
}

type Appointment struct {
	bun.BaseModel `bun:"table:appointments" json:"-"`

	ID              string            `bun:"id,pk" json:"id"`
	UserPhone       string            `bun:"user_phone" json:"user_phone"`
	UserName        string            `bun:"user_name,nullzero" json:"user_name,omitempty"`
	Date            string            `bun:"date" json:"date"`
	Time            string            `bun:"time" json:"time"`
	DurationMinutes int               `bun:"duration_minutes" json:"duration_minutes"`
	Purpose         string            `bun:"purpose,nullzero" json:"purpose,omitempty"`
	Status          AppointmentStatus `bun:"status" json:"status"`
	Notes           string            `bun:"notes,nullzero" json:"notes,omitempty"`
	CreatedAt       time.Time         `bun:"created_at" json:"created_at"`
	UpdatedAt       time.Time         `bun:"updated_at" json:"updated_at"`
}

// VerbalSummary renders the appointment for speech synthesis.
func (a *Appointment) VerbalSummary() string {
	statusText := ""
	switch a.Status {
	case StatusCancelled:
		statusText = " (cancelled)"
	case StatusCompleted:
		statusText = " (completed)"
	}

	purposeText := ""
	if a.Purpose != "" {
		purposeText = " for " + a.Purpose
	}
	return fmt.Sprintf("Appointment on %s at %s%s%s", a.Date, a.Time, purposeText, statusText)
}

// BookingRecord, ModificationRecord and CancellationRecord capture the
// appointment actions taken during one conversation. They are carried in the
// session state and embedded into the conversation summary.
type BookingRecord struct {
	ID      string `json:"id"`
	Date    string `json:"date"`
	Time    string `json:"time"`
	Purpose string `json:"purpose,omitempty"`
}

type ModificationRecord struct {
	ID      string `json:"id"`
	OldDate string `json:"old_date"`
	OldTime string `json:"old_time"`
	NewDate string `json:"new_date"`
	NewTime string `json:"new_time"`
}

type CancellationRecord struct {
	ID   string `json:"id"`
	Date string `json:"date"`
	Time string `json:"time"`
}
