// Package state holds the in-memory per-call conversation state. A state
// value is owned by exactly one tool set for the lifetime of one call and is
// discarded when the call ends; turns are sequential by construction of the
// voice channel, so there are never concurrent writers.
package state

import (
	modelx "github.com/Satyam6024/superbryn-agent/agent/model"
)

type ConversationState struct {
	SessionID string

	UserPhone  string
	UserName   string
	User       *modelx.User
	Identified bool

	Booked    []modelx.BookingRecord
	Modified  []modelx.ModificationRecord
	Cancelled []modelx.CancellationRecord

	Preferences map[string]any
	Timezone    string
	ShouldEnd   bool
}

func NewConversationState(sessionID, timezone string) *ConversationState {
	if timezone == "" {
		timezone = "UTC"
	}
	return &ConversationState{
		SessionID:   sessionID,
		Timezone:    timezone,
		Preferences: make(map[string]any),
	}
}

func (s *ConversationState) RecordBooking(r modelx.BookingRecord) {
	s.Booked = append(s.Booked, r)
}

func (s *ConversationState) RecordModification(r modelx.ModificationRecord) {
	s.Modified = append(s.Modified, r)
}

func (s *ConversationState) RecordCancellation(r modelx.CancellationRecord) {
	s.Cancelled = append(s.Cancelled, r)
}

// LastBooking returns the most recent booking of this call, or nil.
func (s *ConversationState) LastBooking() *modelx.BookingRecord {
	if len(s.Booked) == 0 {
		return nil
	}
	return &s.Booked[len(s.Booked)-1]
}

// LastModification returns the most recent modification of this call, or nil.
func (s *ConversationState) LastModification() *modelx.ModificationRecord {
	if len(s.Modified) == 0 {
		return nil
	}
	return &s.Modified[len(s.Modified)-1]
}
