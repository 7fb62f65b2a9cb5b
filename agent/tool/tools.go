// Package tool implements the appointment-management tools invoked by the
// conversation model. Every tool returns a contract.ToolResult whose Verbal
// field is spoken back to the caller; failures are results, never panics.
package tool

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/Satyam6024/superbryn-agent/agent/contract"
	modelx "github.com/Satyam6024/superbryn-agent/agent/model"
	schedulex "github.com/Satyam6024/superbryn-agent/agent/schedule"
	statex "github.com/Satyam6024/superbryn-agent/agent/state"
)

const (
	maxSpokenSlots    = 5
	fetchSlotLimit    = 10
	maxSpokenUpcoming = 3
)

type Tools struct {
	store contractx.Store
	slots *schedulex.Generator
	state *statex.ConversationState
}

func New(store contractx.Store, slots *schedulex.Generator) *Tools {
	return &Tools{store: store, slots: slots}
}

// InitConversation binds the tools to a fresh session. Must be called before
// any tool is dispatched.
func (t *Tools) InitConversation(sessionID, timezone string) {
	t.state = statex.NewConversationState(sessionID, timezone)
	log.Info().Str("session_id", sessionID).Str("timezone", t.state.Timezone).Msg("conversation state initialized")
}

func (t *Tools) State() *statex.ConversationState {
	return t.state
}

func (t *Tools) notInitialized() contractx.ToolResult {
	return contractx.Failure(
		"conversation not initialized",
		"I'm sorry, there was a technical issue. Please try again.",
	)
}

// IdentifyUser normalizes the phone number and looks up or creates the user
// record, switching the session to the identified state.
func (t *Tools) IdentifyUser(ctx context.Context, phoneNumber string) contractx.ToolResult {
	if t.state == nil {
		return t.notInitialized()
	}

	phone := NormalizePhone(phoneNumber)
	log.Info().Str("phone", phone).Msg("identifying user")

	user, err := t.store.GetUserByPhone(ctx, phone)
	if err != nil {
		log.Error().Err(err).Msg("identify user lookup failed")
		return contractx.Failure(err.Error(), "I had trouble processing that phone number. Could you please repeat it?")
	}

	if user != nil {
		t.state.User = user
		t.state.UserPhone = phone
		t.state.UserName = user.Name
		t.state.Identified = true

		greeting := "Welcome back"
		if user.Name != "" {
			greeting += ", " + user.Name
		}
		greeting += "!"
		if user.TotalAppointments > 0 {
			plural := ""
			if user.TotalAppointments > 1 {
				plural = "s"
			}
			greeting += fmt.Sprintf(" I can see you have %d appointment%s in our system.", user.TotalAppointments, plural)
		}

		return contractx.ToolResult{
			Success: true,
			Data:    map[string]any{"user": user, "is_returning": true},
			Message: "User identified: " + phone,
			Verbal:  greeting,
		}
	}

	user, err = t.store.CreateOrUpdateUser(ctx, phone, "")
	if err != nil {
		log.Error().Err(err).Msg("create user failed")
		return contractx.Failure(err.Error(), "I had trouble processing that phone number. Could you please repeat it?")
	}

	t.state.User = user
	t.state.UserPhone = phone
	t.state.Identified = true

	return contractx.ToolResult{
		Success: true,
		Data:    map[string]any{"user": user, "is_returning": false},
		Message: "New user created: " + phone,
		Verbal:  "Great, I've got your number. How can I help you today?",
	}
}

// bookedSlots loads current occupancy; failures degrade to an empty set so
// slot offers still work when the read fails.
func (t *Tools) bookedSlots(ctx context.Context) map[modelx.SlotKey]struct{} {
	keys, err := t.store.BookedSlots(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to load booked slots")
		return nil
	}
	return schedulex.BookedSet(keys)
}

// FetchSlots offers availability, either for one requested date or the next
// open slots across the horizon.
func (t *Tools) FetchSlots(ctx context.Context, date string, durationMinutes int) contractx.ToolResult {
	if t.state == nil {
		return t.notInitialized()
	}

	booked := t.bookedSlots(ctx)

	var available []modelx.TimeSlot
	if date != "" {
		available = t.slots.ForDate(date, t.state.Timezone, booked)
	} else {
		available = t.slots.Available(t.state.Timezone, durationMinutes, booked, fetchSlotLimit)
	}

	if len(available) == 0 {
		if date != "" {
			return contractx.ToolResult{
				Success: true,
				Data:    map[string]any{"slots": []modelx.TimeSlot{}, "date": date},
				Message: "No slots available for specified date",
				Verbal:  fmt.Sprintf("I'm sorry, there are no available slots on %s. Would you like to check another date?", date),
			}
		}
		return contractx.ToolResult{
			Success: true,
			Data:    map[string]any{"slots": []modelx.TimeSlot{}},
			Message: "No slots available",
			Verbal:  "I'm sorry, we don't have any available slots at the moment. Please try again later.",
		}
	}

	verbal := schedulex.FormatForSpeech(available, maxSpokenSlots)
	return contractx.ToolResult{
		Success: true,
		Data:    map[string]any{"slots": available},
		Message: fmt.Sprintf("Found %d available slots", len(available)),
		Verbal:  fmt.Sprintf("I have some availability for you. %s. Which time works best?", verbal),
	}
}

// BookAppointment validates the slot, re-checks live availability, persists
// the appointment and records it in session state.
func (t *Tools) BookAppointment(ctx context.Context, date, timeStr, purpose string, durationMinutes int, userName string) contractx.ToolResult {
	if t.state == nil {
		return t.notInitialized()
	}
	if !t.state.Identified {
		return contractx.Failure(
			"user not identified",
			"Before I can book an appointment, I'll need your phone number. What's your phone number?",
		)
	}

	if durationMinutes <= 0 {
		durationMinutes = t.slots.DefaultDuration()
	}

	if ok, msg := t.slots.Validate(date, timeStr, t.state.Timezone); !ok {
		return contractx.Failure(msg, msg)
	}

	available, err := t.store.CheckSlotAvailable(ctx, date, timeStr)
	if err != nil {
		log.Error().Err(err).Msg("availability check failed")
		return contractx.Failure(err.Error(), "I had trouble booking that appointment. Please try again.")
	}
	if !available {
		return contractx.Failure(
			"slot already booked",
			"I'm sorry, that slot was just taken. Would you like me to find another available time?",
		)
	}

	if userName != "" && t.state.UserName == "" {
		t.state.UserName = userName
		if _, err := t.store.CreateOrUpdateUser(ctx, t.state.UserPhone, userName); err != nil {
			log.Warn().Err(err).Msg("failed to store user name")
		}
	}

	created, err := t.store.CreateAppointment(ctx, &modelx.Appointment{
		UserPhone:       t.state.UserPhone,
		UserName:        t.state.UserName,
		Date:            date,
		Time:            timeStr,
		DurationMinutes: durationMinutes,
		Purpose:         purpose,
		Status:          modelx.StatusScheduled,
	})
	if err != nil {
		if errors.Is(err, contractx.ErrSlotTaken) {
			return contractx.Failure(
				"slot already booked",
				"I'm sorry, that slot was just taken. Would you like me to find another available time?",
			)
		}
		log.Error().Err(err).Msg("booking failed")
		return contractx.Failure(err.Error(), "I had trouble booking that appointment. Please try again.")
	}

	t.state.RecordBooking(modelx.BookingRecord{
		ID:      created.ID,
		Date:    date,
		Time:    timeStr,
		Purpose: purpose,
	})

	purposeText := ""
	if purpose != "" {
		purposeText = " for " + purpose
	}
	verbal := fmt.Sprintf(
		"I've booked your appointment for %s at %s%s. Is there anything else I can help you with?",
		schedulex.FriendlyDate(date), schedulex.FriendlyTime(timeStr), purposeText,
	)

	return contractx.ToolResult{
		Success: true,
		Data:    map[string]any{"appointment": created},
		Message: "Appointment booked: " + created.ID,
		Verbal:  verbal,
	}
}

// RetrieveAppointments speaks a summary of the user's appointments,
// enumerating up to three upcoming ones.
func (t *Tools) RetrieveAppointments(ctx context.Context, includePast bool, status string) contractx.ToolResult {
	if t.state == nil {
		return t.notInitialized()
	}
	if !t.state.Identified {
		return contractx.Failure(
			"user not identified",
			"I'll need your phone number to look up your appointments. What's your phone number?",
		)
	}

	var statusFilter modelx.AppointmentStatus
	if status != "" && status != "all" {
		statusFilter = modelx.AppointmentStatus(status)
	}

	appointments, err := t.store.GetAppointmentsByPhone(ctx, t.state.UserPhone, statusFilter, includePast)
	if err != nil {
		log.Error().Err(err).Msg("retrieve appointments failed")
		return contractx.Failure(err.Error(), "I had trouble retrieving your appointments. Please try again.")
	}

	if len(appointments) == 0 {
		return contractx.ToolResult{
			Success: true,
			Data:    map[string]any{"appointments": []modelx.Appointment{}},
			Message: "No appointments found",
			Verbal:  "You don't have any appointments scheduled. Would you like to book one?",
		}
	}

	var upcoming []modelx.Appointment
	for _, a := range appointments {
		if a.Status == modelx.StatusScheduled {
			upcoming = append(upcoming, a)
		}
	}

	var verbal string
	switch {
	case len(upcoming) == 1:
		verbal = fmt.Sprintf("You have one appointment: %s.", upcoming[0].VerbalSummary())
	case len(upcoming) > 1:
		verbal = fmt.Sprintf("You have %d appointments. ", len(upcoming))
		for i := 0; i < len(upcoming) && i < maxSpokenUpcoming; i++ {
			verbal += upcoming[i].VerbalSummary() + ". "
		}
		if len(upcoming) > maxSpokenUpcoming {
			verbal += fmt.Sprintf("And %d more.", len(upcoming)-maxSpokenUpcoming)
		}
	default:
		verbal = "You don't have any upcoming appointments."
	}

	return contractx.ToolResult{
		Success: true,
		Data:    map[string]any{"appointments": appointments},
		Message: fmt.Sprintf("Found %d appointments", len(appointments)),
		Verbal:  verbal,
	}
}

// findOwnAppointment resolves an appointment by id or by (date, time) among
// the caller's own upcoming scheduled appointments. Appointments belonging to
// another phone number are treated as not found.
func (t *Tools) findOwnAppointment(ctx context.Context, id, date, timeStr string) (*modelx.Appointment, contractx.ToolResult, bool) {
	if id != "" {
		apt, err := t.store.GetAppointmentByID(ctx, id)
		if err != nil {
			log.Error().Err(err).Str("appointment_id", id).Msg("appointment lookup failed")
		}
		if err != nil || apt == nil || apt.UserPhone != t.state.UserPhone {
			return nil, contractx.Failure(
				"appointment not found",
				"I couldn't find that appointment. Could you tell me the date and time?",
			), false
		}
		return apt, contractx.ToolResult{}, true
	}

	if date != "" && timeStr != "" {
		appointments, err := t.store.GetAppointmentsByPhone(ctx, t.state.UserPhone, modelx.StatusScheduled, false)
		if err != nil {
			return nil, contractx.Failure(err.Error(), "I had trouble looking that up. Please try again."), false
		}
		for i := range appointments {
			if appointments[i].Date == date && appointments[i].Time == timeStr {
				return &appointments[i], contractx.ToolResult{}, true
			}
		}
		return nil, contractx.Failure(
			"appointment not found",
			fmt.Sprintf("I couldn't find an appointment on %s at %s. Would you like me to look up your appointments?", date, timeStr),
		), false
	}

	return nil, contractx.Failure(
		"no appointment specified",
		"Which appointment would you like to cancel? Please tell me the date and time.",
	), false
}

// CancelAppointment cancels one of the caller's appointments, resolved by id
// or by (date, time).
func (t *Tools) CancelAppointment(ctx context.Context, id, date, timeStr string) contractx.ToolResult {
	if t.state == nil || !t.state.Identified {
		return contractx.Failure(
			"user not identified",
			"I need to verify your phone number before I can cancel appointments.",
		)
	}

	apt, failure, ok := t.findOwnAppointment(ctx, id, date, timeStr)
	if !ok {
		return failure
	}

	cancelled, err := t.store.CancelAppointment(ctx, apt.ID)
	if err != nil {
		log.Error().Err(err).Str("appointment_id", apt.ID).Msg("cancel failed")
		return contractx.Failure(err.Error(), "I had trouble cancelling that appointment. Please try again.")
	}

	t.state.RecordCancellation(modelx.CancellationRecord{ID: apt.ID, Date: apt.Date, Time: apt.Time})

	return contractx.ToolResult{
		Success: true,
		Data:    map[string]any{"appointment": cancelled},
		Message: fmt.Sprintf("Appointment %s cancelled", apt.ID),
		Verbal:  fmt.Sprintf("I've cancelled your appointment on %s at %s. Is there anything else I can help you with?", apt.Date, apt.Time),
	}
}

// ModifyAppointment moves one of the caller's appointments to a new date
// and/or time. At least one new value is required; the resulting pair is
// re-validated before persisting.
func (t *Tools) ModifyAppointment(ctx context.Context, id, currentDate, currentTime, newDate, newTime string) contractx.ToolResult {
	if t.state == nil || !t.state.Identified {
		return contractx.Failure(
			"user not identified",
			"I need your phone number before I can modify appointments.",
		)
	}

	if newDate == "" && newTime == "" {
		return contractx.Failure(
			"no changes specified",
			"What would you like to change the appointment to? Please tell me the new date or time.",
		)
	}

	apt, failure, ok := t.findOwnAppointment(ctx, id, currentDate, currentTime)
	if !ok {
		switch failure.Error {
		case "no appointment specified":
			failure.Verbal = "Which appointment would you like to modify?"
		case "appointment not found":
			if id != "" {
				failure.Verbal = "I couldn't find that appointment."
			}
		}
		return failure
	}

	targetDate := newDate
	if targetDate == "" {
		targetDate = apt.Date
	}
	targetTime := newTime
	if targetTime == "" {
		targetTime = apt.Time
	}

	if valid, msg := t.slots.Validate(targetDate, targetTime, t.state.Timezone); !valid {
		return contractx.Failure(msg, msg)
	}

	modified, err := t.store.ModifyAppointment(ctx, apt.ID, newDate, newTime)
	if err != nil {
		if errors.Is(err, contractx.ErrSlotTaken) {
			return contractx.Failure(
				"slot already booked",
				"I'm sorry, that time is not available. Would you like me to find another slot?",
			)
		}
		log.Error().Err(err).Str("appointment_id", apt.ID).Msg("modify failed")
		return contractx.Failure(err.Error(), "I had trouble modifying that appointment. Please try again.")
	}

	t.state.RecordModification(modelx.ModificationRecord{
		ID:      apt.ID,
		OldDate: apt.Date,
		OldTime: apt.Time,
		NewDate: targetDate,
		NewTime: targetTime,
	})

	return contractx.ToolResult{
		Success: true,
		Data:    map[string]any{"appointment": modified},
		Message: fmt.Sprintf("Appointment %s modified", apt.ID),
		Verbal:  fmt.Sprintf("I've updated your appointment to %s at %s. Is there anything else?", targetDate, targetTime),
	}
}

// EndConversation sets the termination flag and picks a farewell prioritized
// by the most recent action of the call: booked, modified, cancelled, then a
// generic thanks.
func (t *Tools) EndConversation(reason string) contractx.ToolResult {
	if reason == "" {
		reason = "user_requested"
	}

	if t.state == nil {
		return contractx.ToolResult{
			Success: true,
			Data:    map[string]any{"reason": reason},
			Message: "Conversation ended",
			Verbal:  "Goodbye! Have a great day.",
		}
	}

	t.state.ShouldEnd = true

	data := map[string]any{
		"reason":                 reason,
		"appointments_booked":    t.state.Booked,
		"appointments_modified":  t.state.Modified,
		"appointments_cancelled": t.state.Cancelled,
		"user_identified":        t.state.Identified,
	}

	var verbal string
	switch {
	case t.state.LastBooking() != nil:
		b := t.state.LastBooking()
		verbal = fmt.Sprintf("Great! Your appointment is confirmed for %s at %s. Have a wonderful day!", b.Date, b.Time)
	case t.state.LastModification() != nil:
		m := t.state.LastModification()
		verbal = fmt.Sprintf("Your appointment has been updated to %s at %s. Take care!", m.NewDate, m.NewTime)
	case len(t.state.Cancelled) > 0:
		verbal = "Your appointment has been cancelled. Feel free to reach out when you'd like to schedule again. Goodbye!"
	default:
		verbal = "Thank you for calling. Have a great day!"
	}

	return contractx.ToolResult{
		Success: true,
		Data:    data,
		Message: "Conversation ended",
		Verbal:  verbal,
	}
}
