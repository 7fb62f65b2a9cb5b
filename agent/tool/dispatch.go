package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/Satyam6024/superbryn-agent/agent/contract"
)

// Call is a parsed, typed tool invocation. The variants are sealed so
// Execute can dispatch exhaustively.
type Call interface {
	ToolName() string
	isCall()
}

type IdentifyUserCall struct {
	PhoneNumber string `json:"phone_number"`
}

type FetchSlotsCall struct {
	Date            string `json:"date,omitempty"`
	DurationMinutes int    `json:"duration_minutes,omitempty"`
}

type BookAppointmentCall struct {
	Date            string `json:"date"`
	Time            string `json:"time"`
	Purpose         string `json:"purpose,omitempty"`
	DurationMinutes int    `json:"duration_minutes,omitempty"`
	UserName        string `json:"user_name,omitempty"`
}

type RetrieveAppointmentsCall struct {
	IncludePast bool   `json:"include_past,omitempty"`
	Status      string `json:"status,omitempty"`
}

type CancelAppointmentCall struct {
	AppointmentID string `json:"appointment_id,omitempty"`
	Date          string `json:"date,omitempty"`
	Time          string `json:"time,omitempty"`
}

type ModifyAppointmentCall struct {
	AppointmentID string `json:"appointment_id,omitempty"`
	CurrentDate   string `json:"current_date,omitempty"`
	CurrentTime   string `json:"current_time,omitempty"`
	NewDate       string `json:"new_date,omitempty"`
	NewTime       string `json:"new_time,omitempty"`
}

type EndConversationCall struct {
	Reason string `json:"reason,omitempty"`
}

func (IdentifyUserCall) ToolName() string         { return "identify_user" }
func (FetchSlotsCall) ToolName() string           { return "fetch_slots" }
func (BookAppointmentCall) ToolName() string      { return "book_appointment" }
func (RetrieveAppointmentsCall) ToolName() string { return "retrieve_appointments" }
func (CancelAppointmentCall) ToolName() string    { return "cancel_appointment" }
func (ModifyAppointmentCall) ToolName() string    { return "modify_appointment" }
func (EndConversationCall) ToolName() string      { return "end_conversation" }

func (IdentifyUserCall) isCall()         {}
func (FetchSlotsCall) isCall()           {}
func (BookAppointmentCall) isCall()      {}
func (RetrieveAppointmentsCall) isCall() {}
func (CancelAppointmentCall) isCall()    {}
func (ModifyAppointmentCall) isCall()    {}
func (EndConversationCall) isCall()      {}

// ParseCall decodes a model-provided tool invocation into its typed variant.
// Unknown names return contract.ErrUnknownTool; malformed argument JSON
// returns contract.ErrSchemaViolation.
func ParseCall(name string, argsJSON []byte) (Call, error) {
	if len(argsJSON) == 0 {
		argsJSON = []byte("{}")
	}

	decode := func(dst Call) (Call, error) {
		if err := json.Unmarshal(argsJSON, dst); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", contractx.ErrSchemaViolation, name, err)
		}
		return dst, nil
	}

	switch name {
	case "identify_user":
		return decode(&IdentifyUserCall{})
	case "fetch_slots":
		return decode(&FetchSlotsCall{})
	case "book_appointment":
		return decode(&BookAppointmentCall{})
	case "retrieve_appointments":
		return decode(&RetrieveAppointmentsCall{})
	case "cancel_appointment":
		return decode(&CancelAppointmentCall{})
	case "modify_appointment":
		return decode(&ModifyAppointmentCall{})
	case "end_conversation":
		return decode(&EndConversationCall{})
	}
	return nil, fmt.Errorf("%w: %s", contractx.ErrUnknownTool, name)
}

// Execute runs one typed call against the tool set.
func (t *Tools) Execute(ctx context.Context, call Call) contractx.ToolResult {
	switch c := call.(type) {
	case *IdentifyUserCall:
		return t.IdentifyUser(ctx, c.PhoneNumber)
	case *FetchSlotsCall:
		return t.FetchSlots(ctx, c.Date, c.DurationMinutes)
	case *BookAppointmentCall:
		return t.BookAppointment(ctx, c.Date, c.Time, c.Purpose, c.DurationMinutes, c.UserName)
	case *RetrieveAppointmentsCall:
		return t.RetrieveAppointments(ctx, c.IncludePast, c.Status)
	case *CancelAppointmentCall:
		return t.CancelAppointment(ctx, c.AppointmentID, c.Date, c.Time)
	case *ModifyAppointmentCall:
		return t.ModifyAppointment(ctx, c.AppointmentID, c.CurrentDate, c.CurrentTime, c.NewDate, c.NewTime)
	case *EndConversationCall:
		return t.EndConversation(c.Reason)
	}
	return contractx.Failure(
		fmt.Sprintf("unhandled tool call type %T", call),
		"I'm not sure how to do that.",
	)
}

// ExecuteRaw parses and runs a tool call straight from the model's wire form.
// Parse failures come back as failed results rather than errors so a
// hallucinated tool name never aborts the conversation.
func (t *Tools) ExecuteRaw(ctx context.Context, name string, argsJSON []byte) contractx.ToolResult {
	call, err := ParseCall(name, argsJSON)
	if err != nil {
		log.Warn().Err(err).Str("tool", name).Msg("unparseable tool call")
		verbal := "I had trouble processing that request."
		if errors.Is(err, contractx.ErrUnknownTool) {
			verbal = "I'm not sure how to do that."
		}
		return contractx.Failure(err.Error(), verbal)
	}
	return t.Execute(ctx, call)
}
