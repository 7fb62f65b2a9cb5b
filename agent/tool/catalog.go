package tool

import (
	"github.com/cloudwego/eino/schema"
)

// Infos describes the seven appointment tools in the model-neutral tool
// schema, converted to each provider's wire format at request time.
func Infos() []*schema.ToolInfo {
	return []*schema.ToolInfo{
		{
			Name: "identify_user",
			Desc: "Identify the caller by phone number. Call this first when the user provides their phone number.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"phone_number": {
					Type:     schema.String,
					Desc:     "The caller's phone number in any common format",
					Required: true,
				},
			}),
		},
		{
			Name: "fetch_slots",
			Desc: "Fetch available appointment slots. Optionally restricted to one date.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"date": {
					Type: schema.String,
					Desc: "Specific date to check, YYYY-MM-DD. Omit for the next available slots.",
				},
				"duration_minutes": {
					Type: schema.Integer,
					Desc: "Desired appointment duration in minutes",
				},
			}),
		},
		{
			Name: "book_appointment",
			Desc: "Book an appointment at a specific date and time. The caller must be identified first.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"date": {
					Type:     schema.String,
					Desc:     "Appointment date, YYYY-MM-DD",
					Required: true,
				},
				"time": {
					Type:     schema.String,
					Desc:     "Appointment time, HH:MM in 24-hour format",
					Required: true,
				},
				"purpose": {
					Type: schema.String,
					Desc: "Reason for the appointment",
				},
				"duration_minutes": {
					Type: schema.Integer,
					Desc: "Appointment duration in minutes",
				},
				"user_name": {
					Type: schema.String,
					Desc: "The caller's name, if they provided one",
				},
			}),
		},
		{
			Name: "retrieve_appointments",
			Desc: "Retrieve the caller's appointments. The caller must be identified first.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"include_past": {
					Type: schema.Boolean,
					Desc: "Include past appointments",
				},
				"status": {
					Type: schema.String,
					Desc: "Filter by status: scheduled, cancelled, completed, or all",
				},
			}),
		},
		{
			Name: "cancel_appointment",
			Desc: "Cancel one of the caller's appointments, identified by id or by date and time.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"appointment_id": {
					Type: schema.String,
					Desc: "The appointment id, if known",
				},
				"date": {
					Type: schema.String,
					Desc: "The appointment date, YYYY-MM-DD",
				},
				"time": {
					Type: schema.String,
					Desc: "The appointment time, HH:MM",
				},
			}),
		},
		{
			Name: "modify_appointment",
			Desc: "Move one of the caller's appointments to a new date and/or time.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"appointment_id": {
					Type: schema.String,
					Desc: "The appointment id, if known",
				},
				"current_date": {
					Type: schema.String,
					Desc: "The current appointment date, YYYY-MM-DD",
				},
				"current_time": {
					Type: schema.String,
					Desc: "The current appointment time, HH:MM",
				},
				"new_date": {
					Type: schema.String,
					Desc: "The new date, YYYY-MM-DD. Omit to keep the current date.",
				},
				"new_time": {
					Type: schema.String,
					Desc: "The new time, HH:MM. Omit to keep the current time.",
				},
			}),
		},
		{
			Name: "end_conversation",
			Desc: "End the conversation. Call when the caller says goodbye or has nothing else to ask.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"reason": {
					Type: schema.String,
					Desc: "Why the conversation is ending",
				},
			}),
		},
	}
}
