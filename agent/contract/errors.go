package contract

import "errors"

var (
	ErrModelInvoke     = errors.New("model invoke failed")
	ErrSchemaViolation = errors.New("model response violates schema")
	ErrSlotTaken       = errors.New("slot is already booked")
	ErrNotFound        = errors.New("not found")
	ErrUnknownTool     = errors.New("unknown tool")
	ErrValidation      = errors.New("validation failed")
)
