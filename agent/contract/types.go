package contract

// ToolResult is the transient value returned by every tool invocation.
// Verbal carries the sentence meant to be spoken to the caller; Message is
// the technical counterpart used for logging.
type ToolResult struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Verbal  string `json:"verbal_response"`
	Error   string `json:"error,omitempty"`
}

func Failure(errMsg, verbal string) ToolResult {
	return ToolResult{Success: false, Error: errMsg, Verbal: verbal}
}
