package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

const summaryPrompt = `Analyze this conversation and provide a brief summary. Return a JSON object with:
- "summary": A 1-2 sentence overview of what happened
- "key_points": Array of 3-5 bullet points covering main outcomes
- "preferences": Any preferences the user mentioned (times they prefer, etc.)

Focus on actions taken and outcomes. Be concise. Return ONLY valid JSON, no markdown code blocks.`

const (
	summaryMaxTokens  = 500
	summaryTailLen    = 20
	summaryContentCap = 200
)

// SummaryData is the structured end-of-call summary.
type SummaryData struct {
	Summary     string         `json:"summary"`
	KeyPoints   []string       `json:"key_points"`
	Preferences map[string]any `json:"preferences"`
}

// SummaryStats feeds action counts into the summary context.
type SummaryStats struct {
	ToolCalls int
	Booked    int
	Modified  int
	Cancelled int
}

// Summarizer turns a finished conversation into a SummaryData, degrading to
// a generic summary when the model fails or returns unparseable output.
type Summarizer struct {
	chain *Chain
}

func NewSummarizer(chain *Chain) *Summarizer {
	return &Summarizer{chain: chain}
}

func (s *Summarizer) Summarize(ctx context.Context, history []Message, stats SummaryStats) SummaryData {
	transcript := fmt.Sprintf(`Conversation transcript:
%s

Tool calls made: %d
Appointments booked: %d
Appointments modified: %d
Appointments cancelled: %d`,
		formatHistory(history), stats.ToolCalls, stats.Booked, stats.Modified, stats.Cancelled)

	completion, err := s.chain.Complete(ctx, Request{
		System:    summaryPrompt,
		Messages:  []Message{{Role: RoleUser, Content: transcript}},
		MaxTokens: summaryMaxTokens,
	})
	if err != nil {
		log.Error().Err(err).Msg("summary generation failed")
		return SummaryData{
			Summary:     "Conversation completed.",
			KeyPoints:   []string{"Unable to generate detailed summary"},
			Preferences: map[string]any{},
		}
	}

	text := stripCodeFences(completion.Content)
	var data SummaryData
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &data); err != nil {
		log.Warn().Err(err).Msg("summary response was not valid JSON")
		short := completion.Content
		if len(short) > summaryContentCap {
			short = short[:summaryContentCap]
		}
		return SummaryData{
			Summary:     short,
			KeyPoints:   []string{"Conversation completed"},
			Preferences: map[string]any{},
		}
	}
	if data.Preferences == nil {
		data.Preferences = map[string]any{}
	}
	return data
}

// formatHistory renders the tail of the transcript, one capped line per turn.
func formatHistory(history []Message) string {
	start := 0
	if len(history) > summaryTailLen {
		start = len(history) - summaryTailLen
	}

	var lines []string
	for _, m := range history[start:] {
		content := m.Content
		if len(content) > summaryContentCap {
			content = content[:summaryContentCap]
		}
		lines = append(lines, fmt.Sprintf("%s: %s", strings.ToUpper(string(m.Role)), content))
	}
	return strings.Join(lines, "\n")
}

// stripCodeFences unwraps a JSON payload the model wrapped in markdown
// fences despite instructions.
func stripCodeFences(text string) string {
	if idx := strings.Index(text, "```json"); idx >= 0 {
		rest := text[idx+len("```json"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			return rest[:end]
		}
		return rest
	}
	if idx := strings.Index(text, "```"); idx >= 0 {
		rest := text[idx+3:]
		if end := strings.Index(rest, "```"); end >= 0 {
			return rest[:end]
		}
		return rest
	}
	return text
}
