package schedule

import (
	"strings"
	"testing"

	modelx "github.com/Satyam6024/superbryn-agent/agent/model"
)

func TestFormatForSpeechEmpty(t *testing.T) {
	t.Parallel()

	got := FormatForSpeech(nil, 5)
	if got != "I don't have any available slots at the moment." {
		t.Fatalf("unexpected empty message: %q", got)
	}
}

func TestFormatForSpeechGroupsByDate(t *testing.T) {
	t.Parallel()

	slots := []modelx.TimeSlot{
		{Date: "2024-01-03", Time: "09:00"},
		{Date: "2024-01-03", Time: "09:30"},
		{Date: "2024-01-04", Time: "14:00"},
	}

	got := FormatForSpeech(slots, 5)
	if !strings.Contains(got, "Wednesday, January 03 at 9:00 AM or 9:30 AM") {
		t.Fatalf("missing grouped Wednesday times: %q", got)
	}
	if !strings.Contains(got, "Thursday, January 04 at 2:00 PM") {
		t.Fatalf("missing Thursday slot: %q", got)
	}
	if !strings.Contains(got, "; ") {
		t.Fatalf("dates not separated: %q", got)
	}
}

func TestFormatForSpeechOverflowTail(t *testing.T) {
	t.Parallel()

	slots := make([]modelx.TimeSlot, 8)
	for i := range slots {
		slots[i] = modelx.TimeSlot{Date: "2024-01-03", Time: "09:00"}
	}

	got := FormatForSpeech(slots, 5)
	if !strings.Contains(got, "I have 3 more slots available if these don't work for you.") {
		t.Fatalf("missing overflow tail: %q", got)
	}
}

func TestFriendlyTime(t *testing.T) {
	t.Parallel()

	if got := FriendlyTime("14:30"); got != "2:30 PM" {
		t.Fatalf("FriendlyTime(14:30) = %q", got)
	}
	if got := FriendlyTime("09:00"); got != "9:00 AM" {
		t.Fatalf("FriendlyTime(09:00) = %q", got)
	}
	if got := FriendlyTime("bogus"); got != "bogus" {
		t.Fatalf("FriendlyTime(bogus) = %q", got)
	}
}

func TestFriendlyDate(t *testing.T) {
	t.Parallel()

	if got := FriendlyDate("2024-01-03"); got != "Wednesday, January 03" {
		t.Fatalf("FriendlyDate = %q", got)
	}
	if got := FriendlyDate("not-a-date"); got != "not-a-date" {
		t.Fatalf("FriendlyDate fallback = %q", got)
	}
}
