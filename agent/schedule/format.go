package schedule

import (
	"fmt"
	"strings"
	"time"

	modelx "github.com/Satyam6024/superbryn-agent/agent/model"
)

// FormatForSpeech renders a capped subset of slots as one spoken sentence,
// grouped by date. Unparseable dates or times degrade to the raw string.
func FormatForSpeech(slots []modelx.TimeSlot, maxSlots int) string {
	if len(slots) == 0 {
		return "I don't have any available slots at the moment."
	}

	display := slots
	if maxSlots > 0 && len(display) > maxSlots {
		display = display[:maxSlots]
	}

	var dates []string
	byDate := make(map[string][]string)
	for _, s := range display {
		if _, seen := byDate[s.Date]; !seen {
			dates = append(dates, s.Date)
		}
		byDate[s.Date] = append(byDate[s.Date], s.Time)
	}

	var parts []string
	for _, date := range dates {
		friendlyDate := date
		if d, err := time.Parse("2006-01-02", date); err == nil {
			friendlyDate = d.Format("Monday, January 02")
		}

		times := byDate[date]
		formatted := make([]string, 0, len(times))
		for _, t := range times {
			formatted = append(formatted, FriendlyTime(t))
		}

		if len(formatted) == 1 {
			parts = append(parts, fmt.Sprintf("%s at %s", friendlyDate, formatted[0]))
		} else {
			joined := strings.Join(formatted[:len(formatted)-1], ", ") + " or " + formatted[len(formatted)-1]
			parts = append(parts, fmt.Sprintf("%s at %s", friendlyDate, joined))
		}
	}

	result := strings.Join(parts, "; ")
	if maxSlots > 0 && len(slots) > maxSlots {
		result += fmt.Sprintf(". I have %d more slots available if these don't work for you.", len(slots)-maxSlots)
	}
	return result
}

// FriendlyDate renders YYYY-MM-DD in long spoken form, or the raw string on
// parse failure.
func FriendlyDate(date string) string {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return d.Format("Monday, January 02")
}

// FriendlyTime renders HH:MM in 12-hour form, or the raw string on parse
// failure.
func FriendlyTime(t string) string {
	parsed, err := time.Parse("15:04", t)
	if err != nil {
		return t
	}
	return parsed.Format("3:04 PM")
}
