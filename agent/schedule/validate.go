package schedule

import (
	"fmt"
	"time"
)

// Validate checks whether a (date, time) pair is a bookable slot for the
// given timezone. It returns (false, message) with a user-speakable message
// for any rejection; the message is empty when the slot is valid.
func (g *Generator) Validate(date, timeStr, tz string) (bool, string) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return false, "Invalid date format. Please use YYYY-MM-DD."
	}

	clock, err := time.Parse("15:04", timeStr)
	if err != nil {
		return false, "Invalid time format. Please use HH:MM."
	}

	if clock.Hour() < g.hoursStart || clock.Hour() >= g.hoursEnd {
		return false, fmt.Sprintf("That time is outside business hours (%d:00 - %d:00).", g.hoursStart, g.hoursEnd)
	}

	if !g.days[mondayWeekday(day.Weekday())] {
		return false, "That date is not a business day. We're open Monday through Saturday."
	}

	loc := g.location(tz)
	now := g.now().In(loc)
	slotStart := time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, loc)

	if !slotStart.After(now) {
		return false, "That time is in the past. Please choose a future time."
	}

	maxDay := now.AddDate(0, 0, g.advanceDays)
	horizon := time.Date(maxDay.Year(), maxDay.Month(), maxDay.Day(), 0, 0, 0, 0, loc)
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	if dayStart.After(horizon) {
		return false, fmt.Sprintf("That's too far in advance. You can book up to %d days ahead.", g.advanceDays)
	}

	return true, ""
}
