// Package schedule generates and validates bookable appointment slots.
//
// Weekday numbering follows the booking configuration convention:
// 0=Monday .. 6=Sunday.
package schedule

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	modelx "github.com/Satyam6024/superbryn-agent/agent/model"
)

// sameDayLeadTime is the minimum notice required for a booking today.
const sameDayLeadTime = time.Hour

type Config struct {
	BusinessHoursStart  int   `envconfig:"BUSINESS_HOURS_START" split_words:"true" default:"8"`
	BusinessHoursEnd    int   `envconfig:"BUSINESS_HOURS_END" split_words:"true" default:"20"`
	BusinessDays        []int `envconfig:"BUSINESS_DAYS" split_words:"true" default:"0,1,2,3,4,5"`
	BookingAdvanceDays  int   `envconfig:"BOOKING_ADVANCE_DAYS" split_words:"true" default:"30"`
	SlotDurationMinutes int   `envconfig:"SLOT_DURATION_MINUTES" split_words:"true" default:"30"`
}

// Generator enumerates candidate slots over the booking horizon. The clock is
// injectable so generation is deterministic under test.
type Generator struct {
	hoursStart      int
	hoursEnd        int
	days            map[int]bool
	advanceDays     int
	defaultDuration int

	now func() time.Time
}

func NewGenerator(cfg Config) *Generator {
	days := make(map[int]bool, len(cfg.BusinessDays))
	for _, d := range cfg.BusinessDays {
		days[d] = true
	}
	if len(days) == 0 {
		// Mon-Sat
		for d := 0; d <= 5; d++ {
			days[d] = true
		}
	}

	return &Generator{
		hoursStart:      cfg.BusinessHoursStart,
		hoursEnd:        cfg.BusinessHoursEnd,
		days:            days,
		advanceDays:     cfg.BookingAdvanceDays,
		defaultDuration: cfg.SlotDurationMinutes,
		now:             time.Now,
	}
}

// WithClock replaces the generator's clock. Test hook.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

func (g *Generator) DefaultDuration() int {
	return g.defaultDuration
}

// location resolves an IANA timezone name, falling back to UTC on anything
// unrecognized. Never fails.
func (g *Generator) location(tz string) *time.Location {
	if tz == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Warn().Str("timezone", tz).Msg("invalid timezone, using UTC")
		return time.UTC
	}
	return loc
}

// mondayWeekday converts Go's Sunday-based weekday to the 0=Monday scheme.
func mondayWeekday(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

// Generate enumerates every candidate slot in the booking horizon, marking
// the ones present in booked as unavailable. Output is ordered by day, then
// hour, then the two intra-hour offsets.
func (g *Generator) Generate(tz string, durationMinutes int, booked map[modelx.SlotKey]struct{}) []modelx.TimeSlot {
	duration := durationMinutes
	if duration <= 0 {
		duration = g.defaultDuration
	}

	loc := g.location(tz)
	now := g.now().In(loc)

	var slots []modelx.TimeSlot
	for offset := 0; offset < g.advanceDays; offset++ {
		day := now.AddDate(0, 0, offset)
		if !g.days[mondayWeekday(day.Weekday())] {
			continue
		}

		for hour := g.hoursStart; hour < g.hoursEnd; hour++ {
			for _, minute := range []int{0, 30} {
				endHour := hour + (minute+duration)/60
				endMinute := (minute + duration) % 60
				if endHour > g.hoursEnd || (endHour == g.hoursEnd && endMinute > 0) {
					continue
				}

				if offset == 0 {
					slotStart := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc)
					if !slotStart.After(now.Add(sameDayLeadTime)) {
						continue
					}
				}

				key := modelx.SlotKey{
					Date: day.Format("2006-01-02"),
					Time: fmt.Sprintf("%02d:%02d", hour, minute),
				}
				_, taken := booked[key]
				slots = append(slots, modelx.TimeSlot{
					Date:            key.Date,
					Time:            key.Time,
					DurationMinutes: duration,
					IsAvailable:     !taken,
				})
			}
		}
	}

	return slots
}

// Available returns only the free slots, optionally capped at limit
// (limit <= 0 means no cap).
func (g *Generator) Available(tz string, durationMinutes int, booked map[modelx.SlotKey]struct{}, limit int) []modelx.TimeSlot {
	all := g.Generate(tz, durationMinutes, booked)

	var available []modelx.TimeSlot
	for _, s := range all {
		if !s.IsAvailable {
			continue
		}
		available = append(available, s)
		if limit > 0 && len(available) == limit {
			break
		}
	}
	return available
}

// ForDate returns the free slots on one specific date.
func (g *Generator) ForDate(date, tz string, booked map[modelx.SlotKey]struct{}) []modelx.TimeSlot {
	var matched []modelx.TimeSlot
	for _, s := range g.Available(tz, 0, booked, 0) {
		if s.Date == date {
			matched = append(matched, s)
		}
	}
	return matched
}

// BookedSet indexes (date, time) pairs for the generator.
func BookedSet(keys []modelx.SlotKey) map[modelx.SlotKey]struct{} {
	set := make(map[modelx.SlotKey]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}
