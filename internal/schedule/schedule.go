// Package schedule holds the business-time clock and the canonical slot form
// used to compare appointments.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

const (
	// DefaultTimezone is the zone all business-time comparisons use.
	DefaultTimezone = "Australia/Sydney"

	dateLayout = "2006-01-02"
	slotLayout = "2006-01-02 15:04"
)

// SummaryTimes is the representative grid used for availability digests.
var SummaryTimes = []string{"09:00", "11:00", "13:00", "15:00"}

// Slot is an appointment slot in canonical "YYYY-MM-DD HH:mm" form. Slots are
// opaque once created: equality is string equality.
type Slot string

func (s Slot) String() string { return string(s) }

// Date returns the calendar-date half of the slot.
func (s Slot) Date() string {
	date, _, _ := strings.Cut(string(s), " ")
	return date
}

// Clock returns "now" in business time.
type Clock interface {
	Now() time.Time
	Location() *time.Location
}

// SystemClock reads the wall clock and converts it into the business zone.
type SystemClock struct {
	loc *time.Location
}

// NewSystemClock builds a clock for the named zone, falling back to UTC when
// the zone cannot be loaded.
func NewSystemClock(timezone string) *SystemClock {
	return &SystemClock{loc: BusinessLocation(timezone)}
}

func (c *SystemClock) Now() time.Time { return time.Now().In(c.Location()) }

func (c *SystemClock) Location() *time.Location {
	if c == nil || c.loc == nil {
		return time.UTC
	}
	return c.loc
}

// FixedClock always reports the same instant.
type FixedClock struct {
	At time.Time
}

func (c FixedClock) Now() time.Time { return c.At }

func (c FixedClock) Location() *time.Location { return c.At.Location() }

// BusinessLocation returns the *time.Location for a timezone string.
// Falls back to UTC if the timezone is invalid or empty.
func BusinessLocation(timezone string) *time.Location {
	if strings.TrimSpace(timezone) == "" {
		timezone = DefaultTimezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// NormalizeSlot builds the canonical slot string from a date and a time of day.
// Accepts "H:mm", "HH:mm" and "HH:mm:ss" for the time.
func NormalizeSlot(date, clock string) (Slot, error) {
	d, err := time.Parse(dateLayout, strings.TrimSpace(date))
	if err != nil {
		return "", fmt.Errorf("schedule: invalid date %q", date)
	}
	hour, minute, err := parseClock(clock)
	if err != nil {
		return "", err
	}
	return Slot(fmt.Sprintf("%s %02d:%02d", d.Format(dateLayout), hour, minute)), nil
}

// ParseSlot normalizes a combined date-time string such as
// "2025-05-20 09:00", "2025-05-20T9:00" or "2025-05-20 09:00:00".
func ParseSlot(raw string) (Slot, error) {
	raw = strings.TrimSpace(raw)
	date, clock, ok := strings.Cut(raw, " ")
	if !ok {
		date, clock, ok = strings.Cut(raw, "T")
	}
	if !ok {
		return "", fmt.Errorf("schedule: slot %q needs a date and a time", raw)
	}
	return NormalizeSlot(date, clock)
}

// MustSlot is ParseSlot for literals known to be valid.
func MustSlot(raw string) Slot {
	s, err := ParseSlot(raw)
	if err != nil {
		panic(err)
	}
	return s
}

func parseClock(clock string) (int, int, error) {
	parts := strings.Split(strings.TrimSpace(clock), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, 0, fmt.Errorf("schedule: invalid time %q", clock)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("schedule: invalid hour in %q", clock)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 || len(parts[1]) != 2 {
		return 0, 0, fmt.Errorf("schedule: invalid minute in %q", clock)
	}
	return hour, minute, nil
}

// NextNDays returns n calendar dates starting with today in business time.
func NextNDays(c Clock, n int) []string {
	if n <= 0 {
		return nil
	}
	now := c.Now().In(c.Location())
	start := time.Date(now.Year(), now.Month(), now.Day(), 12, 0, 0, 0, c.Location())
	days := make([]string, 0, n)
	for i := 0; i < n; i++ {
		days = append(days, start.AddDate(0, 0, i).Format(dateLayout))
	}
	return days
}

// WithinBusinessHours reports whether the slot starts between 09:00 and 17:00.
func WithinBusinessHours(s Slot) bool {
	t, err := time.Parse(slotLayout, string(s))
	if err != nil {
		return false
	}
	minutes := t.Hour()*60 + t.Minute()
	return minutes >= 9*60 && minutes <= 17*60
}

// Stamp formats an instant for audit fields (notes, created-at) in business time.
func Stamp(c Clock) string {
	return c.Now().In(c.Location()).Format(time.RFC3339)
}

// HumanNow renders the current business time for AI directives,
// e.g. "Tuesday, 20 May 2025 09:00 AEST".
func HumanNow(c Clock) string {
	return c.Now().In(c.Location()).Format("Monday, 2 January 2006 15:04 MST")
}
