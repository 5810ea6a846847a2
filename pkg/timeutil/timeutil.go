// Package timeutil provides civil-calendar day bucketing for the progress engine.
// All aggregation windows are expressed in the configured IANA timezone, which is
// what learners actually see; naive UTC bucketing shifts evening practice onto the
// wrong calendar day for most of the Americas.
package timeutil

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
)

// DayKeyFormat is the canonical day-key layout (YYYY-MM-DD).
// Keys in this layout sort lexicographically in chronological order.
const DayKeyFormat = "2006-01-02"

// Window bounds for trailing day-key sequences.
const (
	MinWindowDays = 1
	MaxWindowDays = 180
)

// ClampWindowDays clamps a requested window length into [MinWindowDays, MaxWindowDays].
func ClampWindowDays(days int) int {
	if days < MinWindowDays {
		return MinWindowDays
	}
	if days > MaxWindowDays {
		return MaxWindowDays
	}
	return days
}

// Bucketer converts instants to civil-day keys in a single configured timezone.
// It is immutable and safe for concurrent use.
type Bucketer struct {
	loc *time.Location
}

// NewBucketer creates a Bucketer bound to the given location.
// A nil location falls back to UTC.
func NewBucketer(loc *time.Location) *Bucketer {
	if loc == nil {
		loc = time.UTC
	}
	return &Bucketer{loc: loc}
}

// Location returns the bucketer's timezone.
func (b *Bucketer) Location() *time.Location {
	return b.loc
}

// DayKey renders the civil date of an instant as observed in the configured
// timezone, format YYYY-MM-DD.
func (b *Bucketer) DayKey(t time.Time) string {
	return t.In(b.loc).Format(DayKeyFormat)
}

// StartOfDay returns civil midnight of the instant's date in the configured
// timezone. On dates where midnight does not exist (spring-forward), the
// location rules resolve it to the first valid instant of the day.
func (b *Bucketer) StartOfDay(t time.Time) time.Time {
	lt := t.In(b.loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, b.loc)
}

// StartOfNextDay returns civil midnight of the day after the instant's date.
func (b *Bucketer) StartOfNextDay(t time.Time) time.Time {
	lt := t.In(b.loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day()+1, 0, 0, 0, 0, b.loc)
}

// Noon returns local noon of the instant's date. Noon is the DST-safe anchor
// for date arithmetic: every civil day contains 12:00 even across transitions.
func (b *Bucketer) Noon(t time.Time) time.Time {
	lt := t.In(b.loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 12, 0, 0, 0, b.loc)
}

// DayStart parses a day key and returns civil midnight of that date.
func (b *Bucketer) DayStart(dayKey string) (time.Time, error) {
	t, err := time.ParseInLocation(DayKeyFormat, dayKey, b.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("timeutil: invalid day key %q: %w", dayKey, err)
	}
	return b.StartOfDay(t), nil
}

// TrailingDayKeys returns the `days` calendar dates ending at and including
// the date of `now`, oldest first. `days` is clamped to [1, 180]. The walk is
// done date-by-date through noon anchors so DST transitions never skip or
// duplicate a day.
func (b *Bucketer) TrailingDayKeys(days int, now time.Time) []string {
	days = ClampWindowDays(days)

	keys := make([]string, days)
	cur := b.Noon(now)
	for i := days - 1; i >= 0; i-- {
		keys[i] = cur.Format(DayKeyFormat)
		cur = b.prevNoon(cur)
	}
	return keys
}

// PreviousDayKey returns the calendar date immediately preceding dayKey.
func (b *Bucketer) PreviousDayKey(dayKey string) (string, error) {
	t, err := time.ParseInLocation(DayKeyFormat, dayKey, b.loc)
	if err != nil {
		return "", fmt.Errorf("timeutil: invalid day key %q: %w", dayKey, err)
	}
	return b.prevNoon(b.Noon(t)).Format(DayKeyFormat), nil
}

// prevNoon steps one calendar day backward from a noon anchor and re-anchors.
func (b *Bucketer) prevNoon(noon time.Time) time.Time {
	prev := noon.AddDate(0, 0, -1)
	return time.Date(prev.Year(), prev.Month(), prev.Day(), 12, 0, 0, 0, b.loc)
}

// ─────────────────────────────────────────────────────────────────────────────
// Day labels
// ─────────────────────────────────────────────────────────────────────────────

var labelLocales = []language.Tag{
	language.Spanish, // default: the service's primary audience
	language.English,
}

var labelMatcher = language.NewMatcher(labelLocales)

// Label formats a day key for presentation in the best-matching supported
// locale: day/month/year for Spanish (the default), month/day/year for
// English. Formatting anchors at local noon of the date.
func (b *Bucketer) Label(dayKey, locale string) string {
	t, err := time.ParseInLocation(DayKeyFormat, dayKey, b.loc)
	if err != nil {
		return dayKey
	}
	noon := b.Noon(t)

	tag, _ := language.MatchStrings(labelMatcher, locale)
	base, _ := tag.Base()
	if base.String() == "en" {
		return fmt.Sprintf("%d/%d/%d", int(noon.Month()), noon.Day(), noon.Year())
	}
	return fmt.Sprintf("%d/%d/%d", noon.Day(), int(noon.Month()), noon.Year())
}
