package localtime

import (
	"log/slog"
	"sync"
	"time"
)

const (
	MinutesPerDay = 24 * 60
	DateLayout    = "2006-01-02"
)

// LocalTime is an instant seen through an organization's wall clock.
type LocalTime struct {
	Instant       time.Time
	Year          int
	Month         time.Month
	Day           int
	Hour          int
	Minute        int
	Second        int
	Weekday       int // 1=Monday, ..., 7=Sunday
	MinuteOfDay   int
	OffsetMinutes int
	DayStart      time.Time // local midnight, as UTC
	Date          time.Time // calendar date, 00:00 UTC
}

// DateKey returns the local calendar date as YYYY-MM-DD.
func (l LocalTime) DateKey() string {
	return l.Date.Format(DateLayout)
}

// Resolver converts instants to organization-local calendar values.
// Unknown zone identifiers fall back to the default zone.
type Resolver struct {
	defaultZone *time.Location

	mu    sync.RWMutex
	zones map[string]*time.Location
}

func NewResolver(defaultZone string) *Resolver {
	loc, err := time.LoadLocation(defaultZone)
	if err != nil || defaultZone == "" {
		slog.Warn("LocalTime: invalid default timezone, using UTC", "timezone", defaultZone)
		loc = time.UTC
	}
	return &Resolver{
		defaultZone: loc,
		zones:       map[string]*time.Location{loc.String(): loc},
	}
}

// Location returns the zone for the identifier, or the default zone if it cannot be loaded.
func (r *Resolver) Location(zone string) *time.Location {
	if zone == "" {
		return r.defaultZone
	}

	r.mu.RLock()
	loc, ok := r.zones[zone]
	r.mu.RUnlock()
	if ok {
		return loc
	}

	loc, err := time.LoadLocation(zone)
	if err != nil {
		slog.Warn("LocalTime: invalid timezone, falling back to default",
			"timezone", zone,
			"default", r.defaultZone.String(),
			"error", err)
		loc = r.defaultZone
	}

	r.mu.Lock()
	r.zones[zone] = loc
	r.mu.Unlock()
	return loc
}

// Resolve splits t into local calendar fields for zone.
func (r *Resolver) Resolve(t time.Time, zone string) LocalTime {
	loc := r.Location(zone)
	local := t.In(loc)
	_, offsetSeconds := local.Zone()

	year, month, day := local.Date()
	weekday := int(local.Weekday())
	if weekday == 0 {
		weekday = 7
	}

	return LocalTime{
		Instant:       t,
		Year:          year,
		Month:         month,
		Day:           day,
		Hour:          local.Hour(),
		Minute:        local.Minute(),
		Second:        local.Second(),
		Weekday:       weekday,
		MinuteOfDay:   local.Hour()*60 + local.Minute(),
		OffsetMinutes: offsetSeconds / 60,
		DayStart:      time.Date(year, month, day, 0, 0, 0, 0, loc).UTC(),
		Date:          time.Date(year, month, day, 0, 0, 0, 0, time.UTC),
	}
}

// DayStart returns the UTC instant of local midnight on t's local date.
func (r *Resolver) DayStart(t time.Time, zone string) time.Time {
	return r.Resolve(t, zone).DayStart
}

// MinuteOfDay returns minutes since local midnight.
func (r *Resolver) MinuteOfDay(t time.Time, zone string) int {
	return r.Resolve(t, zone).MinuteOfDay
}

// OffsetMinutes returns the zone's UTC offset at t, DST included.
func (r *Resolver) OffsetMinutes(t time.Time, zone string) int {
	return r.Resolve(t, zone).OffsetMinutes
}

// At builds the instant for a local wall-clock minute on date. minuteOfDay may be
// negative or exceed a day; the overflow rolls into neighbouring dates.
func (r *Resolver) At(date time.Time, minuteOfDay int, zone string) time.Time {
	loc := r.Location(zone)
	dayOffset := minuteOfDay / MinutesPerDay
	rem := minuteOfDay % MinutesPerDay
	if rem < 0 {
		rem += MinutesPerDay
		dayOffset--
	}
	return time.Date(date.Year(), date.Month(), date.Day()+dayOffset, rem/60, rem%60, 0, 0, loc).UTC()
}

// Noon returns local 12:00 on date. Schedule lookups use it to stay clear of DST edges.
func (r *Resolver) Noon(date time.Time, zone string) time.Time {
	return r.At(date, 12*60, zone)
}

// Today returns the local calendar date of now.
func (r *Resolver) Today(now time.Time, zone string) time.Time {
	return r.Resolve(now, zone).Date
}

// SameDate reports whether two calendar dates are equal.
func SameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
