package workdays

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay is a wall-clock time of day in whole seconds after midnight.
type TimeOfDay int32

// Clock returns the TimeOfDay for h:m:s.
func Clock(h, m, s int) TimeOfDay {
	return TimeOfDay(h*3600 + m*60 + s)
}

// ParseTimeOfDay parses "HH:MM" or "HH:MM:SS".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("%w: time of day %q", ErrInvalidArgument, s)
	}
	var v [3]int
	limits := [3]int{24, 60, 60}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n >= limits[i] {
			return 0, fmt.Errorf("%w: time of day %q", ErrInvalidArgument, s)
		}
		v[i] = n
	}
	return Clock(v[0], v[1], v[2]), nil
}

// Hour, Minute and Second split t into its clock components.
func (t TimeOfDay) Hour() int   { return int(t) / 3600 }
func (t TimeOfDay) Minute() int { return int(t) % 3600 / 60 }
func (t TimeOfDay) Second() int { return int(t) % 60 }

func (t TimeOfDay) String() string {
	if t.Second() == 0 {
		return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
	}
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour(), t.Minute(), t.Second())
}

// MarshalText encodes t as HH:MM[:SS].
func (t TimeOfDay) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText decodes HH:MM[:SS].
func (t *TimeOfDay) UnmarshalText(b []byte) error {
	v, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// SessionBorder is one intraday session [Start, End) that recurs on every
// business day.
type SessionBorder struct {
	Start TimeOfDay `json:"start" yaml:"start"`
	End   TimeOfDay `json:"end" yaml:"end"`
}

// Duration returns the length of the session.
func (s SessionBorder) Duration() time.Duration {
	return time.Duration(s.End-s.Start) * time.Second
}

func (s SessionBorder) String() string {
	return s.Start.String() + "-" + s.End.String()
}

// Config holds the inputs a Calendar is built from.
type Config struct {
	// HolidayStartYear and HolidayEndYear bound the holiday set; dates outside
	// [start-01-01, end-12-31] are dropped by Rebuild. Both zero disables the
	// filter.
	HolidayStartYear int
	HolidayEndYear   int

	Holidays         []Date
	ExcludedWeekdays []time.Weekday
	Sessions         []SessionBorder
}

// DefaultConfig returns a configuration with Saturday and Sunday excluded and
// two sessions, 09:00-11:30 and 12:30-15:00. It has no holidays.
func DefaultConfig() Config {
	return Config{
		ExcludedWeekdays: []time.Weekday{time.Saturday, time.Sunday},
		Sessions: []SessionBorder{
			{Start: Clock(9, 0, 0), End: Clock(11, 30, 0)},
			{Start: Clock(12, 30, 0), End: Clock(15, 0, 0)},
		},
	}
}

// Validate checks the configuration without building a Calendar.
func (c Config) Validate() error {
	if c.HolidayEndYear < c.HolidayStartYear {
		return fmt.Errorf("%w: holiday end year %d before start year %d",
			ErrConfiguration, c.HolidayEndYear, c.HolidayStartYear)
	}
	if len(c.Sessions) == 0 {
		return fmt.Errorf("%w: at least one session is required", ErrConfiguration)
	}
	for i, s := range c.Sessions {
		if s.Start < 0 || s.End >= secondsPerDay {
			return fmt.Errorf("%w: session %s outside 00:00-24:00", ErrConfiguration, s)
		}
		if s.Start >= s.End {
			return fmt.Errorf("%w: session %s starts at or after its end", ErrConfiguration, s)
		}
		if i > 0 && s.Start < c.Sessions[i-1].End {
			return fmt.Errorf("%w: session %s overlaps or precedes %s",
				ErrConfiguration, s, c.Sessions[i-1])
		}
	}
	var excluded [7]bool
	for _, w := range c.ExcludedWeekdays {
		if w < time.Sunday || w > time.Saturday {
			return fmt.Errorf("%w: weekday %d", ErrConfiguration, int(w))
		}
		excluded[w] = true
	}
	if !slices.Contains(excluded[:], false) {
		return fmt.Errorf("%w: every weekday is excluded", ErrConfiguration)
	}
	return nil
}

// Calendar is an immutable business-time calendar snapshot.
type Calendar struct {
	cfg      Config
	holidays map[int64]struct{}
	excluded [7]bool
	sessions []SessionBorder

	// inSession[s] is true when second-of-day s lies in some session.
	inSession []bool
}

// Rebuild validates cfg and builds a new Calendar from it. The Config is
// copied; later changes to its slices do not affect the Calendar.
func Rebuild(cfg Config) (*Calendar, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Calendar{
		holidays: make(map[int64]struct{}, len(cfg.Holidays)),
		sessions: slices.Clone(cfg.Sessions),
	}

	filter := cfg.HolidayStartYear != 0 || cfg.HolidayEndYear != 0
	holidays := make([]Date, 0, len(cfg.Holidays))
	for _, d := range cfg.Holidays {
		if filter && (d.Year < cfg.HolidayStartYear || d.Year > cfg.HolidayEndYear) {
			continue
		}
		n := d.num()
		if _, dup := c.holidays[n]; dup {
			continue
		}
		c.holidays[n] = struct{}{}
		holidays = append(holidays, d)
	}
	slices.SortFunc(holidays, Date.Compare)

	weekdays := make([]time.Weekday, 0, len(cfg.ExcludedWeekdays))
	for _, w := range cfg.ExcludedWeekdays {
		if !c.excluded[w] {
			c.excluded[w] = true
			weekdays = append(weekdays, w)
		}
	}
	slices.Sort(weekdays)

	c.inSession = make([]bool, secondsPerDay)
	for _, s := range c.sessions {
		for sec := s.Start; sec < s.End; sec++ {
			c.inSession[sec] = true
		}
	}

	c.cfg = Config{
		HolidayStartYear: cfg.HolidayStartYear,
		HolidayEndYear:   cfg.HolidayEndYear,
		Holidays:         holidays,
		ExcludedWeekdays: weekdays,
		Sessions:         slices.Clone(c.sessions),
	}
	return c, nil
}

// MustRebuild is like Rebuild but panics on error.
func MustRebuild(cfg Config) *Calendar {
	c, err := Rebuild(cfg)
	if err != nil {
		panic(err)
	}
	return c
}

// Config returns a copy of the configuration the calendar was built from,
// with holidays filtered to the year range and sorted.
func (c *Calendar) Config() Config {
	return Config{
		HolidayStartYear: c.cfg.HolidayStartYear,
		HolidayEndYear:   c.cfg.HolidayEndYear,
		Holidays:         slices.Clone(c.cfg.Holidays),
		ExcludedWeekdays: slices.Clone(c.cfg.ExcludedWeekdays),
		Sessions:         slices.Clone(c.cfg.Sessions),
	}
}

// Holidays returns the sorted holiday dates.
func (c *Calendar) Holidays() []Date { return slices.Clone(c.cfg.Holidays) }

// HolidaysBetween returns the sorted holidays in [start, end].
func (c *Calendar) HolidaysBetween(start, end Date) []Date {
	var out []Date
	for _, d := range c.cfg.Holidays {
		if d.Before(start) || d.After(end) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// ExcludedWeekdays returns the excluded weekdays in Sunday-first order.
func (c *Calendar) ExcludedWeekdays() []time.Weekday {
	return slices.Clone(c.cfg.ExcludedWeekdays)
}

// Sessions returns the session borders in ascending order.
func (c *Calendar) Sessions() []SessionBorder { return slices.Clone(c.sessions) }

// HolidayYears returns the configured holiday year range.
func (c *Calendar) HolidayYears() (start, end int) {
	return c.cfg.HolidayStartYear, c.cfg.HolidayEndYear
}

// ParseWeekday parses an English weekday name or its three-letter
// abbreviation, case-insensitively.
func ParseWeekday(s string) (time.Weekday, error) {
	ls := strings.ToLower(strings.TrimSpace(s))
	if len(ls) >= 3 {
		for w := time.Sunday; w <= time.Saturday; w++ {
			name := strings.ToLower(w.String())
			if ls == name || ls == name[:3] {
				return w, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: weekday %q", ErrInvalidArgument, s)
}
