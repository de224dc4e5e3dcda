package workdays

import (
	"fmt"
	"strings"
	"time"
)

// MaskKind selects which predicate a bulk mask evaluates.
type MaskKind int

const (
	// MaskDay flags timestamps on business days.
	MaskDay MaskKind = iota
	// MaskSession flags timestamps whose time of day lies in a session,
	// whatever the day.
	MaskSession
	// MaskDaySession flags timestamps on business days inside a session.
	MaskDaySession
)

var maskKindNames = [...]string{"day", "session", "day_session"}

func (k MaskKind) String() string {
	if k < 0 || int(k) >= len(maskKindNames) {
		return fmt.Sprintf("MaskKind(%d)", int(k))
	}
	return maskKindNames[k]
}

// ParseMaskKind parses "day", "session" or "day_session" ("both" is accepted
// for the latter).
func ParseMaskKind(s string) (MaskKind, error) {
	ls := strings.ToLower(strings.TrimSpace(s))
	if ls == "both" {
		return MaskDaySession, nil
	}
	for i, name := range maskKindNames {
		if ls == name {
			return MaskKind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: mask kind %q", ErrInvalidArgument, s)
}

// yearBits flags business days for one calendar year.
type yearBits struct {
	first, last int64
	bits        []bool
}

// dayTable builds yearBits lazily for the years a mask touches, so sparse
// inputs spanning centuries cost one table per distinct year.
type dayTable struct {
	c     *Calendar
	years map[int]*yearBits
	cur   *yearBits
}

func (c *Calendar) newDayTable() *dayTable {
	return &dayTable{c: c, years: make(map[int]*yearBits)}
}

func (t *dayTable) business(day int64) bool {
	if t.cur == nil || day < t.cur.first || day > t.cur.last {
		y := dateOfNum(day).Year
		yb, ok := t.years[y]
		if !ok {
			first := Date{Year: y, Month: time.January, Day: 1}.num()
			last := Date{Year: y, Month: time.December, Day: 31}.num()
			yb = &yearBits{first: first, last: last, bits: make([]bool, last-first+1)}
			for i := range yb.bits {
				yb.bits[i] = t.c.isBusinessNum(first + int64(i))
			}
			t.years[y] = yb
		}
		t.cur = yb
	}
	return t.cur.bits[day-t.cur.first]
}

// MaskUnix evaluates kind over wall-clock timestamps given as seconds since
// 1970-01-01T00:00:00 without any offset applied. The result has the same
// length as ts. Each element costs two table lookups once the business-day
// table for its year has been built.
func (c *Calendar) MaskUnix(ts []int64, kind MaskKind) ([]bool, error) {
	if kind < MaskDay || kind > MaskDaySession {
		return nil, fmt.Errorf("%w: mask kind %d", ErrInvalidArgument, int(kind))
	}
	out := make([]bool, len(ts))
	if len(ts) == 0 {
		return out, nil
	}

	days := c.newDayTable()
	for i, v := range ts {
		day := floorDiv(v, secondsPerDay)
		sec := v - day*secondsPerDay
		switch kind {
		case MaskDay:
			out[i] = days.business(day)
		case MaskSession:
			out[i] = c.inSession[sec]
		case MaskDaySession:
			out[i] = c.inSession[sec] && days.business(day)
		}
	}
	return out, nil
}

// Mask evaluates kind over ts using each instant's wall clock.
func (c *Calendar) Mask(ts []time.Time, kind MaskKind) ([]bool, error) {
	return c.MaskUnix(WallSeconds(ts), kind)
}

// MaskBusinessDays flags the instants of ts that fall on business days.
func (c *Calendar) MaskBusinessDays(ts []time.Time) []bool {
	m, _ := c.Mask(ts, MaskDay)
	return m
}

// MaskSessions flags the instants of ts whose time of day is in a session.
func (c *Calendar) MaskSessions(ts []time.Time) []bool {
	m, _ := c.Mask(ts, MaskSession)
	return m
}

// MaskBusinessSessions flags the instants of ts that are in session on a
// business day.
func (c *Calendar) MaskBusinessSessions(ts []time.Time) []bool {
	m, _ := c.Mask(ts, MaskDaySession)
	return m
}

// WallSeconds converts instants to wall-clock seconds since the epoch,
// ignoring their offsets.
func WallSeconds(ts []time.Time) []int64 {
	out := make([]int64, len(ts))
	for i, t := range ts {
		_, off := t.Zone()
		out[i] = t.Unix() + int64(off)
	}
	return out
}
