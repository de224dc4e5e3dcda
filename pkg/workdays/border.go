package workdays

import (
	"fmt"
	"time"
)

// BorderKind classifies a Border.
type BorderKind int

const (
	SessionStart BorderKind = iota
	SessionEnd
	// InSession is returned by NearestBorder when the query instant is
	// already inside a session.
	InSession
)

func (k BorderKind) String() string {
	switch k {
	case SessionStart:
		return "start"
	case SessionEnd:
		return "end"
	case InSession:
		return "in_session"
	}
	return fmt.Sprintf("BorderKind(%d)", int(k))
}

// MarshalText encodes k by name.
func (k BorderKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText decodes a kind name written by MarshalText.
func (k *BorderKind) UnmarshalText(b []byte) error {
	for _, c := range []BorderKind{SessionStart, SessionEnd, InSession} {
		if c.String() == string(b) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("%w: border kind %q", ErrInvalidArgument, b)
}

// Border is a session start or end on a concrete business day.
type Border struct {
	Time time.Time
	Kind BorderKind
}

// point addresses a border: the session idx on business day day, at its
// start or its end.
type point struct {
	day int64
	idx int
	end bool
}

func (c *Calendar) sec(p point) int32 {
	if p.end {
		return int32(c.sessions[p.idx].End)
	}
	return int32(c.sessions[p.idx].Start)
}

func (c *Calendar) next(p point) point {
	switch {
	case !p.end:
		return point{day: p.day, idx: p.idx, end: true}
	case p.idx+1 < len(c.sessions):
		return point{day: p.day, idx: p.idx + 1}
	}
	return point{day: c.nextBusinessNum(p.day)}
}

func (c *Calendar) prev(p point) point {
	switch {
	case p.end:
		return point{day: p.day, idx: p.idx}
	case p.idx > 0:
		return point{day: p.day, idx: p.idx - 1, end: true}
	}
	return point{day: c.prevBusinessNum(p.day), idx: len(c.sessions) - 1, end: true}
}

func (c *Calendar) border(p point, loc *time.Location) Border {
	k := SessionStart
	if p.end {
		k = SessionEnd
	}
	return Border{Time: fromWall(p.day, c.sec(p), loc), Kind: k}
}

// after returns the first border strictly after (day, sec).
func (c *Calendar) after(day int64, sec int32) point {
	if c.isBusinessNum(day) {
		for i, s := range c.sessions {
			if int32(s.Start) > sec {
				return point{day: day, idx: i}
			}
			if int32(s.End) > sec {
				return point{day: day, idx: i, end: true}
			}
		}
	}
	return point{day: c.nextBusinessNum(day)}
}

// atOrBefore returns the last border at or before (day, sec).
func (c *Calendar) atOrBefore(day int64, sec int32) point {
	if c.isBusinessNum(day) {
		for i := len(c.sessions) - 1; i >= 0; i-- {
			s := c.sessions[i]
			if int32(s.End) <= sec {
				return point{day: day, idx: i, end: true}
			}
			if int32(s.Start) <= sec {
				return point{day: day, idx: i}
			}
		}
	}
	return point{day: c.prevBusinessNum(day), idx: len(c.sessions) - 1, end: true}
}

// session returns the index of the session containing sec in [start, end).
func (c *Calendar) session(day int64, sec int32) (int, bool) {
	if !c.isBusinessNum(day) {
		return 0, false
	}
	for i, s := range c.sessions {
		if int32(s.Start) <= sec && sec < int32(s.End) {
			return i, true
		}
	}
	return 0, false
}

// sessionClosed returns the index of the session containing sec in
// (start, end].
func (c *Calendar) sessionClosed(day int64, sec int32) (int, bool) {
	if !c.isBusinessNum(day) {
		return 0, false
	}
	for i, s := range c.sessions {
		if int32(s.Start) < sec && sec <= int32(s.End) {
			return i, true
		}
	}
	return 0, false
}

// IsInSession reports whether t falls on a business day inside a session.
// Sessions are half-open: the end instant is not in session.
func (c *Calendar) IsInSession(t time.Time) bool {
	_, ok := c.session(wall(t))
	return ok
}

// NextBorder returns the first border strictly after t. A query exactly on a
// border returns the following one.
func (c *Calendar) NextBorder(t time.Time) Border {
	day, sec := wall(t)
	return c.border(c.after(day, sec), t.Location())
}

// PreviousBorder returns the last border at or before t, except that when t
// is exactly a session start the border before it is returned instead. With
// forceStart set, a session end result is replaced by the start of the same
// session.
func (c *Calendar) PreviousBorder(t time.Time, forceStart bool) Border {
	return c.border(c.previous(t, forceStart), t.Location())
}

func (c *Calendar) previous(t time.Time, forceStart bool) point {
	day, sec := wall(t)
	p := c.atOrBefore(day, sec)
	if !p.end && c.sec(p) == sec {
		p = c.prev(p)
	}
	if forceStart && p.end {
		p = c.prev(p)
	}
	return p
}

// NearestBorder returns t itself with kind InSession when t is in session.
// Otherwise it returns NextBorder(t) when forward is set and
// PreviousBorder(t, false) when it is not.
func (c *Calendar) NearestBorder(t time.Time, forward bool) Border {
	if c.IsInSession(t) {
		return Border{Time: t, Kind: InSession}
	}
	if forward {
		return c.NextBorder(t)
	}
	return c.PreviousBorder(t, false)
}
