package workdays

import (
	"fmt"
	"time"
)

// cursor is an in-session position: second sec of session idx on day.
type cursor struct {
	day int64
	idx int
	sec int32
}

// anchorForward keeps an instant inside [start, end) and moves anything else
// to the next session start.
func (c *Calendar) anchorForward(t time.Time) cursor {
	day, sec := wall(t)
	if i, ok := c.session(day, sec); ok {
		return cursor{day: day, idx: i, sec: sec}
	}
	p := c.after(day, sec)
	return cursor{day: p.day, idx: p.idx, sec: c.sec(p)}
}

// anchorBackward keeps an instant inside (start, end] and moves anything else
// to the previous session end.
func (c *Calendar) anchorBackward(t time.Time) cursor {
	day, sec := wall(t)
	if i, ok := c.sessionClosed(day, sec); ok {
		return cursor{day: day, idx: i, sec: sec}
	}
	p := c.previous(t, false)
	return cursor{day: p.day, idx: p.idx, sec: c.sec(p)}
}

func (c *Calendar) nextStart(cur cursor) cursor {
	p := c.next(point{day: cur.day, idx: cur.idx, end: true})
	return cursor{day: p.day, idx: p.idx, sec: c.sec(p)}
}

func (c *Calendar) prevEnd(cur cursor) cursor {
	p := c.prev(point{day: cur.day, idx: cur.idx})
	return cursor{day: p.day, idx: p.idx, sec: c.sec(p)}
}

func seconds(d time.Duration) int64 { return int64(d / time.Second) }

// Add advances t by d of business time. An instant outside a session is
// first moved to the next session start. When d exactly exhausts a session
// the result is the start of the following session, never the end border.
// Sub-second parts of t and d are dropped.
func (c *Calendar) Add(t time.Time, d time.Duration) (time.Time, error) {
	if d < 0 {
		return time.Time{}, fmt.Errorf("%w: negative duration %s", ErrInvalidArgument, d)
	}
	rem := seconds(d)
	cur := c.anchorForward(t)
	for {
		left := int64(c.sessions[cur.idx].End) - int64(cur.sec)
		if rem < left {
			return fromWall(cur.day, cur.sec+int32(rem), t.Location()), nil
		}
		rem -= left
		cur = c.nextStart(cur)
	}
}

// Subtract moves t back by d of business time. An instant outside a session
// is first moved to the previous session end. A session start counts as
// outside unless d is zero, so that an in-session t is returned unchanged.
// When d exactly exhausts a session the result is that session's start.
func (c *Calendar) Subtract(t time.Time, d time.Duration) (time.Time, error) {
	if d < 0 {
		return time.Time{}, fmt.Errorf("%w: negative duration %s", ErrInvalidArgument, d)
	}
	rem := seconds(d)
	if rem == 0 && c.IsInSession(t) {
		day, sec := wall(t)
		return fromWall(day, sec, t.Location()), nil
	}
	cur := c.anchorBackward(t)
	for {
		since := int64(cur.sec) - int64(c.sessions[cur.idx].Start)
		if rem <= since {
			return fromWall(cur.day, cur.sec-int32(rem), t.Location()), nil
		}
		rem -= since
		cur = c.prevEnd(cur)
	}
}

// Elapsed returns the business time between start and end in whole seconds.
// start is anchored the way Add anchors its input and end the way Subtract
// does, so out-of-session stretches at either end contribute nothing.
func (c *Calendar) Elapsed(start, end time.Time) (time.Duration, error) {
	sd, ss := wall(start)
	ed, es := wall(end)
	if ed < sd || (ed == sd && es < ss) {
		return 0, fmt.Errorf("%w: end %s before start %s", ErrInvalidArgument,
			end.Format(time.DateTime), start.Format(time.DateTime))
	}

	from := c.anchorForward(start)
	to := c.anchorBackward(end)
	if !from.before(to) {
		return 0, nil
	}

	var total int64
	for cur := from; ; cur = c.nextStart(cur) {
		if cur.day == to.day && cur.idx == to.idx {
			total += int64(to.sec - cur.sec)
			break
		}
		total += int64(c.sessions[cur.idx].End) - int64(cur.sec)
	}
	return time.Duration(total) * time.Second, nil
}

func (a cursor) before(b cursor) bool {
	if a.day != b.day {
		return a.day < b.day
	}
	return a.sec < b.sec
}
