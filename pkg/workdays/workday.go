package workdays

import (
	"fmt"
	"strings"
)

// Boundary selects which ends of a date range are included.
type Boundary int

const (
	// Left includes start and excludes end: [start, end).
	Left Boundary = iota
	// Right excludes start and includes end: (start, end].
	Right
	// Both includes both ends: [start, end].
	Both
	// Neither excludes both ends: (start, end).
	Neither
)

var boundaryNames = [...]string{"left", "right", "both", "neither"}

func (b Boundary) String() string {
	if b < 0 || int(b) >= len(boundaryNames) {
		return fmt.Sprintf("Boundary(%d)", int(b))
	}
	return boundaryNames[b]
}

// ParseBoundary parses "left", "right", "both" or "neither".
func ParseBoundary(s string) (Boundary, error) {
	ls := strings.ToLower(strings.TrimSpace(s))
	for i, name := range boundaryNames {
		if ls == name {
			return Boundary(i), nil
		}
	}
	return 0, fmt.Errorf("%w: boundary %q", ErrInvalidArgument, s)
}

// Direction selects the walking direction of NearestBusinessDay.
type Direction int

const (
	Forward Direction = iota
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// ParseDirection parses "forward"/"next" or "backward"/"previous".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "forward", "next":
		return Forward, nil
	case "backward", "previous", "prev":
		return Backward, nil
	}
	return 0, fmt.Errorf("%w: direction %q", ErrInvalidArgument, s)
}

// IsBusinessDay reports whether d is neither an excluded weekday nor a
// holiday.
func (c *Calendar) IsBusinessDay(d Date) bool {
	return c.isBusinessNum(d.num())
}

func (c *Calendar) isBusinessNum(n int64) bool {
	if c.excluded[weekdayOf(n)] {
		return false
	}
	_, holiday := c.holidays[n]
	return !holiday
}

func (c *Calendar) nextBusinessNum(n int64) int64 {
	for {
		n++
		if c.isBusinessNum(n) {
			return n
		}
	}
}

func (c *Calendar) prevBusinessNum(n int64) int64 {
	for {
		n--
		if c.isBusinessNum(n) {
			return n
		}
	}
}

// NextBusinessDay returns the n-th business day after d. d itself is never
// counted.
func (c *Calendar) NextBusinessDay(d Date, n int) (Date, error) {
	if n <= 0 {
		return Date{}, fmt.Errorf("%w: business day count %d must be positive", ErrInvalidArgument, n)
	}
	num := d.num()
	for range n {
		num = c.nextBusinessNum(num)
	}
	return dateOfNum(num), nil
}

// PreviousBusinessDay returns the n-th business day before d. d itself is
// never counted.
func (c *Calendar) PreviousBusinessDay(d Date, n int) (Date, error) {
	if n <= 0 {
		return Date{}, fmt.Errorf("%w: business day count %d must be positive", ErrInvalidArgument, n)
	}
	num := d.num()
	for range n {
		num = c.prevBusinessNum(num)
	}
	return dateOfNum(num), nil
}

// NearestBusinessDay returns d if it is a business day, otherwise the first
// business day found walking in dir.
func (c *Calendar) NearestBusinessDay(d Date, dir Direction) Date {
	num := d.num()
	if c.isBusinessNum(num) {
		return d
	}
	if dir == Backward {
		return dateOfNum(c.prevBusinessNum(num))
	}
	return dateOfNum(c.nextBusinessNum(num))
}

// BusinessDaysInRange returns, in ascending order, the business days between
// start and end with the ends included according to b.
func (c *Calendar) BusinessDaysInRange(start, end Date, b Boundary) []Date {
	return c.daysInRange(start, end, b, true)
}

// NonBusinessDaysInRange is the complement of BusinessDaysInRange over the
// same range.
func (c *Calendar) NonBusinessDaysInRange(start, end Date, b Boundary) []Date {
	return c.daysInRange(start, end, b, false)
}

func (c *Calendar) daysInRange(start, end Date, b Boundary, business bool) []Date {
	lo, hi := start.num(), end.num()
	if b == Right || b == Neither {
		lo++
	}
	if b == Left || b == Neither {
		hi--
	}
	var out []Date
	for n := lo; n <= hi; n++ {
		if c.isBusinessNum(n) == business {
			out = append(out, dateOfNum(n))
		}
	}
	return out
}

// BusinessDaysCount returns |n| consecutive business days anchored at start,
// in ascending order. For n > 0 the days run forward and include start when
// it is a business day, ending just before NextBusinessDay(start, n);
// otherwise they end at NextBusinessDay(start, n). For n < 0 the walk is
// mirrored backward from start.
func (c *Calendar) BusinessDaysCount(start Date, n int) ([]Date, error) {
	switch {
	case n > 0:
		end, err := c.NextBusinessDay(start, n)
		if err != nil {
			return nil, err
		}
		if c.IsBusinessDay(start) {
			return c.BusinessDaysInRange(start, end, Left), nil
		}
		return c.BusinessDaysInRange(start, end, Both), nil
	case n < 0:
		begin, err := c.PreviousBusinessDay(start, -n)
		if err != nil {
			return nil, err
		}
		if c.IsBusinessDay(start) {
			return c.BusinessDaysInRange(begin, start, Right), nil
		}
		return c.BusinessDaysInRange(begin, start, Both), nil
	}
	return nil, fmt.Errorf("%w: business day count must not be zero", ErrInvalidArgument)
}
