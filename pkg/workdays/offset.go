package workdays

import (
	"fmt"
	"strings"
	"time"
)

// Stamp is an instant read from outside the engine together with whether it
// carried an explicit UTC offset.
type Stamp struct {
	Time   time.Time
	Tagged bool
}

// Naive returns an untagged Stamp for the wall clock of t.
func Naive(t time.Time) Stamp {
	return Stamp{Time: stripZone(t)}
}

// Tagged returns a Stamp for t that keeps its offset.
func Tagged(t time.Time) Stamp {
	return Stamp{Time: t, Tagged: true}
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	time.DateOnly,
}

// ParseStamp parses an RFC 3339 instant, which is tagged, or one of the
// offset-free layouts YYYY-MM-DD[( |T)HH:MM[:SS]], which are not.
func ParseStamp(s string) (Stamp, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return Tagged(t), nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Naive(t), nil
		}
	}
	return Stamp{}, fmt.Errorf("%w: timestamp %q", ErrInvalidArgument, s)
}

// Zone is the offset shared by the tagged stamps of one call.
type Zone struct {
	Offset int
	Set    bool
}

// Attach returns the wall clock t with the zone's offset applied. An unset
// Zone returns t unchanged.
func (z Zone) Attach(t time.Time) time.Time {
	if !z.Set {
		return t
	}
	y, m, d := t.Date()
	h, mi, s := t.Clock()
	return time.Date(y, m, d, h, mi, s, t.Nanosecond(), time.FixedZone("", z.Offset))
}

// StripOffsets returns the wall clocks of stamps as offset-free UTC values
// along with their common offset. Tagged stamps with different offsets fail
// with ErrInconsistentInput; untagged stamps mix freely with tagged ones.
func StripOffsets(stamps ...Stamp) ([]time.Time, Zone, error) {
	var z Zone
	out := make([]time.Time, len(stamps))
	for i, s := range stamps {
		if s.Tagged {
			_, off := s.Time.Zone()
			if z.Set && off != z.Offset {
				return nil, Zone{}, fmt.Errorf("%w: offsets %s and %s in one call",
					ErrInconsistentInput, formatOffset(z.Offset), formatOffset(off))
			}
			z = Zone{Offset: off, Set: true}
		}
		out[i] = stripZone(s.Time)
	}
	return out, z, nil
}

func stripZone(t time.Time) time.Time {
	y, m, d := t.Date()
	h, mi, s := t.Clock()
	return time.Date(y, m, d, h, mi, s, t.Nanosecond(), time.UTC)
}

func formatOffset(off int) string {
	sign := '+'
	if off < 0 {
		sign = '-'
		off = -off
	}
	return fmt.Sprintf("%c%02d:%02d", sign, off/3600, off%3600/60)
}

// ParseStamps parses each string with ParseStamp and strips the offsets as
// StripOffsets does.
func ParseStamps(ss ...string) ([]time.Time, Zone, error) {
	stamps := make([]Stamp, len(ss))
	for i, s := range ss {
		st, err := ParseStamp(s)
		if err != nil {
			return nil, Zone{}, err
		}
		stamps[i] = st
	}
	return StripOffsets(stamps...)
}

// Format renders the wall clock t in RFC 3339 with the zone's offset, or
// without any offset when the zone is unset.
func (z Zone) Format(t time.Time) string {
	if !z.Set {
		return t.Format("2006-01-02T15:04:05")
	}
	return z.Attach(t).Format(time.RFC3339)
}
