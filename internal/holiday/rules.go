package holiday

import (
	"context"
	"fmt"
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"

	"workdays/pkg/workdays"
)

var _ Source = (*RuleSource)(nil)

var ruleSets = map[string][]*cal.Holiday{
	"us": {
		us.NewYear,
		us.MlkDay,
		us.PresidentsDay,
		us.MemorialDay,
		us.Juneteenth,
		us.IndependenceDay,
		us.LaborDay,
		us.ThanksgivingDay,
		us.ChristmasDay,
	},
}

// RuleSource computes holidays from a named rule set instead of a list.
// Holidays falling on a weekend are reported on their observed date.
type RuleSource struct {
	set string
	bc  *cal.BusinessCalendar
}

// NewRuleSource returns the RuleSource for set. The only set is "us", the US
// federal holidays.
func NewRuleSource(set string) (*RuleSource, error) {
	rules, ok := ruleSets[set]
	if !ok {
		return nil, fmt.Errorf("%w: holiday rule set %q", workdays.ErrInvalidArgument, set)
	}
	bc := cal.NewBusinessCalendar()
	bc.AddHoliday(rules...)
	return &RuleSource{set: set, bc: bc}, nil
}

// Name returns the source identifier.
func (s *RuleSource) Name() string { return "rules:" + s.set }

// Holidays evaluates the rules for every day of the year range.
func (s *RuleSource) Holidays(ctx context.Context, startYear, endYear int) ([]Holiday, error) {
	if startYear == 0 && endYear == 0 {
		return nil, fmt.Errorf("rule holidays need a year range")
	}
	var out []Holiday
	for year := startYear; year <= endYear; year++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for t := time.Date(year, time.January, 1, 12, 0, 0, 0, time.UTC); t.Year() == year; t = t.AddDate(0, 0, 1) {
			_, observed, h := s.bc.IsHoliday(t)
			if !observed || h == nil {
				continue
			}
			out = append(out, Holiday{Date: workdays.DateOf(t), Name: h.Name})
		}
	}
	return out, nil
}
