package holiday

import (
	"context"
	"fmt"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"

	"workdays/pkg/workdays"
)

var _ Source = (*AlpacaSource)(nil)

// CalendarClient is the part of the Alpaca trading client used here.
type CalendarClient interface {
	GetCalendar(req alpaca.GetCalendarRequest) ([]alpaca.CalendarDay, error)
}

// AlpacaSource derives US market holidays from the Alpaca trading calendar:
// every Monday-Friday between the first and last listed trading day that is
// not itself listed is a holiday.
type AlpacaSource struct {
	client CalendarClient
}

// NewAlpacaSource creates an AlpacaSource for the given credentials.
func NewAlpacaSource(apiKey, apiSecret, baseURL string) *AlpacaSource {
	return NewAlpacaSourceWithClient(alpaca.NewClient(alpaca.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
		BaseURL:   baseURL,
	}))
}

// NewAlpacaSourceWithClient creates an AlpacaSource over an existing client.
func NewAlpacaSourceWithClient(c CalendarClient) *AlpacaSource {
	return &AlpacaSource{client: c}
}

// Name returns the source identifier.
func (s *AlpacaSource) Name() string { return "alpaca" }

// Holidays returns the weekday market closures in the year range. A range is
// required; the Alpaca calendar is finite.
func (s *AlpacaSource) Holidays(ctx context.Context, startYear, endYear int) ([]Holiday, error) {
	if startYear == 0 && endYear == 0 {
		return nil, fmt.Errorf("alpaca holidays need a year range")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	days, err := s.client.GetCalendar(alpaca.GetCalendarRequest{
		Start: time.Date(startYear, time.January, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(endYear, time.December, 31, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		return nil, fmt.Errorf("GetCalendar: %w", err)
	}
	if len(days) == 0 {
		return nil, nil
	}

	open := make(map[workdays.Date]bool, len(days))
	var first, last workdays.Date
	for i, day := range days {
		d, err := workdays.ParseDate(day.Date)
		if err != nil {
			return nil, fmt.Errorf("alpaca calendar: %w", err)
		}
		open[d] = true
		if i == 0 || d.Before(first) {
			first = d
		}
		if i == 0 || d.After(last) {
			last = d
		}
	}

	var out []Holiday
	for d := first; !d.After(last); d = d.AddDays(1) {
		if w := d.Weekday(); w == time.Saturday || w == time.Sunday || open[d] {
			continue
		}
		out = append(out, Holiday{Date: d, Name: "Market closed"})
	}
	return out, nil
}
