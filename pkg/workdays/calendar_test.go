package workdays

import (
	"testing"
	"time"
)

var jp2021 = []string{
	"2021-01-01", "2021-01-11", "2021-02-11", "2021-02-23", "2021-03-20",
	"2021-04-29", "2021-05-03", "2021-05-04", "2021-05-05", "2021-07-22",
	"2021-07-23", "2021-08-08", "2021-08-09", "2021-09-20", "2021-09-23",
	"2021-11-03", "2021-11-23",
}

// newTestCalendar returns the default calendar with the 2021 Japanese
// national holidays.
func newTestCalendar(t *testing.T) *Calendar {
	t.Helper()
	cfg := DefaultConfig()
	cfg.HolidayStartYear = 2020
	cfg.HolidayEndYear = 2022
	for _, s := range jp2021 {
		cfg.Holidays = append(cfg.Holidays, MustParseDate(s))
	}
	cal, err := Rebuild(cfg)
	if err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	return cal
}

func at(s string) time.Time {
	t, err := time.Parse("2006-01-02 15:04", s)
	if err != nil {
		panic(err)
	}
	return t
}
