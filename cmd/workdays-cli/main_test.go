package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"workdays/pkg/workdays"
)

func testBackend() backend {
	cfg := workdays.DefaultConfig()
	cfg.HolidayStartYear, cfg.HolidayEndYear = 2020, 2022
	cfg.Holidays = []workdays.Date{
		workdays.MustParseDate("2021-01-01"),
		workdays.MustParseDate("2021-01-11"),
	}
	return local{c: workdays.MustRebuild(cfg)}
}

func TestRun(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"is-business-day", "2021-01-11"}, "false"},
		{[]string{"next", "2021-01-08"}, "2021-01-12"},
		{[]string{"previous", "2021-01-12", "2"}, "2021-01-07"},
		{[]string{"nearest", "2021-01-10", "backward"}, "2021-01-08"},
		{[]string{"range", "2021-01-08", "2021-01-12", "both"}, "2021-01-08\n2021-01-12"},
		{[]string{"count", "2021-01-12", "-2"}, "2021-01-08\n2021-01-12"},
		{[]string{"in-session", "2021-01-04 10:00"}, "true"},
		{[]string{"next-border", "2021-01-08T15:00:00+09:00"}, "2021-01-12T09:00:00+09:00 start"},
		{[]string{"previous-border", "2021-01-04 12:00", "force"}, "2021-01-04T09:00:00 start"},
		{[]string{"nearest-border", "2021-01-04 12:00", "backward"}, "2021-01-04T11:30:00 end"},
		{[]string{"add", "2021-01-08 14:00", "2h"}, "2021-01-12T10:00:00"},
		{[]string{"subtract", "2021-01-12 10:00", "7200"}, "2021-01-08T14:00:00"},
		{[]string{"elapsed", "2021-01-08 14:00", "2021-01-12 10:00"}, "2h0m0s (7200 seconds)"},
	}
	b := testBackend()
	for _, tt := range tests {
		var out bytes.Buffer
		if err := run(context.Background(), &out, b, tt.args[0], tt.args[1:]); err != nil {
			t.Errorf("run(%v): %v", tt.args, err)
			continue
		}
		if got := strings.TrimSpace(out.String()); got != tt.want {
			t.Errorf("run(%v) = %q, want %q", tt.args, got, tt.want)
		}
	}
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		args []string
		want error
	}{
		{[]string{"bogus"}, errUsage},
		{[]string{"next"}, errUsage},
		{[]string{"count", "2021-01-04"}, errUsage},
		{[]string{"next", "2021-01-04", "0"}, workdays.ErrInvalidArgument},
		{[]string{"add", "2021-01-04 10:00", "soon"}, workdays.ErrInvalidArgument},
		{[]string{"elapsed", "2021-01-04T10:00:00+09:00", "2021-01-05T10:00:00Z"}, workdays.ErrInconsistentInput},
	}
	b := testBackend()
	for _, tt := range tests {
		err := run(context.Background(), &bytes.Buffer{}, b, tt.args[0], tt.args[1:])
		if !errors.Is(err, tt.want) {
			t.Errorf("run(%v) err = %v, want %v", tt.args, err, tt.want)
		}
	}
}
