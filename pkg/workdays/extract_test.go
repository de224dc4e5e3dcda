package workdays

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func fiveMinuteSeries(from, to time.Time) []time.Time {
	var ts []time.Time
	for t := from; t.Before(to); t = t.Add(5 * time.Minute) {
		ts = append(ts, t)
	}
	return ts
}

func selected(ts []time.Time, mask []bool) []time.Time {
	var out []time.Time
	for i, ok := range mask {
		if ok {
			out = append(out, ts[i])
		}
	}
	return out
}

func TestMaskMatchesArithmetic(t *testing.T) {
	cal := newTestCalendar(t)
	from, to := at("2021-01-01 00:00"), at("2021-02-01 00:00")
	series := fiveMinuteSeries(from, to)
	got := selected(series, cal.MaskBusinessSessions(series))

	if len(got) == 0 || !got[0].Equal(at("2021-01-04 09:00")) {
		t.Fatalf("first in-session timestamp = %v, want 2021-01-04 09:00", got[:min(1, len(got))])
	}

	var forward []time.Time
	cur, _ := cal.Add(from, 0)
	for cur.Before(to) {
		forward = append(forward, cur)
		cur, _ = cal.Add(cur, 5*time.Minute)
	}
	if diff := cmp.Diff(forward, got); diff != "" {
		t.Errorf("mask vs Add sequence mismatch (-add +mask):\n%s", diff)
	}

	var backward []time.Time
	cur, _ = cal.Subtract(to, 5*time.Minute)
	for !cur.Before(from) {
		backward = append(backward, cur)
		cur, _ = cal.Subtract(cur, 5*time.Minute)
	}
	slices.Reverse(backward)
	if diff := cmp.Diff(backward, got); diff != "" {
		t.Errorf("mask vs Subtract sequence mismatch (-subtract +mask):\n%s", diff)
	}
}

func TestMaskCombinedIsConjunction(t *testing.T) {
	cal := newTestCalendar(t)
	series := fiveMinuteSeries(at("2020-12-25 00:00"), at("2021-01-15 00:00"))
	day := cal.MaskBusinessDays(series)
	sess := cal.MaskSessions(series)
	both := cal.MaskBusinessSessions(series)
	for i := range series {
		if both[i] != (day[i] && sess[i]) {
			t.Fatalf("mask at %s: both=%v day=%v session=%v", series[i], both[i], day[i], sess[i])
		}
		if both[i] != cal.IsInSession(series[i]) {
			t.Fatalf("mask at %s = %v, IsInSession disagrees", series[i], both[i])
		}
		if day[i] != cal.IsBusinessDay(DateOf(series[i])) {
			t.Fatalf("day mask at %s = %v, IsBusinessDay disagrees", series[i], day[i])
		}
	}
}

func TestMaskSessionIgnoresDay(t *testing.T) {
	cal := newTestCalendar(t)
	ts := []time.Time{at("2021-01-01 10:00"), at("2021-01-01 12:00"), at("2021-01-04 10:00")}
	want := []bool{true, false, true}
	if diff := cmp.Diff(want, cal.MaskSessions(ts)); diff != "" {
		t.Errorf("MaskSessions mismatch (-want +got):\n%s", diff)
	}
}

func TestMaskUnix(t *testing.T) {
	cal := newTestCalendar(t)

	got, err := cal.MaskUnix(nil, MaskDay)
	if err != nil || len(got) != 0 {
		t.Errorf("MaskUnix(nil) = %v, %v", got, err)
	}

	// Unordered input spanning a year boundary and the epoch.
	ts := []int64{
		at("2021-01-04 10:00").Unix(),
		at("1969-12-31 10:00").Unix(),
		at("2020-12-31 10:00").Unix(),
		at("2021-01-01 10:00").Unix(),
	}
	got, err = cal.MaskUnix(ts, MaskDaySession)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]bool{true, true, true, false}, got); diff != "" {
		t.Errorf("MaskUnix mismatch (-want +got):\n%s", diff)
	}

	if _, err := cal.MaskUnix(ts, MaskKind(9)); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("MaskUnix(bad kind) err = %v", err)
	}
}

func TestMaskUnixSparseYears(t *testing.T) {
	cal := newTestCalendar(t)

	// Points roughly 35 million years apart build one table per year.
	far := int64(1) << 50
	ts := []int64{0, at("2021-01-04 10:00").Unix(), far}
	got, err := cal.MaskUnix(ts, MaskDay)
	if err != nil {
		t.Fatal(err)
	}
	want := []bool{cal.isBusinessNum(0), true, cal.isBusinessNum(floorDiv(far, secondsPerDay))}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("MaskUnix mismatch (-want +got):\n%s", diff)
	}

	times := []time.Time{
		at("1900-01-01 10:00"),
		at("2400-02-29 10:00"),
		at("1900-01-02 10:00"),
		at("2021-01-01 10:00"),
		at("2400-03-04 10:00"),
	}
	got, err = cal.MaskUnix(WallSeconds(times), MaskDay)
	if err != nil {
		t.Fatal(err)
	}
	for i, ts := range times {
		if want := cal.IsBusinessDay(DateOf(ts)); got[i] != want {
			t.Errorf("day mask at %s = %v, want %v", ts, got[i], want)
		}
	}
}

func TestMaskUsesWallClock(t *testing.T) {
	cal := newTestCalendar(t)
	tokyo := time.FixedZone("JST", 9*3600)
	ts := []time.Time{time.Date(2021, 1, 4, 9, 0, 0, 0, tokyo)}
	if got := cal.MaskBusinessSessions(ts); !got[0] {
		t.Error("09:00 JST should be in session by its wall clock")
	}
}

func TestParseMaskKind(t *testing.T) {
	for in, want := range map[string]MaskKind{"day": MaskDay, "session": MaskSession, "both": MaskDaySession, "day_session": MaskDaySession} {
		if got, err := ParseMaskKind(in); err != nil || got != want {
			t.Errorf("ParseMaskKind(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseMaskKind("index"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("ParseMaskKind(index) err = %v", err)
	}
}

func BenchmarkMaskUnix(b *testing.B) {
	cfg := DefaultConfig()
	cal := MustRebuild(cfg)
	start := at("2015-01-01 00:00").Unix()
	ts := make([]int64, 1_000_000)
	for i := range ts {
		ts[i] = start + int64(i)*60
	}
	b.ResetTimer()
	for range b.N {
		if _, err := cal.MaskUnix(ts, MaskDaySession); err != nil {
			b.Fatal(err)
		}
	}
}
