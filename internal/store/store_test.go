package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"workdays/internal/holiday"
	"workdays/pkg/workdays"
)

func hol(date, name string) holiday.Holiday {
	return holiday.Holiday{Date: workdays.MustParseDate(date), Name: name}
}

func newSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "workdays.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStoreSaveList(t *testing.T) {
	s := newSQLite(t)
	ctx := context.Background()

	if err := s.SaveHolidays(ctx, "csv", []holiday.Holiday{
		hol("2021-11-23", "勤労感謝の日"),
		hol("2021-01-01", "元日"),
		hol("2022-01-01", "元日"),
	}); err != nil {
		t.Fatalf("SaveHolidays: %v", err)
	}
	// Upsert renames an existing date.
	if err := s.SaveHolidays(ctx, "manual", []holiday.Holiday{hol("2021-01-01", "New Year")}); err != nil {
		t.Fatalf("SaveHolidays: %v", err)
	}

	got, err := s.ListHolidays(ctx, 2021, 2021)
	if err != nil {
		t.Fatalf("ListHolidays: %v", err)
	}
	want := []holiday.Holiday{hol("2021-01-01", "New Year"), hol("2021-11-23", "勤労感謝の日")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ListHolidays mismatch (-want +got):\n%s", diff)
	}

	all, err := s.Holidays(ctx, 0, 0)
	if err != nil {
		t.Fatalf("Holidays: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Holidays(0, 0) returned %d rows, want 3", len(all))
	}
}

func TestSQLiteStoreReplaceSource(t *testing.T) {
	s := newSQLite(t)
	ctx := context.Background()

	if err := s.SaveHolidays(ctx, "cabinet_office", []holiday.Holiday{hol("2021-01-01", "a"), hol("2021-01-11", "b")}); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveHolidays(ctx, "manual", []holiday.Holiday{hol("2021-03-03", "m")}); err != nil {
		t.Fatal(err)
	}
	if err := s.ReplaceSource(ctx, "cabinet_office", []holiday.Holiday{hol("2021-02-11", "c")}); err != nil {
		t.Fatalf("ReplaceSource: %v", err)
	}

	got, err := s.ListHolidays(ctx, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	want := []holiday.Holiday{hol("2021-02-11", "c"), hol("2021-03-03", "m")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("after ReplaceSource (-want +got):\n%s", diff)
	}
}

func TestParquetStoreSeriesRoundTrip(t *testing.T) {
	dir := t.TempDir()
	ps := NewParquetStore(dir)
	ctx := context.Background()

	ts := []int64{1609722000, 1609722300, -3600}
	if err := ps.WriteTimestamps(ctx, "series/jan.parquet", ts); err != nil {
		t.Fatalf("WriteTimestamps: %v", err)
	}
	got, err := ps.ReadMillis(ctx, filepath.Join(dir, "series", "jan.parquet"))
	if err != nil {
		t.Fatalf("ReadMillis: %v", err)
	}
	if diff := cmp.Diff([]int64{ts[0] * 1000, ts[1] * 1000, ts[2] * 1000}, got); diff != "" {
		t.Errorf("timestamps mismatch (-want +got):\n%s", diff)
	}

	out := ps.MaskPath("series/jan.parquet")
	if out != filepath.Join(dir, "masks", "jan.parquet") {
		t.Errorf("MaskPath = %s", out)
	}
	rows := []MaskRecord{{Timestamp: ts[0] * 1000, BusinessDay: true, InSession: true, BusinessSession: true}}
	if err := ps.WriteMasks(ctx, out, rows); err != nil {
		t.Fatalf("WriteMasks: %v", err)
	}
	back, err := readParquetFile[MaskRecord](out)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(rows, back); diff != "" {
		t.Errorf("masks mismatch (-want +got):\n%s", diff)
	}
}

func TestFloorMillis(t *testing.T) {
	for ms, want := range map[int64]int64{1500: 1, -1: -1, -1000: -1, 0: 0} {
		if got := floorMillis(ms); got != want {
			t.Errorf("floorMillis(%d) = %d, want %d", ms, got, want)
		}
	}
}

func TestExtractMasks(t *testing.T) {
	cfg := workdays.DefaultConfig()
	cfg.HolidayStartYear, cfg.HolidayEndYear = 2021, 2021
	cfg.Holidays = []workdays.Date{workdays.MustParseDate("2021-01-01")}
	cal := workdays.MustRebuild(cfg)

	wall := func(s string) int64 {
		tt, err := time.Parse("2006-01-02 15:04", s)
		if err != nil {
			t.Fatal(err)
		}
		return tt.Unix()
	}
	ts := []int64{
		wall("2021-01-01 10:00"), // holiday, session time
		wall("2021-01-04 10:00"), // business day, in session
		wall("2021-01-04 12:00"), // business day, lunch
		wall("2021-01-04 15:00"), // session end is excluded
	}

	s := NewParquetStore(t.TempDir())
	ctx := context.Background()
	if err := s.WriteTimestamps(ctx, "series/jan.parquet", ts); err != nil {
		t.Fatal(err)
	}
	n, err := ExtractMasks(ctx, cal, s, "series/jan.parquet", s.MaskPath("series/jan.parquet"))
	if err != nil {
		t.Fatalf("ExtractMasks: %v", err)
	}
	if n != len(ts) {
		t.Errorf("rows = %d, want %d", n, len(ts))
	}

	got, err := readParquetFile[MaskRecord](s.MaskPath("series/jan.parquet"))
	if err != nil {
		t.Fatal(err)
	}
	want := []MaskRecord{
		{Timestamp: ts[0] * 1000, BusinessDay: false, InSession: true, BusinessSession: false},
		{Timestamp: ts[1] * 1000, BusinessDay: true, InSession: true, BusinessSession: true},
		{Timestamp: ts[2] * 1000, BusinessDay: true, InSession: false, BusinessSession: false},
		{Timestamp: ts[3] * 1000, BusinessDay: true, InSession: false, BusinessSession: false},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("masks mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractMasksKeepsMillis(t *testing.T) {
	cal := workdays.MustRebuild(workdays.DefaultConfig())
	at := time.Date(2021, 1, 4, 9, 0, 0, 0, time.UTC).UnixMilli()
	ms := []int64{
		at - 1,            // 08:59:59.999, before the session
		at + 250,          // 09:00:00.250
		at - 86400000 + 7, // Sunday 09:00:00.007
	}

	s := NewParquetStore(t.TempDir())
	records := make([]TimestampRecord, len(ms))
	for i, v := range ms {
		records[i] = TimestampRecord{Timestamp: v}
	}
	if err := writeParquetFile(s.resolve("series/ms.parquet"), records); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if _, err := ExtractMasks(ctx, cal, s, "series/ms.parquet", s.MaskPath("series/ms.parquet")); err != nil {
		t.Fatalf("ExtractMasks: %v", err)
	}

	got, err := readParquetFile[MaskRecord](s.MaskPath("series/ms.parquet"))
	if err != nil {
		t.Fatal(err)
	}
	want := []MaskRecord{
		{Timestamp: ms[0], BusinessDay: true, InSession: false, BusinessSession: false},
		{Timestamp: ms[1], BusinessDay: true, InSession: true, BusinessSession: true},
		{Timestamp: ms[2], BusinessDay: false, InSession: true, BusinessSession: false},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("masks mismatch (-want +got):\n%s", diff)
	}
}
