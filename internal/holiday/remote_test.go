package holiday

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/google/go-cmp/cmp"
	"golang.org/x/text/encoding/japanese"
)

func shiftJIS(t *testing.T, s string) []byte {
	t.Helper()
	b, err := japanese.ShiftJIS.NewEncoder().Bytes([]byte(s))
	if err != nil {
		t.Fatalf("encoding Shift-JIS: %v", err)
	}
	return b
}

func TestParseCabinetOffice(t *testing.T) {
	body := shiftJIS(t, "国民の祝日・休日月日,国民の祝日・休日名称\r\n2021/1/1,元日\r\n2021/1/11,成人の日\r\n")
	got, err := ParseCabinetOffice(bytes.NewReader(body))
	if err != nil {
		t.Fatalf("ParseCabinetOffice: %v", err)
	}
	want := []Holiday{h("2021-01-01", "元日"), h("2021-01-11", "成人の日")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseCabinetOffice mismatch (-want +got):\n%s", diff)
	}
}

func TestCabinetOfficeSource(t *testing.T) {
	var calls atomic.Int32
	body := shiftJIS(t, "header,name\n2020/12/31,x\n2021/1/1,元日\n")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "try again", http.StatusServiceUnavailable)
			return
		}
		w.Write(body)
	}))
	defer srv.Close()

	src := &CabinetOfficeSource{URL: srv.URL, MaxAttempts: 2}
	got, err := src.Holidays(context.Background(), 2021, 2021)
	if err != nil {
		t.Fatalf("Holidays: %v", err)
	}
	if diff := cmp.Diff([]Holiday{h("2021-01-01", "元日")}, got); diff != "" {
		t.Errorf("Holidays mismatch (-want +got):\n%s", diff)
	}
	if calls.Load() != 2 {
		t.Errorf("server called %d times, want 2", calls.Load())
	}
}

func TestHolidaysJPSource(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/2021/date.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"2021-11-23":"勤労感謝の日","2021-01-01":"元日"}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	src := &HolidaysJPSource{BaseURL: srv.URL + "/api/v1/", MaxAttempts: 3}
	got, err := src.Holidays(context.Background(), 2021, 2022)
	if err != nil {
		t.Fatalf("Holidays: %v", err)
	}
	want := []Holiday{h("2021-01-01", "元日"), h("2021-11-23", "勤労感謝の日")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Holidays mismatch (-want +got):\n%s", diff)
	}
}

func TestHolidaysJPSourceClientError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	src := &HolidaysJPSource{BaseURL: srv.URL, MaxAttempts: 3}
	if _, err := src.Holidays(context.Background(), 2021, 2021); err == nil {
		t.Fatal("Holidays should fail on 403")
	}
	if calls.Load() != 1 {
		t.Errorf("4xx retried: %d calls", calls.Load())
	}
}

type fakeCalendar struct {
	days []alpaca.CalendarDay
	err  error
	req  alpaca.GetCalendarRequest
}

func (f *fakeCalendar) GetCalendar(req alpaca.GetCalendarRequest) ([]alpaca.CalendarDay, error) {
	f.req = req
	return f.days, f.err
}

func TestAlpacaSource(t *testing.T) {
	// Week of 2021-07-05: Monday closed for Independence Day.
	fake := &fakeCalendar{days: []alpaca.CalendarDay{
		{Date: "2021-07-02"},
		{Date: "2021-07-06"},
		{Date: "2021-07-07"},
	}}
	src := NewAlpacaSourceWithClient(fake)
	got, err := src.Holidays(context.Background(), 2021, 2021)
	if err != nil {
		t.Fatalf("Holidays: %v", err)
	}
	if diff := cmp.Diff([]Holiday{h("2021-07-05", "Market closed")}, got); diff != "" {
		t.Errorf("Holidays mismatch (-want +got):\n%s", diff)
	}
	if fake.req.Start.Year() != 2021 || fake.req.End.Month() != 12 {
		t.Errorf("request range = %v - %v", fake.req.Start, fake.req.End)
	}

	fake.err = errors.New("unauthorized")
	if _, err := src.Holidays(context.Background(), 2021, 2021); err == nil {
		t.Error("Holidays should surface client errors")
	}
}

func TestRuleSource(t *testing.T) {
	src, err := NewRuleSource("us")
	if err != nil {
		t.Fatal(err)
	}
	got, err := src.Holidays(context.Background(), 2021, 2021)
	if err != nil {
		t.Fatalf("Holidays: %v", err)
	}
	byDate := map[string]bool{}
	for _, hol := range got {
		byDate[hol.Date.String()] = true
	}
	// July 4th 2021 was a Sunday and Christmas a Saturday.
	for _, d := range []string{"2021-01-18", "2021-07-05", "2021-11-25", "2021-12-24"} {
		if !byDate[d] {
			t.Errorf("rule holidays missing %s: %v", d, got)
		}
	}
	if byDate["2021-07-04"] {
		t.Error("weekend date reported instead of the observed day")
	}

	if _, err := NewRuleSource("mars"); err == nil {
		t.Error("unknown rule set accepted")
	}
}
