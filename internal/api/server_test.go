package api

import (
	"context"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"workdays/internal/config"
	"workdays/internal/engine"
	"workdays/internal/holiday"
	"workdays/pkg/workdays"
)

func newTestEngine(t *testing.T, load bool) *engine.Engine {
	t.Helper()
	base := workdays.DefaultConfig()
	base.HolidayStartYear, base.HolidayEndYear = 2020, 2022
	src := &holiday.Static{Label: "test", List: []holiday.Holiday{
		{Date: workdays.MustParseDate("2021-01-01"), Name: "元日"},
		{Date: workdays.MustParseDate("2021-01-11"), Name: "成人の日"},
	}}
	e := engine.New(nil, base, []holiday.Source{src})
	if load {
		if err := e.Reload(context.Background()); err != nil {
			t.Fatalf("Reload: %v", err)
		}
	}
	return e
}

// startServer serves s over an in-memory listener and returns a client.
func startServer(t *testing.T, s *Server) (*grpc.ClientConn, *CalendarClient) {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	go func() { _ = s.GRPCServer().Serve(lis) }()
	t.Cleanup(s.GRPCServer().Stop)

	conn, client, err := Dial("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn, client
}

func newTestClient(t *testing.T, load bool) (*grpc.ClientConn, *CalendarClient) {
	t.Helper()
	s := NewServer(config.Server{Host: "127.0.0.1", Port: 0, GRPCPort: 0}, newTestEngine(t, load), nil)
	return startServer(t, s)
}

func call(t *testing.T, c *CalendarClient, method string, req map[string]any) map[string]any {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	out, err := c.Call(ctx, method, req)
	if err != nil {
		t.Fatalf("%s(%v): %v", method, req, err)
	}
	return out
}

func TestCalendarServiceDays(t *testing.T) {
	_, c := newTestClient(t, true)

	if got := call(t, c, MethodIsBusinessDay, map[string]any{"date": "2021-01-01"})["business_day"]; got != false {
		t.Errorf("IsBusinessDay(2021-01-01) = %v, want false", got)
	}
	if got := call(t, c, MethodNextBusinessDay, map[string]any{"date": "2020-12-31"})["date"]; got != "2021-01-04" {
		t.Errorf("NextBusinessDay = %v, want 2021-01-04", got)
	}
	if got := call(t, c, MethodPreviousBusinessDay, map[string]any{"date": "2021-01-12", "n": 2})["date"]; got != "2021-01-07" {
		t.Errorf("PreviousBusinessDay = %v, want 2021-01-07", got)
	}
	if got := call(t, c, MethodNearestBusinessDay, map[string]any{"date": "2021-01-09", "direction": "backward"})["date"]; got != "2021-01-08" {
		t.Errorf("NearestBusinessDay = %v, want 2021-01-08", got)
	}

	out := call(t, c, MethodBusinessDaysInRange, map[string]any{"start": "2021-01-08", "end": "2021-01-12", "boundary": "both"})
	dates, _ := out["dates"].([]any)
	if len(dates) != 2 || dates[0] != "2021-01-08" || dates[1] != "2021-01-12" {
		t.Errorf("BusinessDaysInRange = %v", out["dates"])
	}
}

func TestCalendarServiceTime(t *testing.T) {
	_, c := newTestClient(t, true)

	if got := call(t, c, MethodAdd, map[string]any{"t": "2021-01-04T11:00:00", "seconds": 3600})["time"]; got != "2021-01-04T13:00:00" {
		t.Errorf("Add = %v, want 2021-01-04T13:00:00", got)
	}
	if got := call(t, c, MethodAdd, map[string]any{"t": "2021-01-04T11:00:00+09:00", "seconds": 3600})["time"]; got != "2021-01-04T13:00:00+09:00" {
		t.Errorf("Add with offset = %v", got)
	}
	if got := call(t, c, MethodSubtract, map[string]any{"t": "2021-01-04T13:00:00", "seconds": 3600})["time"]; got != "2021-01-04T11:00:00" {
		t.Errorf("Subtract = %v, want 2021-01-04T11:00:00", got)
	}
	if got := call(t, c, MethodElapsed, map[string]any{"start": "2021-01-04T09:00:00", "end": "2021-01-04T15:00:00"})["seconds"]; got != float64(5*3600) {
		t.Errorf("Elapsed = %v, want 18000", got)
	}

	out := call(t, c, MethodNextBorder, map[string]any{"t": "2021-01-04T11:30:00"})
	if out["time"] != "2021-01-04T12:30:00" || out["kind"] != "start" {
		t.Errorf("NextBorder = %v", out)
	}
	out = call(t, c, MethodPreviousBorder, map[string]any{"t": "2021-01-04T12:00:00", "force_start": true})
	if out["time"] != "2021-01-04T09:00:00" || out["kind"] != "start" {
		t.Errorf("PreviousBorder(force) = %v", out)
	}
	if got := call(t, c, MethodIsInSession, map[string]any{"t": "2021-01-04T12:00:00"})["in_session"]; got != false {
		t.Errorf("IsInSession(lunch) = %v", got)
	}
}

func TestCalendarServiceMask(t *testing.T) {
	_, c := newTestClient(t, true)
	out := call(t, c, MethodMask, map[string]any{
		"timestamps": []any{"2021-01-01T10:00:00", "2021-01-04T10:00:00", "2021-01-04T12:00:00"},
	})
	got, _ := out["mask"].([]any)
	want := []any{false, true, false}
	if len(got) != len(want) {
		t.Fatalf("mask = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("mask[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestCalendarServiceErrors(t *testing.T) {
	_, c := newTestClient(t, true)
	ctx := context.Background()

	tests := []struct {
		method string
		req    map[string]any
		want   codes.Code
	}{
		{MethodNextBusinessDay, map[string]any{"date": "2021-01-04", "n": 0}, codes.InvalidArgument},
		{MethodIsBusinessDay, map[string]any{"date": "not-a-date"}, codes.InvalidArgument},
		{MethodElapsed, map[string]any{"start": "2021-01-05T09:00:00", "end": "2021-01-04T09:00:00"}, codes.InvalidArgument},
		{MethodElapsed, map[string]any{"start": "2021-01-04T09:00:00+09:00", "end": "2021-01-05T09:00:00Z"}, codes.InvalidArgument},
		{MethodMask, map[string]any{"timestamps": []any{}, "kind": "weekly"}, codes.InvalidArgument},
	}
	for _, tt := range tests {
		_, err := c.Call(ctx, tt.method, tt.req)
		if got := status.Code(err); got != tt.want {
			t.Errorf("%s(%v) code = %v, want %v (err %v)", tt.method, tt.req, got, tt.want, err)
		}
	}
}

func TestCalendarServiceNotLoaded(t *testing.T) {
	_, c := newTestClient(t, false)
	_, err := c.Call(context.Background(), MethodIsBusinessDay, map[string]any{"date": "2021-01-04"})
	if got := status.Code(err); got != codes.Unavailable {
		t.Errorf("code = %v, want Unavailable", got)
	}

	out := call(t, c, MethodReload, nil)
	if out["holiday_count"] != float64(2) {
		t.Errorf("Reload holiday_count = %v, want 2", out["holiday_count"])
	}
	if got := call(t, c, MethodIsBusinessDay, map[string]any{"date": "2021-01-11"})["business_day"]; got != false {
		t.Errorf("IsBusinessDay after reload = %v", got)
	}
}

func TestHealth(t *testing.T) {
	conn, _ := newTestClient(t, true)
	res, err := healthpb.NewHealthClient(conn).Check(context.Background(),
		&healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if res.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("status = %v, want SERVING", res.GetStatus())
	}
}

func TestServerShutdown(t *testing.T) {
	s := NewServer(config.Server{Host: "127.0.0.1", Port: 0}, newTestEngine(t, true), nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx) }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ListenAndServe: %v", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("server did not stop")
	}
}
