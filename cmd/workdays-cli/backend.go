package main

import (
	"context"
	"time"

	"workdays/pkg/client"
	"workdays/pkg/workdays"
)

// backend answers calendar queries either from a local snapshot or from a
// running workdays-server.
type backend interface {
	IsBusinessDay(ctx context.Context, d workdays.Date) (bool, error)
	NextBusinessDay(ctx context.Context, d workdays.Date, n int) (workdays.Date, error)
	PreviousBusinessDay(ctx context.Context, d workdays.Date, n int) (workdays.Date, error)
	NearestBusinessDay(ctx context.Context, d workdays.Date, dir workdays.Direction) (workdays.Date, error)
	BusinessDaysInRange(ctx context.Context, start, end workdays.Date, b workdays.Boundary) ([]workdays.Date, error)
	BusinessDaysCount(ctx context.Context, d workdays.Date, n int) ([]workdays.Date, error)
	IsInSession(ctx context.Context, t time.Time) (bool, error)
	NextBorder(ctx context.Context, t time.Time) (workdays.Border, error)
	PreviousBorder(ctx context.Context, t time.Time, forceStart bool) (workdays.Border, error)
	NearestBorder(ctx context.Context, t time.Time, dir workdays.Direction) (workdays.Border, error)
	Add(ctx context.Context, t time.Time, d time.Duration) (time.Time, error)
	Subtract(ctx context.Context, t time.Time, d time.Duration) (time.Time, error)
	Elapsed(ctx context.Context, start, end time.Time) (time.Duration, error)
}

var _ backend = (*client.Client)(nil)
var _ backend = local{}

type local struct {
	c *workdays.Calendar
}

func (l local) IsBusinessDay(_ context.Context, d workdays.Date) (bool, error) {
	return l.c.IsBusinessDay(d), nil
}

func (l local) NextBusinessDay(_ context.Context, d workdays.Date, n int) (workdays.Date, error) {
	return l.c.NextBusinessDay(d, n)
}

func (l local) PreviousBusinessDay(_ context.Context, d workdays.Date, n int) (workdays.Date, error) {
	return l.c.PreviousBusinessDay(d, n)
}

func (l local) NearestBusinessDay(_ context.Context, d workdays.Date, dir workdays.Direction) (workdays.Date, error) {
	return l.c.NearestBusinessDay(d, dir), nil
}

func (l local) BusinessDaysInRange(_ context.Context, start, end workdays.Date, b workdays.Boundary) ([]workdays.Date, error) {
	return l.c.BusinessDaysInRange(start, end, b), nil
}

func (l local) BusinessDaysCount(_ context.Context, d workdays.Date, n int) ([]workdays.Date, error) {
	return l.c.BusinessDaysCount(d, n)
}

func (l local) IsInSession(_ context.Context, t time.Time) (bool, error) {
	return l.c.IsInSession(t), nil
}

func (l local) NextBorder(_ context.Context, t time.Time) (workdays.Border, error) {
	return l.c.NextBorder(t), nil
}

func (l local) PreviousBorder(_ context.Context, t time.Time, forceStart bool) (workdays.Border, error) {
	return l.c.PreviousBorder(t, forceStart), nil
}

func (l local) NearestBorder(_ context.Context, t time.Time, dir workdays.Direction) (workdays.Border, error) {
	return l.c.NearestBorder(t, dir == workdays.Forward), nil
}

func (l local) Add(_ context.Context, t time.Time, d time.Duration) (time.Time, error) {
	return l.c.Add(t, d)
}

func (l local) Subtract(_ context.Context, t time.Time, d time.Duration) (time.Time, error) {
	return l.c.Subtract(t, d)
}

func (l local) Elapsed(_ context.Context, start, end time.Time) (time.Duration, error) {
	return l.c.Elapsed(start, end)
}
