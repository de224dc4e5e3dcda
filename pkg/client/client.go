// Package client is a Go SDK for the workdays-server HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"workdays/pkg/workdays"
)

// Client provides a Go SDK for interacting with the workdays-server API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new workdays API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("workdays api: %d: %s", e.StatusCode, e.Message)
}

// Holiday is a named holiday.
type Holiday struct {
	Date workdays.Date `json:"date"`
	Name string        `json:"name"`
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, body, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return &APIError{StatusCode: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

// stamp renders t with its offset so the server answers in the same zone.
func stamp(t time.Time) string { return t.Format(time.RFC3339) }

// instant parses a server timestamp back into the location of ref.
func instant(s string, ref time.Time) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing time %q: %w", s, err)
	}
	return t.In(ref.Location()), nil
}

type dayResponse struct {
	Date        workdays.Date `json:"date"`
	BusinessDay bool          `json:"businessDay"`
}

type datesResponse struct {
	Dates []workdays.Date `json:"dates"`
}

// IsBusinessDay reports whether d is a business day.
func (c *Client) IsBusinessDay(ctx context.Context, d workdays.Date) (bool, error) {
	var out dayResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/days/"+d.String(), nil, nil, &out); err != nil {
		return false, err
	}
	return out.BusinessDay, nil
}

// NextBusinessDay returns the n-th business day after d.
func (c *Client) NextBusinessDay(ctx context.Context, d workdays.Date, n int) (workdays.Date, error) {
	return c.walk(ctx, d, "next", url.Values{"n": {strconv.Itoa(n)}})
}

// PreviousBusinessDay returns the n-th business day before d.
func (c *Client) PreviousBusinessDay(ctx context.Context, d workdays.Date, n int) (workdays.Date, error) {
	return c.walk(ctx, d, "previous", url.Values{"n": {strconv.Itoa(n)}})
}

// NearestBusinessDay returns d if it is a business day, else the next or
// previous one.
func (c *Client) NearestBusinessDay(ctx context.Context, d workdays.Date, dir workdays.Direction) (workdays.Date, error) {
	return c.walk(ctx, d, "nearest", url.Values{"direction": {dir.String()}})
}

func (c *Client) walk(ctx context.Context, d workdays.Date, op string, q url.Values) (workdays.Date, error) {
	var out dayResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/days/"+d.String()+"/"+op, q, nil, &out); err != nil {
		return workdays.Date{}, err
	}
	return out.Date, nil
}

// BusinessDaysInRange lists the business days between start and end.
func (c *Client) BusinessDaysInRange(ctx context.Context, start, end workdays.Date, b workdays.Boundary) ([]workdays.Date, error) {
	q := url.Values{"start": {start.String()}, "end": {end.String()}, "boundary": {b.String()}}
	var out datesResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/days", q, nil, &out); err != nil {
		return nil, err
	}
	return out.Dates, nil
}

// BusinessDaysCount lists |n| consecutive business days starting at d,
// forward for positive n and backward for negative n.
func (c *Client) BusinessDaysCount(ctx context.Context, d workdays.Date, n int) ([]workdays.Date, error) {
	var out datesResponse
	q := url.Values{"n": {strconv.Itoa(n)}}
	if err := c.do(ctx, http.MethodGet, "/api/v1/days/"+d.String()+"/count", q, nil, &out); err != nil {
		return nil, err
	}
	return out.Dates, nil
}

type instantResponse struct {
	Time      string `json:"time"`
	InSession *bool  `json:"inSession"`
}

// IsInSession reports whether t is inside a session on a business day.
func (c *Client) IsInSession(ctx context.Context, t time.Time) (bool, error) {
	var out instantResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/session", url.Values{"t": {stamp(t)}}, nil, &out); err != nil {
		return false, err
	}
	return out.InSession != nil && *out.InSession, nil
}

// NextBorder returns the first session border strictly after t.
func (c *Client) NextBorder(ctx context.Context, t time.Time) (workdays.Border, error) {
	return c.border(ctx, "next", t, nil)
}

// PreviousBorder returns the session border before t.
func (c *Client) PreviousBorder(ctx context.Context, t time.Time, forceStart bool) (workdays.Border, error) {
	return c.border(ctx, "previous", t, url.Values{"force_start": {strconv.FormatBool(forceStart)}})
}

// NearestBorder returns t when it is in session, else the next or previous
// border.
func (c *Client) NearestBorder(ctx context.Context, t time.Time, dir workdays.Direction) (workdays.Border, error) {
	return c.border(ctx, "nearest", t, url.Values{"direction": {dir.String()}})
}

func (c *Client) border(ctx context.Context, op string, t time.Time, q url.Values) (workdays.Border, error) {
	if q == nil {
		q = url.Values{}
	}
	q.Set("t", stamp(t))
	var out struct {
		Time string              `json:"time"`
		Kind workdays.BorderKind `json:"kind"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/borders/"+op, q, nil, &out); err != nil {
		return workdays.Border{}, err
	}
	bt, err := instant(out.Time, t)
	if err != nil {
		return workdays.Border{}, err
	}
	return workdays.Border{Time: bt, Kind: out.Kind}, nil
}

// Add returns the instant d of business time after t.
func (c *Client) Add(ctx context.Context, t time.Time, d time.Duration) (time.Time, error) {
	return c.shift(ctx, "/api/v1/add", t, d)
}

// Subtract returns the instant d of business time before t.
func (c *Client) Subtract(ctx context.Context, t time.Time, d time.Duration) (time.Time, error) {
	return c.shift(ctx, "/api/v1/subtract", t, d)
}

func (c *Client) shift(ctx context.Context, path string, t time.Time, d time.Duration) (time.Time, error) {
	q := url.Values{"t": {stamp(t)}, "duration": {strconv.FormatInt(int64(d/time.Second), 10)}}
	var out instantResponse
	if err := c.do(ctx, http.MethodGet, path, q, nil, &out); err != nil {
		return time.Time{}, err
	}
	return instant(out.Time, t)
}

// Elapsed returns the business time between start and end.
func (c *Client) Elapsed(ctx context.Context, start, end time.Time) (time.Duration, error) {
	q := url.Values{"start": {stamp(start)}, "end": {stamp(end)}}
	var out struct {
		Seconds int64 `json:"seconds"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/elapsed", q, nil, &out); err != nil {
		return 0, err
	}
	return time.Duration(out.Seconds) * time.Second, nil
}

// Mask evaluates kind for every timestamp. All timestamps must share one
// UTC offset.
func (c *Client) Mask(ctx context.Context, ts []time.Time, kind workdays.MaskKind) ([]bool, error) {
	req := struct {
		Timestamps []string `json:"timestamps"`
		Kind       string   `json:"kind"`
	}{Timestamps: make([]string, len(ts)), Kind: kind.String()}
	for i, t := range ts {
		req.Timestamps[i] = stamp(t)
	}
	var out struct {
		Mask []bool `json:"mask"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/mask", nil, req, &out); err != nil {
		return nil, err
	}
	return out.Mask, nil
}

// Holidays lists the holidays of the current calendar.
func (c *Client) Holidays(ctx context.Context) ([]Holiday, error) {
	var out []Holiday
	if err := c.do(ctx, http.MethodGet, "/api/v1/holidays", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddHolidays adds holidays to the server's calendar.
func (c *Client) AddHolidays(ctx context.Context, hs []Holiday) error {
	body := struct {
		Holidays []Holiday `json:"holidays"`
	}{hs}
	return c.do(ctx, http.MethodPost, "/api/v1/holidays", nil, body, nil)
}

// Reload asks the server to refetch holidays from its sources.
func (c *Client) Reload(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/v1/reload", nil, struct{}{}, nil)
}
