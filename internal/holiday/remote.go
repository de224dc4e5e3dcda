package holiday

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"workdays/internal/util"
	"workdays/pkg/workdays"
)

var (
	_ Source = (*CabinetOfficeSource)(nil)
	_ Source = (*HolidaysJPSource)(nil)
)

var errNotFound = errors.New("not found")

// get fetches url with retries; 4xx responses are not retried.
func get(ctx context.Context, client *http.Client, url string, attempts int) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	var body []byte
	err := util.Retry(ctx, max(attempts, 1), 500*time.Millisecond, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return util.Permanent(err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return util.Permanent(fmt.Errorf("GET %s: %w", url, errNotFound))
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			return util.Permanent(fmt.Errorf("GET %s: status %d", url, resp.StatusCode))
		case resp.StatusCode != http.StatusOK:
			return fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
		}
		body, err = io.ReadAll(resp.Body)
		return err
	})
	return body, err
}

// ---------------------------------------------------------------------------
// CabinetOfficeSource
// ---------------------------------------------------------------------------

// CabinetOfficeSource downloads the national holiday list published by the
// Cabinet Office of Japan: a Shift-JIS CSV with a header row and YYYY/M/D
// dates. Substitute holidays appear under a generic name.
type CabinetOfficeSource struct {
	URL         string
	Client      *http.Client
	MaxAttempts int
}

// Name returns the source identifier.
func (s *CabinetOfficeSource) Name() string { return "cabinet_office" }

// Holidays downloads the list and returns the holidays within the year range.
func (s *CabinetOfficeSource) Holidays(ctx context.Context, startYear, endYear int) ([]Holiday, error) {
	body, err := get(ctx, s.Client, s.URL, s.MaxAttempts)
	if err != nil {
		return nil, err
	}
	hs, err := ParseCabinetOffice(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	return filterYears(hs, startYear, endYear), nil
}

// ParseCabinetOffice decodes the Shift-JIS Cabinet Office CSV.
func ParseCabinetOffice(r io.Reader) ([]Holiday, error) {
	cr := csv.NewReader(transform.NewReader(r, japanese.ShiftJIS.NewDecoder()))
	cr.FieldsPerRecord = -1

	var out []Holiday
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading cabinet office csv: %w", err)
		}
		if line == 1 || strings.TrimSpace(rec[0]) == "" {
			continue
		}
		t, err := time.Parse("2006/1/2", strings.TrimSpace(rec[0]))
		if err != nil {
			return nil, fmt.Errorf("cabinet office csv line %d: %w", line, err)
		}
		h := Holiday{Date: workdays.DateOf(t)}
		if len(rec) > 1 {
			h.Name = strings.TrimSpace(rec[1])
		}
		out = append(out, h)
	}
}

// ---------------------------------------------------------------------------
// HolidaysJPSource
// ---------------------------------------------------------------------------

// HolidaysJPSource queries the holidays-jp JSON API one year at a time.
// Years the API has not published are skipped.
type HolidaysJPSource struct {
	BaseURL     string
	Client      *http.Client
	Limiter     *util.RateLimiter
	MaxAttempts int
	Log         *slog.Logger
}

// Name returns the source identifier.
func (s *HolidaysJPSource) Name() string { return "holidays_jp" }

// Holidays fetches every year in the range. With no range it fetches from
// 2015, the first year the API covers, to next year.
func (s *HolidaysJPSource) Holidays(ctx context.Context, startYear, endYear int) ([]Holiday, error) {
	if startYear == 0 && endYear == 0 {
		startYear, endYear = 2015, time.Now().Year()+1
	}
	log := s.Log
	if log == nil {
		log = slog.Default()
	}

	var out []Holiday
	for year := startYear; year <= endYear; year++ {
		if err := s.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
		url := fmt.Sprintf("%s/%d/date.json", strings.TrimRight(s.BaseURL, "/"), year)
		body, err := get(ctx, s.Client, url, s.MaxAttempts)
		if errors.Is(err, errNotFound) {
			log.Debug("holidays-jp year not published", "year", year)
			continue
		}
		if err != nil {
			return nil, err
		}

		var byDate map[string]string
		if err := json.Unmarshal(body, &byDate); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", url, err)
		}
		for date, name := range byDate {
			d, err := workdays.ParseDate(date)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", url, err)
			}
			out = append(out, Holiday{Date: d, Name: name})
		}
	}
	Sort(out)
	return out, nil
}
