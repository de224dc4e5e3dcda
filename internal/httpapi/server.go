package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"workdays/internal/engine"
	"workdays/internal/holiday"
	"workdays/pkg/workdays"
)

// maxMaskBody bounds the JSON body of a mask request.
const maxMaskBody = 256 << 20

// Server serves the calendar HTTP API.
type Server struct {
	engine *engine.Engine
	log    *slog.Logger
}

// NewServer creates a new calendar HTTP server.
func NewServer(e *engine.Engine, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{engine: e, log: log.With("component", "http")}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("GET /api/v1/days", s.handleDaysInRange)
	mux.HandleFunc("GET /api/v1/days/{date}", s.handleDay)
	mux.HandleFunc("GET /api/v1/days/{date}/next", s.handleNextDay)
	mux.HandleFunc("GET /api/v1/days/{date}/previous", s.handlePreviousDay)
	mux.HandleFunc("GET /api/v1/days/{date}/nearest", s.handleNearestDay)
	mux.HandleFunc("GET /api/v1/days/{date}/count", s.handleDaysCount)

	mux.HandleFunc("GET /api/v1/session", s.handleInSession)
	mux.HandleFunc("GET /api/v1/borders/next", s.handleNextBorder)
	mux.HandleFunc("GET /api/v1/borders/previous", s.handlePreviousBorder)
	mux.HandleFunc("GET /api/v1/borders/nearest", s.handleNearestBorder)

	mux.HandleFunc("GET /api/v1/add", s.handleAdd)
	mux.HandleFunc("GET /api/v1/subtract", s.handleSubtract)
	mux.HandleFunc("GET /api/v1/elapsed", s.handleElapsed)

	mux.HandleFunc("POST /api/v1/mask", s.handleMask)

	mux.HandleFunc("GET /api/v1/config", s.handleConfig)
	mux.HandleFunc("GET /api/v1/holidays", s.handleHolidays)
	mux.HandleFunc("POST /api/v1/holidays", s.handleAddHolidays)
	mux.HandleFunc("PUT /api/v1/config/years", s.handleSetYears)
	mux.HandleFunc("PUT /api/v1/config/weekdays", s.handleSetWeekdays)
	mux.HandleFunc("PUT /api/v1/config/sessions", s.handleSetSessions)
	mux.HandleFunc("POST /api/v1/reload", s.handleReload)
}

// Handler returns an http.Handler with CORS and request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(s.logMiddleware(mux))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"elapsed", time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, workdays.ErrInvalidArgument), errors.Is(err, workdays.ErrInconsistentInput):
		return http.StatusBadRequest
	case errors.Is(err, workdays.ErrConfiguration):
		return http.StatusUnprocessableEntity
	case errors.Is(err, engine.ErrNotLoaded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= 500 {
		s.log.Error("request failed", "error", err)
	}
	writeError(w, status, err.Error())
}

// calendar returns the current snapshot or writes an error.
func (s *Server) calendar(w http.ResponseWriter) (*workdays.Calendar, bool) {
	c, err := s.engine.Calendar()
	if err != nil {
		s.fail(w, err)
		return nil, false
	}
	return c, true
}

func formatDates(ds []workdays.Date) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.String()
	}
	return out
}

// intParam parses an integer query parameter, defaulting when absent.
func intParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", workdays.ErrInvalidArgument, name, err)
	}
	return n, nil
}

// durationParam accepts Go duration strings ("2h30m") or whole seconds.
func durationParam(r *http.Request, name string) (time.Duration, error) {
	v := r.URL.Query().Get(name)
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", workdays.ErrInvalidArgument, name, err)
	}
	return d, nil
}

func boolParam(r *http.Request, name string, def bool) (bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %v", workdays.ErrInvalidArgument, name, err)
	}
	return b, nil
}

// ---------------------------------------------------------------------------
// Days
// ---------------------------------------------------------------------------

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	if _, err := s.engine.Calendar(); err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	c, ok := s.calendar(w)
	if !ok {
		return
	}
	d, err := workdays.ParseDate(r.PathValue("date"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, DayJSON{Date: d.String(), BusinessDay: c.IsBusinessDay(d)})
}

func (s *Server) handleNextDay(w http.ResponseWriter, r *http.Request) {
	s.walkDays(w, r, (*workdays.Calendar).NextBusinessDay)
}

func (s *Server) handlePreviousDay(w http.ResponseWriter, r *http.Request) {
	s.walkDays(w, r, (*workdays.Calendar).PreviousBusinessDay)
}

func (s *Server) walkDays(w http.ResponseWriter, r *http.Request,
	walk func(*workdays.Calendar, workdays.Date, int) (workdays.Date, error)) {
	c, ok := s.calendar(w)
	if !ok {
		return
	}
	d, err := workdays.ParseDate(r.PathValue("date"))
	if err != nil {
		s.fail(w, err)
		return
	}
	n, err := intParam(r, "n", 1)
	if err != nil {
		s.fail(w, err)
		return
	}
	got, err := walk(c, d, n)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, DayJSON{Date: got.String(), BusinessDay: true})
}

func (s *Server) handleNearestDay(w http.ResponseWriter, r *http.Request) {
	c, ok := s.calendar(w)
	if !ok {
		return
	}
	d, err := workdays.ParseDate(r.PathValue("date"))
	if err != nil {
		s.fail(w, err)
		return
	}
	dir := workdays.Forward
	if v := r.URL.Query().Get("direction"); v != "" {
		if dir, err = workdays.ParseDirection(v); err != nil {
			s.fail(w, err)
			return
		}
	}
	writeJSON(w, DayJSON{Date: c.NearestBusinessDay(d, dir).String(), BusinessDay: true})
}

func (s *Server) handleDaysInRange(w http.ResponseWriter, r *http.Request) {
	c, ok := s.calendar(w)
	if !ok {
		return
	}
	q := r.URL.Query()
	start, err := workdays.ParseDate(q.Get("start"))
	if err != nil {
		s.fail(w, err)
		return
	}
	end, err := workdays.ParseDate(q.Get("end"))
	if err != nil {
		s.fail(w, err)
		return
	}
	b := workdays.Left
	if v := q.Get("boundary"); v != "" {
		if b, err = workdays.ParseBoundary(v); err != nil {
			s.fail(w, err)
			return
		}
	}
	business, err := boolParam(r, "business", true)
	if err != nil {
		s.fail(w, err)
		return
	}
	var days []workdays.Date
	if business {
		days = c.BusinessDaysInRange(start, end, b)
	} else {
		days = c.NonBusinessDaysInRange(start, end, b)
	}
	writeJSON(w, DatesJSON{Dates: formatDates(days)})
}

func (s *Server) handleDaysCount(w http.ResponseWriter, r *http.Request) {
	c, ok := s.calendar(w)
	if !ok {
		return
	}
	d, err := workdays.ParseDate(r.PathValue("date"))
	if err != nil {
		s.fail(w, err)
		return
	}
	n, err := intParam(r, "n", 0)
	if err != nil {
		s.fail(w, err)
		return
	}
	days, err := c.BusinessDaysCount(d, n)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, DatesJSON{Dates: formatDates(days)})
}

// ---------------------------------------------------------------------------
// Sessions and borders
// ---------------------------------------------------------------------------

func (s *Server) handleInSession(w http.ResponseWriter, r *http.Request) {
	c, ok := s.calendar(w)
	if !ok {
		return
	}
	ts, zone, err := workdays.ParseStamps(r.URL.Query().Get("t"))
	if err != nil {
		s.fail(w, err)
		return
	}
	in := c.IsInSession(ts[0])
	writeJSON(w, InstantJSON{Time: zone.Format(ts[0]), InSession: &in})
}

func (s *Server) handleNextBorder(w http.ResponseWriter, r *http.Request) {
	s.border(w, r, func(c *workdays.Calendar, t time.Time) workdays.Border {
		return c.NextBorder(t)
	})
}

func (s *Server) handlePreviousBorder(w http.ResponseWriter, r *http.Request) {
	force, err := boolParam(r, "force_start", false)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.border(w, r, func(c *workdays.Calendar, t time.Time) workdays.Border {
		return c.PreviousBorder(t, force)
	})
}

func (s *Server) handleNearestBorder(w http.ResponseWriter, r *http.Request) {
	forward := true
	if v := r.URL.Query().Get("direction"); v != "" {
		dir, err := workdays.ParseDirection(v)
		if err != nil {
			s.fail(w, err)
			return
		}
		forward = dir == workdays.Forward
	}
	s.border(w, r, func(c *workdays.Calendar, t time.Time) workdays.Border {
		return c.NearestBorder(t, forward)
	})
}

func (s *Server) border(w http.ResponseWriter, r *http.Request, find func(*workdays.Calendar, time.Time) workdays.Border) {
	c, ok := s.calendar(w)
	if !ok {
		return
	}
	ts, zone, err := workdays.ParseStamps(r.URL.Query().Get("t"))
	if err != nil {
		s.fail(w, err)
		return
	}
	b := find(c, ts[0])
	writeJSON(w, BorderJSON{Time: zone.Format(b.Time), Kind: b.Kind.String()})
}

// ---------------------------------------------------------------------------
// Arithmetic
// ---------------------------------------------------------------------------

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	s.shift(w, r, (*workdays.Calendar).Add)
}

func (s *Server) handleSubtract(w http.ResponseWriter, r *http.Request) {
	s.shift(w, r, (*workdays.Calendar).Subtract)
}

func (s *Server) shift(w http.ResponseWriter, r *http.Request,
	op func(*workdays.Calendar, time.Time, time.Duration) (time.Time, error)) {
	c, ok := s.calendar(w)
	if !ok {
		return
	}
	ts, zone, err := workdays.ParseStamps(r.URL.Query().Get("t"))
	if err != nil {
		s.fail(w, err)
		return
	}
	d, err := durationParam(r, "duration")
	if err != nil {
		s.fail(w, err)
		return
	}
	got, err := op(c, ts[0], d)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, InstantJSON{Time: zone.Format(got)})
}

func (s *Server) handleElapsed(w http.ResponseWriter, r *http.Request) {
	c, ok := s.calendar(w)
	if !ok {
		return
	}
	q := r.URL.Query()
	ts, _, err := workdays.ParseStamps(q.Get("start"), q.Get("end"))
	if err != nil {
		s.fail(w, err)
		return
	}
	d, err := c.Elapsed(ts[0], ts[1])
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, ElapsedJSON{Seconds: int64(d / time.Second), Duration: d.String()})
}

// ---------------------------------------------------------------------------
// Masks
// ---------------------------------------------------------------------------

func (s *Server) handleMask(w http.ResponseWriter, r *http.Request) {
	c, ok := s.calendar(w)
	if !ok {
		return
	}
	var req MaskRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMaskBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	kind := workdays.MaskDaySession
	if req.Kind != "" {
		var err error
		if kind, err = workdays.ParseMaskKind(req.Kind); err != nil {
			s.fail(w, err)
			return
		}
	}

	secs := req.UnixSeconds
	if len(req.Timestamps) > 0 {
		ts, _, err := workdays.ParseStamps(req.Timestamps...)
		if err != nil {
			s.fail(w, err)
			return
		}
		secs = workdays.WallSeconds(ts)
	}
	mask, err := c.MaskUnix(secs, kind)
	if err != nil {
		s.fail(w, err)
		return
	}
	count := 0
	for _, v := range mask {
		if v {
			count++
		}
	}
	writeJSON(w, MaskJSON{Kind: kind.String(), Mask: mask, Count: count})
}

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------

func sessionsJSON(ss []workdays.SessionBorder) []SessionJSON {
	out := make([]SessionJSON, len(ss))
	for i, s := range ss {
		out[i] = SessionJSON{Start: s.Start.String(), End: s.End.String()}
	}
	return out
}

func (s *Server) handleConfig(w http.ResponseWriter, _ *http.Request) {
	c, ok := s.calendar(w)
	if !ok {
		return
	}
	start, end := c.HolidayYears()
	var weekdays []string
	for _, wd := range c.ExcludedWeekdays() {
		weekdays = append(weekdays, strings.ToLower(wd.String()))
	}
	resp := ConfigJSON{
		HolidayStartYear: start,
		HolidayEndYear:   end,
		HolidayWeekdays:  weekdays,
		Sessions:         sessionsJSON(c.Sessions()),
		HolidayCount:     len(c.Holidays()),
	}
	if t := s.engine.LoadedAt(); !t.IsZero() {
		resp.LoadedAt = t.Format(time.RFC3339)
	}
	writeJSON(w, resp)
}

func (s *Server) handleHolidays(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.calendar(w); !ok {
		return
	}
	q := r.URL.Query()
	var start, end workdays.Date
	var err error
	if v := q.Get("start"); v != "" {
		if start, err = workdays.ParseDate(v); err != nil {
			s.fail(w, err)
			return
		}
	}
	if v := q.Get("end"); v != "" {
		if end, err = workdays.ParseDate(v); err != nil {
			s.fail(w, err)
			return
		}
	}
	out := []HolidayJSON{}
	for _, h := range s.engine.Holidays() {
		if (!start.IsZero() && h.Date.Before(start)) || (!end.IsZero() && h.Date.After(end)) {
			continue
		}
		out = append(out, HolidayJSON{Date: h.Date.String(), Name: h.Name})
	}
	writeJSON(w, out)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func (s *Server) handleAddHolidays(w http.ResponseWriter, r *http.Request) {
	var req HolidaysRequest
	if !decode(w, r, &req) {
		return
	}
	hs := make([]holiday.Holiday, 0, len(req.Holidays))
	for _, h := range req.Holidays {
		d, err := workdays.ParseDate(h.Date)
		if err != nil {
			s.fail(w, err)
			return
		}
		hs = append(hs, holiday.Holiday{Date: d, Name: h.Name})
	}
	if err := s.engine.AddHolidays(hs); err != nil {
		s.fail(w, err)
		return
	}
	s.handleConfig(w, r)
}

func (s *Server) handleSetYears(w http.ResponseWriter, r *http.Request) {
	var req YearsRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.engine.SetHolidayYears(r.Context(), req.Start, req.End); err != nil {
		s.fail(w, err)
		return
	}
	s.handleConfig(w, r)
}

func (s *Server) handleSetWeekdays(w http.ResponseWriter, r *http.Request) {
	var req WeekdaysRequest
	if !decode(w, r, &req) {
		return
	}
	ws := make([]time.Weekday, 0, len(req.Weekdays))
	for _, name := range req.Weekdays {
		wd, err := workdays.ParseWeekday(name)
		if err != nil {
			s.fail(w, err)
			return
		}
		ws = append(ws, wd)
	}
	if err := s.engine.SetExcludedWeekdays(ws); err != nil {
		s.fail(w, err)
		return
	}
	s.handleConfig(w, r)
}

func (s *Server) handleSetSessions(w http.ResponseWriter, r *http.Request) {
	var req SessionsRequest
	if !decode(w, r, &req) {
		return
	}
	ss := make([]workdays.SessionBorder, 0, len(req.Sessions))
	for _, sj := range req.Sessions {
		start, err := workdays.ParseTimeOfDay(sj.Start)
		if err != nil {
			s.fail(w, err)
			return
		}
		end, err := workdays.ParseTimeOfDay(sj.End)
		if err != nil {
			s.fail(w, err)
			return
		}
		ss = append(ss, workdays.SessionBorder{Start: start, End: end})
	}
	if err := s.engine.SetSessions(ss); err != nil {
		s.fail(w, err)
		return
	}
	s.handleConfig(w, r)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Reload(r.Context()); err != nil {
		s.fail(w, err)
		return
	}
	s.handleConfig(w, r)
}
