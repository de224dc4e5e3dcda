package api

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"workdays/internal/engine"
	"workdays/pkg/workdays"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "workdays.v1.Calendar"

// Method names of the Calendar service. Requests and responses are
// google.protobuf.Struct messages with the fields listed per method.
const (
	MethodIsBusinessDay       = "IsBusinessDay"       // date -> business_day
	MethodNextBusinessDay     = "NextBusinessDay"     // date, n -> date
	MethodPreviousBusinessDay = "PreviousBusinessDay" // date, n -> date
	MethodNearestBusinessDay  = "NearestBusinessDay"  // date, direction -> date
	MethodBusinessDaysInRange = "BusinessDaysInRange" // start, end, boundary, business -> dates
	MethodBusinessDaysCount   = "BusinessDaysCount"   // date, n -> dates
	MethodIsInSession         = "IsInSession"         // t -> in_session
	MethodNextBorder          = "NextBorder"          // t -> time, kind
	MethodPreviousBorder      = "PreviousBorder"      // t, force_start -> time, kind
	MethodNearestBorder       = "NearestBorder"       // t, direction -> time, kind
	MethodAdd                 = "Add"                 // t, seconds -> time
	MethodSubtract            = "Subtract"            // t, seconds -> time
	MethodElapsed             = "Elapsed"             // start, end -> seconds
	MethodMask                = "Mask"                // timestamps, kind -> mask
	MethodGetConfig           = "GetConfig"           // -> holiday years, weekdays, sessions
	MethodReload              = "Reload"              // -> config
)

type method func(c *workdays.Calendar, in fields) (map[string]any, error)

// calendarServer is implemented by CalendarService; it is the handler type
// checked by grpc.Server.RegisterService.
type calendarServer interface {
	call(ctx context.Context, name string, in *structpb.Struct) (*structpb.Struct, error)
}

// CalendarService exposes the calendar engine over gRPC.
type CalendarService struct {
	engine  *engine.Engine
	log     *slog.Logger
	methods map[string]method
}

// NewCalendarService creates a CalendarService over the given engine.
func NewCalendarService(e *engine.Engine, log *slog.Logger) *CalendarService {
	if log == nil {
		log = slog.Default()
	}
	s := &CalendarService{engine: e, log: log.With("component", "grpc")}
	s.methods = map[string]method{
		MethodIsBusinessDay:       isBusinessDay,
		MethodNextBusinessDay:     walkDays((*workdays.Calendar).NextBusinessDay),
		MethodPreviousBusinessDay: walkDays((*workdays.Calendar).PreviousBusinessDay),
		MethodNearestBusinessDay:  nearestBusinessDay,
		MethodBusinessDaysInRange: businessDaysInRange,
		MethodBusinessDaysCount:   businessDaysCount,
		MethodIsInSession:         isInSession,
		MethodNextBorder:          nextBorder,
		MethodPreviousBorder:      previousBorder,
		MethodNearestBorder:       nearestBorder,
		MethodAdd:                 shift((*workdays.Calendar).Add),
		MethodSubtract:            shift((*workdays.Calendar).Subtract),
		MethodElapsed:             elapsed,
		MethodMask:                mask,
		MethodGetConfig:           getConfig,
	}
	return s
}

// RegisterGRPC registers the service on the given gRPC server instance.
func (s *CalendarService) RegisterGRPC(gs *grpc.Server) {
	gs.RegisterService(s.serviceDesc(), s)
}

func (s *CalendarService) serviceDesc() *grpc.ServiceDesc {
	names := make([]string, 0, len(s.methods)+1)
	for name := range s.methods {
		names = append(names, name)
	}
	names = append(names, MethodReload)

	sd := &grpc.ServiceDesc{
		ServiceName: ServiceName,
		HandlerType: (*calendarServer)(nil),
		Metadata:    "workdays/v1/calendar.proto",
	}
	for _, name := range names {
		sd.Methods = append(sd.Methods, unaryMethod(name))
	}
	return sd
}

func unaryMethod(name string) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return srv.(calendarServer).call(ctx, name, req.(*structpb.Struct))
			}
			if interceptor == nil {
				return handler(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func (s *CalendarService) call(ctx context.Context, name string, in *structpb.Struct) (*structpb.Struct, error) {
	if name == MethodReload {
		if err := s.engine.Reload(ctx); err != nil {
			return nil, s.toStatus(name, err)
		}
		name = MethodGetConfig
	}
	c, err := s.engine.Calendar()
	if err != nil {
		return nil, s.toStatus(name, err)
	}
	out, err := s.methods[name](c, fields{in.GetFields()})
	if err != nil {
		return nil, s.toStatus(name, err)
	}
	res, err := structpb.NewStruct(out)
	if err != nil {
		return nil, s.toStatus(name, err)
	}
	return res, nil
}

func (s *CalendarService) toStatus(name string, err error) error {
	code := codes.Internal
	switch {
	case errors.Is(err, workdays.ErrInvalidArgument), errors.Is(err, workdays.ErrInconsistentInput):
		code = codes.InvalidArgument
	case errors.Is(err, workdays.ErrConfiguration):
		code = codes.FailedPrecondition
	case errors.Is(err, engine.ErrNotLoaded):
		code = codes.Unavailable
	default:
		s.log.Error("grpc call failed", "method", name, "error", err)
	}
	return status.Error(code, err.Error())
}

// ---------------------------------------------------------------------------
// Request fields
// ---------------------------------------------------------------------------

type fields struct {
	m map[string]*structpb.Value
}

func (f fields) str(key string) string { return f.m[key].GetStringValue() }

func (f fields) num(key string) float64 { return f.m[key].GetNumberValue() }

func (f fields) boolean(key string) bool { return f.m[key].GetBoolValue() }

func (f fields) has(key string) bool {
	_, ok := f.m[key]
	return ok
}

func (f fields) date(key string) (workdays.Date, error) {
	return workdays.ParseDate(f.str(key))
}

func (f fields) instants(keys ...string) ([]time.Time, workdays.Zone, error) {
	ss := make([]string, len(keys))
	for i, k := range keys {
		ss[i] = f.str(k)
	}
	return workdays.ParseStamps(ss...)
}

func (f fields) direction() (workdays.Direction, error) {
	if !f.has("direction") {
		return workdays.Forward, nil
	}
	return workdays.ParseDirection(f.str("direction"))
}

func listOf[T any](vs []T) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}

func dateList(ds []workdays.Date) []any {
	out := make([]any, len(ds))
	for i, d := range ds {
		out[i] = d.String()
	}
	return out
}

// ---------------------------------------------------------------------------
// Methods
// ---------------------------------------------------------------------------

func isBusinessDay(c *workdays.Calendar, in fields) (map[string]any, error) {
	d, err := in.date("date")
	if err != nil {
		return nil, err
	}
	return map[string]any{"date": d.String(), "business_day": c.IsBusinessDay(d)}, nil
}

func walkDays(walk func(*workdays.Calendar, workdays.Date, int) (workdays.Date, error)) method {
	return func(c *workdays.Calendar, in fields) (map[string]any, error) {
		d, err := in.date("date")
		if err != nil {
			return nil, err
		}
		n := 1
		if in.has("n") {
			n = int(in.num("n"))
		}
		got, err := walk(c, d, n)
		if err != nil {
			return nil, err
		}
		return map[string]any{"date": got.String()}, nil
	}
}

func nearestBusinessDay(c *workdays.Calendar, in fields) (map[string]any, error) {
	d, err := in.date("date")
	if err != nil {
		return nil, err
	}
	dir, err := in.direction()
	if err != nil {
		return nil, err
	}
	return map[string]any{"date": c.NearestBusinessDay(d, dir).String()}, nil
}

func businessDaysInRange(c *workdays.Calendar, in fields) (map[string]any, error) {
	start, err := in.date("start")
	if err != nil {
		return nil, err
	}
	end, err := in.date("end")
	if err != nil {
		return nil, err
	}
	b := workdays.Left
	if in.has("boundary") {
		if b, err = workdays.ParseBoundary(in.str("boundary")); err != nil {
			return nil, err
		}
	}
	days := c.BusinessDaysInRange(start, end, b)
	if in.has("business") && !in.boolean("business") {
		days = c.NonBusinessDaysInRange(start, end, b)
	}
	return map[string]any{"dates": dateList(days)}, nil
}

func businessDaysCount(c *workdays.Calendar, in fields) (map[string]any, error) {
	d, err := in.date("date")
	if err != nil {
		return nil, err
	}
	days, err := c.BusinessDaysCount(d, int(in.num("n")))
	if err != nil {
		return nil, err
	}
	return map[string]any{"dates": dateList(days)}, nil
}

func isInSession(c *workdays.Calendar, in fields) (map[string]any, error) {
	ts, zone, err := in.instants("t")
	if err != nil {
		return nil, err
	}
	return map[string]any{"time": zone.Format(ts[0]), "in_session": c.IsInSession(ts[0])}, nil
}

func borderResult(b workdays.Border, zone workdays.Zone) map[string]any {
	return map[string]any{"time": zone.Format(b.Time), "kind": b.Kind.String()}
}

func nextBorder(c *workdays.Calendar, in fields) (map[string]any, error) {
	ts, zone, err := in.instants("t")
	if err != nil {
		return nil, err
	}
	return borderResult(c.NextBorder(ts[0]), zone), nil
}

func previousBorder(c *workdays.Calendar, in fields) (map[string]any, error) {
	ts, zone, err := in.instants("t")
	if err != nil {
		return nil, err
	}
	return borderResult(c.PreviousBorder(ts[0], in.boolean("force_start")), zone), nil
}

func nearestBorder(c *workdays.Calendar, in fields) (map[string]any, error) {
	ts, zone, err := in.instants("t")
	if err != nil {
		return nil, err
	}
	dir, err := in.direction()
	if err != nil {
		return nil, err
	}
	return borderResult(c.NearestBorder(ts[0], dir == workdays.Forward), zone), nil
}

func shift(op func(*workdays.Calendar, time.Time, time.Duration) (time.Time, error)) method {
	return func(c *workdays.Calendar, in fields) (map[string]any, error) {
		ts, zone, err := in.instants("t")
		if err != nil {
			return nil, err
		}
		got, err := op(c, ts[0], time.Duration(in.num("seconds"))*time.Second)
		if err != nil {
			return nil, err
		}
		return map[string]any{"time": zone.Format(got)}, nil
	}
}

func elapsed(c *workdays.Calendar, in fields) (map[string]any, error) {
	ts, _, err := in.instants("start", "end")
	if err != nil {
		return nil, err
	}
	d, err := c.Elapsed(ts[0], ts[1])
	if err != nil {
		return nil, err
	}
	return map[string]any{"seconds": int64(d / time.Second)}, nil
}

func mask(c *workdays.Calendar, in fields) (map[string]any, error) {
	kind := workdays.MaskDaySession
	if in.has("kind") {
		var err error
		if kind, err = workdays.ParseMaskKind(in.str("kind")); err != nil {
			return nil, err
		}
	}
	var raw []string
	for _, v := range in.m["timestamps"].GetListValue().GetValues() {
		raw = append(raw, v.GetStringValue())
	}
	ts, _, err := workdays.ParseStamps(raw...)
	if err != nil {
		return nil, err
	}
	m, err := c.Mask(ts, kind)
	if err != nil {
		return nil, err
	}
	return map[string]any{"kind": kind.String(), "mask": listOf(m)}, nil
}

func getConfig(c *workdays.Calendar, _ fields) (map[string]any, error) {
	start, end := c.HolidayYears()
	var weekdays []any
	for _, w := range c.ExcludedWeekdays() {
		weekdays = append(weekdays, strings.ToLower(w.String()))
	}
	var sessions []any
	for _, s := range c.Sessions() {
		sessions = append(sessions, map[string]any{"start": s.Start.String(), "end": s.End.String()})
	}
	return map[string]any{
		"holiday_start_year": start,
		"holiday_end_year":   end,
		"holiday_weekdays":   weekdays,
		"sessions":           sessions,
		"holiday_count":      len(c.Holidays()),
	}, nil
}
