// Package httpapi provides the HTTP REST API over the calendar engine.
package httpapi

// DayJSON reports a single date and whether it is a business day.
type DayJSON struct {
	Date        string `json:"date"`
	BusinessDay bool   `json:"businessDay"`
}

// DatesJSON is a list of YYYY-MM-DD dates.
type DatesJSON struct {
	Dates []string `json:"dates"`
}

// InstantJSON reports an instant. Instants keep the offset of the request.
type InstantJSON struct {
	Time      string `json:"time"`
	InSession *bool  `json:"inSession,omitempty"`
}

// BorderJSON is a session border or, from the nearest-border endpoint, the
// query instant itself with kind "in_session".
type BorderJSON struct {
	Time string `json:"time"`
	Kind string `json:"kind"`
}

// ElapsedJSON is a business-time duration.
type ElapsedJSON struct {
	Seconds  int64  `json:"seconds"`
	Duration string `json:"duration"`
}

// MaskRequest asks for a mask over a timestamp series.
type MaskRequest struct {
	Timestamps []string `json:"timestamps"`
	// UnixSeconds is an alternative to Timestamps: wall-clock seconds since
	// the epoch with no offset applied.
	UnixSeconds []int64 `json:"unixSeconds,omitempty"`
	Kind        string  `json:"kind"`
}

// MaskJSON is a mask with one entry per requested timestamp.
type MaskJSON struct {
	Kind  string `json:"kind"`
	Mask  []bool `json:"mask"`
	Count int    `json:"count"`
}

// SessionJSON is one intraday session as HH:MM[:SS] strings.
type SessionJSON struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// HolidayJSON is a named holiday.
type HolidayJSON struct {
	Date string `json:"date"`
	Name string `json:"name,omitempty"`
}

// ConfigJSON describes the inputs of the current calendar snapshot.
type ConfigJSON struct {
	HolidayStartYear int           `json:"holidayStartYear"`
	HolidayEndYear   int           `json:"holidayEndYear"`
	HolidayWeekdays  []string      `json:"holidayWeekdays"`
	Sessions         []SessionJSON `json:"sessions"`
	HolidayCount     int           `json:"holidayCount"`
	LoadedAt         string        `json:"loadedAt,omitempty"`
}

// YearsRequest changes the holiday year range.
type YearsRequest struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// WeekdaysRequest replaces the excluded weekdays.
type WeekdaysRequest struct {
	Weekdays []string `json:"weekdays"`
}

// SessionsRequest replaces the session borders.
type SessionsRequest struct {
	Sessions []SessionJSON `json:"sessions"`
}

// HolidaysRequest adds holidays.
type HolidaysRequest struct {
	Holidays []HolidayJSON `json:"holidays"`
}
