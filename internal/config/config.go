package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"workdays/pkg/workdays"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the workdays services.
type Config struct {
	Calendar Calendar `yaml:"calendar"`
	Holidays Holidays `yaml:"holidays"`
	Storage  Storage  `yaml:"storage"`
	Server   Server   `yaml:"server"`
	Alpaca   Alpaca   `yaml:"alpaca"`
	Logging  Logging  `yaml:"logging"`
}

// Calendar describes the business calendar the engine is built from.
type Calendar struct {
	HolidayStartYear int       `yaml:"holiday_start_year"`
	HolidayEndYear   int       `yaml:"holiday_end_year"`
	HolidayWeekdays  []string  `yaml:"holiday_weekdays"`
	IntradayBorders  []Session `yaml:"intraday_borders"`
	Sources          []Source  `yaml:"sources"`
}

// Session is one intraday session written as "HH:MM" strings.
type Session struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// Source names a holiday source. Type is one of csv, sqlite, cabinet_office,
// holidays_jp, alpaca or rules.
type Source struct {
	Type string `yaml:"type"`
	Path string `yaml:"path"`
	Set  string `yaml:"set"`
}

// Holidays holds endpoints and limits for the remote holiday fetchers.
type Holidays struct {
	CabinetOfficeURL string `yaml:"cabinet_office_url"`
	HolidaysJPURL    string `yaml:"holidays_jp_url"`
	RateLimitPerMin  int    `yaml:"rate_limit_per_min"`
	RateBurst        int    `yaml:"rate_burst"`
	MaxAttempts      int    `yaml:"max_attempts"`
}

// Storage holds paths for data persistence.
type Storage struct {
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Server holds network listener configuration.
type Server struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	GRPCPort int    `yaml:"grpc_port"`
}

// Alpaca holds credentials and endpoints for the Alpaca trading API.
type Alpaca struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	BaseURL   string `yaml:"base_url"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ---------------------------------------------------------------------------
// Defaults
// ---------------------------------------------------------------------------

const (
	DefaultCabinetOfficeURL = "https://www8.cao.go.jp/chosei/shukujitsu/syukujitsu.csv"
	DefaultHolidaysJPURL    = "https://holidays-jp.github.io/api/v1"
)

// Default returns the configuration used for fields a file leaves empty:
// holidays from five years back to two years ahead, weekends excluded, and
// the 09:00-11:30 / 12:30-15:00 sessions.
func Default() *Config {
	year := time.Now().Year()
	return &Config{
		Calendar: Calendar{
			HolidayStartYear: year - 5,
			HolidayEndYear:   year + 2,
			HolidayWeekdays:  []string{"saturday", "sunday"},
			IntradayBorders: []Session{
				{Start: "09:00", End: "11:30"},
				{Start: "12:30", End: "15:00"},
			},
			Sources: []Source{{Type: "csv", Path: "source/holiday_naikaku.csv"}},
		},
		Holidays: Holidays{
			CabinetOfficeURL: DefaultCabinetOfficeURL,
			HolidaysJPURL:    DefaultHolidaysJPURL,
			RateLimitPerMin:  600,
			RateBurst:        5,
			MaxAttempts:      3,
		},
		Storage: Storage{DataDir: "data", SQLitePath: "data/workdays.db"},
		Server:  Server{Host: "0.0.0.0", Port: 8080, GRPCPort: 9090},
		Alpaca:  Alpaca{BaseURL: "https://paper-api.alpaca.markets"},
		Logging: Logging{Level: "info", Format: "json"},
	}
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path on top of
// Default(), and then applies environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("WORKDAYS_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("WORKDAYS_SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}

	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("ALPACA_API_SECRET"); v != "" {
		cfg.Alpaca.APISecret = v
	}
	if v := os.Getenv("ALPACA_BASE_URL"); v != "" {
		cfg.Alpaca.BaseURL = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// Standard Alpaca env vars win over ours.
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
}

// ---------------------------------------------------------------------------
// Conversion
// ---------------------------------------------------------------------------

// Weekdays parses the configured excluded weekday names.
func (c Calendar) Weekdays() ([]time.Weekday, error) {
	out := make([]time.Weekday, 0, len(c.HolidayWeekdays))
	for _, name := range c.HolidayWeekdays {
		w, err := workdays.ParseWeekday(name)
		if err != nil {
			return nil, fmt.Errorf("calendar.holiday_weekdays: %w", err)
		}
		out = append(out, w)
	}
	return out, nil
}

// Sessions parses the configured intraday borders.
func (c Calendar) Sessions() ([]workdays.SessionBorder, error) {
	out := make([]workdays.SessionBorder, 0, len(c.IntradayBorders))
	for i, s := range c.IntradayBorders {
		start, err := workdays.ParseTimeOfDay(s.Start)
		if err != nil {
			return nil, fmt.Errorf("calendar.intraday_borders[%d].start: %w", i, err)
		}
		end, err := workdays.ParseTimeOfDay(s.End)
		if err != nil {
			return nil, fmt.Errorf("calendar.intraday_borders[%d].end: %w", i, err)
		}
		out = append(out, workdays.SessionBorder{Start: start, End: end})
	}
	return out, nil
}

// EngineConfig returns the engine configuration described by c, without
// holidays; those come from the configured sources.
func (c Calendar) EngineConfig() (workdays.Config, error) {
	weekdays, err := c.Weekdays()
	if err != nil {
		return workdays.Config{}, err
	}
	sessions, err := c.Sessions()
	if err != nil {
		return workdays.Config{}, err
	}
	return workdays.Config{
		HolidayStartYear: c.HolidayStartYear,
		HolidayEndYear:   c.HolidayEndYear,
		ExcludedWeekdays: weekdays,
		Sessions:         sessions,
	}, nil
}
