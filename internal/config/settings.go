package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Environment overrides applied on top of profile.toml.
const (
	EnvBaseURL     = "WUZDASH_BASE_URL"
	EnvMetricsAddr = "WUZDASH_METRICS_ADDR"
)

// Duration is a time.Duration that reads and writes as a string ("5s").
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Settings is the per-profile profile.toml.
type Settings struct {
	BaseURL         string   `toml:"base_url"`
	RequestTimeout  Duration `toml:"request_timeout"`
	FastInterval    Duration `toml:"fast_interval"`
	SteadyInterval  Duration `toml:"steady_interval"`
	SessionTTLHours int      `toml:"session_ttl_hours"`
	MetricsAddr     string   `toml:"metrics_addr"`
}

// Defaults returns the settings used when profile.toml is absent.
func Defaults() Settings {
	return Settings{
		BaseURL:         "http://localhost:8080",
		RequestTimeout:  Duration{15 * time.Second},
		FastInterval:    Duration{time.Second},
		SteadyInterval:  Duration{5 * time.Second},
		SessionTTLHours: 6,
		MetricsAddr:     "127.0.0.1:9464",
	}
}

// SessionTTL returns the credential lifetime.
func (s Settings) SessionTTL() time.Duration {
	return time.Duration(s.SessionTTLHours) * time.Hour
}

// Validate reports settings that cannot be used.
func (s Settings) Validate() error {
	u, err := url.Parse(s.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid base_url %q", s.BaseURL)
	}
	if s.FastInterval.Duration <= 0 || s.SteadyInterval.Duration <= 0 {
		return errors.New("poll intervals must be positive")
	}
	if s.SessionTTLHours <= 0 {
		return errors.New("session_ttl_hours must be positive")
	}
	return nil
}

// LoadSettings reads profile.toml over Defaults. A missing file is not an error.
// Environment variables (optionally from a .env file in the working directory)
// take precedence over the file.
func LoadSettings(path string) (Settings, error) {
	s := Defaults()
	if _, err := toml.DecodeFile(path, &s); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return s, fmt.Errorf("decode %s: %w", path, err)
	}
	ApplyEnv(&s)
	return s, s.Validate()
}

// SaveSettings writes profile.toml.
func SaveSettings(path string, s Settings) error {
	return writeTOML(path, s)
}

// LoadDotEnv loads .env into the process environment without overriding
// variables that are already set.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// ApplyEnv overlays environment overrides on s.
func ApplyEnv(s *Settings) {
	if v := os.Getenv(EnvBaseURL); v != "" {
		s.BaseURL = v
	}
	if v := os.Getenv(EnvMetricsAddr); v != "" {
		s.MetricsAddr = v
	}
}
