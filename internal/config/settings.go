package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// TokenEnv is the environment variable holding the Mapillary access token.
const TokenEnv = "MAPILLARY_TOKEN"

// EnvPrefix prefixes every other environment override, e.g. STREETGRAB_THREADS.
const EnvPrefix = "STREETGRAB"

// ErrMissingToken is returned by Validate when no access token is set.
var ErrMissingToken = errors.New("set " + TokenEnv)

// Settings holds all configuration options.
type Settings struct {
	// Run options
	Radius    float64 `mapstructure:"radius"`
	OutputDir string  `mapstructure:"out"`
	Threads   int     `mapstructure:"threads"`
	PanoOnly  bool    `mapstructure:"pano"`
	Debug     bool    `mapstructure:"debug"`
	GeoDebug  bool    `mapstructure:"geo-debug"`

	// Credentials
	Token string `mapstructure:"token"`

	// Geocoder
	GeocoderURL     string        `mapstructure:"geocoder-url"`
	GeocodeLimit    int           `mapstructure:"geocode-limit"`
	GeocodeMinDelay time.Duration `mapstructure:"geocode-min-delay"`

	// Metadata API
	GraphURL       string        `mapstructure:"graph-url"`
	PageSize       int           `mapstructure:"page-size"`
	MaxImages      int           `mapstructure:"max-images"`
	APIMaxAttempts int           `mapstructure:"api-max-attempts"`
	APITimeout     time.Duration `mapstructure:"api-timeout"`

	// Downloads
	DownloadMaxAttempts int           `mapstructure:"download-max-attempts"`
	DownloadTimeout     time.Duration `mapstructure:"download-timeout"`
	RetryCooldown       time.Duration `mapstructure:"retry-cooldown"`
	AspectThreshold     float64       `mapstructure:"aspect-threshold"`

	// Misc
	UserAgent   string `mapstructure:"user-agent"`
	MetricsFile string `mapstructure:"metrics-file"`
	MetricsAddr string `mapstructure:"metrics-addr"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	return &Settings{
		Radius:    25,
		OutputDir: "./panos",
		Threads:   4,

		GeocoderURL:     "https://nominatim.openstreetmap.org",
		GeocodeLimit:    10,
		GeocodeMinDelay: time.Second,

		GraphURL:       "https://graph.mapillary.com",
		PageSize:       500,
		MaxImages:      10000,
		APIMaxAttempts: 5,
		APITimeout:     20 * time.Second,

		DownloadMaxAttempts: 3,
		DownloadTimeout:     30 * time.Second,
		RetryCooldown:       2 * time.Second,
		AspectThreshold:     1.9,

		UserAgent: "mapillary_street_grabber",
	}
}

// Load builds settings from, lowest priority first: defaults, the config
// file at path (skipped when path is empty or missing), the environment,
// and flags the user explicitly set.
func Load(path string, flags *pflag.FlagSet) (*Settings, error) {
	v := viper.New()
	for key, value := range defaultsMap() {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("token", TokenEnv, EnvPrefix+"_TOKEN"); err != nil {
		return nil, err
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, err
		}
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return settings, nil
}

// Validate checks the settings a run cannot start without.
func (s *Settings) Validate() error {
	if strings.TrimSpace(s.Token) == "" {
		return ErrMissingToken
	}
	if s.Threads < 1 {
		return fmt.Errorf("threads must be at least 1, got %d", s.Threads)
	}
	if s.Radius < 0 {
		return fmt.Errorf("radius must not be negative, got %g", s.Radius)
	}
	if strings.TrimSpace(s.OutputDir) == "" {
		return errors.New("output directory must not be empty")
	}
	return nil
}

func defaultsMap() map[string]any {
	d := DefaultSettings()
	return map[string]any{
		"radius":                d.Radius,
		"out":                   d.OutputDir,
		"threads":               d.Threads,
		"pano":                  d.PanoOnly,
		"debug":                 d.Debug,
		"geo-debug":             d.GeoDebug,
		"token":                 d.Token,
		"geocoder-url":          d.GeocoderURL,
		"geocode-limit":         d.GeocodeLimit,
		"geocode-min-delay":     d.GeocodeMinDelay,
		"graph-url":             d.GraphURL,
		"page-size":             d.PageSize,
		"max-images":            d.MaxImages,
		"api-max-attempts":      d.APIMaxAttempts,
		"api-timeout":           d.APITimeout,
		"download-max-attempts": d.DownloadMaxAttempts,
		"download-timeout":      d.DownloadTimeout,
		"retry-cooldown":        d.RetryCooldown,
		"aspect-threshold":      d.AspectThreshold,
		"user-agent":            d.UserAgent,
		"metrics-file":          d.MetricsFile,
		"metrics-addr":          d.MetricsAddr,
	}
}
