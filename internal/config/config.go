package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/varianti/internal/parser"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	Port string `validate:"required,numeric"`

	// Edition source
	SourcePath string `validate:"required,teifile"`
	SchemaPath string // optional YAML vocabulary override
	NotesPath  string // optional Markdown notes for the index page

	// Auth for mutating endpoints; empty disables it
	APIKey string

	// Hot reload
	Watch         bool
	WatchDebounce time.Duration `validate:"gt=0"`

	// Render cache
	CacheTTL time.Duration `validate:"gt=0"`

	// Comparison
	MaxDiffCells int `validate:"gt=0"`

	// Latency stats window
	StatsWindow time.Duration `validate:"gt=0"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("teifile", func(fl validator.FieldLevel) bool {
		return parser.IsSupportedExtension(fl.Field().String())
	})
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8091"),

		SourcePath: os.Getenv("VARIANTI_SOURCE"),
		SchemaPath: os.Getenv("VARIANTI_SCHEMA"),
		NotesPath:  os.Getenv("VARIANTI_NOTES"),

		APIKey: os.Getenv("VARIANTI_API_KEY"),

		Watch:         envBool("VARIANTI_WATCH", true),
		WatchDebounce: envDuration("VARIANTI_WATCH_DEBOUNCE", 250*time.Millisecond),

		CacheTTL: envDuration("VARIANTI_CACHE_TTL", 30*time.Minute),

		MaxDiffCells: envInt("VARIANTI_MAX_DIFF_CELLS", 4_000_000),

		StatsWindow: envDuration("VARIANTI_STATS_WINDOW", time.Hour),
	}

	if cfg.WatchDebounce <= 0 {
		cfg.WatchDebounce = 250 * time.Millisecond
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 30 * time.Minute
	}
	if cfg.MaxDiffCells <= 0 {
		cfg.MaxDiffCells = 4_000_000
	}
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = time.Hour
	}

	return cfg
}

// Validate reports every invalid field, naming the environment variable
// that sets it.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q", envNames[fe.Field()], fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

var envNames = map[string]string{
	"Port":          "PORT",
	"SourcePath":    "VARIANTI_SOURCE",
	"WatchDebounce": "VARIANTI_WATCH_DEBOUNCE",
	"CacheTTL":      "VARIANTI_CACHE_TTL",
	"MaxDiffCells":  "VARIANTI_MAX_DIFF_CELLS",
	"StatsWindow":   "VARIANTI_STATS_WINDOW",
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
