package serverconfig

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	StoreDriverMemory = "memory"
	StoreDriverSQLite = "sqlite"

	LogFormatJSON = "json"
	LogFormatText = "text"
)

type Config struct {
	Server     ServerConfig
	Store      StoreConfig
	Validation ValidationConfig
	RateLimit  RateLimitConfig
	Log        LogConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

type StoreConfig struct {
	Driver    string
	SQLiteDSN string
}

type ValidationConfig struct {
	TitleMin         int
	TitleMax         int
	RequireCompleted bool
}

type RateLimitConfig struct {
	Enabled bool
	RPS     float64
	Burst   int
}

type LogConfig struct {
	Level  string
	Format string
}

// FileConfig mirrors config.yaml. Pointer fields distinguish "unset" from an
// explicit zero/false.
type FileConfig struct {
	Server struct {
		Host           string   `yaml:"host"`
		Port           *int     `yaml:"port"`
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"server"`
	Store struct {
		Driver    string `yaml:"driver"`
		SQLiteDSN string `yaml:"sqliteDSN"`
	} `yaml:"store"`
	Validation struct {
		TitleMin         int   `yaml:"titleMin"`
		TitleMax         int   `yaml:"titleMax"`
		RequireCompleted *bool `yaml:"requireCompleted"`
	} `yaml:"validation"`
	RateLimit struct {
		Enabled *bool   `yaml:"enabled"`
		RPS     float64 `yaml:"rps"`
		Burst   int     `yaml:"burst"`
	} `yaml:"rateLimit"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 3000,
		},
		Store: StoreConfig{
			Driver: StoreDriverMemory,
		},
		Validation: ValidationConfig{
			TitleMin: 2,
			TitleMax: 50,
		},
		RateLimit: RateLimitConfig{
			Enabled: true,
			RPS:     30,
			Burst:   60,
		},
		Log: LogConfig{
			Level:  "info",
			Format: LogFormatJSON,
		},
	}
}

// LoadFromPath builds the config from defaults, the first readable YAML file
// and the environment. An explicit path must exist; the fallback candidates
// are optional.
func LoadFromPath(configPath string) (Config, error) {
	cfg := Default()

	candidates := []string{configPath}
	if configPath == "" {
		candidates = []string{"configs/config.yaml", "config.yaml"}
	}
	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			if configPath != "" {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
			continue
		}
		var parsed FileConfig
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
		Merge(&cfg, parsed)
		break
	}

	if err := ApplyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func Merge(dst *Config, src FileConfig) {
	if src.Server.Host != "" {
		dst.Server.Host = src.Server.Host
	}
	if src.Server.Port != nil {
		dst.Server.Port = *src.Server.Port
	}
	if src.Server.AllowedOrigins != nil {
		dst.Server.AllowedOrigins = src.Server.AllowedOrigins
	}
	if src.Store.Driver != "" {
		dst.Store.Driver = src.Store.Driver
	}
	if src.Store.SQLiteDSN != "" {
		dst.Store.SQLiteDSN = src.Store.SQLiteDSN
	}
	if src.Validation.TitleMin != 0 {
		dst.Validation.TitleMin = src.Validation.TitleMin
	}
	if src.Validation.TitleMax != 0 {
		dst.Validation.TitleMax = src.Validation.TitleMax
	}
	if src.Validation.RequireCompleted != nil {
		dst.Validation.RequireCompleted = *src.Validation.RequireCompleted
	}
	if src.RateLimit.Enabled != nil {
		dst.RateLimit.Enabled = *src.RateLimit.Enabled
	}
	if src.RateLimit.RPS != 0 {
		dst.RateLimit.RPS = src.RateLimit.RPS
	}
	if src.RateLimit.Burst != 0 {
		dst.RateLimit.Burst = src.RateLimit.Burst
	}
	if src.Log.Level != "" {
		dst.Log.Level = src.Log.Level
	}
	if src.Log.Format != "" {
		dst.Log.Format = src.Log.Format
	}
}

func ApplyEnvOverrides(cfg *Config) error {
	if v := env("SHOPLIST_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := env("SHOPLIST_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SHOPLIST_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if v := env("SHOPLIST_ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = splitList(v)
	}
	if v := env("SHOPLIST_STORE"); v != "" {
		cfg.Store.Driver = v
	}
	if v := env("SHOPLIST_SQLITE_DSN"); v != "" {
		cfg.Store.SQLiteDSN = v
	}
	if v := env("SHOPLIST_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := env("SHOPLIST_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := env("SHOPLIST_RATE_LIMIT_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SHOPLIST_RATE_LIMIT_ENABLED: %w", err)
		}
		cfg.RateLimit.Enabled = enabled
	}
	if v := env("SHOPLIST_RATE_LIMIT_RPS"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("SHOPLIST_RATE_LIMIT_RPS: %w", err)
		}
		cfg.RateLimit.RPS = rps
	}
	if v := env("SHOPLIST_RATE_LIMIT_BURST"); v != "" {
		burst, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SHOPLIST_RATE_LIMIT_BURST: %w", err)
		}
		cfg.RateLimit.Burst = burst
	}
	return nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d is out of range", c.Server.Port))
	}
	switch c.Store.Driver {
	case StoreDriverMemory, StoreDriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("store.driver %q is not supported", c.Store.Driver))
	}
	if c.Validation.TitleMin < 1 {
		errs = append(errs, errors.New("validation.titleMin must be at least 1"))
	}
	if c.Validation.TitleMax < c.Validation.TitleMin {
		errs = append(errs, errors.New("validation.titleMax must not be less than validation.titleMin"))
	}
	if c.RateLimit.Enabled && (c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0) {
		errs = append(errs, errors.New("rateLimit.rps and rateLimit.burst must be positive when enabled"))
	}
	switch strings.ToLower(c.Log.Format) {
	case LogFormatJSON, LogFormatText:
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not supported", c.Log.Format))
	}
	return errors.Join(errs...)
}

func (c Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

func env(name string) string {
	return strings.TrimSpace(os.Getenv(name))
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
