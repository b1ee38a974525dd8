package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port            string        `mapstructure:"PORT"`
	AllowedOrigins  string        `mapstructure:"ALLOWED_ORIGINS"`
	PostgresURL     string        `mapstructure:"POSTGRES_URL"`
	Debug           bool          `mapstructure:"DEBUG"`
	PrettyLogs      bool          `mapstructure:"PRETTY_LOGS"`
	GinMode         string        `mapstructure:"GIN_MODE"`
	RoundDuration   int           `mapstructure:"ROUND_DURATION"`
	DefaultRounds   int           `mapstructure:"DEFAULT_ROUNDS"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
}

var defaults = map[string]any{
	"PORT":             "5000",
	"ALLOWED_ORIGINS":  "http://localhost:3000,http://127.0.0.1:3000",
	"POSTGRES_URL":     "",
	"DEBUG":            false,
	"PRETTY_LOGS":      true,
	"GIN_MODE":         "release",
	"ROUND_DURATION":   30,
	"DEFAULT_ROUNDS":   3,
	"SHUTDOWN_TIMEOUT": "10s",
}

// Load reads the configuration from the environment. envFile, when set, must
// exist; otherwise a .env in the working directory is loaded if present.
// Variables already set in the environment win over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("loading env file %s: %w", envFile, err)
		}
	} else {
		_ = godotenv.Load()
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if cfg.RoundDuration <= 0 {
		return nil, fmt.Errorf("ROUND_DURATION must be positive, got %d", cfg.RoundDuration)
	}
	if cfg.DefaultRounds <= 0 {
		return nil, fmt.Errorf("DEFAULT_ROUNDS must be positive, got %d", cfg.DefaultRounds)
	}
	if !slices.Contains([]string{"debug", "release", "test"}, cfg.GinMode) {
		return nil, fmt.Errorf("GIN_MODE must be debug, release or test, got %q", cfg.GinMode)
	}
	return cfg, nil
}

// Origins splits ALLOWED_ORIGINS, dropping blanks.
func (c *Config) Origins() []string {
	var origins []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
