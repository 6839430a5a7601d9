package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/barterhub/timebank/internal/match"
)

type Config struct {
	Addr          string         `yaml:"addr"`
	JWTSecret     string         `yaml:"jwt_secret"`
	APITimeout    time.Duration  `yaml:"timeout"`
	DatabasePath  string         `yaml:"database_path"`
	TokenDuration time.Duration  `yaml:"token_duration"`
	Match         match.Weights  `yaml:"match"`
	Notifier      NotifierConfig `yaml:"notifier"`
}

type NotifierConfig struct {
	Workers      int           `yaml:"workers"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Addr:          getEnv("TB_ADDR", ":8080"),
		JWTSecret:     getEnv("TB_JWT_SECRET", "supersecretkey"),
		APITimeout:    15 * time.Second,
		DatabasePath:  getEnv("TB_DATABASE_PATH", "timebank.db"),
		TokenDuration: 1 * time.Hour,
		Match:         match.DefaultWeights(),
		Notifier: NotifierConfig{
			Workers:      2,
			PollInterval: 500 * time.Millisecond,
		},
	}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		if err := dec.Decode(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Validate rejects configurations that cannot serve safely. The default jwt
// secret is only tolerated in a development environment (TB_ENV).
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr is required")
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database_path is required")
	}
	if c.TokenDuration <= 0 {
		return fmt.Errorf("token_duration must be positive")
	}
	if c.JWTSecret == "" || c.JWTSecret == "supersecretkey" {
		if getEnv("TB_ENV", "development") != "development" {
			return fmt.Errorf("jwt_secret must be set outside development")
		}
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}
