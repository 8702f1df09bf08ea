package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/alicesring/snapdemo/internal/keystore"
	"github.com/alicesring/snapdemo/pkg/log"
)

const configDirPathEnv = "SNAPDEMO_CONFIG_DIR"

// Config is read from the environment, optionally seeded by
// $SNAPDEMO_CONFIG_DIR/.env. The defaults reproduce the public demo.
type Config struct {
	Ring        []string      `env:"SNAPDEMO_RING" env-separator:"," env-default:"030066ba293cc22d0eadbe494e9bd4d6d05c3e09d74dff0e991075de74b2359678,0316d7da70ba247a6a40bb310187e8789b80c45fa6dc0061abb8ced49cbe7f887f,0221869ca3ae33be3a7327e9a0272203afa72c52a5460ceb9f4a50930531bd926a" validate:"min=1,dive,hexadecimal,len=66"`
	Message     string        `env:"SNAPDEMO_MESSAGE" env-default:"Hello Snap!"`
	Domain      string        `env:"SNAPDEMO_DOMAIN" env-default:"demo-snap-signature" validate:"required"`
	CallTimeout time.Duration `env:"SNAPDEMO_CALL_TIMEOUT" env-default:"2m" validate:"gt=0"`
	MetricsAddr string        `env:"SNAPDEMO_METRICS_ADDR" env-default:""`
	// PrivateKey answers the import prompt of non-interactive runs.
	PrivateKey string `env:"SNAPDEMO_PRIVATE_KEY" env-default:""`

	Keystore keystore.Config
	Log      log.Config

	ConfigDir    string
	DotEnvLoaded bool
}

// LoadConfig reads the configuration. Relative sqlite keystore paths are
// resolved against the config directory, which is created if missing.
func LoadConfig() (*Config, error) {
	configDir := os.Getenv(configDirPathEnv)
	if configDir == "" {
		userConfDir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user config directory: %w", err)
		}
		configDir = filepath.Join(userConfDir, "snapdemo")
	}
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	cfg := Config{ConfigDir: configDir}
	if err := godotenv.Load(filepath.Join(configDir, ".env")); err == nil {
		cfg.DotEnvLoaded = true
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read env: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.Keystore.URL == "" && cfg.Keystore.Driver == "sqlite" &&
		cfg.Keystore.Name != "" && cfg.Keystore.Name != ":memory:" && !filepath.IsAbs(cfg.Keystore.Name) {
		cfg.Keystore.Name = filepath.Join(configDir, cfg.Keystore.Name)
	}
	return &cfg, nil
}
