package app

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sysadminsim/internal/api"
	"sysadminsim/internal/ui"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces every environment override, e.g. SYSADMIN_SIM_API_URL.
const EnvPrefix = "SYSADMIN_SIM"

// Config controls runtime behavior for the client.
type Config struct {
	APIURL         string        `yaml:"api_url" envconfig:"API_URL"`
	PlayerName     string        `yaml:"player" envconfig:"PLAYER_NAME"`
	RequestTimeout time.Duration `yaml:"timeout" envconfig:"REQUEST_TIMEOUT"`
	LogPath        string        `yaml:"log" envconfig:"LOG_PATH"`
	DataDir        string        `yaml:"data_dir" envconfig:"DATA_DIR"`
	History        bool          `yaml:"history" envconfig:"HISTORY"`
	Debug          bool          `yaml:"debug" envconfig:"DEBUG"`
	ASCIIOnly      bool          `yaml:"ascii" envconfig:"ASCII"`
	Demo           bool          `yaml:"demo" envconfig:"DEMO"`
	DemoAddr       string        `yaml:"demo_addr" envconfig:"DEMO_ADDR"`
	UI             UIConfig      `yaml:"ui" envconfig:"UI"`
}

type UIConfig struct {
	StyleVariant string `yaml:"style" envconfig:"STYLE"`
	ReduceMotion bool   `yaml:"reduce_motion" envconfig:"REDUCE_MOTION"`
}

func DefaultConfig() Config {
	return Config{
		APIURL:         api.DefaultBaseURL,
		RequestTimeout: 10 * time.Second,
		History:        true,
		DemoAddr:       "127.0.0.1:0",
		UI: UIConfig{
			StyleVariant: ui.DefaultStyleVariant,
		},
	}
}

// LoadConfig layers defaults, the optional YAML file at path and the
// environment, in that order. A .env file in the working directory is read
// into the environment first. Callers apply flags on top and then Validate.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return cfg, fmt.Errorf("read environment: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	c.APIURL = strings.TrimRight(strings.TrimSpace(c.APIURL), "/")
	if c.APIURL == "" {
		c.APIURL = api.DefaultBaseURL
	}
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid api url %q", c.APIURL)
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("invalid request timeout %s", c.RequestTimeout)
	}

	if c.UI.StyleVariant == "" {
		c.UI.StyleVariant = ui.DefaultStyleVariant
	}
	if !ui.ValidStyleVariant(c.UI.StyleVariant) {
		return fmt.Errorf("invalid ui style variant %q", c.UI.StyleVariant)
	}

	if c.DemoAddr == "" {
		c.DemoAddr = "127.0.0.1:0"
	}

	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return errors.New("cannot resolve user home directory")
		}
		c.DataDir = filepath.Join(home, ".local", "share", "sysadminsim")
	}
	return nil
}

func (c Config) JournalPath() string {
	return filepath.Join(c.DataDir, "journal.db")
}
