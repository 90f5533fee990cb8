package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage backends.
const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRemote   = "remote"
)

// StorageConfig selects where todos, categories and trash live.
type StorageConfig struct {
	// Backend is one of file, sqlite, postgres or remote.
	Backend string `mapstructure:"backend" yaml:"backend" validate:"oneof=file sqlite postgres remote"`

	// DataDir holds the JSON files (file backend) and the sqlite database.
	DataDir string `mapstructure:"data_dir" yaml:"data_dir"`

	// DSN is the postgres connection string, or a sqlite path override.
	DSN string `mapstructure:"dsn" yaml:"dsn" validate:"required_if=Backend postgres"`

	// HostURL is the base URL of a running `todo-board serve` process.
	HostURL string `mapstructure:"host_url" yaml:"host_url" validate:"required_if=Backend remote"`
}

// HostConfig configures the `serve` command.
type HostConfig struct {
	Addr        string `mapstructure:"addr" yaml:"addr"`
	TokenTTLSec int    `mapstructure:"token_ttl_sec" yaml:"token_ttl_sec"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
	// WeekStart is the first day column on the calendar board.
	WeekStart string `mapstructure:"week_start" yaml:"week_start"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	// Output is "stderr", "stdout" or a file path.
	Output string `mapstructure:"output" yaml:"output"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Host    HostConfig    `mapstructure:"host" yaml:"host"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/todo-board/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "todo-board", "config.yaml")
}

// DefaultDataDir returns ~/.local/share/todo-board.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "data")
	}
	return filepath.Join(home, ".local", "share", "todo-board")
}

// DefaultLogPath returns ~/.local/state/todo-board/todo-board.log.
func DefaultLogPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "todo-board.log")
	}
	return filepath.Join(home, ".local", "state", "todo-board", "todo-board.log")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Storage: StorageConfig{
			Backend: BackendFile,
			DataDir: DefaultDataDir(),
			HostURL: "http://127.0.0.1:7420",
		},
		Host: HostConfig{
			Addr:        "127.0.0.1:7420",
			TokenTTLSec: 300,
		},
		Display: DisplayConfig{
			Theme:     "default",
			WeekStart: string(Monday),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
			Output: DefaultLogPath(),
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := defaultAppConfig()
	v.SetDefault("storage.backend", d.Storage.Backend)
	v.SetDefault("storage.data_dir", d.Storage.DataDir)
	v.SetDefault("storage.dsn", d.Storage.DSN)
	v.SetDefault("storage.host_url", d.Storage.HostURL)
	v.SetDefault("host.addr", d.Host.Addr)
	v.SetDefault("host.token_ttl_sec", d.Host.TokenTTLSec)
	v.SetDefault("display.theme", d.Display.Theme)
	v.SetDefault("display.week_start", d.Display.WeekStart)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.output", d.Log.Output)
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// Values may be overridden with TODOBOARD_* environment variables, which
// are also read from a .env file in the working directory when present.
// If the file does not exist, defaults (plus overrides) are returned.
func LoadConfig(path string) (*AppConfig, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("TODOBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		var pathErr *os.PathError
		if !errors.As(err, &notFound) && !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config %s: %w", path, err)
	}

	return cfg, nil
}

var configValidator = validator.New()

// Validate checks enumerated values and fills the token lifetime default.
func (c *AppConfig) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return fieldError(verrs[0])
		}
		return err
	}
	if c.Host.TokenTTLSec <= 0 {
		c.Host.TokenTTLSec = 300
	}
	return nil
}

// fieldError turns a validator failure into a message naming the config key.
func fieldError(fe validator.FieldError) error {
	switch fe.StructField() {
	case "Backend":
		return fmt.Errorf("unknown storage backend %q", fe.Value())
	case "DSN":
		return errors.New("storage.dsn is required for the postgres backend")
	case "HostURL":
		return errors.New("storage.host_url is required for the remote backend")
	}
	return fmt.Errorf("invalid %s: failed %q", fe.Namespace(), fe.Tag())
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("storage", cfg.Storage)
	v.Set("host", cfg.Host)
	v.Set("display", cfg.Display)
	v.Set("log", cfg.Log)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
