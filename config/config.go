package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/tomasstrnad1997/sweeper/mines"
)

const EnvPrefix = "SWEEPER"

// Config is shared by every command. Values come from, in increasing
// priority: defaults, the .env file, SWEEPER_* environment variables and
// command line flags.
type Config struct {
	Width    int    `mapstructure:"width"`
	Height   int    `mapstructure:"height"`
	Mines    int    `mapstructure:"mines"`
	TileSize int    `mapstructure:"tile_size"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	DBPath   string `mapstructure:"db_path"`
	Player   string `mapstructure:"player"`
	Password string `mapstructure:"password"`
	LogLevel string `mapstructure:"log_level"`

	// Args holds the positional arguments left after flag parsing.
	Args []string `mapstructure:"-"`
}

var defaults = map[string]any{
	"width":     15,
	"height":    20,
	"mines":     0,
	"tile_size": 20,
	"host":      "localhost",
	"port":      42069,
	"db_path":   "",
	"player":    "",
	"password":  "",
	"log_level": "info",
}

// flag name -> config key
var flagKeys = map[string]string{
	"width":     "width",
	"height":    "height",
	"mines":     "mines",
	"tile-size": "tile_size",
	"host":      "host",
	"port":      "port",
	"db":        "db_path",
	"player":    "player",
	"password":  "password",
	"log-level": "log_level",
}

func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.Int("width", 15, "board width")
	fs.Int("height", 20, "board height")
	fs.Int("mines", 0, "number of mines, 0 picks a tenth of the board")
	fs.Int("tile-size", 20, "cell size in pixels")
	fs.String("host", "localhost", "server host")
	fs.Int("port", 42069, "server port, 0 picks a free one")
	fs.String("db", "", "sqlite records database")
	fs.String("player", "", "player name for the records table")
	fs.String("password", "", "player password")
	fs.String("log-level", "info", "debug, info, warn or error")
	fs.String("env-file", ".env", "dotenv file, ignored when missing")
	return fs
}

// Load parses args (without the program name).
func Load(name string, args []string) (*Config, error) {
	fs := newFlagSet(name)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	envFile, _ := fs.GetString("env-file")
	if err := applyEnvFile(v, envFile); err != nil {
		return nil, err
	}
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	for flagName, key := range flagKeys {
		if err := v.BindPFlag(key, fs.Lookup(flagName)); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", flagName, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Args = fs.Args()
	return &cfg, nil
}

// applyEnvFile feeds SWEEPER_* entries of a dotenv file into viper below the
// process environment, without touching os.Environ.
func applyEnvFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	values, err := godotenv.Read(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	for name, value := range values {
		key, ok := strings.CutPrefix(name, EnvPrefix+"_")
		if !ok {
			continue
		}
		v.SetDefault(strings.ToLower(key), value)
	}
	return nil
}

func (cfg *Config) Validate() error {
	if cfg.Port < 0 || cfg.Port > 65535 {
		return fmt.Errorf("port %d out of range", cfg.Port)
	}
	if cfg.TileSize <= 0 {
		return fmt.Errorf("tile size must be positive, got %d", cfg.TileSize)
	}
	return nil
}

// GameParams as requested; the engine resolves a zero mine count.
func (cfg *Config) GameParams() mines.GameParams {
	return mines.GameParams{Width: cfg.Width, Height: cfg.Height, Mines: cfg.Mines}
}

func (cfg *Config) RecordsEnabled() bool {
	return cfg.DBPath != "" && cfg.Player != ""
}
