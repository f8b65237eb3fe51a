// Package config loads sketchcanvas settings.
//
// Settings come from three layers, later ones winning:
//
//  1. [Default] values
//  2. an optional TOML file ([DefaultPath] unless a path is given)
//  3. environment variables
//
// Example file:
//
//	[gemini]
//	endpoint = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent"
//	timeout = "45s"
//	max_attempts = 5
//	base_delay = "1s"
//	max_jitter = "500ms"
//
//	[server]
//	addr = ":8080"
//	allowed_origins = ["http://localhost:3000"]
//
//	[store]
//	backend = "redis"
//	redis_url = "redis://localhost:6379/0"
//
// The API key is best supplied through GEMINI_API_KEY rather than the file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	sketcherrors "github.com/matzehuels/sketchcanvas/pkg/errors"
	"github.com/matzehuels/sketchcanvas/pkg/gemini"
	"github.com/matzehuels/sketchcanvas/pkg/httputil"
)

const appName = "sketchcanvas"

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

// Backends lists the accepted store backends.
var Backends = []string{BackendMemory, BackendFile, BackendRedis, BackendMongo}

// Environment variables read by [Load].
const (
	EnvAPIKey         = "GEMINI_API_KEY"
	EnvEndpoint       = "GEMINI_ENDPOINT"
	EnvAddr           = "SKETCHCANVAS_ADDR"
	EnvAllowedOrigins = "SKETCHCANVAS_ALLOWED_ORIGINS"
	EnvStore          = "SKETCHCANVAS_STORE"
	EnvDataDir        = "SKETCHCANVAS_DATA_DIR"
	EnvRedisURL       = "REDIS_URL"
	EnvMongoURI       = "MONGO_URI"
)

// Config is the complete application configuration.
type Config struct {
	Gemini Gemini `toml:"gemini"`
	Server Server `toml:"server"`
	Store  Store  `toml:"store"`
}

// Gemini configures the generative endpoint and its retry schedule.
type Gemini struct {
	APIKey      string        `toml:"api_key"`
	Endpoint    string        `toml:"endpoint"`
	Timeout     time.Duration `toml:"timeout"`
	MaxAttempts int           `toml:"max_attempts"`
	BaseDelay   time.Duration `toml:"base_delay"`
	MaxJitter   time.Duration `toml:"max_jitter"`
}

// Server configures the HTTP API.
type Server struct {
	Addr            string        `toml:"addr"`
	AllowedOrigins  []string      `toml:"allowed_origins"`
	ReadTimeout     time.Duration `toml:"read_timeout"`
	WriteTimeout    time.Duration `toml:"write_timeout"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
}

// Store selects and configures the canvas store.
type Store struct {
	Backend       string `toml:"backend"`
	Dir           string `toml:"dir"` // file backend; empty means DataDir()/canvases
	RedisURL      string `toml:"redis_url"`
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
}

// Default returns the built-in configuration.
func Default() Config {
	p := httputil.DefaultPolicy()
	return Config{
		Gemini: Gemini{
			Endpoint:    gemini.DefaultEndpoint,
			Timeout:     gemini.DefaultTimeout,
			MaxAttempts: p.MaxAttempts,
			BaseDelay:   p.BaseDelay,
			MaxJitter:   p.MaxJitter,
		},
		Server: Server{
			Addr:            ":8080",
			AllowedOrigins:  []string{"http://localhost:3000"},
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    90 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Store: Store{
			Backend:       BackendFile,
			MongoDatabase: appName,
		},
	}
}

// Load builds the configuration from defaults, the TOML file at path and the
// process environment. An empty path reads [DefaultPath] if it exists; an
// explicit path must exist.
func Load(path string) (Config, error) {
	return load(path, os.Getenv)
}

func load(path string, getenv func(string) string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		if p, err := DefaultPath(); err == nil {
			path = p
		}
	}
	if path != "" {
		if err := cfg.decodeFile(path); err != nil {
			if explicit || !errors.Is(err, fs.ErrNotExist) {
				return Config{}, err
			}
		}
	}

	cfg.applyEnv(getenv)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) decodeFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return sketcherrors.Wrap(sketcherrors.ErrCodeInvalidConfig, err, "read %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return sketcherrors.New(sketcherrors.ErrCodeInvalidConfig, "%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.Gemini.APIKey, EnvAPIKey)
	set(&c.Gemini.Endpoint, EnvEndpoint)
	set(&c.Server.Addr, EnvAddr)
	set(&c.Store.Backend, EnvStore)
	set(&c.Store.Dir, EnvDataDir)
	set(&c.Store.RedisURL, EnvRedisURL)
	set(&c.Store.MongoURI, EnvMongoURI)

	if v := getenv(EnvAllowedOrigins); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.Server.AllowedOrigins = origins
	}
}

// Validate reports the first invalid setting. The API key is not checked
// here; commands that talk to the endpoint require it.
func (c Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return sketcherrors.New(sketcherrors.ErrCodeInvalidConfig, format, args...)
	}

	g := c.Gemini
	if err := sketcherrors.ValidateURL(g.Endpoint); err != nil {
		return sketcherrors.Wrap(sketcherrors.ErrCodeInvalidConfig, err, "gemini.endpoint")
	}
	switch {
	case g.MaxAttempts < 1 || g.MaxAttempts > 10:
		return invalid("gemini.max_attempts must be between 1 and 10, got %d", g.MaxAttempts)
	case g.BaseDelay < 0:
		return invalid("gemini.base_delay must not be negative")
	case g.MaxJitter < 0:
		return invalid("gemini.max_jitter must not be negative")
	case g.Timeout <= 0:
		return invalid("gemini.timeout must be positive")
	}

	if c.Server.Addr == "" {
		return invalid("server.addr is required")
	}

	s := c.Store
	if !slices.Contains(Backends, s.Backend) {
		return invalid("store.backend must be one of %s, got %q", strings.Join(Backends, ", "), s.Backend)
	}
	if s.Backend == BackendRedis && s.RedisURL == "" {
		return invalid("store.redis_url is required for the redis backend")
	}
	if s.Backend == BackendMongo && s.MongoURI == "" {
		return invalid("store.mongo_uri is required for the mongo backend")
	}
	return nil
}

// Client returns the transport configuration for [gemini.NewClient].
func (g Gemini) Client() gemini.Config {
	p := httputil.DefaultPolicy()
	p.MaxAttempts = g.MaxAttempts
	p.BaseDelay = g.BaseDelay
	p.MaxJitter = g.MaxJitter
	return gemini.Config{
		APIKey:   g.APIKey,
		Endpoint: g.Endpoint,
		Timeout:  g.Timeout,
		Policy:   p,
	}
}

// =============================================================================
// Paths
// =============================================================================

// DefaultPath returns the config file location following XDG
// (~/.config/sketchcanvas/config.toml).
func DefaultPath() (string, error) {
	dir, err := xdgDir("XDG_CONFIG_HOME", ".config")
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// DataDir returns the data directory following XDG
// (~/.local/share/sketchcanvas).
func DataDir() (string, error) {
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

func xdgDir(env, fallback string) (string, error) {
	if base := os.Getenv(env); base != "" {
		return filepath.Join(base, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, fallback, appName), nil
}
