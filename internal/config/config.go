// Package config loads rusqbin settings from flags, RUSQBIN_* environment
// variables, an optional config file and an optional dotenv file.
package config

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"time"

	flag "github.com/jnovack/flag"
	"github.com/joho/godotenv"
)

// EnvPrefix prefixes the environment variable of every flag.
const EnvPrefix = "RUSQBIN"

// DefaultPort is used when neither -addr nor a positional port is given.
const DefaultPort = 9999

// ErrVersion is returned by Load when -version was requested.
var ErrVersion = errors.New("version requested")

// Config is the effective process configuration. It is rendered by /varz.
type Config struct {
	Addr              string        `json:"addr"`
	AdminAddr         string        `json:"admin_addr"`
	LogLevel          string        `json:"log_level"`
	LogFormat         string        `json:"log_format"`
	ReadHeaderTimeout time.Duration `json:"read_header_timeout"`
	ShutdownTimeout   time.Duration `json:"shutdown_timeout"`
	Banner            bool          `json:"banner"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:              net.JoinHostPort("127.0.0.1", strconv.Itoa(DefaultPort)),
		AdminAddr:         "127.0.0.1:9998",
		LogLevel:          "info",
		LogFormat:         "console",
		ReadHeaderTimeout: 15 * time.Second,
		ShutdownTimeout:   10 * time.Second,
		Banner:            true,
	}
}

// Load parses args (without the program name). A single positional argument
// is taken as the port to listen on, on the host of -addr.
func Load(args []string) (Config, error) {
	if err := loadDotenv(); err != nil {
		return Config{}, err
	}

	cfg := Default()
	fs := flag.NewFlagSetWithEnvPrefix("rusqbin", EnvPrefix, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.String(flag.DefaultConfigFlagname, "", "path to config file")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address for the bin API")
	fs.StringVar(&cfg.AdminAddr, "admin-addr", cfg.AdminAddr, "admin HTTP listen address (empty disables)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug|info|warn|error")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format: console|json")
	fs.DurationVar(&cfg.ReadHeaderTimeout, "read-header-timeout", cfg.ReadHeaderTimeout, "time allowed to read request headers")
	fs.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", cfg.ShutdownTimeout, "graceful shutdown deadline")
	fs.BoolVar(&cfg.Banner, "banner", cfg.Banner, "print the API banner on startup")
	version := fs.Bool("version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return Config{}, fmt.Errorf("parsing flags: %w", err)
	}
	if *version {
		return cfg, ErrVersion
	}

	switch fs.NArg() {
	case 0:
	case 1:
		port, err := strconv.ParseUint(fs.Arg(0), 10, 16)
		if err != nil {
			return Config{}, fmt.Errorf("port must be a number, got %q", fs.Arg(0))
		}
		host, _, err := net.SplitHostPort(cfg.Addr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid -addr %q: %w", cfg.Addr, err)
		}
		cfg.Addr = net.JoinHostPort(host, strconv.FormatUint(port, 10))
	default:
		return Config{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	return cfg, nil
}

// loadDotenv reads RUSQBIN_ENV_FILE (default .env) if it exists. Variables
// already present in the environment are left alone.
func loadDotenv() error {
	path := os.Getenv(EnvPrefix + "_ENV_FILE")
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}
