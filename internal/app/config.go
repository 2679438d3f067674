package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/raysh454/hybridhttp/internal/cli"
	"github.com/raysh454/hybridhttp/internal/cookie"
	"github.com/raysh454/hybridhttp/internal/webclient"
)

// EnvPrefix prefixes every environment variable the config reads.
const EnvPrefix = "HYBRIDHTTP_"

// CookieStoreKind selects where plugin cookies live.
type CookieStoreKind string

const (
	// CookieStoreMemory keeps cookies in a process-local jar.
	CookieStoreMemory CookieStoreKind = "memory"
	// CookieStoreSQLite keeps cookies in a SQLite database across restarts.
	CookieStoreSQLite CookieStoreKind = "sqlite"
	// CookieStoreBrowser uses the chromedp page's own document.cookie.
	CookieStoreBrowser CookieStoreKind = "browser"
)

// Config is the runtime configuration of one bridge process.
type Config struct {
	// WebClient configuration. Jar is filled in during wiring.
	WebClientCfg webclient.Config

	CookieStore CookieStoreKind

	// SQLitePath is used with CookieStoreSQLite. A leading ~ expands to the
	// home directory.
	SQLitePath string

	// DocumentURL is the origin whose cookies the plugin reads and writes.
	DocumentURL string

	// ListenAddr is the HTTP listen address of the bridge.
	ListenAddr string

	// IdleTimeout closes idle keep-alive bridge connections.
	IdleTimeout time.Duration

	LogLevel string
}

// DefaultConfig returns a Config populated with sensible development defaults.
func DefaultConfig() *Config {
	return &Config{
		WebClientCfg: webclient.Config{
			Client:   webclient.ClientNetHTTP,
			Timeout:  30 * time.Second,
			Headless: true,
		},
		CookieStore: CookieStoreMemory,
		SQLitePath:  "~/.config/hybridhttp/cookies.db",
		DocumentURL: cookie.DefaultDocumentURL,
		ListenAddr:  "127.0.0.1:8787",
		IdleTimeout: 2 * time.Minute,
		LogLevel:    "info",
	}
}

// LoadConfig builds a Config from defaults, .env files in dir and the process
// environment, in increasing precedence.
func LoadConfig(dir string) (*Config, error) {
	fileEnv, err := ReadEnvFiles(dir, os.Getenv("ENVIRONMENT"))
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileEnv[key]
		return v, ok
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ReadEnvFiles merges .env, .env.<environment> and .env.local from dir; later
// files win. Missing files are skipped. The process environment is not
// modified.
func ReadEnvFiles(dir, environment string) (map[string]string, error) {
	names := []string{".env"}
	if environment != "" {
		names = append(names, ".env."+environment)
	}
	names = append(names, ".env.local")

	merged := map[string]string{}
	for _, name := range names {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		vals, err := godotenv.Read(path)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", name, err)
		}
		for k, v := range vals {
			merged[k] = v
		}
	}
	return merged, nil
}

// ApplyEnv overlays HYBRIDHTTP_* values returned by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}

	if v, ok := get("BACKEND"); ok {
		c.WebClientCfg.Client = webclient.Client(strings.ToLower(v))
	}
	if v, ok := get("TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sTIMEOUT: %w", EnvPrefix, err)
		}
		c.WebClientCfg.Timeout = d
	}
	if v, ok := get("HEADLESS"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sHEADLESS: %w", EnvPrefix, err)
		}
		c.WebClientCfg.Headless = b
	}
	if v, ok := get("CHROME_PATH"); ok {
		c.WebClientCfg.ExecPath = v
	}
	if v, ok := get("COOKIE_STORE"); ok {
		c.CookieStore = CookieStoreKind(strings.ToLower(v))
	}
	if v, ok := get("SQLITE_PATH"); ok {
		c.SQLitePath = v
	}
	if v, ok := get("DOCUMENT_URL"); ok {
		c.DocumentURL = v
	}
	if v, ok := get("LISTEN_ADDR"); ok {
		c.ListenAddr = v
	}
	if v, ok := get("IDLE_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sIDLE_TIMEOUT: %w", EnvPrefix, err)
		}
		c.IdleTimeout = d
	}
	if v, ok := get("LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	return nil
}

// ApplyArgs overlays flags given explicitly on the command line.
func (c *Config) ApplyArgs(args *cli.CLIArgs) {
	if args.IsSet("backend") {
		c.WebClientCfg.Client = webclient.Client(strings.ToLower(args.Backend))
	}
	if args.IsSet("timeout") {
		c.WebClientCfg.Timeout = args.Timeout
	}
	if args.IsSet("headless") {
		c.WebClientCfg.Headless = args.Headless
	}
	if args.IsSet("cookie-store") {
		c.CookieStore = CookieStoreKind(strings.ToLower(args.CookieStore))
	}
	if args.IsSet("sqlite-path") {
		c.SQLitePath = args.SQLitePath
	}
	if args.IsSet("document-url") {
		c.DocumentURL = args.DocumentURL
	}
	if args.IsSet("listen") {
		c.ListenAddr = args.ListenAddr
	}
	if args.IsSet("log-level") {
		c.LogLevel = args.LogLevel
	}
}

// Validate checks combinations the wiring cannot satisfy.
func (c *Config) Validate() error {
	switch c.CookieStore {
	case CookieStoreMemory, CookieStoreSQLite:
	case CookieStoreBrowser:
		if c.WebClientCfg.Client != webclient.ClientChromedp {
			return fmt.Errorf("cookie store %q requires the %q backend", c.CookieStore, webclient.ClientChromedp)
		}
	default:
		return fmt.Errorf("unknown cookie store %q", c.CookieStore)
	}
	if c.CookieStore == CookieStoreSQLite && c.SQLitePath == "" {
		return fmt.Errorf("cookie store %q needs a database path", c.CookieStore)
	}
	if c.DocumentURL == "" {
		return fmt.Errorf("document URL is empty")
	}
	return nil
}

func expandPath(p string) (string, error) {
	if len(p) > 0 && p[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, p[1:]), nil
	}
	return p, nil
}
