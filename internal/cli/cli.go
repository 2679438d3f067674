package cli

import (
	"flag"
	"fmt"
	"io"
	"time"
)

// CLIArgs are the command-line overrides for one bridge process. Only flags
// present on the command line are applied over the loaded config; Set records
// which ones those are.
type CLIArgs struct {
	Backend     string
	ListenAddr  string
	CookieStore string
	SQLitePath  string
	DocumentURL string
	LogLevel    string
	Headless    bool
	Timeout     time.Duration

	// EnvDir is where .env files are looked up; empty means the working
	// directory.
	EnvDir string

	// Set holds the names of flags given explicitly.
	Set map[string]bool

	// RawArgs is the original args slice (useful for debugging/tests).
	RawArgs []string
}

// IsSet reports whether the named flag was given explicitly.
func (a *CLIArgs) IsSet(name string) bool {
	return a != nil && a.Set[name]
}

// ParseArgs parses a slice of args and returns CLIArgs. Use in tests by passing
// arbitrary slices. The function is deterministic and does not read os.Args.
func ParseArgs(args []string) (*CLIArgs, error) {
	fs := flag.NewFlagSet("hybridhttp", flag.ContinueOnError)
	out := &CLIArgs{RawArgs: args, Set: map[string]bool{}}

	fs.StringVar(&out.Backend, "backend", "", "WebClient backend: nethttp|chromedp")
	fs.StringVar(&out.ListenAddr, "listen", "", "Bridge listen address, e.g. 127.0.0.1:8787")
	fs.StringVar(&out.CookieStore, "cookie-store", "", "Cookie store: memory|sqlite|browser")
	fs.StringVar(&out.SQLitePath, "sqlite-path", "", "SQLite cookie database path")
	fs.StringVar(&out.DocumentURL, "document-url", "", "Origin whose document.cookie the plugin manages")
	fs.StringVar(&out.LogLevel, "log-level", "", "Log level: debug|info|warn|error")
	fs.BoolVar(&out.Headless, "headless", true, "Run Chrome headless (chromedp backend)")
	fs.DurationVar(&out.Timeout, "timeout", 0, "Per-request timeout for the nethttp backend")
	fs.StringVar(&out.EnvDir, "env-dir", "", "Directory holding .env files")

	// Ensure Parse doesn't write to stdout/stderr in tests
	fs.SetOutput(io.Discard)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	fs.Visit(func(f *flag.Flag) { out.Set[f.Name] = true })
	return out, nil
}
