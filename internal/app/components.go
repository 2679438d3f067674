package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/raysh454/hybridhttp/internal/cookie"
	"github.com/raysh454/hybridhttp/internal/logging"
	"github.com/raysh454/hybridhttp/internal/plugin"
	"github.com/raysh454/hybridhttp/internal/request"
	"github.com/raysh454/hybridhttp/internal/webclient"
)

// PluginComponents is everything behind one HttpClient.
type PluginComponents struct {
	WebClient webclient.WebClient
	Cookies   *cookie.Store
	Requests  *request.Executor
	Plugin    *plugin.HttpClient

	jar *cookie.SQLiteJar
}

// NewPluginComponents builds the cookie store, backend, executor and plugin
// described by cfg.
func NewPluginComponents(cfg *Config, logger logging.Logger) (*PluginComponents, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logging.NopLogger{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pc := &PluginComponents{}

	wcCfg := cfg.WebClientCfg
	wcCfg.DocumentURL = cfg.DocumentURL

	switch cfg.CookieStore {
	case CookieStoreMemory:
		j, err := cookie.NewMemoryJar()
		if err != nil {
			return nil, fmt.Errorf("new memory jar: %w", err)
		}
		pc.jar = j
	case CookieStoreSQLite:
		path, err := expandPath(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("expanding sqlite path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			logger.Warn("creating cookie database directory",
				logging.Field{Key: "path", Value: path},
				logging.Field{Key: "error", Value: err.Error()})
		}
		j, err := cookie.OpenSQLiteJar(path, logger)
		if err != nil {
			return nil, fmt.Errorf("open sqlite jar: %w", err)
		}
		pc.jar = j
	}
	// a nil *SQLiteJar must not reach the interface field
	if pc.jar != nil {
		wcCfg.Jar = pc.jar
	}

	wc, err := webclient.NewWebClient(wcCfg, logger)
	if err != nil {
		_ = pc.Close()
		return nil, fmt.Errorf("new webclient: %w", err)
	}
	pc.WebClient = wc

	var doc cookie.Document
	if cfg.CookieStore == CookieStoreBrowser {
		cdc, ok := wc.(*webclient.ChromedpClient)
		if !ok {
			_ = pc.Close()
			return nil, fmt.Errorf("cookie store %q needs a chromedp backend, got %T", cfg.CookieStore, wc)
		}
		doc = cdc.Document()
	} else {
		jd, err := cookie.NewJarDocument(pc.jar, cfg.DocumentURL)
		if err != nil {
			_ = pc.Close()
			return nil, fmt.Errorf("new cookie document: %w", err)
		}
		doc = jd
	}
	pc.Cookies = cookie.NewStore(doc)

	pc.Requests, err = request.New(wc, logger)
	if err != nil {
		_ = pc.Close()
		return nil, fmt.Errorf("new request executor: %w", err)
	}

	pc.Plugin, err = plugin.New(pc.Requests, pc.Cookies, logger)
	if err != nil {
		_ = pc.Close()
		return nil, fmt.Errorf("new plugin: %w", err)
	}

	logger.Info("plugin components ready",
		logging.Field{Key: "backend", Value: string(wcCfg.Client)},
		logging.Field{Key: "cookie_store", Value: string(cfg.CookieStore)},
		logging.Field{Key: "document_url", Value: cfg.DocumentURL})
	return pc, nil
}

// Close releases the backend and the cookie database.
func (pc *PluginComponents) Close() error {
	var firstErr error
	if pc.WebClient != nil {
		if err := pc.WebClient.Close(); err != nil {
			firstErr = err
		}
	}
	if pc.jar != nil {
		if err := pc.jar.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
