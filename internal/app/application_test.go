package app_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raysh454/hybridhttp/internal/app"
	"github.com/raysh454/hybridhttp/internal/model"
	"github.com/raysh454/hybridhttp/internal/testutil"
)

// cookieEcho records the Cookie header of the last request.
type cookieEcho struct {
	mu   sync.Mutex
	last string
}

func newCookieEcho(t *testing.T) (*httptest.Server, *cookieEcho) {
	t.Helper()
	ce := &cookieEcho{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ce.mu.Lock()
		ce.last = r.Header.Get("Cookie")
		ce.mu.Unlock()
		if r.URL.Path == "/login" {
			http.SetCookie(w, &http.Cookie{Name: "server", Value: "set", Path: "/"})
		}
	}))
	t.Cleanup(ts.Close)
	return ts, ce
}

func (c *cookieEcho) Last() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

func TestPluginComponents_MemoryStoreSharesJar(t *testing.T) {
	t.Parallel()
	ts, echo := newCookieEcho(t)

	cfg := app.DefaultConfig()
	cfg.DocumentURL = ts.URL + "/"
	pc, err := app.NewPluginComponents(cfg, &testutil.DummyLogger{})
	require.NoError(t, err)
	defer pc.Close()

	ctx := context.Background()
	pc.Plugin.SetCookie(ctx, "client", "1", nil)

	_, err = pc.Plugin.Get(ctx, &model.HttpOptions{URL: ts.URL + "/login"})
	require.NoError(t, err)
	assert.Equal(t, "client=1", echo.Last())

	m, err := pc.Plugin.GetCookiesMap(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.HttpCookieMap{"client": "1", "server": "set"}, m)
}

func TestPluginComponents_SQLiteStorePersists(t *testing.T) {
	t.Parallel()
	ts, _ := newCookieEcho(t)

	cfg := app.DefaultConfig()
	cfg.CookieStore = app.CookieStoreSQLite
	cfg.SQLitePath = filepath.Join(t.TempDir(), "nested", "cookies.db")
	cfg.DocumentURL = ts.URL + "/"

	pc, err := app.NewPluginComponents(cfg, nil)
	require.NoError(t, err)
	pc.Plugin.SetCookie(context.Background(), "token", "xyz", nil)
	require.NoError(t, pc.Close())

	pc, err = app.NewPluginComponents(cfg, nil)
	require.NoError(t, err)
	defer pc.Close()

	got, err := pc.Plugin.GetCookie(context.Background(), "token")
	require.NoError(t, err)
	assert.Equal(t, "xyz", got.Value)
}

func TestPluginComponents_InvalidConfig(t *testing.T) {
	t.Parallel()
	cfg := app.DefaultConfig()
	cfg.CookieStore = app.CookieStoreBrowser

	_, err := app.NewPluginComponents(cfg, nil)
	assert.Error(t, err)
}

func TestApplication_ServesBridge(t *testing.T) {
	t.Parallel()
	ts, _ := newCookieEcho(t)

	cfg := app.DefaultConfig()
	cfg.ListenAddr = "127.0.0.1:0"
	cfg.DocumentURL = ts.URL + "/"

	a, err := app.NewApplication(cfg, nil, &testutil.DummyLogger{})
	require.NoError(t, err)

	addr, err := a.Start()
	require.NoError(t, err)
	defer a.Shutdown(context.Background())

	_, err = a.Start()
	assert.Error(t, err, "second start")

	resp, err := http.Post("http://"+addr+"/plugins/Http/get", "application/json",
		strings.NewReader(`{"url":"`+ts.URL+`/"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestApplication_WaitBeforeStart(t *testing.T) {
	t.Parallel()
	cfg := app.DefaultConfig()
	a, err := app.NewApplication(cfg, nil, nil)
	require.NoError(t, err)
	defer a.Shutdown(context.Background())

	assert.Error(t, a.Wait(context.Background()))
}
