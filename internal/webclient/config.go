package webclient

import (
	"net/http"
	"time"
)

type Client string

const (
	ClientNetHTTP  Client = "nethttp"
	ClientChromedp Client = "chromedp"
)

// Config holds what the backends need. It is embedded in app.Config without
// creating an import cycle.
type Config struct {
	Client Client

	// Timeout bounds a whole nethttp request; zero means 30s.
	Timeout time.Duration

	// Jar is shared with the cookie store so cookies written through the
	// plugin are sent with requests. Optional.
	Jar http.CookieJar

	// Headless controls the chromedp browser window.
	Headless bool

	// ExecPath overrides the Chrome binary chromedp starts.
	ExecPath string

	// DocumentURL is the page chromedp keeps open; fetch() and
	// document.cookie run in its origin.
	DocumentURL string
}
