package webclient

import (
	"net/http"
	"time"
)

type Request struct {
	Method  string
	URL     string
	Headers http.Header
	Body    []byte
	// Fetch carries fetch() init overrides such as "redirect" or
	// "credentials". chromedp hands them to the page untouched.
	Fetch map[string]any
}

type Response struct {
	Request    *Request
	Headers    http.Header
	Body       []byte
	StatusCode int
	// URL is the final URL after redirects.
	URL       string
	FetchedAt time.Time
}

// fetchString returns a string-valued fetch override, or "".
func (r *Request) fetchString(key string) string {
	if r.Fetch == nil {
		return ""
	}
	s, _ := r.Fetch[key].(string)
	return s
}
