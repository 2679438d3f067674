package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HttpCookie is one key/value pair from the cookie store.
type HttpCookie struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// HttpCookieOptions scopes a cookie write. Nothing here is retained.
type HttpCookieOptions struct {
	// URL becomes the cookie domain when set.
	URL string `json:"url,omitempty"`

	// Path defaults to "/".
	Path string `json:"path,omitempty"`

	// Expires is optional; zero writes a session cookie.
	Expires CookieExpiry `json:"expires,omitempty" swaggertype:"string"`
}

// CookieExpiry is a cookie expiry date as pages send it: a cookie date such
// as "Wed, 21 Oct 2026 07:28:00 GMT", an ISO 8601 string, milliseconds since
// the epoch, or "" and null for none.
type CookieExpiry struct {
	time.Time
}

func (e CookieExpiry) MarshalJSON() ([]byte, error) {
	if e.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(e.UTC().Format(http.TimeFormat))
}

func (e *CookieExpiry) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		e.Time = time.Time{}
		return nil
	}
	if b[0] != '"' {
		var ms int64
		if err := json.Unmarshal(b, &ms); err != nil {
			return fmt.Errorf("expires: %w", err)
		}
		e.Time = time.UnixMilli(ms).UTC()
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("expires: %w", err)
	}
	if s == "" {
		e.Time = time.Time{}
		return nil
	}
	if t, err := http.ParseTime(s); err == nil {
		e.Time = t
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("expires %q is neither a cookie date nor ISO 8601", s)
	}
	e.Time = t
	return nil
}

// HttpCookieMap maps a cookie key to its last seen value.
type HttpCookieMap map[string]string

// HttpGetCookiesResult wraps the ordered cookie list.
type HttpGetCookiesResult struct {
	Cookies []HttpCookie `json:"cookies"`
}
