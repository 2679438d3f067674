package cookie

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const DefaultDocumentURL = "http://localhost/"

// ScriptJar is a cookie jar that also knows what page scripts may see.
// ScriptCookies omits HttpOnly cookies and SetScriptCookies refuses to
// create, replace or remove them.
type ScriptJar interface {
	http.CookieJar
	ScriptCookies(u *url.URL) []*http.Cookie
	SetScriptCookies(u *url.URL, cookies []*http.Cookie)
}

// NewMemoryJar returns a SQLite jar that lives only as long as the process.
func NewMemoryJar() (*SQLiteJar, error) {
	jar, err := OpenSQLiteJar(":memory:", nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	return jar, nil
}

// JarDocument emulates document.cookie for a page at a fixed URL on top of
// a ScriptJar. Sharing the jar with an http.Client makes writes visible
// to requests, as in a browser.
type JarDocument struct {
	jar ScriptJar
	url *url.URL
}

func NewJarDocument(jar ScriptJar, documentURL string) (*JarDocument, error) {
	if jar == nil {
		return nil, fmt.Errorf("cookie jar is nil")
	}
	if documentURL == "" {
		documentURL = DefaultDocumentURL
	}
	u, err := url.Parse(documentURL)
	if err != nil {
		return nil, fmt.Errorf("parse document url: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("document url %q has no host", documentURL)
	}
	if u.Path == "" {
		u.Path = "/"
	}
	return &JarDocument{jar: jar, url: u}, nil
}

func (d *JarDocument) Cookie(_ context.Context) (string, error) {
	cookies := d.jar.ScriptCookies(d.url)
	parts := make([]string, 0, len(cookies))
	for _, c := range cookies {
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; "), nil
}

// SetCookie parses assignment as a Set-Cookie line. Writes the jar refuses
// are dropped silently, as a browser does.
func (d *JarDocument) SetCookie(_ context.Context, assignment string) error {
	c, err := http.ParseSetCookie(assignment)
	if err != nil {
		return fmt.Errorf("parse cookie %q: %w", assignment, err)
	}
	d.jar.SetScriptCookies(d.url, []*http.Cookie{c})
	return nil
}

// URL returns the document URL.
func (d *JarDocument) URL() string {
	return d.url.String()
}
