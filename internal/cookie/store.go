package cookie

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/raysh454/hybridhttp/internal/model"
)

// expiredDate is written to expire a cookie immediately.
var expiredDate = time.Unix(0, 0).UTC().Format(http.TimeFormat)

// Document is the document.cookie getter and setter pair. Reading returns
// the "k1=v1; k2=v2" string of visible cookies; writing takes one
// Set-Cookie style assignment.
type Document interface {
	Cookie(ctx context.Context) (string, error)
	SetCookie(ctx context.Context, assignment string) error
}

// Store reads and writes cookies through a Document, the way a page script
// does.
type Store struct {
	doc Document
}

func NewStore(doc Document) *Store {
	return &Store{doc: doc}
}

// GetCookies returns every visible cookie in document order. Duplicate keys
// are kept.
func (s *Store) GetCookies(ctx context.Context) ([]model.HttpCookie, error) {
	raw, err := s.doc.Cookie(ctx)
	if err != nil {
		return nil, err
	}
	return Parse(raw), nil
}

// GetCookie returns the first cookie named key, or one with an empty value.
func (s *Store) GetCookie(ctx context.Context, key string) (model.HttpCookie, error) {
	cookies, err := s.GetCookies(ctx)
	if err != nil {
		return model.HttpCookie{}, err
	}
	for _, c := range cookies {
		if c.Key == key {
			return c, nil
		}
	}
	return model.HttpCookie{Key: key, Value: ""}, nil
}

// SetCookie writes key=value. Both are URL-encoded; path defaults to "/".
func (s *Store) SetCookie(ctx context.Context, key, value string, opts *model.HttpCookieOptions) error {
	return s.doc.SetCookie(ctx, Assignment(key, value, opts))
}

// DeleteCookie overwrites key with an already expired cookie.
func (s *Store) DeleteCookie(ctx context.Context, key string) error {
	return s.doc.SetCookie(ctx, fmt.Sprintf("%s=; Max-Age=0; path=/", encodeComponent(key)))
}

// ClearCookies expires every cookie currently visible to the document.
func (s *Store) ClearCookies(ctx context.Context) error {
	raw, err := s.doc.Cookie(ctx)
	if err != nil {
		return err
	}
	for _, name := range rawNames(raw) {
		if err := s.doc.SetCookie(ctx, fmt.Sprintf("%s=;expires=%s;path=/", name, expiredDate)); err != nil {
			return err
		}
	}
	return nil
}

// Parse splits a document.cookie string into cookies. Each entry is split at
// its first "=", then decoded and trimmed. Empty entries are skipped.
func Parse(raw string) []model.HttpCookie {
	out := []model.HttpCookie{}
	for _, entry := range strings.Split(raw, ";") {
		if strings.TrimSpace(entry) == "" {
			continue
		}
		key, value, _ := strings.Cut(entry, "=")
		out = append(out, model.HttpCookie{
			Key:   strings.TrimSpace(decodeComponent(key)),
			Value: strings.TrimSpace(decodeComponent(value)),
		})
	}
	return out
}

// Assignment renders the document.cookie assignment for a write.
func Assignment(key, value string, opts *model.HttpCookieOptions) string {
	if opts == nil {
		opts = &model.HttpCookieOptions{}
	}

	var b strings.Builder
	b.WriteString(encodeComponent(key))
	b.WriteString("=")
	b.WriteString(encodeComponent(value))

	if !opts.Expires.IsZero() {
		b.WriteString("; expires=")
		b.WriteString(opts.Expires.UTC().Format(http.TimeFormat))
	}

	path := opts.Path
	if path == "" {
		path = "/"
	}
	b.WriteString("; path=")
	b.WriteString(path)

	if domain := domainOf(opts.URL); domain != "" {
		b.WriteString("; domain=")
		b.WriteString(domain)
	}
	b.WriteString(";")
	return b.String()
}

// domainOf accepts either a bare host or a full URL.
func domainOf(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		return u.Hostname()
	}
	return raw
}

func rawNames(raw string) []string {
	var names []string
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimLeft(entry, " ")
		if entry == "" {
			continue
		}
		name, _, _ := strings.Cut(entry, "=")
		names = append(names, name)
	}
	return names
}

// encodeComponent matches encodeURIComponent closely enough for cookie
// names and values: spaces become %20, never "+".
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func decodeComponent(s string) string {
	decoded, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}
