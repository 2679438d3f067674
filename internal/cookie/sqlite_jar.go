package cookie

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/raysh454/hybridhttp/internal/logging"

	_ "modernc.org/sqlite" // SQLite driver
)

//go:embed schema.sql
var schemaFS embed.FS

// SQLiteJar is a persistent http.CookieJar, the equivalent of a browser
// profile's cookie database. Cookies come back ordered by longest path first,
// then by creation time.
type SQLiteJar struct {
	db     *sql.DB
	logger logging.Logger
	now    func() time.Time
}

// OpenSQLiteJar opens (or creates) the cookie database at path.
func OpenSQLiteJar(path string, logger logging.Logger) (*SQLiteJar, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cookie database: %w", err)
	}
	// a single connection keeps :memory: databases coherent
	db.SetMaxOpenConns(1)

	jar, err := NewSQLiteJar(db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return jar, nil
}

// NewSQLiteJar runs the schema on db and returns a jar over it.
func NewSQLiteJar(db *sql.DB, logger logging.Logger) (*SQLiteJar, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	if logger == nil {
		logger = logging.NopLogger{}
	}

	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to read schema.sql: %w", err)
	}
	if _, err := db.Exec(string(schemaSQL)); err != nil {
		return nil, fmt.Errorf("failed to execute schema: %w", err)
	}

	return &SQLiteJar{
		db:     db,
		logger: logger.With(logging.Field{Key: "component", Value: "sqlite_jar"}),
		now:    time.Now,
	}, nil
}

// Close closes the underlying database.
func (j *SQLiteJar) Close() error {
	return j.db.Close()
}

// SetCookies implements http.CookieJar. Failures are logged, the interface
// has no way to report them.
func (j *SQLiteJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.setCookies(u, cookies, false)
}

// SetScriptCookies stores cookies written through document.cookie. Cookies
// carrying HttpOnly are dropped, and so is any write that would replace or
// remove a stored HttpOnly cookie.
func (j *SQLiteJar) SetScriptCookies(u *url.URL, cookies []*http.Cookie) {
	j.setCookies(u, cookies, true)
}

func (j *SQLiteJar) setCookies(u *url.URL, cookies []*http.Cookie, fromScript bool) {
	host, err := canonicalHost(u.Host)
	if err != nil {
		j.logger.Warn("rejecting cookies for bad host", logging.Field{Key: "host", Value: u.Host}, logging.Field{Key: "error", Value: err})
		return
	}
	now := j.now()

	for _, c := range cookies {
		if err := j.setCookie(host, u, c, now, fromScript); err != nil {
			j.logger.Warn("storing cookie", logging.Field{Key: "name", Value: c.Name}, logging.Field{Key: "error", Value: err})
		}
	}
}

func (j *SQLiteJar) setCookie(host string, u *url.URL, c *http.Cookie, now time.Time, fromScript bool) error {
	if fromScript && c.HttpOnly {
		j.logger.Debug("dropping HttpOnly cookie written by script", logging.Field{Key: "name", Value: c.Name})
		return nil
	}

	domain, hostOnly, ok := cookieDomain(host, c.Domain)
	if !ok {
		j.logger.Debug("dropping cookie for foreign domain",
			logging.Field{Key: "name", Value: c.Name},
			logging.Field{Key: "domain", Value: c.Domain})
		return nil
	}

	path := c.Path
	if path == "" || path[0] != '/' {
		path = defaultPath(u.Path)
	}

	if fromScript {
		protected, err := j.isHttpOnly(domain, path, c.Name)
		if err != nil {
			return err
		}
		if protected {
			j.logger.Debug("script may not touch HttpOnly cookie", logging.Field{Key: "name", Value: c.Name})
			return nil
		}
	}

	var expires sql.NullInt64
	switch {
	case c.MaxAge < 0:
		return j.remove(domain, path, c.Name)
	case c.MaxAge > 0:
		expires = sql.NullInt64{Int64: now.Add(time.Duration(c.MaxAge) * time.Second).Unix(), Valid: true}
	case !c.Expires.IsZero():
		if !c.Expires.After(now) {
			return j.remove(domain, path, c.Name)
		}
		expires = sql.NullInt64{Int64: c.Expires.Unix(), Valid: true}
	}

	_, err := j.db.Exec(`
		INSERT INTO cookies (host, host_only, path, name, value, secure, http_only, expires, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (host, path, name) DO UPDATE SET
			host_only = excluded.host_only,
			value     = excluded.value,
			secure    = excluded.secure,
			http_only = excluded.http_only,
			expires   = excluded.expires`,
		domain, hostOnly, path, c.Name, c.Value, c.Secure, c.HttpOnly, expires, now.UnixNano())
	if err != nil {
		return fmt.Errorf("upsert cookie: %w", err)
	}
	return nil
}

func (j *SQLiteJar) isHttpOnly(host, path, name string) (bool, error) {
	var httpOnly bool
	err := j.db.QueryRow(`SELECT http_only FROM cookies WHERE host = ? AND path = ? AND name = ?`, host, path, name).Scan(&httpOnly)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("lookup cookie: %w", err)
	}
	return httpOnly, nil
}

func (j *SQLiteJar) remove(host, path, name string) error {
	if _, err := j.db.Exec(`DELETE FROM cookies WHERE host = ? AND path = ? AND name = ?`, host, path, name); err != nil {
		return fmt.Errorf("delete cookie: %w", err)
	}
	return nil
}

// Cookies implements http.CookieJar.
func (j *SQLiteJar) Cookies(u *url.URL) []*http.Cookie {
	return j.cookies(u, true)
}

// ScriptCookies returns what document.cookie would show for u, which is
// Cookies without the HttpOnly ones.
func (j *SQLiteJar) ScriptCookies(u *url.URL) []*http.Cookie {
	return j.cookies(u, false)
}

func (j *SQLiteJar) cookies(u *url.URL, withHttpOnly bool) []*http.Cookie {
	host, err := canonicalHost(u.Host)
	if err != nil {
		return nil
	}
	now := j.now().Unix()

	if _, err := j.db.Exec(`DELETE FROM cookies WHERE expires IS NOT NULL AND expires <= ?`, now); err != nil {
		j.logger.Warn("purging expired cookies", logging.Field{Key: "error", Value: err})
	}

	rows, err := j.db.Query(`
		SELECT host, host_only, path, name, value, secure, http_only
		FROM cookies
		ORDER BY length(path) DESC, created_at, id`)
	if err != nil {
		j.logger.Warn("querying cookies", logging.Field{Key: "error", Value: err})
		return nil
	}
	defer rows.Close()

	requestPath := u.Path
	if requestPath == "" {
		requestPath = "/"
	}
	https := u.Scheme == "https"

	var out []*http.Cookie
	for rows.Next() {
		var (
			cHost, cPath, name, value  string
			hostOnly, secure, httpOnly bool
		)
		if err := rows.Scan(&cHost, &hostOnly, &cPath, &name, &value, &secure, &httpOnly); err != nil {
			j.logger.Warn("scanning cookie", logging.Field{Key: "error", Value: err})
			return out
		}
		if !domainMatch(host, cHost, hostOnly) || !pathMatch(requestPath, cPath) || (secure && !https) {
			continue
		}
		if httpOnly && !withHttpOnly {
			continue
		}
		out = append(out, &http.Cookie{Name: name, Value: value})
	}
	if err := rows.Err(); err != nil {
		j.logger.Warn("iterating cookies", logging.Field{Key: "error", Value: err})
	}
	return out
}

// canonicalHost strips the port and lower-cases.
func canonicalHost(host string) (string, error) {
	if host == "" {
		return "", fmt.Errorf("empty host")
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if host == "" {
		return "", fmt.Errorf("empty host")
	}
	return host, nil
}

// cookieDomain decides which host a cookie is stored under. A Domain
// attribute must domain-match host and must not be a public suffix.
func cookieDomain(host, domainAttr string) (domain string, hostOnly bool, ok bool) {
	d := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(domainAttr)), ".")
	if d == "" {
		return host, true, true
	}
	if net.ParseIP(host) != nil {
		return host, true, d == host
	}
	if d == host {
		return host, false, true
	}
	if !strings.HasSuffix(host, "."+d) {
		return "", false, false
	}
	if ps, _ := publicsuffix.PublicSuffix(d); ps == d {
		return "", false, false
	}
	return d, false, true
}

func domainMatch(host, cookieHost string, hostOnly bool) bool {
	if host == cookieHost {
		return true
	}
	return !hostOnly && strings.HasSuffix(host, "."+cookieHost)
}

func pathMatch(requestPath, cookiePath string) bool {
	if requestPath == cookiePath {
		return true
	}
	if !strings.HasPrefix(requestPath, cookiePath) {
		return false
	}
	return strings.HasSuffix(cookiePath, "/") || requestPath[len(cookiePath)] == '/'
}

// defaultPath is the directory of the request path.
func defaultPath(p string) string {
	if p == "" || p[0] != '/' {
		return "/"
	}
	i := strings.LastIndex(p, "/")
	if i == 0 {
		return "/"
	}
	return p[:i]
}
