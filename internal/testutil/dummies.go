// Package testutil provides shared test doubles for use across package tests.
// All dummies implement the corresponding interfaces from the production code,
// allowing injection into components under test without real I/O or side effects.
package testutil

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/raysh454/hybridhttp/internal/logging"
	"github.com/raysh454/hybridhttp/internal/model"
	"github.com/raysh454/hybridhttp/internal/request"
	"github.com/raysh454/hybridhttp/internal/webclient"
)

// ─── Logger ────────────────────────────────────────────────────────────

// DummyLogger implements logging.Logger with in-memory recording.
type DummyLogger struct {
	mu     sync.Mutex
	Errors []string
	Infos  []string
	Debugs []string
	Warns  []string
}

func (l *DummyLogger) Debug(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Debugs = append(l.Debugs, msg)
}

func (l *DummyLogger) Info(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Infos = append(l.Infos, msg)
}

func (l *DummyLogger) Warn(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Warns = append(l.Warns, msg)
}

func (l *DummyLogger) Error(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Errors = append(l.Errors, msg)
}

func (l *DummyLogger) With(_ ...logging.Field) logging.Logger { return l }

// ─── WebClient ─────────────────────────────────────────────────────────

// DummyWebClient implements webclient.WebClient without a socket. Every
// request is recorded; Errs maps a URL to the error its requests fail with,
// and Delay holds each call until it elapses or ctx ends. Anything else gets
// a 200 whose body is the method and URL.
type DummyWebClient struct {
	Delay time.Duration
	Errs  map[string]error

	mu   sync.Mutex
	seen []*webclient.Request
}

func (d *DummyWebClient) Do(ctx context.Context, req *webclient.Request) (*webclient.Response, error) {
	d.mu.Lock()
	d.seen = append(d.seen, req)
	d.mu.Unlock()

	if d.Delay > 0 {
		t := time.NewTimer(d.Delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := d.Errs[req.URL]; err != nil {
		return nil, err
	}
	return &webclient.Response{
		Request:    req,
		Headers:    http.Header{"Content-Type": []string{"text/plain"}},
		Body:       []byte(req.Method + " " + req.URL),
		StatusCode: http.StatusOK,
		URL:        req.URL,
		FetchedAt:  time.Now(),
	}, nil
}

func (d *DummyWebClient) Get(ctx context.Context, url string) (*webclient.Response, error) {
	return d.Do(ctx, &webclient.Request{Method: http.MethodGet, URL: url})
}

func (d *DummyWebClient) Close() error { return nil }

// Requests returns a copy of the requests seen so far.
func (d *DummyWebClient) Requests() []*webclient.Request {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*webclient.Request(nil), d.seen...)
}

// ─── Requester ─────────────────────────────────────────────────────────

// RequesterCall is one recorded call on DummyRequester.
type RequesterCall struct {
	Verb    string
	Options *model.HttpOptions
}

// DummyRequester implements plugin.Requester without touching the network.
// Every verb records its options and returns Response, or Err when set.
type DummyRequester struct {
	Response *model.HttpResponse
	Err      error

	mu    sync.Mutex
	calls []RequesterCall
}

func (d *DummyRequester) record(verb string, opts *model.HttpOptions) (*model.HttpResponse, error) {
	d.mu.Lock()
	d.calls = append(d.calls, RequesterCall{Verb: verb, Options: opts})
	d.mu.Unlock()
	if d.Err != nil {
		return nil, d.Err
	}
	if d.Response != nil {
		return d.Response, nil
	}
	return model.NewHttpResponse("", 200, map[string]string{}, "", nil), nil
}

// Calls returns a copy of the recorded calls.
func (d *DummyRequester) Calls() []RequesterCall {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]RequesterCall(nil), d.calls...)
}

func (d *DummyRequester) Request(_ context.Context, opts *model.HttpOptions) (*model.HttpResponse, error) {
	verb := ""
	if opts != nil {
		verb = strings.ToUpper(opts.Method)
	}
	return d.record(verb, opts)
}

func (d *DummyRequester) Get(_ context.Context, opts *model.HttpOptions) (*model.HttpResponse, error) {
	return d.record(http.MethodGet, opts)
}

func (d *DummyRequester) Post(_ context.Context, opts *model.HttpOptions) (*model.HttpResponse, error) {
	return d.record(http.MethodPost, opts)
}

func (d *DummyRequester) Put(_ context.Context, opts *model.HttpOptions) (*model.HttpResponse, error) {
	return d.record(http.MethodPut, opts)
}

func (d *DummyRequester) Patch(_ context.Context, opts *model.HttpOptions) (*model.HttpResponse, error) {
	return d.record(http.MethodPatch, opts)
}

func (d *DummyRequester) Del(_ context.Context, opts *model.HttpOptions) (*model.HttpResponse, error) {
	return d.record(http.MethodDelete, opts)
}

func (d *DummyRequester) BuildRequestInit(opts *model.HttpOptions, extra map[string]any) (*request.RequestInit, error) {
	return request.BuildRequestInit(opts, extra)
}

func (d *DummyRequester) Fetch(_ context.Context, url string, init *request.RequestInit) (*webclient.Response, error) {
	d.mu.Lock()
	d.calls = append(d.calls, RequesterCall{Verb: "FETCH", Options: &model.HttpOptions{URL: url, Method: init.Method}})
	d.mu.Unlock()
	if d.Err != nil {
		return nil, d.Err
	}
	return &webclient.Response{
		Headers:    http.Header{},
		Body:       []byte{},
		StatusCode: 200,
		URL:        url,
		FetchedAt:  time.Now(),
	}, nil
}

// ─── CookieStore ───────────────────────────────────────────────────────

// DummyCookieStore implements plugin.CookieStore over a plain slice.
// When Err is set every operation fails with it.
type DummyCookieStore struct {
	mu      sync.Mutex
	Cookies []model.HttpCookie
	Err     error
}

func (d *DummyCookieStore) GetCookies(context.Context) ([]model.HttpCookie, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return nil, d.Err
	}
	return append([]model.HttpCookie{}, d.Cookies...), nil
}

func (d *DummyCookieStore) SetCookie(_ context.Context, key, value string, _ *model.HttpCookieOptions) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return d.Err
	}
	for i, c := range d.Cookies {
		if c.Key == key {
			d.Cookies[i].Value = value
			return nil
		}
	}
	d.Cookies = append(d.Cookies, model.HttpCookie{Key: key, Value: value})
	return nil
}

func (d *DummyCookieStore) GetCookie(_ context.Context, key string) (model.HttpCookie, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return model.HttpCookie{}, d.Err
	}
	for _, c := range d.Cookies {
		if c.Key == key {
			return c, nil
		}
	}
	return model.HttpCookie{Key: key}, nil
}

func (d *DummyCookieStore) DeleteCookie(_ context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return d.Err
	}
	kept := d.Cookies[:0]
	for _, c := range d.Cookies {
		if c.Key != key {
			kept = append(kept, c)
		}
	}
	d.Cookies = kept
	return nil
}

func (d *DummyCookieStore) ClearCookies(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return d.Err
	}
	d.Cookies = nil
	return nil
}
