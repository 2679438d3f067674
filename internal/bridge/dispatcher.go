package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/raysh454/hybridhttp/internal/model"
)

var (
	// ErrUnknownMethod is returned for a method name the plugin does not expose.
	ErrUnknownMethod = errors.New("unknown plugin method")

	// ErrInvalidOptions wraps any failure to decode or validate call options.
	ErrInvalidOptions = errors.New("invalid plugin options")
)

// Plugin is the Http plugin surface the bridge exposes.
type Plugin interface {
	Request(ctx context.Context, opts *model.HttpOptions) (*model.HttpResponse, error)
	Get(ctx context.Context, opts *model.HttpOptions) (*model.HttpResponse, error)
	Post(ctx context.Context, opts *model.HttpOptions) (*model.HttpResponse, error)
	Put(ctx context.Context, opts *model.HttpOptions) (*model.HttpResponse, error)
	Patch(ctx context.Context, opts *model.HttpOptions) (*model.HttpResponse, error)
	Del(ctx context.Context, opts *model.HttpOptions) (*model.HttpResponse, error)
	GetCookiesMap(ctx context.Context) (model.HttpCookieMap, error)
	GetCookies(ctx context.Context) (*model.HttpGetCookiesResult, error)
	SetCookie(ctx context.Context, key, value string, opts *model.HttpCookieOptions)
	GetCookie(ctx context.Context, key string) (model.HttpCookie, error)
	DeleteCookie(ctx context.Context, key string) error
	ClearCookies(ctx context.Context) error
	UploadFile(ctx context.Context, opts *model.HttpUploadFileOptions) (*model.HttpResponse, error)
	DownloadFile(ctx context.Context, opts *model.HttpDownloadFileOptions) (*model.HttpDownloadFileResult, error)
}

type handlerFunc func(ctx context.Context, raw json.RawMessage) (any, error)

// Dispatcher routes a method name plus JSON options to the plugin.
type Dispatcher struct {
	handlers map[string]handlerFunc
}

func NewDispatcher(p Plugin) *Dispatcher {
	verb := func(call func(context.Context, *model.HttpOptions) (*model.HttpResponse, error)) handlerFunc {
		return func(ctx context.Context, raw json.RawMessage) (any, error) {
			opts, err := decode[model.HttpOptions](raw)
			if err != nil {
				return nil, err
			}
			if opts.URL == "" {
				return nil, fmt.Errorf("%w: url is required", ErrInvalidOptions)
			}
			return call(ctx, opts)
		}
	}

	return &Dispatcher{handlers: map[string]handlerFunc{
		"request": verb(p.Request),
		"get":     verb(p.Get),
		"post":    verb(p.Post),
		"put":     verb(p.Put),
		"patch":   verb(p.Patch),
		"del":     verb(p.Del),

		"getCookiesMap": func(ctx context.Context, _ json.RawMessage) (any, error) {
			return p.GetCookiesMap(ctx)
		},
		"getCookies": func(ctx context.Context, _ json.RawMessage) (any, error) {
			return p.GetCookies(ctx)
		},
		"setCookie": func(ctx context.Context, raw json.RawMessage) (any, error) {
			opts, err := decode[SetCookieOptions](raw)
			if err != nil {
				return nil, err
			}
			if opts.Key == "" {
				return nil, fmt.Errorf("%w: key is required", ErrInvalidOptions)
			}
			p.SetCookie(ctx, opts.Key, opts.Value, &opts.HttpCookieOptions)
			return nil, nil
		},
		"getCookie": func(ctx context.Context, raw json.RawMessage) (any, error) {
			opts, err := decodeKey(raw)
			if err != nil {
				return nil, err
			}
			return p.GetCookie(ctx, opts.Key)
		},
		"deleteCookie": func(ctx context.Context, raw json.RawMessage) (any, error) {
			opts, err := decodeKey(raw)
			if err != nil {
				return nil, err
			}
			return nil, p.DeleteCookie(ctx, opts.Key)
		},
		"clearCookies": func(ctx context.Context, _ json.RawMessage) (any, error) {
			return nil, p.ClearCookies(ctx)
		},

		"uploadFile": func(ctx context.Context, raw json.RawMessage) (any, error) {
			opts, err := decode[model.HttpUploadFileOptions](raw)
			if err != nil {
				return nil, err
			}
			if opts.URL == "" {
				return nil, fmt.Errorf("%w: url is required", ErrInvalidOptions)
			}
			return p.UploadFile(ctx, opts)
		},
		"downloadFile": func(ctx context.Context, raw json.RawMessage) (any, error) {
			opts, err := decode[model.HttpDownloadFileOptions](raw)
			if err != nil {
				return nil, err
			}
			if opts.URL == "" {
				return nil, fmt.Errorf("%w: url is required", ErrInvalidOptions)
			}
			return p.DownloadFile(ctx, opts)
		},
	}}
}

// Methods lists the callable method names, sorted.
func (d *Dispatcher) Methods() []string {
	names := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether method is callable.
func (d *Dispatcher) Has(method string) bool {
	_, ok := d.handlers[method]
	return ok
}

// Call invokes method with raw JSON options. Empty or null options decode to
// the zero value.
func (d *Dispatcher) Call(ctx context.Context, method string, raw json.RawMessage) (any, error) {
	h, ok := d.handlers[method]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
	return h(ctx, raw)
}

func decode[T any](raw json.RawMessage) (*T, error) {
	v := new(T)
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return v, nil
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	return v, nil
}

func decodeKey(raw json.RawMessage) (*CookieKeyOptions, error) {
	opts, err := decode[CookieKeyOptions](raw)
	if err != nil {
		return nil, err
	}
	if opts.Key == "" {
		return nil, fmt.Errorf("%w: key is required", ErrInvalidOptions)
	}
	return opts, nil
}
