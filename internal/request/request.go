package request

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/raysh454/hybridhttp/internal/logging"
	"github.com/raysh454/hybridhttp/internal/model"
	"github.com/raysh454/hybridhttp/internal/webclient"
)

// Executor builds plugin requests and runs them through a WebClient.
type Executor struct {
	wc     webclient.WebClient
	logger logging.Logger
}

// New creates an Executor over wc.
func New(wc webclient.WebClient, logger logging.Logger) (*Executor, error) {
	if wc == nil {
		return nil, fmt.Errorf("request: webclient is nil")
	}
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &Executor{
		wc:     wc,
		logger: logger.With(logging.Field{Key: "component", Value: "request"}),
	}, nil
}

// BuildRequestInit is the package-level BuildRequestInit, exposed on the
// executor so callers can depend on one collaborator.
func (e *Executor) BuildRequestInit(opts *model.HttpOptions, extra map[string]any) (*RequestInit, error) {
	return BuildRequestInit(opts, extra)
}

// Fetch runs a prepared RequestInit against url and returns the raw response.
func (e *Executor) Fetch(ctx context.Context, url string, init *RequestInit) (*webclient.Response, error) {
	if init == nil {
		return nil, fmt.Errorf("request init cannot be nil")
	}
	return e.wc.Do(ctx, &webclient.Request{
		Method:  init.Method,
		URL:     url,
		Headers: init.Headers,
		Body:    init.Body,
		Fetch:   init.Extra,
	})
}

// Request performs an HTTP request described by opts.
func (e *Executor) Request(ctx context.Context, opts *model.HttpOptions) (*model.HttpResponse, error) {
	if opts == nil {
		return nil, fmt.Errorf("options cannot be nil")
	}
	init, err := BuildRequestInit(opts, opts.WebFetchExtra)
	if err != nil {
		return nil, err
	}
	target := BuildURL(opts.URL, opts.Params, opts.EncodeURLParams())

	ctx, cancel := WithTimeout(ctx, opts)
	defer cancel()

	e.logger.Debug("plugin request",
		logging.Field{Key: "method", Value: init.Method},
		logging.Field{Key: "url", Value: target})

	resp, err := e.Fetch(ctx, target, init)
	if err != nil {
		return nil, err
	}
	return decodeResponse(resp, opts.ResponseType)
}

// WithTimeout bounds ctx by the sum of opts' connect and read timeouts.
// With neither set ctx is returned as is.
func WithTimeout(ctx context.Context, opts *model.HttpOptions) (context.Context, context.CancelFunc) {
	if opts == nil {
		return ctx, func() {}
	}
	if timeout := time.Duration(opts.ConnectTimeout+opts.ReadTimeout) * time.Millisecond; timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return ctx, func() {}
}

func (e *Executor) Get(ctx context.Context, opts *model.HttpOptions) (*model.HttpResponse, error) {
	return e.Request(ctx, withMethod(opts, http.MethodGet))
}

func (e *Executor) Post(ctx context.Context, opts *model.HttpOptions) (*model.HttpResponse, error) {
	return e.Request(ctx, withMethod(opts, http.MethodPost))
}

func (e *Executor) Put(ctx context.Context, opts *model.HttpOptions) (*model.HttpResponse, error) {
	return e.Request(ctx, withMethod(opts, http.MethodPut))
}

func (e *Executor) Patch(ctx context.Context, opts *model.HttpOptions) (*model.HttpResponse, error) {
	return e.Request(ctx, withMethod(opts, http.MethodPatch))
}

func (e *Executor) Del(ctx context.Context, opts *model.HttpOptions) (*model.HttpResponse, error) {
	return e.Request(ctx, withMethod(opts, http.MethodDelete))
}

func withMethod(opts *model.HttpOptions, method string) *model.HttpOptions {
	if opts == nil {
		return &model.HttpOptions{Method: method}
	}
	o := *opts
	o.Method = method
	return &o
}

// decodeResponse applies responseType to 2xx responses only; a JSON
// Content-Type always wins.
func decodeResponse(resp *webclient.Response, responseType model.ResponseType) (*model.HttpResponse, error) {
	contentType := strings.ToLower(resp.Headers.Get("Content-Type"))

	rt := model.ResponseTypeText
	if resp.StatusCode >= 200 && resp.StatusCode < 300 && responseType != "" {
		rt = responseType
	}
	if strings.Contains(contentType, "application/json") {
		rt = model.ResponseTypeJSON
	}

	var data any
	switch rt {
	case model.ResponseTypeBlob, model.ResponseTypeArrayBuffer:
		data = resp.Body
	case model.ResponseTypeJSON:
		if len(resp.Body) > 0 {
			if err := json.Unmarshal(resp.Body, &data); err != nil {
				return nil, fmt.Errorf("decode json response: %w", err)
			}
		}
	default:
		data = string(resp.Body)
	}

	return model.NewHttpResponse(data, resp.StatusCode, flattenHeaders(resp.Headers), resp.URL, resp.Body), nil
}

func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, vs := range h {
		out[strings.ToLower(k)] = strings.Join(vs, ", ")
	}
	return out
}
