// Package plugin implements the Http plugin surface for web-rendered views:
// requests, cookie management, upload and download, each forwarded to a
// request executor or a cookie store.
package plugin

import (
	"context"
	"fmt"
	"net/http"

	"github.com/raysh454/hybridhttp/internal/logging"
	"github.com/raysh454/hybridhttp/internal/model"
	"github.com/raysh454/hybridhttp/internal/request"
	"github.com/raysh454/hybridhttp/internal/webclient"
)

// undefinedBlob is what the web FormData holds when no blob is supplied.
const undefinedBlob = "undefined"

// Requester builds and executes requests.
type Requester interface {
	Request(ctx context.Context, opts *model.HttpOptions) (*model.HttpResponse, error)
	Get(ctx context.Context, opts *model.HttpOptions) (*model.HttpResponse, error)
	Post(ctx context.Context, opts *model.HttpOptions) (*model.HttpResponse, error)
	Put(ctx context.Context, opts *model.HttpOptions) (*model.HttpResponse, error)
	Patch(ctx context.Context, opts *model.HttpOptions) (*model.HttpResponse, error)
	Del(ctx context.Context, opts *model.HttpOptions) (*model.HttpResponse, error)
	BuildRequestInit(opts *model.HttpOptions, extra map[string]any) (*request.RequestInit, error)
	Fetch(ctx context.Context, url string, init *request.RequestInit) (*webclient.Response, error)
}

// CookieStore reads and writes the ambient cookie store.
type CookieStore interface {
	GetCookies(ctx context.Context) ([]model.HttpCookie, error)
	SetCookie(ctx context.Context, key, value string, opts *model.HttpCookieOptions) error
	GetCookie(ctx context.Context, key string) (model.HttpCookie, error)
	DeleteCookie(ctx context.Context, key string) error
	ClearCookies(ctx context.Context) error
}

// HttpClient is the plugin façade. It keeps no state of its own; the cookie
// store is the only thing calls share.
type HttpClient struct {
	requests Requester
	cookies  CookieStore
	logger   logging.Logger
}

func New(requests Requester, cookies CookieStore, logger logging.Logger) (*HttpClient, error) {
	if requests == nil {
		return nil, fmt.Errorf("plugin: requester is nil")
	}
	if cookies == nil {
		return nil, fmt.Errorf("plugin: cookie store is nil")
	}
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &HttpClient{
		requests: requests,
		cookies:  cookies,
		logger:   logger.With(logging.Field{Key: "component", Value: "http_plugin"}),
	}, nil
}

// Request performs an HTTP request given a set of options.
func (c *HttpClient) Request(ctx context.Context, opts *model.HttpOptions) (*model.HttpResponse, error) {
	return c.requests.Request(ctx, opts)
}

func (c *HttpClient) Get(ctx context.Context, opts *model.HttpOptions) (*model.HttpResponse, error) {
	return c.requests.Get(ctx, opts)
}

func (c *HttpClient) Post(ctx context.Context, opts *model.HttpOptions) (*model.HttpResponse, error) {
	return c.requests.Post(ctx, opts)
}

func (c *HttpClient) Put(ctx context.Context, opts *model.HttpOptions) (*model.HttpResponse, error) {
	return c.requests.Put(ctx, opts)
}

func (c *HttpClient) Patch(ctx context.Context, opts *model.HttpOptions) (*model.HttpResponse, error) {
	return c.requests.Patch(ctx, opts)
}

func (c *HttpClient) Del(ctx context.Context, opts *model.HttpOptions) (*model.HttpResponse, error) {
	return c.requests.Del(ctx, opts)
}

// GetCookiesMap returns every cookie keyed by name; on duplicates the last
// one wins.
func (c *HttpClient) GetCookiesMap(ctx context.Context) (model.HttpCookieMap, error) {
	cookies, err := c.cookies.GetCookies(ctx)
	if err != nil {
		return nil, err
	}
	out := make(model.HttpCookieMap, len(cookies))
	for _, ck := range cookies {
		out[ck.Key] = ck.Value
	}
	return out, nil
}

// GetCookies returns every cookie in store order, duplicates included.
func (c *HttpClient) GetCookies(ctx context.Context) (*model.HttpGetCookiesResult, error) {
	cookies, err := c.cookies.GetCookies(ctx)
	if err != nil {
		return nil, err
	}
	if cookies == nil {
		cookies = []model.HttpCookie{}
	}
	return &model.HttpGetCookiesResult{Cookies: cookies}, nil
}

// SetCookie is fire-and-forget: a rejected write is logged, not returned.
func (c *HttpClient) SetCookie(ctx context.Context, key, value string, opts *model.HttpCookieOptions) {
	if err := c.cookies.SetCookie(ctx, key, value, opts); err != nil {
		c.logger.Warn("cookie write dropped",
			logging.Field{Key: "key", Value: key},
			logging.Field{Key: "error", Value: err.Error()})
	}
}

// GetCookie returns the cookie named key; Value is empty when absent.
func (c *HttpClient) GetCookie(ctx context.Context, key string) (model.HttpCookie, error) {
	return c.cookies.GetCookie(ctx, key)
}

func (c *HttpClient) DeleteCookie(ctx context.Context, key string) error {
	return c.cookies.DeleteCookie(ctx, key)
}

// ClearCookies expires every cookie visible to the document.
func (c *HttpClient) ClearCookies(ctx context.Context) error {
	return c.cookies.ClearCookies(ctx)
}

// UploadFile posts a multipart body with one field, opts.Name, holding
// opts.Blob. Without a blob the field carries the string "undefined".
func (c *HttpClient) UploadFile(ctx context.Context, opts *model.HttpUploadFileOptions) (*model.HttpResponse, error) {
	if opts == nil {
		return nil, fmt.Errorf("upload options cannot be nil")
	}

	form := request.NewFormData()
	if opts.Blob != nil {
		form.AppendBlob(opts.Name, opts.Blob, "")
	} else {
		form.Append(opts.Name, undefinedBlob)
	}

	reqOpts := opts.HttpOptions
	reqOpts.Data = form
	reqOpts.Method = http.MethodPost

	c.logger.Debug("uploading file",
		logging.Field{Key: "url", Value: opts.URL},
		logging.Field{Key: "name", Value: opts.Name},
		logging.Field{Key: "size", Value: opts.Blob.Size()})

	return c.Post(ctx, &reqOpts)
}

// DownloadFile fetches opts.URL and buffers the whole body into a blob.
// ConnectTimeout and ReadTimeout bound the whole transfer, as for Request.
func (c *HttpClient) DownloadFile(ctx context.Context, opts *model.HttpDownloadFileOptions) (*model.HttpDownloadFileResult, error) {
	if opts == nil {
		return nil, fmt.Errorf("download options cannot be nil")
	}

	init, err := c.requests.BuildRequestInit(&opts.HttpOptions, opts.WebFetchExtra)
	if err != nil {
		return nil, err
	}
	ctx, cancel := request.WithTimeout(ctx, &opts.HttpOptions)
	defer cancel()
	resp, err := c.requests.Fetch(ctx, opts.URL, init)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("downloaded file",
		logging.Field{Key: "url", Value: opts.URL},
		logging.Field{Key: "status", Value: resp.StatusCode},
		logging.Field{Key: "size", Value: len(resp.Body)})

	return &model.HttpDownloadFileResult{
		Blob: &model.Blob{
			Data: resp.Body,
			Type: resp.Headers.Get("Content-Type"),
		},
	}, nil
}
