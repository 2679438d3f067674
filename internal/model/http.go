package model

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

// ResponseType selects how a successful response body is decoded.
type ResponseType string

const (
	ResponseTypeText        ResponseType = "text"
	ResponseTypeJSON        ResponseType = "json"
	ResponseTypeBlob        ResponseType = "blob"
	ResponseTypeArrayBuffer ResponseType = "arraybuffer"
	ResponseTypeDocument    ResponseType = "document"
)

// ParamValue is a query parameter value: either a single string or a list.
// It decodes from both JSON shapes.
type ParamValue []string

// UnmarshalJSON accepts "v" as well as ["a","b"].
func (p *ParamValue) UnmarshalJSON(b []byte) error {
	var single string
	if err := json.Unmarshal(b, &single); err == nil {
		*p = ParamValue{single}
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err != nil {
		return fmt.Errorf("param must be a string or a list of strings: %w", err)
	}
	*p = ParamValue(list)
	return nil
}

// MarshalJSON writes a single value as a plain string.
func (p ParamValue) MarshalJSON() ([]byte, error) {
	if len(p) == 1 {
		return json.Marshal(p[0])
	}
	return json.Marshal([]string(p))
}

// HttpOptions describes one plugin request. Treat it as immutable once a call
// has started; helpers that need a different method or body work on a copy.
type HttpOptions struct {
	URL     string                `json:"url"`
	Method  string                `json:"method,omitempty"`
	Headers map[string]string     `json:"headers,omitempty"`
	Params  map[string]ParamValue `json:"params,omitempty"`

	// Data is the request payload. Strings and []byte are sent verbatim,
	// *FormData-like values are multipart encoded by the request builder and
	// anything else is encoded according to the Content-Type header.
	Data any `json:"data,omitempty"`

	// ResponseType defaults to text.
	ResponseType ResponseType `json:"responseType,omitempty"`

	// ShouldEncodeURLParams defaults to true when nil.
	ShouldEncodeURLParams *bool `json:"shouldEncodeUrlParams,omitempty"`

	// Timeouts in milliseconds; zero means none.
	ConnectTimeout int `json:"connectTimeout,omitempty"`
	ReadTimeout    int `json:"readTimeout,omitempty"`

	// WebFetchExtra carries fetch() init overrides (redirect, credentials,
	// cache, mode, ...). Backends use what they understand.
	WebFetchExtra map[string]any `json:"webFetchExtra,omitempty"`
}

// EncodeURLParams reports whether query parameters should be URL-encoded.
func (o *HttpOptions) EncodeURLParams() bool {
	return o.ShouldEncodeURLParams == nil || *o.ShouldEncodeURLParams
}

// HttpResponse is the normalized plugin response.
type HttpResponse struct {
	Data    any               `json:"data"`
	Status  int               `json:"status"`
	Headers map[string]string `json:"headers"`
	URL     string            `json:"url"`

	raw []byte
}

// NewHttpResponse builds a response that keeps the raw body for Document.
func NewHttpResponse(data any, status int, headers map[string]string, url string, raw []byte) *HttpResponse {
	return &HttpResponse{
		Data:    data,
		Status:  status,
		Headers: headers,
		URL:     url,
		raw:     raw,
	}
}

// Document parses the body as HTML. Used for responseType "document", whose
// Data is the body text.
func (r *HttpResponse) Document() (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(r.raw))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}
