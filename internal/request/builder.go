package request

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/raysh454/hybridhttp/internal/model"
)

// RequestInit is the fully built fetch configuration for one call.
type RequestInit struct {
	Method  string
	Headers http.Header
	Body    []byte
	// Extra holds webFetchExtra overrides, passed to the backend as-is.
	Extra map[string]any
}

// BuildRequestInit turns plugin options into a RequestInit. The body encoding
// depends on the type of opts.Data and on the Content-Type header.
func BuildRequestInit(opts *model.HttpOptions, extra map[string]any) (*RequestInit, error) {
	if opts == nil {
		return nil, fmt.Errorf("options cannot be nil")
	}

	method := strings.ToUpper(strings.TrimSpace(opts.Method))
	if method == "" {
		method = http.MethodGet
	}

	headers := make(http.Header, len(opts.Headers))
	for k, v := range opts.Headers {
		headers.Set(k, v)
	}

	init := &RequestInit{
		Method:  method,
		Headers: headers,
		Extra:   extra,
	}

	contentType := strings.ToLower(headers.Get("Content-Type"))

	switch data := opts.Data.(type) {
	case nil:
	case string:
		init.Body = []byte(data)
	case []byte:
		init.Body = data
	case *FormData:
		if err := init.setMultipart(data); err != nil {
			return nil, err
		}
	default:
		switch {
		case strings.Contains(contentType, "application/x-www-form-urlencoded"):
			m, ok := data.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("urlencoded data must be an object, got %T", data)
			}
			init.Body = []byte(urlEncodeMap(m))
		case strings.Contains(contentType, "multipart/form-data"):
			m, ok := data.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("multipart data must be an object, got %T", data)
			}
			if err := init.setMultipart(formDataFromMap(m)); err != nil {
				return nil, err
			}
		default:
			body, err := json.Marshal(data)
			if err != nil {
				return nil, fmt.Errorf("encode json body: %w", err)
			}
			init.Body = body
			if contentType == "" {
				headers.Set("Content-Type", "application/json")
			}
		}
	}

	return init, nil
}

func (ri *RequestInit) setMultipart(form *FormData) error {
	body, contentType, err := form.Encode()
	if err != nil {
		return fmt.Errorf("encode multipart body: %w", err)
	}
	ri.Body = body
	// the boundary-bearing type always replaces the caller's
	ri.Headers.Set("Content-Type", contentType)
	return nil
}

// BuildURL appends params to rawURL. List values repeat the key. When encode
// is false keys and values are inserted verbatim.
func BuildURL(rawURL string, params map[string]model.ParamValue, encode bool) string {
	if len(params) == 0 {
		return rawURL
	}

	pairs := make([]string, 0, len(params))
	for _, key := range sortedKeys(params) {
		for _, v := range params[key] {
			if encode {
				pairs = append(pairs, url.QueryEscape(key)+"="+url.QueryEscape(v))
			} else {
				pairs = append(pairs, key+"="+v)
			}
		}
	}
	if len(pairs) == 0 {
		return rawURL
	}

	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	return rawURL + sep + strings.Join(pairs, "&")
}

func urlEncodeMap(m map[string]any) string {
	values := url.Values{}
	for k, v := range m {
		switch tv := v.(type) {
		case []any:
			for _, item := range tv {
				values.Add(k, stringify(item))
			}
		case []string:
			for _, item := range tv {
				values.Add(k, item)
			}
		default:
			values.Set(k, stringify(v))
		}
	}
	return values.Encode()
}

// stringify renders a decoded JSON scalar the way String(value) does in a
// browser.
func stringify(v any) string {
	switch tv := v.(type) {
	case nil:
		return "null"
	case string:
		return tv
	case bool:
		return strconv.FormatBool(tv)
	case float64:
		return strconv.FormatFloat(tv, 'f', -1, 64)
	case json.Number:
		return tv.String()
	case fmt.Stringer:
		return tv.String()
	default:
		if b, err := json.Marshal(tv); err == nil {
			return string(b)
		}
		return fmt.Sprint(tv)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
