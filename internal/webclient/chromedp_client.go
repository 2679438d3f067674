package webclient

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/raysh454/hybridhttp/internal/logging"
)

const defaultDocumentURL = "about:blank"

// fetchScript runs one request through the page's fetch(). Bodies cross the
// DevTools boundary as base64.
const fetchScript = `(async (req) => {
	const init = Object.assign({}, req.extra || {}, { method: req.method, headers: req.headers });
	if (req.body) {
		init.body = Uint8Array.from(atob(req.body), (c) => c.charCodeAt(0));
	}
	const res = await fetch(req.url, init);
	const buf = new Uint8Array(await res.arrayBuffer());
	let bin = '';
	for (let i = 0; i < buf.length; i += 0x8000) {
		bin += String.fromCharCode.apply(null, buf.subarray(i, i + 0x8000));
	}
	const headers = [];
	res.headers.forEach((v, k) => headers.push([k, v]));
	return { status: res.status, url: res.url, headers: headers, body: btoa(bin) };
})(%s)`

type fetchRequest struct {
	Method  string         `json:"method"`
	URL     string         `json:"url"`
	Headers [][2]string    `json:"headers"`
	Body    string         `json:"body,omitempty"`
	Extra   map[string]any `json:"extra,omitempty"`
}

type fetchResult struct {
	Status  int         `json:"status"`
	URL     string      `json:"url"`
	Headers [][2]string `json:"headers"`
	Body    string      `json:"body"`
}

// ChromedpClient runs requests inside a headless Chrome tab kept open on
// Config.DocumentURL. CORS, cookies and redirects are the browser's business.
type ChromedpClient struct {
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	// one tab is shared, so evaluations are serialised
	mu sync.Mutex

	documentURL string
	logger      logging.Logger
}

// NewChromedpClient starts Chrome and opens the document page.
func NewChromedpClient(cfg Config, logger logging.Logger) (*ChromedpClient, error) {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	componentLogger := logger.With(logging.Field{Key: "backend", Value: "chromedp"})

	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if !cfg.Headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	documentURL := cfg.DocumentURL
	if documentURL == "" {
		documentURL = defaultDocumentURL
	}

	if err := chromedp.Run(browserCtx, chromedp.Navigate(documentURL)); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("start chrome: %w", err)
	}

	componentLogger.Info("created chromedp webclient",
		logging.Field{Key: "document_url", Value: documentURL},
		logging.Field{Key: "headless", Value: cfg.Headless})

	return &ChromedpClient{
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		documentURL:   documentURL,
		logger:        componentLogger,
	}, nil
}

// run executes actions in the shared tab, aborting when ctx is done.
func (cdc *ChromedpClient) run(ctx context.Context, actions ...chromedp.Action) error {
	cdc.mu.Lock()
	defer cdc.mu.Unlock()

	runCtx, cancel := context.WithCancel(cdc.browserCtx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}
	return nil
}

func awaitPromise(p *runtime.EvaluateParams) *runtime.EvaluateParams {
	return p.WithAwaitPromise(true)
}

// Do runs req through fetch() in the page.
func (cdc *ChromedpClient) Do(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, fmt.Errorf("request cannot be nil")
	}

	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}

	in := fetchRequest{
		Method:  method,
		URL:     req.URL,
		Headers: [][2]string{},
		Extra:   req.Fetch,
	}
	for k, vs := range req.Headers {
		for _, v := range vs {
			in.Headers = append(in.Headers, [2]string{k, v})
		}
	}
	if len(req.Body) > 0 {
		in.Body = base64.StdEncoding.EncodeToString(req.Body)
	}
	arg, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode fetch request: %w", err)
	}

	cdc.logger.Debug("sending fetch request",
		logging.Field{Key: "method", Value: method},
		logging.Field{Key: "url", Value: req.URL})

	var out fetchResult
	if err := cdc.run(ctx, chromedp.Evaluate(fmt.Sprintf(fetchScript, arg), &out, awaitPromise)); err != nil {
		cdc.logger.Warn("fetch failed",
			logging.Field{Key: "method", Value: method},
			logging.Field{Key: "url", Value: req.URL},
			logging.Field{Key: "error", Value: err.Error()})
		return nil, fmt.Errorf("fetch: %w", err)
	}

	body, err := base64.StdEncoding.DecodeString(out.Body)
	if err != nil {
		return nil, fmt.Errorf("decode fetch body: %w", err)
	}

	headers := make(http.Header, len(out.Headers))
	for _, kv := range out.Headers {
		headers.Add(kv[0], kv[1])
	}

	return &Response{
		Request:    req,
		Headers:    headers,
		Body:       body,
		StatusCode: out.Status,
		URL:        out.URL,
		FetchedAt:  time.Now(),
	}, nil
}

// Get is a convenience method for simple GET requests
func (cdc *ChromedpClient) Get(ctx context.Context, url string) (*Response, error) {
	return cdc.Do(ctx, &Request{Method: http.MethodGet, URL: url})
}

// Document returns the page's document.cookie accessor.
func (cdc *ChromedpClient) Document() *BrowserDocument {
	return &BrowserDocument{client: cdc}
}

func (cdc *ChromedpClient) Close() error {
	cdc.logger.Info("closing chromedp webclient")
	cdc.browserCancel()
	cdc.allocCancel()
	return nil
}

// BrowserDocument reads and assigns document.cookie in the chromedp tab.
type BrowserDocument struct {
	client *ChromedpClient
}

func (d *BrowserDocument) Cookie(ctx context.Context) (string, error) {
	var cookie string
	if err := d.client.run(ctx, chromedp.Evaluate(`document.cookie`, &cookie)); err != nil {
		return "", fmt.Errorf("read document.cookie: %w", err)
	}
	return cookie, nil
}

func (d *BrowserDocument) SetCookie(ctx context.Context, assignment string) error {
	lit, err := json.Marshal(assignment)
	if err != nil {
		return fmt.Errorf("encode cookie: %w", err)
	}
	var assigned string
	if err := d.client.run(ctx, chromedp.Evaluate(fmt.Sprintf("document.cookie = %s", lit), &assigned)); err != nil {
		return fmt.Errorf("write document.cookie: %w", err)
	}
	return nil
}
