package demoserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
)

// DemoServer is a local origin for exercising the Http plugin: it echoes
// requests, sets cookies, accepts uploads and serves downloads.
type DemoServer struct {
	cfg Config
	mux *http.ServeMux
}

// NewDemoServer creates a new demo server instance.
func NewDemoServer(cfg Config) *DemoServer {
	if cfg.MaxDownloadBytes <= 0 {
		cfg.MaxDownloadBytes = DefaultConfig().MaxDownloadBytes
	}
	s := &DemoServer{cfg: cfg, mux: http.NewServeMux()}
	s.routes()
	return s
}

func (s *DemoServer) routes() {
	s.mux.HandleFunc("/", s.playgroundHandler)
	s.mux.HandleFunc("/echo", s.echoHandler)
	s.mux.HandleFunc("/json", s.jsonHandler)
	s.mux.HandleFunc("/upload", s.uploadHandler)
	s.mux.HandleFunc("/download/{size}", s.downloadHandler)
	s.mux.HandleFunc("/cookies", s.cookiesHandler)
	s.mux.HandleFunc("/cookies/set", s.setCookiesHandler)
	s.mux.HandleFunc("/status/{code}", s.statusHandler)
	s.mux.HandleFunc("/redirect", s.redirectHandler)
}

// Handler returns the demo routes, for mounting in tests.
func (s *DemoServer) Handler() http.Handler {
	return s.mux
}

// Start starts the demo server.
func (s *DemoServer) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	fmt.Printf("Demo server starting on http://localhost%s\n", addr)
	return http.ListenAndServe(addr, s.mux)
}

// EchoResult is what /echo returns.
type EchoResult struct {
	Method  string              `json:"method"`
	Path    string              `json:"path"`
	Query   map[string][]string `json:"query"`
	Headers map[string]string   `json:"headers"`
	Body    string              `json:"body"`
}

// echoHandler reflects the request back as JSON.
func (s *DemoServer) echoHandler(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	headers := make(map[string]string, len(r.Header))
	for k := range r.Header {
		headers[strings.ToLower(k)] = r.Header.Get(k)
	}

	writeJSON(w, http.StatusOK, EchoResult{
		Method:  r.Method,
		Path:    r.URL.Path,
		Query:   r.URL.Query(),
		Headers: headers,
		Body:    string(body),
	})
}

// jsonHandler always answers with a JSON document, whatever the caller asked
// for.
func (s *DemoServer) jsonHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "items": []int{1, 2, 3}})
}

// UploadedField summarises one multipart field.
type UploadedField struct {
	Filename    string `json:"filename,omitempty"`
	ContentType string `json:"contentType,omitempty"`
	Size        int    `json:"size"`
	Value       string `json:"value,omitempty"`
}

// uploadHandler accepts multipart bodies and reports what arrived.
func (s *DemoServer) uploadHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	mr, err := r.MultipartReader()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	fields := map[string]UploadedField{}
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		data, err := io.ReadAll(part)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f := UploadedField{Filename: part.FileName(), Size: len(data)}
		if f.Filename != "" {
			f.ContentType = part.Header.Get("Content-Type")
		} else {
			f.Value = string(data)
		}
		fields[part.FormName()] = f
	}

	writeJSON(w, http.StatusCreated, fields)
}

// downloadHandler serves size bytes of a repeating pattern.
func (s *DemoServer) downloadHandler(w http.ResponseWriter, r *http.Request) {
	size, err := strconv.Atoi(r.PathValue("size"))
	if err != nil || size < 0 || size > s.cfg.MaxDownloadBytes {
		http.Error(w, "Invalid size", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(size))
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="demo-%d.bin"`, size))
	pattern := bytes.Repeat([]byte("hybridhttp"), 410)
	for size > 0 {
		n := min(size, len(pattern))
		if _, err := w.Write(pattern[:n]); err != nil {
			return
		}
		size -= n
	}
}

// cookiesHandler reports the cookies the request carried, in header order.
func (s *DemoServer) cookiesHandler(w http.ResponseWriter, r *http.Request) {
	type pair struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	}
	out := []pair{}
	for _, c := range r.Cookies() {
		out = append(out, pair{Name: c.Name, Value: c.Value})
	}
	writeJSON(w, http.StatusOK, out)
}

// setCookiesHandler sets one cookie per query parameter, then reports them.
func (s *DemoServer) setCookiesHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	names := make([]string, 0, len(q))
	for name := range q {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    q.Get(name),
			Path:     "/",
			SameSite: http.SameSiteLaxMode,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"set": names})
}

// statusHandler answers with the status code in the path.
func (s *DemoServer) statusHandler(w http.ResponseWriter, r *http.Request) {
	code, err := strconv.Atoi(r.PathValue("code"))
	if err != nil || code < 200 || code > 599 {
		http.Error(w, "Invalid status", http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(code)
	_, _ = fmt.Fprintf(w, "status %d", code)
}

// redirectHandler sends the caller to ?to=, defaulting to /echo.
func (s *DemoServer) redirectHandler(w http.ResponseWriter, r *http.Request) {
	to := r.URL.Query().Get("to")
	if to == "" {
		to = "/echo"
	}
	http.Redirect(w, r, to, http.StatusFound)
}

// playgroundHandler serves an HTML page that calls the bridge.
func (s *DemoServer) playgroundHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	tmpl := template.Must(template.New("playground").Parse(playgroundHTML))
	w.Header().Set("Content-Type", "text/html")
	_ = tmpl.Execute(w, struct{ BridgeURL string }{BridgeURL: s.cfg.BridgeURL})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

const playgroundHTML = `<!DOCTYPE html>
<html>
<head>
    <title>HybridHTTP Playground</title>
    <style>
        body { font-family: system-ui, -apple-system, sans-serif; max-width: 960px; margin: 0 auto; padding: 20px; background: #f5f5f5; }
        h1 { color: #333; border-bottom: 2px solid #007bff; padding-bottom: 10px; }
        .card { background: white; border-radius: 8px; padding: 20px; margin: 15px 0; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        button { padding: 8px 16px; margin: 4px; border: none; border-radius: 4px; cursor: pointer; background: #007bff; color: white; }
        pre { background: #272822; color: #f8f8f2; padding: 12px; border-radius: 4px; overflow: auto; }
    </style>
</head>
<body>
    <h1>HybridHTTP Playground</h1>
    {{if .BridgeURL}}
    <div class="card">
        <button onclick="call('get', {url: location.origin + '/echo', params: {q: ['a', 'b']}})">get /echo</button>
        <button onclick="call('post', {url: location.origin + '/echo', data: {hello: 'world'}})">post JSON</button>
        <button onclick="call('setCookie', {key: 'demo', value: 'cookie value'})">setCookie</button>
        <button onclick="call('getCookies', {})">getCookies</button>
        <button onclick="call('clearCookies', {})">clearCookies</button>
        <button onclick="call('downloadFile', {url: location.origin + '/download/1024'})">download 1 KiB</button>
    </div>
    {{end}}
    <pre id="out">ready</pre>
    <script>
        function call(method, options) {
            fetch('{{.BridgeURL}}/plugins/Http/' + method, {
                method: 'POST',
                headers: {'Content-Type': 'application/json'},
                body: JSON.stringify(options)
            })
            .then(r => r.text())
            .then(t => { document.getElementById('out').textContent = method + ' -> ' + t; });
        }
    </script>
</body>
</html>`
