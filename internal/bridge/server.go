package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/raysh454/hybridhttp/internal/bridge/docs" // registers the swagger doc
	"github.com/raysh454/hybridhttp/internal/logging"
)

const (
	pluginName          = "Http"
	defaultMaxBodyBytes = 32 << 20
)

// Server is the HTTP + WebSocket surface that lets a web view call the Http
// plugin.
type Server struct {
	cfg        Config
	dispatcher *Dispatcher
	router     chi.Router
	upgrader   websocket.Upgrader
	metrics    *metrics
	logger     logging.Logger
}

// NewServer creates a Server that forwards every call to p.
func NewServer(cfg Config, p Plugin) (*Server, error) {
	if p == nil {
		return nil, fmt.Errorf("bridge: plugin is nil")
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewStdoutLogger("Bridge")
	}

	s := &Server{
		cfg:        cfg,
		dispatcher: NewDispatcher(p),
		router:     chi.NewRouter(),
		metrics:    newMetrics(),
		logger:     logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Web views load from app-local origins (capacitor://, file://).
				return true
			},
		},
	}

	s.routes()
	return s, nil
}

// Dispatcher returns the method router for in-process use.
func (s *Server) Dispatcher() *Dispatcher {
	return s.dispatcher
}

func (s *Server) routes() {
	r := s.router

	r.Use(s.corsMiddleware)

	// CORS preflight
	r.Options("/plugins/"+pluginName, s.optionsHandler("GET"))
	r.Options("/plugins/"+pluginName+"/{method}", s.optionsHandler("POST"))

	r.Get("/plugins/"+pluginName, s.handleListMethods)
	r.Post("/plugins/"+pluginName+"/{method}", s.handleCall)

	r.Get("/ws", s.handleWS)

	r.Method(http.MethodGet, "/metrics", s.metrics.handler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		next.ServeHTTP(w, r)
	})
}

func (s *Server) optionsHandler(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fields := []logging.Field{
		{Key: "method", Value: r.Method},
		{Key: "path", Value: r.URL.Path},
	}
	if r.ContentLength > 0 {
		fields = append(fields, logging.Field{Key: "content_length", Value: r.ContentLength})
	}
	s.logger.Debug("http_request", fields...)

	s.router.ServeHTTP(w, r)
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:        s.cfg.ListenAddr,
		Handler:     s,
		ReadTimeout: 15 * time.Second,
		// calls may run as long as the remote server takes
		WriteTimeout: 0,
	}
}

// call runs one plugin call with logging and metrics.
func (s *Server) call(ctx context.Context, callID, method string, raw json.RawMessage) (any, error) {
	s.metrics.inFlight.Inc()
	defer s.metrics.inFlight.Dec()

	start := time.Now()
	data, err := s.dispatcher.Call(ctx, method, raw)
	elapsed := time.Since(start)
	s.metrics.observe(method, err, elapsed)

	fields := []logging.Field{
		{Key: "call_id", Value: callID},
		{Key: "plugin_method", Value: method},
		{Key: "duration_ms", Value: elapsed.Milliseconds()},
	}
	if err != nil {
		s.logger.Warn("plugin call failed", append(fields, logging.Field{Key: "error", Value: err.Error()})...)
		return nil, err
	}
	s.logger.Info("plugin call", fields...)
	return data, nil
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// errorStatus maps a call error to an HTTP status. Anything that is not a
// caller mistake is treated as an upstream failure.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, ErrUnknownMethod):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidOptions):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

// --- HTTP handlers ---

// handleListMethods godoc
// @Summary List plugin methods
// @Tags plugin
// @Produce json
// @Success 200 {object} MethodsResponse
// @Router /plugins/Http [get]
func (s *Server) handleListMethods(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, MethodsResponse{Plugin: pluginName, Methods: s.dispatcher.Methods()})
}

// handleCall godoc
// @Summary Call a plugin method
// @Description The body is the method's options object; the response is the method's result.
// @Tags plugin
// @Accept json
// @Produce json
// @Param method path string true "Plugin method name"
// @Param options body object false "Method options"
// @Success 200 {object} object
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /plugins/Http/{method} [post]
func (s *Server) handleCall(w http.ResponseWriter, r *http.Request) {
	method := chi.URLParam(r, "method")
	callID := uuid.NewString()
	w.Header().Set("X-Call-Id", callID)

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		s.logger.Warn("reading call body", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusBadRequest, "reading body: "+err.Error())
		return
	}

	data, err := s.call(r.Context(), callID, method, raw)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, data)
}

// WebSockets

// handleWS serves the message channel. Calls on one connection run
// concurrently; results come back tagged with their callback id, in
// completion order.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Field{Key: "error", Value: err.Error()})
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var (
		writeMu sync.Mutex
		wg      sync.WaitGroup
	)
	reply := func(msg ResultMessage) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := conn.WriteJSON(msg); err != nil {
			s.logger.Warn("writing websocket result",
				logging.Field{Key: "callback_id", Value: msg.CallbackID},
				logging.Field{Key: "error", Value: err.Error()})
		}
	}

	for {
		var msg CallMessage
		if err := conn.ReadJSON(&msg); err != nil {
			var (
				syntaxErr *json.SyntaxError
				typeErr   *json.UnmarshalTypeError
			)
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				reply(ResultMessage{Error: fmt.Sprintf("%v: %v", ErrInvalidOptions, err)})
				continue
			}
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("websocket read ended", logging.Field{Key: "error", Value: err.Error()})
			}
			break
		}
		if msg.CallbackID == "" {
			msg.CallbackID = uuid.NewString()
		}

		wg.Add(1)
		go func(msg CallMessage) {
			defer wg.Done()
			data, err := s.call(ctx, msg.CallbackID, msg.MethodName, msg.Options)
			if err != nil {
				reply(ResultMessage{CallbackID: msg.CallbackID, Error: err.Error()})
				return
			}
			reply(ResultMessage{CallbackID: msg.CallbackID, Success: true, Data: data})
		}(msg)
	}

	// the peer is gone; abandon anything still running
	cancel()
	wg.Wait()
}
