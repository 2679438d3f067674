package bridge_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raysh454/hybridhttp/internal/bridge"
	"github.com/raysh454/hybridhttp/internal/model"
	"github.com/raysh454/hybridhttp/internal/plugin"
	"github.com/raysh454/hybridhttp/internal/testutil"
)

type fixture struct {
	server    *bridge.Server
	requester *testutil.DummyRequester
	cookies   *testutil.DummyCookieStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		requester: &testutil.DummyRequester{
			Response: model.NewHttpResponse("hello", 200, map[string]string{"content-type": "text/plain"}, "http://origin/", nil),
		},
		cookies: &testutil.DummyCookieStore{},
	}
	p, err := plugin.New(f.requester, f.cookies, &testutil.DummyLogger{})
	require.NoError(t, err)
	f.server, err = bridge.NewServer(bridge.Config{Logger: &testutil.DummyLogger{}}, p)
	require.NoError(t, err)
	return f
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNewServer_NilPlugin(t *testing.T) {
	t.Parallel()
	_, err := bridge.NewServer(bridge.Config{}, nil)
	assert.Error(t, err)
}

// ─── CORS ──────────────────────────────────────────────────────────────

func TestServer_CORS(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	rec := doJSON(t, f.server, http.MethodGet, "/plugins/Http", "")
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = doJSON(t, f.server, http.MethodOptions, "/plugins/Http/get", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "POST", rec.Header().Get("Access-Control-Allow-Methods"))
}

// ─── Calls ─────────────────────────────────────────────────────────────

func TestServer_ListMethods(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	rec := doJSON(t, f.server, http.MethodGet, "/plugins/Http", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body bridge.MethodsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "Http", body.Plugin)
	assert.ElementsMatch(t, []string{
		"request", "get", "post", "put", "patch", "del",
		"getCookiesMap", "getCookies", "setCookie", "getCookie", "deleteCookie", "clearCookies",
		"uploadFile", "downloadFile",
	}, body.Methods)
}

func TestServer_CallGet(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	rec := doJSON(t, f.server, http.MethodPost, "/plugins/Http/get",
		`{"url":"http://origin/","params":{"q":["a","b"]},"headers":{"X-Test":"1"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Call-Id"))

	var resp model.HttpResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "hello", resp.Data)
	assert.Equal(t, 200, resp.Status)

	calls := f.requester.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "GET", calls[0].Verb)
	assert.Equal(t, model.ParamValue{"a", "b"}, calls[0].Options.Params["q"])
	assert.Equal(t, "1", calls[0].Options.Headers["X-Test"])
}

func TestServer_CallErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"unknown method", "/plugins/Http/teleport", `{}`, http.StatusNotFound},
		{"malformed json", "/plugins/Http/get", `{"url":`, http.StatusBadRequest},
		{"missing url", "/plugins/Http/post", `{}`, http.StatusBadRequest},
		{"missing cookie key", "/plugins/Http/getCookie", `{}`, http.StatusBadRequest},
		{"bad params type", "/plugins/Http/get", `{"url":"http://x","params":{"a":1}}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			rec := doJSON(t, f.server, http.MethodPost, tc.path, tc.body)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())

			var body bridge.ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestServer_TransportFailureIsBadGateway(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.requester.Err = errors.New("connection refused")

	rec := doJSON(t, f.server, http.MethodPost, "/plugins/Http/request", `{"url":"http://origin/","method":"GET"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestServer_CookieRoundTrip(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	rec := doJSON(t, f.server, http.MethodPost, "/plugins/Http/setCookie", `{"key":"session","value":"abc"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, f.server, http.MethodPost, "/plugins/Http/getCookie", `{"key":"session"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var ck model.HttpCookie
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&ck))
	assert.Equal(t, model.HttpCookie{Key: "session", Value: "abc"}, ck)

	rec = doJSON(t, f.server, http.MethodPost, "/plugins/Http/getCookiesMap", ``)
	require.Equal(t, http.StatusOK, rec.Code)
	var m model.HttpCookieMap
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&m))
	assert.Equal(t, model.HttpCookieMap{"session": "abc"}, m)

	rec = doJSON(t, f.server, http.MethodPost, "/plugins/Http/clearCookies", `null`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, f.server, http.MethodPost, "/plugins/Http/getCookies", `{}`)
	var list model.HttpGetCookiesResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	assert.NotNil(t, list.Cookies)
	assert.Empty(t, list.Cookies)
}

func TestServer_UploadFileDecodesBlob(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	// "aGk=" is base64 for "hi"
	rec := doJSON(t, f.server, http.MethodPost, "/plugins/Http/uploadFile",
		`{"url":"http://origin/upload","name":"f","blob":{"data":"aGk=","type":"text/plain"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	calls := f.requester.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "POST", calls[0].Verb)
	assert.NotNil(t, calls[0].Options.Data)
}

func TestServer_DownloadFile(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	rec := doJSON(t, f.server, http.MethodPost, "/plugins/Http/downloadFile", `{"url":"http://origin/file.bin"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res model.HttpDownloadFileResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	require.NotNil(t, res.Blob)
	assert.Equal(t, 0, res.Blob.Size())
}

// ─── Metrics / docs ────────────────────────────────────────────────────

func TestServer_Metrics(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	doJSON(t, f.server, http.MethodPost, "/plugins/Http/get", `{"url":"http://origin/"}`)
	doJSON(t, f.server, http.MethodPost, "/plugins/Http/nope", `{}`)

	rec := doJSON(t, f.server, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `hybridhttp_plugin_calls_total{method="get",status="ok"} 1`)
	assert.Contains(t, body, `hybridhttp_plugin_calls_total{method="unknown",status="unknown_method"} 1`)
	assert.Contains(t, body, `hybridhttp_plugin_call_duration_seconds_count{method="get"} 1`)
}

func TestServer_SwaggerDoc(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	rec := doJSON(t, f.server, http.MethodGet, "/swagger/doc.json", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "HybridHTTP Bridge API")
}

// ─── WebSocket ─────────────────────────────────────────────────────────

func TestServer_WebSocketCalls(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ts := httptest.NewServer(f.server)
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(bridge.CallMessage{
		CallbackID: "1", MethodName: "setCookie", Options: json.RawMessage(`{"key":"k","value":"v"}`),
	}))
	got := readResult(t, conn)
	assert.Equal(t, "1", got.CallbackID)
	assert.True(t, got.Success)

	require.NoError(t, conn.WriteJSON(bridge.CallMessage{
		CallbackID: "2", MethodName: "getCookie", Options: json.RawMessage(`{"key":"k"}`),
	}))
	got = readResult(t, conn)
	assert.Equal(t, "2", got.CallbackID)
	assert.True(t, got.Success)
	assert.Equal(t, map[string]any{"key": "k", "value": "v"}, got.Data)

	require.NoError(t, conn.WriteJSON(bridge.CallMessage{CallbackID: "3", MethodName: "bogus"}))
	got = readResult(t, conn)
	assert.Equal(t, "3", got.CallbackID)
	assert.False(t, got.Success)
	assert.Contains(t, got.Error, "unknown plugin method")
}

func TestServer_WebSocketAssignsCallbackID(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ts := httptest.NewServer(f.server)
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(bridge.CallMessage{MethodName: "getCookies"}))
	got := readResult(t, conn)
	assert.True(t, got.Success)
	assert.Len(t, got.CallbackID, 36)
}

func TestServer_WebSocketMalformedMessage(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ts := httptest.NewServer(f.server)
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{not json`)))
	got := readResult(t, conn)
	assert.False(t, got.Success)
	assert.Contains(t, got.Error, "invalid plugin options")

	// the channel stays usable
	require.NoError(t, conn.WriteJSON(bridge.CallMessage{CallbackID: "ok", MethodName: "getCookiesMap"}))
	got = readResult(t, conn)
	assert.Equal(t, "ok", got.CallbackID)
	assert.True(t, got.Success)
}

func readResult(t *testing.T, conn *websocket.Conn) bridge.ResultMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg bridge.ResultMessage
	require.NoError(t, json.Unmarshal(data, &msg), string(data))
	return msg
}

func TestServer_BodyLimit(t *testing.T) {
	t.Parallel()
	p, err := plugin.New(&testutil.DummyRequester{}, &testutil.DummyCookieStore{}, nil)
	require.NoError(t, err)
	s, err := bridge.NewServer(bridge.Config{MaxBodyBytes: 16, Logger: &testutil.DummyLogger{}}, p)
	require.NoError(t, err)

	rec := doJSON(t, s, http.MethodPost, "/plugins/Http/get", `{"url":"http://example.com/a/long/path"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
