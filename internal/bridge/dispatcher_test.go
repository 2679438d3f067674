package bridge_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raysh454/hybridhttp/internal/bridge"
	"github.com/raysh454/hybridhttp/internal/model"
	"github.com/raysh454/hybridhttp/internal/plugin"
	"github.com/raysh454/hybridhttp/internal/testutil"
)

func newDispatcher(t *testing.T) (*bridge.Dispatcher, *testutil.DummyRequester, *testutil.DummyCookieStore) {
	t.Helper()
	req := &testutil.DummyRequester{}
	store := &testutil.DummyCookieStore{}
	p, err := plugin.New(req, store, nil)
	require.NoError(t, err)
	return bridge.NewDispatcher(p), req, store
}

func TestDispatcher_UnknownMethod(t *testing.T) {
	t.Parallel()
	d, _, _ := newDispatcher(t)

	_, err := d.Call(context.Background(), "Get", json.RawMessage(`{}`))
	assert.ErrorIs(t, err, bridge.ErrUnknownMethod)
	assert.False(t, d.Has("Get"))
	assert.True(t, d.Has("get"))
}

func TestDispatcher_VerbRouting(t *testing.T) {
	t.Parallel()
	d, req, _ := newDispatcher(t)
	ctx := context.Background()

	for method, verb := range map[string]string{"get": "GET", "post": "POST", "put": "PUT", "patch": "PATCH", "del": "DELETE"} {
		_, err := d.Call(ctx, method, json.RawMessage(`{"url":"http://x","method":"OPTIONS"}`))
		require.NoError(t, err, method)
		calls := req.Calls()
		assert.Equal(t, verb, calls[len(calls)-1].Verb)
	}
}

func TestDispatcher_CookieOptions(t *testing.T) {
	t.Parallel()
	d, _, store := newDispatcher(t)
	ctx := context.Background()

	_, err := d.Call(ctx, "setCookie", json.RawMessage(`{"key":"a","value":"1","path":"/x","expires":"2030-01-02T03:04:05Z"}`))
	require.NoError(t, err)
	assert.Equal(t, []model.HttpCookie{{Key: "a", Value: "1"}}, store.Cookies)

	_, err = d.Call(ctx, "setCookie", json.RawMessage(`{"key":"b","value":"2","expires":"Wed, 21 Oct 2026 07:28:00 GMT"}`))
	require.NoError(t, err)
	_, err = d.Call(ctx, "setCookie", json.RawMessage(`{"key":"c","value":"3","expires":""}`))
	require.NoError(t, err)
	assert.Len(t, store.Cookies, 3)

	_, err = d.Call(ctx, "setCookie", json.RawMessage(`{"value":"1"}`))
	assert.ErrorIs(t, err, bridge.ErrInvalidOptions)

	_, err = d.Call(ctx, "setCookie", json.RawMessage(`{"key":"a","expires":"tomorrow"}`))
	assert.ErrorIs(t, err, bridge.ErrInvalidOptions)

	for _, k := range []string{"a", "b", "c"} {
		_, err = d.Call(ctx, "deleteCookie", json.RawMessage(`{"key":"`+k+`"}`))
		require.NoError(t, err)
	}
	assert.Empty(t, store.Cookies)
}

func TestDispatcher_NullOptions(t *testing.T) {
	t.Parallel()
	d, _, _ := newDispatcher(t)

	for _, raw := range []string{"", "null", "  "} {
		res, err := d.Call(context.Background(), "getCookies", json.RawMessage(raw))
		require.NoError(t, err)
		assert.Equal(t, &model.HttpGetCookiesResult{Cookies: []model.HttpCookie{}}, res)

		_, err = d.Call(context.Background(), "get", json.RawMessage(raw))
		assert.ErrorIs(t, err, bridge.ErrInvalidOptions)
	}
}

func TestDispatcher_Methods(t *testing.T) {
	t.Parallel()
	d, _, _ := newDispatcher(t)

	methods := d.Methods()
	assert.Len(t, methods, 14)
	assert.IsIncreasing(t, methods)
}
