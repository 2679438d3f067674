package cookie_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raysh454/hybridhttp/internal/cookie"
	"github.com/raysh454/hybridhttp/internal/model"
)

func newMemoryStore(t *testing.T) *cookie.Store {
	t.Helper()
	jar, err := cookie.NewMemoryJar()
	require.NoError(t, err)
	t.Cleanup(func() { jar.Close() })
	doc, err := cookie.NewJarDocument(jar, "http://app.example.com/")
	require.NoError(t, err)
	return cookie.NewStore(doc)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []model.HttpCookie
	}{
		{name: "empty", raw: "", want: []model.HttpCookie{}},
		{name: "whitespace only", raw: " ; ", want: []model.HttpCookie{}},
		{
			name: "simple",
			raw:  "a=1; b=2",
			want: []model.HttpCookie{{Key: "a", Value: "1"}, {Key: "b", Value: "2"}},
		},
		{
			name: "value keeps later equals signs",
			raw:  "token=abc=def==",
			want: []model.HttpCookie{{Key: "token", Value: "abc=def=="}},
		},
		{
			name: "decodes components",
			raw:  "my%20key=hello%20world%3B",
			want: []model.HttpCookie{{Key: "my key", Value: "hello world;"}},
		},
		{
			name: "duplicates kept in order",
			raw:  "a=1; a=2",
			want: []model.HttpCookie{{Key: "a", Value: "1"}, {Key: "a", Value: "2"}},
		},
		{
			name: "bad escape left as is",
			raw:  "a=%zz",
			want: []model.HttpCookie{{Key: "a", Value: "%zz"}},
		},
		{
			name: "no equals sign",
			raw:  "flag",
			want: []model.HttpCookie{{Key: "flag", Value: ""}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cookie.Parse(tt.raw))
		})
	}
}

func TestAssignment(t *testing.T) {
	expires := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)

	assert.Equal(t, "a=1; path=/;", cookie.Assignment("a", "1", nil))
	assert.Equal(t, "k%20y=v%3Dx; path=/app;",
		cookie.Assignment("k y", "v=x", &model.HttpCookieOptions{Path: "/app"}))
	assert.Equal(t, "a=1; expires=Wed, 02 Jan 2030 03:04:05 GMT; path=/; domain=example.com;",
		cookie.Assignment("a", "1", &model.HttpCookieOptions{URL: "https://example.com/x", Expires: model.CookieExpiry{Time: expires}}))
	assert.Equal(t, "a=1; path=/; domain=example.com;",
		cookie.Assignment("a", "1", &model.HttpCookieOptions{URL: "example.com"}))
}

func TestStore_SetThenGet(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)

	require.NoError(t, store.SetCookie(ctx, "a", "1", nil))

	got, err := store.GetCookie(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, model.HttpCookie{Key: "a", Value: "1"}, got)
}

func TestStore_ValueIsEncodedRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)

	require.NoError(t, store.SetCookie(ctx, "greeting", "hello; world=ü", nil))

	got, err := store.GetCookie(ctx, "greeting")
	require.NoError(t, err)
	assert.Equal(t, "hello; world=ü", got.Value)
}

func TestStore_GetMissingCookie(t *testing.T) {
	store := newMemoryStore(t)

	got, err := store.GetCookie(context.Background(), "nope")
	require.NoError(t, err)
	assert.Equal(t, model.HttpCookie{Key: "nope", Value: ""}, got)
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)

	require.NoError(t, store.SetCookie(ctx, "a", "1", nil))
	require.NoError(t, store.SetCookie(ctx, "b", "2", nil))
	require.NoError(t, store.DeleteCookie(ctx, "a"))

	got, err := store.GetCookie(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, got.Value)

	cookies, err := store.GetCookies(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.HttpCookie{{Key: "b", Value: "2"}}, cookies)
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)

	for _, k := range []string{"a", "b", "c d"} {
		require.NoError(t, store.SetCookie(ctx, k, "v", nil))
	}
	require.NoError(t, store.ClearCookies(ctx))

	cookies, err := store.GetCookies(ctx)
	require.NoError(t, err)
	assert.Empty(t, cookies)
}

func TestStore_EmptyStore(t *testing.T) {
	cookies, err := newMemoryStore(t).GetCookies(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, cookies)
	assert.Empty(t, cookies)
}

func TestStore_PastExpiryRemoves(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)

	require.NoError(t, store.SetCookie(ctx, "a", "1", nil))
	require.NoError(t, store.SetCookie(ctx, "a", "1", &model.HttpCookieOptions{Expires: model.CookieExpiry{Time: time.Now().Add(-time.Hour)}}))

	got, err := store.GetCookie(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, got.Value)
}

func TestStore_ForeignDomainIsIgnored(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)

	// the jar refuses the write; no error surfaces
	require.NoError(t, store.SetCookie(ctx, "a", "1", &model.HttpCookieOptions{URL: "other.org"}))

	cookies, err := store.GetCookies(ctx)
	require.NoError(t, err)
	assert.Empty(t, cookies)
}

type failingDocument struct{ err error }

func (f failingDocument) Cookie(context.Context) (string, error)  { return "", f.err }
func (f failingDocument) SetCookie(context.Context, string) error { return f.err }

func TestStore_DocumentErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	store := cookie.NewStore(failingDocument{err: boom})

	_, err := store.GetCookies(ctx)
	assert.ErrorIs(t, err, boom)
	_, err = store.GetCookie(ctx, "a")
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, store.SetCookie(ctx, "a", "1", nil), boom)
	assert.ErrorIs(t, store.DeleteCookie(ctx, "a"), boom)
	assert.ErrorIs(t, store.ClearCookies(ctx), boom)
}

func TestNewJarDocument_Validation(t *testing.T) {
	_, err := cookie.NewJarDocument(nil, "")
	assert.Error(t, err)

	jar, err := cookie.NewMemoryJar()
	require.NoError(t, err)
	defer jar.Close()

	_, err = cookie.NewJarDocument(jar, "not a url")
	assert.Error(t, err)

	doc, err := cookie.NewJarDocument(jar, "")
	require.NoError(t, err)
	assert.Equal(t, cookie.DefaultDocumentURL, doc.URL())
}

func TestJarDocument_RejectsUnparseableAssignment(t *testing.T) {
	jar, err := cookie.NewMemoryJar()
	require.NoError(t, err)
	defer jar.Close()
	doc, err := cookie.NewJarDocument(jar, "")
	require.NoError(t, err)

	assert.Error(t, doc.SetCookie(context.Background(), "=novalue"))
}
