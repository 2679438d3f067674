package webclient_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/raysh454/hybridhttp/internal/webclient"
)

// newChromedpClient starts a headless browser on ts, skipping when the
// environment has no Chrome.
func newChromedpClient(t *testing.T, documentURL string) *webclient.ChromedpClient {
	t.Helper()
	client, err := webclient.NewChromedpClient(webclient.Config{
		Client:      webclient.ClientChromedp,
		Headless:    true,
		DocumentURL: documentURL,
	}, &noopLogger{})
	if err != nil {
		t.Skipf("Skipping chromedp test (environment does not support chromedp): %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestChromedpClient_DoRoundTrip(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			_, _ = io.WriteString(w, "<html><body>doc</body></html>")
			return
		}
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("X-Method", r.Method)
		_, _ = io.WriteString(w, strings.ToUpper(string(body)))
	}))
	defer ts.Close()

	client := newChromedpClient(t, ts.URL+"/")
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	resp, err := client.Do(ctx, &webclient.Request{
		Method: "PUT",
		URL:    ts.URL + "/echo",
		Body:   []byte("payload"),
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if string(resp.Body) != "PAYLOAD" {
		t.Errorf("expected PAYLOAD, got %q", resp.Body)
	}
	if resp.Headers.Get("X-Method") != "PUT" {
		t.Errorf("expected X-Method PUT, got %q", resp.Headers.Get("X-Method"))
	}
}

func TestChromedpClient_DocumentCookie(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "<html></html>")
	}))
	defer ts.Close()

	client := newChromedpClient(t, ts.URL+"/")
	doc := client.Document()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := doc.SetCookie(ctx, "flavour=oat; path=/"); err != nil {
		t.Fatalf("SetCookie: %v", err)
	}
	got, err := doc.Cookie(ctx)
	if err != nil {
		t.Fatalf("Cookie: %v", err)
	}
	if !strings.Contains(got, "flavour=oat") {
		t.Errorf("expected flavour=oat in %q", got)
	}
}

func TestChromedpClient_CanceledContext(t *testing.T) {
	client := newChromedpClient(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.Get(ctx, "about:blank"); err == nil {
		t.Fatal("expected error for canceled context")
	}
}
