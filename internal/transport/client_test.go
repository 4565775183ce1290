package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGetAppliesHeadersAndResolvesRelativePaths(t *testing.T) {
	var captured *http.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r
		if r.URL.Path == "/r/game/assets/Main/config.abc.json" {
			_, _ = w.Write([]byte(`{"ok":true}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client, err := New(Config{
		BaseURL:   server.URL + "/r/game",
		UserAgent: "bundlepull/test",
		Referer:   "https://example.invalid/index.html",
		Headers:   map[string]string{"X-Test": "1", " ": "ignored"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := client.BaseURL(); got != server.URL+"/r/game/" {
		t.Fatalf("base url not normalised: %q", got)
	}

	resp, err := client.Get(context.Background(), "assets/Main/config.abc.json")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !resp.OK() || string(resp.Body) != `{"ok":true}` {
		t.Fatalf("unexpected response %+v", resp)
	}
	if captured.Header.Get("User-Agent") != "bundlepull/test" {
		t.Fatalf("missing user agent, got %q", captured.Header.Get("User-Agent"))
	}
	if captured.Header.Get("Referer") != "https://example.invalid/index.html" {
		t.Fatalf("missing referer")
	}
	if captured.Header.Get("X-Test") != "1" {
		t.Fatalf("missing extra header")
	}

	missing, err := client.Get(context.Background(), "assets/Main/absent.json")
	if err != nil {
		t.Fatalf("404 must not be an error: %v", err)
	}
	if !missing.NotFound() || len(missing.Body) != 0 {
		t.Fatalf("unexpected 404 response %+v", missing)
	}
}

func TestGetReportsTransportErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client, err := New(Config{BaseURL: server.URL, Timeout: 20 * time.Millisecond})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := client.Get(context.Background(), "slow"); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestNewValidatesBaseURL(t *testing.T) {
	for _, base := range []string{"", "   ", "relative/path"} {
		if _, err := New(Config{BaseURL: base}); err == nil {
			t.Fatalf("expected error for base %q", base)
		}
	}
}

func TestResolveKeepsAbsoluteTargets(t *testing.T) {
	client, err := New(Config{BaseURL: "https://cdn.example.invalid/r/x/"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, err := client.Resolve("https://other.example.invalid/a.json")
	if err != nil || got != "https://other.example.invalid/a.json" {
		t.Fatalf("Resolve absolute = %q, %v", got, err)
	}
	got, err = client.Resolve("src/settings.4229e.json")
	if err != nil || got != "https://cdn.example.invalid/r/x/src/settings.4229e.json" {
		t.Fatalf("Resolve relative = %q, %v", got, err)
	}
}
