package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestScrapeConvertsHTMLToMarkdown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><body><h1>Docs</h1><p>Install with <code>npm i</code></p></body></html>`))
	}))
	defer srv.Close()

	scraper := NewHTTPScraper(srv.Client())
	out, err := scraper.Scrape(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	if !strings.Contains(out, "# Docs") {
		t.Fatalf("heading not converted: %q", out)
	}
	if !strings.Contains(out, "`npm i`") {
		t.Fatalf("inline code not converted: %q", out)
	}
}

func TestScrapePassesPlainTextThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("already markdown\n"))
	}))
	defer srv.Close()

	scraper := NewHTTPScraper(srv.Client())
	out, err := scraper.Scrape(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	if out != "already markdown" {
		t.Fatalf("plain text must pass through trimmed, got %q", out)
	}
}

func TestScrapeReportsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	scraper := NewHTTPScraper(srv.Client())
	if _, err := scraper.Scrape(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error for 404 response")
	}
}
