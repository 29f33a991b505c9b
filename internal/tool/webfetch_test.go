package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const fetchTestPage = `<html><head><title>Test</title>
<script>var hidden = true;</script>
<style>body { color: red; }</style>
</head><body><h1>Welcome</h1><p>Some <b>useful</b> content.</p></body></html>`

func fetchTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/page":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			fmt.Fprint(w, fetchTestPage)
		case "/plain":
			w.Header().Set("Content-Type", "text/plain")
			fmt.Fprint(w, "just plain text")
		case "/missing":
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func fetchWith(t *testing.T, srv *httptest.Server, path, format string) (*Result, error) {
	t.Helper()
	wf := NewWebFetchTool(t.TempDir())
	input, _ := json.Marshal(WebFetchInput{URL: srv.URL + path, Format: format})
	return wf.Execute(context.Background(), input, &Context{WorkDir: t.TempDir()})
}

func TestWebFetchText(t *testing.T) {
	srv := fetchTestServer(t)
	result, err := fetchWith(t, srv, "/page", "text")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(result.Output, "Welcome") || !strings.Contains(result.Output, "useful") {
		t.Errorf("text output missing content: %q", result.Output)
	}
	if strings.Contains(result.Output, "hidden") || strings.Contains(result.Output, "color: red") {
		t.Errorf("script/style leaked into text output: %q", result.Output)
	}
}

func TestWebFetchMarkdown(t *testing.T) {
	srv := fetchTestServer(t)
	result, err := fetchWith(t, srv, "/page", "markdown")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(result.Output, "# Welcome") {
		t.Errorf("expected atx heading in markdown, got %q", result.Output)
	}
	if strings.Contains(result.Output, "<script>") {
		t.Errorf("script leaked into markdown: %q", result.Output)
	}
}

func TestWebFetchHTMLPassthrough(t *testing.T) {
	srv := fetchTestServer(t)
	result, err := fetchWith(t, srv, "/page", "html")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(result.Output, "<h1>Welcome</h1>") {
		t.Errorf("html output should be verbatim, got %q", result.Output)
	}
}

func TestWebFetchPlainContentIgnoresFormatConversion(t *testing.T) {
	srv := fetchTestServer(t)
	result, err := fetchWith(t, srv, "/plain", "markdown")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Output != "just plain text" {
		t.Errorf("got %q", result.Output)
	}
}

func TestWebFetchErrors(t *testing.T) {
	srv := fetchTestServer(t)
	wf := NewWebFetchTool(t.TempDir())
	toolCtx := &Context{WorkDir: t.TempDir()}

	if _, err := wf.Execute(context.Background(), []byte(`{"url":"ftp://x","format":"text"}`), toolCtx); err == nil {
		t.Error("expected error for non-http URL")
	}
	if _, err := wf.Execute(context.Background(), []byte(`{"url":"http://example.com","format":"xml"}`), toolCtx); err == nil {
		t.Error("expected error for bad format")
	}
	if _, err := fetchWith(t, srv, "/missing", "text"); err == nil {
		t.Error("expected error for 404 response")
	}
}
