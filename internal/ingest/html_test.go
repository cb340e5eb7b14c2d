package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFetchHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Terms</title><style>body{color:red}</style></head>
			<body><script>evil()</script><h1>Terms of Service</h1><p>You agree to everything.</p></body></html>`))
	}))
	defer srv.Close()

	doc, err := FetchHTML(context.Background(), srv.Client(), srv.URL)
	if err != nil {
		t.Fatalf("FetchHTML: %v", err)
	}
	if doc.Source != srv.URL {
		t.Errorf("Source = %q, want %q", doc.Source, srv.URL)
	}
	if len(doc.Pages) != 1 || doc.Pages[0].Number != 1 {
		t.Fatalf("Pages = %+v, want single page 1", doc.Pages)
	}

	text := doc.Pages[0].Text
	if !strings.Contains(text, "Terms of Service") || !strings.Contains(text, "You agree to everything.") {
		t.Errorf("text missing visible content: %q", text)
	}
	if strings.Contains(text, "evil()") || strings.Contains(text, "color:red") {
		t.Errorf("text contains script/style content: %q", text)
	}
}

func TestFetchHTML_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	if _, err := FetchHTML(context.Background(), srv.Client(), srv.URL); err == nil {
		t.Error("FetchHTML() error = nil, want non-nil for 404")
	}
}

func TestFetchHTML_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	if _, err := FetchHTML(context.Background(), nil, srv.URL); err == nil {
		t.Error("FetchHTML() error = nil, want non-nil for refused connection")
	}
}
