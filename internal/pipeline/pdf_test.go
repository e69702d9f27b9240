package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/openbandi/grantdocs/internal/model"
)

func testPDFProcessor(t *testing.T) *PDFProcessor {
	t.Helper()
	fetcher := NewFetcher(testFetcherConfig())
	return NewPDFProcessor(fetcher, model.PDFConfig{
		DownloadDir:  t.TempDir(),
		MaxSizeBytes: 1 << 20,
		MaxTextBytes: 50_000,
	})
}

func TestDownload_SameBasenameDistinctFiles(t *testing.T) {
	// Every region names its attachment allegato.pdf; downloads of two
	// different grants must not overwrite each other.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = fmt.Fprintf(w, "%%PDF-1.4 body of %s", r.URL.Path)
	}))
	defer server.Close()

	proc := testPDFProcessor(t)

	pathA, err := proc.download(context.Background(), server.URL+"/bando-voucher/allegato.pdf")
	if err != nil {
		t.Fatalf("first download failed: %v", err)
	}
	pathB, err := proc.download(context.Background(), server.URL+"/bando-sviluppo/allegato.pdf")
	if err != nil {
		t.Fatalf("second download failed: %v", err)
	}

	if pathA == pathB {
		t.Fatalf("distinct URLs mapped to the same file: %s", pathA)
	}
	for _, p := range []string{pathA, pathB} {
		if !strings.HasSuffix(p, ".pdf") {
			t.Errorf("expected .pdf extension, got %s", p)
		}
	}
}

func TestDownload_RejectsOversizedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write(make([]byte, 2048))
	}))
	defer server.Close()

	fetcher := NewFetcher(testFetcherConfig())
	proc := NewPDFProcessor(fetcher, model.PDFConfig{
		DownloadDir:  t.TempDir(),
		MaxSizeBytes: 1024,
		MaxTextBytes: 50_000,
	})

	_, err := proc.download(context.Background(), server.URL+"/bando/modulo.pdf")
	if err == nil {
		t.Fatal("expected oversized download to fail")
	}
	if !strings.Contains(err.Error(), "file too large") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestDownloadFilename(t *testing.T) {
	a := downloadFilename("https://www.regione.lombardia.it/bandi/voucher/allegato.pdf")
	b := downloadFilename("https://www.regione.toscana.it/avvisi/sviluppo/allegato.pdf")

	if a == b {
		t.Errorf("same basename from different URLs must yield distinct names, got %s twice", a)
	}
	if !strings.HasPrefix(a, "allegato_") || !strings.HasSuffix(a, ".pdf") {
		t.Errorf("unexpected filename shape: %s", a)
	}

	// Stable for the same URL so re-runs reuse the same path.
	if again := downloadFilename("https://www.regione.lombardia.it/bandi/voucher/allegato.pdf"); again != a {
		t.Errorf("filename not deterministic: %s vs %s", a, again)
	}

	if got := downloadFilename("https://example.it/bando/modulo-domanda"); !strings.HasSuffix(got, ".pdf") {
		t.Errorf("missing extension added, got %s", got)
	}
	if base := filepath.Base(downloadFilename("https://example.it/a/b.pdf?versione=2")); strings.ContainsAny(base, "?=") {
		t.Errorf("query characters leaked into filename: %s", base)
	}
}

func TestFilenameFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://example.it/bandi/allegato.pdf", "allegato.pdf"},
		{"https://example.it/bandi/allegato.pdf?v=3#sez", "allegato.pdf"},
		{"https://example.it/bandi/", "bandi"},
		{"", "document.pdf"},
	}

	for _, tt := range tests {
		if got := filenameFromURL(tt.url); got != tt.want {
			t.Errorf("filenameFromURL(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}
