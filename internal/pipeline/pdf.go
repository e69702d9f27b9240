package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/phuslu/log"

	"github.com/openbandi/grantdocs/internal/extract"
	"github.com/openbandi/grantdocs/internal/model"
	"github.com/openbandi/grantdocs/internal/textutil"
)

// PDFProcessor downloads grant PDFs and extracts their text
type PDFProcessor struct {
	fetcher     *Fetcher
	downloadDir string
	maxBytes    int64
	maxText     int
}

// NewPDFProcessor creates a PDF processor. Downloads land in
// downloadDir under a sanitized filename; files over maxBytes are
// rejected and extracted text is capped at maxText bytes.
func NewPDFProcessor(fetcher *Fetcher, cfg model.PDFConfig) *PDFProcessor {
	return &PDFProcessor{
		fetcher:     fetcher,
		downloadDir: cfg.DownloadDir,
		maxBytes:    cfg.MaxSizeBytes,
		maxText:     cfg.MaxTextBytes,
	}
}

// Process downloads the PDF at pdfURL and extracts its text. Failures
// never abort the grant: the returned RawSource carries an error marker
// and whatever text could be recovered.
func (p *PDFProcessor) Process(ctx context.Context, pdfURL, linkText string) model.RawSource {
	src := model.RawSource{
		Origin:  model.OriginPDF,
		URL:     pdfURL,
		Context: linkText,
	}

	path, err := p.download(ctx, pdfURL)
	if err != nil {
		log.Warn().Str("url", pdfURL).Err(err).Msg("pdf download failed")
		src.Err = fmt.Sprintf("download failed: %v", err)
		return src
	}

	text, err := p.extractText(path)
	if err != nil {
		log.Warn().Str("url", pdfURL).Err(err).Msg("pdf text extraction failed")
		src.Err = fmt.Sprintf("text extraction failed: %v", err)
		return src
	}

	if strings.TrimSpace(text) == "" {
		// Scanned PDFs with no text layer end up here.
		src.Err = "no extractable text"
		return src
	}

	return extract.Content(text, model.OriginPDF, pdfURL, linkText, p.maxText)
}

// download fetches the PDF with retry and writes it to the download
// directory under a sanitized filename derived from the URL
func (p *PDFProcessor) download(ctx context.Context, pdfURL string) (string, error) {
	if err := os.MkdirAll(p.downloadDir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pdfURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", p.fetcher.userAgent)
	req.Header.Set("Accept", "application/pdf,*/*;q=0.8")

	resp, err := p.fetcher.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}
	if resp.ContentLength > p.maxBytes {
		return "", fmt.Errorf("file too large: %d bytes", resp.ContentLength)
	}

	path := filepath.Join(p.downloadDir, downloadFilename(pdfURL))

	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}

	// Cap one byte over the limit so oversized bodies without a
	// Content-Length header are still detected.
	written, err := io.Copy(out, io.LimitReader(resp.Body, p.maxBytes+1))
	closeErr := out.Close()
	if err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("write file: %w", err)
	}
	if closeErr != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close file: %w", closeErr)
	}
	if written > p.maxBytes {
		_ = os.Remove(path)
		return "", fmt.Errorf("file too large: exceeds %d bytes", p.maxBytes)
	}

	return path, nil
}

// extractText pulls the text layer out of a PDF file page by page
func (p *PDFProcessor) extractText(path string) (string, error) {
	pdfCtx, err := api.ReadContextFile(path)
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}
	pageCount := pdfCtx.PageCount

	outDir, err := os.MkdirTemp("", "grantdocs-pdf-*")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(outDir) }()

	conf := pdfmodel.NewDefaultConfiguration()
	if err := api.ExtractContentFile(path, outDir, nil, conf); err != nil {
		return "", fmt.Errorf("extract content: %w", err)
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		return "", fmt.Errorf("read temp dir: %w", err)
	}

	pageTexts := make(map[int]string, pageCount)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		var pageNum int
		if _, err := fmt.Sscanf(entry.Name(), "Content_page_%d", &pageNum); err != nil {
			continue
		}
		content, err := os.ReadFile(filepath.Join(outDir, entry.Name()))
		if err != nil {
			continue
		}
		pageTexts[pageNum] = string(content)
	}

	var text strings.Builder
	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		if page, ok := pageTexts[pageNum]; ok {
			text.WriteString(page)
			text.WriteString("\n")
		}
	}

	return text.String(), nil
}

// downloadFilename builds a local filename for a PDF URL. Attachments
// across sites are often all called the same thing (allegato.pdf,
// modulo.pdf), so a short hash of the full URL keeps concurrent
// downloads from clobbering each other.
func downloadFilename(pdfURL string) string {
	name := textutil.SanitizeFilename(filenameFromURL(pdfURL))
	name = strings.TrimSuffix(strings.ToLower(name), ".pdf")
	if len(name) > 64 {
		name = name[:64]
	}

	sum := sha256.Sum256([]byte(pdfURL))
	return fmt.Sprintf("%s_%s.pdf", name, hex.EncodeToString(sum[:4]))
}

// filenameFromURL returns the last path segment of the URL without
// query parameters
func filenameFromURL(rawURL string) string {
	name := rawURL
	if idx := strings.IndexAny(name, "?#"); idx >= 0 {
		name = name[:idx]
	}
	name = strings.TrimRight(name, "/")
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	if name == "" {
		return "document.pdf"
	}
	return name
}
