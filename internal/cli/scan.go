package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/openbandi/grantdocs/internal/model"
	"github.com/openbandi/grantdocs/internal/pipeline"
	"github.com/openbandi/grantdocs/internal/worker"
)

const defaultUserAgent = "grantdocs/0.3 (+https://github.com/openbandi/grantdocs)"

// Flags shared between the scan and run commands.
var (
	scanTimeout time.Duration
	userAgent   string
	maxBytes    int64
	pdfDir      string
	noCache     bool
	noRobots    bool
	insecureTLS bool
	httpProxy   string
	httpsProxy  string
	outPath     string
	urlsFile    string
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan <url>",
	Short: "Extract the documentation summary for a single grant page",
	Long: `Scan crawls one grant page without touching the database:
- Fetch the page and follow its linked PDFs
- Match the text against the known document types
- Print the aggregated Italian Markdown summary

Example:
  grantdocs scan https://www.regione.example.it/bandi/innovazione-2026
  grantdocs scan https://example.it/bando.pdf --out summary.md
  grantdocs scan --file urls.txt`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVar(&outPath, "out", "", "write the summary to a file instead of stdout")
	scanCmd.Flags().StringVar(&urlsFile, "file", "", "scan every URL listed in this file (one per line)")
	scanCmd.Flags().DurationVar(&scanTimeout, "timeout", 2*time.Minute, "overall scan timeout")
	scanCmd.Flags().StringVar(&userAgent, "ua", defaultUserAgent, "HTTP User-Agent")
	scanCmd.Flags().Int64Var(&maxBytes, "max-bytes", 4_000_000, "max response bytes to read per page")
	scanCmd.Flags().StringVar(&pdfDir, "pdf-dir", "downloads/pdfs", "directory for downloaded PDFs")
	scanCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the page cache (force fresh fetch)")
	scanCmd.Flags().BoolVar(&noRobots, "no-robots", false, "skip robots.txt checks")
	scanCmd.Flags().BoolVar(&insecureTLS, "insecure", false, "skip TLS certificate verification")
	scanCmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	scanCmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
}

// buildConfig applies the shared flags on top of the defaults
func buildConfig() *model.Config {
	cfg := model.DefaultConfig()
	cfg.HTTP.UserAgent = userAgent
	cfg.HTTP.InsecureTLS = insecureTLS
	cfg.HTTP.HTTPProxy = httpProxy
	cfg.HTTP.HTTPSProxy = httpsProxy
	cfg.HTTP.CheckRobots = !noRobots
	cfg.PDF.DownloadDir = pdfDir
	cfg.Cache.Enabled = !noCache
	cfg.Output.Verbose = verbose
	if maxBytes > 0 {
		cfg.HTTP.MaxBodyBytes = maxBytes
	}
	return cfg
}

func runScan(cmd *cobra.Command, args []string) error {
	var urls []string
	switch {
	case urlsFile != "":
		fileURLs, err := worker.ReadURLsFromFile(urlsFile)
		if err != nil {
			return fmt.Errorf("read url file: %w", err)
		}
		urls = fileURLs
	case len(args) == 1:
		urls = args
	default:
		return fmt.Errorf("provide a URL argument or --file")
	}

	cfg := buildConfig()
	cfg.HTTP.Timeout = scanTimeout

	p := pipeline.NewPipeline(cfg)

	for _, url := range urls {
		ctx, cancel := context.WithTimeout(context.Background(), scanTimeout)

		if verbose {
			fmt.Fprintf(os.Stderr, "Scanning: %s\n", url)
		}

		summary, err := p.ScanURL(ctx, url)
		cancel()
		if err != nil {
			return fmt.Errorf("scan %s: %w", url, err)
		}

		if outPath != "" && len(urls) == 1 {
			if err := os.WriteFile(outPath, []byte(summary), 0o644); err != nil {
				return fmt.Errorf("write summary: %w", err)
			}
			fmt.Fprintf(os.Stderr, "✓ Wrote summary: %s\n", outPath)
			continue
		}

		fmt.Println(summary)
	}

	return nil
}
