package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/openbandi/grantdocs/internal/model"
	"github.com/openbandi/grantdocs/internal/pipeline"
	"github.com/openbandi/grantdocs/internal/store"
	"github.com/openbandi/grantdocs/internal/worker"
)

var (
	workers         int
	batchSize       int
	grantID         string
	allGrants       bool
	verifyOnly      bool
	dryRun          bool
	maxWriteRetries int
	runTimeout      time.Duration
	rps             float64
	burst           int
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process grants from the database and update their summaries",
	Long: `Run loads grant rows from the hosted bandi table, crawls each grant's
pages and PDFs concurrently, and writes the extracted documentation
summary back to the database.

By default only grants without a summary are processed. The database
DSN is read from the DATABASE_URL environment variable.

Example:
  grantdocs run
  grantdocs run --all-grants --workers 8
  grantdocs run --grant-id 42 --dry-run
  grantdocs run --batch-size 50 --verify-only`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().IntVar(&workers, "workers", 4, "number of concurrent grant workers")
	runCmd.Flags().IntVar(&batchSize, "batch-size", 0, "process at most this many grants (0 for all)")
	runCmd.Flags().StringVar(&grantID, "grant-id", "", "process only the grant with this ID")
	runCmd.Flags().BoolVar(&allGrants, "all-grants", false, "process every grant, not just those without a summary")
	runCmd.Flags().BoolVar(&verifyOnly, "verify-only", false, "only verify that the selected grants exist")
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "process grants but skip the database update")
	runCmd.Flags().IntVar(&maxWriteRetries, "max-write-retries", 3, "retries for each summary write")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 60*time.Second, "per-request HTTP timeout")
	runCmd.Flags().Float64Var(&rps, "rate", 2.0, "max requests per second per domain")
	runCmd.Flags().IntVar(&burst, "burst", 4, "rate limiter burst size per domain")

	runCmd.Flags().StringVar(&userAgent, "ua", defaultUserAgent, "HTTP User-Agent")
	runCmd.Flags().StringVar(&pdfDir, "pdf-dir", "downloads/pdfs", "directory for downloaded PDFs")
	runCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the page cache (force fresh fetches)")
	runCmd.Flags().BoolVar(&noRobots, "no-robots", false, "skip robots.txt checks")
	runCmd.Flags().BoolVar(&insecureTLS, "insecure", false, "skip TLS certificate verification")
	runCmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	runCmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := buildConfig()
	cfg.HTTP.Timeout = runTimeout
	cfg.Concurrency.Workers = workers
	cfg.Database.MaxWriteRetries = maxWriteRetries
	cfg.RateLimit.RequestsPerSecond = rps
	cfg.RateLimit.BurstSize = burst

	db, err := store.New(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	grants, err := selectGrants(ctx, db)
	if err != nil {
		return err
	}
	if len(grants) == 0 {
		fmt.Fprintln(os.Stderr, "No grants to process.")
		return nil
	}

	if batchSize > 0 && batchSize < len(grants) {
		grants = grants[:batchSize]
	}

	if verifyOnly {
		return verifyGrants(ctx, db, grants)
	}

	fmt.Fprintf(os.Stderr, "Processing %d grants with %d workers...\n", len(grants), workers)

	p := pipeline.NewPipeline(cfg)
	processor := worker.NewBatchProcessor(p, workers)
	results := processor.ProcessGrants(ctx, grants)

	processed, updated, failed := 0, 0, 0
	for _, result := range results {
		if result.Error != nil {
			failed++
			fmt.Fprintf(os.Stderr, "✗ grant %s: %v\n", result.Grant.ID, result.Error)
			continue
		}
		processed++

		if dryRun {
			fmt.Fprintf(os.Stderr, "✓ grant %s: summary of %d bytes (not written)\n",
				result.Grant.ID, len(result.Grant.DocumentationSummary))
			continue
		}

		if err := db.UpdateDocumentationSummary(ctx, result.Grant.ID, result.Grant.DocumentationSummary); err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "✗ grant %s: write failed: %v\n", result.Grant.ID, err)
			continue
		}
		updated++
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ grant %s updated\n", result.Grant.ID)
		}
	}

	fmt.Fprintf(os.Stderr, "\nDone: %d processed, %d updated, %d failed (of %d)\n",
		processed, updated, failed, len(results))

	if failed > 0 {
		return fmt.Errorf("%d grants failed", failed)
	}
	return nil
}

// selectGrants resolves the grant set from the flags: a single grant,
// all grants, or only those still missing a summary
func selectGrants(ctx context.Context, db *store.Store) ([]model.Grant, error) {
	if grantID != "" {
		grant, err := db.GetGrant(ctx, grantID)
		if err != nil {
			return nil, err
		}
		return []model.Grant{grant}, nil
	}

	if allGrants {
		return db.GetAllGrants(ctx)
	}
	return db.GetActiveGrants(ctx)
}

func verifyGrants(ctx context.Context, db *store.Store, grants []model.Grant) error {
	existing := 0
	for _, grant := range grants {
		ok, err := db.GrantExists(ctx, grant.ID)
		if err != nil {
			return fmt.Errorf("verify grant %s: %w", grant.ID, err)
		}
		if ok {
			existing++
		}
	}
	fmt.Fprintf(os.Stderr, "Verified %d/%d grants exist in the database\n", existing, len(grants))
	return nil
}
