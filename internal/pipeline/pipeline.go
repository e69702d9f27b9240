// Package pipeline orchestrates per-grant processing: page fetching,
// PDF harvesting, evidence matching, aggregation and rendering.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/phuslu/log"

	"github.com/openbandi/grantdocs/internal/aggregate"
	"github.com/openbandi/grantdocs/internal/cache"
	"github.com/openbandi/grantdocs/internal/extract"
	"github.com/openbandi/grantdocs/internal/model"
	"github.com/openbandi/grantdocs/internal/taxonomy"
	"github.com/openbandi/grantdocs/internal/util"
	"github.com/openbandi/grantdocs/internal/worker"
)

// Pipeline runs the complete documentation extraction for one grant
type Pipeline struct {
	fetcher    *Fetcher
	pdf        *PDFProcessor
	matcher    *extract.Matcher
	aggregator *aggregate.Aggregator
	renderer   *Renderer
	robots     *util.RobotsChecker // nil when robots checking is disabled
	limiter    *worker.Limiter
	pageCache  cache.Cache // nil when caching is disabled
	config     *model.Config
}

// NewPipeline creates a pipeline with the given configuration
func NewPipeline(cfg *model.Config) *Pipeline {
	fetcher := NewFetcher(cfg.HTTP)

	tax := taxonomy.Default()

	var robots *util.RobotsChecker
	if cfg.HTTP.CheckRobots {
		robots = util.NewRobotsChecker(cfg.HTTP.UserAgent, cfg.HTTP.Timeout)
	}

	var pageCache cache.Cache
	if cfg.Cache.Enabled {
		pageCache = cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
	}

	return &Pipeline{
		fetcher:    fetcher,
		pdf:        NewPDFProcessor(fetcher, cfg.PDF),
		matcher:    extract.NewMatcher(tax),
		aggregator: aggregate.New(tax),
		renderer:   NewRenderer(cfg.Output),
		robots:     robots,
		limiter:    worker.NewLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.BurstSize),
		pageCache:  pageCache,
		config:     cfg,
	}
}

// WithClock overrides the report timestamp source, for deterministic
// tests
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	p.aggregator.WithClock(now)
	return p
}

// ProcessGrant runs the full extraction for one grant and fills its
// DocumentationSummary. The summary is always set: failures degrade to
// a fallback report listing the grant links and the errors hit. The
// returned error is non-nil only when the context was cancelled.
func (p *Pipeline) ProcessGrant(ctx context.Context, grant model.Grant) (model.Grant, error) {
	urls := grant.URLs()
	if len(urls) == 0 {
		log.Warn().Str("grant_id", grant.ID).Msg("grant has no links")
		report := p.aggregator.Aggregate(grant.NomeBando, nil, nil)
		grant.DocumentationSummary = p.renderer.Render(report, grant)
		return grant, nil
	}

	var sources []model.RawSource

	for i, pageURL := range urls {
		if err := ctx.Err(); err != nil {
			return grant, err
		}

		pdfCap := p.config.PDF.MaxPerPage
		if i > 0 {
			pdfCap = p.config.PDF.MaxPerExtra
		}

		pageSources := p.processPage(ctx, pageURL, pdfCap)
		sources = append(sources, pageSources...)
	}

	var matches []model.EvidenceMatch
	for _, src := range sources {
		matches = append(matches, p.matcher.Match(src)...)
	}

	report := p.aggregator.Aggregate(grant.NomeBando, sources, matches)
	grant.DocumentationSummary = p.renderer.Render(report, grant)

	log.Info().
		Str("grant_id", grant.ID).
		Int("sources", len(sources)).
		Int("doc_types", len(report.DocTypes)).
		Bool("fallback", report.Fallback).
		Msg("grant processed")

	return grant, ctx.Err()
}

// ScanURL processes a single URL without database involvement, for the
// scan command. The rendered Markdown is returned directly.
func (p *Pipeline) ScanURL(ctx context.Context, rawURL string) (string, error) {
	grant := model.Grant{LinkBando: rawURL}
	processed, err := p.ProcessGrant(ctx, grant)
	if err != nil {
		return "", err
	}
	return processed.DocumentationSummary, nil
}

// processPage fetches one grant page, extracts its content and follows
// up to pdfCap linked PDFs. Every fetched or failed artifact yields a
// RawSource so provenance survives into the report.
func (p *Pipeline) processPage(ctx context.Context, pageURL string, pdfCap int) []model.RawSource {
	if src, blocked := p.checkAccess(ctx, pageURL); blocked {
		return []model.RawSource{src}
	}

	result, err := p.fetchPage(ctx, pageURL)
	if err != nil {
		log.Warn().Str("url", pageURL).Err(err).Msg("page fetch failed")
		return []model.RawSource{{
			Origin: model.OriginWebPage,
			URL:    pageURL,
			Err:    fmt.Sprintf("fetch failed: %v", err),
		}}
	}

	// Announcement links sometimes point straight at the PDF.
	if isPDFResponse(result.ContentType, result.FinalURL) {
		return []model.RawSource{p.pdf.Process(ctx, pageURL, "")}
	}

	sources := []model.RawSource{
		extract.Page(result.HTML, result.FinalURL, p.config.Output.HTMLTextBytes),
	}

	fetched := 0
	for _, link := range extract.PDFLinks(result.HTML, result.FinalURL) {
		if fetched >= pdfCap {
			break
		}
		if err := ctx.Err(); err != nil {
			break
		}
		if src, blocked := p.checkAccess(ctx, link.URL); blocked {
			sources = append(sources, src)
			continue
		}
		sources = append(sources, p.pdf.Process(ctx, link.URL, link.Text))
		fetched++
	}

	return sources
}

// checkAccess applies the per-domain rate limit and the robots.txt
// policy. A disallowed URL is reported as a skipped source.
func (p *Pipeline) checkAccess(ctx context.Context, rawURL string) (model.RawSource, bool) {
	var crawlDelay time.Duration

	if p.robots != nil {
		allowed, delay, err := p.robots.CanFetch(ctx, rawURL)
		if err == nil && !allowed {
			log.Info().Str("url", rawURL).Msg("disallowed by robots.txt")
			return model.RawSource{
				Origin: model.OriginWebPage,
				URL:    rawURL,
				Err:    "disallowed by robots.txt",
			}, true
		}
		crawlDelay = delay
	}

	if err := p.limiter.WaitWithDelay(ctx, rawURL, crawlDelay); err != nil {
		return model.RawSource{
			Origin: model.OriginWebPage,
			URL:    rawURL,
			Err:    fmt.Sprintf("rate limit wait: %v", err),
		}, true
	}

	return model.RawSource{}, false
}

// fetchPage retrieves a page through the cache when one is configured
func (p *Pipeline) fetchPage(ctx context.Context, pageURL string) (*FetchResult, error) {
	key := cache.CacheKey(pageURL)

	if p.pageCache != nil {
		if data, found := p.pageCache.Get(key); found {
			return &FetchResult{HTML: string(data), FinalURL: pageURL, ContentType: "text/html"}, nil
		}
	}

	result, err := p.fetcher.FetchWithRetry(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	if p.pageCache != nil && !isPDFResponse(result.ContentType, result.FinalURL) {
		if err := p.pageCache.Set(key, []byte(result.HTML), 0); err != nil {
			log.Debug().Str("url", pageURL).Err(err).Msg("cache write failed")
		}
	}

	return result, nil
}

func isPDFResponse(contentType, finalURL string) bool {
	if strings.Contains(strings.ToLower(contentType), "application/pdf") {
		return true
	}
	trimmed := finalURL
	if idx := strings.IndexAny(trimmed, "?#"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.HasSuffix(strings.ToLower(trimmed), ".pdf")
}
