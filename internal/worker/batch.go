package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/openbandi/grantdocs/internal/model"
)

// GrantProcessor runs the documentation extraction for one grant
type GrantProcessor interface {
	ProcessGrant(ctx context.Context, grant model.Grant) (model.Grant, error)
}

// GrantJob processes a single grant through the pipeline
type GrantJob struct {
	Grant     model.Grant
	Processor GrantProcessor
}

// Execute runs the job
func (j *GrantJob) Execute(ctx context.Context) Result {
	grant, err := j.Processor.ProcessGrant(ctx, j.Grant)
	return &GrantResult{Grant: grant, Error: err}
}

// GrantResult is the outcome of processing one grant
type GrantResult struct {
	Grant model.Grant
	Error error
}

// GetError returns the processing error, if any
func (r *GrantResult) GetError() error {
	return r.Error
}

// BatchProcessor processes multiple grants concurrently through a
// worker pool
type BatchProcessor struct {
	processor   GrantProcessor
	concurrency int
}

// NewBatchProcessor creates a batch processor with the given
// concurrency
func NewBatchProcessor(processor GrantProcessor, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		processor:   processor,
		concurrency: concurrency,
	}
}

// ProcessGrants processes the grants concurrently and returns one
// result per grant, in completion order
func (b *BatchProcessor) ProcessGrants(ctx context.Context, grants []model.Grant) []*GrantResult {
	if len(grants) == 0 {
		return []*GrantResult{}
	}

	pool := NewPool(b.concurrency)
	pool.Start()

	// Submit from a separate goroutine while draining results below:
	// batches are routinely larger than the pool's queue buffer.
	go func() {
		for _, grant := range grants {
			pool.Submit(&GrantJob{Grant: grant, Processor: b.processor})
		}
		pool.Close()
	}()

	grantResults := make([]*GrantResult, 0, len(grants))
	for result := range pool.Results() {
		grantResults = append(grantResults, result.(*GrantResult))
	}

	return grantResults
}

// ReadURLsFromFile reads URLs from a file, one per line, skipping blank
// lines and comments and dropping duplicates
func ReadURLsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var urls []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			urls = append(urls, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return urls, nil
}
