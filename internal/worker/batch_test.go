package worker

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/openbandi/grantdocs/internal/model"
)

// mockProcessor implements GrantProcessor
type mockProcessor struct {
	shouldError bool
}

func (m *mockProcessor) ProcessGrant(ctx context.Context, grant model.Grant) (model.Grant, error) {
	time.Sleep(10 * time.Millisecond) // Simulate work
	if m.shouldError {
		return grant, errors.New("processing error")
	}
	grant.DocumentationSummary = "# Documentazione Necessaria per " + grant.NomeBando
	return grant, nil
}

func TestBatchProcessor_ProcessGrants(t *testing.T) {
	processor := NewBatchProcessor(&mockProcessor{}, 2)

	grants := []model.Grant{
		{ID: "1", LinkBando: "http://example.it/a", NomeBando: "Bando A"},
		{ID: "2", LinkBando: "http://example.it/b", NomeBando: "Bando B"},
		{ID: "3", LinkBando: "http://example.it/c", NomeBando: "Bando C"},
	}

	results := processor.ProcessGrants(context.Background(), grants)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	for _, res := range results {
		if res.Error != nil {
			t.Errorf("unexpected error for grant %s: %v", res.Grant.ID, res.Error)
		}
		if res.Grant.DocumentationSummary == "" {
			t.Errorf("expected summary for grant %s", res.Grant.ID)
		}
	}
}

func TestBatchProcessor_LargeBatch(t *testing.T) {
	// Far more grants than the pool's channel buffers can hold, so
	// submission and result draining must overlap.
	processor := NewBatchProcessor(&mockProcessor{}, 2)

	grants := make([]model.Grant, 100)
	for i := range grants {
		grants[i] = model.Grant{ID: "g", NomeBando: "Bando"}
	}

	results := processor.ProcessGrants(context.Background(), grants)
	if len(results) != len(grants) {
		t.Fatalf("expected %d results, got %d", len(grants), len(results))
	}
}

func TestBatchProcessor_ProcessGrants_Error(t *testing.T) {
	processor := NewBatchProcessor(&mockProcessor{shouldError: true}, 2)

	results := processor.ProcessGrants(context.Background(), []model.Grant{{ID: "1"}})

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Error == nil {
		t.Error("expected error, got nil")
	}
}

func TestBatchProcessor_ProcessGrants_Empty(t *testing.T) {
	processor := NewBatchProcessor(&mockProcessor{}, 2)

	results := processor.ProcessGrants(context.Background(), []model.Grant{})
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestGrantResult_GetError(t *testing.T) {
	r1 := &GrantResult{Grant: model.Grant{ID: "1"}}
	if r1.GetError() != nil {
		t.Errorf("expected nil error, got %v", r1.GetError())
	}

	expected := errors.New("processing failed")
	r2 := &GrantResult{Grant: model.Grant{ID: "2"}, Error: expected}
	if r2.GetError() != expected {
		t.Errorf("expected %v, got %v", expected, r2.GetError())
	}
}

func TestReadURLsFromFile(t *testing.T) {
	content := `http://example.it/bando-a
# comment
https://example.it/bando-b

http://example.it/bando-c   `

	tmpfile, err := os.CreateTemp("", "urls")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Remove(tmpfile.Name()) }()

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	urls, err := ReadURLsFromFile(tmpfile.Name())
	if err != nil {
		t.Fatalf("ReadURLsFromFile failed: %v", err)
	}

	expected := []string{"http://example.it/bando-a", "https://example.it/bando-b", "http://example.it/bando-c"}
	if len(urls) != len(expected) {
		t.Fatalf("expected %d URLs, got %d", len(expected), len(urls))
	}
	for i, url := range urls {
		if url != expected[i] {
			t.Errorf("expected URL %s at index %d, got %s", expected[i], i, url)
		}
	}
}

func TestReadURLsFromFile_Deduplication(t *testing.T) {
	content := "http://example.it/bando\nhttp://example.it/bando\n"

	tmpfile, err := os.CreateTemp("", "urls_dedup")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Remove(tmpfile.Name()) }()

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	urls, err := ReadURLsFromFile(tmpfile.Name())
	if err != nil {
		t.Fatalf("ReadURLsFromFile failed: %v", err)
	}
	if len(urls) != 1 {
		t.Errorf("expected 1 URL after deduplication, got %d", len(urls))
	}
}

func TestReadURLsFromFile_NonExistent(t *testing.T) {
	if _, err := ReadURLsFromFile("non_existent_file.txt"); err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}
