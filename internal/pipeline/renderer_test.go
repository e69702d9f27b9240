package pipeline

import (
	"strings"
	"testing"
	"time"

	"github.com/openbandi/grantdocs/internal/model"
)

func testReportTime() time.Time {
	return time.Date(2026, 6, 30, 14, 45, 0, 0, time.UTC)
}

func TestRender_Findings(t *testing.T) {
	r := NewRenderer(model.OutputConfig{MaxSnippets: 2, MaxBucketItems: 5, IncludeSources: true})

	report := &model.Report{
		GrantTitle: "Bando Innovazione 2026",
		DocTypes: []model.DocTypeFindings{
			{
				DocumentType: "business plan",
				Snippets: []string{
					"Allegare il business plan del progetto.",
					"Il business plan deve coprire tre anni.",
					"Terzo snippet oltre il limite.",
				},
			},
			{DocumentType: "curriculum vitae", Snippets: []string{"Curriculum dei soci in formato europeo."}},
		},
		GenericBuckets: map[string][]string{
			model.BucketDeadlines: {"Le domande vanno presentate entro il 30 giugno 2026."},
		},
		Sources: []model.SourceRef{
			{Origin: model.OriginWebPage, URL: "https://example.it/bando"},
			{Origin: model.OriginPDF, URL: "https://example.it/bando.pdf", Context: "Testo integrale"},
		},
		GeneratedAt: testReportTime(),
	}

	out := r.Render(report, model.Grant{LinkBando: "https://example.it/bando"})

	if !strings.HasPrefix(out, "# Documentazione Necessaria per Bando Innovazione 2026\n") {
		t.Errorf("unexpected header:\n%s", out)
	}
	if !strings.Contains(out, "## Documentazione Richiesta") {
		t.Error("missing findings section")
	}
	if !strings.Contains(out, "- **Business plan**") {
		t.Error("document type name not capitalized")
	}
	if strings.Contains(out, "Terzo snippet oltre il limite.") {
		t.Error("snippet cap not applied")
	}
	if !strings.Contains(out, "## Scadenze per la Presentazione") {
		t.Error("missing deadlines bucket heading")
	}
	if !strings.Contains(out, "## Fonti di Documentazione") {
		t.Error("missing sources section")
	}
	if !strings.Contains(out, "- PDF: https://example.it/bando.pdf (Testo integrale)") {
		t.Errorf("unexpected PDF source line:\n%s", out)
	}
	if !strings.Contains(out, "_Ultimo aggiornamento: 30/06/2026 14:45_") {
		t.Errorf("unexpected timestamp footer:\n%s", out)
	}
	if strings.Contains(out, "Possibili Documenti Standard") {
		t.Error("fallback content rendered for a non-fallback report")
	}
}

func TestRender_Deterministic(t *testing.T) {
	r := NewRenderer(model.OutputConfig{MaxSnippets: 2, MaxBucketItems: 5})

	report := &model.Report{
		GrantTitle: "Bando Test",
		DocTypes: []model.DocTypeFindings{
			{DocumentType: "business plan", Snippets: []string{"Allegare il business plan."}},
		},
		GenericBuckets: map[string][]string{
			model.BucketRequirements: {"Requisito uno."},
			model.BucketDeadlines:    {"Scadenza trenta giugno."},
			model.BucketEligibility:  {"Piccole imprese."},
			model.BucketFunding:      {"Contributo massimo 50.000 euro."},
		},
		GeneratedAt: testReportTime(),
	}

	first := r.Render(report, model.Grant{})
	for i := 0; i < 10; i++ {
		if r.Render(report, model.Grant{}) != first {
			t.Fatal("output differs across renders of the same report")
		}
	}

	// Buckets appear in fixed order regardless of map iteration.
	reqIdx := strings.Index(first, "## Requisiti")
	deadIdx := strings.Index(first, "## Scadenze per la Presentazione")
	eligIdx := strings.Index(first, "## Beneficiari Ammissibili")
	fundIdx := strings.Index(first, "## Informazioni sul Finanziamento")
	if reqIdx < 0 || deadIdx < reqIdx || eligIdx < deadIdx || fundIdx < eligIdx {
		t.Errorf("bucket sections out of order:\n%s", first)
	}
}

func TestRender_FallbackNeverEmpty(t *testing.T) {
	r := NewRenderer(model.OutputConfig{MaxSnippets: 2, MaxBucketItems: 5, IncludeSources: true})

	report := &model.Report{
		GrantTitle:     "Informazioni Bando",
		GenericBuckets: map[string][]string{},
		Fallback:       true,
		Sources: []model.SourceRef{
			{Origin: model.OriginWebPage, URL: "https://example.it/bando", Err: "all 3 attempts failed: fetch: timeout"},
		},
		GeneratedAt: testReportTime(),
	}
	grant := model.Grant{
		LinkBando:     "https://example.it/bando",
		LinkSitoBando: "https://example.it/info",
	}

	out := r.Render(report, grant)

	if !strings.Contains(out, "Non è stato possibile estrarre informazioni specifiche") {
		t.Error("missing fallback notice")
	}
	if !strings.Contains(out, "- Bando principale: https://example.it/bando") {
		t.Error("missing main link")
	}
	if !strings.Contains(out, "- Sito supplementare: https://example.it/info") {
		t.Error("missing supplementary link")
	}
	if !strings.Contains(out, "## Possibili Documenti Standard") {
		t.Error("missing standard documents section")
	}
	if !strings.Contains(out, "- Scheda progettuale o Business plan") {
		t.Error("missing first standard document")
	}
	if !strings.Contains(out, "## Errori Riscontrati") {
		t.Error("missing errors section")
	}
	if !strings.Contains(out, "_Si consiglia di verificare sempre i requisiti esatti") {
		t.Error("missing verification note")
	}
}

func TestRender_FallbackWithoutLinks(t *testing.T) {
	r := NewRenderer(model.OutputConfig{MaxSnippets: 2, MaxBucketItems: 5})

	report := &model.Report{
		GrantTitle:  "Informazioni Bando",
		Fallback:    true,
		GeneratedAt: testReportTime(),
	}

	out := r.Render(report, model.Grant{})

	if !strings.Contains(out, "- Bando principale: Non disponibile") {
		t.Errorf("expected placeholder for missing link:\n%s", out)
	}
	if strings.Contains(out, "Sito supplementare") {
		t.Error("supplementary link rendered without a URL")
	}
}

func TestRender_DuplicateLinksCollapse(t *testing.T) {
	r := NewRenderer(model.OutputConfig{MaxSnippets: 2, MaxBucketItems: 5})

	report := &model.Report{GrantTitle: "Informazioni Bando", Fallback: true, GeneratedAt: testReportTime()}
	grant := model.Grant{
		LinkBando:     "https://example.it/bando",
		LinkSitoBando: "https://example.it/bando",
	}

	out := r.Render(report, grant)

	if strings.Count(out, "https://example.it/bando") != 1 {
		t.Errorf("identical links should render once:\n%s", out)
	}
}

func TestRender_ErrorCap(t *testing.T) {
	r := NewRenderer(model.OutputConfig{MaxSnippets: 2, MaxBucketItems: 5})

	report := &model.Report{
		GrantTitle:  "Informazioni Bando",
		Fallback:    true,
		GeneratedAt: testReportTime(),
	}
	for i := 0; i < 8; i++ {
		report.Sources = append(report.Sources, model.SourceRef{
			Origin: model.OriginPDF,
			URL:    "https://example.it/" + strings.Repeat("x", i+1) + ".pdf",
			Err:    "download failed: timeout",
		})
	}

	out := r.Render(report, model.Grant{})

	errorSection := out[strings.Index(out, "## Errori Riscontrati"):]
	if got := strings.Count(errorSection, "download failed: timeout"); got != maxReportedErrors {
		t.Errorf("expected %d reported errors, got %d", maxReportedErrors, got)
	}
}

func TestRender_BucketItemCap(t *testing.T) {
	r := NewRenderer(model.OutputConfig{MaxSnippets: 2, MaxBucketItems: 2})

	report := &model.Report{
		GrantTitle: "Bando Test",
		GenericBuckets: map[string][]string{
			model.BucketFunding: {"Primo elemento.", "Secondo elemento.", "Terzo elemento."},
		},
		GeneratedAt: testReportTime(),
	}

	out := r.Render(report, model.Grant{})

	if strings.Contains(out, "Terzo elemento.") {
		t.Error("bucket item cap not applied")
	}
}
