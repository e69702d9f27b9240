package pipeline

import (
	"fmt"
	"strings"

	"github.com/openbandi/grantdocs/internal/model"
)

// Italian section headings for the generic buckets, in display order.
var bucketHeadings = map[string]string{
	model.BucketRequirements: "Requisiti",
	model.BucketDeadlines:    "Scadenze per la Presentazione",
	model.BucketEligibility:  "Beneficiari Ammissibili",
	model.BucketFunding:      "Informazioni sul Finanziamento",
}

// Standard document suggestions used when nothing specific was found.
var fallbackDocuments = []string{
	"Scheda progettuale o Business plan",
	"Piano finanziario delle entrate e delle spese",
	"Curriculum vitae dei proponenti",
	"Dichiarazioni sul possesso dei requisiti",
	"Preventivi di spesa",
	"Documentazione amministrativa dell'impresa",
	"Relazioni tecniche e descrittive",
}

const maxReportedErrors = 5

// Renderer turns an aggregated report into the Markdown text persisted
// as documentation_summary. Output is deterministic for a given report.
type Renderer struct {
	maxSnippets    int
	maxBucketItems int
	includeSources bool
}

// NewRenderer creates a renderer with the given output settings
func NewRenderer(cfg model.OutputConfig) *Renderer {
	return &Renderer{
		maxSnippets:    cfg.MaxSnippets,
		maxBucketItems: cfg.MaxBucketItems,
		includeSources: cfg.IncludeSources,
	}
}

// Render produces the Markdown summary. The result is never empty: a
// report without findings renders the standard document suggestions,
// clearly marked as such.
func (r *Renderer) Render(report *model.Report, grant model.Grant) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Documentazione Necessaria per %s\n", report.GrantTitle)

	if report.Fallback {
		r.renderFallback(&b, report, grant)
	} else {
		r.renderFindings(&b, report)
	}

	if r.includeSources && len(report.Sources) > 0 {
		r.renderSources(&b, report)
	}

	b.WriteString("\n_Si consiglia di verificare sempre i requisiti esatti nel testo ufficiale del bando._\n")
	fmt.Fprintf(&b, "\n_Ultimo aggiornamento: %s_\n", report.GeneratedAt.Format("02/01/2006 15:04"))

	return b.String()
}

func (r *Renderer) renderFindings(b *strings.Builder, report *model.Report) {
	if len(report.DocTypes) > 0 {
		b.WriteString("\n## Documentazione Richiesta\n\n")
		for _, finding := range report.DocTypes {
			fmt.Fprintf(b, "- **%s**\n", capitalizeFirst(finding.DocumentType))
			for i, snippet := range finding.Snippets {
				if i >= r.maxSnippets {
					break
				}
				fmt.Fprintf(b, "  - %s\n", snippet)
			}
		}
	}

	for _, bucket := range model.BucketOrder {
		items := report.GenericBuckets[bucket]
		if len(items) == 0 {
			continue
		}
		fmt.Fprintf(b, "\n## %s\n\n", bucketHeadings[bucket])
		for i, item := range items {
			if i >= r.maxBucketItems {
				break
			}
			fmt.Fprintf(b, "- %s\n", item)
		}
	}
}

// renderFallback emits the standard document suggestions plus the grant
// links, so an operator still gets a usable starting point
func (r *Renderer) renderFallback(b *strings.Builder, report *model.Report, grant model.Grant) {
	b.WriteString("\nNon è stato possibile estrarre informazioni specifiche sulla documentazione richiesta.\n")

	b.WriteString("\n## Link di Riferimento\n\n")
	if grant.LinkBando != "" {
		fmt.Fprintf(b, "- Bando principale: %s\n", grant.LinkBando)
	} else {
		b.WriteString("- Bando principale: Non disponibile\n")
	}
	if grant.LinkSitoBando != "" && grant.LinkSitoBando != grant.LinkBando {
		fmt.Fprintf(b, "- Sito supplementare: %s\n", grant.LinkSitoBando)
	}

	b.WriteString("\n## Possibili Documenti Standard\n\nI bandi di questa tipologia solitamente richiedono:\n\n")
	for _, doc := range fallbackDocuments {
		fmt.Fprintf(b, "- %s\n", doc)
	}

	var errors []string
	for _, src := range report.Sources {
		if src.Err != "" {
			errors = append(errors, fmt.Sprintf("%s: %s", src.URL, src.Err))
		}
	}
	if len(errors) > 0 {
		b.WriteString("\n## Errori Riscontrati\n\n")
		for i, e := range errors {
			if i >= maxReportedErrors {
				break
			}
			fmt.Fprintf(b, "- %s\n", e)
		}
	}
}

func (r *Renderer) renderSources(b *strings.Builder, report *model.Report) {
	b.WriteString("\n## Fonti di Documentazione\n\n")
	for _, src := range report.Sources {
		label := "Pagina web"
		if src.Origin == model.OriginPDF {
			label = "PDF"
		}
		line := fmt.Sprintf("- %s: %s", label, src.URL)
		if src.Context != "" {
			line += fmt.Sprintf(" (%s)", src.Context)
		}
		if src.Err != "" {
			line += fmt.Sprintf(" [non elaborato: %s]", src.Err)
		}
		b.WriteString(line + "\n")
	}
}

// capitalizeFirst uppercases the first letter of a document type name
// for display
func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
