package extract

import (
	"strings"
	"testing"

	"github.com/openbandi/grantdocs/internal/model"
	"github.com/openbandi/grantdocs/internal/taxonomy"
)

func testTaxonomy(t *testing.T) *taxonomy.Taxonomy {
	t.Helper()
	tax, err := taxonomy.New([]taxonomy.DocumentType{
		{Name: "Business plan", Keywords: []string{"business plan"}},
		{Name: "curriculum vitae", Keywords: []string{"curriculum"}},
		{Name: "piano finanziario delle entrate e delle spese", Keywords: []string{"piano finanziar"}},
		{Name: "pitch", Keywords: []string{"pitch"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	return tax
}

func TestMatch_SentenceEvidence(t *testing.T) {
	tax := testTaxonomy(t)
	m := NewMatcher(tax)

	src := model.RawSource{
		Origin: model.OriginWebPage,
		URL:    "https://example.it/bando",
		Text:   "Il bando finanzia nuove imprese. Alla domanda va allegato il business plan completo.",
	}

	matches := m.Match(src)

	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d: %+v", len(matches), matches)
	}
	if matches[0].DocumentType != "Business plan" {
		t.Errorf("unexpected type: %s", matches[0].DocumentType)
	}
	if !strings.Contains(matches[0].Snippet, "business plan completo") {
		t.Errorf("unexpected snippet: %q", matches[0].Snippet)
	}
	if matches[0].Origin != model.OriginWebPage {
		t.Errorf("unexpected origin: %s", matches[0].Origin)
	}
}

func TestMatch_ListItemWithTitleContext(t *testing.T) {
	tax := testTaxonomy(t)
	m := NewMatcher(tax)

	src := model.RawSource{
		Origin: model.OriginPDF,
		Lists: []model.ListBlock{{
			Title: "Documenti da allegare",
			Items: []string{"Business plan", "Fotocopia di un documento"},
		}},
	}

	matches := m.Match(src)

	found := false
	for _, match := range matches {
		if match.DocumentType == "Business plan" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected Business plan evidence from list item, got %+v", matches)
	}
}

func TestMatch_ShortSnippetsFiltered(t *testing.T) {
	tax := testTaxonomy(t)
	m := NewMatcher(tax)

	// After cleaning this is below the minimum snippet length.
	src := model.RawSource{Text: "Il pitch."}

	if matches := m.Match(src); len(matches) != 0 {
		t.Errorf("expected no matches for sub-minimum snippets, got %+v", matches)
	}
}

func TestMatch_DeduplicatesPerType(t *testing.T) {
	tax := testTaxonomy(t)
	m := NewMatcher(tax)

	src := model.RawSource{
		Text: "Allegare il business plan. Allegare il business plan. ",
	}

	matches := m.Match(src)
	if len(matches) != 1 {
		t.Errorf("expected deduplicated match, got %d: %+v", len(matches), matches)
	}
}

func TestMatch_TableRowEvidence(t *testing.T) {
	tax := testTaxonomy(t)
	m := NewMatcher(tax)

	src := model.RawSource{
		Tables: []model.TableBlock{{
			Rows: []string{"Allegato 1 - piano finanziario delle spese previste"},
		}},
	}

	matches := m.Match(src)
	if len(matches) != 1 || matches[0].DocumentType != "piano finanziario delle entrate e delle spese" {
		t.Fatalf("expected table row evidence, got %+v", matches)
	}
}

func TestMatch_ListIntroLookahead(t *testing.T) {
	tax := testTaxonomy(t)
	m := NewMatcher(tax)

	src := model.RawSource{
		Text: "Per il business plan sono richiesti i seguenti allegati:\n" +
			"- relazione descrittiva del progetto\n" +
			"- preventivi dei fornitori selezionati\n" +
			"testo normale che interrompe la lista\n" +
			"- voce staccata che non va attribuita\n",
	}

	matches := m.Match(src)

	var snippets []string
	for _, match := range matches {
		if match.DocumentType == "Business plan" {
			snippets = append(snippets, match.Snippet)
		}
	}

	joined := strings.Join(snippets, " | ")
	if !strings.Contains(joined, "relazione descrittiva") || !strings.Contains(joined, "preventivi dei fornitori") {
		t.Errorf("expected lookahead lines attributed, got %v", snippets)
	}
	if strings.Contains(joined, "voce staccata") {
		t.Errorf("lookahead crossed a non-list line: %v", snippets)
	}
}

func TestGenericBucket(t *testing.T) {
	tests := []struct {
		text   string
		bucket string
		ok     bool
	}{
		{"La scadenza per la presentazione è il 30 giugno", model.BucketDeadlines, true},
		{"Sono requisiti necessari per partecipare", model.BucketRequirements, true},
		{"I beneficiari sono le piccole e medie imprese", model.BucketEligibility, true},
		{"Il contributo massimo è di 50.000 euro", model.BucketFunding, true},
		{"Testo senza alcun segnale utile", "", false},
	}

	for _, tt := range tests {
		bucket, ok := GenericBucket(tt.text)
		if ok != tt.ok || bucket != tt.bucket {
			t.Errorf("GenericBucket(%q) = (%q, %v), want (%q, %v)", tt.text, bucket, ok, tt.bucket, tt.ok)
		}
	}
}

func TestMatchesAnyType(t *testing.T) {
	tax := testTaxonomy(t)

	if !MatchesAnyType(tax, "serve il curriculum aggiornato") {
		t.Error("expected taxonomy match")
	}
	if MatchesAnyType(tax, "testo del tutto estraneo") {
		t.Error("expected no match")
	}
}
