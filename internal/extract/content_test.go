package extract

import (
	"strings"
	"testing"

	"github.com/openbandi/grantdocs/internal/model"
)

func TestContent_Sections(t *testing.T) {
	text := "Documentazione richiesta\n" +
		"La domanda deve essere corredata dal business plan.\n" +
		"Scadenze\n" +
		"Le domande vanno presentate entro il 30 giugno 2026.\n"

	src := Content(text, model.OriginPDF, "http://example.it/bando.pdf", "Bando", 0)

	if src.Err != "" {
		t.Fatalf("unexpected error marker: %s", src.Err)
	}
	if len(src.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d: %+v", len(src.Sections), src.Sections)
	}
	if src.Sections[0].Heading != "Documentazione richiesta" {
		t.Errorf("unexpected heading: %q", src.Sections[0].Heading)
	}
	if !strings.Contains(src.Sections[1].Body, "30 giugno") {
		t.Errorf("expected deadline in body, got %q", src.Sections[1].Body)
	}
}

func TestContent_Lists(t *testing.T) {
	text := "Alla domanda devono essere allegati:\n" +
		"- scheda progettuale\n" +
		"- business plan\n" +
		"- curriculum vitae dei proponenti\n"

	src := Content(text, model.OriginPDF, "http://example.it/a.pdf", "", 0)

	if len(src.Lists) != 1 {
		t.Fatalf("expected 1 list, got %d", len(src.Lists))
	}
	list := src.Lists[0]
	if list.Title != "Alla domanda devono essere allegati" {
		t.Errorf("unexpected list title: %q", list.Title)
	}
	if len(list.Items) != 3 {
		t.Errorf("expected 3 items, got %d: %v", len(list.Items), list.Items)
	}
}

func TestContent_SingleDashIsNotAList(t *testing.T) {
	text := "Premessa\n- una sola riga con trattino\nAltro testo normale.\n"

	src := Content(text, model.OriginPDF, "http://example.it/a.pdf", "", 0)

	if len(src.Lists) != 0 {
		t.Errorf("expected no lists for a single marker line, got %+v", src.Lists)
	}
}

func TestContent_NumberedList(t *testing.T) {
	text := "Documenti:\n1. domanda di partecipazione\n2. piano finanziario\n3) preventivi di spesa\n"

	src := Content(text, model.OriginPDF, "http://example.it/a.pdf", "", 0)

	if len(src.Lists) != 1 {
		t.Fatalf("expected 1 numbered list, got %d", len(src.Lists))
	}
	if len(src.Lists[0].Items) != 3 {
		t.Errorf("expected 3 items, got %v", src.Lists[0].Items)
	}
}

func TestContent_Tables(t *testing.T) {
	text := "Spese ammissibili\n" +
		"Voce di spesa    Importo massimo    Percentuale\n" +
		"Attrezzature     50.000 euro        80%\n" +
		"Consulenze       10.000 euro        50%\n"

	src := Content(text, model.OriginPDF, "http://example.it/a.pdf", "", 0)

	if len(src.Tables) != 1 {
		t.Fatalf("expected 1 table, got %d", len(src.Tables))
	}
	table := src.Tables[0]
	if table.Title != "Spese ammissibili" {
		t.Errorf("unexpected table title: %q", table.Title)
	}
	if len(table.Rows) != 3 {
		t.Errorf("expected 3 rows, got %d", len(table.Rows))
	}
}

func TestContent_EmptyInput(t *testing.T) {
	src := Content("", model.OriginPDF, "http://example.it/a.pdf", "", 0)

	if src.Err != "" {
		t.Errorf("empty input should not set an error marker, got %q", src.Err)
	}
	if len(src.Sections) != 0 || len(src.Lists) != 0 || len(src.Tables) != 0 {
		t.Error("expected no structure for empty input")
	}
}

func TestContent_TruncatesAtByteCap(t *testing.T) {
	text := strings.Repeat("à", 1000)

	src := Content(text, model.OriginPDF, "http://example.it/a.pdf", "", 101)

	if len(src.Text) > 101 {
		t.Errorf("expected at most 101 bytes, got %d", len(src.Text))
	}
	// The cap must not split a multi-byte rune.
	for _, r := range src.Text {
		if r == '�' {
			t.Error("truncation produced an invalid rune")
		}
	}
}

func TestContent_KeepsOriginAndContext(t *testing.T) {
	src := Content("testo", model.OriginPDF, "http://example.it/b.pdf", "Allegato A", 0)

	if src.Origin != model.OriginPDF {
		t.Errorf("unexpected origin: %s", src.Origin)
	}
	if src.URL != "http://example.it/b.pdf" || src.Context != "Allegato A" {
		t.Errorf("provenance not preserved: %+v", src)
	}
}
