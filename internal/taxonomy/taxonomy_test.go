package taxonomy

import (
	"strings"
	"testing"
)

func TestDefault_Valid(t *testing.T) {
	tax := Default()
	if tax.Len() < 60 {
		t.Errorf("expected at least 60 document types, got %d", tax.Len())
	}
}

func TestDefault_UniqueNamesAndKeywords(t *testing.T) {
	tax := Default()

	seen := make(map[string]bool)
	for _, entry := range tax.Entries() {
		if entry.Name == "" {
			t.Error("entry with empty name")
		}
		if seen[entry.Name] {
			t.Errorf("duplicate entry name %q", entry.Name)
		}
		seen[entry.Name] = true

		if len(entry.Keywords) == 0 {
			t.Errorf("entry %q has no keywords", entry.Name)
		}
		for _, kw := range entry.Keywords {
			if strings.TrimSpace(kw) == "" {
				t.Errorf("entry %q has a blank keyword", entry.Name)
			}
		}
	}
}

func TestNew_RejectsInvalidTables(t *testing.T) {
	if _, err := New([]DocumentType{{Name: "", Keywords: []string{"x"}}}); err == nil {
		t.Error("expected error for empty name")
	}
	if _, err := New([]DocumentType{{Name: "a"}}); err == nil {
		t.Error("expected error for entry without keywords")
	}
	if _, err := New([]DocumentType{
		{Name: "a", Keywords: []string{"x"}},
		{Name: "a", Keywords: []string{"y"}},
	}); err == nil {
		t.Error("expected error for duplicate names")
	}
}

func TestMatches_CaseInsensitiveSubstring(t *testing.T) {
	entry := DocumentType{Name: "Business plan", Keywords: []string{"business plan", "piano aziendale"}}

	tests := []struct {
		text string
		want bool
	}{
		{"È necessario presentare il BUSINESS PLAN del progetto", true},
		{"allegare il piano aziendale aggiornato", true},
		{"documentazione fotografica", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := entry.Matches(tt.text); got != tt.want {
			t.Errorf("Matches(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestLookup(t *testing.T) {
	tax := Default()

	entry, ok := tax.Lookup("curriculum vitae")
	if !ok {
		t.Fatal("expected curriculum vitae in default taxonomy")
	}
	if !entry.Matches("allegare il curriculum dei proponenti") {
		t.Error("expected keyword match for curriculum")
	}

	if _, ok := tax.Lookup("no such type"); ok {
		t.Error("expected miss for unknown name")
	}
}

func TestPriorityNames_ExistInDefaultTaxonomy(t *testing.T) {
	tax := Default()
	for _, name := range PriorityNames {
		if _, ok := tax.Lookup(name); !ok {
			t.Errorf("priority name %q is not a taxonomy entry", name)
		}
	}
}
