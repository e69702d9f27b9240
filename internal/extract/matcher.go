package extract

import (
	"regexp"
	"strings"

	"github.com/openbandi/grantdocs/internal/model"
	"github.com/openbandi/grantdocs/internal/taxonomy"
	"github.com/openbandi/grantdocs/internal/textutil"
)

// Snippets shorter than this after cleaning are treated as noise.
const minSnippetLen = 10

// How many lines after a list introduction are inspected for extra
// evidence. Bounded lookahead, not scanning.
const listLookahead = 5

// Terms that mark a sentence as introducing a list of required items
// ("è necessario presentare i seguenti documenti: ...").
var listIntroTerms = []string{
	"seguent", "presentare", "allegare", "richiest", "necessari", "obbligator",
}

var listLikeLineRe = regexp.MustCompile(`^\s*(?:[-•*]|\d{1,3}[.)]|[a-z][.)])\s+\S`)

// Matcher scans a RawSource for evidence of the taxonomy's document
// types. The taxonomy is injected so tests can run with a small table.
type Matcher struct {
	tax *taxonomy.Taxonomy
}

// NewMatcher creates a matcher over the given taxonomy
func NewMatcher(tax *taxonomy.Taxonomy) *Matcher {
	return &Matcher{tax: tax}
}

// Match collects evidence snippets for every taxonomy entry that occurs
// in the source's sentences, section bodies, list items or table rows.
// Matching is keyword-OR: one variant hit is enough. Snippets are
// cleaned, length-filtered and deduplicated per document type.
func (m *Matcher) Match(src model.RawSource) []model.EvidenceMatch {
	units := collectUnits(src)

	var matches []model.EvidenceMatch
	seen := make(map[string]map[string]bool) // doc type -> normalized snippet

	emit := func(docType, raw string) {
		snippet := textutil.Clean(raw)
		if len(snippet) < minSnippetLen {
			return
		}
		key := strings.ToLower(snippet)
		if seen[docType] == nil {
			seen[docType] = make(map[string]bool)
		}
		if seen[docType][key] {
			return
		}
		seen[docType][key] = true
		matches = append(matches, model.EvidenceMatch{
			DocumentType: docType,
			Snippet:      snippet,
			Origin:       src.Origin,
		})
	}

	for _, unit := range units {
		for _, entry := range m.tax.Entries() {
			if entry.Matches(unit) {
				emit(entry.Name, unit)
			}
		}
	}

	// Second pass over the raw lines: a matching sentence that introduces
	// a list pulls in the next few list-like lines as evidence for the
	// same document type.
	m.matchListIntros(src, emit)

	return matches
}

// collectUnits flattens a RawSource into the text units that are scanned
// for keywords
func collectUnits(src model.RawSource) []string {
	var units []string

	// Split line by line first: PDF text often lacks sentence
	// terminators, and joining lines would produce huge cross-topic
	// units.
	for _, line := range strings.Split(src.Text, "\n") {
		units = append(units, textutil.SplitSentences(line)...)
	}

	for _, sec := range src.Sections {
		units = append(units, sec.Heading)
		units = append(units, textutil.SplitSentences(sec.Body)...)
	}
	for _, list := range src.Lists {
		for _, item := range list.Items {
			if list.Title != "" {
				// Keep the title as context: short items like "Business
				// plan" carry little on their own.
				units = append(units, list.Title+": "+item)
			}
			units = append(units, item)
		}
	}
	for _, table := range src.Tables {
		units = append(units, table.Rows...)
	}

	return units
}

// matchListIntros finds lines that both match a document type and look
// like a list introduction, then attributes up to listLookahead
// following list-like lines to that document type
func (m *Matcher) matchListIntros(src model.RawSource, emit func(docType, raw string)) {
	lines := strings.Split(src.Text, "\n")

	for i, line := range lines {
		lower := strings.ToLower(line)
		if !containsAny(lower, listIntroTerms) {
			continue
		}

		var introTypes []string
		for _, entry := range m.tax.Entries() {
			if entry.Matches(line) {
				introTypes = append(introTypes, entry.Name)
			}
		}
		if len(introTypes) == 0 {
			continue
		}

		end := i + 1 + listLookahead
		if end > len(lines) {
			end = len(lines)
		}
		for j := i + 1; j < end; j++ {
			if !listLikeLineRe.MatchString(lines[j]) {
				break
			}
			for _, docType := range introTypes {
				emit(docType, lines[j])
			}
		}
	}
}

func containsAny(haystack string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(haystack, term) {
			return true
		}
	}
	return false
}

// Generic-signal patterns for documentation-adjacent text that matched
// no specific taxonomy entry. Tried in order; first hit wins.
var bucketSignals = []struct {
	bucket string
	re     *regexp.Regexp
}{
	{model.BucketDeadlines, regexp.MustCompile(`(?i)scadenz|termin|entro il|deadline`)},
	{model.BucketRequirements, regexp.MustCompile(`(?i)requisit|necessari|obblig|richiest`)},
	{model.BucketEligibility, regexp.MustCompile(`(?i)beneficiari|destinatari|ammissibil|eligib`)},
	{model.BucketFunding, regexp.MustCompile(`(?i)contribut|finanz|budget|fond|euro|€`)},
}

// GenericBucket classifies leftover text into one of the generic buckets
// (deadlines, requirements, eligibility, funding). Returns false when
// the text carries no generic signal.
func GenericBucket(text string) (string, bool) {
	for _, sig := range bucketSignals {
		if sig.re.MatchString(text) {
			return sig.bucket, true
		}
	}
	return "", false
}

// MatchesAnyType reports whether the text matches at least one entry of
// the taxonomy; the aggregator uses it to keep generic buckets strictly
// for unmatched text
func MatchesAnyType(tax *taxonomy.Taxonomy, text string) bool {
	for _, entry := range tax.Entries() {
		if entry.Matches(text) {
			return true
		}
	}
	return false
}
