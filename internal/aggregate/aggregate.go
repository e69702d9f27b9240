// Package aggregate merges matcher output from every fetched source of a
// grant into a single categorized report.
package aggregate

import (
	"sort"
	"strings"
	"time"

	"github.com/openbandi/grantdocs/internal/extract"
	"github.com/openbandi/grantdocs/internal/model"
	"github.com/openbandi/grantdocs/internal/taxonomy"
	"github.com/openbandi/grantdocs/internal/textutil"
)

const (
	// Near-duplicate snippet thresholds: character-set overlap above
	// nearDupOverlap with lengths within nearDupLenRatio collapses
	// repeated near-identical sentences from redundant PDF content.
	nearDupOverlap  = 0.8
	nearDupLenRatio = 0.3

	priorityBoost   = 3.0
	obligationBoost = 2.0

	maxBucketItems = 10
	minBucketLen   = 15

	// FallbackTitle is used when no source yields a usable grant name.
	FallbackTitle = "Informazioni Bando"
)

// Aggregator builds a GrantDocumentationReport from raw sources and
// their evidence matches
type Aggregator struct {
	tax *taxonomy.Taxonomy
	now func() time.Time
}

// New creates an aggregator over the given taxonomy
func New(tax *taxonomy.Taxonomy) *Aggregator {
	return &Aggregator{tax: tax, now: time.Now}
}

// WithClock overrides the timestamp source, for deterministic tests
func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	a.now = now
	return a
}

// Aggregate merges matches across sources: groups by document type in
// first-seen order, deduplicates snippets, routes unmatched
// documentation-adjacent text into the generic buckets and ranks the
// document types for display. Generic buckets hold only text that
// matched no specific taxonomy entry, so nothing is counted twice.
func (a *Aggregator) Aggregate(grantTitle string, sources []model.RawSource, matches []model.EvidenceMatch) *model.Report {
	report := &model.Report{
		GrantTitle:     resolveTitle(grantTitle, sources),
		GenericBuckets: make(map[string][]string),
		GeneratedAt:    a.now().UTC(),
	}

	report.DocTypes = a.groupMatches(matches)
	a.fillGenericBuckets(report, sources)

	for _, src := range sources {
		report.Sources = append(report.Sources, model.SourceRef{
			Origin:  src.Origin,
			URL:     src.URL,
			Context: src.Context,
			Err:     src.Err,
		})
	}

	if report.Empty() {
		report.Fallback = true
	}

	rankDocTypes(report.DocTypes)
	return report
}

// groupMatches groups evidence by document type preserving first-seen
// order, with exact and near-duplicate snippet filtering
func (a *Aggregator) groupMatches(matches []model.EvidenceMatch) []model.DocTypeFindings {
	var order []string
	grouped := make(map[string][]string)
	seen := make(map[string]map[string]bool)

	for _, m := range matches {
		key := strings.ToLower(textutil.NormalizeWhitespace(m.Snippet))
		if seen[m.DocumentType] == nil {
			seen[m.DocumentType] = make(map[string]bool)
			order = append(order, m.DocumentType)
		}
		if seen[m.DocumentType][key] {
			continue
		}
		if hasNearDuplicate(grouped[m.DocumentType], m.Snippet) {
			continue
		}
		seen[m.DocumentType][key] = true
		grouped[m.DocumentType] = append(grouped[m.DocumentType], m.Snippet)
	}

	findings := make([]model.DocTypeFindings, 0, len(order))
	for _, name := range order {
		findings = append(findings, model.DocTypeFindings{
			DocumentType: name,
			Snippets:     grouped[name],
		})
	}
	return findings
}

// fillGenericBuckets scans source sentences that matched no taxonomy
// entry and routes documentation-adjacent ones into the generic buckets.
// Overfull buckets keep their most informative items.
func (a *Aggregator) fillGenericBuckets(report *model.Report, sources []model.RawSource) {
	seen := make(map[string]bool)

	for _, src := range sources {
		for _, sentence := range textutil.SplitSentences(src.Text) {
			cleaned := textutil.Clean(sentence)
			if len(cleaned) < minBucketLen {
				continue
			}
			if extract.MatchesAnyType(a.tax, cleaned) {
				continue
			}
			bucket, ok := extract.GenericBucket(cleaned)
			if !ok {
				continue
			}
			key := strings.ToLower(cleaned)
			if seen[key] {
				continue
			}
			if hasNearDuplicate(report.GenericBuckets[bucket], cleaned) {
				continue
			}
			seen[key] = true
			report.GenericBuckets[bucket] = append(report.GenericBuckets[bucket], cleaned)
		}
	}

	for bucket, items := range report.GenericBuckets {
		report.GenericBuckets[bucket] = selectInformative(items, maxBucketItems)
	}
}

// selectInformative keeps the max highest-scoring items, most
// informative first
func selectInformative(items []string, max int) []string {
	if len(items) <= max {
		return items
	}

	ranked := make([]string, len(items))
	copy(ranked, items)
	sort.SliceStable(ranked, func(i, j int) bool {
		return informativeness(ranked[i]) > informativeness(ranked[j])
	})
	return ranked[:max]
}

// informativeness scores a bucket item for display selection. Concrete
// sentences with amounts, dates or obligation language beat vague ones.
func informativeness(text string) float64 {
	score := float64(len(text)) / 100.0
	if score > 1 {
		score = 1
	}

	if containsObligation(text) {
		score += 1
	}

	for _, r := range text {
		if r >= '0' && r <= '9' {
			score += 0.5
			break
		}
	}

	lower := strings.ToLower(text)
	for _, term := range []string{"document", "allegat", "modul", "certificat", "dichiaraz", "euro", "%"} {
		if strings.Contains(lower, term) {
			score += 0.5
			break
		}
	}

	return score
}

// resolveTitle prefers the grant's database name, then the longest page
// title across web sources, then the first short PDF context, then a
// fixed placeholder
func resolveTitle(grantTitle string, sources []model.RawSource) string {
	if grantTitle != "" {
		return grantTitle
	}

	best := ""
	for _, src := range sources {
		if src.Origin == model.OriginWebPage && len(src.Title) > len(best) {
			best = src.Title
		}
	}
	if best != "" {
		return best
	}

	for _, src := range sources {
		if src.Origin == model.OriginPDF && src.Context != "" && len(src.Context) < 100 {
			return src.Context
		}
	}

	return FallbackTitle
}

// rankDocTypes assigns display scores and sorts descending: a fixed
// boost for always-important document types, one point per evidence
// snippet and a boost when any snippet uses obligation language
func rankDocTypes(findings []model.DocTypeFindings) {
	priority := make(map[string]bool, len(taxonomy.PriorityNames))
	for _, name := range taxonomy.PriorityNames {
		priority[name] = true
	}

	for i := range findings {
		score := float64(len(findings[i].Snippets))
		if priority[findings[i].DocumentType] {
			score += priorityBoost
		}
		for _, snippet := range findings[i].Snippets {
			if containsObligation(snippet) {
				score += obligationBoost
				break
			}
		}
		findings[i].Score = score
	}

	sort.SliceStable(findings, func(i, j int) bool {
		return findings[i].Score > findings[j].Score
	})
}

func containsObligation(text string) bool {
	lower := strings.ToLower(text)
	for _, term := range taxonomy.ObligationTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// hasNearDuplicate reports whether a close variant of the snippet is
// already present: lengths within nearDupLenRatio and character-set
// overlap above nearDupOverlap
func hasNearDuplicate(existing []string, snippet string) bool {
	for _, other := range existing {
		if nearDuplicate(other, snippet) {
			return true
		}
	}
	return false
}

func nearDuplicate(a, b string) bool {
	la, lb := len(a), len(b)
	if la == 0 || lb == 0 {
		return false
	}
	longer := la
	if lb > longer {
		longer = lb
	}
	diff := la - lb
	if diff < 0 {
		diff = -diff
	}
	if float64(diff) > nearDupLenRatio*float64(longer) {
		return false
	}
	return charSetOverlap(a, b) > nearDupOverlap
}

// charSetOverlap computes the Jaccard overlap of the two strings' rune
// sets (case-insensitive)
func charSetOverlap(a, b string) float64 {
	setA := runeSet(a)
	setB := runeSet(b)

	intersection := 0
	for r := range setA {
		if setB[r] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func runeSet(s string) map[rune]bool {
	set := make(map[rune]bool)
	for _, r := range strings.ToLower(s) {
		set[r] = true
	}
	return set
}
