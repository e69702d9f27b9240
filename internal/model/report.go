package model

import "time"

// Bucket names for documentation-adjacent text that matched no specific
// taxonomy entry
const (
	BucketRequirements = "requirements"
	BucketDeadlines    = "deadlines"
	BucketEligibility  = "eligibility"
	BucketFunding      = "funding"
)

// BucketOrder is the fixed display order of the generic buckets
var BucketOrder = []string{BucketRequirements, BucketDeadlines, BucketEligibility, BucketFunding}

// DocTypeFindings groups the evidence snippets collected for one
// document type, in first-seen order
type DocTypeFindings struct {
	DocumentType string   `json:"document_type"`
	Snippets     []string `json:"snippets"`
	Score        float64  `json:"score"` // display ranking, higher first
}

// SourceRef records the provenance of one fetched artifact for the
// report's source list
type SourceRef struct {
	Origin  SourceOrigin `json:"origin"`
	URL     string       `json:"url"`
	Context string       `json:"context,omitempty"`
	Err     string       `json:"error,omitempty"`
}

// Report is the aggregate result for one grant. It is rendered once
// into Markdown and only the rendered text is persisted.
type Report struct {
	GrantTitle string `json:"grant_title"`

	// DocTypes is ordered by display ranking (priority boost, evidence
	// count, obligation language).
	DocTypes []DocTypeFindings `json:"doc_types"`

	// GenericBuckets holds leftover documentation mentions keyed by
	// bucket name; iterate with BucketOrder for stable output.
	GenericBuckets map[string][]string `json:"generic_buckets,omitempty"`

	Sources     []SourceRef `json:"sources,omitempty"`
	GeneratedAt time.Time   `json:"generated_at"`

	// Fallback marks a report whose content is the fixed set of standard
	// document suggestions rather than extracted evidence.
	Fallback bool `json:"fallback,omitempty"`
}

// Empty reports whether no evidence and no bucket content was collected
func (r *Report) Empty() bool {
	if len(r.DocTypes) > 0 {
		return false
	}
	for _, items := range r.GenericBuckets {
		if len(items) > 0 {
			return false
		}
	}
	return true
}
