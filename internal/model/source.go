package model

// SourceOrigin tells which kind of artifact a RawSource came from
type SourceOrigin string

const (
	OriginWebPage SourceOrigin = "web_page"
	OriginPDF     SourceOrigin = "pdf"
)

// Section is one heading with the body text that follows it
type Section struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

// ListBlock is a bullet/numbered/lettered list with an optional title
type ListBlock struct {
	Title string   `json:"title,omitempty"`
	Items []string `json:"items"`
}

// TableBlock is a heuristically detected table; rows are joined cell text
type TableBlock struct {
	Title string   `json:"title,omitempty"`
	Rows  []string `json:"rows"`
}

// RawSource is one fetched artifact (a web page or a PDF) in
// semi-structured form. Built once by the content extractor and
// never mutated afterwards.
type RawSource struct {
	Origin   SourceOrigin `json:"origin"`
	URL      string       `json:"url"`
	Title    string       `json:"title,omitempty"`   // page title
	Context  string       `json:"context,omitempty"` // link anchor text or filename
	Text     string       `json:"text"`              // plain text, truncated to a bounded prefix
	Sections []Section    `json:"sections,omitempty"`
	Lists    []ListBlock  `json:"lists,omitempty"`
	Tables   []TableBlock `json:"tables,omitempty"`

	// Err carries a source-level failure note (fetch error, unreadable PDF).
	// A RawSource with Err set still participates in aggregation so the
	// report can mention the broken source.
	Err string `json:"error,omitempty"`
}

// EvidenceMatch is one cleaned snippet that triggered a keyword match
// for a taxonomy document type
type EvidenceMatch struct {
	DocumentType string       `json:"document_type"`
	Snippet      string       `json:"snippet"`
	Origin       SourceOrigin `json:"source_origin"`
}
