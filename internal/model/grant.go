package model

// Grant represents one row of the hosted bandi table.
// The crawler reads the three link/name columns and writes back
// documentation_summary only.
type Grant struct {
	ID            string `json:"id"`
	LinkBando     string `json:"link_bando"`
	LinkSitoBando string `json:"link_sito_bando"`
	NomeBando     string `json:"nome_bando"`

	// DocumentationSummary holds the rendered Markdown after processing.
	DocumentationSummary string `json:"documentation_summary,omitempty"`
}

// URLs returns the distinct, non-empty links of the grant in fetch order:
// the announcement page first, then the supplementary site if different.
func (g Grant) URLs() []string {
	var urls []string
	if g.LinkBando != "" {
		urls = append(urls, g.LinkBando)
	}
	if g.LinkSitoBando != "" && g.LinkSitoBando != g.LinkBando {
		urls = append(urls, g.LinkSitoBando)
	}
	return urls
}
