package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/openbandi/grantdocs/internal/model"
	"github.com/openbandi/grantdocs/internal/textutil"
	"golang.org/x/net/html"
)

var headingSelector = "h1, h2, h3, h4, h5, h6"

// Page parses fetched HTML into a RawSource: title, heading sections,
// lists, tables and the visible text prefix. It never returns an error:
// unparseable markup degrades to a RawSource with the raw text preserved
// and an error marker set.
func Page(htmlContent, pageURL string, maxTextBytes int) model.RawSource {
	src := model.RawSource{
		Origin: model.OriginWebPage,
		URL:    pageURL,
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		src.Text = truncate(textutil.NormalizeWhitespace(htmlContent), maxTextBytes)
		src.Err = "html parse failed"
		return src
	}

	doc.Find("script, style, noscript, iframe").Remove()

	src.Title = pageTitle(doc)
	src.Text = truncate(textutil.NormalizeWhitespace(doc.Find("body").Text()), maxTextBytes)
	src.Sections = pageSections(doc)
	src.Lists = pageLists(doc)
	src.Tables = pageTables(doc)
	return src
}

// pageTitle returns the <title> text, falling back to the first h1/h2
// that looks like a grant name when the title is missing or generic
func pageTitle(doc *goquery.Document) string {
	title := textutil.NormalizeWhitespace(doc.Find("title").First().Text())

	if title == "" || len(title) < 10 || strings.Contains(strings.ToLower(title), "home") {
		doc.Find("h1, h2").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text := textutil.NormalizeWhitespace(s.Text())
			if len(text) > 10 && len(text) < 200 {
				title = text
				return false
			}
			return true
		})
	}

	return title
}

// pageSections pairs each heading with the text of its following
// siblings up to the next heading
func pageSections(doc *goquery.Document) []model.Section {
	var sections []model.Section

	doc.Find(headingSelector).Each(func(_ int, h *goquery.Selection) {
		heading := textutil.NormalizeWhitespace(h.Text())
		if len(heading) < minHeadingLen || len(heading) > maxHeadingLen {
			return
		}

		var body strings.Builder
		for sib := h.Next(); sib.Length() > 0; sib = sib.Next() {
			if sib.Is(headingSelector) {
				break
			}
			body.WriteString(sib.Text())
			body.WriteString(" ")
		}

		bodyText := textutil.NormalizeWhitespace(body.String())
		if bodyText != "" {
			sections = append(sections, model.Section{Heading: heading, Body: bodyText})
		}
	})

	return sections
}

// pageLists extracts ul/ol contents, using the closest preceding heading
// or a short preceding paragraph as the list title
func pageLists(doc *goquery.Document) []model.ListBlock {
	var lists []model.ListBlock

	doc.Find("ul, ol").Each(func(_ int, ul *goquery.Selection) {
		var items []string
		ul.Find("li").Each(func(_ int, li *goquery.Selection) {
			if item := textutil.Clean(li.Text()); item != "" {
				items = append(items, item)
			}
		})
		if len(items) == 0 {
			return
		}

		title := textutil.NormalizeWhitespace(ul.PrevAllFiltered(headingSelector).First().Text())
		if title == "" {
			if p := ul.PrevFiltered("p").First(); p.Length() > 0 {
				if text := textutil.NormalizeWhitespace(p.Text()); len(text) < 150 {
					title = text
				}
			}
		}

		lists = append(lists, model.ListBlock{Title: title, Items: items})
	})

	return lists
}

// pageTables extracts each table as joined row text, titled by caption
// or the closest preceding heading
func pageTables(doc *goquery.Document) []model.TableBlock {
	var tables []model.TableBlock

	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		var rows []string
		table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			var cells []string
			tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
				if text := textutil.Clean(cell.Text()); text != "" {
					cells = append(cells, text)
				}
			})
			if len(cells) > 0 {
				rows = append(rows, strings.Join(cells, " - "))
			}
		})
		if len(rows) == 0 {
			return
		}

		title := textutil.NormalizeWhitespace(table.Find("caption").First().Text())
		if title == "" {
			title = textutil.NormalizeWhitespace(table.PrevAllFiltered(headingSelector).First().Text())
		}

		tables = append(tables, model.TableBlock{Title: title, Rows: rows})
	})

	return tables
}

// PDFLink is a link to a PDF found on a grant page
type PDFLink struct {
	URL      string
	Text     string // anchor text, used as weak naming evidence
	Priority bool   // filename suggests announcement or required forms
}

// Filename patterns that mark a PDF as worth fetching first.
var priorityPDFTerms = []string{
	"bando", "avviso", "decreto", "document", "allegat", "modulistic",
	"istruzion", "guid", "faq", "regolament", "domanda", "application",
	"dichiaraz", "attestaz", "form", "modul", "certific",
}

var pdfHrefRe = regexp.MustCompile(`(?i)\.pdf(\?.*)?$`)

// PDFLinks walks the page's anchors and collects links that point at PDF
// files, resolved against the page URL and deduplicated. Priority links
// (announcement text, forms, attachments) sort first in the result.
func PDFLinks(htmlContent, pageURL string) []PDFLink {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	var links []PDFLink
	var walk func(*html.Node)

	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			href := ""
			for _, attr := range n.Attr {
				if attr.Key == "href" {
					href = strings.TrimSpace(attr.Val)
				}
			}

			if href != "" && pdfHrefRe.MatchString(href) {
				if resolved := resolveURL(base, href); resolved != "" {
					links = append(links, PDFLink{
						URL:      resolved,
						Text:     textutil.NormalizeWhitespace(anchorText(n)),
						Priority: isPriorityPDF(resolved, anchorText(n)),
					})
				}
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)

	return orderPDFLinks(dedupePDFLinks(links))
}

// resolveURL resolves a relative href against the page URL, keeping only
// http/https targets
func resolveURL(base *url.URL, href string) string {
	if strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") {
		return ""
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}

	resolved := base.ResolveReference(parsed)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	return resolved.String()
}

// anchorText collects the text nodes under an anchor
func anchorText(n *html.Node) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
			buf.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return buf.String()
}

func isPriorityPDF(pdfURL, text string) bool {
	haystack := strings.ToLower(pdfURL + " " + text)
	for _, term := range priorityPDFTerms {
		if strings.Contains(haystack, term) {
			return true
		}
	}
	return false
}

func dedupePDFLinks(links []PDFLink) []PDFLink {
	seen := make(map[string]bool)
	var unique []PDFLink
	for _, l := range links {
		if !seen[l.URL] {
			seen[l.URL] = true
			unique = append(unique, l)
		}
	}
	return unique
}

// orderPDFLinks moves priority links to the front, preserving relative
// order within each group
func orderPDFLinks(links []PDFLink) []PDFLink {
	ordered := make([]PDFLink, 0, len(links))
	for _, l := range links {
		if l.Priority {
			ordered = append(ordered, l)
		}
	}
	for _, l := range links {
		if !l.Priority {
			ordered = append(ordered, l)
		}
	}
	return ordered
}
