package extract

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/openbandi/grantdocs/internal/model"
	"github.com/openbandi/grantdocs/internal/textutil"
)

// Heading length bounds; shorter or longer lines are treated as false
// positives of the heading heuristic.
const (
	minHeadingLen = 3
	maxHeadingLen = 100
)

var (
	bulletItemRe = regexp.MustCompile(`^\s*[-•*]\s+(.+)$`)
	numberItemRe = regexp.MustCompile(`^\s*\d{1,3}[.)]\s+(.+)$`)
	letterItemRe = regexp.MustCompile(`^\s*[a-z][.)]\s+(.+)$`)
	columnGapRe  = regexp.MustCompile(`[ \t]{2,}`)
)

// Content parses plain extracted text (typically PDF output) into a
// semi-structured RawSource: headings with bodies, lists and table-like
// blocks. It never returns an error: any internal failure degrades to a
// RawSource that carries the raw text plus an error marker.
func Content(text string, origin model.SourceOrigin, url, context string, maxBytes int) (src model.RawSource) {
	src = model.RawSource{
		Origin:  origin,
		URL:     url,
		Context: context,
	}

	defer func() {
		if r := recover(); r != nil {
			src.Sections = nil
			src.Lists = nil
			src.Tables = nil
			src.Err = "content extraction failed"
		}
	}()

	text = truncate(text, maxBytes)
	src.Text = text
	if strings.TrimSpace(text) == "" {
		return src
	}

	lines := strings.Split(text, "\n")
	src.Sections = extractSections(lines)
	src.Lists = extractLists(lines)
	src.Tables = extractTables(lines)
	return src
}

// truncate bounds text to maxBytes without splitting a UTF-8 sequence
func truncate(text string, maxBytes int) string {
	if maxBytes <= 0 || len(text) <= maxBytes {
		return text
	}
	cut := text[:maxBytes]
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut
}

// extractSections finds heading-like lines (short capitalized line) and
// collects the following text up to the next heading as the body
func extractSections(lines []string) []model.Section {
	var sections []model.Section

	headingAt := func(i int) string {
		line := strings.TrimSpace(lines[i])
		if !looksLikeHeading(line) {
			return ""
		}
		return line
	}

	for i := 0; i < len(lines); i++ {
		heading := headingAt(i)
		if heading == "" {
			continue
		}

		var body strings.Builder
		j := i + 1
		for ; j < len(lines); j++ {
			if headingAt(j) != "" {
				break
			}
			body.WriteString(lines[j])
			body.WriteString(" ")
		}

		bodyText := textutil.NormalizeWhitespace(body.String())
		if bodyText != "" {
			sections = append(sections, model.Section{Heading: heading, Body: bodyText})
		}
		i = j - 1
	}

	return sections
}

// looksLikeHeading reports whether a line is plausibly a heading: bounded
// length, starts with an uppercase letter and does not end mid-sentence
func looksLikeHeading(line string) bool {
	if len(line) < minHeadingLen || len(line) > maxHeadingLen {
		return false
	}
	first, _ := utf8.DecodeRuneInString(line)
	if !unicode.IsUpper(first) {
		return false
	}
	// A trailing comma or semicolon means the line continues; a full
	// stop marks a sentence, not a heading.
	if strings.HasSuffix(line, ",") || strings.HasSuffix(line, ";") || strings.HasSuffix(line, ".") {
		return false
	}
	return true
}

// extractLists finds runs of at least two consecutive lines matching the
// same marker pattern. Single stray dashes are not a list.
func extractLists(lines []string) []model.ListBlock {
	patterns := []*regexp.Regexp{bulletItemRe, numberItemRe, letterItemRe}

	var blocks []model.ListBlock
	for _, re := range patterns {
		blocks = append(blocks, extractListRuns(lines, re)...)
	}
	return blocks
}

func extractListRuns(lines []string, re *regexp.Regexp) []model.ListBlock {
	var blocks []model.ListBlock

	for i := 0; i < len(lines); i++ {
		m := re.FindStringSubmatch(lines[i])
		if m == nil {
			continue
		}

		items := []string{textutil.NormalizeWhitespace(m[1])}
		j := i + 1
		for ; j < len(lines); j++ {
			next := re.FindStringSubmatch(lines[j])
			if next == nil {
				break
			}
			items = append(items, textutil.NormalizeWhitespace(next[1]))
		}

		if len(items) >= 2 {
			title := ""
			if i > 0 {
				prev := strings.TrimSpace(lines[i-1])
				if looksLikeHeading(prev) || strings.HasSuffix(prev, ":") {
					title = strings.TrimSuffix(prev, ":")
				}
			}
			blocks = append(blocks, model.ListBlock{Title: title, Items: items})
		}
		i = j - 1
	}

	return blocks
}

// extractTables finds three or more consecutive lines that each contain
// multiple wide whitespace gaps, a rough proxy for columnar alignment.
// Intentionally approximate: downstream matching keyword-scans row text
// anyway.
func extractTables(lines []string) []model.TableBlock {
	var tables []model.TableBlock

	isColumnar := func(line string) bool {
		return len(columnGapRe.FindAllString(strings.TrimSpace(line), -1)) >= 2
	}

	for i := 0; i < len(lines); i++ {
		if !isColumnar(lines[i]) {
			continue
		}

		var rows []string
		j := i
		for ; j < len(lines); j++ {
			if !isColumnar(lines[j]) {
				break
			}
			rows = append(rows, textutil.NormalizeWhitespace(lines[j]))
		}

		if len(rows) >= 3 {
			title := ""
			if i > 0 {
				prev := strings.TrimSpace(lines[i-1])
				if looksLikeHeading(prev) {
					title = prev
				}
			}
			tables = append(tables, model.TableBlock{Title: title, Rows: rows})
		}
		i = j - 1
	}

	return tables
}
