// Package textutil provides best-effort text cleanup for scraped and
// OCR-extracted Italian grant text. Every function is total: arbitrary
// input never produces a panic, and empty input yields empty output.
package textutil

import (
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	whitespaceRe    = regexp.MustCompile(`\s+`)
	doublePunctRe   = regexp.MustCompile(`([.!?,:;]){2,}`)
	doubleBulletRe  = regexp.MustCompile(`•\s*[•\-*]\s*`)
	elisionRe       = regexp.MustCompile(`\b([lL])\s+([aeiouAEIOU])`)
	spaceBeforeRe   = regexp.MustCompile(`\s+([.,;:!?])`)
	spaceAfterRe    = regexp.MustCompile(`([.,;:!?])\s+`)
	leadingMarkerRe = regexp.MustCompile(`^[•\-*\d]+[.)]*\s*`)
)

// Glyph replacements applied after NFKC normalization: curly quotes,
// typographic dashes, non-breaking space and bullet variants.
var glyphReplacer = strings.NewReplacer(
	"‘", "'", "’", "'",
	"“", `"`, "”", `"`,
	"–", "-", "—", "-",
	" ", " ",
	"●", "•", "▪", "•", "‣", "•",
)

// Small fixed table of OCR typos common in scanned bandi. Best-effort
// cleanup; occasional false positives are acceptable.
var ocrReplacer = strings.NewReplacer(
	"c0n", "con",
	"d1 ", "di ",
	"documentaz1one", "documentazione",
	"al1egat", "allegat",
)

// Clean normalizes scraped text: whitespace, unicode form, punctuation,
// bullet markers, Italian elision and a few known OCR errors. It is
// idempotent and never fails; on empty input it returns "".
func Clean(text string) string {
	if text == "" {
		return ""
	}

	text = norm.NFKC.String(text)
	text = glyphReplacer.Replace(text)
	text = NormalizeWhitespace(text)

	text = doubleBulletRe.ReplaceAllString(text, "• ")
	text = doublePunctRe.ReplaceAllString(text, "$1")

	// "l a scadenza" → "l'a scadenza": a heuristic for lost elision
	// apostrophes, not a grammar rule.
	text = elisionRe.ReplaceAllString(text, "$1'$2")

	text = spaceBeforeRe.ReplaceAllString(text, "$1")
	text = spaceAfterRe.ReplaceAllString(text, "$1 ")
	// Strip list markers repeatedly so doubly marked items ("1. 2. foo")
	// clean to the same result on every pass.
	for {
		stripped := leadingMarkerRe.ReplaceAllString(text, "")
		if stripped == text {
			break
		}
		text = stripped
	}
	text = ocrReplacer.Replace(text)

	return strings.TrimSpace(text)
}

// NormalizeWhitespace collapses whitespace runs to single spaces and
// trims the ends
func NormalizeWhitespace(text string) string {
	if text == "" {
		return ""
	}
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

var sentenceSplitRe = regexp.MustCompile(`(?:[.!?])\s+`)

// SplitSentences splits text into sentences on terminator-plus-space
// boundaries. A simple heuristic, good enough for keyword scanning.
func SplitSentences(text string) []string {
	text = strings.ReplaceAll(text, "\n", " ")
	parts := sentenceSplitRe.Split(text, -1)
	sentences := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			sentences = append(sentences, p)
		}
	}
	return sentences
}

// TruncateAtSentence truncates text to at most maxLen bytes, preferring
// to cut at the last full stop before the limit
func TruncateAtSentence(text string, maxLen int) string {
	if maxLen <= 0 || len(text) <= maxLen {
		return text
	}
	cut := text[:maxLen]
	if idx := strings.LastIndex(cut, "."); idx > 0 {
		return cut[:idx+1]
	}
	return cut + "..."
}

// SanitizeFilename strips characters that are unsafe in filenames across
// operating systems and bounds the result to 255 bytes
func SanitizeFilename(name string) string {
	name = filepath.Base(name)

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_' || r == '.' || r == '(' || r == ')':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('_')
		}
	}

	out := b.String()
	if len(out) > 255 {
		ext := filepath.Ext(out)
		out = out[:255-len(ext)] + ext
	}
	if out == "" || out == "." {
		out = "unnamed_file"
	}
	return out
}
