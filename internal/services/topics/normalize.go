package topics

import (
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

// NormalizeContent turns topic content into generation-ready markdown.
// HTML content is stripped of non-prose elements and converted; plain text
// passes through with whitespace collapsed. The generation service consumes
// the result as the podcast source document, so boilerplate markup would
// otherwise end up narrated.
func NormalizeContent(content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return ""
	}

	if !looksLikeHTML(trimmed) {
		return collapseBlankLines(trimmed)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(trimmed))
	if err != nil {
		return collapseBlankLines(trimmed)
	}

	doc.Find("script, style, noscript, iframe, nav, footer, aside").Remove()

	html, err := doc.Find("body").Html()
	if err != nil || strings.TrimSpace(html) == "" {
		html = trimmed
	}

	converter := md.NewConverter("", true, nil)
	markdown, err := converter.ConvertString(html)
	if err != nil {
		return collapseBlankLines(trimmed)
	}

	return collapseBlankLines(markdown)
}

// looksLikeHTML is a cheap tag sniff: a '<' immediately followed by a tag
// name or '/'. False negatives just mean the content passes through
// untouched; bare angle brackets in prose stay prose.
func looksLikeHTML(content string) bool {
	for i := 0; i < len(content)-1; i++ {
		if content[i] != '<' {
			continue
		}
		c := content[i+1]
		if c == '/' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			return true
		}
	}
	return false
}

// collapseBlankLines trims trailing space and squeezes runs of blank lines
// down to one
func collapseBlankLines(content string) string {
	lines := strings.Split(content, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if strings.TrimSpace(line) == "" {
			blank = true
			continue
		}
		if blank && len(out) > 0 {
			out = append(out, "")
		}
		blank = false
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
