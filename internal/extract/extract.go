// Package extract holds one extractor per brand-data facet. Every extractor
// takes the store URL plus the already-fetched homepage HTML and returns a
// model.Result; extractors that need more pages fetch them through the
// shared network handler.
package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	tagRe        = regexp.MustCompile(`<[^>]+>`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

func parseDoc(html string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

// cleanText collapses whitespace and trims.
func cleanText(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// stripTags removes markup from an HTML fragment (product descriptions from
// the JSON feed arrive as body_html).
func stripTags(html string) string {
	return cleanText(tagRe.ReplaceAllString(html, " "))
}

// truncate cuts s to at most n runes, appending an ellipsis when trimmed.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return strings.TrimSpace(string(runes[:n])) + "…"
}

// splitAndTrim splits s on sep and trims each piece.
func splitAndTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// absoluteURL resolves href against the page base. Returns "" for
// javascript/mailto/fragment pseudo-links.
func absoluteURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") ||
		strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") {
		return ""
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return baseURL.ResolveReference(ref).String()
}

// findLinks returns absolute URLs of anchors whose href or text contains any
// of the keywords, in document order without duplicates.
func findLinks(doc *goquery.Document, base string, keywords ...string) []string {
	var links []string
	seen := make(map[string]bool)
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		text := strings.ToLower(cleanText(sel.Text()))
		lowerHref := strings.ToLower(href)
		for _, kw := range keywords {
			if strings.Contains(lowerHref, kw) || strings.Contains(text, kw) {
				abs := absoluteURL(base, href)
				if abs != "" && !seen[abs] {
					seen[abs] = true
					links = append(links, abs)
				}
				return
			}
		}
	})
	return links
}
