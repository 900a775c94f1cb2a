package extract

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sells-group/insights-cli/internal/fetcher"
	"github.com/sells-group/insights-cli/internal/model"
)

// faqPaths are common FAQ page locations tried when the homepage has no
// obvious FAQ link.
var faqPaths = []string{"/pages/faq", "/pages/faqs", "/pages/help"}

// FAQExtractor finds a FAQ page and parses question/answer pairs from it.
type FAQExtractor struct {
	fetch fetcher.Getter
	limit int
}

// NewFAQExtractor creates a FAQExtractor capped at limit entries.
func NewFAQExtractor(fetch fetcher.Getter, limit int) *FAQExtractor {
	if limit <= 0 {
		limit = 15
	}
	return &FAQExtractor{fetch: fetch, limit: limit}
}

// FAQs locates the FAQ page and extracts deduplicated, capped Q/A pairs.
func (e *FAQExtractor) FAQs(ctx context.Context, store *model.StoreURL, html string) model.Result[[]model.FAQ] {
	doc, err := parseDoc(html)
	if err != nil {
		return model.Failf[[]model.FAQ]("parse homepage: %v", err)
	}

	// Homepage itself sometimes carries an FAQ accordion.
	if faqs := parseFAQs(doc); len(faqs) > 0 {
		return model.Ok(Dedupe(faqs, e.limit))
	}

	candidates := findLinks(doc, store.String(), "faq", "frequently asked")
	for _, p := range faqPaths {
		candidates = append(candidates, store.Resolve(p))
	}

	var warnings []string
	for _, candidate := range candidates {
		res := e.fetch.Get(ctx, candidate, nil)
		if !res.IsUsable() {
			warnings = append(warnings, "faq page fetch failed: "+res.ErrorMessage)
			continue
		}
		pageDoc, parseErr := parseDoc(res.Data.Text())
		if parseErr != nil {
			continue
		}
		if faqs := parseFAQs(pageDoc); len(faqs) > 0 {
			return model.Ok(Dedupe(faqs, e.limit)).WithMeta("source_url", candidate)
		}
	}

	return model.Partial([]model.FAQ{}, append(warnings, "no faq entries found")...)
}

// parseFAQs tries the markup shapes FAQ pages commonly use.
func parseFAQs(doc *goquery.Document) []model.FAQ {
	var faqs []model.FAQ

	// <details><summary>Q</summary>A</details>
	doc.Find("details").Each(func(_ int, s *goquery.Selection) {
		q := cleanText(s.Find("summary").First().Text())
		full := cleanText(s.Text())
		a := cleanText(strings.TrimPrefix(full, q))
		if q != "" && a != "" {
			faqs = append(faqs, model.FAQ{Question: q, Answer: truncate(a, 1000)})
		}
	})
	if len(faqs) > 0 {
		return faqs
	}

	// <dt>Q</dt><dd>A</dd>
	doc.Find("dl").Each(func(_ int, dl *goquery.Selection) {
		questions := dl.Find("dt")
		answers := dl.Find("dd")
		questions.Each(func(i int, q *goquery.Selection) {
			if i >= answers.Length() {
				return
			}
			question := cleanText(q.Text())
			answer := cleanText(answers.Eq(i).Text())
			if question != "" && answer != "" {
				faqs = append(faqs, model.FAQ{Question: question, Answer: truncate(answer, 1000)})
			}
		})
	})
	if len(faqs) > 0 {
		return faqs
	}

	// Heading followed by a paragraph, where the heading reads like a question.
	doc.Find("h2, h3, h4").Each(func(_ int, h *goquery.Selection) {
		question := cleanText(h.Text())
		if !looksLikeQuestion(question) {
			return
		}
		answer := cleanText(h.NextFiltered("p").Text())
		if answer != "" {
			faqs = append(faqs, model.FAQ{Question: question, Answer: truncate(answer, 1000)})
		}
	})
	return faqs
}

func looksLikeQuestion(s string) bool {
	if strings.HasSuffix(s, "?") {
		return true
	}
	lower := strings.ToLower(s)
	for _, prefix := range []string{"how ", "what ", "when ", "where ", "why ", "can ", "do ", "does ", "is "} {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// Dedupe removes FAQs whose lower-cased question text repeats and caps the
// list at limit, preserving first-seen order.
func Dedupe(faqs []model.FAQ, limit int) []model.FAQ {
	seen := make(map[string]bool, len(faqs))
	out := make([]model.FAQ, 0, len(faqs))
	for _, f := range faqs {
		key := strings.ToLower(cleanText(f.Question))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, f)
		if len(out) >= limit {
			break
		}
	}
	return out
}
