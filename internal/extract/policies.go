package extract

import (
	"context"
	"fmt"

	"github.com/sells-group/insights-cli/internal/fetcher"
	"github.com/sells-group/insights-cli/internal/model"
)

const policyContentLimit = 2000

// PolicyExtractor discovers policy pages from homepage links and captures
// their URL plus trimmed text content.
type PolicyExtractor struct {
	fetch fetcher.Getter
}

// NewPolicyExtractor creates a PolicyExtractor.
func NewPolicyExtractor(fetch fetcher.Getter) *PolicyExtractor {
	return &PolicyExtractor{fetch: fetch}
}

// Policies extracts privacy, return, refund, and terms-of-service pages.
// Content fetch failures downgrade to a partial result; the URLs alone are
// still useful.
func (e *PolicyExtractor) Policies(ctx context.Context, store *model.StoreURL, html string) model.Result[*model.PolicyInfo] {
	doc, err := parseDoc(html)
	if err != nil {
		return model.Failf[*model.PolicyInfo]("parse homepage: %v", err)
	}

	info := &model.PolicyInfo{
		PrivacyPolicyURL:  firstLink(doc, store.String(), "privacy"),
		ReturnPolicyURL:   firstLink(doc, store.String(), "return"),
		RefundPolicyURL:   firstLink(doc, store.String(), "refund"),
		TermsOfServiceURL: firstLink(doc, store.String(), "terms"),
	}

	if info.PrivacyPolicyURL == "" && info.ReturnPolicyURL == "" &&
		info.RefundPolicyURL == "" && info.TermsOfServiceURL == "" {
		return model.Partial(info, "no policy links found on homepage")
	}

	var warnings []string
	fill := func(pageURL string, target *string, name string) {
		if pageURL == "" {
			return
		}
		content, fetchErr := e.pageText(ctx, pageURL)
		if fetchErr != "" {
			warnings = append(warnings, fmt.Sprintf("%s content fetch failed: %s", name, fetchErr))
			return
		}
		*target = content
	}

	fill(info.PrivacyPolicyURL, &info.PrivacyPolicyContent, "privacy policy")
	fill(info.ReturnPolicyURL, &info.ReturnPolicyContent, "return policy")
	fill(info.RefundPolicyURL, &info.RefundPolicyContent, "refund policy")
	fill(info.TermsOfServiceURL, &info.TermsOfServiceContent, "terms of service")

	if len(warnings) > 0 {
		return model.Partial(info, warnings...)
	}
	return model.Ok(info)
}

func (e *PolicyExtractor) pageText(ctx context.Context, pageURL string) (content, errMsg string) {
	res := e.fetch.Get(ctx, pageURL, nil)
	if !res.IsUsable() {
		return "", res.ErrorMessage
	}
	doc, err := parseDoc(res.Data.Text())
	if err != nil {
		return "", err.Error()
	}
	doc.Find("script, style, nav, header, footer").Remove()
	return truncate(cleanText(doc.Find("main, article, body").First().Text()), policyContentLimit), ""
}
