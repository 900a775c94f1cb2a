package extract

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sells-group/insights-cli/internal/model"
)

// socialFields maps link hosts to their slot on SocialHandles. twitter.com
// and x.com share one slot.
var socialFields = map[string]func(*model.SocialHandles) *string{
	"instagram.com": func(s *model.SocialHandles) *string { return &s.Instagram },
	"facebook.com":  func(s *model.SocialHandles) *string { return &s.Facebook },
	"tiktok.com":    func(s *model.SocialHandles) *string { return &s.TikTok },
	"twitter.com":   func(s *model.SocialHandles) *string { return &s.Twitter },
	"x.com":         func(s *model.SocialHandles) *string { return &s.Twitter },
	"youtube.com":   func(s *model.SocialHandles) *string { return &s.YouTube },
	"linkedin.com":  func(s *model.SocialHandles) *string { return &s.LinkedIn },
	"pinterest.com": func(s *model.SocialHandles) *string { return &s.Pinterest },
}

// SocialExtractor collects social profile links from homepage anchors.
type SocialExtractor struct{}

// NewSocialExtractor creates a SocialExtractor.
func NewSocialExtractor() *SocialExtractor { return &SocialExtractor{} }

// SocialHandles scans every anchor for known social platforms. The first
// link per platform wins.
func (e *SocialExtractor) SocialHandles(ctx context.Context, store *model.StoreURL, html string) model.Result[*model.SocialHandles] {
	doc, err := parseDoc(html)
	if err != nil {
		return model.Failf[*model.SocialHandles]("parse homepage: %v", err)
	}

	handles := &model.SocialHandles{}
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		abs := absoluteURL(store.String(), href)
		if abs == "" {
			return
		}
		parsed, parseErr := url.Parse(abs)
		if parseErr != nil {
			return
		}
		host := strings.TrimPrefix(strings.ToLower(parsed.Host), "www.")
		for domain, slot := range socialFields {
			if host == domain || strings.HasSuffix(host, "."+domain) {
				if target := slot(handles); *target == "" {
					*target = abs
				}
				return
			}
		}
	})

	if handles.Count() == 0 {
		return model.Partial(handles, "no social links found on homepage")
	}
	return model.Ok(handles).WithMeta("platforms_found", handles.Count())
}
