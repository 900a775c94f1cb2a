package extract

import (
	"context"

	"github.com/sells-group/insights-cli/internal/model"
)

// LinkExtractor categorizes notable storefront links from the homepage.
type LinkExtractor struct{}

// NewLinkExtractor creates a LinkExtractor.
func NewLinkExtractor() *LinkExtractor { return &LinkExtractor{} }

// ImportantLinks finds order tracking, contact, blog, size guide, shipping,
// about, and careers links. Missing categories stay empty.
func (e *LinkExtractor) ImportantLinks(ctx context.Context, store *model.StoreURL, html string) model.Result[*model.ImportantLinks] {
	doc, err := parseDoc(html)
	if err != nil {
		return model.Failf[*model.ImportantLinks]("parse homepage: %v", err)
	}

	base := store.String()
	links := &model.ImportantLinks{
		OrderTracking: firstLink(doc, base, "track"),
		ContactUs:     firstLink(doc, base, "contact"),
		Blogs:         firstLink(doc, base, "blog"),
		SizeGuide:     firstLink(doc, base, "size-guide", "size guide", "sizing"),
		ShippingInfo:  firstLink(doc, base, "shipping"),
		AboutUs:       firstLink(doc, base, "about"),
		Careers:       firstLink(doc, base, "career", "jobs"),
	}

	if *links == (model.ImportantLinks{}) {
		return model.Partial(links, "no notable links found on homepage")
	}
	return model.Ok(links)
}
