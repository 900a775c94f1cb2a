package pipeline

// Facet identifies one slice of brand data produced by one extractor.
// Merge dispatch is switched on this type so a new facet is a new constant
// plus a new merge case, never a string lookup.
type Facet int

const (
	FacetProducts Facet = iota
	FacetHeroProducts
	FacetBrandContext
	FacetPolicies
	FacetFAQs
	FacetSocialHandles
	FacetContactDetails
	FacetImportantLinks
	FacetCurrency
)

var facetNames = map[Facet]string{
	FacetProducts:       "product_catalog",
	FacetHeroProducts:   "hero_products",
	FacetBrandContext:   "brand_context",
	FacetPolicies:       "policies",
	FacetFAQs:           "faqs",
	FacetSocialHandles:  "social_handles",
	FacetContactDetails: "contact_details",
	FacetImportantLinks: "important_links",
	FacetCurrency:       "currency",
}

func (f Facet) String() string {
	if name, ok := facetNames[f]; ok {
		return name
	}
	return "unknown"
}
