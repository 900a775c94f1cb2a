package model

import "time"

// FAQ is a single question/answer pair.
type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// SocialHandles holds per-platform profile URLs.
type SocialHandles struct {
	Instagram string `json:"instagram,omitempty"`
	Facebook  string `json:"facebook,omitempty"`
	TikTok    string `json:"tiktok,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	YouTube   string `json:"youtube,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty"`
	Pinterest string `json:"pinterest,omitempty"`
}

// Count returns the number of populated handles.
func (s *SocialHandles) Count() int {
	n := 0
	for _, h := range []string{s.Instagram, s.Facebook, s.TikTok, s.Twitter, s.YouTube, s.LinkedIn, s.Pinterest} {
		if h != "" {
			n++
		}
	}
	return n
}

// ContactDetails holds contact information scraped from the storefront.
type ContactDetails struct {
	Emails       []string `json:"emails,omitempty"`
	PhoneNumbers []string `json:"phone_numbers,omitempty"`
	Address      string   `json:"address,omitempty"`
}

// ImportantLinks categorizes notable storefront links.
type ImportantLinks struct {
	OrderTracking string `json:"order_tracking,omitempty"`
	ContactUs     string `json:"contact_us,omitempty"`
	Blogs         string `json:"blogs,omitempty"`
	SizeGuide     string `json:"size_guide,omitempty"`
	ShippingInfo  string `json:"shipping_info,omitempty"`
	AboutUs       string `json:"about_us,omitempty"`
	Careers       string `json:"careers,omitempty"`
}

// PolicyInfo holds discovered policy page URLs and their trimmed content.
type PolicyInfo struct {
	PrivacyPolicyURL      string `json:"privacy_policy_url,omitempty"`
	PrivacyPolicyContent  string `json:"privacy_policy_content,omitempty"`
	ReturnPolicyURL       string `json:"return_policy_url,omitempty"`
	ReturnPolicyContent   string `json:"return_policy_content,omitempty"`
	RefundPolicyURL       string `json:"refund_policy_url,omitempty"`
	RefundPolicyContent   string `json:"refund_policy_content,omitempty"`
	TermsOfServiceURL     string `json:"terms_of_service_url,omitempty"`
	TermsOfServiceContent string `json:"terms_of_service_content,omitempty"`
}

// BrandContext holds the brand identity extracted from the storefront.
type BrandContext struct {
	BrandName        string `json:"brand_name,omitempty"`
	BrandDescription string `json:"brand_description,omitempty"`
	AboutUsContent   string `json:"about_us_content,omitempty"`
	MissionStatement string `json:"mission_statement,omitempty"`
	BrandStory       string `json:"brand_story,omitempty"`
}

// AIValidation records the outcome of the model-based validation pass.
// When no validator is configured the pipeline sets the neutral marker
// (Validated=false, ConfidenceScore=0.5) rather than an error.
type AIValidation struct {
	Validated       bool     `json:"validated"`
	ConfidenceScore float64  `json:"confidence_score"`
	Notes           []string `json:"notes,omitempty"`
}

// DisabledValidation returns the neutral marker used when no AI validator
// is configured.
func DisabledValidation() AIValidation {
	return AIValidation{Validated: false, ConfidenceScore: 0.5, Notes: []string{"ai validation disabled"}}
}

// CompetitorInfo describes one discovered competing storefront.
type CompetitorInfo struct {
	URL          string   `json:"url"`
	BrandName    string   `json:"brand_name,omitempty"`
	ProductCount int      `json:"product_count"`
	PriceRange   string   `json:"price_range,omitempty"`
	SocialScore  int      `json:"social_score"`
	Strengths    []string `json:"strengths,omitempty"`
	Weaknesses   []string `json:"weaknesses,omitempty"`
}

// CompetitorAnalysis is the optional competitor-discovery output.
type CompetitorAnalysis struct {
	CompetitorsFound    int              `json:"competitors_found"`
	CompetitorInsights  []CompetitorInfo `json:"competitor_insights,omitempty"`
	CompetitiveAnalysis string           `json:"competitive_analysis,omitempty"`
	MarketPositioning   string           `json:"market_positioning,omitempty"`
}

// BrandInsights is the aggregate output of one extraction run. It is
// constructed empty with all sub-objects default-initialized, mutated in
// place as subtasks complete, and finalized exactly once.
type BrandInsights struct {
	WebsiteURL          string              `json:"website_url"`
	BrandContext        *BrandContext       `json:"brand_context"`
	ProductCatalog      []Product           `json:"product_catalog"`
	HeroProducts        []Product           `json:"hero_products"`
	Policies            *PolicyInfo         `json:"policies"`
	FAQs                []FAQ               `json:"faqs"`
	SocialHandles       *SocialHandles      `json:"social_handles"`
	ContactDetails      *ContactDetails     `json:"contact_details"`
	ImportantLinks      *ImportantLinks     `json:"important_links"`
	DetectedCurrency    string              `json:"detected_currency,omitempty"`
	CurrencySymbol      string              `json:"currency_symbol,omitempty"`
	AIValidation        AIValidation        `json:"ai_validation"`
	CompetitorAnalysis  *CompetitorAnalysis `json:"competitor_analysis,omitempty"`
	TotalProductsFound  int                 `json:"total_products_found"`
	ExtractionSuccess   bool                `json:"extraction_success"`
	Errors              []string            `json:"errors"`
	ExtractionTimestamp time.Time           `json:"extraction_timestamp"`
}

// NewBrandInsights constructs an empty record for one run. Sub-objects are
// never nil so merge code can write fields without nil checks.
func NewBrandInsights(websiteURL string) *BrandInsights {
	return &BrandInsights{
		WebsiteURL:          websiteURL,
		BrandContext:        &BrandContext{},
		ProductCatalog:      []Product{},
		HeroProducts:        []Product{},
		Policies:            &PolicyInfo{},
		FAQs:                []FAQ{},
		SocialHandles:       &SocialHandles{},
		ContactDetails:      &ContactDetails{},
		ImportantLinks:      &ImportantLinks{},
		Errors:              []string{},
		ExtractionTimestamp: time.Now().UTC(),
	}
}
