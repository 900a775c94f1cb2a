package model

// ProductPricing holds the currency-derived price fields. It is attached to a
// Product in one step by the currency annotator, so the derived fields are
// always all present or all absent together.
type ProductPricing struct {
	OriginalPrice     float64 `json:"original_price"`
	PriceUSD          float64 `json:"price_usd"`
	FormattedPrice    string  `json:"formatted_price"`
	FormattedPriceUSD string  `json:"formatted_price_usd"`
}

// Product is a single storefront product, from either the JSON product feed
// or homepage markup.
type Product struct {
	ID             string          `json:"id,omitempty"`
	Title          string          `json:"title"`
	Handle         string          `json:"handle,omitempty"`
	Description    string          `json:"description,omitempty"`
	Price          string          `json:"price,omitempty"`
	CompareAtPrice string          `json:"compare_at_price,omitempty"`
	Currency       string          `json:"currency,omitempty"`
	CurrencySymbol string          `json:"currency_symbol,omitempty"`
	Pricing        *ProductPricing `json:"pricing,omitempty"`
	Vendor         string          `json:"vendor,omitempty"`
	ProductType    string          `json:"product_type,omitempty"`
	Tags           []string        `json:"tags,omitempty"`
	Images         []string        `json:"images,omitempty"`
	URL            string          `json:"url,omitempty"`
	Available      bool            `json:"available"`
	VariantsCount  int             `json:"variants_count,omitempty"`
}
