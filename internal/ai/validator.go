// Package ai runs model-based validation over extracted brand data. The
// validator is a corrective overlay: structural extraction is the default
// and the model only replaces a facet when it finds the extracted value
// wrong or incomplete. Every entry point degrades to the original value on
// failure; nothing here returns an error to the pipeline.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/insights-cli/internal/model"
	"github.com/sells-group/insights-cli/internal/resilience"
	"github.com/sells-group/insights-cli/pkg/anthropic"
)

const (
	defaultModel     = "claude-haiku-4-5-20251001"
	defaultMaxTokens = 2048
	htmlSnippetLimit = 8000
	requestTimeout   = 45 * time.Second
)

const systemPrompt = `You are a data-quality reviewer for e-commerce brand data
extracted from Shopify storefronts. You receive the extracted value for one
facet plus a snippet of the storefront homepage HTML. Respond with JSON only,
no prose outside the JSON object.`

// Validator wraps an Anthropic client with a circuit breaker. A nil
// Validator is valid and reports Enabled() == false.
type Validator struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	breaker   *resilience.Breaker
}

// Option configures a Validator.
type Option func(*Validator)

// WithModel overrides the default model.
func WithModel(m string) Option {
	return func(v *Validator) {
		if m != "" {
			v.model = m
		}
	}
}

// WithMaxTokens overrides the response token cap.
func WithMaxTokens(n int64) Option {
	return func(v *Validator) {
		if n > 0 {
			v.maxTokens = n
		}
	}
}

// NewValidator creates a Validator. Returns nil when client is nil, which
// downstream code treats as "validation disabled".
func NewValidator(client anthropic.Client, opts ...Option) *Validator {
	if client == nil {
		return nil
	}
	v := &Validator{
		client:    client,
		model:     defaultModel,
		maxTokens: defaultMaxTokens,
		breaker:   resilience.NewBreaker(resilience.BreakerConfig{}),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Enabled reports whether model-based validation is available.
func (v *Validator) Enabled() bool {
	return v != nil && v.client != nil
}

// comprehensiveResponse is the JSON shape the model is asked to produce for
// the whole-record pass.
type comprehensiveResponse struct {
	Validated       bool     `json:"validated"`
	ConfidenceScore float64  `json:"confidence_score"`
	Notes           []string `json:"notes"`
}

// Comprehensive scores the overall quality of an aggregated record. It never
// fails: any transport or parse problem yields the neutral disabled marker
// with an explanatory note.
func (v *Validator) Comprehensive(ctx context.Context, url string, ins *model.BrandInsights) model.AIValidation {
	if !v.Enabled() {
		return model.DisabledValidation()
	}

	summary, err := json.Marshal(summarizeRecord(ins))
	if err != nil {
		return degraded("summarize record: " + err.Error())
	}

	prompt := fmt.Sprintf(`Assess the extracted brand data below for %s.
Reply with JSON: {"validated": bool, "confidence_score": number 0..1, "notes": [string]}.
"validated" means the data is plausible and internally consistent.
"confidence_score" is your overall confidence in extraction quality.
List concrete problems in "notes".

Extracted data:
%s`, url, summary)

	text, err := v.complete(ctx, prompt)
	if err != nil {
		zap.L().Warn("ai: comprehensive validation failed",
			zap.String("url", url),
			zap.Error(err),
		)
		return degraded("validation call failed: " + err.Error())
	}

	var resp comprehensiveResponse
	if err := json.Unmarshal(extractJSON(text), &resp); err != nil {
		return degraded("unparseable validation response")
	}

	return model.AIValidation{
		Validated:       resp.Validated,
		ConfidenceScore: clamp01(resp.ConfidenceScore),
		Notes:           resp.Notes,
	}
}

// ValidateBrandContext returns a corrected brand context, or the original
// when the model finds nothing to fix or the call fails.
func (v *Validator) ValidateBrandContext(ctx context.Context, url string, current *model.BrandContext, html string) *model.BrandContext {
	return validateFacet(ctx, v, "brand_context", url, current, html)
}

// ValidateSocialHandles corrects social profile links against the homepage.
func (v *Validator) ValidateSocialHandles(ctx context.Context, url string, current *model.SocialHandles, html string) *model.SocialHandles {
	return validateFacet(ctx, v, "social_handles", url, current, html)
}

// ValidateContactDetails corrects emails, phone numbers, and address.
func (v *Validator) ValidateContactDetails(ctx context.Context, url string, current *model.ContactDetails, html string) *model.ContactDetails {
	return validateFacet(ctx, v, "contact_details", url, current, html)
}

// ValidateFAQs corrects the question/answer list.
func (v *Validator) ValidateFAQs(ctx context.Context, url string, current []model.FAQ, html string) []model.FAQ {
	return validateFacet(ctx, v, "faqs", url, current, html)
}

// ValidatePolicies corrects discovered policy URLs.
func (v *Validator) ValidatePolicies(ctx context.Context, url string, current *model.PolicyInfo, html string) *model.PolicyInfo {
	return validateFacet(ctx, v, "policies", url, current, html)
}

// facetResponse is the JSON shape the model is asked to produce for one
// facet. corrected is only read when needs_correction is true.
type facetResponse struct {
	NeedsCorrection bool            `json:"needs_correction"`
	Corrected       json.RawMessage `json:"corrected"`
}

func validateFacet[T any](ctx context.Context, v *Validator, facet, url string, current T, html string) T {
	if !v.Enabled() {
		return current
	}

	currentJSON, err := json.Marshal(current)
	if err != nil {
		return current
	}

	prompt := fmt.Sprintf(`Review the extracted "%s" facet for %s against the homepage HTML.
Reply with JSON: {"needs_correction": bool, "corrected": <same shape as the extracted value>}.
Set "needs_correction" to true only when the extracted value is wrong or clearly
incomplete given the HTML. Keep the exact field names of the extracted value.

Extracted value:
%s

Homepage HTML (truncated):
%s`, facet, url, currentJSON, truncateSnippet(html))

	text, err := v.complete(ctx, prompt)
	if err != nil {
		zap.L().Warn("ai: facet validation failed",
			zap.String("facet", facet),
			zap.String("url", url),
			zap.Error(err),
		)
		return current
	}

	var resp facetResponse
	if err := json.Unmarshal(extractJSON(text), &resp); err != nil {
		return current
	}
	if !resp.NeedsCorrection || len(resp.Corrected) == 0 {
		return current
	}

	var corrected T
	if err := json.Unmarshal(resp.Corrected, &corrected); err != nil {
		zap.L().Warn("ai: corrected facet is unparseable",
			zap.String("facet", facet),
			zap.String("url", url),
		)
		return current
	}

	zap.L().Info("ai: facet corrected",
		zap.String("facet", facet),
		zap.String("url", url),
	)
	return corrected
}

// complete sends one message through the breaker and returns the text body.
func (v *Validator) complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := resilience.ExecuteVal(ctx, v.breaker, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return v.client.CreateMessage(ctx, anthropic.MessageRequest{
			Model:     v.model,
			MaxTokens: v.maxTokens,
			System:    anthropic.BuildCachedSystemBlocks(systemPrompt),
			Messages:  []anthropic.Message{{Role: "user", Content: prompt}},
		})
	})
	if err != nil {
		return "", err
	}
	resp.Usage.LogCost(v.model, "validation")
	return resp.Text(), nil
}

// summarizeRecord trims the record down to what the model needs to judge
// quality, keeping the request small.
func summarizeRecord(ins *model.BrandInsights) map[string]any {
	products := len(ins.ProductCatalog)
	sample := ins.ProductCatalog
	if len(sample) > 10 {
		sample = sample[:10]
	}
	return map[string]any{
		"website_url":       ins.WebsiteURL,
		"brand_context":     ins.BrandContext,
		"product_count":     products,
		"product_sample":    sample,
		"hero_products":     ins.HeroProducts,
		"policies":          ins.Policies,
		"faqs":              ins.FAQs,
		"social_handles":    ins.SocialHandles,
		"contact_details":   ins.ContactDetails,
		"important_links":   ins.ImportantLinks,
		"detected_currency": ins.DetectedCurrency,
	}
}

func degraded(note string) model.AIValidation {
	return model.AIValidation{Validated: false, ConfidenceScore: 0.5, Notes: []string{note}}
}

// extractJSON pulls the outermost JSON object out of a model reply, which
// may carry code fences or prose around it.
func extractJSON(text string) []byte {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return []byte(text)
	}
	return []byte(text[start : end+1])
}

func truncateSnippet(html string) string {
	if len(html) <= htmlSnippetLimit {
		return html
	}
	return html[:htmlSnippetLimit]
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}
