package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/insights-cli/internal/model"
)

const policyHomepage = `<html><body><footer>
  <a href="/policies/privacy-policy">Privacy</a>
  <a href="/policies/refund-policy">Refunds</a>
  <a href="/policies/terms-of-service">Terms</a>
</footer></body></html>`

func TestPolicies(t *testing.T) {
	store := mustStoreURL(t, "https://shop.example.com")
	fake := newFakeFetcher()
	fake.serve("https://shop.example.com/policies/privacy-policy",
		`<html><body><nav>menu</nav><main>We collect only order data.</main></body></html>`)
	fake.serve("https://shop.example.com/policies/refund-policy",
		`<html><body><main>Refunds within 30 days.</main></body></html>`)
	fake.serve("https://shop.example.com/policies/terms-of-service",
		`<html><body><main>Standard terms apply.</main></body></html>`)

	res := NewPolicyExtractor(fake).Policies(context.Background(), store, policyHomepage)

	require.True(t, res.IsSuccess())
	info := res.Data
	assert.Equal(t, "https://shop.example.com/policies/privacy-policy", info.PrivacyPolicyURL)
	assert.Equal(t, "We collect only order data.", info.PrivacyPolicyContent)
	assert.Equal(t, "Refunds within 30 days.", info.RefundPolicyContent)
	assert.Equal(t, "Standard terms apply.", info.TermsOfServiceContent)
	assert.Empty(t, info.ReturnPolicyURL)
}

func TestPoliciesContentFetchFailureIsPartial(t *testing.T) {
	store := mustStoreURL(t, "https://shop.example.com")
	fake := newFakeFetcher()
	fake.fail("https://shop.example.com/policies/privacy-policy", model.StatusFailure, "status 500")
	fake.serve("https://shop.example.com/policies/refund-policy",
		`<html><body><main>Refunds within 30 days.</main></body></html>`)
	fake.serve("https://shop.example.com/policies/terms-of-service",
		`<html><body><main>Standard terms apply.</main></body></html>`)

	res := NewPolicyExtractor(fake).Policies(context.Background(), store, policyHomepage)

	assert.Equal(t, model.StatusPartialSuccess, res.Status)
	assert.Equal(t, "https://shop.example.com/policies/privacy-policy", res.Data.PrivacyPolicyURL,
		"the URL survives even when its content fetch fails")
	assert.Empty(t, res.Data.PrivacyPolicyContent)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "privacy policy")
}

func TestPoliciesNoLinks(t *testing.T) {
	store := mustStoreURL(t, "https://shop.example.com")

	res := NewPolicyExtractor(newFakeFetcher()).Policies(context.Background(), store, "<html><body></body></html>")

	assert.Equal(t, model.StatusPartialSuccess, res.Status)
	assert.NotNil(t, res.Data)
}
