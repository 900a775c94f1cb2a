package extract

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/insights-cli/internal/model"
)

func TestFAQsFromHomepageAccordion(t *testing.T) {
	store := mustStoreURL(t, "https://shop.example.com")
	html := `<html><body>
	  <details><summary>Do you ship internationally?</summary>Yes, to 40 countries.</details>
	  <details><summary>What is your return window?</summary>30 days from delivery.</details>
	</body></html>`

	fake := newFakeFetcher()
	res := NewFAQExtractor(fake, 15).FAQs(context.Background(), store, html)

	require.True(t, res.IsSuccess())
	require.Len(t, res.Data, 2)
	assert.Equal(t, "Do you ship internationally?", res.Data[0].Question)
	assert.Equal(t, "Yes, to 40 countries.", res.Data[0].Answer)
	assert.Empty(t, fake.calls, "no extra fetches when the homepage carries the FAQ")
}

func TestFAQsFromLinkedPage(t *testing.T) {
	store := mustStoreURL(t, "https://shop.example.com")
	homepage := `<html><body><a href="/pages/questions">FAQ</a></body></html>`
	faqPage := `<html><body><dl>
	  <dt>How long does shipping take?</dt><dd>3 to 5 business days.</dd>
	  <dt>Can I change my order?</dt><dd>Within 24 hours, yes.</dd>
	</dl></body></html>`

	fake := newFakeFetcher()
	fake.serve("https://shop.example.com/pages/questions", faqPage)

	res := NewFAQExtractor(fake, 15).FAQs(context.Background(), store, homepage)

	require.True(t, res.IsSuccess())
	require.Len(t, res.Data, 2)
	assert.Equal(t, "3 to 5 business days.", res.Data[0].Answer)
	assert.Equal(t, "https://shop.example.com/pages/questions", res.Metadata["source_url"])
}

func TestFAQsFallsBackToWellKnownPaths(t *testing.T) {
	store := mustStoreURL(t, "https://shop.example.com")
	homepage := `<html><body><a href="/collections/all">Shop</a></body></html>`
	faqPage := `<html><body>
	  <h3>Why is my discount code not working?</h3>
	  <p>Codes cannot be combined with sale items.</p>
	</body></html>`

	fake := newFakeFetcher()
	fake.fail("https://shop.example.com/pages/faq", model.StatusFailure, "status 404")
	fake.serve("https://shop.example.com/pages/faqs", faqPage)

	res := NewFAQExtractor(fake, 15).FAQs(context.Background(), store, homepage)

	require.True(t, res.IsSuccess())
	require.Len(t, res.Data, 1)
	assert.Equal(t, "Why is my discount code not working?", res.Data[0].Question)
}

func TestFAQsNoneFoundIsPartial(t *testing.T) {
	store := mustStoreURL(t, "https://shop.example.com")

	fake := newFakeFetcher()
	res := NewFAQExtractor(fake, 15).FAQs(context.Background(), store, "<html><body></body></html>")

	assert.Equal(t, model.StatusPartialSuccess, res.Status)
	assert.NotNil(t, res.Data)
	assert.Empty(t, res.Data)
	assert.NotEmpty(t, res.Warnings)
}

func TestDedupe(t *testing.T) {
	faqs := []model.FAQ{
		{Question: "Do you ship to Canada?", Answer: "Yes."},
		{Question: "do you ship to canada?", Answer: "Different casing, same question."},
		{Question: "  Do  you ship to Canada? ", Answer: "Whitespace variant."},
		{Question: "What is your return policy?", Answer: "30 days."},
	}

	out := Dedupe(faqs, 15)

	require.Len(t, out, 2)
	assert.Equal(t, "Yes.", out[0].Answer, "first occurrence wins")
	assert.Equal(t, "What is your return policy?", out[1].Question)
}

func TestDedupeCap(t *testing.T) {
	var faqs []model.FAQ
	for i := 0; i < 40; i++ {
		faqs = append(faqs, model.FAQ{Question: fmt.Sprintf("Question %d?", i), Answer: "A"})
	}

	out := Dedupe(faqs, 15)

	require.Len(t, out, 15)
	assert.Equal(t, "Question 0?", out[0].Question)
	assert.Equal(t, "Question 14?", out[14].Question)
}

func TestLooksLikeQuestion(t *testing.T) {
	assert.True(t, looksLikeQuestion("Do you ship internationally?"))
	assert.True(t, looksLikeQuestion("How long does shipping take"))
	assert.False(t, looksLikeQuestion("Our Story"))
	assert.False(t, looksLikeQuestion("Free shipping over $50"))
}
