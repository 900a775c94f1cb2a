package extract

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/sells-group/insights-cli/internal/fetcher"
	"github.com/sells-group/insights-cli/internal/model"
)

var (
	emailRe = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phoneRe = regexp.MustCompile(`\+?[0-9][0-9()\-.\s]{8,18}[0-9]`)
	digitRe = regexp.MustCompile(`\D`)
)

// placeholderDomains are template leftovers that are never real contacts.
var placeholderDomains = map[string]bool{
	"example.com":     true,
	"test.com":        true,
	"sample.com":      true,
	"placeholder.com": true,
	"yoursite.com":    true,
	"yourdomain.com":  true,
	"domain.com":      true,
	"sentry.io":       true,
	"schema.org":      true,
}

// ContactExtractor pulls emails, phone numbers, and a postal address from
// the homepage and, when linked, the contact page.
type ContactExtractor struct {
	fetch fetcher.Getter
}

// NewContactExtractor creates a ContactExtractor.
func NewContactExtractor(fetch fetcher.Getter) *ContactExtractor {
	return &ContactExtractor{fetch: fetch}
}

// ContactDetails extracts contact information.
func (e *ContactExtractor) ContactDetails(ctx context.Context, store *model.StoreURL, html string) model.Result[*model.ContactDetails] {
	doc, err := parseDoc(html)
	if err != nil {
		return model.Failf[*model.ContactDetails]("parse homepage: %v", err)
	}

	pages := []string{html}
	var warnings []string
	if contactURL := firstLink(doc, store.String(), "contact"); contactURL != "" {
		res := e.fetch.Get(ctx, contactURL, nil)
		if res.IsUsable() {
			pages = append(pages, res.Data.Text())
		} else {
			warnings = append(warnings, "contact page fetch failed: "+res.ErrorMessage)
		}
	}

	details := &model.ContactDetails{}
	emailSet := make(map[string]bool)
	phoneSet := make(map[string]bool)

	for _, page := range pages {
		for _, email := range ExtractEmails(page) {
			if !emailSet[email] {
				emailSet[email] = true
				details.Emails = append(details.Emails, email)
			}
		}
		for _, phone := range ExtractPhones(page) {
			if !phoneSet[phone] {
				phoneSet[phone] = true
				details.PhoneNumbers = append(details.PhoneNumbers, phone)
			}
		}
		if details.Address == "" {
			pageDoc, parseErr := parseDoc(page)
			if parseErr == nil {
				details.Address = truncate(cleanText(pageDoc.Find("address").First().Text()), 300)
			}
		}
	}

	sort.Strings(details.Emails)

	if len(details.Emails) == 0 && len(details.PhoneNumbers) == 0 && details.Address == "" {
		return model.Partial(details, append(warnings, "no contact details found")...)
	}
	if len(warnings) > 0 {
		return model.Partial(details, warnings...)
	}
	return model.Ok(details)
}

// ExtractEmails returns validated, lower-cased email addresses found in text.
func ExtractEmails(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, match := range emailRe.FindAllString(text, -1) {
		email := strings.ToLower(match)
		at := strings.LastIndex(email, "@")
		if at < 0 {
			continue
		}
		domain := email[at+1:]
		if placeholderDomains[domain] || looksLikeAssetName(email) {
			continue
		}
		if !seen[email] {
			seen[email] = true
			out = append(out, email)
		}
	}
	return out
}

// looksLikeAssetName filters image@2x.png style matches the regex can't
// tell from addresses.
func looksLikeAssetName(email string) bool {
	for _, ext := range []string{".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg"} {
		if strings.HasSuffix(email, ext) {
			return true
		}
	}
	return false
}

// ExtractPhones returns phone numbers with at least 10 digits, formatted
// consistently.
func ExtractPhones(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, match := range phoneRe.FindAllString(text, -1) {
		digits := digitRe.ReplaceAllString(match, "")
		if len(digits) < 10 || len(digits) > 15 {
			continue
		}
		formatted := FormatPhone(match)
		if !seen[formatted] {
			seen[formatted] = true
			out = append(out, formatted)
		}
	}
	return out
}

// FormatPhone renders a phone number in a consistent shape: USNANP numbers
// as (XXX) XXX-XXXX, everything else as +digits.
func FormatPhone(raw string) string {
	digits := digitRe.ReplaceAllString(raw, "")
	switch {
	case len(digits) == 10:
		return "(" + digits[:3] + ") " + digits[3:6] + "-" + digits[6:]
	case len(digits) == 11 && strings.HasPrefix(digits, "1"):
		return "+1 (" + digits[1:4] + ") " + digits[4:7] + "-" + digits[7:]
	default:
		return "+" + digits
	}
}
