package extract

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/insights-cli/internal/fetcher"
	"github.com/sells-group/insights-cli/internal/model"
)

// fakeFetcher serves canned responses keyed by full request URL (including
// encoded query).
type fakeFetcher struct {
	responses map[string]model.Result[*fetcher.Response]
	calls     []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{responses: make(map[string]model.Result[*fetcher.Response])}
}

func (f *fakeFetcher) serve(fullURL, body string) {
	f.responses[fullURL] = model.Ok(&fetcher.Response{
		StatusCode: http.StatusOK,
		Body:       []byte(body),
		FinalURL:   fullURL,
	})
}

func (f *fakeFetcher) fail(fullURL string, status model.Status, msg string) {
	f.responses[fullURL] = model.Fail[*fetcher.Response](status, msg)
}

func (f *fakeFetcher) Get(ctx context.Context, rawURL string, query url.Values) model.Result[*fetcher.Response] {
	key := rawURL
	if len(query) > 0 {
		key = rawURL + "?" + query.Encode()
	}
	f.calls = append(f.calls, key)
	if res, ok := f.responses[key]; ok {
		return res
	}
	return model.Fail[*fetcher.Response](model.StatusFailure, "no responder for "+key)
}

func mustStoreURL(t *testing.T, raw string) *model.StoreURL {
	t.Helper()
	u, err := model.ParseStoreURL(raw)
	require.NoError(t, err)
	return u
}
