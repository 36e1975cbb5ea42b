package cache

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChainFromRequest(t *testing.T) {
	cases := map[string]string{
		"/bounty/8453":                "8453",
		"/bounty/8453/12":             "8453",
		"/live/bounty/84532":          "84532",
		"/user/0xabc/wins/8453":       "8453",
		"/bounty/claims/8453/1":       "8453",
		"/graph":                      "all",
		"/":                           "all",
		"/tokens/8453?nocache=false":  "8453",
	}
	for path, want := range cases {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		assert.Equal(t, want, chainFromRequest(req), "path %s", path)
	}
}

func TestCacheKeyVariesByPath(t *testing.T) {
	a := cacheKeyForRequest(httptest.NewRequest(http.MethodGet, "/bounty/8453/1", nil))
	b := cacheKeyForRequest(httptest.NewRequest(http.MethodGet, "/bounty/8453/2", nil))
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, cacheKeyForRequest(httptest.NewRequest(http.MethodGet, "/bounty/8453/1", nil)))
}

func TestMiddlewarePassthroughWhenDisabled(t *testing.T) {
	// no redis client configured: the middleware must be a transparent no-op
	Client = nil
	called := false
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.Write([]byte(`[]`))
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bounty/8453", nil))
	assert.True(t, called)
	assert.Equal(t, "[]", rec.Body.String())
	assert.Empty(t, rec.Header().Get("x-indexer-cache"))
}
