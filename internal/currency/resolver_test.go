package currency

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"expenseflow/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const countriesPayload = `[
	{"name":{"common":"United States"},"currencies":{"USD":{"name":"United States dollar","symbol":"$"}}},
	{"name":{"common":"Germany"},"currencies":{"EUR":{"name":"Euro","symbol":"€"}}},
	{"name":{"common":"Eswatini"},"currencies":{"SZL":{"name":"Swazi lilangeni","symbol":"L"}}}
]`

func TestResolve(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3.1/all", r.URL.Path)
		assert.Equal(t, "name,currencies", r.URL.Query().Get("fields"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(countriesPayload))
	}))
	defer server.Close()

	resolver := NewResolver(server.URL)

	code, err := resolver.Resolve(context.Background(), "Germany")
	require.NoError(t, err)
	assert.Equal(t, "EUR", code)

	// matching is case-insensitive on the common name
	code, err = resolver.Resolve(context.Background(), "united states")
	require.NoError(t, err)
	assert.Equal(t, "USD", code)
}

func TestResolveUnknownCountry(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(countriesPayload))
	}))
	defer server.Close()

	_, err := NewResolver(server.URL).Resolve(context.Background(), "Atlantis")
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
}

func TestResolveUpstreamErrors(t *testing.T) {
	t.Run("bad status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		_, err := NewResolver(server.URL).Resolve(context.Background(), "Germany")
		assert.True(t, apperr.HasCode(err, apperr.CodeUpstream))
	})

	t.Run("malformed body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"not":"an array"`))
		}))
		defer server.Close()

		_, err := NewResolver(server.URL).Resolve(context.Background(), "Germany")
		assert.True(t, apperr.HasCode(err, apperr.CodeUpstream))
	})

	t.Run("unreachable host", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close()

		_, err := NewResolver(server.URL).Resolve(context.Background(), "Germany")
		assert.True(t, apperr.HasCode(err, apperr.CodeUpstream))
	})
}
