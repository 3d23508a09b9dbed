// Package currency resolves a country name to its currency code via the
// restcountries.com API.
package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"expenseflow/pkg/apperr"
)

const DefaultBaseURL = "https://restcountries.com"

// Resolver maps a country name to an ISO currency code.
type Resolver interface {
	Resolve(ctx context.Context, country string) (string, error)
}

type restResolver struct {
	baseURL string
	client  *http.Client
}

// NewResolver returns a Resolver backed by the restcountries API. baseURL
// is overridable for tests.
func NewResolver(baseURL string) Resolver {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &restResolver{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type countryEntry struct {
	Name struct {
		Common string `json:"common"`
	} `json:"name"`
	Currencies map[string]json.RawMessage `json:"currencies"`
}

// Resolve matches the country by common name, case-insensitively, and
// returns its first currency code. A lookup failure blocks the caller with
// an upstream error; an unknown country is a validation error, never a
// silent default.
func (r *restResolver) Resolve(ctx context.Context, country string) (string, error) {
	url := r.baseURL + "/v3.1/all?fields=name,currencies"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", apperr.Upstream("building currency lookup request", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", apperr.Upstream("currency lookup failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apperr.Upstream(fmt.Sprintf("currency lookup returned status %d", resp.StatusCode), nil)
	}

	var countries []countryEntry
	if err := json.NewDecoder(resp.Body).Decode(&countries); err != nil {
		return "", apperr.Upstream("decoding currency lookup response", err)
	}

	for _, c := range countries {
		if strings.EqualFold(c.Name.Common, country) {
			for code := range c.Currencies {
				return code, nil
			}
			break
		}
	}

	return "", apperr.Validation(fmt.Sprintf("could not find currency for country: %s", country))
}
