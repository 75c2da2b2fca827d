package actions

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/jrsteele09/did-storefront/redreport"
)

// Catalogue reads are public and memoized for the catalogue TTL.

func (a *Actions) ListCountries(ctx context.Context) json.RawMessage {
	payload, err := a.client.Memoized(ctx, redreport.PathCountries, a.catalogueTTL)
	if err != nil {
		logFailure(err, "list_countries")
		return nil
	}
	return payload
}

// SearchAvailableNumbers lists purchasable numbers by ISO country code and number type
// (local, mobile, tollfree).
func (a *Actions) SearchAvailableNumbers(ctx context.Context, country, numberType string) json.RawMessage {
	if country == "" {
		return nil
	}
	path := redreport.WithQuery(redreport.PathAvailable, url.Values{
		"country": {strings.ToUpper(country)},
		"type":    {strings.ToLower(numberType)},
	})
	payload, err := a.client.Memoized(ctx, path, a.catalogueTTL)
	if err != nil {
		logFailure(err, "search_numbers")
		return nil
	}
	return payload
}
