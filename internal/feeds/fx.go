package feeds

import (
	"context"
	"fmt"
	"sort"
)

// FXPairs maps African currencies to their USD chart tickers.
var FXPairs = map[string]string{
	"ZAR": "USDZAR=X",
	"GHS": "USDGHS=X",
	"NGN": "USDNGN=X",
	"KES": "USDKES=X",
	"EGP": "USDEGP=X",
	"MAD": "USDMAD=X",
}

// FallbackFXRates are the documented approximations used when a pair cannot
// be fetched. Updated periodically alongside the karat pricing table.
var FallbackFXRates = map[string]float64{
	"ZAR": 18.50,
	"GHS": 15.80,
	"NGN": 1620.0,
	"KES": 129.0,
	"EGP": 50.5,
	"MAD": 10.05,
}

// CurrencySymbols for rendered karat tables.
var CurrencySymbols = map[string]string{
	"ZAR": "R", "GHS": "GH₵", "NGN": "₦", "KES": "KSh", "EGP": "E£", "MAD": "DH",
}

// FetchFXRates fetches USD rates for every tracked African currency.
// Individual pair failures substitute the documented fallback rate and emit
// a warning; the rate table itself is never absent.
func FetchFXRates(ctx context.Context, client *QuoteClient) (map[string]float64, []string) {
	rates := make(map[string]float64, len(FXPairs))
	var warnings []string

	currencies := make([]string, 0, len(FXPairs))
	for currency := range FXPairs {
		currencies = append(currencies, currency)
	}
	sort.Strings(currencies)

	for _, currency := range currencies {
		quote, err := client.Quote(ctx, FXPairs[currency])
		if err != nil {
			rates[currency] = FallbackFXRates[currency]
			warnings = append(warnings, fmt.Sprintf(
				"WARNING: FX rate missing for %s; fallback rate %.2f used in karat pricing table.",
				currency, FallbackFXRates[currency]))
			continue
		}
		rates[currency] = quote.Price
	}

	return rates, warnings
}
