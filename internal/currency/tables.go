// Package currency converts INR reference prices into a visitor's display
// currency. Rate lookups and geo detection degrade to safe defaults; nothing
// in this package makes a price display fail.
package currency

import (
	"errors"
	"time"

	"stone-catalog-service/internal/domain"
)

// Reference is the currency every catalog price is authored in.
const Reference = "INR"

// DefaultCode is shown when nothing better is known about a visitor.
const DefaultCode = Reference

var (
	ErrUnsupportedCurrency = errors.New("currency: unsupported currency")
	ErrRateUnavailable     = errors.New("currency: exchange rate unavailable")
	ErrMissingAPIKey       = errors.New("currency: exchange rate API key not configured")
	ErrDetectionFailed     = errors.New("currency: location detection failed")
)

// Supported lists the currencies a visitor can pick, in display order.
var Supported = []string{"USD", "INR", "EUR", "GBP", "AED", "SAR", "AUD", "CAD", "SGD", "JPY"}

var symbols = map[string]string{
	"USD": "$",
	"INR": "₹",
	"EUR": "€",
	"GBP": "£",
	"AED": "د.إ",
	"SAR": "﷼",
	"AUD": "A$",
	"CAD": "C$",
	"SGD": "S$",
	"JPY": "¥",
}

// 1 INR = X
var defaultRates = map[string]float64{
	"USD": 0.012,
	"INR": 1,
	"EUR": 0.011,
	"GBP": 0.0095,
	"AED": 0.044,
	"SAR": 0.045,
	"AUD": 0.018,
	"CAD": 0.016,
	"SGD": 0.016,
	"JPY": 1.8,
}

var countryToCurrency = map[string]string{
	"US": "USD", "CA": "CAD", "GB": "GBP", "AU": "AUD", "NZ": "NZD",
	"IN": "INR", "PK": "PKR", "BD": "BDT", "LK": "LKR", "NP": "NPR",
	"AE": "AED", "SA": "SAR", "QA": "QAR", "KW": "KWD", "OM": "OMR", "BH": "BHD",
	"SG": "SGD", "MY": "MYR", "TH": "THB", "ID": "IDR", "PH": "PHP", "VN": "VND",
	"JP": "JPY", "KR": "KRW", "CN": "CNY", "HK": "HKD", "TW": "TWD",
	"DE": "EUR", "FR": "EUR", "IT": "EUR", "ES": "EUR", "NL": "EUR", "BE": "EUR",
	"AT": "EUR", "PT": "EUR", "IE": "EUR", "GR": "EUR", "FI": "EUR",
	"CH": "CHF", "NO": "NOK", "SE": "SEK", "DK": "DKK", "PL": "PLN",
	"BR": "BRL", "MX": "MXN", "AR": "ARS", "CL": "CLP", "CO": "COP",
	"ZA": "ZAR", "EG": "EGP", "NG": "NGN", "KE": "KES", "MA": "MAD",
	"TR": "TRY", "IL": "ILS", "RU": "RUB", "UA": "UAH",
}

// IsSupported reports whether code can be selected for display.
func IsSupported(code string) bool {
	for _, c := range Supported {
		if c == code {
			return true
		}
	}
	return false
}

// Symbol returns the display symbol for code, or the code itself when no
// symbol is known.
func Symbol(code string) string {
	if s, ok := symbols[code]; ok {
		return s
	}
	return code
}

// ForCountry maps an ISO 3166 country code to its currency.
func ForCountry(country string) (string, bool) {
	code, ok := countryToCurrency[country]
	return code, ok
}

// DefaultRates returns the hardcoded INR-based table used when neither the
// cache nor the API can provide one.
func DefaultRates(now time.Time) *domain.ExchangeRates {
	rates := make(map[string]float64, len(defaultRates))
	for k, v := range defaultRates {
		rates[k] = v
	}
	return &domain.ExchangeRates{
		Base:        Reference,
		Rates:       rates,
		LastUpdated: now,
		Source:      domain.RateSourceHardcoded,
	}
}
