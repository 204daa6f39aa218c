package currency

import (
	"fmt"
	"log"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"stone-catalog-service/internal/domain"
)

// ContactLabel replaces the price of products that can't be sold online.
const ContactLabel = "Contact for availability"

var printer = message.NewPrinter(language.English)

// Scale returns the number of minor-unit digits for code: 2 for most
// currencies, 0 for those without subdivisions such as JPY.
func Scale(code string) int32 {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return 2
	}
	scale, _ := currency.Standard.Rounding(unit)
	return int32(scale)
}

// Convert turns an INR amount into code using rates. The table may be based
// on INR or on any other currency, as long as it carries an INR rate.
// Non-positive amounts convert to zero.
func Convert(amountINR decimal.Decimal, code string, rates *domain.ExchangeRates) (decimal.Decimal, error) {
	if !amountINR.IsPositive() {
		return decimal.Zero, nil
	}
	if rates == nil {
		return decimal.Zero, ErrRateUnavailable
	}
	target, ok := rates.Rates[code]
	if !ok || target <= 0 {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrRateUnavailable, code)
	}
	ref, ok := rates.Rates[Reference]
	if !ok && rates.Base == Reference {
		ref = 1
	}
	if ref <= 0 {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrRateUnavailable, Reference)
	}

	converted := amountINR.
		Mul(decimal.NewFromFloat(target)).
		Div(decimal.NewFromFloat(ref))
	return converted.Round(Scale(code)), nil
}

// Format renders amount with the symbol for code and English digit grouping.
func Format(amount decimal.Decimal, code string) string {
	scale := int(Scale(code))
	f, _ := amount.Round(int32(scale)).Float64()
	digits := printer.Sprint(number.Decimal(f,
		number.MinFractionDigits(scale),
		number.MaxFractionDigits(scale),
	))
	return Symbol(code) + digits
}

// Price converts an INR amount for display. It returns the amount together
// with the currency it is in: code, or INR when a failed fetch (ratesErr) or
// a missing rate forced a fallback.
func Price(amountINR decimal.Decimal, code string, rates *domain.ExchangeRates, ratesErr error) (decimal.Decimal, string) {
	if ratesErr == nil {
		converted, err := Convert(amountINR, code, rates)
		if err == nil {
			return converted, code
		}
		log.Printf("WARN: Showing INR price, conversion to %s failed: %v", code, err)
	}
	return amountINR.Round(Scale(Reference)), Reference
}

// FormatPrice converts and formats an INR amount, degrading to INR on any
// rate problem.
func FormatPrice(amountINR decimal.Decimal, code string, rates *domain.ExchangeRates, ratesErr error) string {
	amount, shown := Price(amountINR, code, rates, ratesErr)
	return Format(amount, shown)
}

// Quote is a product price prepared for display.
type Quote struct {
	Currency  string           `json:"currency"`
	Amount    *decimal.Decimal `json:"amount,omitempty"`
	Formatted string           `json:"formatted"`
	Available bool             `json:"available"`
}

// QuoteProduct prices p in code. Unavailable products never carry an amount,
// whatever their PriceINR says. Currency reports the currency actually
// shown, which is INR whenever conversion had to degrade.
func QuoteProduct(p domain.Product, code string, rates *domain.ExchangeRates, ratesErr error) Quote {
	if !p.Available || p.PriceINR == nil {
		return Quote{Currency: code, Formatted: ContactLabel}
	}

	amount, shown := Price(decimal.NewFromInt(*p.PriceINR), code, rates, ratesErr)
	return Quote{Currency: shown, Amount: &amount, Formatted: Format(amount, shown), Available: true}
}
