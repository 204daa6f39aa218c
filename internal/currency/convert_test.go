package currency

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stone-catalog-service/internal/domain"
)

func PtrTo[T any](v T) *T {
	return &v
}

func inrRates() *domain.ExchangeRates {
	return DefaultRates(fixedNow)
}

func TestScale(t *testing.T) {
	assert.Equal(t, int32(2), Scale("USD"))
	assert.Equal(t, int32(2), Scale("INR"))
	assert.Equal(t, int32(0), Scale("JPY"))
	assert.Equal(t, int32(2), Scale("??"))
}

func TestConvert(t *testing.T) {
	usdBased := &domain.ExchangeRates{Base: "USD", Rates: map[string]float64{"USD": 1, "INR": 83, "EUR": 0.92}}
	noINR := &domain.ExchangeRates{Base: "INR", Rates: map[string]float64{"USD": 0.012}}

	testCases := []struct {
		name   string
		amount int64
		code   string
		rates  *domain.ExchangeRates
		want   string
	}{
		{"INR based to USD", 45000, "USD", inrRates(), "540"},
		{"INR to INR", 45000, "INR", inrRates(), "45000"},
		{"JPY has no minor unit", 45001, "JPY", inrRates(), "81002"},
		{"rounds to cents", 1234, "GBP", inrRates(), "11.72"},
		{"USD based table", 830, "USD", usdBased, "10"},
		{"USD based cross rate", 8300, "EUR", usdBased, "92"},
		{"implicit INR rate", 45000, "USD", noINR, "540"},
		{"zero amount", 0, "USD", inrRates(), "0"},
		{"negative amount", -10, "USD", inrRates(), "0"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Convert(decimal.NewFromInt(tc.amount), tc.code, tc.rates)
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tc.want).Equal(got), "got %s, want %s", got, tc.want)
		})
	}
}

func TestConvert_Deterministic(t *testing.T) {
	a, err := Convert(decimal.NewFromInt(99999), "SAR", inrRates())
	require.NoError(t, err)
	b, err := Convert(decimal.NewFromInt(99999), "SAR", inrRates())
	require.NoError(t, err)
	assert.True(t, a.Equal(b))
}

func TestConvert_Errors(t *testing.T) {
	amount := decimal.NewFromInt(100)

	_, err := Convert(amount, "USD", nil)
	assert.ErrorIs(t, err, ErrRateUnavailable)

	_, err = Convert(amount, "CHF", inrRates())
	assert.ErrorIs(t, err, ErrRateUnavailable)

	_, err = Convert(amount, "EUR", &domain.ExchangeRates{Base: "USD", Rates: map[string]float64{"EUR": 0.9}})
	assert.ErrorIs(t, err, ErrRateUnavailable)

	_, err = Convert(amount, "USD", &domain.ExchangeRates{Base: "INR", Rates: map[string]float64{"USD": 0}})
	assert.ErrorIs(t, err, ErrRateUnavailable)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "$540.00", Format(decimal.NewFromInt(540), "USD"))
	assert.Equal(t, "₹45,000.00", Format(decimal.NewFromInt(45000), "INR"))
	assert.Equal(t, "¥81,000", Format(decimal.NewFromInt(81000), "JPY"))
	assert.Equal(t, "£11.72", Format(decimal.RequireFromString("11.723"), "GBP"))
	assert.Equal(t, "CHF1,234.50", Format(decimal.RequireFromString("1234.5"), "CHF"))
	assert.Equal(t, "$0.00", Format(decimal.Zero, "USD"))
}

func TestFormatPrice(t *testing.T) {
	amount := decimal.NewFromInt(45000)

	assert.Equal(t, "$540.00", FormatPrice(amount, "USD", inrRates(), nil))

	t.Run("rate fetch failed", func(t *testing.T) {
		got := FormatPrice(amount, "USD", nil, errors.New("network down"))
		assert.Equal(t, "₹45,000.00", got)
	})

	t.Run("rate missing for currency", func(t *testing.T) {
		got := FormatPrice(amount, "CHF", inrRates(), nil)
		assert.Equal(t, "₹45,000.00", got)
	})
}

func TestPrice_ReportsCurrencyShown(t *testing.T) {
	amount := decimal.NewFromInt(1000)

	got, shown := Price(amount, "GBP", inrRates(), nil)
	assert.Equal(t, "GBP", shown)
	assert.True(t, decimal.RequireFromString("9.5").Equal(got))

	noUSD := inrRates()
	delete(noUSD.Rates, "USD")
	got, shown = Price(amount, "USD", noUSD, nil)
	assert.Equal(t, "INR", shown)
	assert.True(t, amount.Equal(got))
	assert.Equal(t, "₹1,000.00", Format(got, shown))

	_, shown = Price(amount, "USD", inrRates(), errors.New("timeout"))
	assert.Equal(t, "INR", shown)
}

func TestQuoteProduct(t *testing.T) {
	oslo := domain.Product{ID: "furniture-tables-coffee-table-oslo", PriceINR: PtrTo(int64(45000)), Available: true}

	q := QuoteProduct(oslo, "USD", inrRates(), nil)
	assert.True(t, q.Available)
	assert.Equal(t, "USD", q.Currency)
	require.NotNil(t, q.Amount)
	assert.True(t, decimal.NewFromInt(540).Equal(*q.Amount))
	assert.Equal(t, "$540.00", q.Formatted)

	t.Run("unavailable never shows a price", func(t *testing.T) {
		hidden := oslo
		hidden.Available = false
		q := QuoteProduct(hidden, "USD", inrRates(), nil)
		assert.False(t, q.Available)
		assert.Nil(t, q.Amount)
		assert.Equal(t, ContactLabel, q.Formatted)
	})

	t.Run("no price", func(t *testing.T) {
		q := QuoteProduct(domain.Product{Available: true}, "USD", inrRates(), nil)
		assert.False(t, q.Available)
		assert.Nil(t, q.Amount)
	})

	t.Run("degrades to INR", func(t *testing.T) {
		q := QuoteProduct(oslo, "USD", nil, errors.New("timeout"))
		assert.True(t, q.Available)
		assert.Equal(t, "INR", q.Currency)
		assert.Equal(t, "₹45,000.00", q.Formatted)
	})
}

func TestTables(t *testing.T) {
	for _, code := range Supported {
		assert.NotEqual(t, code, Symbol(code), "missing symbol for %s", code)
		_, ok := inrRates().Rates[code]
		assert.True(t, ok, "missing default rate for %s", code)
	}
	assert.Equal(t, "NZD", Symbol("NZD"))

	code, ok := ForCountry("DE")
	assert.True(t, ok)
	assert.Equal(t, "EUR", code)
	_, ok = ForCountry("XX")
	assert.False(t, ok)

	r := DefaultRates(fixedNow)
	r.Rates["USD"] = 99
	assert.Equal(t, 0.012, DefaultRates(fixedNow).Rates["USD"])
}
