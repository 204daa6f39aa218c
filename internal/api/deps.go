package api

import (
	"context"

	"stone-catalog-service/internal/catalog"
	"stone-catalog-service/internal/currency"
	"stone-catalog-service/internal/domain"
)

// CatalogReader is the read side of the catalog used by the handlers.
type CatalogReader interface {
	Categories() []domain.Category
	CategoryByID(id string) (domain.Category, error)
	ProductByID(id string) (domain.Product, error)
	FindProducts(f catalog.ProductFilter) ([]domain.Product, int)
}

// RateProvider returns the current exchange-rate table. It never fails.
type RateProvider interface {
	Rates(ctx context.Context) *domain.ExchangeRates
}

// CurrencyResolver owns the per-visitor display currency.
type CurrencyResolver interface {
	Resolve(ctx context.Context, visitorID, clientIP string) currency.State
	Select(ctx context.Context, visitorID, code string) (currency.State, error)
	ResetAutoDetect(ctx context.Context, visitorID, clientIP string) (currency.State, error)
}

// ImageLoader resolves slab image paths to URLs.
type ImageLoader interface {
	Resolve(path string) string
	Load(ctx context.Context, paths []string) (string, <-chan []string)
}

// ProductView is a product together with its price in the visitor's currency.
type ProductView struct {
	domain.Product
	Quote currency.Quote `json:"quote"`
}

func newProductView(p domain.Product, code string, rates *domain.ExchangeRates) ProductView {
	return ProductView{Product: p, Quote: currency.QuoteProduct(p, code, rates, nil)}
}
