package store

import (
	"context"

	"stone-catalog-service/internal/domain"
)

// RateStorer persists the last exchange-rate table fetched from upstream.
// There is one row per base currency.
type RateStorer interface {
	GetExchangeRates(ctx context.Context, base string) (*domain.ExchangeRates, error)
	UpsertExchangeRates(ctx context.Context, rates *domain.ExchangeRates) error
}

// SpecStorer defines the database operations for the furniture specification table.
type SpecStorer interface {
	ListFurnitureSpecs(ctx context.Context) ([]domain.FurnitureSpec, error)
	UpsertFurnitureSpecs(ctx context.Context, specs []domain.FurnitureSpec) error
}
