package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/lib/pq"

	"stone-catalog-service/internal/domain"
)

// Predefined errors for store operations
var (
	ErrRatesNotFound = errors.New("store: exchange rates not found")
	ErrSpecRejected  = errors.New("store: furniture spec violates a table constraint")
)

// Schema creates the tables the store reads and writes.
const Schema = `
	CREATE SCHEMA IF NOT EXISTS catalog;
	CREATE TABLE IF NOT EXISTS catalog.exchange_rates (
		base TEXT PRIMARY KEY,
		rates JSONB NOT NULL,
		source TEXT NOT NULL,
		last_updated TIMESTAMP WITH TIME ZONE NOT NULL
	);
	CREATE TABLE IF NOT EXISTS catalog.furniture_specs (
		name TEXT PRIMARY KEY,
		product_type TEXT NOT NULL,
		price_inr BIGINT CHECK (price_inr > 0),
		dimensions TEXT NOT NULL DEFAULT '',
		material TEXT NOT NULL DEFAULT '',
		finish TEXT NOT NULL DEFAULT '',
		etsy_url TEXT NOT NULL DEFAULT '',
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT now()
	);`

// PostgresStore implements the RateStorer and SpecStorer interfaces using PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgresStore instance.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates missing tables.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("store: EnsureSchema failed: %w", err)
	}
	return nil
}

// Ping reports whether the database is reachable.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// --- RateStorer Implementation ---

func (s *PostgresStore) GetExchangeRates(ctx context.Context, base string) (*domain.ExchangeRates, error) {
	query := `
		SELECT base, rates, source, last_updated
		FROM catalog.exchange_rates
		WHERE base = $1;
	`
	var (
		rates    domain.ExchangeRates
		rawRates []byte
	)
	err := s.db.QueryRowContext(ctx, query, base).Scan(&rates.Base, &rawRates, &rates.Source, &rates.LastUpdated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRatesNotFound
		}
		return nil, fmt.Errorf("store: GetExchangeRates failed to scan row: %w", err)
	}
	if err := json.Unmarshal(rawRates, &rates.Rates); err != nil {
		return nil, fmt.Errorf("store: GetExchangeRates failed to decode rates: %w", err)
	}
	return &rates, nil
}

func (s *PostgresStore) UpsertExchangeRates(ctx context.Context, rates *domain.ExchangeRates) error {
	query := `
		INSERT INTO catalog.exchange_rates (base, rates, source, last_updated)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (base) DO UPDATE
		SET rates = EXCLUDED.rates, source = EXCLUDED.source, last_updated = EXCLUDED.last_updated;
	`
	rawRates, err := json.Marshal(rates.Rates)
	if err != nil {
		return fmt.Errorf("store: UpsertExchangeRates failed to encode rates: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, rates.Base, rawRates, rates.Source, rates.LastUpdated); err != nil {
		return fmt.Errorf("store: UpsertExchangeRates failed to execute upsert: %w", err)
	}
	return nil
}

// --- SpecStorer Implementation ---

func (s *PostgresStore) ListFurnitureSpecs(ctx context.Context) ([]domain.FurnitureSpec, error) {
	query := `
		SELECT name, product_type, price_inr, dimensions, material, finish, etsy_url
		FROM catalog.furniture_specs
		ORDER BY name ASC;
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("store: ListFurnitureSpecs failed to query specs: %w", err)
	}
	defer rows.Close()

	specs := []domain.FurnitureSpec{}
	for rows.Next() {
		var (
			spec  domain.FurnitureSpec
			price sql.NullInt64
		)
		if err := rows.Scan(&spec.Name, &spec.ProductType, &price, &spec.Dimensions, &spec.Material, &spec.Finish, &spec.EtsyURL); err != nil {
			return nil, fmt.Errorf("store: ListFurnitureSpecs failed to scan spec row: %w", err)
		}
		if price.Valid {
			spec.PriceINR = &price.Int64
		}
		specs = append(specs, spec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: ListFurnitureSpecs iteration error: %w", err)
	}
	return specs, nil
}

// UpsertFurnitureSpecs writes all rows in one transaction; either every row
// lands or none does.
func (s *PostgresStore) UpsertFurnitureSpecs(ctx context.Context, specs []domain.FurnitureSpec) error {
	query := `
		INSERT INTO catalog.furniture_specs (name, product_type, price_inr, dimensions, material, finish, etsy_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (name) DO UPDATE
		SET product_type = EXCLUDED.product_type, price_inr = EXCLUDED.price_inr,
			dimensions = EXCLUDED.dimensions, material = EXCLUDED.material,
			finish = EXCLUDED.finish, etsy_url = EXCLUDED.etsy_url, updated_at = CURRENT_TIMESTAMP;
	`
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: UpsertFurnitureSpecs failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, spec := range specs {
		_, err := tx.ExecContext(ctx, query,
			spec.Name, spec.ProductType, spec.PriceINR, spec.Dimensions, spec.Material, spec.Finish, spec.EtsyURL)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && (pqErr.Code == "23514" || pqErr.Code == "23502") { // check or not-null violation
				return fmt.Errorf("%w: %q", ErrSpecRejected, spec.Name)
			}
			return fmt.Errorf("store: UpsertFurnitureSpecs failed to upsert %q: %w", spec.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: UpsertFurnitureSpecs failed to commit: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	if s.db != nil {
		log.Println("INFO: Closing database connection pool...")
		err := s.db.Close()
		if err != nil {
			log.Printf("ERROR: Failed to close database connection pool: %v", err)
			return err
		}
		log.Println("INFO: Database connection pool closed successfully.")
		return nil
	}
	return nil
}
