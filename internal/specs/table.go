// Package specs holds the furniture specification side-table: curated rows
// joined to asset-derived products by normalized name.
package specs

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/go-playground/validator/v10"

	"stone-catalog-service/internal/catalog"
	"stone-catalog-service/internal/domain"
)

//go:embed furniture_specs.json
var embeddedSpecs []byte

// ErrInvalidSpec is returned for rows that fail validation.
var ErrInvalidSpec = errors.New("specs: invalid specification row")

var validate = validator.New()

// Storer is the subset of the store the table can be loaded from.
type Storer interface {
	ListFurnitureSpecs(ctx context.Context) ([]domain.FurnitureSpec, error)
}

// Table is a read-only dictionary of furniture specifications. It satisfies
// catalog.SpecLookup.
type Table struct {
	rows map[string]domain.FurnitureSpec
}

var _ catalog.SpecLookup = (*Table)(nil)

// Validate checks a single row.
func Validate(spec domain.FurnitureSpec) error {
	if err := validate.Struct(spec); err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidSpec, spec.Name, err)
	}
	return nil
}

// FromRecords builds a table from rows. Invalid rows are skipped and
// reported; on duplicate names the first row wins.
func FromRecords(records []domain.FurnitureSpec) *Table {
	t := &Table{rows: make(map[string]domain.FurnitureSpec, len(records))}
	for _, r := range records {
		if err := Validate(r); err != nil {
			log.Printf("WARN: Skipping furniture spec: %v", err)
			continue
		}
		key := catalog.Normalize(r.Name)
		if _, dup := t.rows[key]; dup {
			log.Printf("WARN: Duplicate furniture spec %q, keeping first", r.Name)
			continue
		}
		t.rows[key] = r
	}
	return t
}

// Parse decodes a JSON array of rows.
func Parse(data []byte) (*Table, error) {
	var records []domain.FurnitureSpec
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("specs: decode: %w", err)
	}
	return FromRecords(records), nil
}

// Embedded returns the table compiled into the binary.
func Embedded() (*Table, error) {
	return Parse(embeddedSpecs)
}

// LoadFile reads a table from a JSON file.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("specs: read %s: %w", path, err)
	}
	return Parse(data)
}

// LoadStore reads the table from the database.
func LoadStore(ctx context.Context, s Storer) (*Table, error) {
	records, err := s.ListFurnitureSpecs(ctx)
	if err != nil {
		return nil, fmt.Errorf("specs: load from store: %w", err)
	}
	return FromRecords(records), nil
}

// Lookup finds a row by product name, ignoring case and extra whitespace.
func (t *Table) Lookup(productName string) (domain.FurnitureSpec, bool) {
	if t == nil {
		return domain.FurnitureSpec{}, false
	}
	spec, ok := t.rows[catalog.Normalize(productName)]
	return spec, ok
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// Names returns the row names in sorted order.
func (t *Table) Names() []string {
	names := make([]string, 0, t.Len())
	if t == nil {
		return names
	}
	for _, r := range t.rows {
		names = append(names, r.Name)
	}
	sort.Strings(names)
	return names
}

// Records returns the rows ordered by name, e.g. for seeding a store.
func (t *Table) Records() []domain.FurnitureSpec {
	records := make([]domain.FurnitureSpec, 0, t.Len())
	for _, name := range t.Names() {
		records = append(records, t.rows[catalog.Normalize(name)])
	}
	return records
}
