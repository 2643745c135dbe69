// Package gateway is the thin record-level surface between the local state
// layer and the remote backend. Callers speak in table names and plain
// rows; the gateway never retries and never interprets domain semantics.
package gateway

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Row is one record keyed by column name. Values come back in whatever
// representation the driver chose, so readers go through the typed
// accessors below instead of asserting concrete types.
type Row map[string]any

// Filter selects rows by column equality. All entries must match.
type Filter map[string]any

// Gateway performs record operations against the remote backend. Absence
// is not an error: SelectOne returns (nil, nil) when nothing matches.
// Implementations perform exactly one attempt per call.
type Gateway interface {
	InsertOne(ctx context.Context, table string, row Row) (string, error)
	InsertMany(ctx context.Context, table string, rows []Row) error
	UpdateMany(ctx context.Context, table string, filter Filter, changes Row) error
	DeleteMany(ctx context.Context, table string, filter Filter) error
	SelectOne(ctx context.Context, table string, filter Filter) (Row, error)
	SelectMany(ctx context.Context, table string, filter Filter, orderBy string) ([]Row, error)
}

// String returns the column as a string, tolerating []byte columns.
func (r Row) String(key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Int returns the column as an int. Drivers report integers as int64 or,
// for some backends, float64.
func (r Row) Int(key string) int {
	switch v := r[key].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	case decimal.Decimal:
		return int(v.IntPart())
	default:
		return 0
	}
}

// Bool returns the column as a bool. SQLite reports booleans as integers.
func (r Row) Bool(key string) bool {
	switch v := r[key].(type) {
	case bool:
		return v
	case int:
		return v != 0
	case int64:
		return v != 0
	default:
		return false
	}
}

// Decimal returns the column as a decimal, tolerating the numeric, string
// and float representations the drivers produce. Unparseable values come
// back as zero.
func (r Row) Decimal(key string) decimal.Decimal {
	switch v := r[key].(type) {
	case decimal.Decimal:
		return v
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero
		}
		return d
	case []byte:
		d, err := decimal.NewFromString(string(v))
		if err != nil {
			return decimal.Zero
		}
		return d
	case float64:
		return decimal.NewFromFloat(v)
	case int64:
		return decimal.NewFromInt(v)
	case int:
		return decimal.NewFromInt(int64(v))
	default:
		return decimal.Zero
	}
}

// Clone returns a shallow copy so callers can mutate freely.
func (r Row) Clone() Row {
	copied := make(Row, len(r))
	for k, v := range r {
		copied[k] = v
	}
	return copied
}
