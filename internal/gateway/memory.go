package gateway

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/citymeds/citymeds-go/pkg/errors"
)

// Memory is an in-process Gateway. It backs guest/offline sessions and
// tests, honoring the same contract as the database-backed gateway.
type Memory struct {
	mu     sync.Mutex
	tables map[string][]Row
}

// NewMemory returns an empty in-memory gateway.
func NewMemory() *Memory {
	return &Memory{tables: map[string][]Row{}}
}

func (m *Memory) InsertOne(_ context.Context, table string, row Row) (string, error) {
	record := row.Clone()
	id := record.String("id")
	if id == "" {
		id = uuid.NewString()
		record["id"] = id
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[table] = append(m.tables[table], record)
	return id, nil
}

func (m *Memory) InsertMany(_ context.Context, table string, rows []Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range rows {
		record := row.Clone()
		if record.String("id") == "" {
			record["id"] = uuid.NewString()
		}
		m.tables[table] = append(m.tables[table], record)
	}
	return nil
}

func (m *Memory) UpdateMany(_ context.Context, table string, filter Filter, changes Row) error {
	if len(filter) == 0 {
		return errors.New(errors.CodeValidation, "update filter must not be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.tables[table] {
		if matches(row, filter) {
			for k, v := range changes {
				row[k] = v
			}
		}
	}
	return nil
}

func (m *Memory) DeleteMany(_ context.Context, table string, filter Filter) error {
	if len(filter) == 0 {
		return errors.New(errors.CodeValidation, "delete filter must not be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.tables[table][:0]
	for _, row := range m.tables[table] {
		if !matches(row, filter) {
			kept = append(kept, row)
		}
	}
	m.tables[table] = kept
	return nil
}

func (m *Memory) SelectOne(_ context.Context, table string, filter Filter) (Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.tables[table] {
		if matches(row, filter) {
			return row.Clone(), nil
		}
	}
	return nil, nil
}

func (m *Memory) SelectMany(_ context.Context, table string, filter Filter, orderBy string) ([]Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var rows []Row
	for _, row := range m.tables[table] {
		if matches(row, filter) {
			rows = append(rows, row.Clone())
		}
	}

	if orderBy != "" {
		column, descending := parseOrder(orderBy)
		sort.SliceStable(rows, func(i, j int) bool {
			if descending {
				return lessValue(rows[j][column], rows[i][column])
			}
			return lessValue(rows[i][column], rows[j][column])
		})
	}
	return rows, nil
}

func matches(row Row, filter Filter) bool {
	for column, want := range filter {
		if !equalValues(row[column], want) {
			return false
		}
	}
	return true
}

func parseOrder(orderBy string) (column string, descending bool) {
	fields := strings.Fields(orderBy)
	if len(fields) == 0 {
		return "", false
	}
	column = fields[0]
	descending = len(fields) > 1 && strings.EqualFold(fields[1], "desc")
	return column, descending
}

func equalValues(a, b any) bool {
	if da, ok := toDecimal(a); ok {
		if db, ok := toDecimal(b); ok {
			return da.Equal(db)
		}
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func lessValue(a, b any) bool {
	if da, ok := toDecimal(a); ok {
		if db, ok := toDecimal(b); ok {
			return da.LessThan(db)
		}
	}
	return fmt.Sprint(a) < fmt.Sprint(b)
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch t := v.(type) {
	case decimal.Decimal:
		return t, true
	case int:
		return decimal.NewFromInt(int64(t)), true
	case int32:
		return decimal.NewFromInt(int64(t)), true
	case int64:
		return decimal.NewFromInt(t), true
	case float64:
		return decimal.NewFromFloat(t), true
	default:
		return decimal.Decimal{}, false
	}
}
