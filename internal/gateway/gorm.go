package gateway

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/citymeds/citymeds-go/pkg/db"
	"github.com/citymeds/citymeds-go/pkg/errors"
)

// Gorm is the database-backed Gateway. Every failure surfaces as a
// NETWORK_ERROR so callers apply a uniform connectivity policy; the
// gateway itself never retries.
type Gorm struct {
	client *db.Client
}

// NewGorm wires the gateway to an established database client.
func NewGorm(client *db.Client) (*Gorm, error) {
	if client == nil {
		return nil, fmt.Errorf("db client is required")
	}
	return &Gorm{client: client}, nil
}

// InsertOne writes a single row and returns its id. Ids are assigned here
// when the caller did not provide one, so the local state can reference
// the record before any read-back.
func (g *Gorm) InsertOne(ctx context.Context, table string, row Row) (string, error) {
	record := row.Clone()
	id := record.String("id")
	if id == "" {
		id = uuid.NewString()
		record["id"] = id
	}

	result := g.client.DB().WithContext(ctx).Table(table).Create(map[string]any(record))
	if result.Error != nil {
		return "", errors.Wrap(errors.CodeNetwork, result.Error, fmt.Sprintf("inserting into %s", table))
	}
	return id, nil
}

// InsertMany writes the rows in one statement, assigning missing ids.
func (g *Gorm) InsertMany(ctx context.Context, table string, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}

	records := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		record := row.Clone()
		if record.String("id") == "" {
			record["id"] = uuid.NewString()
		}
		records = append(records, map[string]any(record))
	}

	result := g.client.DB().WithContext(ctx).Table(table).Create(records)
	if result.Error != nil {
		return errors.Wrap(errors.CodeNetwork, result.Error, fmt.Sprintf("inserting into %s", table))
	}
	return nil
}

// UpdateMany applies the changes to every row matching the filter.
func (g *Gorm) UpdateMany(ctx context.Context, table string, filter Filter, changes Row) error {
	if len(filter) == 0 {
		return errors.New(errors.CodeValidation, "update filter must not be empty")
	}
	if len(changes) == 0 {
		return nil
	}

	result := g.client.DB().WithContext(ctx).
		Table(table).
		Where(map[string]any(filter)).
		Updates(map[string]any(changes))
	if result.Error != nil {
		return errors.Wrap(errors.CodeNetwork, result.Error, fmt.Sprintf("updating %s", table))
	}
	return nil
}

// DeleteMany removes every row matching the filter.
func (g *Gorm) DeleteMany(ctx context.Context, table string, filter Filter) error {
	if len(filter) == 0 {
		return errors.New(errors.CodeValidation, "delete filter must not be empty")
	}

	result := g.client.DB().WithContext(ctx).
		Table(table).
		Where(map[string]any(filter)).
		Delete(nil)
	if result.Error != nil {
		return errors.Wrap(errors.CodeNetwork, result.Error, fmt.Sprintf("deleting from %s", table))
	}
	return nil
}

// SelectOne fetches the first matching row, or (nil, nil) when absent.
func (g *Gorm) SelectOne(ctx context.Context, table string, filter Filter) (Row, error) {
	var rows []map[string]any
	result := g.client.DB().WithContext(ctx).
		Table(table).
		Where(map[string]any(filter)).
		Limit(1).
		Find(&rows)
	if result.Error != nil {
		return nil, errors.Wrap(errors.CodeNetwork, result.Error, fmt.Sprintf("selecting from %s", table))
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return Row(rows[0]), nil
}

// SelectMany fetches every matching row, ordered when orderBy is set.
func (g *Gorm) SelectMany(ctx context.Context, table string, filter Filter, orderBy string) ([]Row, error) {
	query := g.client.DB().WithContext(ctx).
		Table(table).
		Where(map[string]any(filter))
	if orderBy != "" {
		query = query.Order(orderBy)
	}

	var raw []map[string]any
	if result := query.Find(&raw); result.Error != nil {
		return nil, errors.Wrap(errors.CodeNetwork, result.Error, fmt.Sprintf("selecting from %s", table))
	}

	rows := make([]Row, 0, len(raw))
	for _, record := range raw {
		rows = append(rows, Row(record))
	}
	return rows, nil
}
