package persistence

import (
	"context"
	"fmt"
)

// RowMapper maps a fetched Row into an entity of type T
type RowMapper[T any] interface {
	MapFromRow(row Row) (T, error)
}

// RowMapperFunc is an adapter to allow the use of ordinary functions as a RowMapper
type RowMapperFunc[T any] func(row Row) (T, error)

func (f RowMapperFunc[T]) MapFromRow(row Row) (T, error) {
	return f(row)
}

// QueryAs is the same as Connector.Query, except that each row is mapped using the supplied mapper
//
// the mapper is never invoked if there are no rows
func QueryAs[T any](ctx context.Context, c *Connector, mapper RowMapper[T], statement string, args ...any) ([]T, error) {
	rows, err := c.Query(ctx, statement, args...)
	if err != nil {
		return nil, err
	}
	result := make([]T, 0, len(rows))
	for i, row := range rows {
		item, err := mapper.MapFromRow(row)
		if err != nil {
			return nil, fmt.Errorf("mapping row %d: %w", i, err)
		}
		result = append(result, item)
	}
	return result, nil
}

// QueryFirstAs is the same as Connector.QueryFirst, except that the row is mapped using the supplied mapper
//
// if there are no rows, returns nil
func QueryFirstAs[T any](ctx context.Context, c *Connector, mapper RowMapper[T], statement string, args ...any) (*T, error) {
	row, err := c.QueryFirst(ctx, statement, args...)
	if err != nil || row == nil {
		return nil, err
	}
	item, err := mapper.MapFromRow(row)
	if err != nil {
		return nil, fmt.Errorf("mapping row 0: %w", err)
	}
	return &item, nil
}
