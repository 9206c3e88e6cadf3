package persistence

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// AsTransaction runs work inside a transaction on the connector
//
// the transaction is committed if work succeeds and its result returned. If work returns an
// error (or panics) the transaction is rolled back and the work error is returned unchanged,
// joined with the rollback error should the rollback fail as well.
//
// transactions do not nest, with SQLDriver an AsTransaction inside work fails to start
func AsTransaction[T any](ctx context.Context, c *Connector, work func(ctx context.Context) (T, error)) (result T, err error) {
	if err = c.BeginTransaction(ctx); err != nil {
		return result, err
	}
	finished := false
	defer func() {
		if finished {
			return
		}
		if r := recover(); r != nil {
			if rbErr := c.Rollback(); rbErr != nil {
				c.logger.Warn("rollback after panic failed", zap.Error(rbErr))
			}
			panic(r)
		}
	}()
	var zero T
	result, err = work(ctx)
	finished = true
	if err != nil {
		if rbErr := c.Rollback(); rbErr != nil {
			return zero, errors.Join(err, rbErr)
		}
		return zero, err
	}
	if err = c.Commit(); err != nil {
		return zero, err
	}
	return result, nil
}
