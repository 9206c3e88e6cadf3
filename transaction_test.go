package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsTransaction(t *testing.T) {
	d := newFakeDriver()
	c := newTestConnector(t, d)
	d.handle.lastID = "7"
	id, err := AsTransaction(ctx, c, func(ctx context.Context) (string, error) {
		if err := c.Execute(ctx, "INSERT INTO users (name) VALUES (?)", "alice"); err != nil {
			return "", err
		}
		return c.LastInsertID()
	})
	require.NoError(t, err)
	assert.Equal(t, "7", id)
	assert.Equal(t, 1, d.handle.begins)
	assert.Equal(t, 1, d.handle.commits)
	assert.Equal(t, 0, d.handle.rollbacks)
}

func TestAsTransaction_ExecutionFails(t *testing.T) {
	d := newFakeDriver()
	c := newTestConnector(t, d)
	d.handle.statement("INSERT INTO users (id) VALUES (?)").execErr = driverError("23000", 1062, "Duplicate entry '1' for key 'PRIMARY'")
	var workErr error
	result, err := AsTransaction(ctx, c, func(ctx context.Context) (int, error) {
		workErr = c.Execute(ctx, "INSERT INTO users (id) VALUES (?)", 1)
		return 1, workErr
	})
	require.Error(t, err)
	assert.Equal(t, 0, result)
	assert.Same(t, workErr, err)
	assert.ErrorIs(t, err, ErrStatementExecutionFailed)
	assert.Equal(t, 1062, CodeOf(err))
	assert.Equal(t, 0, d.handle.commits)
	assert.Equal(t, 1, d.handle.rollbacks)
}

func TestAsTransaction_AnyErrorRollsBack(t *testing.T) {
	d := newFakeDriver()
	c := newTestConnector(t, d)
	workErr := errors.New("validation failed")
	_, err := AsTransaction(ctx, c, func(ctx context.Context) (any, error) {
		return nil, workErr
	})
	assert.Same(t, workErr, err)
	assert.Equal(t, 0, d.handle.commits)
	assert.Equal(t, 1, d.handle.rollbacks)
}

func TestAsTransaction_RollbackFails(t *testing.T) {
	d := newFakeDriver()
	c := newTestConnector(t, d)
	d.handle.rollbackErr = errors.New("connection lost")
	workErr := errors.New("validation failed")
	_, err := AsTransaction(ctx, c, func(ctx context.Context) (any, error) {
		return nil, workErr
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, workErr)
	assert.ErrorIs(t, err, ErrTransactionRollbackFailed)
}

func TestAsTransaction_BeginFails(t *testing.T) {
	d := newFakeDriver()
	c := newTestConnector(t, d)
	d.handle.beginErr = errors.New("already active")
	called := false
	_, err := AsTransaction(ctx, c, func(ctx context.Context) (any, error) {
		called = true
		return nil, nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransactionStartFailed)
	assert.False(t, called)
	assert.Equal(t, 0, d.handle.rollbacks)
}

func TestAsTransaction_CommitFails(t *testing.T) {
	d := newFakeDriver()
	c := newTestConnector(t, d)
	d.handle.commitErr = errors.New("serialization failure")
	v, err := AsTransaction(ctx, c, func(ctx context.Context) (string, error) {
		return "done", nil
	})
	require.Error(t, err)
	assert.Equal(t, "", v)
	assert.ErrorIs(t, err, ErrTransactionCommitFailed)
	assert.Equal(t, 0, d.handle.rollbacks)
}

func TestAsTransaction_Panics(t *testing.T) {
	d := newFakeDriver()
	c := newTestConnector(t, d)
	require.PanicsWithValue(t, "boom", func() {
		_, _ = AsTransaction(ctx, c, func(ctx context.Context) (any, error) {
			panic("boom")
		})
	})
	assert.Equal(t, 0, d.handle.commits)
	assert.Equal(t, 1, d.handle.rollbacks)
}
