package persistence

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Connector executes statements on one open database connection
//
// a Connector is not safe for concurrent use
type Connector struct {
	configuration *Configuration
	handle        Handle
	logger        *zap.Logger
}

// NewConnector opens a connection described by the configuration
//
// options can be a Driver (defaults to an SQLDriver using the registered backends) and/or a
// *zap.Logger (defaults to a no-op logger)
//
// if the configuration has no attributes, DefaultAttributes are applied
func NewConnector(ctx context.Context, configuration *Configuration, options ...any) (*Connector, error) {
	if configuration == nil {
		return nil, newConfigurationError("configuration must not be nil")
	}
	var driver Driver
	logger := zap.NewNop()
	for _, o := range options {
		if o != nil {
			switch option := o.(type) {
			case Driver:
				driver = option
			case *zap.Logger:
				logger = option
			default:
				return nil, fmt.Errorf("unknown option type: %T", o)
			}
		}
	}
	if driver == nil {
		driver = &SQLDriver{}
	}
	log := logger.With(
		zap.String("driver", string(configuration.Driver())),
		zap.String("host", configuration.Host()),
		zap.String("database", configuration.DatabaseName()),
	)
	handle, err := driver.Open(ctx, configuration.DSN(), configuration.Username(), configuration.Passphrase())
	if err != nil {
		log.Warn("opening connection failed", zap.Error(err))
		return nil, newError(ErrConnectionFailed, err)
	}
	attributes := configuration.Attributes()
	if len(attributes) == 0 {
		attributes = DefaultAttributes()
	}
	for _, key := range attributes.Keys() {
		if err = handle.SetAttribute(key, attributes[key]); err != nil {
			log.Warn("setting connection attribute failed", zap.String("attribute", string(key)), zap.Error(err))
			_ = handle.Close()
			return nil, newError(ErrConnectionFailed, err)
		}
	}
	log.Debug("connection established")
	return &Connector{
		configuration: configuration,
		handle:        handle,
		logger:        log,
	}, nil
}

// Configuration returns the configuration the connection was opened with
func (c *Connector) Configuration() *Configuration {
	return c.configuration
}

// Close closes the connection
func (c *Connector) Close() error {
	return c.handle.Close()
}

func (c *Connector) prepare(ctx context.Context, statement string) (Statement, error) {
	stmt, err := c.handle.Prepare(ctx, statement)
	if err != nil {
		c.logger.Debug("statement preparation failed", zap.String("statement", statement), zap.Error(err))
		return nil, newError(ErrStatementPreparationFailed, err)
	}
	return stmt, nil
}

func (c *Connector) closeStatement(stmt Statement) {
	if err := stmt.Close(); err != nil {
		c.logger.Debug("closing statement failed", zap.Error(err))
	}
}

// Execute prepares and executes a statement that returns no rows
func (c *Connector) Execute(ctx context.Context, statement string, args ...any) error {
	stmt, err := c.prepare(ctx, statement)
	if err != nil {
		return err
	}
	defer c.closeStatement(stmt)
	if err = stmt.Exec(ctx, args...); err != nil {
		c.logger.Debug("statement execution failed", zap.String("statement", statement), zap.Error(err))
		return newError(ErrStatementExecutionFailed, err)
	}
	return nil
}

// ExecuteMultiple executes each statement with the argument list at the same index
//
// execution stops at the first failing statement, no statement is executed if the
// number of argument lists differs from the number of statements
func (c *Connector) ExecuteMultiple(ctx context.Context, statements []string, arguments [][]any) error {
	if len(arguments) != len(statements) {
		return &ArgumentsCountError{Arguments: len(arguments), Statements: len(statements)}
	}
	for i, statement := range statements {
		if err := c.Execute(ctx, statement, arguments[i]...); err != nil {
			return err
		}
	}
	return nil
}

func (c *Connector) executeQuery(ctx context.Context, statement string, args []any) (Statement, error) {
	stmt, err := c.prepare(ctx, statement)
	if err != nil {
		return nil, err
	}
	if err = stmt.Query(ctx, args...); err != nil {
		c.logger.Debug("statement execution failed", zap.String("statement", statement), zap.Error(err))
		c.closeStatement(stmt)
		return nil, newError(ErrStatementExecutionFailed, err)
	}
	if err = stmt.SetFetchMode(FetchModeRecord); err != nil {
		c.closeStatement(stmt)
		return nil, newError(ErrSettingFetchModeFailed, err)
	}
	return stmt, nil
}

// Query prepares and executes a statement and returns all result rows
//
// returns an empty slice if the statement matched no rows
func (c *Connector) Query(ctx context.Context, statement string, args ...any) ([]Row, error) {
	stmt, err := c.executeQuery(ctx, statement, args)
	if err != nil {
		return nil, err
	}
	defer c.closeStatement(stmt)
	if stmt.RowCount() == 0 {
		return []Row{}, nil
	}
	rows, err := stmt.FetchAll()
	if err != nil {
		c.logger.Debug("fetching result failed", zap.String("statement", statement), zap.Error(err))
		return nil, newError(ErrFetchingResultFailed, err)
	}
	if rows == nil {
		rows = []Row{}
	}
	return rows, nil
}

// QueryFirst prepares and executes a statement and returns the first result row
//
// if there are no rows, returns nil
func (c *Connector) QueryFirst(ctx context.Context, statement string, args ...any) (Row, error) {
	stmt, err := c.executeQuery(ctx, statement, args)
	if err != nil {
		return nil, err
	}
	defer c.closeStatement(stmt)
	if stmt.RowCount() == 0 {
		return nil, nil
	}
	row, ok, err := stmt.Fetch()
	if err != nil {
		c.logger.Debug("fetching result failed", zap.String("statement", statement), zap.Error(err))
		return nil, newError(ErrFetchingResultFailed, err)
	}
	if !ok {
		return nil, nil
	}
	return row, nil
}

// LastInsertID returns the identifier generated by the last executed insert
func (c *Connector) LastInsertID() (string, error) {
	id, err := c.handle.LastInsertID()
	if err != nil {
		return "", newError(ErrRetrievingLastInsertedIDFailed, err)
	}
	return id, nil
}

// BeginTransaction starts a transaction
func (c *Connector) BeginTransaction(ctx context.Context) error {
	if err := c.handle.Begin(ctx); err != nil {
		c.logger.Warn("starting transaction failed", zap.Error(err))
		return newError(ErrTransactionStartFailed, err)
	}
	return nil
}

// Commit commits the current transaction
func (c *Connector) Commit() error {
	if err := c.handle.Commit(); err != nil {
		c.logger.Warn("committing transaction failed", zap.Error(err))
		return newError(ErrTransactionCommitFailed, err)
	}
	return nil
}

// Rollback rolls back the current transaction
func (c *Connector) Rollback() error {
	if err := c.handle.Rollback(); err != nil {
		c.logger.Warn("rolling back transaction failed", zap.Error(err))
		return newError(ErrTransactionRollbackFailed, err)
	}
	return nil
}
