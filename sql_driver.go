package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"maps"
	"strconv"
	"strings"
)

// DSNParams are the parts of a connection string built by Configuration.DSN
type DSNParams struct {
	Driver       DriverName
	DatabaseName string
	Host         string
	// Port is 0 if the connection string has no port
	Port    int
	Charset string
	// Options holds any other key=value pairs
	Options map[string]string
}

// ParseDSN parses a connection string of the form driver:dbname=...;host=...;port=...;charset=...
func ParseDSN(dsn string) (DSNParams, error) {
	result := DSNParams{}
	driver, rest, ok := strings.Cut(dsn, ":")
	if !ok || driver == "" {
		return result, fmt.Errorf("invalid connection string %q: missing driver", dsn)
	}
	result.Driver = DriverName(driver)
	for _, part := range strings.Split(rest, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			return result, fmt.Errorf("invalid connection string segment %q", part)
		}
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		switch strings.ToLower(k) {
		case "dbname":
			result.DatabaseName = v
		case "host":
			result.Host = v
		case "port":
			port, err := strconv.Atoi(v)
			if err != nil || port < 1 || port > 65535 {
				return result, fmt.Errorf("invalid port %q", v)
			}
			result.Port = port
		case "charset":
			result.Charset = v
		default:
			if result.Options == nil {
				result.Options = map[string]string{}
			}
			result.Options[k] = v
		}
	}
	return result, nil
}

// DSNBuilder builds the data source name of a database/sql driver
type DSNBuilder func(params DSNParams, username string, passphrase string) (string, error)

// Backend describes how SQLDriver reaches one kind of database through database/sql
type Backend struct {
	// DriverName is the name the database/sql driver is registered with
	DriverName   string
	DSN          DSNBuilder
	Placeholders PlaceholderStyle
}

// Backends maps driver identifiers to backends
//
// can be passed as an option to NewSQLDriver to add backends or replace registered ones
type Backends map[DriverName]Backend

var registeredBackends = Backends{}

// RegisterBackend makes a backend available to every SQLDriver
//
// registration is not safe for concurrent use and is expected to happen during init
func RegisterBackend(name DriverName, backend Backend) {
	registeredBackends[name] = backend
}

// SQLDriver is a Driver opening connections through database/sql
//
// the zero value uses the registered backends
type SQLDriver struct {
	backends Backends
	scanners ColumnScanners
}

var _ Driver = (*SQLDriver)(nil)

// NewSQLDriver creates a new SQLDriver
//
// options can be any of Backends or ColumnScanners
func NewSQLDriver(options ...any) (*SQLDriver, error) {
	result := &SQLDriver{}
	for _, o := range options {
		if o != nil {
			switch option := o.(type) {
			case Backends:
				if result.backends == nil {
					result.backends = Backends{}
				}
				maps.Copy(result.backends, option)
			case ColumnScanners:
				if result.scanners == nil {
					result.scanners = ColumnScanners{}
				}
				maps.Copy(result.scanners, option)
			default:
				return nil, fmt.Errorf("unknown option type: %T", o)
			}
		}
	}
	return result, nil
}

func (d *SQLDriver) backend(name DriverName) (Backend, bool) {
	if b, ok := d.backends[name]; ok {
		return b, true
	}
	b, ok := registeredBackends[name]
	return b, ok
}

// Open opens a single connection and verifies it with a ping
func (d *SQLDriver) Open(ctx context.Context, dsn string, username string, passphrase string) (Handle, error) {
	params, err := ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	backend, ok := d.backend(params.Driver)
	if !ok || backend.DSN == nil {
		return nil, fmt.Errorf("unsupported driver %q", params.Driver)
	}
	native, err := backend.DSN(params, username, passphrase)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(backend.DriverName, native)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	conn, err := db.Conn(ctx)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err = conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		_ = db.Close()
		return nil, err
	}
	return &sqlHandle{
		db:           db,
		conn:         conn,
		autocommit:   true,
		placeholders: backend.Placeholders,
		scanners:     d.scanners,
	}, nil
}

type sqlHandle struct {
	db           *sql.DB
	conn         *sql.Conn
	tx           *sql.Tx
	explicit     bool
	autocommit   bool
	placeholders PlaceholderStyle
	scanners     ColumnScanners
	lastResult   sql.Result
}

func (h *sqlHandle) SetAttribute(key Attribute, value any) error {
	switch key {
	case AttrErrorMode:
		mode, err := AttributeErrorMode(value)
		if err != nil {
			return err
		}
		if mode != ErrorModeException {
			return fmt.Errorf("error mode %d is not supported", mode)
		}
	case AttrAutocommit:
		on, err := AttributeBool(value)
		if err != nil {
			return err
		}
		if on && h.tx != nil && !h.explicit {
			if err = h.Commit(); err != nil {
				return err
			}
		}
		h.autocommit = on
	default:
		return fmt.Errorf("unsupported attribute %q", key)
	}
	return nil
}

type preparer interface {
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

func (h *sqlHandle) Prepare(ctx context.Context, query string) (Statement, error) {
	if !h.autocommit && h.tx == nil {
		tx, err := h.conn.BeginTx(ctx, nil)
		if err != nil {
			return nil, err
		}
		h.tx, h.explicit = tx, false
	}
	var p preparer = h.conn
	if h.tx != nil {
		p = h.tx
	}
	named := rewriteNamed(query, h.placeholders)
	stmt, err := p.PrepareContext(ctx, named.query)
	if err != nil {
		return nil, err
	}
	return &sqlStatement{
		stmt:     stmt,
		handle:   h,
		named:    named,
		rowCount: -1,
	}, nil
}

func (h *sqlHandle) Begin(ctx context.Context) error {
	if h.tx != nil {
		if h.explicit {
			return errors.New("there is already an active transaction")
		}
		// the implicit transaction becomes the explicit one
		h.explicit = true
		return nil
	}
	tx, err := h.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	h.tx, h.explicit = tx, true
	return nil
}

func (h *sqlHandle) Commit() error {
	if h.tx == nil {
		return errors.New("there is no active transaction")
	}
	err := h.tx.Commit()
	h.tx, h.explicit = nil, false
	return err
}

func (h *sqlHandle) Rollback() error {
	if h.tx == nil {
		return errors.New("there is no active transaction")
	}
	err := h.tx.Rollback()
	h.tx, h.explicit = nil, false
	return err
}

func (h *sqlHandle) LastInsertID() (string, error) {
	if h.lastResult == nil {
		return "0", nil
	}
	id, err := h.lastResult.LastInsertId()
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(id, 10), nil
}

// Close rolls back any open transaction and closes the connection
func (h *sqlHandle) Close() error {
	var errs []error
	if h.tx != nil {
		if err := h.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			errs = append(errs, err)
		}
		h.tx = nil
	}
	if err := h.conn.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
		errs = append(errs, err)
	}
	if err := h.db.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

type sqlStatement struct {
	stmt     *sql.Stmt
	handle   *sqlHandle
	named    *namedStatement
	rowCount int64
	mode     FetchMode
	executed bool
	rows     []Row
	pos      int
	fetchErr error
}

func (s *sqlStatement) Exec(ctx context.Context, args ...any) error {
	bound, err := s.named.bind(args)
	if err != nil {
		return err
	}
	res, err := s.stmt.ExecContext(ctx, bound...)
	if err != nil {
		return err
	}
	s.handle.lastResult = res
	s.rowCount = -1
	if n, err := res.RowsAffected(); err == nil {
		s.rowCount = n
	}
	return nil
}

// Query executes the statement and buffers every result row
//
// a failure reading the rows is reported by FetchAll/Fetch
func (s *sqlStatement) Query(ctx context.Context, args ...any) error {
	bound, err := s.named.bind(args)
	if err != nil {
		return err
	}
	rows, err := s.stmt.QueryContext(ctx, bound...)
	if err != nil {
		return err
	}
	defer func() {
		_ = rows.Close()
	}()
	info, err := newColumnsInfo(rows, s.handle.scanners)
	if err != nil {
		return err
	}
	s.executed, s.rows, s.pos, s.fetchErr = true, []Row{}, 0, nil
	reader := info.reader()
	for rows.Next() {
		row, err := reader.row(rows)
		if err != nil {
			s.fetchErr = err
			break
		}
		s.rows = append(s.rows, row)
	}
	if s.fetchErr == nil {
		s.fetchErr = rows.Err()
	}
	if s.fetchErr != nil {
		s.rowCount = -1
	} else {
		s.rowCount = int64(len(s.rows))
	}
	return nil
}

func (s *sqlStatement) SetFetchMode(mode FetchMode) error {
	if mode != FetchModeRecord {
		return fmt.Errorf("fetch mode %d is not supported", mode)
	}
	s.mode = mode
	return nil
}

func (s *sqlStatement) RowCount() int64 {
	return s.rowCount
}

func (s *sqlStatement) FetchAll() ([]Row, error) {
	if err := s.checkFetch(); err != nil {
		return nil, err
	}
	result := s.rows[s.pos:]
	s.pos = len(s.rows)
	return result, nil
}

func (s *sqlStatement) Fetch() (Row, bool, error) {
	if err := s.checkFetch(); err != nil {
		return nil, false, err
	}
	if s.pos >= len(s.rows) {
		return nil, false, nil
	}
	row := s.rows[s.pos]
	s.pos++
	return row, true, nil
}

func (s *sqlStatement) checkFetch() error {
	if !s.executed {
		return errors.New("statement has no result set")
	}
	return s.fetchErr
}

func (s *sqlStatement) Close() error {
	return s.stmt.Close()
}
