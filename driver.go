package persistence

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Driver opens connections to a database backend
//
// SQLDriver provides the database/sql based implementation, tests may supply their own
type Driver interface {
	// Open opens a single connection using the connection string built by Configuration.DSN
	Open(ctx context.Context, dsn string, username string, passphrase string) (Handle, error)
}

// Handle is one open database connection
//
// a Handle is not safe for concurrent use
type Handle interface {
	// SetAttribute changes a connection attribute
	SetAttribute(key Attribute, value any) error
	// Prepare prepares a statement for execution on this connection
	Prepare(ctx context.Context, query string) (Statement, error)
	// Begin starts a transaction
	Begin(ctx context.Context) error
	// Commit commits the current transaction
	Commit() error
	// Rollback rolls back the current transaction
	Rollback() error
	// LastInsertID returns the identifier generated by the last insert
	LastInsertID() (string, error)
	// Close releases the connection
	Close() error
}

// Statement is a prepared statement
//
// a Statement is owned by the call that prepared it and must be closed before that call returns
type Statement interface {
	// Exec executes a statement that returns no rows
	Exec(ctx context.Context, args ...any) error
	// Query executes a statement that returns rows
	Query(ctx context.Context, args ...any) error
	// SetFetchMode sets the shape rows are fetched in
	SetFetchMode(mode FetchMode) error
	// RowCount returns the rows affected by Exec or returned by Query
	//
	// -1 means the count is unknown
	RowCount() int64
	// FetchAll returns all remaining rows
	FetchAll() ([]Row, error)
	// Fetch returns the next row, the second return arg is false if there are no more rows
	Fetch() (Row, bool, error)
	// Close releases the statement
	Close() error
}

// Row is a fetched record keyed by column name
//
// if a result has several columns with the same name, the last one wins; alias them to keep both
type Row map[string]any

// FetchMode is the shape in which rows are fetched
type FetchMode int

const (
	// FetchModeRecord fetches each row as a Row keyed by column name
	FetchModeRecord FetchMode = iota + 1
)

// Attribute is the key of a connection attribute
type Attribute string

const (
	// AttrErrorMode determines how a connection reports errors, value is an ErrorMode
	AttrErrorMode Attribute = "errmode"
	// AttrAutocommit determines whether statements outside a transaction are committed immediately, value is a bool
	AttrAutocommit Attribute = "autocommit"
)

// ErrorMode is the value of AttrErrorMode
type ErrorMode int

const (
	ErrorModeSilent ErrorMode = iota
	ErrorModeWarning
	ErrorModeException
)

// Attributes is a set of connection attributes
type Attributes map[Attribute]any

// DefaultAttributes returns the attributes applied when a configuration supplies none
//
// errors are raised and autocommit is disabled
func DefaultAttributes() Attributes {
	return Attributes{
		AttrErrorMode:  ErrorModeException,
		AttrAutocommit: false,
	}
}

// Keys returns the attribute keys in sorted order
func (a Attributes) Keys() []Attribute {
	keys := make([]Attribute, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// AttributeBool reads a boolean attribute value
//
// accepts bool, integers (0 is false) and the strings understood by strconv.ParseBool
func AttributeBool(value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case int:
		return v != 0, nil
	case int64:
		return v != 0, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(v))
	}
	return false, fmt.Errorf("type %T is not a bool", value)
}

// AttributeErrorMode reads an ErrorMode attribute value
//
// accepts ErrorMode, integers and the names "silent", "warning" and "exception"
func AttributeErrorMode(value any) (ErrorMode, error) {
	switch v := value.(type) {
	case ErrorMode:
		return v, nil
	case int:
		return ErrorMode(v), nil
	case int64:
		return ErrorMode(v), nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "silent":
			return ErrorModeSilent, nil
		case "warning":
			return ErrorModeWarning, nil
		case "exception":
			return ErrorModeException, nil
		}
		return 0, fmt.Errorf("unknown error mode %q", v)
	}
	return 0, fmt.Errorf("type %T is not an error mode", value)
}
