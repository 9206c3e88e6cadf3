package persistence

import (
	"errors"
	"fmt"
)

// ErrPersistence is matched (using errors.Is) by every error raised by this package
var ErrPersistence = errors.New("persistence failure")

// error kinds, match any error returned from this package against these using errors.Is
var (
	ErrConnectionFailed                = newKind("database connection failed", ErrPersistence)
	ErrStatementPreparationFailed      = newKind("preparation of the statement failed", ErrPersistence)
	ErrStatementExecutionFailed        = newKind("execution of the statement failed", ErrPersistence)
	ErrSettingFetchModeFailed          = newKind("setting the fetch mode of the statement failed", ErrPersistence)
	ErrFetchingResultFailed            = newKind("fetching the statement result failed", ErrPersistence)
	ErrRetrievingLastInsertedIDFailed  = newKind("retrieval of the last inserted id failed", ErrPersistence)
	ErrInvalidArgumentsStatementsCount = newKind("number of argument lists does not match number of statements", ErrPersistence)
	ErrInvalidConfiguration            = newKind("invalid configuration", ErrPersistence)
	ErrTransactionalOperationFailed    = newKind("transactional operation failed", ErrPersistence)
	ErrTransactionStartFailed          = newKind("transaction start failed", ErrTransactionalOperationFailed)
	ErrTransactionCommitFailed         = newKind("transaction commit failed", ErrTransactionalOperationFailed)
	ErrTransactionRollbackFailed       = newKind("transaction rollback failed", ErrTransactionalOperationFailed)
)

type kind struct {
	msg    string
	parent error
}

func newKind(msg string, parent error) error {
	return &kind{msg: msg, parent: parent}
}

func (k *kind) Error() string {
	return k.msg
}

func (k *kind) Unwrap() error {
	return k.parent
}

// Error is raised when a call to the underlying driver fails
//
// Code is the driver specific error code (0 if the driver supplied none) and SQLState the
// SQLSTATE reported alongside it
type Error struct {
	Message  string
	Code     int
	SQLState string
	Cause    error
	kind     error
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the kind and the original driver error
func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.Cause}
}

// Kind returns the error kind (e.g. ErrStatementExecutionFailed)
func (e *Error) Kind() error {
	return e.kind
}

// newError classifies a driver failure as the given kind
//
// the message embeds the driver error triple if the cause carries one
func newError(kind error, cause error) *Error {
	result := &Error{kind: kind, Cause: cause}
	if info, ok := ErrorInfoOf(cause); ok {
		result.Code = info.Code
		result.SQLState = info.SQLState
		result.Message = fmt.Sprintf("[%s] %s. %d: %s", info.SQLState, kind, info.Code, info.Message)
	} else if cause != nil {
		result.Message = fmt.Sprintf("%s: %v", kind, cause)
	} else {
		result.Message = kind.Error()
	}
	return result
}

// ArgumentsCountError is raised when a batch is given a different number of argument lists than statements
type ArgumentsCountError struct {
	Arguments  int
	Statements int
}

func (e *ArgumentsCountError) Error() string {
	return fmt.Sprintf("the number of argument lists `%d` does not match the number of statements `%d`", e.Arguments, e.Statements)
}

func (e *ArgumentsCountError) Unwrap() error {
	return ErrInvalidArgumentsStatementsCount
}

// RowWidthError is raised when a placeholder row does not have one value per prefix
type RowWidthError struct {
	Row      int
	Width    int
	Prefixes int
}

func (e *RowWidthError) Error() string {
	return fmt.Sprintf("row %d has %d values, expected %d", e.Row, e.Width, e.Prefixes)
}

func (e *RowWidthError) Unwrap() error {
	return ErrInvalidConfiguration
}

type configurationError struct {
	msg string
}

func newConfigurationError(msg string) error {
	return &configurationError{msg: msg}
}

func (e *configurationError) Error() string {
	return ErrInvalidConfiguration.Error() + ": " + e.msg
}

func (e *configurationError) Unwrap() error {
	return ErrInvalidConfiguration
}

// CodeOf returns the driver error code carried by an error raised by this package
//
// returns 0 if the error carries no code
func CodeOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return 0
}
