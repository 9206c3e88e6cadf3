package persistence

import (
	"errors"
	"fmt"
)

// ErrorInfo is the structured error information reported by a database backend
type ErrorInfo struct {
	// SQLState is the five character SQLSTATE code
	SQLState string
	// Code is the backend specific error number
	Code int
	// Message is the backend error message
	Message string
}

// DriverError is an error carrying structured ErrorInfo
//
// Driver implementations (and test doubles) that do not surface a backend client error type
// can return a DriverError so that the triple is preserved
type DriverError struct {
	Info ErrorInfo
	Err  error
}

func (e *DriverError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("SQLSTATE[%s]: %d %s: %v", e.Info.SQLState, e.Info.Code, e.Info.Message, e.Err)
	}
	return fmt.Sprintf("SQLSTATE[%s]: %d %s", e.Info.SQLState, e.Info.Code, e.Info.Message)
}

func (e *DriverError) Unwrap() error {
	return e.Err
}

// ErrorInfoExtractor extracts ErrorInfo from a backend client error
//
// the second return arg is false if the error is not one the extractor understands
type ErrorInfoExtractor func(err error) (ErrorInfo, bool)

// generalState is reported for backends that have no SQLSTATE of their own
const generalState = "HY000"

var errorInfoExtractors = []ErrorInfoExtractor{driverErrorInfo}

// RegisterErrorInfoExtractor adds an extractor consulted by ErrorInfoOf
//
// extractors are consulted in registration order, registration is not safe for concurrent use
// and is expected to happen during init
func RegisterErrorInfoExtractor(extractor ErrorInfoExtractor) {
	errorInfoExtractors = append(errorInfoExtractors, extractor)
}

// ErrorInfoOf returns the structured error information carried by err (or by any error it wraps)
//
// the second return arg is false if there is none
func ErrorInfoOf(err error) (ErrorInfo, bool) {
	if err == nil {
		return ErrorInfo{}, false
	}
	for _, extract := range errorInfoExtractors {
		if info, ok := extract(err); ok {
			return info, true
		}
	}
	return ErrorInfo{}, false
}

func driverErrorInfo(err error) (ErrorInfo, bool) {
	var de *DriverError
	if errors.As(err, &de) {
		return de.Info, true
	}
	return ErrorInfo{}, false
}
