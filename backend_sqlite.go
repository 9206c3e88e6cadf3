//go:build cgo

package persistence

import (
	"errors"

	"github.com/mattn/go-sqlite3"
)

func init() {
	RegisterBackend(DriverSQLite, Backend{
		DriverName:   "sqlite3",
		DSN:          SQLiteDSN,
		Placeholders: PlaceholderNative,
	})
	RegisterErrorInfoExtractor(sqliteErrorInfo)
}

// SQLiteDSN uses the database name as the database file (or ":memory:")
func SQLiteDSN(params DSNParams, _ string, _ string) (string, error) {
	if params.DatabaseName == "" {
		return "", errors.New("sqlite requires a database name")
	}
	return params.DatabaseName, nil
}

func sqliteErrorInfo(err error) (ErrorInfo, bool) {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return ErrorInfo{SQLState: generalState, Code: int(se.Code), Message: se.Error()}, true
	}
	return ErrorInfo{}, false
}
