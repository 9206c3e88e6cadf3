package persistence

import (
	"errors"
	"net"
	"net/url"
	"strconv"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
)

const defaultPostgresPort = 5432

// PQBackend reaches PostgreSQL through lib/pq instead of pgx
//
// pass it to NewSQLDriver:
//
//	persistence.NewSQLDriver(persistence.Backends{persistence.DriverPostgreSQL: persistence.PQBackend})
var PQBackend = Backend{
	DriverName:   "postgres",
	DSN:          PostgresDSN,
	Placeholders: PlaceholderDollar,
}

func init() {
	RegisterBackend(DriverPostgreSQL, Backend{
		DriverName:   "pgx",
		DSN:          PostgresDSN,
		Placeholders: PlaceholderDollar,
	})
	RegisterErrorInfoExtractor(pgErrorInfo)
	RegisterErrorInfoExtractor(pqErrorInfo)
}

// PostgresDSN builds a postgres:// connection URL understood by both pgx and lib/pq
func PostgresDSN(params DSNParams, username string, passphrase string) (string, error) {
	port := params.Port
	if port == 0 {
		port = defaultPostgresPort
	}
	host := params.Host
	if host == "" {
		host = "localhost"
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(host, strconv.Itoa(port)),
		Path:   "/" + params.DatabaseName,
	}
	if username != "" {
		u.User = url.UserPassword(username, passphrase)
	}
	q := url.Values{}
	if params.Charset != "" {
		// postgres only knows UTF8, not utf8
		q.Set("client_encoding", "UTF8")
	}
	for k, v := range params.Options {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func pgErrorInfo(err error) (ErrorInfo, bool) {
	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		return ErrorInfo{SQLState: pe.Code, Message: pe.Message}, true
	}
	return ErrorInfo{}, false
}

func pqErrorInfo(err error) (ErrorInfo, bool) {
	var pe *pq.Error
	if errors.As(err, &pe) {
		return ErrorInfo{SQLState: string(pe.Code), Message: pe.Message}, true
	}
	return ErrorInfo{}, false
}
