package persistence

import (
	"errors"
	"net"
	"net/url"
	"strconv"

	mssql "github.com/denisenkom/go-mssqldb"
)

const defaultSQLServerPort = 1433

func init() {
	backend := Backend{
		DriverName:   "sqlserver",
		DSN:          SQLServerDSN,
		Placeholders: PlaceholderAt,
	}
	RegisterBackend(DriverSQLServer, backend)
	RegisterBackend(DriverDblibMSSQL, backend)
	RegisterBackend(DriverFreeTDS, backend)
	RegisterErrorInfoExtractor(sqlServerErrorInfo)
}

// SQLServerDSN builds a sqlserver:// connection URL
func SQLServerDSN(params DSNParams, username string, passphrase string) (string, error) {
	port := params.Port
	if port == 0 {
		port = defaultSQLServerPort
	}
	host := params.Host
	if host == "" {
		host = "localhost"
	}
	u := url.URL{
		Scheme: "sqlserver",
		Host:   net.JoinHostPort(host, strconv.Itoa(port)),
	}
	if username != "" {
		u.User = url.UserPassword(username, passphrase)
	}
	q := url.Values{}
	if params.DatabaseName != "" {
		q.Set("database", params.DatabaseName)
	}
	for k, v := range params.Options {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func sqlServerErrorInfo(err error) (ErrorInfo, bool) {
	var se mssql.Error
	if errors.As(err, &se) {
		return ErrorInfo{SQLState: generalState, Code: int(se.Number), Message: se.Message}, true
	}
	return ErrorInfo{}, false
}
