package persistence

import (
	"errors"
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"
)

const defaultMySQLPort = 3306

func init() {
	RegisterBackend(DriverMySQL, Backend{
		DriverName:   "mysql",
		DSN:          MySQLDSN,
		Placeholders: PlaceholderQuestion,
	})
	RegisterErrorInfoExtractor(mysqlErrorInfo)
}

// MySQLDSN builds a go-sql-driver/mysql data source name
//
// extra connection string options are passed as driver params
func MySQLDSN(params DSNParams, username string, passphrase string) (string, error) {
	cfg := mysql.NewConfig()
	cfg.User = username
	cfg.Passwd = passphrase
	cfg.Net = "tcp"
	port := params.Port
	if port == 0 {
		port = defaultMySQLPort
	}
	host := params.Host
	if host == "" {
		host = "localhost"
	}
	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	cfg.DBName = params.DatabaseName
	cfg.ParseTime = true
	cfg.Params = map[string]string{}
	if params.Charset != "" {
		cfg.Params["charset"] = params.Charset
	}
	for k, v := range params.Options {
		cfg.Params[k] = v
	}
	return cfg.FormatDSN(), nil
}

func mysqlErrorInfo(err error) (ErrorInfo, bool) {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		state := string(me.SQLState[:])
		if me.SQLState == [5]byte{} {
			state = generalState
		}
		return ErrorInfo{SQLState: state, Code: int(me.Number), Message: me.Message}, true
	}
	return ErrorInfo{}, false
}
