package persistence

import (
	"errors"

	goora "github.com/sijms/go-ora/v2"
	"github.com/sijms/go-ora/v2/network"
)

const defaultOraclePort = 1521

func init() {
	RegisterBackend(DriverOracle, Backend{
		DriverName:   "oracle",
		DSN:          OracleDSN,
		Placeholders: PlaceholderNative,
	})
	RegisterErrorInfoExtractor(oracleErrorInfo)
}

// OracleDSN builds a go-ora connection URL, the database name is used as the service name
func OracleDSN(params DSNParams, username string, passphrase string) (string, error) {
	port := params.Port
	if port == 0 {
		port = defaultOraclePort
	}
	return goora.BuildUrl(params.Host, port, params.DatabaseName, username, passphrase, params.Options), nil
}

func oracleErrorInfo(err error) (ErrorInfo, bool) {
	var oe *network.OracleError
	if errors.As(err, &oe) {
		return ErrorInfo{SQLState: generalState, Code: oe.ErrCode, Message: oe.ErrMsg}, true
	}
	return ErrorInfo{}, false
}
