package persistence

// DriverName identifies the database backend a connection targets
//
// it is the leading segment of the connection string built by Configuration.DSN
type DriverName string

const (
	DriverCubrid     DriverName = "cubrid"
	DriverFreeTDS    DriverName = "dblib"
	DriverDblibMSSQL DriverName = "mssql"
	DriverSybase     DriverName = "sybase"
	DriverFirebird   DriverName = "firebird"
	DriverIBM        DriverName = "ibm"
	DriverInformix   DriverName = "informix"
	DriverSQLServer  DriverName = "sqlsrv"
	DriverMySQL      DriverName = "mysql"
	DriverOracle     DriverName = "oci"
	DriverODBC       DriverName = "odbc"
	DriverPostgreSQL DriverName = "pgsql"
	DriverSQLite     DriverName = "sqlite"
)
