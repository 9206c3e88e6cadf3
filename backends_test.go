package persistence

import (
	"fmt"
	"strings"
	"testing"

	mssql "github.com/denisenkom/go-mssqldb"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/sijms/go-ora/v2/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisteredBackends(t *testing.T) {
	testCases := []struct {
		driver       DriverName
		expectDriver string
		expectStyle  PlaceholderStyle
	}{
		{DriverMySQL, "mysql", PlaceholderQuestion},
		{DriverPostgreSQL, "pgx", PlaceholderDollar},
		{DriverOracle, "oracle", PlaceholderNative},
		{DriverSQLServer, "sqlserver", PlaceholderAt},
		{DriverDblibMSSQL, "sqlserver", PlaceholderAt},
		{DriverFreeTDS, "sqlserver", PlaceholderAt},
	}
	d := &SQLDriver{}
	for _, tc := range testCases {
		t.Run(string(tc.driver), func(t *testing.T) {
			b, ok := d.backend(tc.driver)
			require.True(t, ok)
			assert.Equal(t, tc.expectDriver, b.DriverName)
			assert.Equal(t, tc.expectStyle, b.Placeholders)
			assert.NotNil(t, b.DSN)
		})
	}
	for _, name := range []DriverName{DriverCubrid, DriverFirebird, DriverIBM, DriverInformix, DriverODBC, DriverSybase} {
		_, ok := d.backend(name)
		assert.False(t, ok, string(name))
	}
}

func TestSQLDriver_BackendOverride(t *testing.T) {
	d, err := NewSQLDriver(Backends{DriverPostgreSQL: PQBackend})
	require.NoError(t, err)
	b, ok := d.backend(DriverPostgreSQL)
	require.True(t, ok)
	assert.Equal(t, "postgres", b.DriverName)
	b, ok = d.backend(DriverMySQL)
	require.True(t, ok)
	assert.Equal(t, "mysql", b.DriverName)
}

func TestMySQLDSN(t *testing.T) {
	dsn, err := MySQLDSN(DSNParams{DatabaseName: "app", Host: "db", Port: 3307, Charset: "utf8"}, "user", "secret")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(dsn, "user:secret@tcp(db:3307)/app?"), dsn)
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8")

	dsn, err = MySQLDSN(DSNParams{DatabaseName: "app", Options: map[string]string{"timeout": "5s"}}, "", "")
	require.NoError(t, err)
	cfg, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "localhost:3306", cfg.Addr)
	assert.Equal(t, "app", cfg.DBName)
	assert.True(t, cfg.ParseTime)
}

func TestPostgresDSN(t *testing.T) {
	dsn, err := PostgresDSN(DSNParams{
		DatabaseName: "app",
		Host:         "db",
		Port:         5433,
		Charset:      "utf8",
		Options:      map[string]string{"sslmode": "disable"},
	}, "user", "s3cr@t")
	require.NoError(t, err)
	assert.Equal(t, "postgres://user:s3cr%40t@db:5433/app?client_encoding=UTF8&sslmode=disable", dsn)

	dsn, err = PostgresDSN(DSNParams{DatabaseName: "app"}, "", "")
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost:5432/app", dsn)
}

func TestOracleDSN(t *testing.T) {
	dsn, err := OracleDSN(DSNParams{DatabaseName: "XE", Host: "db"}, "scott", "tiger")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(dsn, "oracle://scott:tiger@db:1521/XE"), dsn)
}

func TestSQLServerDSN(t *testing.T) {
	dsn, err := SQLServerDSN(DSNParams{DatabaseName: "app", Host: "db"}, "sa", "secret")
	require.NoError(t, err)
	assert.Equal(t, "sqlserver://sa:secret@db:1433?database=app", dsn)

	dsn, err = SQLServerDSN(DSNParams{Port: 1500, Options: map[string]string{"encrypt": "disable"}}, "", "")
	require.NoError(t, err)
	assert.Equal(t, "sqlserver://localhost:1500?encrypt=disable", dsn)
}

func TestBackendErrorInfo(t *testing.T) {
	testCases := []struct {
		err    error
		expect ErrorInfo
	}{
		{
			err:    &mysql.MySQLError{Number: 1062, SQLState: [5]byte{'2', '3', '0', '0', '0'}, Message: "Duplicate entry '1' for key 'PRIMARY'"},
			expect: ErrorInfo{SQLState: "23000", Code: 1062, Message: "Duplicate entry '1' for key 'PRIMARY'"},
		},
		{
			err:    &mysql.MySQLError{Number: 2013, Message: "Lost connection"},
			expect: ErrorInfo{SQLState: "HY000", Code: 2013, Message: "Lost connection"},
		},
		{
			err:    &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"},
			expect: ErrorInfo{SQLState: "23505", Message: "duplicate key value violates unique constraint"},
		},
		{
			err:    &pq.Error{Code: "42P01", Message: `relation "users" does not exist`},
			expect: ErrorInfo{SQLState: "42P01", Message: `relation "users" does not exist`},
		},
		{
			err:    &network.OracleError{ErrCode: 942, ErrMsg: "ORA-00942: table or view does not exist"},
			expect: ErrorInfo{SQLState: "HY000", Code: 942, Message: "ORA-00942: table or view does not exist"},
		},
		{
			err:    mssql.Error{Number: 208, Message: "Invalid object name 'users'."},
			expect: ErrorInfo{SQLState: "HY000", Code: 208, Message: "Invalid object name 'users'."},
		},
	}
	for i, tc := range testCases {
		t.Run(fmt.Sprintf("[%d]", i+1), func(t *testing.T) {
			info, ok := ErrorInfoOf(fmt.Errorf("wrapped: %w", tc.err))
			require.True(t, ok)
			assert.Equal(t, tc.expect, info)
			err := newError(ErrStatementExecutionFailed, tc.err)
			assert.Equal(t, tc.expect.Code, CodeOf(err))
			assert.Equal(t, tc.expect.SQLState, err.SQLState)
		})
	}
}
