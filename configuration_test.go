package persistence

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfiguration_DSN(t *testing.T) {
	cfg := NewConfigurationBuilder(DriverMySQL).Host("h").DatabaseName("d").MustBuild()
	assert.Equal(t, "mysql:dbname=d;host=h;charset=utf8", cfg.DSN())
	port, ok := cfg.Port()
	assert.False(t, ok)
	assert.Equal(t, 0, port)

	cfg = NewConfigurationBuilder(DriverMySQL).Host("h").Port(3306).DatabaseName("d").MustBuild()
	assert.Equal(t, "mysql:dbname=d;host=h;port=3306;charset=utf8", cfg.DSN())
	port, ok = cfg.Port()
	assert.True(t, ok)
	assert.Equal(t, 3306, port)
}

func TestConfiguration_Accessors(t *testing.T) {
	cfg := NewConfigurationBuilder(DriverOracle).
		Host("db").
		DatabaseName("XE").
		Credentials("scott", "tiger").
		Attributes(Attributes{AttrAutocommit: true}).
		MustBuild()
	assert.Equal(t, DriverOracle, cfg.Driver())
	assert.Equal(t, "db", cfg.Host())
	assert.Equal(t, "XE", cfg.DatabaseName())
	assert.Equal(t, "scott", cfg.Username())
	assert.Equal(t, "tiger", cfg.Passphrase())
	assert.Equal(t, Attributes{AttrAutocommit: true}, cfg.Attributes())
}

func TestConfiguration_Immutable(t *testing.T) {
	b := NewConfigurationBuilder(DriverMySQL).Attribute(AttrAutocommit, false)
	cfg := b.MustBuild()
	b.Attribute(AttrErrorMode, ErrorModeException)
	attrs := cfg.Attributes()
	attrs[AttrErrorMode] = ErrorModeSilent
	assert.Equal(t, Attributes{AttrAutocommit: false}, cfg.Attributes())
}

func TestConfigurationBuilder_Errors(t *testing.T) {
	_, err := NewConfigurationBuilder("").Build()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
	assert.Equal(t, "invalid configuration: driver must not be empty", err.Error())

	_, err = NewConfigurationBuilder(DriverMySQL).Port(70000).Build()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	require.Panics(t, func() {
		_ = NewConfigurationBuilder(DriverMySQL).Port(0).MustBuild()
	})
}

func TestParseConfiguration(t *testing.T) {
	t.Setenv("PERSISTENCE_TEST_USER", "app_user")
	data := []byte(`
driver: pgsql
host: db.internal
port: 5433
database: app
username: ${PERSISTENCE_TEST_USER}
passphrase: ${PERSISTENCE_TEST_UNSET:-fallback}
attributes:
  autocommit: false
  errmode: exception
`)
	cfg, err := ParseConfiguration(data)
	require.NoError(t, err)
	assert.Equal(t, DriverPostgreSQL, cfg.Driver())
	assert.Equal(t, "db.internal", cfg.Host())
	port, ok := cfg.Port()
	assert.True(t, ok)
	assert.Equal(t, 5433, port)
	assert.Equal(t, "app_user", cfg.Username())
	assert.Equal(t, "fallback", cfg.Passphrase())
	assert.Equal(t, Attributes{AttrAutocommit: false, AttrErrorMode: "exception"}, cfg.Attributes())
	assert.Equal(t, "pgsql:dbname=app;host=db.internal;port=5433;charset=utf8", cfg.DSN())
}

func TestParseConfiguration_Errors(t *testing.T) {
	_, err := ParseConfiguration([]byte("driver: [not, a, string"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")

	_, err = ParseConfiguration([]byte("host: localhost\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestLoadConfiguration(t *testing.T) {
	file := filepath.Join(t.TempDir(), "persistence.yaml")
	require.NoError(t, os.WriteFile(file, []byte("driver: mysql\nhost: localhost\ndatabase: app\n"), 0o600))
	cfg, err := LoadConfiguration(file)
	require.NoError(t, err)
	assert.Equal(t, "mysql:dbname=app;host=localhost;charset=utf8", cfg.DSN())
	assert.Empty(t, cfg.Attributes())

	_, err = LoadConfiguration(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}
