package persistence

import (
	"fmt"
	"maps"
	"strconv"
)

// Configuration describes how to reach a database
//
// a Configuration is built with a ConfigurationBuilder and cannot be changed afterwards
type Configuration struct {
	driver       DriverName
	host         string
	port         int
	hasPort      bool
	databaseName string
	username     string
	passphrase   string
	attributes   Attributes
}

// Driver returns the identifier of the database backend
func (c *Configuration) Driver() DriverName {
	return c.driver
}

// Host returns the host to connect to
func (c *Configuration) Host() string {
	return c.host
}

// Port returns the port to connect to
//
// the second return arg is false if no port was supplied
func (c *Configuration) Port() (int, bool) {
	return c.port, c.hasPort
}

// DatabaseName returns the name of the database to connect to
func (c *Configuration) DatabaseName() string {
	return c.databaseName
}

// Username returns the username to authenticate with
func (c *Configuration) Username() string {
	return c.username
}

// Passphrase returns the passphrase to authenticate with
func (c *Configuration) Passphrase() string {
	return c.passphrase
}

// Attributes returns a copy of the connection attributes
//
// an empty result means the connector applies DefaultAttributes
func (c *Configuration) Attributes() Attributes {
	return maps.Clone(c.attributes)
}

// DSN returns the connection string handed to Driver.Open
//
// the port segment is only present if a port was supplied
func (c *Configuration) DSN() string {
	if !c.hasPort {
		return fmt.Sprintf("%s:dbname=%s;host=%s;charset=utf8", c.driver, c.databaseName, c.host)
	}
	return fmt.Sprintf("%s:dbname=%s;host=%s;port=%s;charset=utf8", c.driver, c.databaseName, c.host, strconv.Itoa(c.port))
}

// ConfigurationBuilder collects the values of a Configuration
type ConfigurationBuilder struct {
	cfg Configuration
}

// NewConfigurationBuilder creates a builder for a configuration targeting the given driver
func NewConfigurationBuilder(driver DriverName) *ConfigurationBuilder {
	return &ConfigurationBuilder{cfg: Configuration{driver: driver, attributes: Attributes{}}}
}

// Host sets the database host
func (b *ConfigurationBuilder) Host(host string) *ConfigurationBuilder {
	b.cfg.host = host
	return b
}

// Port sets the database port, a configuration without one omits it from the connection string
func (b *ConfigurationBuilder) Port(port int) *ConfigurationBuilder {
	b.cfg.port = port
	b.cfg.hasPort = true
	return b
}

// DatabaseName sets the name of the database to connect to
func (b *ConfigurationBuilder) DatabaseName(name string) *ConfigurationBuilder {
	b.cfg.databaseName = name
	return b
}

// Credentials sets the username and passphrase used to open the connection
func (b *ConfigurationBuilder) Credentials(username, passphrase string) *ConfigurationBuilder {
	b.cfg.username = username
	b.cfg.passphrase = passphrase
	return b
}

// Attribute sets a single driver attribute
func (b *ConfigurationBuilder) Attribute(key Attribute, value any) *ConfigurationBuilder {
	b.cfg.attributes[key] = value
	return b
}

// Attributes sets several driver attributes, replacing any with the same key
func (b *ConfigurationBuilder) Attributes(attributes Attributes) *ConfigurationBuilder {
	for k, v := range attributes {
		b.cfg.attributes[k] = v
	}
	return b
}

// Build validates the collected values and returns the Configuration
//
// the builder may be reused, later changes do not affect configurations already built
func (b *ConfigurationBuilder) Build() (*Configuration, error) {
	if b.cfg.driver == "" {
		return nil, newConfigurationError("driver must not be empty")
	}
	if b.cfg.hasPort && (b.cfg.port < 1 || b.cfg.port > 65535) {
		return nil, newConfigurationError(fmt.Sprintf("port %d out of range", b.cfg.port))
	}
	result := b.cfg
	result.attributes = maps.Clone(b.cfg.attributes)
	return &result, nil
}

// MustBuild is the same as Build, except it panics on error
func (b *ConfigurationBuilder) MustBuild() *Configuration {
	cfg, err := b.Build()
	if err != nil {
		panic(err)
	}
	return cfg
}
