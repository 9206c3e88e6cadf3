package persistence

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// configurationDocument is the YAML shape read by LoadConfiguration
type configurationDocument struct {
	Driver     string         `yaml:"driver"`
	Host       string         `yaml:"host"`
	Port       *int           `yaml:"port"`
	Database   string         `yaml:"database"`
	Username   string         `yaml:"username"`
	Passphrase string         `yaml:"passphrase"`
	Attributes map[string]any `yaml:"attributes"`
}

// LoadConfiguration reads a Configuration from a YAML file
//
// ${VAR} (or ${VAR:-default}) references are replaced with environment variable values before parsing
func LoadConfiguration(filePath string) (*Configuration, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseConfiguration(data)
}

// ParseConfiguration is the same as LoadConfiguration, except it reads the YAML from data
func ParseConfiguration(data []byte) (*Configuration, error) {
	doc := configurationDocument{}
	if err := yaml.Unmarshal([]byte(substituteEnvVars(string(data))), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	b := NewConfigurationBuilder(DriverName(doc.Driver)).
		Host(doc.Host).
		DatabaseName(doc.Database).
		Credentials(doc.Username, doc.Passphrase)
	if doc.Port != nil {
		b.Port(*doc.Port)
	}
	for k, v := range doc.Attributes {
		b.Attribute(Attribute(k), v)
	}
	return b.Build()
}

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// substituteEnvVars replaces ${VAR_NAME} with environment variable values
func substituteEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		parts := envVarPattern.FindStringSubmatch(match)
		if v, ok := os.LookupEnv(parts[1]); ok {
			return v
		}
		return parts[2]
	})
}
