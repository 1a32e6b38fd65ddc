package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ruslano69/sqlkit/pkg/bundle"
	"github.com/ruslano69/sqlkit/pkg/database"
	"github.com/ruslano69/sqlkit/pkg/querylog"
	"github.com/ruslano69/sqlkit/pkg/transport"
)

// Config is the YAML configuration of the CLI.
type Config struct {
	Database  database.Options `yaml:"database"`
	Tables    []string         `yaml:"tables,omitempty"`
	Bundle    BundleConfig     `yaml:"bundle,omitempty"`
	Transport transport.Config `yaml:"transport,omitempty"`
	QueryLog  *querylog.Config `yaml:"querylog,omitempty"`
	Log       LogConfig        `yaml:"log,omitempty"`
}

type BundleConfig struct {
	Compress bool `yaml:"compress"`
	Level    int  `yaml:"level,omitempty"`    // zstd 1-22, default 3
	MinSize  int  `yaml:"min_size,omitempty"` // bytes
}

// Options for bundle.Pack.
func (b BundleConfig) Options() bundle.Options {
	return bundle.Options{Level: b.Level, MinSize: b.MinSize, Disable: !b.Compress}
}

type LogConfig struct {
	Level  string `yaml:"level,omitempty"`  // debug, info, warn, error
	Format string `yaml:"format,omitempty"` // console, json
}

// LoadConfig reads and validates the configuration file.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := config.Database.Validate(); err != nil {
		return nil, err
	}
	if config.Bundle.Level < 0 || config.Bundle.Level > 22 {
		return nil, fmt.Errorf("bundle level must be between 1 and 22")
	}
	switch config.Log.Format {
	case "", "console", "json":
	default:
		return nil, fmt.Errorf("unknown log format %q", config.Log.Format)
	}
	return &config, nil
}

const configTemplate = `# sqlkit configuration
database:
  driver: %s
  host: localhost
  database: app
  user: app
  password: secret
  prefix: jos_
  timeout: %s

tables:
  - "#__users"

bundle:
  compress: true
  level: 3

transport:
  type: file
  prefix: ./dumps
  key: structure.xml

log:
  level: info
  format: console
`

// configTemplateFor returns a sample configuration for driver.
func configTemplateFor(driver string) string {
	return fmt.Sprintf(configTemplate, driver, 30*time.Second)
}
