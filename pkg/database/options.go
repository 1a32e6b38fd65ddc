package database

import (
	"fmt"
	"os"
	"time"

	"github.com/zeebo/xxh3"
	"gopkg.in/yaml.v3"
)

// Options configures a driver. They are read once when the driver is
// created and never changed afterwards.
type Options struct {
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty"`
	User     string `yaml:"user,omitempty"`
	Password string `yaml:"password,omitempty"`
	Database string `yaml:"database,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
	Charset  string `yaml:"charset,omitempty"`
	Schema   string `yaml:"schema,omitempty"`
	// Select makes the driver select Database after connecting. Engines
	// that bind the database in the DSN ignore it.
	Select    *bool         `yaml:"select,omitempty"`
	SSLMode   string        `yaml:"sslmode,omitempty"`
	DSN       string        `yaml:"dsn,omitempty"`
	NameQuote string        `yaml:"name_quote,omitempty"`
	Debug     bool          `yaml:"debug,omitempty"`
	Timeout   time.Duration `yaml:"timeout,omitempty"`
}

// DefaultPrefix is used when Options.Prefix is empty.
const DefaultPrefix = "jos_"

// SelectDatabase reports whether the database should be selected.
func (o Options) SelectDatabase() bool {
	return o.Select == nil || *o.Select
}

// Signature identifies the options for the driver cache.
func (o Options) Signature() string {
	sel := o.SelectDatabase()
	o.Select = nil
	return fmt.Sprintf("%016x", xxh3.HashString(fmt.Sprintf("%#v|%v", o, sel)))
}

// Validate checks the options before a connection is attempted.
func (o Options) Validate() error {
	if o.Driver == "" {
		return Errorf(KindConfiguration, "Options", "driver is required")
	}
	if o.Port < 0 || o.Port > 65535 {
		return Errorf(KindConfiguration, "Options", "invalid port %d", o.Port)
	}
	if o.Timeout < 0 {
		return Errorf(KindConfiguration, "Options", "timeout must be >= 0")
	}
	return nil
}

// LoadOptions reads options from a YAML file.
func LoadOptions(path string) (Options, error) {
	var o Options
	data, err := os.ReadFile(path)
	if err != nil {
		return o, NewError(KindConfiguration, "LoadOptions", fmt.Errorf("failed to read config file: %w", err))
	}
	if err := yaml.Unmarshal(data, &o); err != nil {
		return o, NewError(KindConfiguration, "LoadOptions", fmt.Errorf("failed to parse config file: %w", err))
	}
	return o, o.Validate()
}
