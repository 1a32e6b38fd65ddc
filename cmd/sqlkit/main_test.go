package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	f, err := ParseFlags([]string{"-export", "#__users", "-bundle", "-send"})
	require.NoError(t, err)
	require.Equal(t, "#__users", *f.Export)
	require.True(t, *f.Bundle)
	require.True(t, *f.Send)
	require.Equal(t, "config.yaml", *f.Config)
	require.True(t, commandWasSpecified(f))

	f, err = ParseFlags(nil)
	require.NoError(t, err)
	require.False(t, commandWasSpecified(f))

	_, err = ParseFlags([]string{"-nope"})
	require.Error(t, err)
}

func TestLoadConfig_Template(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(configTemplateFor("mysql")), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "mysql", cfg.Database.Driver)
	require.Equal(t, "jos_", cfg.Database.Prefix)
	require.Equal(t, 30*time.Second, cfg.Database.Timeout)
	require.Equal(t, []string{"#__users"}, cfg.Tables)
	require.Equal(t, "file", cfg.Transport.Type)
	require.Equal(t, "structure.xml", cfg.Transport.Key)
	require.True(t, cfg.Bundle.Compress)
	require.False(t, cfg.Bundle.Options().Disable)
	require.Nil(t, cfg.QueryLog)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no driver", "database:\n  host: x\n"},
		{"bad level", "database:\n  driver: sqlite\nbundle:\n  level: 40\n"},
		{"bad log format", "database:\n  driver: sqlite\nlog:\n  format: xml\n"},
		{"not yaml", "database: ["},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))
			_, err := LoadConfig(path)
			require.Error(t, err)
		})
	}

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestTableList(t *testing.T) {
	require.Equal(t, []string{"#__a", "#__b"}, tableList(" #__a, ,#__b", nil))
	require.Equal(t, []string{"x"}, tableList("-", []string{"x"}))
}
