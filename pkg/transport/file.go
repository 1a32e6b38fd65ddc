package transport

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// File keeps bundles in a local directory, mostly for air-gapped
// transfers and tests.
type File struct {
	config Config
}

func NewFile(cfg Config) (*File, error) {
	if cfg.Prefix == "" {
		return nil, fmt.Errorf("prefix (directory) is required for file transport")
	}
	return &File{config: cfg}, nil
}

func (f *File) Connect(context.Context) error {
	if err := os.MkdirAll(f.config.Prefix, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return nil
}

func (f *File) Close() error { return nil }

func (f *File) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	return filepath.Join(f.config.Prefix, name), nil
}

// Send writes the body atomically via a temporary file.
func (f *File) Send(_ context.Context, msg Message) error {
	target, err := f.path(msg.Name)
	if err != nil {
		return err
	}
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, msg.Body, 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to move file into place: %w", err)
	}
	return nil
}

func (f *File) Receive(_ context.Context) (Message, error) {
	target, err := f.path(f.config.Key)
	if err != nil {
		return Message{}, err
	}
	body, err := os.ReadFile(target)
	if err != nil {
		return Message{}, fmt.Errorf("failed to read file: %w", err)
	}
	return Message{Name: f.config.Key, Body: body}, nil
}

func (f *File) Ack(context.Context) error { return nil }

func (f *File) Ping(context.Context) error {
	info, err := os.Stat(f.config.Prefix)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", f.config.Prefix)
	}
	return nil
}

func (f *File) Type() string { return "file" }
