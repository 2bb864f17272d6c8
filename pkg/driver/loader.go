package driver

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kritixilithos/roda/pkg/ast"
	"github.com/kritixilithos/roda/pkg/interpreter"
)

// LoadProgram reads a serialized program (YAML or JSON) from disk.
func LoadProgram(path string) (*ast.Program, error) {
	data, err := readSource(path)
	if err != nil {
		return nil, err
	}
	prog, err := ast.DecodeProgram(data)
	if err != nil {
		return nil, fmt.Errorf("loader: %s: %w", path, err)
	}
	return prog, nil
}

// LoadStatement reads a serialized statement (YAML or JSON) from disk.
func LoadStatement(path string) (*ast.Statement, error) {
	data, err := readSource(path)
	if err != nil {
		return nil, err
	}
	stmt, err := ast.DecodeStatement(data)
	if err != nil {
		return nil, fmt.Errorf("loader: %s: %w", path, err)
	}
	return stmt, nil
}

func readSource(path string) ([]byte, error) {
	if path == "" {
		return nil, fmt.Errorf("loader: empty path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("loader: resolve %s: %w", path, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("loader: read %s: %w", abs, err)
	}
	return data, nil
}

// Options translates cfg into interpreter options.
func (c *Config) Options() []interpreter.Option {
	return []interpreter.Option{
		interpreter.WithDebug(c.Debug),
		interpreter.WithMaxDepth(c.MaxDepth),
		interpreter.WithMaxWorkers(c.MaxWorkers),
		interpreter.WithStreamCapacity(c.StreamCapacity),
	}
}
