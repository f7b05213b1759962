package template

import (
	"fmt"
	"os"
	"path/filepath"
)

// Template is solver input text plus the filename it compiles to inside each
// case directory.
type Template struct {
	Name string
	Text string
}

// Load reads a template file from disk. The basename is kept so that the
// compiled input inside every case directory carries the same filename the
// solver expects.
func Load(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", path, err)
	}
	return &Template{
		Name: filepath.Base(path),
		Text: string(data),
	}, nil
}
