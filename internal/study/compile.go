package study

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Funz/fz-go/internal/template"
	"github.com/Funz/fz-go/pkg/config"
)

// CompileError reports an I/O failure while writing a case directory. It is
// fatal for the case and never retried.
type CompileError struct {
	Dir string
	Err error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("failed to compile case into %s: %v", e.Dir, e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// Manifest records how a case directory was produced. It makes the
// name -> assignment round-trip explicit and survives the study.
type Manifest struct {
	Case      string            `json:"case"`
	Model     string            `json:"model"`
	Template  string            `json:"template"`
	Attempt   int               `json:"attempt"`
	Assigned  map[string]string `json:"assigned"`
	CreatedAt string            `json:"created_at"`
}

// ManifestFile is the manifest filename inside every case directory
const ManifestFile = "case.json"

// Compile substitutes the case's assignment into the template and writes the
// compiled input plus a manifest into a fresh directory under root. The
// directory must not already exist: case names are injective and attempts are
// suffixed, so a collision is an error, not something to merge over.
func Compile(tmpl *template.Template, m *config.Model, c *Case, root string) error {
	compiled, err := template.Substitute(tmpl.Text, m, c.SubstitutionValues())
	if err != nil {
		return err
	}

	if err := os.MkdirAll(root, 0o755); err != nil {
		return &CompileError{Dir: root, Err: err}
	}

	dir := filepath.Join(root, c.DirName())
	if err := os.Mkdir(dir, 0o755); err != nil {
		return &CompileError{Dir: dir, Err: err}
	}

	if err := os.WriteFile(filepath.Join(dir, tmpl.Name), []byte(compiled), 0o644); err != nil {
		return &CompileError{Dir: dir, Err: err}
	}

	manifest := Manifest{
		Case:      c.Name,
		Model:     m.ID,
		Template:  tmpl.Name,
		Attempt:   c.Attempt,
		Assigned:  c.SubstitutionValues(),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	data, err := json.MarshalIndent(&manifest, "", "  ")
	if err != nil {
		return &CompileError{Dir: dir, Err: err}
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), data, 0o644); err != nil {
		return &CompileError{Dir: dir, Err: err}
	}

	c.Dir = dir
	return nil
}

// ReadManifest loads the manifest from a case directory
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read case manifest in %s: %w", dir, err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse case manifest in %s: %w", dir, err)
	}
	return &m, nil
}
