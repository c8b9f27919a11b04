package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/CoMatu/test-gql-server/internal/ir"
)

// JSONFiles persists each collection as <Dir>/<collection>.json, a JSON
// array indented with two spaces.
type JSONFiles struct {
	Dir string
}

// NewJSONFiles returns a JSONFiles persister rooted at dir. The directory is
// created on first Save.
func NewJSONFiles(dir string) *JSONFiles {
	return &JSONFiles{Dir: dir}
}

// Path returns the file backing a collection.
func (j *JSONFiles) Path(collection string) string {
	return filepath.Join(j.Dir, collection+".json")
}

// Load implements Persister. A missing file is ErrNoCollection; an
// unreadable or unparsable file is an ordinary error.
func (j *JSONFiles) Load(collection string) ([]ir.IRObject, error) {
	path := j.Path(collection)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoCollection
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var records []ir.IRObject
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for i, r := range records {
		if r == nil {
			return nil, fmt.Errorf("parse %s: element %d is not an object", path, i)
		}
	}
	return records, nil
}

// Save implements Persister. The file is replaced atomically.
func (j *JSONFiles) Save(collection string, records []ir.IRObject) error {
	if records == nil {
		records = []ir.IRObject{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode %s: %w", collection, err)
	}

	if err := os.MkdirAll(j.Dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", j.Dir, err)
	}

	path := j.Path(collection)
	tmp, err := os.CreateTemp(j.Dir, ".tmp-"+collection+"-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	return nil
}
