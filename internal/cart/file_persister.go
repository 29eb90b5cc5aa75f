package cart

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// ErrPathRequired indicates the file persister was built without a path.
var ErrPathRequired = errors.New("cart: persister path is required")

// FilePersister serializes the cart as JSON to a single local file, the
// server-side stand-in for the browser's durable storage.
type FilePersister struct {
	path string
}

// NewFilePersister builds a persister writing to the given path.
func NewFilePersister(path string) (*FilePersister, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, ErrPathRequired
	}
	return &FilePersister{path: path}, nil
}

// Load reads and decodes the cart file. A missing file yields an empty cart;
// a malformed file is discarded silently rather than failing startup.
func (p *FilePersister) Load() ([]Line, error) {
	raw, err := os.ReadFile(p.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, nil
	}
	var lines []Line
	if err := json.Unmarshal(raw, &lines); err != nil {
		return nil, nil
	}
	return lines, nil
}

// Save writes the cart atomically via a temp file rename. An empty cart
// removes the file, matching the original's removal of the storage key.
func (p *FilePersister) Save(lines []Line) error {
	if len(lines) == 0 {
		if err := os.Remove(p.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return nil
	}
	raw, err := json.Marshal(lines)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return err
	}
	tmp := p.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, p.path)
}
