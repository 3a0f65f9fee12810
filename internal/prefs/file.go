package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// errCorrupt marks a stored document that could not be decoded.
var errCorrupt = errors.New("corrupt user language document")

// fileLocks serializes read-merge-write cycles on each path within the
// process. Writers in separate processes should use SQLite or S3.
var fileLocks sync.Map

// FileBacking stores the mapping in a single local document. Paths ending
// in .yaml or .yml are written as YAML, anything else as indented JSON.
type FileBacking struct {
	path string
}

// NewFileBacking returns a backing for the document at path.
func NewFileBacking(path string) *FileBacking {
	return &FileBacking{path: path}
}

func (f *FileBacking) yaml() bool {
	ext := strings.ToLower(filepath.Ext(f.path))
	return ext == ".yaml" || ext == ".yml"
}

func (f *FileBacking) lock() *sync.Mutex {
	key := f.path
	if abs, err := filepath.Abs(f.path); err == nil {
		key = abs
	}
	mu, _ := fileLocks.LoadOrStore(key, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Load reads the document. A missing or empty file is an empty mapping.
func (f *FileBacking) Load(ctx context.Context) (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.path, err)
	}

	prefs := map[string]string{}
	if len(strings.TrimSpace(string(data))) == 0 {
		return prefs, nil
	}

	if f.yaml() {
		err = yaml.Unmarshal(data, &prefs)
	} else {
		err = json.Unmarshal(data, &prefs)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errCorrupt, f.path, err)
	}
	return prefs, nil
}

// Lookup reads the document and returns the entry for userID.
func (f *FileBacking) Lookup(ctx context.Context, userID string) (string, bool, error) {
	prefs, err := f.Load(ctx)
	if err != nil {
		return "", false, err
	}
	code, ok := prefs[userID]
	return code, ok, nil
}

// Put re-reads the document, sets one entry and writes it back. A corrupt
// document is replaced.
func (f *FileBacking) Put(ctx context.Context, userID, code string) error {
	mu := f.lock()
	mu.Lock()
	defer mu.Unlock()

	prefs, err := f.Load(ctx)
	if errors.Is(err, errCorrupt) {
		prefs, err = map[string]string{}, nil
	}
	if err != nil {
		return err
	}
	prefs[userID] = code
	return f.write(prefs)
}

// write encodes the document to a temporary file and renames it into place.
func (f *FileBacking) write(prefs map[string]string) error {
	var (
		data []byte
		err  error
	)
	if f.yaml() {
		data, err = yaml.Marshal(prefs)
	} else {
		data, err = json.MarshalIndent(prefs, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to encode user languages: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmp.Name(), err)
	}

	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", f.path, err)
	}
	return nil
}
