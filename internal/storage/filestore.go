package storage

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileStore persists each table as one JSON document under a data
// directory. Writes go through a temp file and rename so a record is either
// fully replaced or untouched.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

func NewFileStore(dir string) (*FileStore, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("storage: data directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("storage: create data dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (f *FileStore) Get(ctx context.Context, table, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.readTable(table)
	if err != nil {
		return nil, err
	}
	encoded, ok := doc[key]
	if !ok {
		return nil, nil
	}
	value, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("storage: corrupt value for %s/%s: %w", table, key, err)
	}
	return value, nil
}

func (f *FileStore) Set(ctx context.Context, table, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.readTable(table)
	if err != nil {
		return err
	}
	doc[key] = base64.StdEncoding.EncodeToString(value)
	return f.writeTable(table, doc)
}

func (f *FileStore) Delete(ctx context.Context, table, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.readTable(table)
	if err != nil {
		return false, err
	}
	if _, ok := doc[key]; !ok {
		return false, nil
	}
	delete(doc, key)
	return true, f.writeTable(table, doc)
}

func (f *FileStore) Clear(ctx context.Context, table string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	err := os.Remove(f.tablePath(table))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: clear %s: %w", table, err)
	}
	return nil
}

func (f *FileStore) tablePath(table string) string {
	return filepath.Join(f.dir, table+".json")
}

func (f *FileStore) readTable(table string) (map[string]string, error) {
	raw, err := os.ReadFile(f.tablePath(table))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return make(map[string]string), nil
		}
		return nil, fmt.Errorf("storage: read %s: %w", table, err)
	}
	doc := make(map[string]string)
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("storage: parse %s: %w", table, err)
	}
	return doc, nil
}

func (f *FileStore) writeTable(table string, doc map[string]string) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	path := f.tablePath(table)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o600); err != nil {
		return fmt.Errorf("storage: write %s: %w", table, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("storage: replace %s: %w", table, err)
	}
	return nil
}
