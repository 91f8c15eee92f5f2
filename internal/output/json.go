package output

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

type partitionFile struct {
	path string
	file *os.File
}

// JSONStore appends newline-delimited JSON documents under
// basePath/collection/year=/month=/day=/hour=/data.json. Only the current
// partition of each collection is held open.
type JSONStore struct {
	basePath string
	mu       sync.Mutex
	files    map[string]*partitionFile
}

func NewJSONStore(basePath string) *JSONStore {
	return &JSONStore{
		basePath: basePath,
		files:    make(map[string]*partitionFile),
	}
}

func (j *JSONStore) Insert(ctx context.Context, collection string, doc any) error {
	_, at, err := documentKey(doc)
	if err != nil {
		return err
	}

	jsonData, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("error serializing %s document: %w", collection, err)
	}

	fullPath := filepath.Join(j.basePath, collection, partitionPath(at))
	filePath := filepath.Join(fullPath, "data.json")

	j.mu.Lock()
	defer j.mu.Unlock()

	current, ok := j.files[collection]
	if !ok || current.path != filePath {
		if ok {
			if err := current.file.Close(); err != nil {
				return fmt.Errorf("closing %s: %w", current.path, err)
			}
			delete(j.files, collection)
		}
		if err := os.MkdirAll(fullPath, os.ModePerm); err != nil {
			return err
		}
		file, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		current = &partitionFile{path: filePath, file: file}
		j.files[collection] = current
	}

	if _, err := current.file.Write(append(jsonData, '\n')); err != nil {
		return err
	}
	return current.file.Sync()
}

func (j *JSONStore) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	var lastErr error
	for collection, pf := range j.files {
		if err := pf.file.Close(); err != nil {
			lastErr = err
		}
		delete(j.files, collection)
	}
	return lastErr
}
