package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore persists the ledger as one JSON document, fully rewritten on
// every save.
type FileStore struct {
	path string
}

type fileDocument struct {
	Records []Record `json:"records"`
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the document. A missing file returns fs.ErrNotExist so Open can
// bootstrap an empty ledger; malformed JSON returns the parse error.
func (s *FileStore) Load() ([]Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	var doc fileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse ledger %s: %w", s.path, err)
	}
	return doc.Records, nil
}

func (s *FileStore) Save(records []Record) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create ledger directory %s: %w", dir, err)
	}

	doc := fileDocument{Records: records}
	if doc.Records == nil {
		doc.Records = []Record{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal ledger: %w", err)
	}
	return os.WriteFile(s.path, data, 0o644)
}
