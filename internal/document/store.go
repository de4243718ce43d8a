package document

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// Stored is one parsed document kept for reuse across conversations.
type Stored struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Content    string    `json:"content"`
	FileType   string    `json:"file_type"`
	Size       int       `json:"size"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Stats summarizes the store for the stats endpoint.
type Stats struct {
	Count      int `json:"count"`
	TotalBytes int `json:"total_bytes"`
}

// FileStore is a thread-safe document store persisted as one JSON file.
// Data structure: RWMutex-protected map, written back to disk after every
// mutation.
type FileStore struct {
	mu        sync.RWMutex
	path      string
	documents map[string]Stored
	logger    *slog.Logger
}

// FileStoreOption is a functional option for configuring FileStore.
type FileStoreOption func(*FileStore)

// WithStoreLogger sets a custom logger.
func WithStoreLogger(logger *slog.Logger) FileStoreOption {
	return func(f *FileStore) {
		f.logger = logger
	}
}

// NewFileStore opens (or creates) the store backed by the JSON file at path.
func NewFileStore(path string, opts ...FileStoreOption) (*FileStore, error) {
	f := &FileStore{
		path:      path,
		documents: make(map[string]Stored),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create document directory: %w", err)
	}
	if err := f.load(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *FileStore) load() error {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read document store: %w", err)
	}
	if err := json.Unmarshal(data, &f.documents); err != nil {
		return fmt.Errorf("decode document store: %w", err)
	}
	f.logger.Info("documents loaded", slog.Int("count", len(f.documents)))
	return nil
}

// save writes the map back to disk. Callers must hold the write lock.
func (f *FileStore) save() error {
	data, err := json.MarshalIndent(f.documents, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document store: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0o644); err != nil {
		return fmt.Errorf("write document store: %w", err)
	}
	return nil
}

// Add stores a document and persists the store.
func (f *FileStore) Add(doc Stored) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now()
	}
	f.documents[doc.ID] = doc
	return f.save()
}

// Get returns a document by id.
func (f *FileStore) Get(id string) (Stored, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	doc, ok := f.documents[id]
	return doc, ok
}

// All returns every stored document, newest first.
func (f *FileStore) All() []Stored {
	f.mu.RLock()
	defer f.mu.RUnlock()

	docs := make([]Stored, 0, len(f.documents))
	for _, doc := range f.documents {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].UploadedAt.After(docs[j].UploadedAt)
	})
	return docs
}

// Delete removes a document and persists the store. The removed document is
// returned so callers can name it in responses.
func (f *FileStore) Delete(id string) (Stored, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, ok := f.documents[id]
	if !ok {
		return Stored{}, false
	}
	delete(f.documents, id)
	if err := f.save(); err != nil {
		f.logger.Error("failed to persist document delete", slog.String("error", err.Error()))
	}
	return doc, true
}

// Clear removes all documents and returns how many were dropped.
func (f *FileStore) Clear() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	count := len(f.documents)
	f.documents = make(map[string]Stored)
	if err := f.save(); err != nil {
		f.logger.Error("failed to persist document clear", slog.String("error", err.Error()))
	}
	return count
}

// Stats reports document count and total extracted-text bytes.
func (f *FileStore) Stats() Stats {
	f.mu.RLock()
	defer f.mu.RUnlock()

	stats := Stats{Count: len(f.documents)}
	for _, doc := range f.documents {
		stats.TotalBytes += doc.Size
	}
	return stats
}
