package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"firestore-setup/internal/setup/domain/model"
	"firestore-setup/internal/shared/firestore"
)

// DocumentWriter keeps documents in process memory. It backs dry runs and
// tests; nothing is persisted.
type DocumentWriter struct {
	mu     sync.RWMutex
	docs   map[string]map[string]interface{}
	writes int
	now    func() time.Time
	closed bool
}

// NewDocumentWriter creates an empty in-memory writer
func NewDocumentWriter() *DocumentWriter {
	return NewDocumentWriterWithClock(func() time.Time { return time.Now().UTC() })
}

// NewDocumentWriterWithClock uses now to resolve server timestamps
func NewDocumentWriterWithClock(now func() time.Time) *DocumentWriter {
	return &DocumentWriter{
		docs: make(map[string]map[string]interface{}),
		now:  now,
	}
}

// SetDocument replaces the stored document at collection/documentID
func (w *DocumentWriter) SetDocument(_ context.Context, collection, documentID string, fields map[string]interface{}) error {
	path := firestore.BuildDocumentPath(collection, documentID)
	if err := firestore.ValidateDocumentPath(path); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	stored := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		if model.IsServerTimestamp(v) {
			v = w.now()
		}
		stored[k] = v
	}
	w.docs[path] = stored
	w.writes++
	return nil
}

// Get returns a copy of the document at path
func (w *DocumentWriter) Get(path string) (map[string]interface{}, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	doc, ok := w.docs[path]
	if !ok {
		return nil, false
	}
	out := make(map[string]interface{}, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out, true
}

// Paths lists stored document paths in sorted order
func (w *DocumentWriter) Paths() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	paths := make([]string, 0, len(w.docs))
	for p := range w.docs {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Writes counts SetDocument calls that succeeded
func (w *DocumentWriter) Writes() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.writes
}

// Target implements repository.DocumentWriter
func (w *DocumentWriter) Target() string {
	return "in-memory (dry run)"
}

// Close implements repository.DocumentWriter
func (w *DocumentWriter) Close() error {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	return nil
}

// Closed reports whether Close was called
func (w *DocumentWriter) Closed() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.closed
}
