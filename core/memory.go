package core

import "sync"

// RunMemory is the per-run mutable record of retrieved documents and free
// text progress notes. A fresh instance is created at the start of each
// pipeline run, threaded through the run as an explicit handle, and discarded
// when the run ends. Nothing survives across runs.
//
// Concurrency: protected by a mutex since tools may record documents from
// the graph's execution goroutine while a streaming consumer reads.
type RunMemory struct {
	mu    sync.Mutex
	docs  []Document
	seen  map[string]bool
	notes []string
}

// NewRunMemory creates an empty run memory.
func NewRunMemory() *RunMemory {
	return &RunMemory{seen: make(map[string]bool)}
}

// AddDocument records a retrieved document. Documents sharing an identity key
// with an earlier entry are dropped; first-seen order is preserved.
func (m *RunMemory) AddDocument(doc Document) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := doc.Key()
	if m.seen[key] {
		return
	}
	m.seen[key] = true
	m.docs = append(m.docs, doc)
}

// AddDocuments records a batch of documents preserving order.
func (m *RunMemory) AddDocuments(docs ...Document) {
	for _, doc := range docs {
		m.AddDocument(doc)
	}
}

// AddNote appends a free text progress note.
func (m *RunMemory) AddNote(note string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.notes = append(m.notes, note)
}

// Documents returns the deduplicated documents in first-seen order.
func (m *RunMemory) Documents() []Document {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Document, len(m.docs))
	copy(out, m.docs)
	return out
}

// Notes returns the recorded progress notes in insertion order.
func (m *RunMemory) Notes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, len(m.notes))
	copy(out, m.notes)
	return out
}
