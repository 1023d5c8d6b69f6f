package core

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunMemoryDedup(t *testing.T) {
	mem := NewRunMemory()

	docA := Document{ID: "a", Content: "alpha"}
	docB := Document{ID: "b", Content: "beta"}

	mem.AddDocument(docA)
	mem.AddDocument(docA)
	mem.AddDocument(docB)

	docs := mem.Documents()
	assert.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0].ID)
	assert.Equal(t, "b", docs[1].ID)
}

func TestRunMemoryDedupKeyFallback(t *testing.T) {
	mem := NewRunMemory()

	// Without IDs the source acts as identity, then the content.
	mem.AddDocument(Document{Source: "s1", Content: "one"})
	mem.AddDocument(Document{Source: "s1", Content: "changed"})
	mem.AddDocument(Document{Content: "bare"})
	mem.AddDocument(Document{Content: "bare"})

	assert.Len(t, mem.Documents(), 2)
}

func TestRunMemoryNotes(t *testing.T) {
	mem := NewRunMemory()
	mem.AddNote("step one")
	mem.AddNote("step two")

	notes := mem.Notes()
	assert.Equal(t, []string{"step one", "step two"}, notes)

	// The returned slice is a copy.
	notes[0] = "mutated"
	assert.Equal(t, "step one", mem.Notes()[0])
}

func TestRunMemoryConcurrentAdds(t *testing.T) {
	mem := NewRunMemory()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			mem.AddDocument(Document{ID: "shared"})
			mem.AddNote("note")
		}()
	}
	wg.Wait()

	assert.Len(t, mem.Documents(), 1)
	assert.Len(t, mem.Notes(), 10)
}
