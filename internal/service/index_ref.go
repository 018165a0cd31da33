package service

import (
	"sync"

	"github.com/mitra-ai/docchat/internal/vectorindex"
)

// IndexRef holds the currently active vector index. Uploading a new document
// swaps the whole index atomically; queries in flight keep the one they read.
// Every publish bumps the generation, so re-uploading a document under the
// same filename is distinguishable from the build it replaces.
type IndexRef struct {
	mu   sync.RWMutex
	idx  vectorindex.Index
	name string
	gen  uint64
}

func NewIndexRef() *IndexRef {
	return &IndexRef{}
}

func (r *IndexRef) Publish(idx vectorindex.Index, name string) {
	r.mu.Lock()
	r.idx = idx
	r.name = name
	r.gen++
	r.mu.Unlock()
}

func (r *IndexRef) Get() (vectorindex.Index, string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.idx, r.name, r.idx != nil
}

// Current is Get plus the publish generation, read under one lock so the
// index and its generation always match.
func (r *IndexRef) Current() (vectorindex.Index, string, uint64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.idx, r.name, r.gen, r.idx != nil
}
