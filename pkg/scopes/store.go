package scopes

import (
	"sync/atomic"
)

// Store holds the currently active scope policy Document behind an
// atomic.Pointer, so a reload can swap in a new Document without any
// in-flight Resolve call ever observing a half-updated document.
type Store struct {
	path string
	doc  atomic.Pointer[Document]
}

// NewStore constructs an empty Store. Current returns nil until Load
// succeeds, which Resolve treats as the permissive-bootstrap case.
func NewStore() *Store {
	return &Store{}
}

// Load reads the document at path and installs it as current.
func (s *Store) Load(path string) error {
	doc, err := LoadDocument(path)
	if err != nil {
		return err
	}
	s.path = path
	s.doc.Store(doc)
	return nil
}

// Reload re-reads the document from the path last passed to Load.
func (s *Store) Reload() error {
	if s.path == "" {
		return nil
	}
	return s.Load(s.path)
}

// Current returns the active Document, or nil if none has been loaded.
func (s *Store) Current() *Document {
	return s.doc.Load()
}
