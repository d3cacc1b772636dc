package shoppinglist

import (
	"context"
	"sync"
)

type memoryRepository struct {
	mu       sync.Mutex
	data     []byte
	defaults Defaults
}

// NewMemoryRepository keeps the encoded document in process memory, the
// server-side counterpart of browser local storage.
func NewMemoryRepository(defaults Defaults) Repository {
	return &memoryRepository{defaults: defaults}
}

func (r *memoryRepository) Load(ctx context.Context) (*Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.data == nil {
		doc := r.defaults.Document()
		data, err := EncodeDocument(doc)
		if err != nil {
			return nil, err
		}
		r.data = data
		return doc, nil
	}

	doc, err := DecodeDocument(r.data, r.defaults)
	if err != nil {
		return r.defaults.Document(), nil
	}
	return doc, nil
}

func (r *memoryRepository) Save(ctx context.Context, doc *Document) error {
	data, err := EncodeDocument(doc)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.data = data
	r.mu.Unlock()
	return nil
}
