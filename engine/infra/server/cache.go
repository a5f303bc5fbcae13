package server

import (
	"fmt"

	"github.com/compozy/docchunk/engine/document"
	"github.com/dgraph-io/ristretto/v2"
)

// detailCache keeps terminal document details, which never change until the
// document is deleted. Cost is measured in bytes of text held.
type detailCache struct {
	cache *ristretto.Cache[string, *document.Detail]
}

func newDetailCache(maxBytes int64) (*detailCache, error) {
	if maxBytes <= 0 {
		return nil, nil
	}
	cache, err := ristretto.NewCache(&ristretto.Config[string, *document.Detail]{
		NumCounters: 10_000,
		MaxCost:     maxBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("server: create detail cache: %w", err)
	}
	return &detailCache{cache: cache}, nil
}

func (d *detailCache) get(id string) (*document.Detail, bool) {
	if d == nil {
		return nil, false
	}
	return d.cache.Get(id)
}

func (d *detailCache) set(detail *document.Detail) {
	if d == nil || detail == nil || detail.Document == nil || !detail.Status.IsTerminal() {
		return
	}
	cost := int64(len(detail.Content)) + 1
	for i := range detail.Chunks {
		cost += int64(len(detail.Chunks[i].Content))
	}
	d.cache.Set(detail.ID, detail, cost)
}

func (d *detailCache) del(id string) {
	if d == nil {
		return
	}
	d.cache.Del(id)
}

func (d *detailCache) close() {
	if d == nil {
		return
	}
	d.cache.Close()
}
