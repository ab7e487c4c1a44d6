package transform

import (
	"context"
	"fmt"
	"sync"
)

// PageGeometry is the immutable point-space size of one document page.
type PageGeometry struct {
	PageNumber   int
	WidthPoints  float64
	HeightPoints float64
}

// GeometrySource resolves page geometry on demand. Implementations typically
// wrap the rasterizer or the PDF document itself.
type GeometrySource interface {
	PageGeometry(ctx context.Context, page int) (PageGeometry, error)
}

// GeometrySourceFunc adapts a function to the GeometrySource interface.
type GeometrySourceFunc func(ctx context.Context, page int) (PageGeometry, error)

func (f GeometrySourceFunc) PageGeometry(ctx context.Context, page int) (PageGeometry, error) {
	return f(ctx, page)
}

// GeometryCache memoizes a GeometrySource for the lifetime of an editing
// session. Pages are fetched lazily on first use; failures are not cached so
// a transient error can be retried.
type GeometryCache struct {
	mu    sync.Mutex
	src   GeometrySource
	pages map[int]PageGeometry
}

// NewGeometryCache wraps src with a session-lifetime cache.
func NewGeometryCache(src GeometrySource) *GeometryCache {
	return &GeometryCache{
		src:   src,
		pages: make(map[int]PageGeometry),
	}
}

// PageGeometry returns the cached geometry for page, consulting the source on
// a miss.
func (c *GeometryCache) PageGeometry(ctx context.Context, page int) (PageGeometry, error) {
	if page < 1 {
		return PageGeometry{}, fmt.Errorf("transform: page %d out of range", page)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if geom, ok := c.pages[page]; ok {
		return geom, nil
	}
	geom, err := c.src.PageGeometry(ctx, page)
	if err != nil {
		return PageGeometry{}, fmt.Errorf("transform: resolve page %d geometry: %w", page, err)
	}
	geom.PageNumber = page
	c.pages[page] = geom
	return geom, nil
}
