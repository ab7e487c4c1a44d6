package surface

import (
	"context"
	"sync"
)

// Raster is one completed page rasterization: the bitmap at the requested
// zoom scale plus the page's point dimensions.
type Raster struct {
	Page         int
	Scale        float64
	Bitmap       []byte
	WidthPx      int
	HeightPx     int
	WidthPoints  float64
	HeightPoints float64
}

// Rasterizer is the external page-rasterization capability.
type Rasterizer interface {
	RasterizePage(ctx context.Context, page int, scale float64) (Raster, error)
}

// RasterizerFunc adapts a function to the Rasterizer interface.
type RasterizerFunc func(ctx context.Context, page int, scale float64) (Raster, error)

func (f RasterizerFunc) RasterizePage(ctx context.Context, page int, scale float64) (Raster, error) {
	return f(ctx, page, scale)
}

// rasterState tracks the in-flight rasterization. Requests are generation
// stamped: a newer request both cancels the older context and bumps the
// generation, so a slow result that survives cancellation is still discarded
// at delivery time.
type rasterState struct {
	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

// RequestRaster starts an asynchronous rasterization of page at scale and
// delivers the result via deliver. If another request arrives before this one
// completes, the stale result is dropped; deliver is invoked only for the
// newest request. deliver runs on the rasterization goroutine; onErr (may be
// nil) receives failures other than cancellation.
func (s *Session) RequestRaster(ctx context.Context, rz Rasterizer, page int, scale float64, deliver func(Raster), onErr func(error)) {
	s.raster.mu.Lock()
	if s.raster.cancel != nil {
		s.raster.cancel()
	}
	s.raster.gen++
	gen := s.raster.gen
	rctx, cancel := context.WithCancel(ctx)
	s.raster.cancel = cancel
	s.raster.mu.Unlock()

	go func() {
		defer cancel()

		raster, err := rz.RasterizePage(rctx, page, scale)
		if err != nil {
			if onErr != nil && rctx.Err() == nil {
				onErr(err)
			}
			return
		}

		s.raster.mu.Lock()
		current := s.raster.gen == gen
		if current && raster.Scale > 0 {
			// Record unscaled page bounds for gesture clamping.
			s.bounds[page] = [2]float64{
				float64(raster.WidthPx) / raster.Scale,
				float64(raster.HeightPx) / raster.Scale,
			}
		}
		s.raster.mu.Unlock()

		if current {
			deliver(raster)
		}
	}()
}
