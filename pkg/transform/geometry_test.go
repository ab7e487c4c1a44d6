package transform

import (
	"context"
	"errors"
	"testing"
)

func TestGeometryCacheLazySingleFetch(t *testing.T) {
	calls := 0
	src := GeometrySourceFunc(func(ctx context.Context, page int) (PageGeometry, error) {
		calls++
		return PageGeometry{WidthPoints: 612, HeightPoints: 792}, nil
	})
	cache := NewGeometryCache(src)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		geom, err := cache.PageGeometry(ctx, 2)
		if err != nil {
			t.Fatalf("PageGeometry: %v", err)
		}
		if geom.PageNumber != 2 || geom.WidthPoints != 612 {
			t.Fatalf("unexpected geometry %+v", geom)
		}
	}
	if calls != 1 {
		t.Fatalf("source consulted %d times, want 1", calls)
	}
}

func TestGeometryCacheDoesNotCacheFailures(t *testing.T) {
	calls := 0
	src := GeometrySourceFunc(func(ctx context.Context, page int) (PageGeometry, error) {
		calls++
		if calls == 1 {
			return PageGeometry{}, errors.New("transient")
		}
		return PageGeometry{WidthPoints: 612, HeightPoints: 792}, nil
	})
	cache := NewGeometryCache(src)
	ctx := context.Background()

	if _, err := cache.PageGeometry(ctx, 1); err == nil {
		t.Fatal("first call should fail")
	}
	if _, err := cache.PageGeometry(ctx, 1); err != nil {
		t.Fatalf("retry should succeed, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("source consulted %d times, want 2", calls)
	}
}

func TestGeometryCacheRejectsBadPage(t *testing.T) {
	cache := NewGeometryCache(GeometrySourceFunc(func(ctx context.Context, page int) (PageGeometry, error) {
		t.Fatal("source must not be consulted for invalid pages")
		return PageGeometry{}, nil
	}))
	if _, err := cache.PageGeometry(context.Background(), 0); err == nil {
		t.Fatal("page 0 should error")
	}
}
