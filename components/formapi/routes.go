package formapi

import (
	"errors"
	"net/http"
	"strings"
)

// Mux is the minimal router surface the component registers against;
// net/http's ServeMux satisfies it.
type Mux interface {
	Handle(pattern string, handler http.Handler)
}

// RegisterRoutes mounts the save handler with default options under basePath
// and returns the effective path.
func RegisterRoutes(mux Mux, basePath string, fns ...OptionFn) (string, error) {
	return RegisterRoutesWithOptions(mux, basePath, NewOptions(fns...))
}

// RegisterRoutesWithOptions mounts the save handler built from opts.
func RegisterRoutesWithOptions(mux Mux, basePath string, opts Options) (string, error) {
	if mux == nil {
		return "", errors.New("formapi: mux is required")
	}
	opts = NewOptions(func(o *Options) { *o = opts })

	path := joinPath(basePath, opts.RoutePath)
	mux.Handle(path, HandlerWithOptions(opts))
	return path, nil
}

func joinPath(base, route string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	route = "/" + strings.TrimLeft(strings.TrimSpace(route), "/")
	if base == "" {
		return route
	}
	return base + route
}
