package loader

import (
	"github.com/Carmen-Shannon/oxy-glb/engine/model"
	"github.com/Carmen-Shannon/oxy-glb/internal/config"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"go.uber.org/zap"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithConfig is an option builder that applies a whole configuration: worker pool size,
// fetch timeout, base directory, V-flip generators, mip generation and device index width.
// Options given after it override the values it sets.
//
// Parameters:
//   - cfg: the configuration
//
// Returns:
//   - LoaderBuilderOption: a function that applies the config option to a loader
func WithConfig(cfg *config.Config) LoaderBuilderOption {
	return func(l *loader) {
		if cfg != nil {
			applyConfig(l, cfg)
		}
	}
}

// WithLogger is an option builder that sets the logger used by the Loader.
func WithLogger(log *zap.Logger) LoaderBuilderOption {
	return func(l *loader) {
		l.log = log
	}
}

// WithCodecContext is an option builder that sets the geometry compression codec context.
// Without one, compressed primitives fall back to their uncompressed data or are dropped.
//
// Parameters:
//   - codec: the shared codec context
//
// Returns:
//   - LoaderBuilderOption: a function that applies the codec option to a loader
func WithCodecContext(codec *CodecContext) LoaderBuilderOption {
	return func(l *loader) {
		l.codec = codec
	}
}

// WithFetcher is an option builder that replaces the resolver for external URIs.
func WithFetcher(f Fetcher) LoaderBuilderOption {
	return func(l *loader) {
		l.fetcher = f
	}
}

// WithHooks is an option builder that sets the stage hooks applied to every import.
func WithHooks(h *Hooks) LoaderBuilderOption {
	return func(l *loader) {
		l.hooks = h
	}
}

// WithUint32Indices is an option builder that declares whether the target device supports
// 32-bit indices. Without support, large meshes are truncated to 16-bit indices.
func WithUint32Indices(supported bool) LoaderBuilderOption {
	return func(l *loader) {
		l.opts.uint32Indices = supported
	}
}

// WithWorkers is an option builder that sets the size of the loader's worker pool.
// Zero runs every stage on the calling goroutine.
func WithWorkers(n int) LoaderBuilderOption {
	return func(l *loader) {
		l.workers = max(0, n)
	}
}

// WithWorkerPool is an option builder that shares an existing worker pool. The loader does
// not stop a shared pool on Close.
//
// Parameters:
//   - pool: the pool to submit stage tasks to
//
// Returns:
//   - LoaderBuilderOption: a function that applies the pool option to a loader
func WithWorkerPool(pool worker.DynamicWorkerPool) LoaderBuilderOption {
	return func(l *loader) {
		l.pool = pool
		l.sharedPool = true
	}
}

// WithBaseDir is an option builder that sets the directory relative locations resolve against.
func WithBaseDir(dir string) LoaderBuilderOption {
	return func(l *loader) {
		l.baseDir = dir
	}
}

// WithBundle is an option builder that pre-populates the cache with a bundle.
//
// Parameters:
//   - key: the cache key for the bundle
//   - b: the bundle to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the bundle option to a loader
func WithBundle(key string, b model.ResourceBundle) LoaderBuilderOption {
	return func(l *loader) {
		l.cache[key] = b
	}
}
