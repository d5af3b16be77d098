package loader

import (
	"context"
	"fmt"
	"io"
	"maps"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-glb/engine/model"
	"github.com/Carmen-Shannon/oxy-glb/internal/config"
	"github.com/Carmen-Shannon/oxy-glb/internal/logger"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"go.uber.org/zap"
)

// LoaderBackendType identifies the asset format backend to use.
type LoaderBackendType int

const (
	// BackendTypeGLTF selects the glTF/GLB loader backend.
	BackendTypeGLTF LoaderBackendType = iota
)

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	cache map[string]model.ResourceBundle

	backend loaderBackend

	log        *zap.Logger
	pool       worker.DynamicWorkerPool
	sharedPool bool
	fetcher    Fetcher
	codec      *CodecContext
	hooks      *Hooks

	workers      int
	queueSize    int
	fetchTimeout time.Duration
	baseDir      string
	opts         importOptions

	closeOnce sync.Once
}

// Loader defines the public-facing interface for loading and caching 3D assets.
// It abstracts the file format behind a backend and keeps the resulting bundles in a
// cache keyed by name. Cached bundles are owned by the loader until evicted.
type Loader interface {
	// Load imports an asset from a file path or an http(s) URL and caches the result under
	// that location. A cached bundle is returned without reloading. External buffers and
	// images resolve relative to the asset's own location.
	//
	// Parameters:
	//   - ctx: the context bounding fetches and pool waits
	//   - location: a file path (.gltf or .glb) or URL
	//
	// Returns:
	//   - model.ResourceBundle: the loaded bundle
	//   - error: error if loading fails
	Load(ctx context.Context, location string) (model.ResourceBundle, error)

	// LoadBytes imports an asset held in memory and caches it by name. Relative references
	// resolve against the configured base directory.
	//
	// Parameters:
	//   - ctx: the context bounding fetches and pool waits
	//   - name: the cache key
	//   - data: a binary container or JSON document
	//
	// Returns:
	//   - model.ResourceBundle: the loaded bundle
	//   - error: error if loading fails
	LoadBytes(ctx context.Context, name string, data []byte) (model.ResourceBundle, error)

	// LoadReader reads r fully and imports it like LoadBytes.
	//
	// Parameters:
	//   - ctx: the context bounding fetches and pool waits
	//   - name: the cache key
	//   - r: the reader providing the asset
	//
	// Returns:
	//   - model.ResourceBundle: the loaded bundle
	//   - error: error if reading or loading fails
	LoadReader(ctx context.Context, name string, r io.Reader) (model.ResourceBundle, error)

	// LoadSync imports an asset held in memory on the calling goroutine without resolving
	// anything external. Buffers that need a fetch fail the load; external images are
	// returned without pixels. The result is not cached.
	//
	// Parameters:
	//   - name: the bundle name
	//   - data: a binary container or JSON document
	//
	// Returns:
	//   - model.ResourceBundle: the loaded bundle
	//   - error: error if loading fails
	LoadSync(name string, data []byte) (model.ResourceBundle, error)

	// Get retrieves a cached bundle by name. Returns nil if not found.
	//
	// Parameters:
	//   - name: the cache key to look up
	//
	// Returns:
	//   - model.ResourceBundle: the cached bundle or nil
	Get(name string) model.ResourceBundle

	// Bundles returns a copy of the bundle cache.
	//
	// Returns:
	//   - map[string]model.ResourceBundle: all cached bundles keyed by name
	Bundles() map[string]model.ResourceBundle

	// Evict removes a bundle from the cache and destroys it.
	//
	// Parameters:
	//   - name: the cache key
	//
	// Returns:
	//   - bool: false if nothing was cached under name
	Evict(name string) bool

	// Close stops the worker pool. Cached bundles stay valid.
	Close()
}

var _ Loader = &loader{}

// NewLoader creates a new Loader instance with the specified backend type and options applied.
// Unless a pool is supplied, the loader starts its own worker pool sized by the configured
// worker count; a count of zero runs every stage on the calling goroutine.
//
// Parameters:
//   - backendType: the type of loader backend to use (e.g., BackendTypeGLTF)
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader configured with the provided backend and options
func NewLoader(backendType LoaderBackendType, options ...LoaderBuilderOption) Loader {
	l := &loader{
		mu:    sync.RWMutex{},
		cache: make(map[string]model.ResourceBundle),
	}
	applyConfig(l, config.Default())

	for _, option := range options {
		option(l)
	}

	if l.log == nil {
		l.log = logger.Named("loader")
	}
	if l.pool == nil && l.workers > 0 {
		l.pool = worker.NewDynamicWorkerPool(l.workers, l.queueSize, time.Second)
	}
	if l.fetcher == nil {
		l.fetcher = NewFetcher(l.fetchTimeout)
	}

	switch backendType {
	case BackendTypeGLTF:
		l.backend = newGLTFLoaderBackend(newGLTFImporter(l.pool, l.fetcher, l.codec, l.hooks, l.log, l.opts))
	}
	return l
}

// applyConfig copies a configuration onto the loader.
func applyConfig(l *loader, cfg *config.Config) {
	l.workers = cfg.Loader.Workers
	l.queueSize = cfg.Loader.QueueSize
	l.fetchTimeout = cfg.Loader.FetchTimeout
	l.baseDir = cfg.Loader.BaseDir
	l.opts = importOptions{
		uint32Indices:   cfg.Device.Uint32Indices,
		generateMips:    cfg.Loader.GenerateMips,
		flipVGenerators: cfg.Loader.FlipVGenerators,
	}
}

func (l *loader) Load(ctx context.Context, location string) (model.ResourceBundle, error) {
	if cached := l.Get(location); cached != nil {
		return cached, nil
	}

	backend, err := l.resolveBackend(location)
	if err != nil {
		return nil, err
	}

	target := location
	if !isRemote(target) && !filepath.IsAbs(target) && l.baseDir != "" {
		target = filepath.Join(l.baseDir, target)
	}

	var data []byte
	if isRemote(target) {
		data, err = l.fetcher.Fetch(ctx, "", target)
	} else {
		data, err = os.ReadFile(target)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", location, err)
	}

	b, err := backend.Load(ctx, location, baseOf(target), data)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", location, err)
	}
	return l.store(location, b), nil
}

func (l *loader) LoadBytes(ctx context.Context, name string, data []byte) (model.ResourceBundle, error) {
	if cached := l.Get(name); cached != nil {
		return cached, nil
	}

	b, err := l.backend.Load(ctx, name, l.baseDir, data)
	if err != nil {
		return nil, fmt.Errorf("failed to load %q: %w", name, err)
	}
	return l.store(name, b), nil
}

func (l *loader) LoadReader(ctx context.Context, name string, r io.Reader) (model.ResourceBundle, error) {
	if cached := l.Get(name); cached != nil {
		return cached, nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", name, err)
	}
	return l.LoadBytes(ctx, name, data)
}

func (l *loader) LoadSync(name string, data []byte) (model.ResourceBundle, error) {
	b, err := l.backend.LoadSync(name, data)
	if err != nil {
		return nil, fmt.Errorf("failed to load %q: %w", name, err)
	}
	return b, nil
}

// store caches b under name unless another load got there first, in which case the earlier
// bundle wins and b is destroyed.
func (l *loader) store(name string, b model.ResourceBundle) model.ResourceBundle {
	l.mu.Lock()
	defer l.mu.Unlock()
	if existing, ok := l.cache[name]; ok {
		b.Destroy()
		return existing
	}
	l.cache[name] = b
	return b
}

func (l *loader) Get(name string) model.ResourceBundle {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cache[name]
}

func (l *loader) Bundles() map[string]model.ResourceBundle {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return maps.Clone(l.cache)
}

func (l *loader) Evict(name string) bool {
	l.mu.Lock()
	b, ok := l.cache[name]
	delete(l.cache, name)
	l.mu.Unlock()

	if ok {
		b.Destroy()
	}
	return ok
}

func (l *loader) Close() {
	l.closeOnce.Do(func() {
		if l.pool != nil && !l.sharedPool {
			l.pool.Stop()
		}
		l.log.Debug("loader closed")
	})
}

// resolveBackend selects an appropriate loader backend based on the file extension.
// Currently only glTF/GLB is supported.
func (l *loader) resolveBackend(location string) (loaderBackend, error) {
	p := location
	if isRemote(location) {
		if u, err := url.Parse(location); err == nil {
			p = u.Path
		}
	}
	ext := strings.ToLower(path.Ext(p))
	switch ext {
	case ".gltf", ".glb":
		return l.backend, nil
	default:
		return nil, fmt.Errorf("unsupported asset format: %q", ext)
	}
}
