package loader

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-glb/engine/gltf"
	"github.com/Carmen-Shannon/oxy-glb/engine/model"
	"github.com/Carmen-Shannon/oxy-glb/engine/profiler"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ErrHardFault wraps faults raised outside the normal validation path, such as a container
// chunk that declares more bytes than the container holds.
var ErrHardFault = errors.New("hard fault")

// gltfAsset is the state of one import. Everything mutable here, including the dedup caches,
// belongs to a single Import call.
type gltfAsset struct {
	name string

	// base is the directory or URL that relative URIs resolve against.
	base string

	doc     *gltf.Document
	bin     []byte
	buffers [][]byte
	views   []resolvedView

	variantNames []string

	pool    worker.DynamicWorkerPool
	fetcher Fetcher
	codec   *CodecContext
	hooks   *Hooks
	log     *zap.Logger

	// sync disables external fetches.
	sync          bool
	flipV         bool
	uint32Indices bool
	generateMips  bool

	vertexCache map[vertexKey]*model.VertexBuffer
}

// importRequest is one asset to import.
type importRequest struct {
	name string
	base string
	data []byte
	sync bool
}

// importOptions are the importer settings shared by every import.
type importOptions struct {
	uint32Indices   bool
	generateMips    bool
	flipVGenerators []string
}

// gltfImporterImpl is the implementation of the gltfImporter interface.
type gltfImporterImpl struct {
	pool    worker.DynamicWorkerPool
	fetcher Fetcher
	codec   *CodecContext
	hooks   *Hooks
	log     *zap.Logger
	opts    importOptions
}

// gltfImporter defines the interface for orchestrating a full glTF/GLB import.
// It combines the container reader, document parser and every extractor to produce a ResourceBundle.
type gltfImporter interface {
	// Import builds a resource bundle from an asset.
	//
	// The stages run in order: container and document, codec acquisition when compression
	// is required, buffers, buffer views, images and textures, materials, meshes, skins,
	// animations, then nodes, scenes, cameras and lights. Buffers, views and images resolve
	// concurrently on the worker pool with index-stable results.
	//
	// Parameters:
	//   - ctx: the context bounding external fetches and pool waits
	//   - req: the asset bytes and where they came from
	//
	// Returns:
	//   - model.ResourceBundle: the built bundle
	//   - error: the first structural or resource error
	Import(ctx context.Context, req importRequest) (model.ResourceBundle, error)
}

var _ gltfImporter = &gltfImporterImpl{}

// newGLTFImporter creates a new glTF importer.
//
// Parameters:
//   - pool: the worker pool for concurrent stages, or nil to run them inline
//   - fetcher: the resolver for external URIs
//   - codec: the compression codec context, or nil
//   - hooks: the stage hooks, or nil
//   - log: the logger
//   - opts: the import settings
//
// Returns:
//   - gltfImporter: the importer
func newGLTFImporter(pool worker.DynamicWorkerPool, fetcher Fetcher, codec *CodecContext, hooks *Hooks, log *zap.Logger, opts importOptions) gltfImporter {
	return &gltfImporterImpl{
		pool:    pool,
		fetcher: fetcher,
		codec:   codec,
		hooks:   stageHooks(hooks),
		log:     log,
		opts:    opts,
	}
}

func (im *gltfImporterImpl) Import(ctx context.Context, req importRequest) (bundle model.ResourceBundle, err error) {
	defer func() {
		if r := recover(); r != nil {
			overflow, ok := r.(*gltf.ChunkOverflowError)
			if !ok {
				panic(r)
			}
			bundle, err = nil, fmt.Errorf("%w: %v", ErrHardFault, overflow)
		}
	}()

	log := im.log.With(zap.String("asset", req.name))
	prof := profiler.NewProfiler(log.Core().Enabled(zapcore.DebugLevel))

	jsonText, bin, err := gltf.SplitAsset(req.data)
	if err != nil {
		return nil, err
	}
	doc, err := gltf.ParseDocument(jsonText)
	if err != nil {
		return nil, err
	}
	if im.hooks.Document != nil {
		im.hooks.Document(doc)
	}
	prof.Mark("parse")

	if doc.RequiresExtension(gltf.ExtDracoMeshCompression) {
		if _, err := im.codec.Acquire(ctx); err != nil {
			return nil, fmt.Errorf("%s is required: %w", gltf.ExtDracoMeshCompression, err)
		}
	}

	// Synchronous imports stay on the calling goroutine.
	pool := im.pool
	if req.sync {
		pool = nil
	}

	a := &gltfAsset{
		name:          req.name,
		base:          req.base,
		doc:           doc,
		bin:           bin,
		pool:          pool,
		fetcher:       im.fetcher,
		codec:         im.codec,
		hooks:         im.hooks,
		log:           log,
		sync:          req.sync,
		flipV:         im.needsFlipV(doc.Asset.Generator),
		uint32Indices: im.opts.uint32Indices,
		generateMips:  im.opts.generateMips,
		vertexCache:   make(map[vertexKey]*model.VertexBuffer),
	}
	for _, v := range doc.Variants() {
		a.variantNames = append(a.variantNames, v.Name)
	}

	if err := a.resolveBuffers(ctx); err != nil {
		return nil, err
	}
	if err := a.resolveViews(ctx); err != nil {
		return nil, err
	}
	log.Debug("resolved buffers", zap.Int("buffers", len(a.buffers)), zap.Int("views", len(a.views)))
	prof.Mark("buffers")

	textureLoader := newGLTFTextureLoader(a)
	images, err := textureLoader.LoadImages(ctx)
	if err != nil {
		return nil, err
	}
	textures, err := textureLoader.BuildTextures(ctx, images)
	if err != nil {
		return nil, err
	}
	prof.Mark("textures")

	materials, err := newGLTFMaterialExtractor(a, textures).ExtractAllMaterials(ctx)
	if err != nil {
		return nil, err
	}
	prof.Mark("materials")

	renders, err := a.extractMeshes(ctx)
	if err != nil {
		return nil, err
	}
	prof.Mark("meshes")

	skins, err := newGLTFSkinExtractor(a).ExtractAllSkins(ctx)
	if err != nil {
		return nil, err
	}
	prof.Mark("skins")

	tracks, err := newGLTFAnimationExtractor(a).ExtractAllAnimations(ctx)
	if err != nil {
		return nil, err
	}
	prof.Mark("animations")

	nodeExtractor := newGLTFNodeExtractor(a)
	nodes, err := nodeExtractor.ExtractNodes(ctx)
	if err != nil {
		return nil, err
	}
	nodes, scenes, defaultScene := nodeExtractor.ExtractScenes(nodes)
	prof.Mark("nodes")

	var variants map[string]int
	if len(a.variantNames) > 0 {
		variants = make(map[string]int, len(a.variantNames))
		for i, name := range a.variantNames {
			variants[name] = i
		}
	}

	bundle = model.NewBundle(
		model.WithName(req.name),
		model.WithNodes(nodes),
		model.WithScenes(scenes, defaultScene),
		model.WithAnimations(tracks),
		model.WithTextures(textures),
		model.WithMaterials(materials),
		model.WithRenders(renders),
		model.WithSkins(skins),
		model.WithLights(nodeExtractor.ExtractLights()),
		model.WithCameras(nodeExtractor.ExtractCameras()),
		model.WithVariants(variants),
	)
	if im.hooks.Bundle != nil {
		im.hooks.Bundle(bundle)
	}

	log.Debug("import profile", prof.Fields()...)
	log.Info("imported asset",
		zap.Int("nodes", len(nodes)),
		zap.Int("renders", len(renders)),
		zap.Int("materials", len(materials)),
		zap.Int("animations", len(tracks)),
		zap.Bool("sync", req.sync),
		zap.Duration("elapsed", prof.Total()),
	)
	return bundle, nil
}

// needsFlipV reports whether the asset was written by a generator known to store V upside down.
func (im *gltfImporterImpl) needsFlipV(generator string) bool {
	for _, prefix := range im.opts.flipVGenerators {
		if prefix != "" && strings.HasPrefix(generator, prefix) {
			return true
		}
	}
	return false
}
