package loader

import (
	"context"

	"github.com/Carmen-Shannon/oxy-glb/engine/model"
)

// gltfLoaderBackendImpl is the implementation of gltfLoaderBackend.
type gltfLoaderBackendImpl struct {
	importer gltfImporter
}

// gltfLoaderBackend is a loaderBackend implementation for glTF/GLB assets.
// It delegates to the gltfImporter for parsing and extraction.
type gltfLoaderBackend interface {
	loaderBackend
}

var _ gltfLoaderBackend = &gltfLoaderBackendImpl{}

// newGLTFLoaderBackend creates a new glTF loader backend.
//
// Parameters:
//   - importer: the importer that does the work
//
// Returns:
//   - gltfLoaderBackend: the loader backend for glTF/GLB assets
func newGLTFLoaderBackend(importer gltfImporter) gltfLoaderBackend {
	return &gltfLoaderBackendImpl{importer: importer}
}

func (b *gltfLoaderBackendImpl) Load(ctx context.Context, name, base string, data []byte) (model.ResourceBundle, error) {
	return b.importer.Import(ctx, importRequest{name: name, base: base, data: data})
}

func (b *gltfLoaderBackendImpl) LoadSync(name string, data []byte) (model.ResourceBundle, error) {
	return b.importer.Import(context.Background(), importRequest{name: name, data: data, sync: true})
}
