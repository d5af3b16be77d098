package loader

import (
	"context"

	"github.com/Carmen-Shannon/oxy-glb/engine/model"
)

// loaderBackend defines the generic interface for turning asset bytes into resource bundles.
// Concrete implementations (e.g., gltfLoaderBackend) handle format-specific details.
type loaderBackend interface {
	// Load builds a bundle from asset bytes, resolving external resources.
	//
	// Parameters:
	//   - ctx: the context bounding external fetches
	//   - name: the bundle name
	//   - base: the directory or URL relative references resolve against
	//   - data: the asset bytes
	//
	// Returns:
	//   - model.ResourceBundle: the bundle
	//   - error: error if loading fails
	Load(ctx context.Context, name, base string, data []byte) (model.ResourceBundle, error)

	// LoadSync builds a bundle without fetching external resources. Buffers that need a fetch
	// fail the load; external images are left without pixels.
	//
	// Parameters:
	//   - name: the bundle name
	//   - data: the asset bytes
	//
	// Returns:
	//   - model.ResourceBundle: the bundle
	//   - error: error if loading fails
	LoadSync(name string, data []byte) (model.ResourceBundle, error)
}
