package loader

import (
	"io"

	"github.com/Carmen-Shannon/oxy-keyframe/engine/model"
)

// LoaderBackendType identifies the model file format backend to use.
type LoaderBackendType int

const (
	// BackendTypeGLTF selects the glTF/GLB loader backend.
	BackendTypeGLTF LoaderBackendType = iota
)

// loaderBackend is the format-specific half of a Loader. Concrete implementations (gltfLoaderBackend)
// turn files or streams into Assets.
type loaderBackend interface {
	// Extensions lists the lower-case file extensions (with the dot) this backend reads.
	Extensions() []string

	// Load imports an asset from a file path.
	//
	// Parameters:
	//   - path: the file path to load
	//
	// Returns:
	//   - model.Asset: the imported asset
	//   - error: error if loading fails
	Load(path string) (model.Asset, error)

	// LoadReader imports an asset from a stream.
	//
	// Parameters:
	//   - name: the asset name
	//   - r: the reader providing model data
	//   - isGLB: true if the reader provides GLB binary data
	//
	// Returns:
	//   - model.Asset: the imported asset
	//   - error: error if loading fails
	LoadReader(name string, r io.Reader, isGLB bool) (model.Asset, error)
}
