package loader

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-keyframe/engine/model"
)

// gltfImporterImpl is the implementation of the gltfImporter interface.
type gltfImporterImpl struct{}

// gltfImporter orchestrates a glTF/GLB import: parse, extract the skeleton, extract the clips.
type gltfImporter interface {
	// Import loads a glTF/GLB file into an Asset.
	//
	// Parameters:
	//   - path: the file path to the glTF or GLB file
	//
	// Returns:
	//   - model.Asset: the imported asset
	//   - error: error if import fails
	Import(path string) (model.Asset, error)

	// ImportReader loads a glTF/GLB stream into an Asset.
	//
	// Parameters:
	//   - name: the asset name used when the document names no scene
	//   - r: the reader providing glTF/GLB data
	//   - isGLB: true if the reader provides GLB binary data
	//
	// Returns:
	//   - model.Asset: the imported asset
	//   - error: error if import fails
	ImportReader(name string, r io.Reader, isGLB bool) (model.Asset, error)
}

var _ gltfImporter = &gltfImporterImpl{}

// newGLTFImporter creates a new glTF importer.
//
// Returns:
//   - gltfImporter: the importer
func newGLTFImporter() gltfImporter {
	return &gltfImporterImpl{}
}

func (imp *gltfImporterImpl) Import(path string) (model.Asset, error) {
	parser := newGLTFParser()
	if err := parser.Parse(path); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return imp.importFromParser(parser, path)
}

func (imp *gltfImporterImpl) ImportReader(name string, r io.Reader, isGLB bool) (model.Asset, error) {
	parser := newGLTFParser()
	if err := parser.ParseReader(r, isGLB); err != nil {
		return nil, fmt.Errorf("failed to parse %q: %w", name, err)
	}
	return imp.importFromParser(parser, name)
}

// importFromParser builds the Asset from a parsed document. The skeleton comes from the skin of the
// first mesh, or skin 0 when no mesh is skinned.
func (imp *gltfImporterImpl) importFromParser(parser gltfParser, fallbackName string) (model.Asset, error) {
	doc := parser.Document()
	if doc == nil {
		return nil, fmt.Errorf("no document after parsing")
	}

	skeletonExtractor := newGLTFSkeletonExtractor(parser)
	animationExtractor := newGLTFAnimationExtractor(parser)

	var skeleton *model.Skeleton
	nodeNames := map[int]string{}
	if len(doc.Skins) > 0 {
		skinIndex := 0
		if si := skeletonExtractor.FindSkinForMesh(0); si >= 0 {
			skinIndex = si
		}
		var err error
		skeleton, nodeNames, err = skeletonExtractor.ExtractSkeleton(skinIndex)
		if err != nil {
			return nil, fmt.Errorf("skeleton extraction failed: %w", err)
		}
	}

	animations, err := animationExtractor.ExtractAllAnimations(nodeNames)
	if err != nil {
		return nil, fmt.Errorf("animation extraction failed: %w", err)
	}

	return model.NewAsset(
		model.WithName(gltfAssetName(doc, fallbackName)),
		model.WithSkeleton(skeleton),
		model.WithAnimations(animations),
	), nil
}

// gltfAssetName prefers the file's base name without extension, then the default scene's name.
func gltfAssetName(doc *gltfDocument, fallback string) string {
	if fallback != "" {
		base := filepath.Base(fallback)
		return strings.TrimSuffix(base, filepath.Ext(base))
	}
	if doc.Scene != nil && *doc.Scene >= 0 && *doc.Scene < len(doc.Scenes) {
		if name := doc.Scenes[*doc.Scene].Name; name != "" {
			return name
		}
	}
	return "unnamed_model"
}
