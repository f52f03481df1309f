package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-keyframe/engine/model"
)

// gltfAnimationExtractorImpl is the implementation of the gltfAnimationExtractor interface.
type gltfAnimationExtractorImpl struct {
	parser gltfParser
}

// gltfAnimationExtractor converts glTF animations into model.AnimationClip values with one track per
// animated channel, named <bone>.position, <bone>.quaternion or <bone>.scale.
//
// The nodeNames map resolves joint nodes to their (possibly de-duplicated) bone names. Channels that
// target other nodes use the node's own name, or node_<i> when it has none.
type gltfAnimationExtractor interface {
	// ExtractAnimation extracts a single animation by index.
	//
	// Parameters:
	//   - animIndex: the index of the animation in the document
	//   - nodeNames: glTF node index to bone name
	//
	// Returns:
	//   - *model.AnimationClip: the clip, its duration the last keyframe time
	//   - error: error if extraction fails
	ExtractAnimation(animIndex int, nodeNames map[int]string) (*model.AnimationClip, error)

	// ExtractAllAnimations extracts every animation in file order.
	//
	// Parameters:
	//   - nodeNames: glTF node index to bone name
	//
	// Returns:
	//   - []*model.AnimationClip: all extracted clips
	//   - error: error if extraction fails
	ExtractAllAnimations(nodeNames map[int]string) ([]*model.AnimationClip, error)
}

var _ gltfAnimationExtractor = &gltfAnimationExtractorImpl{}

// newGLTFAnimationExtractor creates a new animation extractor for a parsed document.
//
// Parameters:
//   - parser: the parser containing a loaded document
//
// Returns:
//   - gltfAnimationExtractor: the animation extractor
func newGLTFAnimationExtractor(parser gltfParser) gltfAnimationExtractor {
	return &gltfAnimationExtractorImpl{parser: parser}
}

func (e *gltfAnimationExtractorImpl) ExtractAnimation(animIndex int, nodeNames map[int]string) (*model.AnimationClip, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, fmt.Errorf("no document loaded")
	}
	if animIndex < 0 || animIndex >= len(doc.Animations) {
		return nil, fmt.Errorf("animation index %d out of range", animIndex)
	}
	anim := &doc.Animations[animIndex]

	name := anim.Name
	if name == "" {
		name = fmt.Sprintf("animation_%d", animIndex)
	}

	tracks := make([]model.Track, 0, len(anim.Channels))
	for i := range anim.Channels {
		ch := &anim.Channels[i]
		if ch.Target.Node == nil || ch.Target.Path == gltfAnimPathWeights {
			continue
		}
		nodeIdx := *ch.Target.Node
		if nodeIdx < 0 || nodeIdx >= len(doc.Nodes) {
			return nil, fmt.Errorf("animation %q channel %d: invalid node index %d", name, i, nodeIdx)
		}

		var kind model.ChannelKind
		var accessorType string
		switch ch.Target.Path {
		case gltfAnimPathTranslation:
			kind, accessorType = model.ChannelPosition, gltfAccessorTypeVec3
		case gltfAnimPathRotation:
			kind, accessorType = model.ChannelRotation, gltfAccessorTypeVec4
		case gltfAnimPathScale:
			kind, accessorType = model.ChannelScale, gltfAccessorTypeVec3
		default:
			continue
		}

		if ch.Sampler < 0 || ch.Sampler >= len(anim.Samplers) {
			return nil, fmt.Errorf("animation %q channel %d: invalid sampler index %d", name, i, ch.Sampler)
		}
		sampler := &anim.Samplers[ch.Sampler]

		times, err := e.parser.ReadFloats(sampler.Input, gltfAccessorTypeScalar)
		if err != nil {
			return nil, fmt.Errorf("animation %q channel %d: failed to read timestamps: %w", name, i, err)
		}
		values, err := e.parser.ReadFloats(sampler.Output, accessorType)
		if err != nil {
			return nil, fmt.Errorf("animation %q channel %d: failed to read %s values: %w", name, i, ch.Target.Path, err)
		}
		if sampler.Interpolation == gltfAnimInterpolationCubicSpline {
			values = gltfCubicSplineValues(values, kind.Stride())
		}

		count := min(len(times), len(values)/kind.Stride())
		times = times[:count]
		values = values[:count*kind.Stride()]
		if kind == model.ChannelRotation {
			gltfReorderQuaternions(values)
		}

		boneName, ok := nodeNames[nodeIdx]
		if !ok {
			boneName = doc.Nodes[nodeIdx].Name
			if boneName == "" {
				boneName = fmt.Sprintf("node_%d", nodeIdx)
			}
		}

		track, err := model.NewTrack(boneName, kind, times, values)
		if err != nil {
			return nil, fmt.Errorf("animation %q channel %d: %w", name, i, err)
		}
		tracks = append(tracks, track)
	}

	clip, err := model.NewAnimationClip(name, -1, tracks)
	if err != nil {
		return nil, fmt.Errorf("animation %q: %w", name, err)
	}
	return clip, nil
}

func (e *gltfAnimationExtractorImpl) ExtractAllAnimations(nodeNames map[int]string) ([]*model.AnimationClip, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, fmt.Errorf("no document loaded")
	}

	clips := make([]*model.AnimationClip, len(doc.Animations))
	for i := range doc.Animations {
		clip, err := e.ExtractAnimation(i, nodeNames)
		if err != nil {
			return nil, fmt.Errorf("animation %d: %w", i, err)
		}
		clips[i] = clip
	}
	return clips, nil
}

// gltfReorderQuaternions rewrites flat glTF (x, y, z, w) quaternions in place as (w, x, y, z).
func gltfReorderQuaternions(values []float32) {
	for i := 0; i+3 < len(values); i += 4 {
		x, y, z, w := values[i], values[i+1], values[i+2], values[i+3]
		values[i], values[i+1], values[i+2], values[i+3] = w, x, y, z
	}
}

// gltfCubicSplineValues keeps only the value element of each (in-tangent, value, out-tangent) triple.
func gltfCubicSplineValues(values []float32, stride int) []float32 {
	keys := len(values) / (3 * stride)
	out := make([]float32, 0, keys*stride)
	for k := 0; k < keys; k++ {
		start := (3*k + 1) * stride
		out = append(out, values[start:start+stride]...)
	}
	return out
}
