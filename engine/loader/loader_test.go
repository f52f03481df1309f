package loader

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-keyframe/engine/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// docBuilder packs float accessors into a single buffer.
type docBuilder struct {
	doc gltfDocument
	bin []byte
}

func ptr[T any](v T) *T { return &v }

func (b *docBuilder) floats(accessorType string, values ...float32) int {
	offset := len(b.bin)
	for _, v := range values {
		b.bin = binary.LittleEndian.AppendUint32(b.bin, math.Float32bits(v))
	}
	b.doc.BufferViews = append(b.doc.BufferViews, gltfBufferView{
		Buffer:     0,
		ByteOffset: offset,
		ByteLength: len(b.bin) - offset,
	})
	b.doc.Accessors = append(b.doc.Accessors, gltfAccessor{
		BufferView:    ptr(len(b.doc.BufferViews) - 1),
		ComponentType: gltfComponentTypeFloat,
		Count:         len(values) / gltfAccessorTypeComponentCount(accessorType),
		Type:          accessorType,
	})
	return len(b.doc.Accessors) - 1
}

// foxDocument builds a two-joint rig under a non-joint root. Joints are listed child-first so the
// loader has to reorder them.
func foxDocument(clipName string) *docBuilder {
	b := &docBuilder{}
	b.doc.Asset.Version = "2.0"
	b.doc.Nodes = []gltfNode{
		{Name: "Root", Children: []int{1}},
		{Name: "Hip", Children: []int{2}, Translation: &[3]float32{0, 1, 0}},
		{Name: "Spine", Rotation: &[4]float32{0, 0, 0.7071068, 0.7071068}},
		{Name: "Body", Mesh: ptr(0), Skin: ptr(0)},
	}
	b.doc.Skins = []gltfSkin{{Joints: []int{2, 1}}}

	times := b.floats(gltfAccessorTypeScalar, 0, 0.5, 1)
	pos := b.floats(gltfAccessorTypeVec3, 0, 1, 0, 0, 2, 0, 0, 3, 0)
	rot := b.floats(gltfAccessorTypeVec4, 0, 0, 0, 1, 0, 0, 0, 1, 1, 0, 0, 0)
	scaleTimes := b.floats(gltfAccessorTypeScalar, 0, 2)
	scale := b.floats(gltfAccessorTypeVec3, 1, 1, 1, 2, 2, 2)

	b.doc.Animations = []gltfAnimation{
		{
			Name: clipName,
			Samplers: []gltfAnimSampler{
				{Input: times, Output: pos},
				{Input: times, Output: rot},
			},
			Channels: []gltfAnimChannel{
				{Sampler: 0, Target: gltfAnimTarget{Node: ptr(1), Path: gltfAnimPathTranslation}},
				{Sampler: 1, Target: gltfAnimTarget{Node: ptr(2), Path: gltfAnimPathRotation}},
			},
		},
		{
			Samplers: []gltfAnimSampler{{Input: scaleTimes, Output: scale}},
			Channels: []gltfAnimChannel{
				{Sampler: 0, Target: gltfAnimTarget{Node: ptr(0), Path: gltfAnimPathScale}},
			},
		},
	}
	return b
}

func (b *docBuilder) gltf(t *testing.T) []byte {
	t.Helper()
	doc := b.doc
	doc.Buffers = []gltfBuffer{{
		URI:        "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(b.bin),
		ByteLength: len(b.bin),
	}}
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	return data
}

func (b *docBuilder) glb(t *testing.T) []byte {
	t.Helper()
	doc := b.doc
	doc.Buffers = []gltfBuffer{{ByteLength: len(b.bin)}}
	jsonChunk, err := json.Marshal(doc)
	require.NoError(t, err)
	for len(jsonChunk)%4 != 0 {
		jsonChunk = append(jsonChunk, ' ')
	}
	binChunk := append([]byte(nil), b.bin...)
	for len(binChunk)%4 != 0 {
		binChunk = append(binChunk, 0)
	}

	var out bytes.Buffer
	total := 12 + 8 + len(jsonChunk) + 8 + len(binChunk)
	require.NoError(t, binary.Write(&out, binary.LittleEndian, gltfGLBHeader{Magic: gltfGLBMagic, Version: gltfGLBVersion, Length: uint32(total)}))
	require.NoError(t, binary.Write(&out, binary.LittleEndian, gltfGLBChunkHeader{ChunkLength: uint32(len(jsonChunk)), ChunkType: gltfGLBChunkJSON}))
	out.Write(jsonChunk)
	require.NoError(t, binary.Write(&out, binary.LittleEndian, gltfGLBChunkHeader{ChunkLength: uint32(len(binChunk)), ChunkType: gltfGLBChunkBIN}))
	out.Write(binChunk)
	return out.Bytes()
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestLoadBuildsSkeletonParentsFirst(t *testing.T) {
	path := writeFile(t, t.TempDir(), "fox.gltf", foxDocument("Walk").gltf(t))

	a, err := NewLoader(BackendTypeGLTF).Load(path)
	require.NoError(t, err)
	assert.Equal(t, "fox", a.Name())

	skeleton := a.Skeleton()
	require.NotNil(t, skeleton)
	require.Equal(t, 2, skeleton.Len())
	assert.Equal(t, "Hip", skeleton.At(0).Name)
	assert.Equal(t, "Spine", skeleton.At(1).Name)
	assert.Nil(t, skeleton.At(0).Parent, "non-joint ancestors are not bones")
	assert.Same(t, skeleton.At(0), skeleton.At(1).Parent)

	hip := skeleton.Bone("Hip")
	assert.Equal(t, []float32{0, 1, 0}, hip.Component(model.ChannelPosition))
	spine := skeleton.Bone("Spine")
	assert.InDelta(t, 0.7071068, spine.Rotation.W, 1e-6)
	assert.InDelta(t, 0.7071068, spine.Rotation.V[2], 1e-6)
}

func TestLoadExtractsTracks(t *testing.T) {
	path := writeFile(t, t.TempDir(), "fox.gltf", foxDocument("Walk").gltf(t))

	a, err := NewLoader(BackendTypeGLTF).Load(path)
	require.NoError(t, err)
	require.Equal(t, []string{"Walk", "animation_1"}, a.AnimationNames())

	walk := a.Animations()[0]
	assert.InDelta(t, 1.0, walk.Duration(), 1e-6)
	require.Equal(t, 2, walk.Len())

	pos := walk.Track(0)
	assert.Equal(t, "Hip.position", pos.Name())
	assert.Equal(t, []float32{0, 0.5, 1}, pos.Times())
	sample, err := pos.Sample(2)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 3, 0}, sample)

	rot := walk.Track(1)
	assert.Equal(t, "Spine.quaternion", rot.Name())
	first, err := rot.Sample(0)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 0, 0}, first, "rotations are stored w first")
	last, err := rot.Sample(2)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1, 0, 0}, last)

	unnamed := a.Animations()[1]
	assert.InDelta(t, 2.0, unnamed.Duration(), 1e-6)
	assert.Equal(t, "Root.scale", unnamed.Track(0).Name(), "non-joint nodes keep their node name")
}

func TestLoadReaderGLB(t *testing.T) {
	l := NewLoader(BackendTypeGLTF)
	a, err := l.LoadReader("stream.glb", bytes.NewReader(foxDocument("Run").glb(t)), true)
	require.NoError(t, err)
	assert.Equal(t, "stream", a.Name())
	assert.Equal(t, []string{"Run", "animation_1"}, a.AnimationNames())
	assert.Same(t, a, l.Get("stream.glb"))
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	l := NewLoader(BackendTypeGLTF)

	_, err := l.Load(filepath.Join(dir, "fox.obj"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = l.Load(writeFile(t, dir, "broken.gltf", []byte(`{"asset":`)))
	assert.ErrorIs(t, err, ErrMalformedAsset)

	_, err = l.Load(writeFile(t, dir, "old.gltf", []byte(`{"asset":{"version":"1.0"}}`)))
	assert.ErrorIs(t, err, ErrMalformedAsset)
	assert.ErrorIs(t, err, errInvalidGLTFVersion)

	_, err = l.Load(filepath.Join(dir, "missing.gltf"))
	assert.ErrorIs(t, err, ErrMalformedAsset)

	assert.Empty(t, l.Assets())
}

func TestLoadCachesUntilReload(t *testing.T) {
	path := writeFile(t, t.TempDir(), "fox.gltf", foxDocument("Walk").gltf(t))
	l := NewLoader(BackendTypeGLTF)

	first, err := l.Load(path)
	require.NoError(t, err)
	again, err := l.Load(path)
	require.NoError(t, err)
	assert.Same(t, first, again)

	writeFile(t, filepath.Dir(path), "fox.gltf", foxDocument("Trot").gltf(t))
	reloaded, err := l.Reload(path)
	require.NoError(t, err)
	assert.NotSame(t, first, reloaded)
	assert.Equal(t, "Trot", reloaded.Animations()[0].Name())
	assert.Same(t, reloaded, l.Get(path))

	l.Evict(path)
	assert.Nil(t, l.Get(path))
}

func TestWithAssetSeedsCache(t *testing.T) {
	seeded := model.NewAsset(model.WithName("seeded"))
	l := NewLoader(BackendTypeGLTF, WithAsset("seeded.gltf", seeded))

	a, err := l.Load("seeded.gltf")
	require.NoError(t, err)
	assert.Same(t, seeded, a)
	assert.Len(t, l.Assets(), 1)
}

func TestLoadAllKeepsOrder(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeFile(t, dir, "a.gltf", foxDocument("A").gltf(t)),
		filepath.Join(dir, "b.fbx"),
		writeFile(t, dir, "c.glb", foxDocument("C").glb(t)),
	}

	assets, err := NewLoader(BackendTypeGLTF, WithWorkers(2)).LoadAll(paths)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	require.Len(t, assets, 3)
	require.NotNil(t, assets[0])
	assert.Equal(t, "A", assets[0].Animations()[0].Name())
	assert.Nil(t, assets[1])
	require.NotNil(t, assets[2])
	assert.Equal(t, "C", assets[2].Animations()[0].Name())
}

func TestLoadAllEmpty(t *testing.T) {
	assets, err := NewLoader(BackendTypeGLTF).LoadAll(nil)
	require.NoError(t, err)
	assert.Empty(t, assets)
}

func TestWatchReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "fox.gltf", foxDocument("Walk").gltf(t))
	l := NewLoader(BackendTypeGLTF, WithDebounce(10*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan model.Asset, 16)
	done := make(chan error, 1)
	go func() {
		done <- l.Watch(ctx, path, func(a model.Asset, err error) {
			if err == nil {
				changes <- a
			}
		})
	}()

	edited := foxDocument("Sneak").gltf(t)
	var got model.Asset
	require.Eventually(t, func() bool {
		select {
		case got = <-changes:
			return true
		default:
			// The watcher may not be registered yet, so keep touching the file.
			writeFile(t, dir, "fox.gltf", edited)
			return false
		}
	}, 5*time.Second, 50*time.Millisecond)

	assert.Equal(t, "Sneak", got.Animations()[0].Name())
	assert.Same(t, got, l.Get(path))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestWatchRejectsUnsupportedFormat(t *testing.T) {
	err := NewLoader(BackendTypeGLTF).Watch(context.Background(), "fox.obj", func(model.Asset, error) {})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
