package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-keyframe/engine/model"
	"github.com/go-gl/mathgl/mgl32"
)

// gltfSkeletonExtractorImpl is the implementation of the gltfSkeletonExtractor interface.
type gltfSkeletonExtractorImpl struct {
	parser gltfParser
}

// gltfSkeletonExtractor converts a glTF skin into a model.Skeleton with bones ordered parents-first.
type gltfSkeletonExtractor interface {
	// ExtractSkeleton builds the skeleton for a skin.
	//
	// Parameters:
	//   - skinIndex: the index of the skin to extract
	//
	// Returns:
	//   - *model.Skeleton: the skeleton, bones sorted so every parent precedes its children
	//   - map[int]string: glTF node index to bone name for every joint
	//   - error: error if extraction fails
	ExtractSkeleton(skinIndex int) (*model.Skeleton, map[int]string, error)

	// FindSkinForMesh finds the skin used by the first node that instances a mesh.
	//
	// Parameters:
	//   - meshIndex: the mesh index to find a skin for
	//
	// Returns:
	//   - int: the skin index, or -1 if none
	FindSkinForMesh(meshIndex int) int
}

var _ gltfSkeletonExtractor = &gltfSkeletonExtractorImpl{}

// newGLTFSkeletonExtractor creates a new skeleton extractor for a parsed document.
//
// Parameters:
//   - parser: the parser containing a loaded document
//
// Returns:
//   - gltfSkeletonExtractor: the skeleton extractor
func newGLTFSkeletonExtractor(parser gltfParser) gltfSkeletonExtractor {
	return &gltfSkeletonExtractorImpl{parser: parser}
}

func (e *gltfSkeletonExtractorImpl) FindSkinForMesh(meshIndex int) int {
	doc := e.parser.Document()
	if doc == nil {
		return -1
	}
	for _, node := range doc.Nodes {
		if node.Mesh != nil && *node.Mesh == meshIndex && node.Skin != nil {
			return *node.Skin
		}
	}
	return -1
}

func (e *gltfSkeletonExtractorImpl) ExtractSkeleton(skinIndex int) (*model.Skeleton, map[int]string, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, nil, fmt.Errorf("no document loaded")
	}
	if skinIndex < 0 || skinIndex >= len(doc.Skins) {
		return nil, nil, fmt.Errorf("skin index %d out of range", skinIndex)
	}
	skin := &doc.Skins[skinIndex]

	nodeParent := gltfNodeParents(doc)
	jointOf := make(map[int]int, len(skin.Joints)) // node index -> joint index
	for i, nodeIdx := range skin.Joints {
		if nodeIdx < 0 || nodeIdx >= len(doc.Nodes) {
			return nil, nil, fmt.Errorf("joint %d: invalid node index %d", i, nodeIdx)
		}
		if _, dup := jointOf[nodeIdx]; dup {
			return nil, nil, fmt.Errorf("joint %d: node %d listed twice", i, nodeIdx)
		}
		jointOf[nodeIdx] = i
	}

	bones := make([]*model.Bone, len(skin.Joints))
	parents := make([]int, len(skin.Joints))
	taken := make(map[string]bool, len(skin.Joints))
	for i, nodeIdx := range skin.Joints {
		node := &doc.Nodes[nodeIdx]
		bone := model.NewBone(gltfBoneName(node.Name, i, taken))
		bone.Position, bone.Rotation, bone.Scale = gltfNodeTransform(node)
		bones[i] = bone

		// The nearest ancestor that is itself a joint is the parent bone.
		parents[i] = -1
		for p, ok := nodeParent[nodeIdx]; ok; p, ok = nodeParent[p] {
			if j, isJoint := jointOf[p]; isJoint {
				parents[i] = j
				break
			}
		}
	}

	order := gltfParentsFirstOrder(parents)
	sortedBones := make([]*model.Bone, len(order))
	sortedParents := make([]int, len(order))
	newIndex := make([]int, len(order))
	for n, old := range order {
		newIndex[old] = n
	}
	for n, old := range order {
		sortedBones[n] = bones[old]
		sortedParents[n] = -1
		if parents[old] >= 0 {
			sortedParents[n] = newIndex[parents[old]]
		}
	}

	skeleton, err := model.NewSkeleton(sortedBones, sortedParents)
	if err != nil {
		return nil, nil, fmt.Errorf("skin %d: %w", skinIndex, err)
	}

	nodeToBone := make(map[int]string, len(skin.Joints))
	for i, nodeIdx := range skin.Joints {
		nodeToBone[nodeIdx] = bones[i].Name
	}
	return skeleton, nodeToBone, nil
}

// gltfNodeParents maps every child node index to its parent node index.
func gltfNodeParents(doc *gltfDocument) map[int]int {
	parents := make(map[int]int, len(doc.Nodes))
	for i, node := range doc.Nodes {
		for _, c := range node.Children {
			parents[c] = i
		}
	}
	return parents
}

// gltfBoneName returns a unique bone name for a joint, falling back to bone_<i> for unnamed nodes and
// suffixing the joint index when a name repeats.
func gltfBoneName(nodeName string, jointIndex int, taken map[string]bool) string {
	name := nodeName
	if name == "" {
		name = fmt.Sprintf("bone_%d", jointIndex)
	}
	if taken[name] {
		name = fmt.Sprintf("%s_%d", name, jointIndex)
	}
	taken[name] = true
	return name
}

// gltfNodeTransform returns a node's local TRS. Rotations are converted from glTF (x, y, z, w) order.
func gltfNodeTransform(node *gltfNode) (mgl32.Vec3, mgl32.Quat, mgl32.Vec3) {
	if node.Matrix != nil {
		return gltfDecomposeMatrix(mgl32.Mat4(*node.Matrix))
	}

	t := mgl32.Vec3{}
	r := mgl32.QuatIdent()
	s := mgl32.Vec3{1, 1, 1}
	if node.Translation != nil {
		t = mgl32.Vec3(*node.Translation)
	}
	if node.Rotation != nil {
		q := *node.Rotation
		r = mgl32.Quat{W: q[3], V: mgl32.Vec3{q[0], q[1], q[2]}}
	}
	if node.Scale != nil {
		s = mgl32.Vec3(*node.Scale)
	}
	return t, r, s
}

// gltfDecomposeMatrix splits a column-major affine matrix into translation, rotation and scale.
// Shear is not supported.
func gltfDecomposeMatrix(m mgl32.Mat4) (mgl32.Vec3, mgl32.Quat, mgl32.Vec3) {
	t := m.Col(3).Vec3()
	s := mgl32.Vec3{m.Col(0).Vec3().Len(), m.Col(1).Vec3().Len(), m.Col(2).Vec3().Len()}

	var rot mgl32.Mat4
	for c := 0; c < 3; c++ {
		sc := s[c]
		if sc < 1e-4 {
			sc = 1
		}
		col := m.Col(c).Vec3().Mul(1 / sc)
		rot.SetCol(c, col.Vec4(0))
	}
	rot.SetCol(3, mgl32.Vec4{0, 0, 0, 1})
	return t, mgl32.Mat4ToQuat(rot).Normalize(), s
}

// gltfParentsFirstOrder returns joint indices ordered breadth-first from the roots, so every parent
// precedes its children. Joints unreachable from a root (cycles) are appended in index order.
func gltfParentsFirstOrder(parents []int) []int {
	children := make(map[int][]int)
	var queue []int
	for i, p := range parents {
		if p < 0 {
			queue = append(queue, i)
		} else {
			children[p] = append(children[p], i)
		}
	}

	order := make([]int, 0, len(parents))
	visited := make([]bool, len(parents))
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		if visited[i] {
			continue
		}
		visited[i] = true
		order = append(order, i)
		queue = append(queue, children[i]...)
	}
	for i := range parents {
		if !visited[i] {
			order = append(order, i)
		}
	}
	return order
}
