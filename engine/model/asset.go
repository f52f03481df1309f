package model

// asset is the implementation of the Asset interface.
type asset struct {
	name       string
	skeleton   *Skeleton
	animations []*AnimationClip
}

// Asset is a loaded skeletal model: a skeleton plus the animation clips that accompany it.
// It is produced by the Loader and consumed by the edit session.
type Asset interface {
	// Name retrieves the asset identifier (usually the source path or cache key).
	//
	// Returns:
	//   - string: the asset name
	Name() string

	// Skeleton retrieves the bone hierarchy. Returns nil for assets without a skin.
	//
	// Returns:
	//   - *Skeleton: the skeleton or nil
	Skeleton() *Skeleton

	// Animations retrieves all animation clips bundled with the asset, in file order.
	//
	// Returns:
	//   - []*AnimationClip: the clips
	Animations() []*AnimationClip

	// AnimationCount returns the number of available animation clips.
	//
	// Returns:
	//   - int: the animation count
	AnimationCount() int

	// AnimationNames returns the names of all animation clips in file order.
	//
	// Returns:
	//   - []string: the clip names
	AnimationNames() []string

	// GetAnimationIndex returns the index of an animation by name, or -1 if not found.
	//
	// Parameters:
	//   - name: the animation clip name to search for
	//
	// Returns:
	//   - int: the animation index, or -1 if not found
	GetAnimationIndex(name string) int
}

var _ Asset = &asset{}

// NewAsset creates a new Asset with the provided options applied.
//
// Parameters:
//   - options: a variadic list of AssetBuilderOption functions
//
// Returns:
//   - Asset: the new asset
func NewAsset(options ...AssetBuilderOption) Asset {
	a := &asset{}
	for _, option := range options {
		option(a)
	}
	return a
}

func (a *asset) Name() string {
	return a.name
}

func (a *asset) Skeleton() *Skeleton {
	return a.skeleton
}

func (a *asset) Animations() []*AnimationClip {
	return append([]*AnimationClip(nil), a.animations...)
}

func (a *asset) AnimationCount() int {
	return len(a.animations)
}

func (a *asset) AnimationNames() []string {
	names := make([]string, len(a.animations))
	for i, clip := range a.animations {
		names[i] = clip.Name()
	}
	return names
}

func (a *asset) GetAnimationIndex(name string) int {
	for i, clip := range a.animations {
		if clip.Name() == name {
			return i
		}
	}
	return -1
}
