package model

// AssetBuilderOption is a functional option for configuring an Asset via NewAsset.
type AssetBuilderOption func(*asset)

// WithName is an option builder that sets the asset identifier.
//
// Parameters:
//   - name: the asset name
//
// Returns:
//   - AssetBuilderOption: a function that applies the name option to an asset
func WithName(name string) AssetBuilderOption {
	return func(a *asset) {
		a.name = name
	}
}

// WithSkeleton is an option builder that sets the asset's bone hierarchy.
//
// Parameters:
//   - skeleton: the skeleton
//
// Returns:
//   - AssetBuilderOption: a function that applies the skeleton option to an asset
func WithSkeleton(skeleton *Skeleton) AssetBuilderOption {
	return func(a *asset) {
		a.skeleton = skeleton
	}
}

// WithAnimations is an option builder that sets the asset's animation clips.
//
// Parameters:
//   - animations: the clips, in file order
//
// Returns:
//   - AssetBuilderOption: a function that applies the animations option to an asset
func WithAnimations(animations []*AnimationClip) AssetBuilderOption {
	return func(a *asset) {
		a.animations = append([]*AnimationClip(nil), animations...)
	}
}
