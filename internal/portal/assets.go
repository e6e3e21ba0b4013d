package portal

// AssetRef is a raster image reference found in a page document
type AssetRef struct {
	Kind AssetKind
	Path string
}

// FindAssetRefs returns every primary reference followed by every shade
// reference, each group in document order.
func FindAssetRefs(page string) []AssetRef {
	var refs []AssetRef
	for _, m := range primaryAssetPattern.FindAllStringSubmatch(page, -1) {
		refs = append(refs, AssetRef{Kind: AssetPrimary, Path: m[1]})
	}
	for _, m := range shadeAssetPattern.FindAllStringSubmatch(page, -1) {
		refs = append(refs, AssetRef{Kind: AssetShade, Path: m[1]})
	}
	return refs
}
