package models

import "strings"

// AssetType is the coarse classification of a discovered URL.
type AssetType int

const (
	AssetTypeOther AssetType = iota
	AssetTypeHTML
	AssetTypeScript
	AssetTypeStyle
	AssetTypeImage
	AssetTypeDocument
	AssetTypeDirectory
)

var assetTypeNames = map[AssetType]string{
	AssetTypeOther:     "OTHER",
	AssetTypeHTML:      "HTML",
	AssetTypeScript:    "SCRIPT",
	AssetTypeStyle:     "STYLE",
	AssetTypeImage:     "IMAGE",
	AssetTypeDocument:  "DOCUMENT",
	AssetTypeDirectory: "DIRECTORY",
}

func (t AssetType) String() string {
	if name, ok := assetTypeNames[t]; ok {
		return name
	}
	return "OTHER"
}

// ParseAssetType is the inverse of String. Unknown names map to OTHER.
func ParseAssetType(s string) AssetType {
	upper := strings.ToUpper(strings.TrimSpace(s))
	for t, name := range assetTypeNames {
		if name == upper {
			return t
		}
	}
	return AssetTypeOther
}

// Asset log tags used by the streaming output and the asset filter.
const (
	TagScript = "JS"
	TagPage   = "PAGE"
)

// WorkItem is one unit of crawl work. URL is what gets fetched, Key is what
// deduplicates it.
type WorkItem struct {
	URL   string
	Key   string
	Depth int
	Type  AssetType
}

// Tag returns the streaming log tag for the item.
func (w WorkItem) Tag() string {
	if w.Type == AssetTypeScript {
		return TagScript
	}
	return TagPage
}
