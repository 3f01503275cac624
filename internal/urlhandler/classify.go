package urlhandler

import (
	"net/url"
	"path"
	"strings"

	"github.com/aleister1102/jsenum/internal/models"
)

// extensionTypes maps lowercase path extensions to asset types.
var extensionTypes = map[string]models.AssetType{
	".js":   models.AssetTypeScript,
	".mjs":  models.AssetTypeScript,
	".cjs":  models.AssetTypeScript,
	".html": models.AssetTypeHTML,
	".htm":  models.AssetTypeHTML,
	".php":  models.AssetTypeHTML,
	".asp":  models.AssetTypeHTML,
	".aspx": models.AssetTypeHTML,
	".jsp":  models.AssetTypeHTML,
	".css":  models.AssetTypeStyle,
	".png":  models.AssetTypeImage,
	".jpg":  models.AssetTypeImage,
	".jpeg": models.AssetTypeImage,
	".gif":  models.AssetTypeImage,
	".svg":  models.AssetTypeImage,
	".webp": models.AssetTypeImage,
	".ico":  models.AssetTypeImage,
	".pdf":  models.AssetTypeDocument,
	".doc":  models.AssetTypeDocument,
	".docx": models.AssetTypeDocument,
	".xls":  models.AssetTypeDocument,
	".xlsx": models.AssetTypeDocument,
	".txt":  models.AssetTypeDocument,
	".json": models.AssetTypeDocument,
	".xml":  models.AssetTypeDocument,
	".map":  models.AssetTypeDocument,
}

// Classify derives the asset type from the URL path. A trailing slash is a
// directory and a path without extension is treated as a page.
func Classify(rawURL string) models.AssetType {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return models.AssetTypeOther
	}

	p := parsed.Path
	if p == "" {
		return models.AssetTypeHTML
	}
	if strings.HasSuffix(p, "/") {
		return models.AssetTypeDirectory
	}

	ext := strings.ToLower(path.Ext(p))
	if ext == "" {
		return models.AssetTypeHTML
	}
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	return models.AssetTypeOther
}

// Tag returns the streaming log tag for a URL: JS for scripts, PAGE otherwise.
func Tag(rawURL string) string {
	if Classify(rawURL) == models.AssetTypeScript {
		return models.TagScript
	}
	return models.TagPage
}
