// Package model defines the value types shared across the search pipeline:
// file categories, matches, per-file results and run statistics.
package model

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
)

// Category is the closed classification of a file that drives extractor
// dispatch and binary filtering.
type Category int

const (
	// CategoryText covers prose and structured text formats.
	CategoryText Category = iota
	// CategoryCode covers programming language sources.
	CategoryCode
	// CategoryPDF covers PDF documents.
	CategoryPDF
	// CategoryDocx covers Office Open XML word processing documents.
	CategoryDocx
	// CategoryImage covers raster images (searchable only with OCR).
	CategoryImage
	// CategoryOther is everything else.
	CategoryOther
)

// Categories lists every category in declaration order.
var Categories = []Category{
	CategoryText, CategoryCode, CategoryPDF, CategoryDocx, CategoryImage, CategoryOther,
}

// extensionCategories maps lowercase extensions (without dot) to categories.
var extensionCategories = map[string]Category{
	// Text
	"txt": CategoryText, "md": CategoryText, "markdown": CategoryText, "rst": CategoryText,
	"log": CategoryText, "csv": CategoryText, "tsv": CategoryText, "json": CategoryText,
	"yaml": CategoryText, "yml": CategoryText, "toml": CategoryText, "ini": CategoryText,
	"cfg": CategoryText, "conf": CategoryText, "xml": CategoryText, "html": CategoryText,
	"htm": CategoryText, "css": CategoryText,

	// Code
	"rs": CategoryCode, "py": CategoryCode, "js": CategoryCode, "ts": CategoryCode,
	"jsx": CategoryCode, "tsx": CategoryCode, "java": CategoryCode, "c": CategoryCode,
	"cpp": CategoryCode, "cc": CategoryCode, "cxx": CategoryCode, "h": CategoryCode,
	"hpp": CategoryCode, "go": CategoryCode, "rb": CategoryCode, "php": CategoryCode,
	"swift": CategoryCode, "kt": CategoryCode, "kts": CategoryCode, "scala": CategoryCode,
	"sh": CategoryCode, "bash": CategoryCode, "zsh": CategoryCode, "fish": CategoryCode,
	"ps1": CategoryCode, "bat": CategoryCode, "cmd": CategoryCode, "sql": CategoryCode,
	"r": CategoryCode, "lua": CategoryCode, "pl": CategoryCode, "pm": CategoryCode,
	"ex": CategoryCode, "exs": CategoryCode, "erl": CategoryCode, "hrl": CategoryCode,
	"hs": CategoryCode, "lhs": CategoryCode, "ml": CategoryCode, "mli": CategoryCode,
	"fs": CategoryCode, "fsi": CategoryCode, "fsx": CategoryCode, "clj": CategoryCode,
	"cljs": CategoryCode, "cljc": CategoryCode, "nim": CategoryCode, "zig": CategoryCode,
	"v": CategoryCode, "d": CategoryCode, "dart": CategoryCode, "vue": CategoryCode,
	"svelte": CategoryCode,

	// Documents
	"pdf":  CategoryPDF,
	"docx": CategoryDocx,

	// Images
	"png": CategoryImage, "jpg": CategoryImage, "jpeg": CategoryImage, "gif": CategoryImage,
	"bmp": CategoryImage, "tiff": CategoryImage, "tif": CategoryImage, "webp": CategoryImage,
}

// CategoryFromExtension returns the category for an extension. The extension
// may carry a leading dot and any case. Unknown extensions map to CategoryOther.
func CategoryFromExtension(ext string) Category {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if c, ok := extensionCategories[ext]; ok {
		return c
	}
	return CategoryOther
}

// CategoryFromPath returns the category for a file path based on its extension.
func CategoryFromPath(path string) Category {
	return CategoryFromExtension(filepath.Ext(path))
}

// String returns the display name.
func (c Category) String() string {
	switch c {
	case CategoryText:
		return "Text"
	case CategoryCode:
		return "Code"
	case CategoryPDF:
		return "PDF"
	case CategoryDocx:
		return "DOCX"
	case CategoryImage:
		return "Image"
	default:
		return "Other"
	}
}

// Key returns the lowercase identifier used in persisted documents.
func (c Category) Key() string {
	return strings.ToLower(c.String())
}

// Icon returns the emoji shown next to results of this category.
func (c Category) Icon() string {
	switch c {
	case CategoryText:
		return "📄"
	case CategoryCode:
		return "💻"
	case CategoryPDF:
		return "📕"
	case CategoryDocx:
		return "📘"
	case CategoryImage:
		return "🖼️ "
	default:
		return "📎"
	}
}

// Color returns the name of the colour used when rendering file names.
func (c Category) Color() string {
	switch c {
	case CategoryCode:
		return "cyan"
	case CategoryPDF:
		return "red"
	case CategoryDocx:
		return "blue"
	case CategoryImage:
		return "magenta"
	default:
		return "white"
	}
}

// ParseCategory parses a key or display name (case-insensitive).
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if strings.EqualFold(s, c.Key()) {
			return c, nil
		}
	}
	return CategoryOther, fmt.Errorf("unknown file category %q", s)
}

// MarshalJSON encodes the category as its lowercase key.
func (c Category) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Key())
}

// UnmarshalJSON decodes a category key.
func (c *Category) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseCategory(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// MarshalText lets categories be used as JSON map keys.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.Key()), nil
}

// UnmarshalText is the inverse of MarshalText.
func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
