package config

import (
	"github.com/Aman-CERP/argus/internal/ocr"
	"github.com/Aman-CERP/argus/internal/search"
)

// SearchFor builds the engine configuration for one search of dir.
func (c *Config) SearchFor(dir, pattern string) search.SearchConfig {
	return search.SearchConfig{
		Directory:           dir,
		Pattern:             pattern,
		CaseSensitive:       c.Search.CaseSensitive,
		UseRegex:            c.Search.Regex,
		OCR:                 c.OCR.Enabled,
		Limit:               c.Search.Limit,
		MaxDepth:            c.Search.MaxDepth,
		IncludeHidden:       c.Search.IncludeHidden,
		Extensions:          append([]string(nil), c.Search.Extensions...),
		ShowPreview:         c.Search.Preview,
		RespectGitignore:    c.Search.RespectGitignore,
		Workers:             c.Search.Workers,
		ScannedPDFThreshold: c.OCR.ScannedPDFThreshold,
	}
}

// CacheSettings returns the content cache configuration.
func (c *Config) CacheSettings() search.CacheConfig {
	return search.CacheConfig{
		SaveCache: c.Cache.Save,
		UseCache:  c.Cache.Use,
		CacheFile: c.Cache.File,
	}
}

// OCRSettings returns the OCR backend configuration.
func (c *Config) OCRSettings() ocr.Config {
	return ocr.Config{
		Backend:  c.OCR.Backend,
		Language: c.OCR.Language,
		DataPath: c.OCR.DataPath,
	}
}
