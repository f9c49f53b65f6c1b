package output

import (
	"encoding/json"
	"io"

	"github.com/Aman-CERP/argus/internal/model"
)

// Report is the --format json document.
type Report struct {
	Pattern    string              `json:"pattern"`
	Directory  string              `json:"directory"`
	Results    []model.FileResult  `json:"results"`
	Stats      model.RunStatistics `json:"stats"`
	DurationMS int64               `json:"duration_ms"`
	Skipped    []model.FileResult  `json:"skipped,omitempty"`
	Cache      *CacheSummary       `json:"cache,omitempty"`
}

// CacheSummary describes the cache used by a run.
type CacheSummary struct {
	Path    string `json:"path"`
	State   string `json:"state"`
	Entries int    `json:"entries"`
	Saved   bool   `json:"saved"`
	Error   string `json:"error,omitempty"`
}

// WriteJSON writes v as indented JSON.
func WriteJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteReport writes r, filling derived fields.
func WriteReport(out io.Writer, r Report) error {
	if r.Results == nil {
		r.Results = []model.FileResult{}
	}
	r.DurationMS = r.Stats.DurationMillis()
	return WriteJSON(out, r)
}
