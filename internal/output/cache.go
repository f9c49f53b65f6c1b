package output

import (
	"fmt"
	"os"
	"time"

	"github.com/Aman-CERP/argus/internal/cache"
	"github.com/Aman-CERP/argus/internal/model"
)

// CacheInfo describes a cache file for `argus cache info`.
type CacheInfo struct {
	Path       string                 `json:"path"`
	Version    int                    `json:"version"`
	Directory  string                 `json:"directory"`
	CreatedAt  time.Time              `json:"created_at"`
	UpdatedAt  time.Time              `json:"updated_at"`
	Entries    int                    `json:"entries"`
	ByCategory map[model.Category]int `json:"by_category"`
	SizeBytes  int64                  `json:"size_bytes"`
}

// LoadCacheInfo reads the cache file at path and describes it. Load failures
// are returned unchanged (*cache.LoadError).
func LoadCacheInfo(path string) (CacheInfo, error) {
	c, err := cache.Load(path)
	if err != nil {
		return CacheInfo{}, err
	}
	info := CacheInfo{
		Path:       path,
		Version:    c.Version,
		Directory:  c.Directory,
		Entries:    c.Len(),
		ByCategory: c.CountByCategory(),
	}
	if c.CreatedAt > 0 {
		info.CreatedAt = time.Unix(c.CreatedAt, 0)
	}
	if c.UpdatedAt > 0 {
		info.UpdatedAt = time.Unix(c.UpdatedAt, 0)
	}
	if st, err := os.Stat(path); err == nil {
		info.SizeBytes = st.Size()
	}
	return info, nil
}

// CacheInfo prints a cache description.
func (w *Writer) CacheInfo(info CacheInfo) {
	_, _ = fmt.Fprintf(w.out, "  🗂️  %s\n\n", w.styles.success.Render("Index: "+info.Path))
	_, _ = fmt.Fprintf(w.out, "     Version:   %d\n", info.Version)
	_, _ = fmt.Fprintf(w.out, "     Directory: %s\n", info.Directory)
	if !info.CreatedAt.IsZero() {
		_, _ = fmt.Fprintf(w.out, "     Created:   %s\n", FormatTime(info.CreatedAt, time.Now()))
	}
	if !info.UpdatedAt.IsZero() {
		_, _ = fmt.Fprintf(w.out, "     Updated:   %s\n", FormatTime(info.UpdatedAt, time.Now()))
	}
	_, _ = fmt.Fprintf(w.out, "     Entries:   %d\n", info.Entries)
	_, _ = fmt.Fprintf(w.out, "     Size:      %s\n", FormatBytes(info.SizeBytes))
	if breakdown := categoryBreakdown(info.ByCategory); breakdown != "" {
		_, _ = fmt.Fprintf(w.out, "     %s\n", w.styles.dim.Render(breakdown))
	}
	_, _ = fmt.Fprintln(w.out)
}

// FormatTime renders t relative to now for recent times and as a date
// otherwise.
func FormatTime(t, now time.Time) string {
	diff := now.Sub(t)
	plural := func(n int, unit string) string {
		if n == 1 {
			return fmt.Sprintf("1 %s ago", unit)
		}
		return fmt.Sprintf("%d %ss ago", n, unit)
	}

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return plural(int(diff.Minutes()), "minute")
	case diff < 24*time.Hour:
		return plural(int(diff.Hours()), "hour")
	case diff < 7*24*time.Hour:
		return plural(int(diff.Hours()/24), "day")
	default:
		return t.Format("2006-01-02 15:04")
	}
}

// FormatBytes formats bytes to human-readable format.
func FormatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = 1024 * KB
		GB = 1024 * MB
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
