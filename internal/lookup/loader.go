package lookup

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"forecast/assets"
	"forecast/internal/cache"
)

// Loader reads lookup files from a filesystem and caches them by file name.
// Concurrent loads of the same file share one read.
type Loader struct {
	fsys  fs.FS
	cache *cache.LRUCache[*Data]
	group singleflight.Group
}

// NewLoader creates a loader over fsys. A nil fsys serves the embedded tables.
func NewLoader(fsys fs.FS) *Loader {
	if fsys == nil {
		fsys = assets.LookupFS
	}
	return &Loader{
		fsys:  fsys,
		cache: cache.NewLRUCache[*Data](16, 0),
	}
}

// Load returns the lookup tables stored in name.
func (l *Loader) Load(ctx context.Context, name string) (*Data, error) {
	if d, ok := l.cache.Get(name); ok {
		return d, nil
	}

	v, err, _ := l.group.Do(name, func() (any, error) {
		if d, ok := l.cache.Get(name); ok {
			return d, nil
		}
		f, err := l.fsys.Open(name)
		if err != nil {
			return nil, fmt.Errorf("open lookup file %s: %w", name, err)
		}
		defer f.Close()

		d, err := Parse(f)
		if err != nil {
			return nil, fmt.Errorf("load lookup file %s: %w", name, err)
		}
		l.cache.Set(name, d)
		stats := l.cache.Stats()
		slog.DebugContext(ctx, "Lookup data loaded", "file", name,
			"change_types", len(d.PeriodicChangeTypes),
			"frequencies", len(d.Frequencies),
			"cached_files", stats.Size,
			"cache_misses", stats.Misses)
		return d, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Data), nil
}
