// Package catalog loads ordered item lists from external stores.
//
// The layout core treats the item list as externally owned input. This
// package is the boundary to the stores that own it: JSON files (local or
// served over HTTP), SQLite image databases and MongoDB collections. Every [Source] returns items
// ordered by ID, in pages addressed by limit and offset, so a [Pager] can
// feed a view incrementally as the user scrolls towards the end of the
// track.
//
// # Opening Sources
//
// [Open] picks the implementation from the location string:
//
//	sqlite:///var/lib/gallery/images.db        -> SQLiteSource
//	mongodb://localhost:27017/gallery?collection=images -> MongoSource
//	items.json, file:///tmp/items.json         -> FileSource
//	https://cdn.example.com/items.json         -> FileSource (downloaded)
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/matzehuels/masonry/pkg/core/layout"
	"github.com/matzehuels/masonry/pkg/errors"
)

// DefaultBatchSize is the number of items fetched per page.
const DefaultBatchSize = 100

// Source is an ordered, pageable store of items.
type Source interface {
	// Load returns up to limit items starting at offset, ordered by ID.
	// An empty result means the offset is past the end.
	Load(ctx context.Context, limit, offset int) ([]layout.Item, error)

	// Name describes the source for logs.
	Name() string

	// Close releases the underlying connection or file handle.
	Close() error
}

// Open opens the source at location. See the package documentation for the
// recognized forms.
func Open(ctx context.Context, location string) (Source, error) {
	if err := errors.ValidateSourceURI(location); err != nil {
		return nil, err
	}

	scheme, rest, hasScheme := strings.Cut(location, "://")
	if !hasScheme {
		scheme, rest = "file", location
	}

	var (
		src Source
		err error
	)
	switch scheme {
	case "file":
		var fs *FileSource
		if fs, err = OpenFile(rest); err == nil {
			src = fs
		}
	case "sqlite":
		var ss *SQLiteSource
		if ss, err = OpenSQLite(ctx, rest); err == nil {
			src = ss
		}
	case "http", "https":
		var fs *FileSource
		if fs, err = OpenURL(ctx, location); err == nil {
			src = fs
		}
	case "mongodb", "mongodb+srv":
		var ms *MongoSource
		if ms, err = OpenMongo(ctx, location); err == nil {
			src = ms
		}
	default:
		err = errors.New(errors.ErrCodeInvalidSource, "unsupported source scheme %q", scheme)
	}
	if err != nil {
		return nil, err
	}
	return src, nil
}

// LoadAll reads every item of src in pages of DefaultBatchSize.
func LoadAll(ctx context.Context, src Source) ([]layout.Item, error) {
	p := NewPager(src, DefaultBatchSize)
	var all []layout.Item
	for !p.Exhausted() {
		batch, err := p.Next(ctx)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", src.Name(), err)
		}
		all = append(all, batch...)
	}
	return all, nil
}

// page returns items[offset:offset+limit] clamped to the slice bounds.
func page(items []layout.Item, limit, offset int) []layout.Item {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) || limit <= 0 {
		return nil
	}
	end := min(offset+limit, len(items))
	out := make([]layout.Item, end-offset)
	copy(out, items[offset:end])
	return out
}
