package catalog

import (
	"context"

	"github.com/matzehuels/masonry/pkg/board"
	"github.com/matzehuels/masonry/pkg/core/layout"
	"github.com/matzehuels/masonry/pkg/httputil"
)

// FileSource serves items from a JSON item file, local or downloaded. The
// file is read once when the source is opened; items keep their file order.
type FileSource struct {
	path  string
	items []layout.Item
}

// OpenFile reads the item file at path.
func OpenFile(path string) (*FileSource, error) {
	items, err := board.ReadItemsFile(path)
	if err != nil {
		return nil, err
	}
	return &FileSource{path: path, items: items}, nil
}

// NewMemorySource serves a fixed item list.
func NewMemorySource(items []layout.Item) *FileSource {
	return &FileSource{path: "memory", items: items}
}

// Load implements Source.
func (s *FileSource) Load(ctx context.Context, limit, offset int) ([]layout.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return page(s.items, limit, offset), nil
}

// Name implements Source.
func (s *FileSource) Name() string { return s.path }

// Len returns the number of items in the file.
func (s *FileSource) Len() int { return len(s.items) }

// Close implements Source.
func (s *FileSource) Close() error { return nil }

// OpenURL downloads the item file at url. The document is fetched once;
// the source then serves it from memory.
func OpenURL(ctx context.Context, url string) (*FileSource, error) {
	data, err := httputil.Fetch(ctx, nil, url)
	if err != nil {
		return nil, err
	}
	items, err := board.UnmarshalItems(data)
	if err != nil {
		return nil, err
	}
	return &FileSource{path: url, items: items}, nil
}
