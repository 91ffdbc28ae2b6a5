package pipeline

import (
	"context"
	"strings"

	"github.com/matzehuels/masonry/pkg/catalog"
	"github.com/matzehuels/masonry/pkg/core/layout"
)

// LoadItems returns opts.Items when set and otherwise reads every item of
// opts.Source.
func LoadItems(ctx context.Context, opts Options) ([]layout.Item, error) {
	if opts.Items != nil {
		return opts.Items, nil
	}
	src, err := catalog.Open(ctx, opts.Source)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return catalog.LoadAll(ctx, src)
}

// remoteSource reports whether source names a database rather than a local
// file. Only remote item lists are cached; files are cheap to reread and
// change under the user's hands.
func remoteSource(source string) bool {
	scheme, _, ok := strings.Cut(source, "://")
	return ok && scheme != "file"
}
