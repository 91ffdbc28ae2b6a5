package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/masonry/pkg/board"
	"github.com/matzehuels/masonry/pkg/cache"
	"github.com/matzehuels/masonry/pkg/core/layout"
	"github.com/matzehuels/masonry/pkg/observability"
)

// Cache key types reported to the cache hooks.
const (
	keyTypeItems    = "items"
	keyTypeLayout   = "layout"
	keyTypeArtifact = "artifact"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{}

	// Stage 1: Load
	loadStart := time.Now()
	items, loadHit, err := r.LoadItemsWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Items = items
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.ItemCount = len(items)
	result.CacheInfo.LoadHit = loadHit

	r.Logger.Info("loaded items",
		"items", len(items),
		"duration", result.Stats.LoadTime)

	// Stage 2: Layout
	layoutStart := time.Now()
	b, layoutHit, err := r.ComputeLayoutWithCacheInfo(ctx, items, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Board = b
	result.ItemsHash, _ = itemsHash(items)
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Stats.Columns = b.Columns
	result.Stats.TrackHeight = b.Height
	result.CacheInfo.LayoutHit = layoutHit

	r.Logger.Info("computed layout",
		"columns", b.Columns,
		"track_height", b.Height,
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, b, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// LoadItemsWithCacheInfo loads the item list and reports whether it came
// from cache. Only lists from remote sources are cached.
func (r *Runner) LoadItemsWithCacheInfo(ctx context.Context, opts Options) (items []layout.Item, hit bool, err error) {
	if err := opts.ValidateForLoad(); err != nil {
		return nil, false, err
	}

	hooks := observability.Pipeline()
	start := time.Now()
	hooks.OnLoadStart(ctx, opts.Source)
	defer func() {
		hooks.OnLoadComplete(ctx, opts.Source, len(items), time.Since(start), err)
	}()

	cacheable := opts.Items == nil && remoteSource(opts.Source)
	cacheKey := r.Keyer.ItemsKey(opts.Source)

	if cacheable && !opts.Refresh {
		if data, ok := r.get(ctx, keyTypeItems, cacheKey); ok {
			if cached, err := board.UnmarshalItems(data); err == nil {
				return cached, true, nil
			}
		}
	}

	items, err = LoadItems(ctx, opts)
	if err != nil {
		return nil, false, err
	}

	if cacheable {
		if data, err := board.MarshalItems(items); err == nil {
			r.set(ctx, keyTypeItems, cacheKey, data, cache.TTLItems)
		}
	}
	return items, false, nil
}

// LoadItems is a convenience wrapper that calls LoadItemsWithCacheInfo and discards the cache hit info.
func (r *Runner) LoadItems(ctx context.Context, opts Options) ([]layout.Item, error) {
	items, _, err := r.LoadItemsWithCacheInfo(ctx, opts)
	return items, err
}

// ComputeLayoutWithCacheInfo computes a board with caching and returns cache hit info.
// The cache key is the content hash of items plus the layout geometry.
func (r *Runner) ComputeLayoutWithCacheInfo(ctx context.Context, items []layout.Item, opts Options) (b board.Board, hit bool, err error) {
	if err := opts.ValidateForLayout(); err != nil {
		return board.Board{}, false, err
	}

	hooks := observability.Pipeline()
	start := time.Now()
	hooks.OnLayoutStart(ctx, len(items), opts.Columns())
	defer func() {
		hooks.OnLayoutComplete(ctx, time.Since(start), err)
	}()

	hash, err := itemsHash(items)
	if err != nil {
		return board.Board{}, false, err
	}
	cacheKey := r.Keyer.LayoutKey(hash, opts.LayoutKeyOpts())

	if !opts.Refresh {
		if data, ok := r.get(ctx, keyTypeLayout, cacheKey); ok {
			if cached, err := board.Unmarshal(data); err == nil {
				return cached, true, nil
			}
			// If deserialization fails, fall through to recompute
		}
	}

	b, err = ComputeLayout(items, opts)
	if err != nil {
		return board.Board{}, false, err
	}
	r.Logger.Debug("layout pass", "items", len(items), "columns", b.Columns, "column_width", b.ColumnWidth)

	if data, err := board.Marshal(b); err == nil {
		r.set(ctx, keyTypeLayout, cacheKey, data, cache.TTLLayout)
	}
	return b, false, nil
}

// ComputeLayout is a convenience wrapper that calls ComputeLayoutWithCacheInfo and discards the cache hit info.
func (r *Runner) ComputeLayout(ctx context.Context, items []layout.Item, opts Options) (board.Board, error) {
	b, _, err := r.ComputeLayoutWithCacheInfo(ctx, items, opts)
	return b, err
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, b board.Board, opts Options) (artifacts map[string][]byte, hit bool, err error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	hooks := observability.Pipeline()
	start := time.Now()
	hooks.OnRenderStart(ctx, opts.Formats)
	defer func() {
		hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	}()

	boardData, err := board.Marshal(b)
	if err != nil {
		return nil, false, fmt.Errorf("serialize board for cache key: %w", err)
	}
	boardHash := cache.Hash(boardData)

	// Try to get all formats from cache
	cached := make(map[string][]byte, len(opts.Formats))
	if !opts.Refresh {
		for _, format := range opts.Formats {
			data, ok := r.get(ctx, keyTypeArtifact, r.Keyer.ArtifactKey(boardHash, opts.ArtifactKeyOpts(format)))
			if !ok {
				break
			}
			cached[format] = data
		}
		if len(cached) == len(opts.Formats) {
			return cached, true, nil
		}
	}

	rendered, err := Render(b, opts)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		r.set(ctx, keyTypeArtifact, r.Keyer.ArtifactKey(boardHash, opts.ArtifactKeyOpts(format)), data, cache.TTLArtifact)
	}
	return rendered, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, b board.Board, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, b, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) get(ctx context.Context, keyType, key string) ([]byte, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "type", keyType, "error", err)
		return nil, false
	}
	if !hit {
		observability.Cache().OnCacheMiss(ctx, keyType)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, keyType)
	return data, true
}

func (r *Runner) set(ctx context.Context, keyType, key string, data []byte, ttl time.Duration) {
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "type", keyType, "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

func itemsHash(items []layout.Item) (string, error) {
	data, err := board.MarshalItems(items)
	if err != nil {
		return "", fmt.Errorf("serialize items for cache key: %w", err)
	}
	return cache.Hash(data), nil
}
