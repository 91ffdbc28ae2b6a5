package masonry

import (
	"time"

	"github.com/matzehuels/masonry/pkg/core/geometry"
	"github.com/matzehuels/masonry/pkg/core/schedule"
	"github.com/matzehuels/masonry/pkg/core/window"
	"github.com/matzehuels/masonry/pkg/errors"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultMinColumnWidth is the lower bound used to derive the column
	// count from the container width.
	DefaultMinColumnWidth = geometry.DefaultMinColumnWidth

	// DefaultGap is the spacing between columns and between stacked items.
	DefaultGap = geometry.DefaultGap

	// DefaultBuffer is the margin beyond the viewport within which items are
	// still rendered.
	DefaultBuffer = window.DefaultBuffer

	// DefaultLoadMoreThreshold is the distance from the end of the track at
	// which [View.NearEnd] starts reporting true.
	DefaultLoadMoreThreshold = 500.0

	// DefaultFrameInterval is the frame length used by [schedule.TickerClock].
	DefaultFrameInterval = schedule.DefaultFrameInterval
)

// =============================================================================
// Config
// =============================================================================

// Config holds the tunables of a masonry view. It is decoded from the
// [layout] table of the config file and from API requests.
type Config struct {
	MinColumnWidth    float64       `toml:"min_column_width" json:"min_column_width,omitempty"`
	Gap               float64       `toml:"gap" json:"gap"`
	Buffer            float64       `toml:"buffer" json:"buffer"`
	LoadMoreThreshold float64       `toml:"load_more_threshold" json:"load_more_threshold"`
	FrameInterval     time.Duration `toml:"frame_interval" json:"-"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		MinColumnWidth:    DefaultMinColumnWidth,
		Gap:               DefaultGap,
		Buffer:            DefaultBuffer,
		LoadMoreThreshold: DefaultLoadMoreThreshold,
		FrameInterval:     DefaultFrameInterval,
	}
}

// SetDefaults fills fields whose zero value is not meaningful. A zero gap,
// buffer or load-more threshold is a valid setting and is left alone; start
// from [DefaultConfig] to get the defaults for those.
func (c *Config) SetDefaults() {
	if c.MinColumnWidth == 0 {
		c.MinColumnWidth = DefaultMinColumnWidth
	}
	if c.FrameInterval == 0 {
		c.FrameInterval = DefaultFrameInterval
	}
}

// Validate checks that every length is finite and non-negative and that the
// minimum column width is positive.
func (c Config) Validate() error {
	checks := []struct {
		name  string
		value float64
	}{
		{"min_column_width", c.MinColumnWidth},
		{"gap", c.Gap},
		{"buffer", c.Buffer},
		{"load_more_threshold", c.LoadMoreThreshold},
	}
	for _, ch := range checks {
		if err := errors.ValidateLength(ch.name, ch.value); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid layout config")
		}
	}
	if c.MinColumnWidth == 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "min_column_width must be positive")
	}
	if c.FrameInterval < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "frame_interval cannot be negative")
	}
	return nil
}

// Clock returns a ticker clock running at the configured frame interval.
func (c Config) Clock() schedule.Clock {
	return schedule.TickerClock{Interval: c.FrameInterval}
}
