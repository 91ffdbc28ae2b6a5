package pipeline

import (
	"fmt"

	"github.com/matzehuels/masonry/pkg/board"
	"github.com/matzehuels/masonry/pkg/render/sink"
)

// Render generates output artifacts in the requested formats.
func Render(b board.Board, opts Options) (map[string][]byte, error) {
	opts.SetRenderDefaults()
	artifacts := make(map[string][]byte, len(opts.Formats))

	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG:
			data = sink.RenderSVG(b, buildSVGOptions(opts)...)
		case FormatJSON:
			var jsonOpts []sink.JSONOption
			if opts.Windowed() {
				jsonOpts = append(jsonOpts, sink.WithJSONWindow(opts.Top, opts.Height, opts.Buffer))
			}
			data, err = sink.RenderJSON(b, jsonOpts...)
		default:
			return nil, ValidateFormat(format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}

// RenderFromBoardData renders output from a serialized board.
func RenderFromBoardData(data []byte, opts Options) (map[string][]byte, error) {
	b, err := board.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("parse board: %w", err)
	}
	return Render(b, opts)
}

func buildSVGOptions(opts Options) []sink.SVGOption {
	var svgOpts []sink.SVGOption
	if opts.Labels {
		svgOpts = append(svgOpts, sink.WithLabels())
	}
	if opts.Background != "" {
		svgOpts = append(svgOpts, sink.WithBackground(opts.Background))
	}
	if opts.Windowed() {
		svgOpts = append(svgOpts, sink.WithWindow(opts.Top, opts.Height, opts.Buffer))
	}
	return svgOpts
}
