package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/masonry/pkg/board"
	"github.com/matzehuels/masonry/pkg/catalog"
	"github.com/matzehuels/masonry/pkg/core/layout"
	"github.com/matzehuels/masonry/pkg/core/schedule"
	"github.com/matzehuels/masonry/pkg/core/window"
	"github.com/matzehuels/masonry/pkg/masonry"
	"github.com/matzehuels/masonry/pkg/render/sink"
)

// Terminal cells are mapped to layout pixels at a fixed scale.
const (
	cellWidth  = 10.0
	cellHeight = 20.0

	// chromeRows is the number of rows used by the status and help lines.
	chromeRows = 2
)

// viewCommand creates the view command: an interactive terminal viewer.
func (c *CLI) viewCommand() *cobra.Command {
	var (
		watch     bool
		batchSize int
	)

	cmd := &cobra.Command{
		Use:   "view [source]",
		Short: "Browse a masonry layout in the terminal",
		Long: `Browse a masonry layout in the terminal.

Items are fetched in batches and more are loaded as you scroll towards the
end. With --watch an item file is reloaded whenever it changes on disk.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := c.Config.Catalog.Source
			if len(args) == 1 {
				source = args[0]
			}
			if source == "" {
				return fmt.Errorf("no source given and catalog.source is not configured")
			}
			if batchSize <= 0 {
				batchSize = c.Config.Catalog.BatchSize
			}
			return c.runView(cmd.Context(), source, batchSize, watch)
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "reload the item file when it changes")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "items per fetch (default from config)")

	return cmd
}

// runView opens the source and runs the viewer until the user quits.
func (c *CLI) runView(ctx context.Context, source string, batchSize int, watch bool) error {
	src, err := catalog.Open(ctx, source)
	if err != nil {
		return err
	}
	pager := catalog.NewPager(src, batchSize)
	defer src.Close()

	var reload func() ([]layout.Item, error)
	if watch {
		reload = func() ([]layout.Item, error) { return board.ReadItemsFile(source) }
	}
	first, err := initialItems(ctx, pager, reload)
	if err != nil {
		return fmt.Errorf("load %s: %w", src.Name(), err)
	}

	clock := schedule.NewManualClock()
	view, err := masonry.New(c.Config.Layout, clock,
		masonry.WithItems(first),
		masonry.WithLogger(c.Logger))
	if err != nil {
		return err
	}
	defer view.Close()

	m := newViewerModel(ctx, view, clock, pager)
	m.reload = reload

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if watch {
		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			if err := watchFile(watchCtx, source, c.Logger, func() { p.Send(reloadMsg{}) }); err != nil {
				p.Send(errMsg{err})
			}
		}()
	}

	_, err = p.Run()
	return err
}

// initialItems returns the items the viewer starts with. A watched file is
// loaded whole since paging is off while watching; otherwise only the first
// batch is fetched.
func initialItems(ctx context.Context, pager *catalog.Pager, reload func() ([]layout.Item, error)) ([]layout.Item, error) {
	if reload != nil {
		return reload()
	}
	return pager.Next(ctx)
}

// =============================================================================
// Messages
// =============================================================================

type (
	frameMsg  struct{}
	reloadMsg struct{}
	errMsg    struct{ err error }
	batchMsg  struct {
		items []layout.Item
		err   error
	}
)

// =============================================================================
// Key Bindings
// =============================================================================

type viewerKeys struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Top      key.Binding
	Bottom   key.Binding
	Quit     key.Binding
}

func (k viewerKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.PageDown, k.Top, k.Bottom, k.Quit}
}

func (k viewerKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown},
		{k.Top, k.Bottom, k.Quit},
	}
}

var defaultViewerKeys = viewerKeys{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	PageUp: key.NewBinding(
		key.WithKeys("pgup", "b"),
		key.WithHelp("pgup/b", "page up"),
	),
	PageDown: key.NewBinding(
		key.WithKeys("pgdown", " ", "f"),
		key.WithHelp("pgdn/space", "page down"),
	),
	Top: key.NewBinding(
		key.WithKeys("home", "g"),
		key.WithHelp("g", "top"),
	),
	Bottom: key.NewBinding(
		key.WithKeys("end", "G"),
		key.WithHelp("G", "bottom"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// =============================================================================
// viewerModel
// =============================================================================

// viewerModel drives a masonry view from terminal events. Window size
// messages resize the container, keys scroll it and a frame tick advances
// the view's clock so layout passes run on the program's loop.
type viewerModel struct {
	ctx   context.Context
	view  *masonry.View
	clock *schedule.ManualClock
	pager *catalog.Pager

	// reload re-reads the full item list; nil unless watching.
	reload func() ([]layout.Item, error)

	keys viewerKeys
	help help.Model

	width, height int
	loading       bool
	status        string
	interval      time.Duration
}

func newViewerModel(ctx context.Context, view *masonry.View, clock *schedule.ManualClock, pager *catalog.Pager) viewerModel {
	return viewerModel{
		ctx:      ctx,
		view:     view,
		clock:    clock,
		pager:    pager,
		keys:     defaultViewerKeys,
		help:     help.New(),
		interval: view.Config().FrameInterval,
	}
}

func (m viewerModel) Init() tea.Cmd {
	return m.tick()
}

func (m viewerModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(time.Time) tea.Msg { return frameMsg{} })
}

func (m viewerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.view.Resize(float64(m.width)*cellWidth, float64(m.rows())*cellHeight)
		return m, nil

	case tea.KeyMsg:
		page := float64(m.rows()) * cellHeight
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			m.view.ScrollBy(-cellHeight)
		case key.Matches(msg, m.keys.Down):
			m.view.ScrollBy(cellHeight)
		case key.Matches(msg, m.keys.PageUp):
			m.view.ScrollBy(-page)
		case key.Matches(msg, m.keys.PageDown):
			m.view.ScrollBy(page)
		case key.Matches(msg, m.keys.Top):
			m.view.Scroll(0)
		case key.Matches(msg, m.keys.Bottom):
			m.view.Scroll(m.view.TrackHeight())
		}
		return m.loadMore()

	case frameMsg:
		m.clock.Tick()
		next, cmd := m.loadMore()
		return next, tea.Batch(cmd, m.tick())

	case batchMsg:
		m.loading = false
		if msg.err != nil {
			m.status = "load failed: " + msg.err.Error()
			return m, nil
		}
		m.view.AppendItems(msg.items...)
		return m, nil

	case reloadMsg:
		if m.reload == nil {
			return m, nil
		}
		items, err := m.reload()
		if err != nil {
			m.status = "reload failed: " + err.Error()
			return m, nil
		}
		m.view.SetItems(items)
		m.status = fmt.Sprintf("reloaded %d items", len(items))
		return m, nil

	case errMsg:
		m.status = msg.err.Error()
		return m, nil
	}
	return m, nil
}

// loadMore starts fetching the next batch when the viewport nears the end
// of the track. Only one fetch runs at a time.
func (m viewerModel) loadMore() (viewerModel, tea.Cmd) {
	if m.pager == nil || m.reload != nil || m.loading || m.pager.Exhausted() || !m.view.NearEnd() {
		return m, nil
	}
	m.loading = true
	pager, ctx := m.pager, m.ctx
	return m, func() tea.Msg {
		items, err := pager.Next(ctx)
		return batchMsg{items: items, err: err}
	}
}

// rows is the number of terminal rows available for tiles.
func (m viewerModel) rows() int {
	return max(m.height-chromeRows, 1)
}

func (m viewerModel) View() string {
	if m.width == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.renderTiles())
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// renderTiles draws the visible tiles into a grid of terminal cells. Each
// tile is filled with its palette color and labeled with its ID.
func (m viewerModel) renderTiles() string {
	rows, cols := m.rows(), m.width
	grid := make([][]cell, rows)
	for i := range grid {
		grid[i] = make([]cell, cols)
	}

	top := m.view.Viewport().Top
	for e := range m.view.Visible() {
		paintTile(grid, e, top)
	}

	var b strings.Builder
	for _, row := range grid {
		renderRow(&b, row)
		b.WriteString("\n")
	}
	return b.String()
}

// cell is one terminal cell. A zero cell is background.
type cell struct {
	tile  bool
	id    int64
	label rune
}

func paintTile(grid [][]cell, e window.Entry, top float64) {
	rows, cols := len(grid), len(grid[0])
	x0 := int(e.X / cellWidth)
	x1 := max(int((e.X+e.Width)/cellWidth)-1, x0+1)
	y0 := int((e.Y - top) / cellHeight)
	y1 := max(int((e.Y+e.Height-top)/cellHeight), y0+1)

	label := []rune(strconv.FormatInt(e.ID, 10))
	for y := max(y0, 0); y < min(y1, rows); y++ {
		for x := max(x0, 0); x < min(x1, cols); x++ {
			c := cell{tile: true, id: e.ID}
			if y == y0 && x-x0 < len(label) {
				c.label = label[x-x0]
			}
			grid[y][x] = c
		}
	}
}

// renderRow writes runs of cells sharing a tile with one style each.
func renderRow(b *strings.Builder, row []cell) {
	for i := 0; i < len(row); {
		j := i
		var run strings.Builder
		for ; j < len(row) && row[j].tile == row[i].tile && row[j].id == row[i].id; j++ {
			if row[j].label != 0 {
				run.WriteRune(row[j].label)
			} else {
				run.WriteByte(' ')
			}
		}
		if row[i].tile {
			style := lipgloss.NewStyle().
				Background(lipgloss.Color(sink.TileColor(sink.DefaultPalette, row[i].id))).
				Foreground(lipgloss.Color("0"))
			b.WriteString(style.Render(run.String()))
		} else {
			b.WriteString(run.String())
		}
		i = j
	}
}

func (m viewerModel) renderStatus() string {
	st := m.view.State()
	parts := []string{
		fmt.Sprintf("%d items", m.view.Len()),
		fmt.Sprintf("%d columns", st.ColumnCount),
		fmt.Sprintf("%.0f/%.0f px", st.ScrollTop, m.view.TrackHeight()),
	}
	switch {
	case m.loading:
		parts = append(parts, StyleHighlight.Render("loading..."))
	case m.pager != nil && m.reload == nil && m.pager.Exhausted():
		parts = append(parts, "end")
	}
	if m.status != "" {
		parts = append(parts, StyleWarning.Render(m.status))
	}
	return StyleDim.Render(strings.Join(parts, " · "))
}
