package ui

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/sirupsen/logrus"

	"github.com/olivier-w/panelviz/internal/analysis"
	"github.com/olivier-w/panelviz/internal/effect"
	"github.com/olivier-w/panelviz/internal/interaction"
	"github.com/olivier-w/panelviz/internal/media"
	"github.com/olivier-w/panelviz/internal/player"
	"github.com/olivier-w/panelviz/internal/render"
	"github.com/olivier-w/panelviz/internal/router"
	"github.com/olivier-w/panelviz/internal/state"
	"github.com/olivier-w/panelviz/internal/util"
	"github.com/olivier-w/panelviz/internal/video"
	"github.com/olivier-w/panelviz/internal/workspace"
)

// loadedBannerFrames is how long the "press SPACE" banner stays up.
const loadedBannerFrames = 120

// failedStatusFrames is how long a failed open holds the status line while
// another track stays loaded.
const failedStatusFrames = 180

const defaultStatus = "Drop audio file here or press 'O' to open"

// Transport is the playback side the editor drives.
type Transport interface {
	Load(*player.Track) error
	IsLoaded() bool
	SetPlaying(bool)
	IsPlaying() bool
	Position() time.Duration
	Duration() time.Duration
	Metadata() player.Metadata
}

// Energies is the analysis side the panels read every frame.
type Energies interface {
	Energy(id router.PanelID, b analysis.Band) float64
	SpectrumSlice(id router.PanelID, minHz, maxHz float64, n int) []float64
	HasDedicatedInput(id router.PanelID) bool
}

// Options configures a Model.
type Options struct {
	Workspace *workspace.Workspace
	Settings  state.Settings
	Router    Energies
	Transport Transport
	// Open decodes a file. It runs off the UI goroutine.
	Open        func(path string) (*player.Track, error)
	StatePath   string
	FPS         int
	Renderer    *video.Renderer
	Log         logrus.FieldLogger
	InitialPath string
	Now         func() time.Time
	// OnChange runs on the UI goroutine after every edit with the new
	// panel count.
	OnChange func(panels int)
}

// fxDrag is an effect or background swatch being dragged out of the picker.
type fxDrag struct {
	background bool
	kind       effect.Kind
	color      colorful.Color
	pos        image.Point
}

// Model is the Bubbletea model for the panel editor.
type Model struct {
	ws        *workspace.Workspace
	settings  state.Settings
	energies  Energies
	transport Transport
	open      func(string) (*player.Track, error)
	saver     *state.Saver
	interval  time.Duration
	renderer  *video.Renderer
	log       logrus.FieldLogger
	now       func() time.Time
	initial   string
	onChange  func(int)

	width, height int
	canvas        *render.Canvas
	frame         []string
	raw           map[int]float64

	drag    interaction.Drag
	clicks  interaction.ClickGroup
	picker  picker
	fx      *fxDrag
	menu    *menuState
	browser *BrowserModel

	// pending counts opens in flight; the last to finish wins.
	pending      int
	spinner      spinner.Model
	status       string
	loadedFrames int
	failedFrames int
	quitting     bool
}

// New creates the editor.
func New(o Options) Model {
	if o.FPS <= 0 {
		o.FPS = 60
	}
	if o.Renderer == nil {
		o.Renderer = video.NewRenderer()
	}
	if o.Log == nil {
		o.Log = util.Discard()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Workspace == nil {
		o.Workspace = workspace.Default()
	}
	if o.Open == nil {
		o.Open = player.Open
	}
	var saver *state.Saver
	if o.StatePath != "" {
		saver = state.NewSaver(o.StatePath)
	}
	return Model{
		ws:        o.Workspace,
		settings:  o.Settings,
		energies:  o.Router,
		transport: o.Transport,
		open:      o.Open,
		saver:     saver,
		interval:  time.Second / time.Duration(o.FPS),
		renderer:  o.Renderer,
		log:       o.Log,
		now:       o.Now,
		initial:   o.InitialPath,
		onChange:  o.OnChange,
		canvas:    render.NewCanvas(1, 1),
		raw:       make(map[int]float64),
		picker:    newPicker(o.FPS),
		spinner:   spinner.New(spinner.WithSpinner(spinner.MiniDot)),
		status:    defaultStatus,
	}
}

// Workspace exposes the edited layout.
func (m Model) Workspace() *workspace.Workspace { return m.ws }

// Settings are the current editor toggles.
func (m Model) Settings() state.Settings { return m.settings }

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{frameCmd(m.interval), tea.SetWindowTitle("panelviz")}
	if m.initial != "" {
		path := m.initial
		cmds = append(cmds, func() tea.Msg { return LoadPathMsg(path) })
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.browser != nil {
		switch msg := msg.(type) {
		case BrowserSelectedMsg:
			m.browser = nil
			return m.startLoad(msg.Path)
		case BrowserCancelledMsg:
			m.browser = nil
			return m, nil
		case tea.WindowSizeMsg:
			m.browser.SetSize(msg.Width, msg.Height)
		case frameMsg, spinner.TickMsg, trackOpenedMsg, stateSavedMsg, AppearanceMsg, LoadPathMsg:
		default:
			b, cmd := m.browser.Update(msg)
			m.browser = &b
			return m, cmd
		}
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		w, h := video.CellSize(m.width, m.frameRows())
		m.canvas.Resize(w, h)
		m.ws.Layout(m.canvas.Bounds())
		m.menu = nil
		return m, nil

	case frameMsg:
		if m.quitting {
			return m, nil
		}
		m.drag.Tick(m.now(), m.ws)
		m.picker.step()
		if m.loadedFrames > 0 {
			m.loadedFrames--
		}
		if m.failedFrames > 0 {
			m.failedFrames--
		}
		m.draw()
		return m, frameCmd(m.interval)

	case spinner.TickMsg:
		if m.pending == 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case trackOpenedMsg:
		if m.pending > 0 {
			m.pending--
		}
		if msg.err != nil {
			m.log.WithError(msg.err).WithField("path", msg.path).Warn("open failed")
			return m.loadFailed(), nil
		}
		if err := m.transport.Load(msg.track); err != nil {
			msg.track.Close()
			m.log.WithError(err).WithField("path", msg.path).Warn("load failed")
			return m.loadFailed(), nil
		}
		m.log.WithFields(logrus.Fields{"path": msg.path, "duration": m.transport.Duration()}).Info("audio loaded")
		m.status = "Audio loaded: " + msg.track.Name()
		m.loadedFrames = loadedBannerFrames
		m.failedFrames = 0
		return m, tea.SetWindowTitle(msg.track.Meta.String() + " - panelviz")

	case stateSavedMsg:
		if msg.err != nil {
			m.log.WithError(msg.err).Warn("saving state failed")
		}
		return m, nil

	case AppearanceMsg:
		m.applyAppearance(msg)
		return m, nil

	case LoadPathMsg:
		return m.startLoad(string(msg))

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)
	}
	return m, nil
}

func (m *Model) applyAppearance(a AppearanceMsg) {
	m.settings.LightMode = a.LightMode
	m.settings.ShowValues = a.ShowValues
	if c, err := effect.ParseColor(a.Accent); err == nil {
		m.settings.Accent = c
	}
	if c, err := effect.ParseColor(a.Background); err == nil {
		m.settings.Background = c
	}
}

// loadFailed reports a failed open. The current track, if any, stays
// loaded.
func (m Model) loadFailed() Model {
	m.status = "Failed to load audio file"
	m.loadedFrames = 0
	m.failedFrames = failedStatusFrames
	return m
}

func (m Model) startLoad(path string) (tea.Model, tea.Cmd) {
	m.pending++
	m.status = "Loading " + filepath.Base(path)
	open := m.open
	load := func() tea.Msg {
		tr, err := open(path)
		return trackOpenedMsg{path: path, track: tr, err: err}
	}
	if m.pending > 1 {
		return m, load
	}
	return m, tea.Batch(m.spinner.Tick, load)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Paste {
		if path, ok := media.DroppedAudio(string(msg.Runes)); ok {
			return m.startLoad(path)
		}
		m.status = "Unsupported file (" + media.SupportedFormats() + ")"
		return m, nil
	}

	if m.picker.editing {
		switch msg.String() {
		case "enter":
			if c, ok := m.picker.finishHexEdit(); ok {
				m.settings.Accent = c
				return m, m.saveState()
			}
			return m, nil
		case "esc":
			m.picker.editing = false
			m.picker.hex.Blur()
			return m, nil
		case "ctrl+c":
		default:
			var cmd tea.Cmd
			m.picker.hex, cmd = m.picker.hex.Update(msg)
			return m, cmd
		}
	}

	if m.menu != nil {
		switch msg.String() {
		case "up", "k":
			m.menu.move(-1)
			return m, nil
		case "down", "j":
			m.menu.move(1)
			return m, nil
		case "enter", " ":
			return m.selectMenu(m.menu.cursor)
		case "esc":
			m.menu = nil
			return m, nil
		}
	}

	if isQuit(msg) {
		m.quitting = true
		if err := m.save(); err != nil {
			m.log.WithError(err).Warn("saving state failed")
		}
		return m, tea.Quit
	}

	switch msg.String() {
	case " ":
		if !m.transport.IsLoaded() {
			return m, nil
		}
		m.loadedFrames = 0
		m.transport.SetPlaying(!m.transport.IsPlaying())
	case "o":
		dir, err := os.Getwd()
		if err != nil {
			dir = "."
		}
		b := NewEmbeddedBrowser(dir)
		b.SetSize(m.width, m.height)
		m.browser = &b
		m.menu = nil
	case "e":
		m.picker.toggle()
	case "l":
		m.settings.LightMode = !m.settings.LightMode
		return m, m.saveState()
	case "v":
		m.settings.ShowValues = !m.settings.ShowValues
		return m, m.saveState()
	case "esc":
		m.drag.Cancel()
		m.fx = nil
	}
	return m, nil
}

// pixel maps a cell to the top pixel of its half-block pair.
func pixel(x, y int) image.Point {
	return image.Pt(x, y*2)
}

func (m Model) inPicker(x int) bool {
	return x < m.picker.cols()
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	cell := image.Pt(msg.X, msg.Y)
	pt := pixel(msg.X, msg.Y)

	switch msg.Action {
	case tea.MouseActionPress:
		if m.menu != nil {
			if msg.Button == tea.MouseButtonLeft && m.menu.contains(cell, m.width, m.frameRows()) {
				return m.selectMenu(m.menu.itemAt(cell, m.width, m.frameRows()))
			}
			m.menu = nil
			if msg.Button == tea.MouseButtonLeft {
				return m, nil
			}
		}

		switch msg.Button {
		case tea.MouseButtonRight:
			if m.inPicker(msg.X) {
				return m, nil
			}
			if p := m.ws.PanelAt(pt); p != nil {
				mn := interaction.NewMenu(p, m.ws.Count(), m.settings.ShowValues, m.energies.HasDedicatedInput(p.Slot))
				m.menu = newMenuState(mn, cell)
			}
		case tea.MouseButtonLeft:
			if m.inPicker(msg.X) {
				return m.pressPicker(msg.X+pickerWidth-m.picker.cols(), msg.Y, pt)
			}
			if m.picker.editing {
				m.picker.editing = false
				m.picker.hex.Blur()
			}
			p := m.ws.PanelAt(pt)
			if p == nil {
				return m, nil
			}
			if m.clicks.Click(m.now()) {
				m.picker.toggle()
			}
			m.drag.Press(p.ID, pt, m.now())
		}

	case tea.MouseActionMotion:
		if m.fx != nil {
			m.fx.pos = pt
			return m, nil
		}
		m.drag.Move(pt)

	case tea.MouseActionRelease:
		if m.fx != nil {
			return m.dropSwatch(pt)
		}
		m.drag.Move(pt)
		if drop, ok := m.drag.Release(); ok && drop.Apply(m.ws) {
			m.ws.Layout(m.canvas.Bounds())
			return m, m.saveState()
		}
	}
	return m, nil
}

func (m Model) pressPicker(col, row int, pt image.Point) (tea.Model, tea.Cmd) {
	h, ok := m.picker.hit(col, row)
	if !ok {
		return m, nil
	}
	switch h.kind {
	case rowAccents:
		c, _ := effect.ParseColor(accentSwatches[h.index])
		m.settings.Accent = c
		return m, m.saveState()
	case rowColor:
		m.picker.startHexEdit(m.settings.Accent)
		return m, textinput.Blink
	case rowBackgrounds:
		c, _ := effect.ParseColor(backgroundSwatches[h.index])
		m.settings.Background = c
		m.fx = &fxDrag{background: true, color: c, pos: pt}
	case rowApplyAll:
		m.settings.BackgroundApplyAll = !m.settings.BackgroundApplyAll
		return m, m.saveState()
	case rowLight:
		m.settings.LightMode = !m.settings.LightMode
		return m, m.saveState()
	case rowEffect:
		m.fx = &fxDrag{kind: h.effect, pos: pt}
	}
	return m, nil
}

// fxTarget is the panel under an effect or swatch drag.
func (m Model) fxTarget() *workspace.Panel {
	if m.fx == nil || m.inPicker(m.fx.pos.X) {
		return nil
	}
	return m.ws.PanelAt(m.fx.pos)
}

func (m Model) dropSwatch(pt image.Point) (tea.Model, tea.Cmd) {
	m.fx.pos = pt
	target := m.fxTarget()
	fx := m.fx
	m.fx = nil
	if target == nil {
		return m, nil
	}
	switch {
	case !fx.background:
		m.ws.ApplyEffect(target.ID, fx.kind, m.settings.Accent)
	case m.settings.BackgroundApplyAll:
		m.ws.SetBackgroundAll(fx.color)
	default:
		m.ws.SetBackground(target.ID, fx.color)
	}
	return m, m.saveState()
}

func (m Model) selectMenu(i int) (tea.Model, tea.Cmd) {
	mn := m.menu
	m.menu = nil
	if mn == nil {
		return m, nil
	}
	a, ok := mn.menu.Select(i)
	if !ok {
		return m, nil
	}
	if a.Kind == interaction.ToggleValuesAction {
		m.settings.ShowValues = !m.settings.ShowValues
		return m, m.saveState()
	}
	if !a.Apply(m.ws) {
		return m, nil
	}
	m.ws.Layout(m.canvas.Bounds())
	return m, m.saveState()
}

// save writes the state file synchronously.
func (m Model) save() error {
	if m.saver == nil {
		return nil
	}
	return m.saver.Flush(state.Capture(m.ws, m.settings))
}

// saveState snapshots now and writes in the background. The saver drops a
// write that finishes after a newer one.
func (m Model) saveState() tea.Cmd {
	if m.onChange != nil {
		m.onChange(m.ws.Count())
	}
	if m.saver == nil {
		return nil
	}
	write := m.saver.Queue(state.Capture(m.ws, m.settings))
	return func() tea.Msg {
		return stateSavedMsg{err: write()}
	}
}

func (m Model) frameRows() int {
	if m.height < 2 {
		return 1
	}
	return m.height - 1
}

// draw renders every panel and the drag feedback into the canvas and
// caches the terminal frame.
func (m *Model) draw() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	light := m.settings.LightMode
	playing := m.transport.IsPlaying()
	m.canvas.Clear(effect.Opaque(effect.Background(light)))

	for _, p := range m.ws.Panels() {
		slot := p.Slot
		raw := m.energies.Energy(slot, p.Config.Band)
		m.raw[p.ID] = raw
		adj := p.Config.Adjust(raw)
		p.State.Smooth(adj, playing, p.Config.Smoothing)
		p.State.Render(m.canvas, p.Bounds, p.Config, effect.Frame{
			Raw:  adj,
			Kick: m.energies.Energy(slot, analysis.KickTransient),
			Spectrum: func(lo, hi float64, n int) []float64 {
				return m.energies.SpectrumSlice(slot, lo, hi, n)
			},
			Background: workspace.BackgroundFor(p, light),
			Light:      light,
		})
	}

	border := colorful.Color{R: 30.0 / 255, G: 30.0 / 255, B: 30.0 / 255}
	if light {
		border = colorful.Color{R: 180.0 / 255, G: 180.0 / 255, B: 180.0 / 255}
	}
	for _, p := range m.ws.Panels() {
		m.canvas.StrokeRect(p.Bounds, 1, effect.Opaque(border))
	}

	if target := m.fxTarget(); target != nil {
		m.canvas.StrokeRect(target.Bounds, 2, effect.WithAlpha(colorful.Color{G: 122.0 / 255, B: 1}, 0.8))
	}

	if m.drag.Phase() == interaction.Active {
		if src, ok := m.drag.Source(); ok {
			if p := m.ws.Panel(src); p != nil {
				m.canvas.StrokeRect(p.Bounds, 2, effect.WithAlpha(effect.White, 0.5))
			}
		}
		if z, ok := m.drag.Hovered(); ok {
			if t := m.ws.Panel(z.Target); t != nil {
				r := interaction.Preview(z, t.Bounds)
				m.canvas.FillRect(r, effect.WithAlpha(colorful.Color{R: 0.5, G: 0.5, B: 0.5}, 0.55))
				m.canvas.StrokeRect(r, 1, effect.WithAlpha(effect.White, 0.85))
			}
		}
	}

	out := m.renderer.Render(m.canvas.Image(), m.width, m.frameRows())
	m.frame = strings.Split(out, "\n")
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.browser != nil {
		return m.browser.View()
	}
	if m.width <= 0 || m.height <= 0 {
		return ""
	}

	rows := m.frameRows()
	lines := make([]string, rows)
	copy(lines, m.frame)
	for i := range lines {
		if lines[i] == "" {
			lines[i] = strings.Repeat(" ", m.width)
		}
	}

	loaded := m.transport.IsLoaded()
	if m.settings.ShowValues && loaded {
		vs := valueStyle(m.settings.LightMode)
		for _, p := range m.ws.Panels() {
			room := p.Bounds.Dx() - 2
			if room < 4 {
				continue
			}
			text := fmt.Sprintf("%s: %.2f", p.Config.Band.Name(), m.raw[p.ID])
			overlay(lines, p.Bounds.Min.X+1, p.Bounds.Min.Y/2, vs.Render(fit(text, min(ansi.StringWidth(text), room))))
		}
	}

	switch {
	case m.loadedFrames > 0:
		m.centre(lines, rows/2, bannerStyle.Render("Audio loaded! Press SPACE to play"))
	case !loaded:
		m.centre(lines, rows/2-1, bannerStyle.Render(m.status))
		m.centre(lines, rows/2+1, hintStyle.Render("Supported formats: "+media.SupportedFormats()))
	}

	if c := m.picker.cols(); c > 0 {
		var hover effect.Kind
		if m.fx != nil && !m.fx.background {
			hover = m.fx.kind
		}
		side := m.picker.view(pickerView{
			light:    m.settings.LightMode,
			accent:   m.settings.Accent,
			applyAll: m.settings.BackgroundApplyAll,
			hoverFx:  hover,
			dragging: m.fx != nil && !m.fx.background,
			height:   rows,
		})
		if c < pickerWidth {
			parts := strings.Split(side, "\n")
			for i, l := range parts {
				parts[i] = ansi.TruncateLeft(l, pickerWidth-c, "")
			}
			side = strings.Join(parts, "\n")
		}
		overlay(lines, 0, 0, side)
	}

	if m.menu != nil {
		box, at := m.menu.box(m.width, rows)
		overlay(lines, at.X, at.Y, box)
	}

	return strings.Join(lines, "\n") + "\n" + m.statusLine()
}

func (m Model) centre(lines []string, row int, text string) {
	overlay(lines, (m.width-ansi.StringWidth(text))/2, row, text)
}

func (m Model) statusLine() string {
	left := m.status
	if m.pending > 0 {
		left = m.spinner.View() + " " + left
	} else if m.transport.IsLoaded() {
		icon := "❚❚"
		if m.transport.IsPlaying() {
			icon = "▶"
		}
		left = icon + " " + m.transport.Metadata().String()
		if m.loadedFrames > 0 || m.failedFrames > 0 {
			left = icon + " " + m.status
		}
	}
	left = titleStyle.Render(left)

	help := helpStyle.Render(helpText(m.transport.IsLoaded()))
	var middle string
	if m.transport.IsLoaded() {
		elapsed, total := m.transport.Position(), m.transport.Duration()
		times := util.FormatProgress(elapsed, total)
		barWidth := m.width - ansi.StringWidth(left) - ansi.StringWidth(help) - len(times) - 6
		if barWidth >= 10 {
			middle = statusStyle.Render(renderProgressBar(elapsed.Seconds(), total.Seconds(), barWidth)) + " " + timeStyle.Render(times)
		} else {
			middle = timeStyle.Render(times)
		}
	}

	line := left + "  " + middle
	gap := m.width - ansi.StringWidth(line) - ansi.StringWidth(help)
	if gap < 1 {
		return fit(line, m.width)
	}
	return line + strings.Repeat(" ", gap) + help
}
