package ui

import (
	"errors"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"

	"github.com/olivier-w/panelviz/internal/effect"
	"github.com/olivier-w/panelviz/internal/player"
	"github.com/olivier-w/panelviz/internal/router"
	"github.com/olivier-w/panelviz/internal/state"
	"github.com/olivier-w/panelviz/internal/video"
	"github.com/olivier-w/panelviz/internal/workspace"
)

type fakeTransport struct {
	track   *player.Track
	playing bool
	loads   int
}

func (f *fakeTransport) Load(t *player.Track) error {
	f.loads++
	f.track = t
	f.playing = false
	return nil
}

func (f *fakeTransport) IsLoaded() bool { return f.track != nil }

func (f *fakeTransport) SetPlaying(on bool) {
	if f.track != nil {
		f.playing = on
	}
}

func (f *fakeTransport) IsPlaying() bool         { return f.playing }
func (f *fakeTransport) Position() time.Duration { return 30 * time.Second }
func (f *fakeTransport) Duration() time.Duration { return 3 * time.Minute }

func (f *fakeTransport) Metadata() player.Metadata {
	if f.track == nil {
		return player.Metadata{}
	}
	return f.track.Meta
}

type harness struct {
	tr    *fakeTransport
	clock time.Time
	opens []string
}

func newTestModel(t *testing.T, statePath string) (Model, *harness) {
	t.Helper()
	h := &harness{tr: &fakeTransport{}, clock: time.Unix(1000, 0)}
	m := New(Options{
		Workspace: workspace.Default(),
		Settings:  state.DefaultSettings(),
		Router:    router.New(48000),
		Transport: h.tr,
		Open: func(path string) (*player.Track, error) {
			h.opens = append(h.opens, path)
			if strings.Contains(path, "broken") {
				return nil, errors.New("bad header")
			}
			return &player.Track{Path: path, Meta: player.Metadata{Title: "Song", Artist: "Band"}}, nil
		},
		StatePath: statePath,
		FPS:       60,
		Renderer:  video.NewRendererWithProfile(termenv.Ascii),
		Now:       func() time.Time { return h.clock },
	})
	m = send(t, m, tea.WindowSizeMsg{Width: 80, Height: 25})
	return m, h
}

func step(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	mm, ok := next.(Model)
	if !ok {
		t.Fatalf("expected Model, got %T", next)
	}
	return mm, cmd
}

func send(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	m, _ = step(t, m, msg)
	return m
}

// run executes cmd, flattening batches.
func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, run(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func press(x, y int, b tea.MouseButton) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Button: b, Action: tea.MouseActionPress}
}

func release(x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Button: tea.MouseButtonLeft, Action: tea.MouseActionRelease}
}

func motion(x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Button: tea.MouseButtonLeft, Action: tea.MouseActionMotion}
}

func key(s string) tea.KeyMsg {
	switch s {
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// load drives a load through the open command.
func load(t *testing.T, m Model, path string) Model {
	t.Helper()
	m, cmd := step(t, m, LoadPathMsg(path))
	for _, msg := range run(cmd) {
		if opened, ok := msg.(trackOpenedMsg); ok {
			m = send(t, m, opened)
		}
	}
	return m
}

func TestInitialViewShowsDropHint(t *testing.T) {
	m, _ := newTestModel(t, "")
	m = send(t, m, frameMsg(time.Now()))

	view := m.View()
	if !strings.Contains(view, defaultStatus) {
		t.Fatalf("expected the drop hint in the view:\n%s", view)
	}
	if !strings.Contains(view, "Supported formats: WAV, AIFF, MP3, FLAC, OGG, M4A") {
		t.Fatal("expected the supported formats hint")
	}
	if got := strings.Count(view, "\n"); got != 24 {
		t.Fatalf("expected 25 rows, got %d", got+1)
	}
}

func TestLoadShowsBannerAndSpaceToggles(t *testing.T) {
	m, h := newTestModel(t, "")

	m = send(t, m, key(" "))
	if h.tr.playing {
		t.Fatal("expected space to be ignored before a load")
	}

	m = load(t, m, "/music/song.wav")
	if h.tr.loads != 1 || len(h.opens) != 1 {
		t.Fatalf("expected one open and one load, got %d/%d", len(h.opens), h.tr.loads)
	}
	if m.status != "Audio loaded: song.wav" || m.loadedFrames != loadedBannerFrames {
		t.Fatalf("unexpected status %q (%d frames)", m.status, m.loadedFrames)
	}
	if !strings.Contains(m.View(), "Audio loaded! Press SPACE to play") {
		t.Fatal("expected the loaded banner")
	}

	m = send(t, m, key(" "))
	if !h.tr.playing || m.loadedFrames != 0 {
		t.Fatal("expected space to start playback and hide the banner")
	}
	if strings.Contains(m.View(), "Press SPACE") {
		t.Fatal("expected the banner to be gone")
	}
	m = send(t, m, key(" "))
	if h.tr.playing {
		t.Fatal("expected space to pause")
	}
}

func TestLoadedBannerExpires(t *testing.T) {
	m, _ := newTestModel(t, "")
	m = load(t, m, "/music/song.wav")
	for i := 0; i < loadedBannerFrames; i++ {
		m = send(t, m, frameMsg(time.Now()))
	}
	if m.loadedFrames != 0 {
		t.Fatalf("expected the banner to expire, %d frames left", m.loadedFrames)
	}
}

func TestFailedLoadReportsStatus(t *testing.T) {
	m, h := newTestModel(t, "")
	m = load(t, m, "/music/broken.wav")
	if h.tr.loads != 0 || m.pending > 0 {
		t.Fatal("expected nothing to reach the transport")
	}
	if !strings.Contains(m.View(), "Failed to load audio file") {
		t.Fatalf("expected the failure on screen:\n%s", m.View())
	}
}

func TestFailedLoadShowsWhileTrackLoaded(t *testing.T) {
	m, h := newTestModel(t, "")
	m = load(t, m, "/music/song.wav")
	for i := 0; i < loadedBannerFrames; i++ {
		m = send(t, m, frameMsg(time.Now()))
	}

	m = load(t, m, "/music/broken.wav")
	if h.tr.loads != 1 || !h.tr.IsLoaded() {
		t.Fatal("expected the first track to stay loaded")
	}
	view := m.View()
	if !strings.Contains(view, "Failed to load audio file") {
		t.Fatalf("expected the failure on screen:\n%s", view)
	}
	if strings.Contains(view, "Press SPACE") {
		t.Fatal("expected no loaded banner after a failure")
	}

	for i := 0; i < failedStatusFrames; i++ {
		m = send(t, m, frameMsg(time.Now()))
	}
	view = m.View()
	if strings.Contains(view, "Failed to load") || !strings.Contains(view, "Band - Song") {
		t.Fatalf("expected the track metadata back in the status line:\n%s", view)
	}
}

func TestPasteLoadsAudio(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "my song.mp3")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	m, _ := newTestModel(t, "")

	m, cmd := step(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("'" + path + "'"), Paste: true})
	if m.pending != 1 || cmd == nil {
		t.Fatal("expected a pasted audio path to start loading")
	}

	m, _ = newTestModel(t, "")
	m = send(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("notes.txt"), Paste: true})
	if m.pending > 0 || !strings.HasPrefix(m.status, "Unsupported file") {
		t.Fatalf("expected an unsupported paste to be rejected, status %q", m.status)
	}
}

func TestRightClickMenuClosesPanel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	m, _ := newTestModel(t, path)

	m = send(t, m, press(10, 5, tea.MouseButtonRight))
	if m.menu == nil || m.menu.menu.Panel != 0 {
		t.Fatal("expected a menu for the top panel")
	}
	for i := 0; i < 20 && m.menu.menu.Items[m.menu.cursor].Label != "Close Panel"; i++ {
		m = send(t, m, key("down"))
	}
	m, cmd := step(t, m, key("enter"))
	if m.menu != nil {
		t.Fatal("expected the menu to close after a selection")
	}
	if m.ws.Count() != 3 || m.ws.Panel(0) != nil {
		t.Fatalf("expected panel 0 closed, %d panels left", m.ws.Count())
	}
	run(cmd)

	ws, _, err := state.Load(path)
	if err != nil {
		t.Fatalf("expected the change to be saved: %v", err)
	}
	if ws.Count() != 3 {
		t.Fatalf("expected 3 saved panels, got %d", ws.Count())
	}
}

func TestLateSaveDoesNotOverwriteNewer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	m, _ := newTestModel(t, path)

	m, first := step(t, m, key("l"))
	m, second := step(t, m, key("l"))
	if first == nil || second == nil {
		t.Fatal("expected each toggle to save")
	}
	run(second)
	run(first)

	_, s, err := state.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if s.LightMode != m.settings.LightMode {
		t.Fatalf("expected the latest light mode %v on disk, got %v", m.settings.LightMode, s.LightMode)
	}
}

func TestMenuToggleValuesAndDismiss(t *testing.T) {
	m, _ := newTestModel(t, "")
	before := m.settings.ShowValues

	m = send(t, m, press(10, 5, tea.MouseButtonRight))
	for i := 0; i < 20 && m.menu.menu.Items[m.menu.cursor].Label != "Show Values"; i++ {
		m = send(t, m, key("down"))
	}
	m = send(t, m, key("enter"))
	if m.settings.ShowValues == before {
		t.Fatal("expected Show Values to toggle")
	}

	m = send(t, m, press(10, 5, tea.MouseButtonRight))
	m = send(t, m, key("esc"))
	if m.menu != nil {
		t.Fatal("expected esc to dismiss the menu")
	}
}

func TestDoubleClickTogglesPicker(t *testing.T) {
	m, h := newTestModel(t, "")

	m = send(t, m, press(40, 5, tea.MouseButtonLeft))
	m = send(t, m, release(40, 5))
	h.clock = h.clock.Add(200 * time.Millisecond)
	m = send(t, m, press(40, 5, tea.MouseButtonLeft))
	m = send(t, m, release(40, 5))
	if !m.picker.open {
		t.Fatal("expected a double click to open the picker")
	}

	h.clock = h.clock.Add(time.Second)
	m = send(t, m, press(40, 5, tea.MouseButtonLeft))
	if !m.picker.open {
		t.Fatal("expected a single click to leave the picker alone")
	}
}

func TestDragSwapsPanels(t *testing.T) {
	m, h := newTestModel(t, "")
	if p := m.ws.PanelAt(pixel(10, 5)); p == nil || p.ID != 0 {
		t.Fatal("expected panel 0 at the top")
	}

	m = send(t, m, press(10, 5, tea.MouseButtonLeft))
	h.clock = h.clock.Add(400 * time.Millisecond)
	m = send(t, m, motion(20, 18))
	m = send(t, m, frameMsg(h.clock))
	if _, ok := m.drag.Hovered(); !ok {
		t.Fatal("expected the drag to hover a drop zone")
	}
	m = send(t, m, release(20, 18))

	if p := m.ws.PanelAt(pixel(10, 5)); p == nil || p.ID != 1 {
		t.Fatal("expected panel 1 to take the top position")
	}
	if p := m.ws.PanelAt(pixel(20, 18)); p == nil || p.ID != 0 {
		t.Fatal("expected panel 0 to move bottom left")
	}
}

func openPicker(t *testing.T, m Model) Model {
	t.Helper()
	m = send(t, m, key("e"))
	m.picker.pos = pickerWidth
	return m
}

func TestPickerEffectDragAppliesAccent(t *testing.T) {
	m, _ := newTestModel(t, "")
	m = openPicker(t, m)

	// second accent swatch
	m = send(t, m, press(2+swatchWidth, 3, tea.MouseButtonLeft))
	if got := m.settings.Accent.Hex(); got != "#ff3b30" {
		t.Fatalf("expected the red accent, got %s", got)
	}

	kind := effect.PickerKinds()[0]
	m = send(t, m, press(5, 8, tea.MouseButtonLeft))
	if m.fx == nil || m.fx.kind != kind {
		t.Fatal("expected an effect drag to start")
	}
	m = send(t, m, motion(60, 5))
	if target := m.fxTarget(); target == nil || target.ID != 0 {
		t.Fatal("expected the top panel to be the drop target")
	}
	m = send(t, m, release(60, 5))

	p := m.ws.Panel(0)
	if p.Config.Kind != kind || p.Config.Accent.Hex() != "#ff3b30" {
		t.Fatalf("expected %v with the red accent, got %v %s", kind, p.Config.Kind, p.Config.Accent.Hex())
	}
	if m.fx != nil {
		t.Fatal("expected the drag to end")
	}
}

func TestPickerBackgroundDrag(t *testing.T) {
	m, _ := newTestModel(t, "")
	m = openPicker(t, m)

	m = send(t, m, press(2+3*swatchWidth, 5, tea.MouseButtonLeft))
	m = send(t, m, release(35, 20))
	if p := m.ws.Panel(1); !p.HasBackground || p.Background.Hex() != "#14213d" {
		t.Fatalf("expected panel 1 to get the swatch, got %+v", p.Background)
	}
	if m.ws.Panel(0).HasBackground {
		t.Fatal("expected other panels untouched")
	}

	// apply to all
	m = send(t, m, press(5, 6, tea.MouseButtonLeft))
	if !m.settings.BackgroundApplyAll {
		t.Fatal("expected apply to all to toggle on")
	}
	m = send(t, m, press(2, 5, tea.MouseButtonLeft))
	m = send(t, m, release(60, 5))
	for _, p := range m.ws.Panels() {
		if p.Background.Hex() != "#000000" {
			t.Fatalf("expected every panel black, panel %d is %s", p.ID, p.Background.Hex())
		}
	}
}

func TestPickerDropOnSidebarIsIgnored(t *testing.T) {
	m, _ := newTestModel(t, "")
	m = openPicker(t, m)
	before := m.ws.Panel(0).Config.Kind

	m = send(t, m, press(5, 10, tea.MouseButtonLeft))
	m = send(t, m, release(10, 5))
	if m.ws.Panel(0).Config.Kind != before {
		t.Fatal("expected a drop over the sidebar to do nothing")
	}
}

func TestHexEditSetsAccent(t *testing.T) {
	m, _ := newTestModel(t, "")
	m = openPicker(t, m)

	m = send(t, m, press(4, 2, tea.MouseButtonLeft))
	if !m.picker.editing {
		t.Fatal("expected the hex field to take focus")
	}
	m.picker.hex.SetValue("00ff00")
	m = send(t, m, key("enter"))
	if m.picker.editing || m.settings.Accent.Hex() != "#00ff00" {
		t.Fatalf("expected green accent, got %s", m.settings.Accent.Hex())
	}
}

func TestQuitSavesState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	m, _ := newTestModel(t, path)

	m = send(t, m, key("l"))
	m, cmd := step(t, m, key("q"))
	if !m.quitting {
		t.Fatal("expected quitting")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.Quit")
	}
	_, s, err := state.Load(path)
	if err != nil {
		t.Fatalf("expected state on disk: %v", err)
	}
	if !s.LightMode {
		t.Fatal("expected light mode to be saved")
	}
}

func TestAppearanceMsgAppliesLive(t *testing.T) {
	m, _ := newTestModel(t, "")
	m = send(t, m, AppearanceMsg{LightMode: true, ShowValues: false, Accent: "#007aff", Background: "not a colour"})
	s := m.Settings()
	if !s.LightMode || s.ShowValues || s.Accent.Hex() != "#007aff" {
		t.Fatalf("unexpected settings %+v", s)
	}
	if s.Background.Hex() != "#000000" {
		t.Fatal("expected an invalid background to be ignored")
	}
}

func TestBrowserOpensAndCancels(t *testing.T) {
	m, _ := newTestModel(t, "")
	m = send(t, m, key("o"))
	if m.browser == nil {
		t.Fatal("expected the browser to open")
	}
	m, cmd := step(t, m, key("esc"))
	for _, msg := range run(cmd) {
		m = send(t, m, msg)
	}
	if m.browser != nil {
		t.Fatal("expected the browser to close")
	}
}

func TestPixelMapping(t *testing.T) {
	if got := pixel(3, 4); got != image.Pt(3, 8) {
		t.Fatalf("unexpected pixel %v", got)
	}
}
