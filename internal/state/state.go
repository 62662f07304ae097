// Package state saves and restores the editor: panels, layout and the
// picker settings.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/olivier-w/panelviz/internal/analysis"
	"github.com/olivier-w/panelviz/internal/effect"
	"github.com/olivier-w/panelviz/internal/layout"
	"github.com/olivier-w/panelviz/internal/router"
	"github.com/olivier-w/panelviz/internal/workspace"
)

// Version is the document version written by Save.
const Version = 1

// ErrNoState reports that no usable state file was found and the defaults
// were used instead.
var ErrNoState = errors.New("no saved state")

// Settings are the editor-wide toggles and picker selections.
type Settings struct {
	LightMode          bool
	ShowValues         bool
	BackgroundApplyAll bool
	Accent             colorful.Color
	Background         colorful.Color
}

// DefaultSettings matches a fresh start.
func DefaultSettings() Settings {
	return Settings{ShowValues: true, Accent: effect.White, Background: effect.Black}
}

// State is the on-disk document.
type State struct {
	Version            int          `json:"version"`
	LightMode          bool         `json:"light_mode"`
	ShowValues         bool         `json:"show_values"`
	BackgroundApplyAll bool         `json:"background_apply_all"`
	Accent             string       `json:"accent"`
	Background         string       `json:"background"`
	NextID             int          `json:"next_id"`
	Panels             []PanelState `json:"panels"`
	Layout             *Node        `json:"layout"`
}

// PanelState is one saved panel.
type PanelState struct {
	ID         int             `json:"id"`
	Effect     effect.Kind     `json:"effect"`
	Band       analysis.Band   `json:"band"`
	Accent     string          `json:"accent"`
	Slot       *router.PanelID `json:"slot"`
	Background string          `json:"background,omitempty"`
}

// Node is a layout node: either {"leaf": id} or a split with two children.
type Node struct {
	Leaf   *int    `json:"leaf,omitempty"`
	Split  string  `json:"split,omitempty"`
	Ratio  float64 `json:"ratio,omitempty"`
	First  *Node   `json:"first,omitempty"`
	Second *Node   `json:"second,omitempty"`
}

// Capture snapshots the workspace and settings.
func Capture(ws *workspace.Workspace, s Settings) State {
	st := State{
		Version:            Version,
		LightMode:          s.LightMode,
		ShowValues:         s.ShowValues,
		BackgroundApplyAll: s.BackgroundApplyAll,
		Accent:             s.Accent.Hex(),
		Background:         s.Background.Hex(),
		NextID:             ws.NextID(),
		Layout:             encodeNode(ws.Root()),
	}
	for _, p := range ws.Panels() {
		slot := p.Slot
		ps := PanelState{
			ID:     p.ID,
			Effect: p.Config.Kind,
			Band:   p.Config.Band,
			Accent: p.Config.Accent.Hex(),
			Slot:   &slot,
		}
		if p.HasBackground {
			ps.Background = p.Background.Hex()
		}
		st.Panels = append(st.Panels, ps)
	}
	return st
}

func encodeNode(n layout.Node) *Node {
	switch n := n.(type) {
	case *layout.Leaf:
		id := n.PanelID
		return &Node{Leaf: &id}
	case *layout.Split:
		return &Node{
			Split:  n.Axis.String(),
			Ratio:  n.Ratio,
			First:  encodeNode(n.First),
			Second: encodeNode(n.Second),
		}
	}
	return nil
}

func decodeNode(n *Node) (layout.Node, error) {
	if n == nil {
		return nil, errors.New("missing layout node")
	}
	if n.Leaf != nil {
		if n.Split != "" || n.Ratio != 0 || n.First != nil || n.Second != nil {
			return nil, errors.New("leaf node carries split fields")
		}
		return &layout.Leaf{PanelID: *n.Leaf}, nil
	}
	axis, err := layout.ParseAxis(n.Split)
	if err != nil {
		return nil, err
	}
	first, err := decodeNode(n.First)
	if err != nil {
		return nil, err
	}
	second, err := decodeNode(n.Second)
	if err != nil {
		return nil, err
	}
	return &layout.Split{Axis: axis, Ratio: n.Ratio, First: first, Second: second}, nil
}

// Restore rebuilds a workspace from a document. Nothing is applied unless
// the whole document is valid.
func Restore(st State) (*workspace.Workspace, Settings, error) {
	if st.Version != Version {
		return nil, Settings{}, fmt.Errorf("unsupported state version %d", st.Version)
	}
	root, err := decodeNode(st.Layout)
	if err != nil {
		return nil, Settings{}, fmt.Errorf("layout: %w", err)
	}

	s := Settings{
		LightMode:          st.LightMode,
		ShowValues:         st.ShowValues,
		BackgroundApplyAll: st.BackgroundApplyAll,
	}
	if s.Accent, err = effect.ParseColor(st.Accent); err != nil {
		return nil, Settings{}, err
	}
	if s.Background, err = effect.ParseColor(st.Background); err != nil {
		return nil, Settings{}, err
	}

	panels := make([]*workspace.Panel, 0, len(st.Panels))
	for _, ps := range st.Panels {
		if ps.Slot == nil {
			return nil, Settings{}, fmt.Errorf("panel %d: missing slot", ps.ID)
		}
		accent, err := effect.ParseColor(ps.Accent)
		if err != nil {
			return nil, Settings{}, fmt.Errorf("panel %d: %w", ps.ID, err)
		}
		p := &workspace.Panel{
			ID:     ps.ID,
			Config: effect.NewConfig(ps.Effect, ps.Band, accent),
			Slot:   *ps.Slot,
		}
		if ps.Background != "" {
			if p.Background, err = effect.ParseColor(ps.Background); err != nil {
				return nil, Settings{}, fmt.Errorf("panel %d: %w", ps.ID, err)
			}
			p.HasBackground = true
		}
		panels = append(panels, p)
	}

	ws, err := workspace.New(root, panels)
	if err != nil {
		return nil, Settings{}, err
	}
	ws.ReserveIDs(st.NextID)
	return ws, s, nil
}

// Load reads and restores the file at path. Any failure falls back to the
// default workspace and returns an error wrapping ErrNoState.
func Load(path string) (*workspace.Workspace, Settings, error) {
	fallback := func(err error) (*workspace.Workspace, Settings, error) {
		return workspace.Default(), DefaultSettings(), fmt.Errorf("%w: %v", ErrNoState, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fallback(err)
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return fallback(fmt.Errorf("decode %s: %w", path, err))
	}
	ws, s, err := Restore(st)
	if err != nil {
		return fallback(err)
	}
	return ws, s, nil
}

// Save writes st to path through a temporary file and a rename.
func Save(path string, st State) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return fmt.Errorf("create temp state: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close state: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}

// Saver orders snapshot writes to one file. Snapshots are numbered when
// queued; a write is skipped once a newer snapshot has reached the disk, so
// writes finishing out of order never replace newer state with older.
type Saver struct {
	path string

	mu      sync.Mutex
	queued  uint64
	written uint64
}

// NewSaver returns a Saver for path.
func NewSaver(path string) *Saver {
	return &Saver{path: path}
}

// Path is the file the saver writes.
func (s *Saver) Path() string { return s.path }

// Queue numbers st and returns the write for it, to run on any goroutine.
func (s *Saver) Queue(st State) func() error {
	s.mu.Lock()
	s.queued++
	seq := s.queued
	s.mu.Unlock()

	return func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		if seq <= s.written {
			return nil
		}
		if err := Save(s.path, st); err != nil {
			return err
		}
		s.written = seq
		return nil
	}
}

// Flush writes st now.
func (s *Saver) Flush(st State) error {
	return s.Queue(st)()
}
