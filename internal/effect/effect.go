// Package effect holds the per-panel animation state machines and draws them
// onto a render.Surface.
package effect

import (
	"fmt"
	"image"
	"math/rand"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/olivier-w/panelviz/internal/analysis"
	"github.com/olivier-w/panelviz/internal/render"
)

// Kind is the effect variant a panel runs.
type Kind int

const (
	Flutter Kind = iota
	BinaryFlash
	Starfield
	FrequencyLine
	RotatingCube

	numKinds = int(RotatingCube) + 1
)

var kindKeys = [numKinds]string{"flutter", "binary-flash", "starfield", "spectrum", "cube"}
var kindNames = [numKinds]string{"Flutter", "Binary Flash", "Starfield", "Spectrum", "3D Cube"}

// PickerKinds is the order effects are listed in the picker.
func PickerKinds() []Kind {
	return []Kind{BinaryFlash, Flutter, Starfield, FrequencyLine, RotatingCube}
}

func (k Kind) valid() bool { return k >= 0 && int(k) < numKinds }

func (k Kind) String() string {
	if !k.valid() {
		return fmt.Sprintf("effect(%d)", int(k))
	}
	return kindKeys[k]
}

// Name is the label shown in the picker.
func (k Kind) Name() string {
	if !k.valid() {
		return "Unknown"
	}
	return kindNames[k]
}

// ParseKind accepts the key written by String.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, key := range kindKeys {
		if key == s {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown effect %q", s)
}

func (k Kind) MarshalText() ([]byte, error) {
	if !k.valid() {
		return nil, fmt.Errorf("invalid effect %d", int(k))
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	v, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Config is what the user chose for a panel.
type Config struct {
	Kind        Kind
	Band        analysis.Band
	Accent      colorful.Color
	Sensitivity float64
	Threshold   float64
	Smoothing   bool
}

// NewConfig returns a config with neutral sensitivity and smoothing on.
func NewConfig(kind Kind, band analysis.Band, accent colorful.Color) Config {
	return Config{Kind: kind, Band: band, Accent: accent, Sensitivity: 1, Smoothing: true}
}

// Adjust applies sensitivity and threshold to a raw energy.
func (c Config) Adjust(raw float64) float64 {
	sens := c.Sensitivity
	if sens <= 0 {
		sens = 1
	}
	v := clamp01(raw * sens)
	if v < c.Threshold {
		return 0
	}
	return v
}

const (
	playSmoothing = 0.7
	pauseFade     = 0.98
	flashLevel    = 0.3
)

// Frame is everything an effect needs from the outside for one frame.
type Frame struct {
	Raw        float64
	Kick       float64
	Spectrum   func(minHz, maxHz float64, n int) []float64
	Background colorful.Color
	Light      bool
}

// State is the animation state of one panel. Variant state is created
// lazily the first time a variant runs.
type State struct {
	Smoothed float64

	kind Kind
	band analysis.Band
	rng  *rand.Rand

	stars *StarfieldState
	cube  *CubeState
	line  *SpectrumState
}

// NewState prepares state for cfg. A nil rng uses a time-independent seed.
func NewState(cfg Config, rng *rand.Rand) *State {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	s := &State{kind: cfg.Kind, band: cfg.Band, rng: rng}
	return s
}

// Smooth advances the smoothed value. While stopped it only fades.
func (s *State) Smooth(raw float64, playing bool, smoothing bool) float64 {
	switch {
	case !playing:
		s.Smoothed *= pauseFade
	case smoothing:
		s.Smoothed = s.Smoothed*playSmoothing + raw*(1-playSmoothing)
	default:
		s.Smoothed = raw
	}
	return s.Smoothed
}

// Sync applies a config change: switching into Starfield re-seeds the stars
// and a band change clears the spectrum history.
func (s *State) Sync(cfg Config) {
	if cfg.Kind != s.kind {
		if cfg.Kind == Starfield && s.stars != nil {
			s.stars.Seed()
		}
		s.kind = cfg.Kind
	}
	if cfg.Band != s.band {
		if s.line != nil {
			s.line.Reset()
		}
		s.band = cfg.Band
	}
}

// Apply is Sync for an effect dropped from the picker. Dropping Starfield
// always starts a fresh field, even onto a panel already running it.
func (s *State) Apply(cfg Config) {
	if cfg.Kind == Starfield && s.kind == Starfield {
		s.Stars().Seed()
	}
	s.Sync(cfg)
}

// Stars returns the starfield state, creating it if needed.
func (s *State) Stars() *StarfieldState {
	if s.stars == nil {
		s.stars = NewStarfield(s.rng)
	}
	return s.stars
}

// Cube returns the cube state, creating it if needed.
func (s *State) Cube() *CubeState {
	if s.cube == nil {
		s.cube = NewCube()
	}
	return s.cube
}

// Spectrum returns the spectrum line state, creating it if needed.
func (s *State) Spectrum() *SpectrumState {
	if s.line == nil {
		s.line = &SpectrumState{}
	}
	return s.line
}

// Render advances the active variant by one frame and draws it clipped to
// bounds. Smooth must already have run for this frame.
func (s *State) Render(dst render.Surface, bounds image.Rectangle, cfg Config, f Frame) {
	if bounds.Empty() {
		return
	}
	s.Sync(cfg)
	dst.Clip(bounds)
	defer dst.Unclip()

	switch cfg.Kind {
	case Flutter:
		dst.FillRect(bounds, Opaque(Lerp(f.Background, cfg.Accent, s.Smoothed)))
	case BinaryFlash:
		fill := f.Background
		if s.Smoothed > flashLevel {
			fill = cfg.Accent
		}
		dst.FillRect(bounds, Opaque(fill))
	case Starfield:
		dst.FillRect(bounds, Opaque(f.Background))
		st := s.Stars()
		st.Update(f.Raw, cfg.Band == analysis.KickTransient)
		st.Draw(dst, bounds, f.Light, cfg.Accent)
	case RotatingCube:
		dst.FillRect(bounds, Opaque(f.Background))
		c := s.Cube()
		c.Update(f.Raw)
		c.Draw(dst, bounds, cfg.Accent)
	case FrequencyLine:
		dst.FillRect(bounds, Opaque(f.Background))
		if f.Spectrum == nil {
			return
		}
		lo, hi := cfg.Band.Range()
		line := s.Spectrum()
		values := line.Process(f.Spectrum(lo, hi, spectrumPoints), cfg.Band == analysis.KickTransient, f.Kick)
		line.Draw(dst, bounds, values, cfg.Accent)
	}
}
