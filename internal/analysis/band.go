package analysis

import (
	"fmt"
	"strings"
)

// Band selects the frequency range an effect listens to.
type Band int

const (
	SubBass Band = iota
	Bass
	LowMids
	Mids
	HighMids
	Highs
	VeryHighs
	KickTransient
	FullSpectrum

	NumBands = int(FullSpectrum) + 1
)

type bandInfo struct {
	key   string
	name  string
	label string
	min   float64
	max   float64
	gain  float64
}

// Gains compensate for the natural spectral tilt of music: low bands are
// pulled down, high bands pushed up.
var bandTable = [NumBands]bandInfo{
	SubBass:       {key: "sub-bass", name: "Sub-Bass", label: "Sub-Bass (20-60 Hz)", min: 20, max: 60, gain: 0.4},
	Bass:          {key: "bass", name: "Bass", label: "Bass (60-250 Hz)", min: 60, max: 250, gain: 0.5},
	LowMids:       {key: "low-mids", name: "Low-Mids", label: "Low-Mids (250-500 Hz)", min: 250, max: 500, gain: 1.5},
	Mids:          {key: "mids", name: "Mids", label: "Mids (500-2000 Hz)", min: 500, max: 2000, gain: 2.5},
	HighMids:      {key: "high-mids", name: "High-Mids", label: "High-Mids (2000-4000 Hz)", min: 2000, max: 4000, gain: 4},
	Highs:         {key: "highs", name: "Highs", label: "Highs (4000-8000 Hz)", min: 4000, max: 8000, gain: 8},
	VeryHighs:     {key: "very-highs", name: "Very Highs", label: "Very Highs (8000-20000 Hz)", min: 8000, max: 20000, gain: 20},
	KickTransient: {key: "kick", name: "Kick", label: "Kick Transient (50-90 Hz)", min: 50, max: 90, gain: 0.5},
	FullSpectrum:  {key: "full", name: "Full", label: "Full Spectrum", min: 20, max: 20000, gain: 1},
}

// Bands lists every band in menu order.
func Bands() []Band {
	out := make([]Band, NumBands)
	for i := range out {
		out[i] = Band(i)
	}
	return out
}

func (b Band) valid() bool { return b >= 0 && int(b) < NumBands }

// Range returns the [min, max) frequency range in Hz.
func (b Band) Range() (float64, float64) {
	if !b.valid() {
		return 0, 0
	}
	return bandTable[b].min, bandTable[b].max
}

// Name is the short name used by the debug overlay.
func (b Band) Name() string {
	if !b.valid() {
		return "Unknown"
	}
	return bandTable[b].name
}

// Label is the context menu text.
func (b Band) Label() string {
	if !b.valid() {
		return "Unknown"
	}
	return bandTable[b].label
}

func (b Band) String() string {
	if !b.valid() {
		return fmt.Sprintf("band(%d)", int(b))
	}
	return bandTable[b].key
}

// ParseBand accepts the stable key form written by String.
func ParseBand(s string) (Band, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, info := range bandTable {
		if info.key == s {
			return Band(i), nil
		}
	}
	return 0, fmt.Errorf("unknown band %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (b Band) MarshalText() ([]byte, error) {
	if !b.valid() {
		return nil, fmt.Errorf("invalid band %d", int(b))
	}
	return []byte(b.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *Band) UnmarshalText(text []byte) error {
	v, err := ParseBand(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}
