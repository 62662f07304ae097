// Package router selects which analyzer feeds each panel slot. The main bus
// is always analyzed; a sidechain slot only takes over once its bus carries
// signal.
package router

import (
	"fmt"
	"math"
	"strings"
	"sync/atomic"

	"github.com/olivier-w/panelviz/internal/analysis"
)

// PanelID names one of the four well-known input slots.
type PanelID int

const (
	Main PanelID = iota
	Top
	BottomLeft
	BottomRight

	NumSlots = int(BottomRight) + 1
)

// noiseFloor is the peak magnitude a sidechain block must exceed to count
// as a dedicated input.
const noiseFloor = 0.0001

// idleDecay fades the main analyzer's published values for each idle block.
const idleDecay = 0.95

// IdleBlockSize is the number of silent samples one Idle call ingests.
const IdleBlockSize = 512

var slotNames = [NumSlots]string{"main", "top", "bottom-left", "bottom-right"}

func (id PanelID) valid() bool { return id >= 0 && int(id) < NumSlots }

func (id PanelID) String() string {
	if !id.valid() {
		return fmt.Sprintf("slot(%d)", int(id))
	}
	return slotNames[id]
}

// ParseSlot accepts the names written by String.
func ParseSlot(s string) (PanelID, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range slotNames {
		if name == s {
			return PanelID(i), nil
		}
	}
	return 0, fmt.Errorf("unknown slot %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (id PanelID) MarshalText() ([]byte, error) {
	if !id.valid() {
		return nil, fmt.Errorf("invalid slot %d", int(id))
	}
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *PanelID) UnmarshalText(text []byte) error {
	v, err := ParseSlot(string(text))
	if err != nil {
		return err
	}
	*id = v
	return nil
}

// Slots lists the slots in the order new panels claim them.
func Slots() []PanelID {
	return []PanelID{Top, BottomLeft, BottomRight, Main}
}

type sidechain struct {
	analyzer  atomic.Pointer[analysis.Analyzer]
	dedicated atomic.Bool
}

// Router owns the main analyzer and one analyzer per sidechain slot.
type Router struct {
	main    *analysis.Analyzer
	slots   [NumSlots]sidechain
	silence []float32
}

// New creates a router whose analyzers run at sampleRate.
func New(sampleRate float64) *Router {
	r := &Router{
		main:    analysis.New(sampleRate),
		silence: make([]float32, IdleBlockSize),
	}
	for i := range r.slots {
		r.slots[i].analyzer.Store(analysis.New(sampleRate))
	}
	return r
}

// Main exposes the shared analyzer.
func (r *Router) Main() *analysis.Analyzer { return r.main }

// IngestMain feeds a mono block from the main bus.
func (r *Router) IngestMain(block []float32) {
	r.main.Ingest(block)
}

// Idle is one block of "nothing playing": the main analyzer sees silence and
// its published values fade.
func (r *Router) Idle() {
	r.main.Ingest(r.silence)
	r.main.Decay(idleDecay)
}

// SetSidechainRate rebuilds a slot's analyzer for a bus with a different
// sample rate. Call before the bus starts delivering blocks.
func (r *Router) SetSidechainRate(id PanelID, sampleRate float64) {
	if !id.valid() {
		return
	}
	if cur := r.slots[id].analyzer.Load(); cur != nil && cur.SampleRate() == sampleRate {
		return
	}
	r.slots[id].analyzer.Store(analysis.New(sampleRate))
}

// IngestSidechain feeds a mono block from a sidechain bus. The dedicated
// flag is refreshed on every block.
func (r *Router) IngestSidechain(id PanelID, block []float32) {
	if !id.valid() {
		return
	}
	s := &r.slots[id]
	var peak float64
	for _, v := range block {
		if m := math.Abs(float64(v)); m > peak {
			peak = m
		}
	}
	s.dedicated.Store(peak > noiseFloor)
	s.analyzer.Load().Ingest(block)
}

// ClearSidechain drops a slot back to the main analyzer.
func (r *Router) ClearSidechain(id PanelID) {
	if id.valid() {
		r.slots[id].dedicated.Store(false)
	}
}

// HasDedicatedInput reports whether the slot currently reads its own bus.
func (r *Router) HasDedicatedInput(id PanelID) bool {
	return id.valid() && r.slots[id].dedicated.Load()
}

func (r *Router) source(id PanelID) *analysis.Analyzer {
	if r.HasDedicatedInput(id) {
		return r.slots[id].analyzer.Load()
	}
	return r.main
}

// Energy is the value a panel bound to slot id and band b should see.
func (r *Router) Energy(id PanelID, b analysis.Band) float64 {
	return r.source(id).Energy(b)
}

// SpectrumSlice follows the same fallback as Energy.
func (r *Router) SpectrumSlice(id PanelID, minHz, maxHz float64, n int) []float64 {
	return r.source(id).SpectrumSlice(minHz, maxHz, n)
}

// ResetAverages clears adaptive gain on every analyzer.
func (r *Router) ResetAverages() {
	r.main.ResetAverages()
	for i := range r.slots {
		r.slots[i].analyzer.Load().ResetAverages()
	}
}

// SlotSnapshot is a point-in-time view of one slot for telemetry.
type SlotSnapshot struct {
	Slot      PanelID            `json:"slot"`
	Dedicated bool               `json:"dedicated"`
	Energies  map[string]float64 `json:"energies"`
}

// Snapshot reads every slot through the same fallback the panels use.
func (r *Router) Snapshot() []SlotSnapshot {
	out := make([]SlotSnapshot, 0, NumSlots)
	for i := 0; i < NumSlots; i++ {
		id := PanelID(i)
		e := r.source(id).Energies()
		m := make(map[string]float64, len(e))
		for b, v := range e {
			m[analysis.Band(b).String()] = v
		}
		out = append(out, SlotSnapshot{Slot: id, Dedicated: r.HasDedicatedInput(id), Energies: m})
	}
	return out
}
