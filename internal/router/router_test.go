package router

import (
	"math"
	"testing"

	"github.com/olivier-w/panelviz/internal/analysis"
)

func tone(freq float64, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(0.5 * math.Sin(2*math.Pi*freq*float64(i)/44100))
	}
	return out
}

func TestSilentSidechainFallsBackToMain(t *testing.T) {
	r := New(44100)
	r.IngestMain(tone(1000, analysis.FFTSize))
	r.IngestSidechain(Top, make([]float32, analysis.FFTSize))

	if r.HasDedicatedInput(Top) {
		t.Fatal("expected a silent bus to not count as dedicated input")
	}
	want := r.Main().Energy(analysis.Mids)
	if got := r.Energy(Top, analysis.Mids); got != want {
		t.Fatalf("expected main value %f, got %f", want, got)
	}
}

func TestDedicatedSidechainUsesOwnAnalyzer(t *testing.T) {
	r := New(44100)
	r.IngestSidechain(BottomLeft, tone(1000, analysis.FFTSize))

	if !r.HasDedicatedInput(BottomLeft) {
		t.Fatal("expected signal above the noise floor to mark the slot dedicated")
	}
	if got := r.Energy(BottomLeft, analysis.Mids); got == 0 {
		t.Fatal("expected dedicated analyzer energy")
	}
	if got := r.Energy(Main, analysis.Mids); got != 0 {
		t.Fatalf("expected untouched main bus to stay at 0, got %f", got)
	}

	// the flag follows the most recent block
	r.IngestSidechain(BottomLeft, make([]float32, 256))
	if r.HasDedicatedInput(BottomLeft) {
		t.Fatal("expected the slot to fall back after a silent block")
	}
}

func TestIdleFadesMainValues(t *testing.T) {
	r := New(44100)
	r.IngestMain(tone(1000, analysis.FFTSize))
	before := r.Energy(Main, analysis.Mids)
	r.Idle()
	after := r.Energy(Main, analysis.Mids)
	if after >= before {
		t.Fatalf("expected idle decay, %f -> %f", before, after)
	}
}

func TestSnapshotCoversEverySlot(t *testing.T) {
	r := New(44100)
	snap := r.Snapshot()
	if len(snap) != NumSlots {
		t.Fatalf("expected %d slots, got %d", NumSlots, len(snap))
	}
	if _, ok := snap[0].Energies["kick"]; !ok {
		t.Fatalf("expected kick in snapshot energies: %v", snap[0].Energies)
	}
}

func TestParseSlot(t *testing.T) {
	for _, id := range Slots() {
		got, err := ParseSlot(id.String())
		if err != nil || got != id {
			t.Fatalf("ParseSlot(%q) = %v, %v", id.String(), got, err)
		}
	}
	if _, err := ParseSlot("left"); err == nil {
		t.Fatal("expected an error for an unknown slot")
	}
}
