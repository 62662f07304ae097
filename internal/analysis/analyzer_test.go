package analysis

import (
	"math"
	"math/rand"
	"testing"
)

const testRate = 44100

func sine(freq, amp float64, start, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(amp * math.Sin(2*math.Pi*freq*float64(start+i)/testRate))
	}
	return out
}

func TestSilenceYieldsZeroEnergies(t *testing.T) {
	a := New(testRate)
	for i := 0; i < 8; i++ {
		a.Ingest(make([]float32, FFTSize))
	}
	for b, v := range a.Energies() {
		if v != 0 {
			t.Fatalf("expected silent %s to be 0, got %f", Band(b), v)
		}
	}
	if a.Windows() != 8 {
		t.Fatalf("expected 8 analyzed windows, got %d", a.Windows())
	}
}

func TestEnergiesStayClampedUnderFullScaleInput(t *testing.T) {
	a := New(testRate)
	rng := rand.New(rand.NewSource(1))
	block := make([]float32, 512)
	for w := 0; w < 200; w++ {
		for i := range block {
			// alternate loud noise bursts with full-scale square waves
			if w%3 == 0 {
				block[i] = float32(rng.Float64()*2 - 1)
			} else if (i/40)%2 == 0 {
				block[i] = 1
			} else {
				block[i] = -1
			}
		}
		a.Ingest(block)
		for b, v := range a.Energies() {
			if v < 0 || v > 1 || math.IsNaN(v) {
				t.Fatalf("window %d: %s out of range: %f", w, Band(b), v)
			}
		}
	}
}

func TestSteadyToneSettlesAtHeadroom(t *testing.T) {
	a := New(testRate)
	pos := 0
	for w := 0; w < 300; w++ {
		a.Ingest(sine(1000, 0.5, pos, FFTSize))
		pos += FFTSize
	}
	got := a.Energy(Mids)
	if got < 0.4 || got > 0.6 {
		t.Fatalf("expected steady mids near 0.5, got %f", got)
	}

	a.ResetAverages()
	a.Ingest(sine(1000, 0.5, pos, FFTSize))
	if got := a.Energy(Mids); got != 1 {
		t.Fatalf("expected reset averages to saturate the next window, got %f", got)
	}
}

func TestKickDecayIsMonotoneBetweenTriggers(t *testing.T) {
	a := New(testRate)
	pos := 0
	for i := 0; i < 20; i++ {
		a.Ingest(make([]float32, FFTSize))
	}
	a.Ingest(sine(70, 0.9, pos, FFTSize))
	first := a.Energy(KickTransient)
	if first <= 0 {
		t.Fatalf("expected a kick after a bass onset, got %f", first)
	}

	prev := first
	for i := 0; i < 12; i++ {
		a.Ingest(make([]float32, FFTSize))
		cur := a.Energy(KickTransient)
		if cur > prev*kickDecay+1e-9 {
			t.Fatalf("window %d: kick rose from %f to %f without a trigger", i, prev, cur)
		}
		prev = cur
	}
}

func TestKickCooldownBlocksRetrigger(t *testing.T) {
	a := New(testRate)
	for i := 0; i < 20; i++ {
		a.Ingest(make([]float32, FFTSize))
	}
	a.Ingest(sine(70, 0.9, 0, FFTSize))
	peak := a.Energy(KickTransient)
	a.Ingest(make([]float32, FFTSize))
	a.Ingest(sine(70, 0.9, 0, FFTSize))
	if got := a.Energy(KickTransient); got >= peak {
		t.Fatalf("expected cooldown to suppress a second trigger, got %f after %f", got, peak)
	}
}

func TestSpectrumSliceFindsTone(t *testing.T) {
	a := New(testRate)
	if got := a.SpectrumSlice(500, 2000, 50); len(got) != 50 || got[10] != 0 {
		t.Fatalf("expected zeros before the first window, got %v", got)
	}

	a.Ingest(sine(1000, 0.5, 0, FFTSize))
	slice := a.SpectrumSlice(500, 2000, 50)
	best := 0
	for i, v := range slice {
		if v < 0 || v > 1 {
			t.Fatalf("point %d out of range: %f", i, v)
		}
		if v > slice[best] {
			best = i
		}
	}
	if best < 15 || best > 18 {
		t.Fatalf("expected the 1 kHz peak near point 16, got %d", best)
	}
	if slice[best] < 0.2 {
		t.Fatalf("expected a clear peak, got %f", slice[best])
	}
}

func TestSpectrumSliceEmptyRangeIsZero(t *testing.T) {
	a := New(testRate)
	a.Ingest(sine(1000, 0.5, 0, FFTSize))
	for _, v := range a.SpectrumSlice(1000, 1000, 8) {
		if v != 0 {
			t.Fatalf("expected zeros for an empty bin range, got %f", v)
		}
	}
	for _, v := range a.SpectrumSlice(30000, 40000, 8) {
		if v != 0 {
			t.Fatalf("expected zeros above nyquist, got %f", v)
		}
	}
}

func TestDecayScalesPublishedValues(t *testing.T) {
	a := New(testRate)
	a.Ingest(sine(1000, 0.5, 0, FFTSize))
	before := a.Energy(Mids)
	a.Decay(0.95)
	if got := a.Energy(Mids); math.Abs(got-before*0.95) > 1e-12 {
		t.Fatalf("expected %f, got %f", before*0.95, got)
	}
}

func TestIngestInterleavedMixesToMono(t *testing.T) {
	a := New(testRate)
	block := make([]float32, FFTSize*2)
	a.IngestInterleaved(block, 2)
	if a.Windows() != 1 {
		t.Fatalf("expected one window from %d stereo frames, got %d", FFTSize, a.Windows())
	}
}

func TestParseBandRoundTrip(t *testing.T) {
	for _, b := range Bands() {
		got, err := ParseBand(b.String())
		if err != nil || got != b {
			t.Fatalf("ParseBand(%q) = %v, %v", b.String(), got, err)
		}
	}
	if _, err := ParseBand("treble"); err == nil {
		t.Fatal("expected an error for an unknown band")
	}
}
