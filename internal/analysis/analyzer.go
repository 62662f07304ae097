// Package analysis turns a stream of audio samples into per-band energies,
// a kick transient envelope and a magnitude spectrum snapshot.
//
// An Analyzer has a single writer (the goroutine feeding it samples) and any
// number of readers. Everything a reader can observe is published through
// atomics, so readers never block the audio side.
package analysis

import (
	"math"
	"sync/atomic"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

// FFTSize is the analysis window length in samples.
const FFTSize = 2048

const (
	averageSmoothing = 0.95
	averageFloor     = 0.001
	headroom         = 0.5

	kickRise     = 0.2
	kickFloor    = 0.3
	kickDecay    = 0.75
	kickCooldown = 3

	// spectrumScale maps a full-scale sinusoid to roughly 1.0.
	spectrumScale = 2.0 / FFTSize
)

// Energies holds one normalized value per band.
type Energies [NumBands]float64

// Analyzer windows mono samples, runs a real FFT on every full window and
// publishes adaptive-gain band energies.
type Analyzer struct {
	sampleRate float64
	binWidth   float64
	ranges     [NumBands][2]int

	fft    *fourier.FFT
	window []float64
	fifo   []float64
	fill   int
	seq    []float64
	coeffs []complex128
	mono   []float32

	// Writer-only state.
	averages [NumBands]float64
	kickPrev float64
	kickEnv  float64
	cooldown int

	published    [NumBands]atomic.Uint64
	spectrum     atomic.Pointer[[]float64]
	resetPending atomic.Bool
	windows      atomic.Uint64
}

// New returns an analyzer for a stream at the given sample rate.
func New(sampleRate float64) *Analyzer {
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	a := &Analyzer{
		sampleRate: sampleRate,
		binWidth:   sampleRate / FFTSize,
		fft:        fourier.NewFFT(FFTSize),
		window:     hannUnitMean(FFTSize),
		fifo:       make([]float64, FFTSize),
		seq:        make([]float64, FFTSize),
		coeffs:     make([]complex128, FFTSize/2+1),
	}
	for b := range bandTable {
		a.ranges[b] = a.binRange(bandTable[b].min, bandTable[b].max)
	}
	return a
}

func hannUnitMean(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 1
	}
	window.Hann(w)
	var sum float64
	for _, v := range w {
		sum += v
	}
	if sum > 0 {
		scale := float64(n) / sum
		for i := range w {
			w[i] *= scale
		}
	}
	return w
}

func (a *Analyzer) bin(hz float64) int {
	b := int(hz / a.binWidth)
	if b < 0 {
		return 0
	}
	if b > FFTSize/2 {
		return FFTSize / 2
	}
	return b
}

func (a *Analyzer) binRange(minHz, maxHz float64) [2]int {
	return [2]int{a.bin(minHz), a.bin(maxHz)}
}

// SampleRate reports the rate the analyzer was built for.
func (a *Analyzer) SampleRate() float64 { return a.sampleRate }

// Windows reports how many full windows have been analyzed.
func (a *Analyzer) Windows() uint64 { return a.windows.Load() }

// Ingest appends mono samples and analyzes every window that fills up.
func (a *Analyzer) Ingest(block []float32) {
	for _, s := range block {
		a.fifo[a.fill] = float64(s)
		a.fill++
		if a.fill == FFTSize {
			a.analyze()
			a.fill = 0
		}
	}
}

// IngestInterleaved mixes interleaved frames down to mono before ingesting.
func (a *Analyzer) IngestInterleaved(block []float32, channels int) {
	if channels <= 1 {
		a.Ingest(block)
		return
	}
	frames := len(block) / channels
	if cap(a.mono) < frames {
		a.mono = make([]float32, frames)
	}
	mono := a.mono[:frames]
	inv := 1 / float32(channels)
	for i := range mono {
		var sum float32
		for ch := 0; ch < channels; ch++ {
			sum += block[i*channels+ch]
		}
		mono[i] = sum * inv
	}
	a.Ingest(mono)
}

func (a *Analyzer) analyze() {
	if a.resetPending.Swap(false) {
		a.averages = [NumBands]float64{}
		a.kickPrev = 0
		a.kickEnv = 0
		a.cooldown = 0
	}

	for i, s := range a.fifo {
		a.seq[i] = s * a.window[i]
	}
	a.fft.Coefficients(a.coeffs, a.seq)

	mags := make([]float64, FFTSize/2)
	for i := range mags {
		mags[i] = math.Hypot(real(a.coeffs[i]), imag(a.coeffs[i]))
	}
	a.spectrum.Store(&mags)

	var raw [NumBands]float64
	for b, r := range a.ranges {
		start, end := r[0], r[1]
		if end > len(mags) {
			end = len(mags)
		}
		var sum float64
		for i := start; i < end; i++ {
			sum += mags[i]
		}
		n := end - start
		if n < 1 {
			n = 1
		}
		raw[b] = sum / float64(n) * bandTable[b].gain
	}

	for b := range raw {
		a.averages[b] = a.averages[b]*averageSmoothing + raw[b]*(1-averageSmoothing)
	}

	for b := range raw {
		if Band(b) == KickTransient {
			continue
		}
		a.publish(Band(b), clamp01(raw[b]/math.Max(a.averages[b], averageFloor)*headroom))
	}

	// The kick sub-band is judged against the whole bass average so a steady
	// bass line does not read as a run of transients.
	kick := clamp01(raw[KickTransient] / math.Max(a.averages[Bass], averageFloor) * headroom)
	if kick-a.kickPrev > kickRise && kick > kickFloor && a.cooldown <= 0 {
		a.kickEnv = 1
		a.cooldown = kickCooldown
	}
	a.kickEnv *= kickDecay
	if a.cooldown > 0 {
		a.cooldown--
	}
	a.kickPrev = kick
	a.publish(KickTransient, clamp01(a.kickEnv))

	a.windows.Add(1)
}

func (a *Analyzer) publish(b Band, v float64) {
	a.published[b].Store(math.Float64bits(v))
}

// Energy returns the latest normalized value for a band.
func (a *Analyzer) Energy(b Band) float64 {
	if !b.valid() {
		return 0
	}
	return math.Float64frombits(a.published[b].Load())
}

// Energies returns a copy of every published band value.
func (a *Analyzer) Energies() Energies {
	var e Energies
	for b := range e {
		e[b] = math.Float64frombits(a.published[b].Load())
	}
	return e
}

// Decay scales every published value. Used to fade visuals while the
// transport is stopped.
func (a *Analyzer) Decay(factor float64) {
	for b := range a.published {
		v := math.Float64frombits(a.published[b].Load())
		a.published[b].Store(math.Float64bits(v * factor))
	}
}

// ResetAverages forgets the adaptive gain and kick history. The reset is
// applied by the writer before its next window.
func (a *Analyzer) ResetAverages() {
	a.resetPending.Store(true)
}

// SpectrumSlice resamples the last window's magnitudes between minHz and
// maxHz into n points using the nearest lower bin.
func (a *Analyzer) SpectrumSlice(minHz, maxHz float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	out := make([]float64, n)
	snap := a.spectrum.Load()
	if snap == nil {
		return out
	}
	mags := *snap
	minBin, maxBin := a.bin(minHz), a.bin(maxHz)
	if maxBin <= minBin {
		return out
	}
	span := float64(maxBin - minBin)
	for i := range out {
		t := 0.0
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		bin := minBin + int(t*span)
		if bin >= len(mags) {
			bin = len(mags) - 1
		}
		out[i] = clamp01(mags[bin] * spectrumScale)
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
