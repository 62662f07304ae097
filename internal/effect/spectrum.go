package effect

import (
	"image"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/olivier-w/panelviz/internal/render"
)

const (
	spectrumPoints  = 50
	spectrumSpread  = 2
	spectrumKeep    = 0.96
	spectrumPeakMin = 0.0001
	spectrumGain    = 1.5
	spectrumStrokeW = 1.15
	peakAttackKeep  = 0.3
	peakReleaseKeep = 0.92
)

// SpectrumState is the history behind the frequency line: a per-point
// temporal average and an adaptive peak.
type SpectrumState struct {
	smooth []float64
	peak   float64
}

// Reset forgets the history. The next frame seeds it again.
func (s *SpectrumState) Reset() {
	s.smooth = nil
	s.peak = 0
}

// Peak is the tracked peak used for normalization.
func (s *SpectrumState) Peak() float64 { return s.peak }

// Process turns one raw spectrum slice into normalized line heights. When
// gate is set the whole curve is scaled by kick.
func (s *SpectrumState) Process(spectrum []float64, gate bool, kick float64) []float64 {
	n := len(spectrum)
	if n < 2 {
		return nil
	}
	if len(s.smooth) != n {
		s.smooth = append(s.smooth[:0], spectrum...)
	}
	if s.peak <= 0 {
		s.peak = spectrumPeakMin
	}

	out := make([]float64, n)
	for i := range spectrum {
		var sum float64
		count := 0
		for j := i - spectrumSpread; j <= i+spectrumSpread; j++ {
			if j >= 0 && j < n {
				sum += spectrum[j]
				count++
			}
		}
		v := s.smooth[i]*spectrumKeep + sum/float64(count)*(1-spectrumKeep)
		s.smooth[i] = v
		out[i] = v
	}

	if gate {
		for i := range out {
			out[i] *= kick
		}
	}

	cur := spectrumPeakMin
	for _, v := range out {
		if v > cur {
			cur = v
		}
	}
	if cur > s.peak {
		s.peak = s.peak*peakAttackKeep + cur*(1-peakAttackKeep)
	} else {
		s.peak = s.peak*peakReleaseKeep + cur*(1-peakReleaseKeep)
	}

	norm := s.peak * spectrumGain
	for i := range out {
		out[i] /= norm
	}
	return out
}

// Path builds the cubic curve through values across bounds.
func (s *SpectrumState) Path(bounds image.Rectangle, values []float64) *render.Path {
	var p render.Path
	if len(values) < 2 {
		return &p
	}
	top, bottom := float64(bounds.Min.Y), float64(bounds.Max.Y)
	h := float64(bounds.Dy())
	y := func(v float64) float64 { return clamp(bottom-v*spectrumGain*h, top, bottom) }
	step := float64(bounds.Dx()) / float64(len(values)-1)
	x0 := float64(bounds.Min.X)

	p.MoveTo(x0, y(values[0]))
	for i := 1; i < len(values); i++ {
		px, py := x0+float64(i-1)*step, y(values[i-1])
		x, cy := x0+float64(i)*step, y(values[i])
		dx := x - px
		p.CubeTo(px+dx*0.25, py, px+dx*0.75, cy, x, cy)
	}
	return &p
}

// Draw strokes the curve in the accent colour.
func (s *SpectrumState) Draw(dst render.Surface, bounds image.Rectangle, values []float64, accent colorful.Color) {
	if len(values) < 2 {
		return
	}
	dst.StrokePath(s.Path(bounds, values), spectrumStrokeW, Opaque(accent))
}
