package effect

import (
	"image"
	"math"
	"math/rand"
	"testing"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/olivier-w/panelviz/internal/analysis"
	"github.com/olivier-w/panelviz/internal/render"
)

var red = colorful.Color{R: 1}

func TestSmoothFollowsWhilePlayingAndFadesWhilePaused(t *testing.T) {
	s := NewState(NewConfig(Flutter, analysis.Mids, red), nil)
	if got := s.Smooth(1, true, true); math.Abs(got-0.3) > 1e-9 {
		t.Fatalf("expected 0.3 after one playing frame, got %f", got)
	}
	if got := s.Smooth(1, true, true); math.Abs(got-0.51) > 1e-9 {
		t.Fatalf("expected 0.51 after two playing frames, got %f", got)
	}
	if got := s.Smooth(1, false, true); math.Abs(got-0.51*0.98) > 1e-9 {
		t.Fatalf("expected pause fade to ignore raw input, got %f", got)
	}
}

func TestFlutterBlendsBackgroundTowardAccent(t *testing.T) {
	cfg := NewConfig(Flutter, analysis.Mids, red)
	s := NewState(cfg, nil)
	s.Smoothed = 0.5
	c := render.NewCanvas(10, 10)
	s.Render(c, c.Bounds(), cfg, Frame{Background: Black})

	got := c.Image().RGBAAt(5, 5)
	if got.R < 120 || got.R > 135 || got.G != 0 {
		t.Fatalf("expected half red, got %+v", got)
	}
}

func TestBinaryFlashUsesHardThreshold(t *testing.T) {
	cfg := NewConfig(BinaryFlash, analysis.KickTransient, red)
	s := NewState(cfg, nil)
	c := render.NewCanvas(4, 4)

	s.Smoothed = 0.3
	s.Render(c, c.Bounds(), cfg, Frame{Background: Black})
	if got := c.Image().RGBAAt(1, 1); got.R != 0 {
		t.Fatalf("expected background at exactly the threshold, got %+v", got)
	}

	s.Smoothed = 0.31
	s.Render(c, c.Bounds(), cfg, Frame{Background: Black})
	if got := c.Image().RGBAAt(1, 1); got.R != 255 {
		t.Fatalf("expected accent above the threshold, got %+v", got)
	}
}

func TestStarfieldBinaryModeAttackAndRelease(t *testing.T) {
	sf := NewStarfield(rand.New(rand.NewSource(7)))
	sf.Update(0.9, true)
	if got := sf.Speed(); math.Abs(got-(2*0.1+80*0.9)) > 1e-9 {
		t.Fatalf("expected fast attack to 72.2, got %f", got)
	}
	prev := sf.Speed()
	for i := 0; i < 200; i++ {
		sf.Update(0, true)
		if sf.Speed() > prev {
			t.Fatalf("release must not speed up: %f -> %f", prev, sf.Speed())
		}
		prev = sf.Speed()
	}
	if sf.Speed() < starBaseSpeed {
		t.Fatalf("speed fell below base: %f", sf.Speed())
	}
}

func TestStarfieldContinuousSpeedStaysInRange(t *testing.T) {
	sf := NewStarfield(rand.New(rand.NewSource(3)))
	for i := 0; i < 100; i++ {
		sf.Update(1, false)
	}
	if got := sf.Speed(); got > starMaxSpeed || got < 79 {
		t.Fatalf("expected speed to converge near max, got %f", got)
	}
	for _, s := range sf.stars {
		if s.z < 1 || s.z > starFar {
			t.Fatalf("star left the volume: %+v", s)
		}
	}
	if len(sf.stars) != starCount {
		t.Fatalf("expected %d stars, got %d", starCount, len(sf.stars))
	}
}

func TestSwitchingIntoStarfieldReseeds(t *testing.T) {
	cfg := NewConfig(Starfield, analysis.Bass, red)
	s := NewState(cfg, rand.New(rand.NewSource(5)))
	st := s.Stars()
	for i := 0; i < 50; i++ {
		st.Update(1, false)
	}
	before := st.stars[0]

	cfg.Kind = Flutter
	s.Sync(cfg)
	cfg.Kind = Starfield
	s.Sync(cfg)
	if st.stars[0] == before {
		t.Fatal("expected stars to be re-seeded on switching back to starfield")
	}
}

func TestReapplyingStarfieldReseeds(t *testing.T) {
	cfg := NewConfig(Starfield, analysis.Bass, red)
	s := NewState(cfg, rand.New(rand.NewSource(9)))
	st := s.Stars()
	for i := 0; i < 50; i++ {
		st.Update(1, false)
	}
	before := append([]star(nil), st.stars...)

	s.Apply(cfg)
	if len(st.stars) != starCount {
		t.Fatalf("expected %d stars, got %d", starCount, len(st.stars))
	}
	same := 0
	for i := range before {
		if st.stars[i] == before[i] {
			same++
		}
	}
	if same == len(before) {
		t.Fatal("expected dropping starfield again to scatter a fresh field")
	}

	s.Sync(cfg)
	moved := append([]star(nil), st.stars...)
	s.Sync(cfg)
	for i := range moved {
		if st.stars[i] != moved[i] {
			t.Fatal("expected a plain config sync to leave the field alone")
		}
	}
}

func TestCubeAtRestShowsFrontFace(t *testing.T) {
	c := NewCube()
	faces := c.VisibleFaces()
	if len(faces) != 1 || faces[0].Index != 0 {
		t.Fatalf("expected only the front face, got %+v", faces)
	}
	// the light sits behind the front face, leaving only ambient
	if math.Abs(faces[0].Shade-cubeAmbient) > 1e-9 {
		t.Fatalf("expected ambient shade, got %f", faces[0].Shade)
	}
}

func TestCubeSpinsFasterWithEnergy(t *testing.T) {
	quiet, loud := NewCube(), NewCube()
	quiet.Update(0)
	loud.Update(1)
	if loud.RotY <= quiet.RotY*5.9 {
		t.Fatalf("expected six-fold spin at full energy, got %f vs %f", loud.RotY, quiet.RotY)
	}
	if math.Abs(loud.Scale-(0.85+1.35*0.15)) > 1e-9 {
		t.Fatalf("unexpected scale %f", loud.Scale)
	}
}

func TestCubeFacesSortedFarToNear(t *testing.T) {
	c := NewCube()
	for i := 0; i < 37; i++ {
		c.Update(0.4)
	}
	faces := c.VisibleFaces()
	for i := 1; i < len(faces); i++ {
		if faces[i].Depth > faces[i-1].Depth {
			t.Fatalf("faces out of order: %+v", faces)
		}
	}
}

func TestFrequencyLineSettlesOnSteadyTone(t *testing.T) {
	const rate = 44100
	a := analysis.New(rate)
	var line SpectrumState
	lo, hi := analysis.Mids.Range()

	perFrame := rate / 60
	pos := 0
	var prev, cur []float64
	maxDelta := 0.0
	for frame := 0; frame < 5*60; frame++ {
		block := make([]float32, perFrame)
		for i := range block {
			block[i] = float32(0.5 * math.Sin(2*math.Pi*1000*float64(pos+i)/rate))
		}
		pos += perFrame
		a.Ingest(block)

		cur = line.Process(a.SpectrumSlice(lo, hi, spectrumPoints), false, 0)
		if frame >= 4*60 && prev != nil {
			for i := range cur {
				if d := math.Abs(cur[i] - prev[i]); d > maxDelta {
					maxDelta = d
				}
			}
		}
		prev = cur
	}
	if maxDelta > 0.01 {
		t.Fatalf("expected the line to settle, last-second frame delta %f", maxDelta)
	}
	peakAt := 0
	for i, v := range cur {
		if v > cur[peakAt] {
			peakAt = i
		}
	}
	if peakAt < 14 || peakAt > 19 {
		t.Fatalf("expected the curve to peak near 1 kHz, got point %d", peakAt)
	}
}

func TestFrequencyLineKickGateSilencesCurve(t *testing.T) {
	var line SpectrumState
	spec := make([]float64, spectrumPoints)
	for i := range spec {
		spec[i] = 0.5
	}
	out := line.Process(spec, true, 0)
	for i, v := range out {
		if v != 0 {
			t.Fatalf("point %d: expected gated curve to be flat, got %f", i, v)
		}
	}
}

func TestBandChangeClearsSpectrumHistory(t *testing.T) {
	cfg := NewConfig(FrequencyLine, analysis.Mids, red)
	s := NewState(cfg, nil)
	line := s.Spectrum()
	line.Process([]float64{1, 1, 1}, false, 0)
	if line.Peak() == 0 {
		t.Fatal("expected a tracked peak")
	}
	cfg.Band = analysis.Highs
	s.Sync(cfg)
	if line.Peak() != 0 || line.smooth != nil {
		t.Fatal("expected history to be cleared on band change")
	}
}

func TestSpectrumPathStaysInsideBounds(t *testing.T) {
	var line SpectrumState
	bounds := image.Rect(10, 20, 110, 70)
	p := line.Path(bounds, []float64{0, 5, -1, 0.3})
	if p.Len() != 4 {
		t.Fatalf("expected a move plus three cubic segments, got %d ops", p.Len())
	}
	end, _ := p.End()
	if math.Abs(end.X-110) > 1e-9 || end.Y < 20 || end.Y > 70 {
		t.Fatalf("unexpected end point %+v", end)
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range PickerKinds() {
		got, err := ParseKind(k.String())
		if err != nil || got != k {
			t.Fatalf("ParseKind(%q) = %v, %v", k.String(), got, err)
		}
	}
}
