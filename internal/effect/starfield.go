package effect

import (
	"image"
	"math"
	"math/rand"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/olivier-w/panelviz/internal/render"
)

const (
	starCount       = 200
	starSpread      = 1000.0
	starFar         = 2000.0
	starNearSeed    = 100.0
	starBaseSpeed   = 2.0
	starMaxSpeed    = 80.0
	starActiveLevel = 0.3
	starProjection  = 200.0
	streakSpeed     = 15.0
	streakMinDist   = 0.18
	starMargin      = 20.0
)

type star struct {
	x, y, z float64
}

// StarfieldState is a field of particles flying toward the camera.
type StarfieldState struct {
	stars []star
	speed float64
	rng   *rand.Rand
}

// NewStarfield seeds a fresh field at base speed.
func NewStarfield(rng *rand.Rand) *StarfieldState {
	sf := &StarfieldState{rng: rng, speed: starBaseSpeed}
	sf.Seed()
	return sf
}

// Seed scatters every star through the volume.
func (sf *StarfieldState) Seed() {
	sf.stars = sf.stars[:0]
	for i := 0; i < starCount; i++ {
		sf.stars = append(sf.stars, star{
			x: sf.rng.Float64()*2*starSpread - starSpread,
			y: sf.rng.Float64()*2*starSpread - starSpread,
			z: starNearSeed + sf.rng.Float64()*(starFar-starNearSeed),
		})
	}
}

// Speed is the current forward speed per frame.
func (sf *StarfieldState) Speed() float64 { return sf.speed }

// Update eases the speed toward the audio-driven target and moves the stars.
// In binary mode the field either bursts to full speed or coasts back down.
func (sf *StarfieldState) Update(raw float64, binary bool) {
	if binary {
		if raw > starActiveLevel {
			sf.speed = sf.speed*0.1 + starMaxSpeed*0.9
		} else {
			sf.speed = math.Max(sf.speed*0.92+starBaseSpeed*0.08, starBaseSpeed)
		}
	} else {
		target := clamp(starBaseSpeed+raw*(starMaxSpeed-starBaseSpeed), starBaseSpeed, starMaxSpeed)
		sf.speed = math.Max(sf.speed*0.85+target*0.15, starBaseSpeed)
	}

	for i := range sf.stars {
		s := &sf.stars[i]
		s.z -= sf.speed
		if s.z < 1 {
			s.x = sf.rng.Float64()*2*starSpread - starSpread
			s.y = sf.rng.Float64()*2*starSpread - starSpread
			s.z = starFar
		}
	}
}

// Draw projects the stars around the centre of bounds. Above the streak
// speed, stars away from the centre become motion streaks.
func (sf *StarfieldState) Draw(dst render.Surface, bounds image.Rectangle, light bool, accent colorful.Color) {
	cx := float64(bounds.Min.X) + float64(bounds.Dx())*0.5
	cy := float64(bounds.Min.Y) + float64(bounds.Dy())*0.5
	w := float64(bounds.Dx())

	edge := Darker(accent, 0.4)
	if light {
		edge = Darker(accent, 0.3)
	}
	head := Opaque(Brighter(accent, 0.2))
	streaks := sf.speed > streakSpeed
	speedFactor := clamp01((sf.speed - streakSpeed) / (starMaxSpeed - streakSpeed))

	for _, s := range sf.stars {
		sx := cx + s.x/s.z*starProjection
		sy := cy + s.y/s.z*starProjection
		if sx < float64(bounds.Min.X)-starMargin || sx > float64(bounds.Max.X)+starMargin ||
			sy < float64(bounds.Min.Y)-starMargin || sy > float64(bounds.Max.Y)+starMargin {
			continue
		}

		dx, dy := sx-cx, sy-cy
		dist := math.Hypot(dx, dy)
		col := Opaque(Lerp(accent, edge, clamp01(dist/(w*0.5))*0.5))
		dot := remap(s.z, 1, starFar, 2.5, 1)

		if !streaks {
			dst.FillCircle(sx, sy, dot*0.5, col)
			continue
		}
		if dist <= w*streakMinDist {
			dst.FillCircle(sx, sy, 0.6, col)
			continue
		}
		if dist > 0.001 {
			dx /= dist
			dy /= dist
		}
		length := remap(s.z, 1, starFar, 50, 12) * (0.3 + speedFactor*0.7)
		thickness := remap(s.z, 1, starFar, 1.5, 0.6)
		dst.Line(sx-dx*length, sy-dy*length, sx, sy, thickness, col)
		dst.FillCircle(sx, sy, dot*0.5, head)
	}
}
