package effect

import (
	"image"
	"math"
	"sort"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/olivier-w/panelviz/internal/render"
)

type vec3 struct{ x, y, z float64 }

func (a vec3) dot(b vec3) float64 { return a.x*b.x + a.y*b.y + a.z*b.z }

func rotateX(v vec3, a float64) vec3 {
	c, s := math.Cos(a), math.Sin(a)
	return vec3{v.x, v.y*c - v.z*s, v.y*s + v.z*c}
}

func rotateY(v vec3, a float64) vec3 {
	c, s := math.Cos(a), math.Sin(a)
	return vec3{v.x*c + v.z*s, v.y, -v.x*s + v.z*c}
}

func rotateZ(v vec3, a float64) vec3 {
	c, s := math.Cos(a), math.Sin(a)
	return vec3{v.x*c - v.y*s, v.x*s + v.y*c, v.z}
}

var cubeVerts = [8]vec3{
	{-1, -1, -1}, {1, -1, -1}, {1, 1, -1}, {-1, 1, -1},
	{-1, -1, 1}, {1, -1, 1}, {1, 1, 1}, {-1, 1, 1},
}

// Faces wind so their outward normals match cubeNormals.
var cubeFaces = [6][4]int{
	{0, 1, 2, 3},
	{5, 4, 7, 6},
	{4, 0, 3, 7},
	{1, 5, 6, 2},
	{3, 2, 6, 7},
	{4, 5, 1, 0},
}

var cubeNormals = [6]vec3{
	{0, 0, -1}, {0, 0, 1}, {-1, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, -1, 0},
}

var cubeLight = func() vec3 {
	l := vec3{0.6, -0.8, -0.5}
	n := math.Sqrt(l.dot(l))
	return vec3{l.x / n, l.y / n, l.z / n}
}()

const (
	cubeCameraZ  = 4.0
	cubeFOV      = 0.38
	cubeAmbient  = 0.25
	cubeFaceA    = 0.82
	cubeEdgeA    = 0.9
	cubeEdgeW    = 1.2
	cubeSpinGain = 5.0
	cubePulse    = 0.35
)

// CubeState is a shaded cube spinning on three axes.
type CubeState struct {
	RotX, RotY, RotZ float64
	Scale            float64
}

// NewCube starts unrotated at unit scale.
func NewCube() *CubeState {
	return &CubeState{Scale: 1}
}

// Update spins the cube faster and swells it with louder input.
func (c *CubeState) Update(raw float64) {
	boost := 1 + raw*cubeSpinGain
	c.RotX += 0.4 * 0.012 * boost
	c.RotY += 0.7 * 0.018 * boost
	c.RotZ += 0.2 * 0.007 * boost
	c.Scale = c.Scale*0.85 + (1+raw*cubePulse)*0.15
}

func (c *CubeState) transform(v vec3) vec3 {
	return rotateZ(rotateY(rotateX(v, c.RotX), c.RotY), c.RotZ)
}

// Face is one visible face after culling and shading.
type Face struct {
	Index int
	Depth float64
	Shade float64
}

// VisibleFaces returns the camera-facing faces ordered far to near.
func (c *CubeState) VisibleFaces() []Face {
	var tv [8]vec3
	for i, v := range cubeVerts {
		tv[i] = c.transform(v)
	}
	faces := make([]Face, 0, 3)
	for i, q := range cubeFaces {
		n := c.transform(cubeNormals[i])
		if -n.z <= 0 {
			continue
		}
		depth := (tv[q[0]].z + tv[q[1]].z + tv[q[2]].z + tv[q[3]].z) * 0.25
		diffuse := clamp01(n.dot(vec3{-cubeLight.x, -cubeLight.y, -cubeLight.z}))
		faces = append(faces, Face{Index: i, Depth: depth, Shade: cubeAmbient + (1-cubeAmbient)*diffuse})
	}
	sort.SliceStable(faces, func(i, j int) bool { return faces[i].Depth > faces[j].Depth })
	return faces
}

// Draw paints the visible faces back to front, centred in bounds.
func (c *CubeState) Draw(dst render.Surface, bounds image.Rectangle, accent colorful.Color) {
	cx := float64(bounds.Min.X) + float64(bounds.Dx())*0.5
	cy := float64(bounds.Min.Y) + float64(bounds.Dy())*0.5
	fov := math.Min(float64(bounds.Dx()), float64(bounds.Dy())) * cubeFOV * c.Scale

	project := func(v vec3) render.Point {
		denom := math.Max(v.z+cubeCameraZ, 0.01)
		return render.Point{X: v.x/denom*fov + cx, Y: v.y/denom*fov + cy}
	}

	edge := WithAlpha(Brighter(accent, 0.5), cubeEdgeA)
	for _, f := range c.VisibleFaces() {
		q := cubeFaces[f.Index]
		pts := make([]render.Point, 4)
		for k, vi := range q {
			pts[k] = project(c.transform(cubeVerts[vi]))
		}
		dst.FillPolygon(pts, WithAlpha(Shade(accent, f.Shade), cubeFaceA))
		dst.StrokePolygon(pts, cubeEdgeW, edge)
	}
}
