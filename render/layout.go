package render

import (
	"image/color"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/physloop/viewport"
)

// Point is an output pixel position.
type Point struct {
	X, Y float32
}

// Mark is one sprite resolved to output pixels.
type Mark struct {
	Kind   Kind
	Points []Point
	Radius float32
	Color  color.RGBA
	// Depth is the clip-space w; larger is farther.
	Depth float64
}

// Layout projects every visible sprite for an output of width by height
// pixels and orders the marks back to front. Sprites behind the camera
// are dropped.
func Layout(scene *Scene, cam *viewport.Camera, width, height float64) []Mark {
	if scene == nil || cam == nil || width <= 0 || height <= 0 {
		return nil
	}

	marks := make([]Mark, 0, len(scene.sprites))
	for _, sp := range scene.sprites {
		if sp.Hidden {
			continue
		}
		m, ok := layoutSprite(sp, cam, width, height)
		if ok {
			marks = append(marks, m)
		}
	}
	sort.SliceStable(marks, func(i, j int) bool {
		return marks[i].Depth > marks[j].Depth
	})
	return marks
}

func layoutSprite(sp *Sprite, cam *viewport.Camera, width, height float64) (Mark, bool) {
	x, y, w, ok := cam.Project(sp.Position, width, height)
	if !ok {
		return Mark{}, false
	}
	m := Mark{Kind: sp.Kind, Color: sp.Color, Depth: w}

	switch sp.Kind {
	case Disc:
		m.Points = []Point{{float32(x), float32(y)}}
		m.Radius = float32(sp.Radius * cam.PixelsPerUnit(w, height))
	case Quad:
		h := sp.HalfExtents
		corners := []mgl64.Vec3{{-h[0], -h[1], 0}, {h[0], -h[1], 0}, {h[0], h[1], 0}, {-h[0], h[1], 0}}
		if !projectLocal(sp, cam, corners, width, height, &m) {
			return Mark{}, false
		}
	case Line:
		h := sp.HalfExtents[0]
		if !projectLocal(sp, cam, []mgl64.Vec3{{-h, 0, 0}, {h, 0, 0}}, width, height, &m) {
			return Mark{}, false
		}
	default:
		return Mark{}, false
	}
	return m, true
}

func projectLocal(sp *Sprite, cam *viewport.Camera, local []mgl64.Vec3, width, height float64, m *Mark) bool {
	q := sp.Orientation
	if q.W == 0 && q.V == (mgl64.Vec3{}) {
		q = mgl64.QuatIdent()
	}
	m.Points = make([]Point, 0, len(local))
	for _, p := range local {
		x, y, _, ok := cam.Project(sp.Position.Add(q.Rotate(p)), width, height)
		if !ok {
			return false
		}
		m.Points = append(m.Points, Point{float32(x), float32(y)})
	}
	return true
}
