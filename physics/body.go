package physics

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/physloop/common"
)

// ShapeKind selects the collision shape of a body.
type ShapeKind int

const (
	ShapeSphere ShapeKind = iota + 1
	ShapeBox
	ShapePlane
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeSphere:
		return "sphere"
	case ShapeBox:
		return "box"
	case ShapePlane:
		return "plane"
	default:
		return fmt.Sprintf("ShapeKind(%d)", int(k))
	}
}

// planeExtent is the half length of the segment standing in for an
// unbounded plane.
const planeExtent = 1e4

// Shape describes a body's collision geometry. Radius is used by spheres,
// HalfExtents by boxes. A plane's surface passes through the body position
// with its normal along the body's local +Y.
type Shape struct {
	Kind        ShapeKind
	Radius      float64
	HalfExtents mgl64.Vec3
}

func Sphere(radius float64) Shape {
	return Shape{Kind: ShapeSphere, Radius: radius}
}

func Box(halfExtents mgl64.Vec3) Shape {
	return Shape{Kind: ShapeBox, HalfExtents: halfExtents}
}

func Plane() Shape {
	return Shape{Kind: ShapePlane}
}

// Material is a contact material.
type Material struct {
	Friction    float64
	Restitution float64
}

func (m Material) validate() error {
	if !common.Finite(m.Friction, m.Restitution) {
		return fmt.Errorf("material values must be finite")
	}
	if m.Friction < 0 {
		return fmt.Errorf("friction %v is negative", m.Friction)
	}
	if m.Restitution < 0 || m.Restitution > 1 {
		return fmt.Errorf("restitution %v outside [0, 1]", m.Restitution)
	}
	return nil
}

// BodyDef is the initial state of a rigid body. Mass 0 makes the body
// static. A zero Orientation is treated as the identity. Material nil uses
// the world's default contact material.
type BodyDef struct {
	Mass            float64
	Shape           Shape
	Position        mgl64.Vec3
	Orientation     mgl64.Quat
	Velocity        mgl64.Vec3
	AngularVelocity mgl64.Vec3
	Material        *Material
	// Sensor bodies report overlaps but never push other bodies.
	Sensor bool
}

// Transform is a body pose.
type Transform struct {
	Position    mgl64.Vec3
	Orientation mgl64.Quat
}

var zAxis = mgl64.Vec3{0, 0, 1}

// planarEpsilon bounds the out-of-plane quaternion components accepted as
// a pure rotation about Z.
const planarEpsilon = 1e-9

func (d BodyDef) validate() error {
	if !common.Finite(d.Mass) || d.Mass < 0 {
		return fmt.Errorf("%w: mass %v", ErrInvalidBody, d.Mass)
	}
	if !finiteVec(d.Position) || !finiteVec(d.Velocity) || !finiteVec(d.AngularVelocity) {
		return fmt.Errorf("%w: non-finite position or velocity", ErrInvalidBody)
	}
	if !common.Finite(d.Orientation.W, d.Orientation.V[0], d.Orientation.V[1], d.Orientation.V[2]) {
		return fmt.Errorf("%w: non-finite orientation", ErrInvalidBody)
	}
	if d.Velocity[2] != 0 {
		return fmt.Errorf("%w: velocity %v leaves the XY simulation plane", ErrInvalidBody, d.Velocity)
	}
	if d.AngularVelocity[0] != 0 || d.AngularVelocity[1] != 0 {
		return fmt.Errorf("%w: angular velocity %v is not about Z", ErrInvalidBody, d.AngularVelocity)
	}
	if _, err := planarAngle(d.Orientation); err != nil {
		return err
	}

	switch d.Shape.Kind {
	case ShapeSphere:
		if !common.Finite(d.Shape.Radius) || d.Shape.Radius <= 0 {
			return fmt.Errorf("%w: sphere radius %v", ErrInvalidBody, d.Shape.Radius)
		}
	case ShapeBox:
		h := d.Shape.HalfExtents
		if !finiteVec(h) || h[0] <= 0 || h[1] <= 0 || h[2] <= 0 {
			return fmt.Errorf("%w: box half extents %v", ErrInvalidBody, h)
		}
	case ShapePlane:
		if d.Mass != 0 {
			return fmt.Errorf("%w: planes must be static", ErrInvalidBody)
		}
	default:
		return fmt.Errorf("%w: unknown shape %v", ErrInvalidBody, d.Shape.Kind)
	}

	if d.Material != nil {
		if err := d.Material.validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidBody, err)
		}
	}
	return nil
}

// planarAngle extracts the rotation about Z from q.
func planarAngle(q mgl64.Quat) (float64, error) {
	if q.W == 0 && q.V == (mgl64.Vec3{}) {
		return 0, nil
	}
	if math.Abs(q.V[0]) > planarEpsilon || math.Abs(q.V[1]) > planarEpsilon {
		return 0, fmt.Errorf("%w: orientation %v is not a rotation about Z", ErrInvalidBody, q)
	}
	return 2 * math.Atan2(q.V[2], q.W), nil
}

func finiteVec(v mgl64.Vec3) bool {
	return common.Finite(v[0], v[1], v[2])
}

type rigidBody struct {
	body   *cp.Body
	shapes []*cp.Shape
	depth  float64
	static bool
	kind   ShapeKind
	// custom is false when the body follows the world's default material
	custom bool
}

func (b *rigidBody) transform() Transform {
	p := b.body.Position()
	return Transform{
		Position:    mgl64.Vec3{p.X, p.Y, b.depth},
		Orientation: mgl64.QuatRotate(b.body.Angle(), zAxis),
	}
}

func (b *rigidBody) applyMaterial(m Material) {
	for _, s := range b.shapes {
		s.SetFriction(m.Friction)
		s.SetElasticity(m.Restitution)
	}
}

func newRigidBody(def BodyDef, material Material) *rigidBody {
	angle, _ := planarAngle(def.Orientation)
	static := def.Mass == 0

	var body *cp.Body
	if static {
		body = cp.NewStaticBody()
	} else {
		var moment float64
		switch def.Shape.Kind {
		case ShapeSphere:
			moment = cp.MomentForCircle(def.Mass, 0, def.Shape.Radius, cp.Vector{})
		case ShapeBox:
			moment = cp.MomentForBox(def.Mass, def.Shape.HalfExtents[0]*2, def.Shape.HalfExtents[1]*2)
		}
		body = cp.NewBody(def.Mass, moment)
	}
	body.SetPosition(cp.Vector{X: def.Position[0], Y: def.Position[1]})
	body.SetAngle(angle)
	if !static {
		body.SetVelocity(def.Velocity[0], def.Velocity[1])
		body.SetAngularVelocity(def.AngularVelocity[2])
	}

	var shape *cp.Shape
	switch def.Shape.Kind {
	case ShapeSphere:
		shape = cp.NewCircle(body, def.Shape.Radius, cp.Vector{})
	case ShapeBox:
		shape = cp.NewBox(body, def.Shape.HalfExtents[0]*2, def.Shape.HalfExtents[1]*2, 0)
	case ShapePlane:
		shape = cp.NewSegment(body, cp.Vector{X: -planeExtent}, cp.Vector{X: planeExtent}, 0)
	}
	shape.SetSensor(def.Sensor)

	rb := &rigidBody{
		body:   body,
		shapes: []*cp.Shape{shape},
		depth:  def.Position[2],
		static: static,
		kind:   def.Shape.Kind,
		custom: def.Material != nil,
	}
	if def.Material != nil {
		material = *def.Material
	}
	rb.applyMaterial(material)
	return rb
}
