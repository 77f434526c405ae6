package geometry

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Transform is a 2D affine transform stored as a 3x3 homogeneous matrix.
// The bottom row is always [0 0 1].
type Transform struct {
	m *mat.Dense
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{m: mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	})}
}

// Translation returns a transform that moves points by (tx, ty).
func Translation(tx, ty float64) Transform {
	return Transform{m: mat.NewDense(3, 3, []float64{
		1, 0, tx,
		0, 1, ty,
		0, 0, 1,
	})}
}

// Scaling returns a transform that scales by (sx, sy) about the origin.
func Scaling(sx, sy float64) Transform {
	return Transform{m: mat.NewDense(3, 3, []float64{
		sx, 0, 0,
		0, sy, 0,
		0, 0, 1,
	})}
}

// Rotation returns a transform that rotates by the given angle (degrees,
// positive clockwise in a y-down coordinate system) about the origin.
func Rotation(degrees float64) Transform {
	rad := degrees * math.Pi / 180.0
	cos := math.Cos(rad)
	sin := math.Sin(rad)
	return Transform{m: mat.NewDense(3, 3, []float64{
		cos, -sin, 0,
		sin, cos, 0,
		0, 0, 1,
	})}
}

// RotationAbout returns a transform that rotates by the given angle
// (degrees) about the given center point.
func RotationAbout(degrees float64, center Point) Transform {
	return Translation(center.X, center.Y).
		Compose(Rotation(degrees)).
		Compose(Translation(-center.X, -center.Y))
}

// Compose returns the transform that applies other first, then t.
func (t Transform) Compose(other Transform) Transform {
	result := mat.NewDense(3, 3, nil)
	result.Mul(t.matrix(), other.matrix())
	return Transform{m: result}
}

// Apply applies the transform to a point.
func (t Transform) Apply(p Point) Point {
	m := t.matrix()
	return Point{
		X: m.At(0, 0)*p.X + m.At(0, 1)*p.Y + m.At(0, 2),
		Y: m.At(1, 0)*p.X + m.At(1, 1)*p.Y + m.At(1, 2),
	}
}

// ApplyRect applies the transform to all four corners of a rectangle and
// returns the transformed corners in the same order.
func (t Transform) ApplyRect(r Rect) [4]Point {
	corners := r.Corners()
	var out [4]Point
	for i, c := range corners {
		out[i] = t.Apply(c)
	}
	return out
}

// Inverse returns the inverse transform. The second return value is false
// when the transform is singular.
func (t Transform) Inverse() (Transform, bool) {
	inv := mat.NewDense(3, 3, nil)
	if err := inv.Inverse(t.matrix()); err != nil {
		return Transform{}, false
	}
	return Transform{m: inv}, true
}

func (t Transform) matrix() *mat.Dense {
	if t.m == nil {
		return Identity().m
	}
	return t.m
}
