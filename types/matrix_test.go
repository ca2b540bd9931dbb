package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMat3ColsAndMul(t *testing.T) {
	m := Mat3FromCols(XYZ(1, 0, 0), XYZ(0, 2, 0), XYZ(0, 0, 3))
	assert.Equal(t, XYZ(0, 2, 0), m.Col(1))
	assert.Equal(t, XYZ(1, 4, 9), m.Mul3x1(XYZ(1, 2, 3)))
	assert.Equal(t, float32(6), m.Det())

	id := Ident3()
	assert.Equal(t, m, id.Mul3(m))
	assert.Equal(t, m, m.Mul3(id))
}

func TestMat3Inverse(t *testing.T) {
	m := Mat3FromCols(XYZ(2, 0, 1), XYZ(0, 3, 0), XYZ(1, 0, 2))
	inv := m.Inv()
	prod := m.Mul3(inv)
	id := Ident3()
	for i := range prod {
		assert.InDelta(t, float64(id[i]), float64(prod[i]), 1e-5)
	}

	// Singular matrices invert to the identity instead of exploding.
	sing := Mat3FromCols(XYZ(1, 0, 0), XYZ(2, 0, 0), XYZ(0, 0, 0))
	assert.Equal(t, Ident3(), sing.Inv())
}

func TestMat3ScaleAdd(t *testing.T) {
	m := Ident3()
	s := m.Scale(2)
	assert.Equal(t, float32(8), s.Det())
	sum := m.Add(m)
	assert.Equal(t, s, sum)
}

func TestQuatRotate(t *testing.T) {
	// Quarter turn around z maps x to y.
	r := RotateAroundAxis(XYZ(1, 0, 0), XYZ(0, 0, 1), math.Pi/2)
	assert.InDelta(t, 0.0, float64(r[0]), 1e-6)
	assert.InDelta(t, 1.0, float64(r[1]), 1e-6)
	assert.InDelta(t, 0.0, float64(r[2]), 1e-6)

	// Rotation preserves length.
	v := XYZ(1, 2, 3)
	r = RotateAroundAxis(v, XYZ(0, 1, 0).Normalize(), 1.234)
	assert.InDelta(t, float64(v.Len()), float64(r.Len()), 1e-5)

	// Rotating around the vector itself changes nothing.
	axis := XYZ(0, 0, 1)
	r = RotateAroundAxis(axis, axis, 2.5)
	assert.InDelta(t, 1.0, float64(r.Dot(axis)), 1e-6)
}
