package types

// Mat3 is a 3x3 matrix stored in column-major order: element (row, col)
// lives at index col*3+row.
type Mat3 [9]float32

// Create an identity matrix.
func Ident3() Mat3 {
	return Mat3{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	}
}

// Create a matrix from three column vectors.
func Mat3FromCols(c0, c1, c2 Vec3) Mat3 {
	return Mat3{
		c0[0], c0[1], c0[2],
		c1[0], c1[1], c1[2],
		c2[0], c2[1], c2[2],
	}
}

// Get a column as a vector.
func (m Mat3) Col(c int) Vec3 {
	return Vec3{m[c*3], m[c*3+1], m[c*3+2]}
}

// Multiply the matrix with a column vector.
func (m Mat3) Mul3x1(v Vec3) Vec3 {
	return Vec3{
		m[0]*v[0] + m[3]*v[1] + m[6]*v[2],
		m[1]*v[0] + m[4]*v[1] + m[7]*v[2],
		m[2]*v[0] + m[5]*v[1] + m[8]*v[2],
	}
}

// Multiply two matrices.
func (m Mat3) Mul3(o Mat3) Mat3 {
	return Mat3FromCols(
		m.Mul3x1(o.Col(0)),
		m.Mul3x1(o.Col(1)),
		m.Mul3x1(o.Col(2)),
	)
}

// Multiply the matrix with a scalar.
func (m Mat3) Scale(s float32) Mat3 {
	var out Mat3
	for i := range m {
		out[i] = m[i] * s
	}
	return out
}

// Add two matrices.
func (m Mat3) Add(o Mat3) Mat3 {
	var out Mat3
	for i := range m {
		out[i] = m[i] + o[i]
	}
	return out
}

// Matrix determinant.
func (m Mat3) Det() float32 {
	return m[0]*(m[4]*m[8]-m[7]*m[5]) -
		m[3]*(m[1]*m[8]-m[7]*m[2]) +
		m[6]*(m[1]*m[5]-m[4]*m[2])
}

// Matrix inverse. Returns the identity for singular matrices.
func (m Mat3) Inv() Mat3 {
	det := m.Det()
	if det > -floatCmpEpsilon && det < floatCmpEpsilon {
		return Ident3()
	}
	invDet := 1.0 / det

	var out Mat3
	out[0] = (m[4]*m[8] - m[7]*m[5]) * invDet
	out[3] = (m[6]*m[5] - m[3]*m[8]) * invDet
	out[6] = (m[3]*m[7] - m[6]*m[4]) * invDet
	out[1] = (m[7]*m[2] - m[1]*m[8]) * invDet
	out[4] = (m[0]*m[8] - m[6]*m[2]) * invDet
	out[7] = (m[6]*m[1] - m[0]*m[7]) * invDet
	out[2] = (m[1]*m[5] - m[4]*m[2]) * invDet
	out[5] = (m[3]*m[2] - m[0]*m[5]) * invDet
	out[8] = (m[0]*m[4] - m[3]*m[1]) * invDet
	return out
}
