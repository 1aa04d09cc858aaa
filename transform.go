package sunscope

import "math"

// Mat4 is a 4x4 matrix stored row-major: element (row, col) lives at
// index row*4+col. Vectors are columns, so a point p transforms as M * p.
type Mat4 [16]float64

// identityMat4 is the identity matrix.
var identityMat4 = Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 1, 0,
	0, 0, 0, 1,
}

// Mul returns m * o.
func (m Mat4) Mul(o Mat4) Mat4 {
	var r Mat4
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += m[row*4+k] * o[k*4+col]
			}
			r[row*4+col] = sum
		}
	}
	return r
}

// transformHomogeneous applies m to the point p (w = 1) and returns the
// clip-space coordinates before the perspective divide.
func (m Mat4) transformHomogeneous(p Vec3) (x, y, z, w float64) {
	x = m[0]*p.X + m[1]*p.Y + m[2]*p.Z + m[3]
	y = m[4]*p.X + m[5]*p.Y + m[6]*p.Z + m[7]
	z = m[8]*p.X + m[9]*p.Y + m[10]*p.Z + m[11]
	w = m[12]*p.X + m[13]*p.Y + m[14]*p.Z + m[15]
	return
}

// TransformPoint applies m to p and performs the perspective divide.
func (m Mat4) TransformPoint(p Vec3) Vec3 {
	x, y, z, w := m.transformHomogeneous(p)
	if w == 0 {
		return Vec3{x, y, z}
	}
	return Vec3{x / w, y / w, z / w}
}

// lookAtMatrix builds a right-handed view matrix for an eye at eye looking
// at target.
//
//	| rx  ry  rz  -r·eye |
//	| ux  uy  uz  -u·eye |
//	| -fx -fy -fz  f·eye |
//	|  0   0   0    1    |
func lookAtMatrix(eye, target, up Vec3) Mat4 {
	f := target.Sub(eye).Normalize()
	r := f.Cross(up).Normalize()
	if r.Len() == 0 {
		// Looking straight along up: pick any perpendicular right axis.
		r = f.Cross(Vec3{0, 0, -1}).Normalize()
	}
	u := r.Cross(f)

	return Mat4{
		r.X, r.Y, r.Z, -r.Dot(eye),
		u.X, u.Y, u.Z, -u.Dot(eye),
		-f.X, -f.Y, -f.Z, f.Dot(eye),
		0, 0, 0, 1,
	}
}

// perspectiveMatrix builds an OpenGL-style projection mapping the view
// frustum to normalized device coordinates in [-1, 1] on every axis.
// fovY is the vertical field of view in radians.
func perspectiveMatrix(fovY, aspect, near, far float64) Mat4 {
	f := 1 / math.Tan(fovY/2)
	nf := 1 / (near - far)
	return Mat4{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, (far + near) * nf, 2 * far * near * nf,
		0, 0, -1, 0,
	}
}
