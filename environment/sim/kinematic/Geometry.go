package kinematic

import "math"

// vec3 and mat3 are small value types used in the forward kinematics and
// rasterization inner loops. mat3 is row major.
type (
	vec3 [3]float64
	mat3 [9]float64
)

func identity() mat3 {
	return mat3{1, 0, 0, 0, 1, 0, 0, 0, 1}
}

func (a vec3) add(b vec3) vec3 {
	return vec3{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

func (a vec3) sub(b vec3) vec3 {
	return vec3{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func (a vec3) scale(s float64) vec3 {
	return vec3{a[0] * s, a[1] * s, a[2] * s}
}

func (a vec3) dot(b vec3) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func (a vec3) cross(b vec3) vec3 {
	return vec3{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func (a vec3) norm() float64 {
	return math.Sqrt(a.dot(a))
}

func (a vec3) unit() vec3 {
	n := a.norm()
	if n == 0 {
		return a
	}
	return a.scale(1 / n)
}

func (m mat3) mul(n mat3) mat3 {
	var out mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				out[3*i+j] += m[3*i+k] * n[3*k+j]
			}
		}
	}
	return out
}

func (m mat3) apply(v vec3) vec3 {
	return vec3{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2],
		m[3]*v[0] + m[4]*v[1] + m[5]*v[2],
		m[6]*v[0] + m[7]*v[1] + m[8]*v[2],
	}
}

// applyT applies the transpose of m to v
func (m mat3) applyT(v vec3) vec3 {
	return vec3{
		m[0]*v[0] + m[3]*v[1] + m[6]*v[2],
		m[1]*v[0] + m[4]*v[1] + m[7]*v[2],
		m[2]*v[0] + m[5]*v[1] + m[8]*v[2],
	}
}

func (m mat3) column(j int) vec3 {
	return vec3{m[j], m[3+j], m[6+j]}
}

// axisAngle returns the rotation of angle radians about a unit axis
// (Rodrigues' formula)
func axisAngle(axis vec3, angle float64) mat3 {
	axis = axis.unit()
	x, y, z := axis[0], axis[1], axis[2]
	c, s := math.Cos(angle), math.Sin(angle)
	t := 1 - c

	return mat3{
		t*x*x + c, t*x*y - s*z, t*x*z + s*y,
		t*x*y + s*z, t*y*y + c, t*y*z - s*x,
		t*x*z - s*y, t*y*z + s*x, t*z*z + c,
	}
}

// quatToMat converts a unit quaternion (w, x, y, z) to a rotation matrix
func quatToMat(q [4]float64) mat3 {
	n := math.Sqrt(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3])
	if n == 0 {
		return identity()
	}
	w, x, y, z := q[0]/n, q[1]/n, q[2]/n, q[3]/n

	return mat3{
		1 - 2*(y*y+z*z), 2 * (x*y - z*w), 2 * (x*z + y*w),
		2 * (x*y + z*w), 1 - 2*(x*x+z*z), 2 * (y*z - x*w),
		2 * (x*z - y*w), 2 * (y*z + x*w), 1 - 2*(x*x+y*y),
	}
}

// lookAt returns the orientation of a camera at pos looking at target.
// Columns are the camera's right, up and backward axes, so the camera
// looks along its negative z-axis.
func lookAt(pos, target, up vec3) mat3 {
	back := pos.sub(target).unit()
	right := up.cross(back).unit()
	trueUp := back.cross(right)

	return mat3{
		right[0], trueUp[0], back[0],
		right[1], trueUp[1], back[1],
		right[2], trueUp[2], back[2],
	}
}
