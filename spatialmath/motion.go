package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
)

// RigidMotion is a rotation followed by a translation: p' = R*p + T.
type RigidMotion struct {
	Rotation    EulerAngles `json:"rotation"`
	Translation r3.Vector   `json:"translation"`

	rm *RotationMatrix
}

// NewRigidMotion creates a motion from angles and a translation.
func NewRigidMotion(rotation EulerAngles, translation r3.Vector) RigidMotion {
	return RigidMotion{Rotation: rotation, Translation: translation, rm: rotation.RotationMatrix()}
}

// NewRigidMotionFromMatrix creates a motion from an explicit rotation matrix.
func NewRigidMotionFromMatrix(rm *RotationMatrix, translation r3.Vector) RigidMotion {
	return RigidMotion{Rotation: rm.EulerAngles(), Translation: translation, rm: rm}
}

// IdentityMotion is the motion that leaves every point in place.
func IdentityMotion() RigidMotion {
	return NewRigidMotionFromMatrix(IdentityRotation(), r3.Vector{})
}

// Matrix returns the rotation part as a matrix.
func (m RigidMotion) Matrix() *RotationMatrix {
	if m.rm == nil {
		return m.Rotation.RotationMatrix()
	}
	return m.rm
}

// Apply transforms one point.
func (m RigidMotion) Apply(p r3.Vector) r3.Vector {
	return m.Matrix().Mul(p).Add(m.Translation)
}

// Compose returns the motion equivalent to applying m first and then next.
func (m RigidMotion) Compose(next RigidMotion) RigidMotion {
	r := next.Matrix().MatMul(m.Matrix())
	t := next.Matrix().Mul(m.Translation).Add(next.Translation)
	return NewRigidMotionFromMatrix(r, t)
}

// Inverse returns the motion undoing m.
func (m RigidMotion) Inverse() RigidMotion {
	rt := m.Matrix().Transpose()
	return NewRigidMotionFromMatrix(rt, rt.Mul(m.Translation).Mul(-1))
}

// AlmostEqual compares rotation matrices element-wise and translations component-wise.
func (m RigidMotion) AlmostEqual(other RigidMotion, epsilon float64) bool {
	a, b := m.Matrix(), other.Matrix()
	for i := 0; i < 9; i++ {
		if math.Abs(a.mat[i]-b.mat[i]) > epsilon {
			return false
		}
	}
	return m.Translation.Sub(other.Translation).Norm() <= epsilon
}

func (m RigidMotion) String() string {
	deg := m.Rotation.Degrees()
	return fmt.Sprintf("rot(%.2f, %.2f, %.2f)deg trans(%.4f, %.4f, %.4f)",
		deg.X, deg.Y, deg.Z, m.Translation.X, m.Translation.Y, m.Translation.Z)
}
