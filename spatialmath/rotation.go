// Package spatialmath defines the rotation and rigid motion types used by registration.
package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// RotationMatrix is a 3x3 matrix in row major order.
// m[3*i+j] is the element in the ith row and jth column.
type RotationMatrix struct {
	mat [9]float64
}

// NewRotationMatrix creates a rotation matrix from a row major slice of nine elements.
func NewRotationMatrix(m []float64) (*RotationMatrix, error) {
	if len(m) != 9 {
		return nil, fmt.Errorf("input slice has %d elements, need exactly 9", len(m))
	}
	mat := [9]float64{}
	copy(mat[:], m)
	return &RotationMatrix{mat}, nil
}

// NewRotationMatrixFromDense copies the top-left 3x3 block of a gonum matrix.
func NewRotationMatrixFromDense(d mat.Matrix) *RotationMatrix {
	rm := &RotationMatrix{}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			rm.mat[3*i+j] = d.At(i, j)
		}
	}
	return rm
}

// IdentityRotation returns the identity matrix.
func IdentityRotation() *RotationMatrix {
	return &RotationMatrix{[9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}}
}

// At returns the element at row i and column j.
func (rm *RotationMatrix) At(i, j int) float64 {
	return rm.mat[3*i+j]
}

// Row returns row i as a vector.
func (rm *RotationMatrix) Row(i int) r3.Vector {
	return r3.Vector{X: rm.mat[3*i], Y: rm.mat[3*i+1], Z: rm.mat[3*i+2]}
}

// Mul rotates v.
func (rm *RotationMatrix) Mul(v r3.Vector) r3.Vector {
	return r3.Vector{
		X: rm.mat[0]*v.X + rm.mat[1]*v.Y + rm.mat[2]*v.Z,
		Y: rm.mat[3]*v.X + rm.mat[4]*v.Y + rm.mat[5]*v.Z,
		Z: rm.mat[6]*v.X + rm.mat[7]*v.Y + rm.mat[8]*v.Z,
	}
}

// MatMul returns rm * other.
func (rm *RotationMatrix) MatMul(other *RotationMatrix) *RotationMatrix {
	out := &RotationMatrix{}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += rm.At(i, k) * other.At(k, j)
			}
			out.mat[3*i+j] = sum
		}
	}
	return out
}

// Transpose returns the transpose, which is also the inverse rotation.
func (rm *RotationMatrix) Transpose() *RotationMatrix {
	out := &RotationMatrix{}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out.mat[3*j+i] = rm.mat[3*i+j]
		}
	}
	return out
}

// Dense returns the matrix as a gonum matrix.
func (rm *RotationMatrix) Dense() *mat.Dense {
	return mat.NewDense(3, 3, rm.mat[:])
}

// EulerAngles converts the matrix to roll, pitch and yaw.
func (rm *RotationMatrix) EulerAngles() EulerAngles {
	sy := math.Hypot(rm.At(0, 0), rm.At(1, 0))
	if sy < 1e-9 {
		// gimbal lock, yaw is folded into roll
		return EulerAngles{
			Roll:  math.Atan2(-rm.At(1, 2), rm.At(1, 1)),
			Pitch: math.Atan2(-rm.At(2, 0), sy),
			Yaw:   0,
		}
	}
	return EulerAngles{
		Roll:  math.Atan2(rm.At(2, 1), rm.At(2, 2)),
		Pitch: math.Atan2(-rm.At(2, 0), sy),
		Yaw:   math.Atan2(rm.At(1, 0), rm.At(0, 0)),
	}
}

// EulerAngles are three successive rotations about the fixed x, y and z axes, in radians.
// The equivalent matrix is Rz(Yaw) * Ry(Pitch) * Rx(Roll).
type EulerAngles struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// RotationMatrix returns the matrix form of the angles.
func (ea EulerAngles) RotationMatrix() *RotationMatrix {
	cr, sr := math.Cos(ea.Roll), math.Sin(ea.Roll)
	cp, sp := math.Cos(ea.Pitch), math.Sin(ea.Pitch)
	cy, sy := math.Cos(ea.Yaw), math.Sin(ea.Yaw)
	return &RotationMatrix{[9]float64{
		cy * cp, cy*sp*sr - sy*cr, cy*sp*cr + sy*sr,
		sy * cp, sy*sp*sr + cy*cr, sy*sp*cr - cy*sr,
		-sp, cp * sr, cp * cr,
	}}
}

// Degrees returns the angles in degrees, the unit motion consumers display.
func (ea EulerAngles) Degrees() r3.Vector {
	return r3.Vector{X: ea.Roll * 180 / math.Pi, Y: ea.Pitch * 180 / math.Pi, Z: ea.Yaw * 180 / math.Pi}
}
