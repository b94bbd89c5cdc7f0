package math

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMat4IsColumnMajor(t *testing.T) {
	m := NewMat4Translation(NewVec3(1, 2, 3))
	assert.Equal(t, float32(1), m.Data[12])
	assert.Equal(t, float32(2), m.Data[13])
	assert.Equal(t, float32(3), m.Data[14])

	p := m.TransformPoint(NewVec3Zero())
	assert.True(t, p.Compare(NewVec3(1, 2, 3), 1e-6))
}

func TestMat4MulComposesRightToLeft(t *testing.T) {
	translate := NewMat4Translation(NewVec3(5, 0, 0))
	scale := NewMat4Scale(NewVec3(2, 2, 2))

	// translate * scale scales first, then translates.
	p := translate.Mul(scale).TransformPoint(NewVec3(1, 0, 0))
	assert.True(t, p.Compare(NewVec3(7, 0, 0), 1e-6))
}

func TestPerspectiveDepthRangeIsZeroToOne(t *testing.T) {
	near, far := float32(0.1), float32(100)
	proj := NewMat4Perspective(DegToRad(70), 1, near, far)

	nearClip := proj.MulVec4(NewVec4(0, 0, -near, 1))
	assert.InDelta(t, 0, nearClip.Z/nearClip.W, 1e-5, "near plane maps to depth 0")

	farClip := proj.MulVec4(NewVec4(0, 0, -far, 1))
	assert.InDelta(t, 1, farClip.Z/farClip.W, 1e-5, "far plane maps to depth 1")
}

func TestOrthographicDepthRangeIsZeroToOne(t *testing.T) {
	proj := NewMat4Orthographic(-10, 10, -10, 10, 0, 50)

	nearClip := proj.MulVec4(NewVec4(0, 0, 0, 1))
	assert.InDelta(t, 0, nearClip.Z, 1e-6)

	farClip := proj.MulVec4(NewVec4(0, 0, -50, 1))
	assert.InDelta(t, 1, farClip.Z, 1e-6)
}

func TestLookAtLooksDownNegativeZ(t *testing.T) {
	view := NewMat4LookAt(NewVec3(0, 0, 10), NewVec3Zero(), NewVec3Up())

	// The target sits on the view-space -Z axis in front of the camera.
	p := view.TransformPoint(NewVec3Zero())
	assert.True(t, p.Compare(NewVec3(0, 0, -10), 1e-5))

	// The camera position maps to the view-space origin.
	origin := view.TransformPoint(NewVec3(0, 0, 10))
	assert.True(t, origin.Compare(NewVec3Zero(), 1e-5))
}

func TestMat4InverseRoundTrip(t *testing.T) {
	m := NewMat4Translation(NewVec3(3, -2, 7)).
		Mul(NewMat4EulerXYZ(0.4, 1.2, -0.3)).
		Mul(NewMat4Scale(NewVec3(2, 2, 2)))

	roundTrip := m.Mul(m.Inverse())
	identity := NewMat4Identity()
	for i := range roundTrip.Data {
		assert.InDelta(t, identity.Data[i], roundTrip.Data[i], 1e-4)
	}
}

func TestTransformMatrixOrder(t *testing.T) {
	tr := NewTransform()
	tr.Location = NewVec3(0, 0, -5)
	tr.Scale = NewVec3(2, 2, 2)

	// Scale applies before translation.
	p := tr.Matrix().TransformPoint(NewVec3(1, 0, 0))
	require.True(t, p.Compare(NewVec3(2, 0, -5), 1e-6))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, float32(1), Clamp(float32(5), -1, 1))
	assert.Equal(t, float32(-1), Clamp(float32(-5), -1, 1))
	assert.Equal(t, float32(0.5), Clamp(float32(0.5), -1, 1))
}
