package passes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pellucidar/keel/engine/math"
	"github.com/pellucidar/keel/engine/renderer"
)

func testCamera() renderer.CameraData {
	projection := math.NewMat4Perspective(math.DegToRad(70), 16.0/9.0, 0.1, 1000)
	projection.Data[5] *= -1
	view := math.NewMat4LookAt(math.NewVec3(0, 2, 5), math.NewVec3(0, 0, 0), math.NewVec3Up())
	return renderer.CameraData{
		View:       view,
		Projection: projection,
		Position:   math.NewVec3(0, 2, 5),
		NearClip:   0.1,
		FarClip:    1000,
	}
}

func TestCascadeSplitsAreMonotonicAndCoverTheRange(t *testing.T) {
	splits := ComputeCascadeSplits(0.1, ShadowDistance)

	last := float32(0.1)
	for i, split := range splits {
		assert.Greater(t, split, last, "split %d must be past the previous one", i)
		last = split
	}
	assert.InDelta(t, ShadowDistance, splits[len(splits)-1], 1e-3, "last split reaches the shadow distance")
}

func TestCascadeSplitsClampToCameraFar(t *testing.T) {
	camera := testCamera()
	camera.FarClip = 50

	cascades := ComputeCascades(camera, math.NewVec3(0.3, -1, 0.2).Normalized())
	assert.InDelta(t, 50, cascades[len(cascades)-1].SplitDepth, 1e-3)
}

func TestCascadesCoverTheSlicedFrustum(t *testing.T) {
	camera := testCamera()
	lightDirection := math.NewVec3(0.3, -1, 0.2).Normalized()

	cascades := ComputeCascades(camera, lightDirection)

	// Sample points inside each slice must land inside the cascade's clip
	// volume.
	last := camera.NearClip
	for i, cascade := range cascades {
		mid := (last + cascade.SplitDepth) / 2
		forward := camera.View.Inverse().Forward()
		worldPoint := camera.Position.Add(forward.MulScalar(mid))

		clip := cascade.ViewProj.MulVec4(worldPoint.ToVec4(1))
		require.NotZero(t, clip.W)
		ndc := math.NewVec3(clip.X/clip.W, clip.Y/clip.W, clip.Z/clip.W)

		assert.LessOrEqual(t, math32Abs(ndc.X), float32(1.001), "cascade %d X", i)
		assert.LessOrEqual(t, math32Abs(ndc.Y), float32(1.001), "cascade %d Y", i)
		assert.GreaterOrEqual(t, ndc.Z, float32(-0.001), "cascade %d near", i)
		assert.LessOrEqual(t, ndc.Z, float32(1.001), "cascade %d far", i)

		last = cascade.SplitDepth
	}
}

func TestSnapToTexelGridAlignsWorldOrigin(t *testing.T) {
	lightView := math.NewMat4LookAt(math.NewVec3(13.7, 42.1, -8.3), math.NewVec3(0.5, 0.25, 0.125), math.NewVec3Up())
	lightProj := math.NewMat4Orthographic(-23.4, 23.4, -23.4, 23.4, 0, 46.8)
	resolution := float32(2048)

	snapped := snapToTexelGrid(lightProj, lightView, resolution)

	origin := snapped.Mul(lightView).MulVec4(math.NewVec4(0, 0, 0, 1)).MulScalar(resolution / 2)
	assert.InDelta(t, float64(int32(origin.X+0.5*sign(origin.X))), float64(origin.X), 1e-2, "X lands on a texel boundary")
	assert.InDelta(t, float64(int32(origin.Y+0.5*sign(origin.Y))), float64(origin.Y), 1e-2, "Y lands on a texel boundary")
}

func sign(v float32) float32 {
	if v < 0 {
		return -1
	}
	return 1
}

func math32Abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
