package passes

import (
	"github.com/chewxy/math32"

	"github.com/pellucidar/keel/engine/math"
	"github.com/pellucidar/keel/engine/renderer"
)

// ShadowDistance is how far from the camera shadows are rendered, in world
// units. Geometry beyond it receives no shadowing.
const ShadowDistance float32 = 100

// splitLambda blends the logarithmic and uniform split schemes; 1 is fully
// logarithmic.
const splitLambda float32 = 0.9

// Cascade is one shadow slice: its light view-projection and the view-space
// depth where it ends.
type Cascade struct {
	ViewProj   math.Mat4
	SplitDepth float32
}

// ComputeCascadeSplits returns the far depth of each cascade over
// [near, shadowDistance] using the practical split scheme.
func ComputeCascadeSplits(nearClip, shadowDistance float32) [renderer.ShadowCascadeCount]float32 {
	var splits [renderer.ShadowCascadeCount]float32
	clipRange := shadowDistance - nearClip
	ratio := shadowDistance / nearClip

	for i := 0; i < renderer.ShadowCascadeCount; i++ {
		p := float32(i+1) / float32(renderer.ShadowCascadeCount)
		logSplit := nearClip * math32.Pow(ratio, p)
		uniformSplit := nearClip + clipRange*p
		splits[i] = splitLambda*logSplit + (1-splitLambda)*uniformSplit
	}
	return splits
}

// ComputeCascades fits an orthographic light frustum around each camera
// sub-frustum slice. The radius is rounded up and the projection snapped to
// the shadow map's texel grid so the cascade does not shimmer as the camera
// moves.
func ComputeCascades(camera renderer.CameraData, lightDirection math.Vec3) [renderer.ShadowCascadeCount]Cascade {
	var cascades [renderer.ShadowCascadeCount]Cascade

	shadowDistance := math.Min(ShadowDistance, camera.FarClip)
	splits := ComputeCascadeSplits(camera.NearClip, shadowDistance)

	corners := frustumCorners(camera)

	lastSplit := camera.NearClip
	for i := 0; i < renderer.ShadowCascadeCount; i++ {
		sliceCorners := sliceFrustum(corners, camera.NearClip, camera.FarClip, lastSplit, splits[i])

		center := math.NewVec3Zero()
		for _, c := range sliceCorners {
			center = center.Add(c)
		}
		center = center.MulScalar(1.0 / float32(len(sliceCorners)))

		radius := float32(0)
		for _, c := range sliceCorners {
			radius = math.Max(radius, c.Distance(center))
		}
		// Round the radius up to a sixteenth so tiny camera moves do not
		// change the frustum size every frame.
		radius = math32.Ceil(radius*16) / 16

		up := math.NewVec3Up()
		if math32.Abs(lightDirection.Dot(up)) > 0.999 {
			up = math.NewVec3(0, 0, 1)
		}
		eye := center.Sub(lightDirection.MulScalar(radius))
		lightView := math.NewMat4LookAt(eye, center, up)
		lightProj := math.NewMat4Orthographic(-radius, radius, -radius, radius, 0, 2*radius)

		resolution := float32(renderer.ShadowCascadeResolutions[i])
		lightProj = snapToTexelGrid(lightProj, lightView, resolution)

		cascades[i] = Cascade{
			ViewProj:   lightProj.Mul(lightView),
			SplitDepth: splits[i],
		}
		lastSplit = splits[i]
	}

	return cascades
}

// frustumCorners unprojects the camera frustum's eight corners to world
// space: indices 0..3 on the near plane, 4..7 on the far plane.
func frustumCorners(camera renderer.CameraData) [8]math.Vec3 {
	inv := camera.ViewProjection().Inverse()
	ndc := [8]math.Vec4{
		{X: -1, Y: -1, Z: 0, W: 1},
		{X: 1, Y: -1, Z: 0, W: 1},
		{X: 1, Y: 1, Z: 0, W: 1},
		{X: -1, Y: 1, Z: 0, W: 1},
		{X: -1, Y: -1, Z: 1, W: 1},
		{X: 1, Y: -1, Z: 1, W: 1},
		{X: 1, Y: 1, Z: 1, W: 1},
		{X: -1, Y: 1, Z: 1, W: 1},
	}

	var out [8]math.Vec3
	for i, c := range ndc {
		p := inv.MulVec4(c)
		out[i] = math.NewVec3(p.X/p.W, p.Y/p.W, p.Z/p.W)
	}
	return out
}

// sliceFrustum interpolates each near/far corner pair to the slice's depth
// range. Points along a frustum edge are linear in view depth, so the slice
// corners are a plain lerp.
func sliceFrustum(corners [8]math.Vec3, nearClip, farClip, sliceNear, sliceFar float32) [8]math.Vec3 {
	tNear := (sliceNear - nearClip) / (farClip - nearClip)
	tFar := (sliceFar - nearClip) / (farClip - nearClip)

	var out [8]math.Vec3
	for i := 0; i < 4; i++ {
		edge := corners[i+4].Sub(corners[i])
		out[i] = corners[i].Add(edge.MulScalar(tNear))
		out[i+4] = corners[i].Add(edge.MulScalar(tFar))
	}
	return out
}

// snapToTexelGrid offsets the orthographic projection so the world origin
// lands on a texel boundary of the shadow map.
func snapToTexelGrid(lightProj, lightView math.Mat4, resolution float32) math.Mat4 {
	shadowMatrix := lightProj.Mul(lightView)
	origin := shadowMatrix.MulVec4(math.NewVec4(0, 0, 0, 1)).MulScalar(resolution / 2)

	offsetX := (math32.Round(origin.X) - origin.X) * 2 / resolution
	offsetY := (math32.Round(origin.Y) - origin.Y) * 2 / resolution

	lightProj.Data[12] += offsetX
	lightProj.Data[13] += offsetY
	return lightProj
}
