package math

// Transform is an object's placement in the world. Rotation is stored as
// Euler angles in radians, applied in YXZ order.
type Transform struct {
	Location Vec3
	Rotation Vec3
	Scale    Vec3
}

func NewTransform() Transform {
	return Transform{
		Location: NewVec3Zero(),
		Rotation: NewVec3Zero(),
		Scale:    NewVec3One(),
	}
}

func NewTransformFromLocation(location Vec3) Transform {
	t := NewTransform()
	t.Location = location
	return t
}

// Matrix composes translation * rotation * scale.
func (t Transform) Matrix() Mat4 {
	translation := NewMat4Translation(t.Location)
	rotation := NewMat4EulerXYZ(t.Rotation.X, t.Rotation.Y, t.Rotation.Z)
	scale := NewMat4Scale(t.Scale)
	return translation.Mul(rotation).Mul(scale)
}
