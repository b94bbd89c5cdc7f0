package math

// GenerateNormals computes a face normal per triangle and accumulates it on
// each referenced position. Used when a mesh file carries no normals.
func GenerateNormals(positions []Vec3, indices []uint32) []Vec3 {
	normals := make([]Vec3, len(positions))
	for i := 0; i+2 < len(indices); i += 3 {
		i0 := indices[i+0]
		i1 := indices[i+1]
		i2 := indices[i+2]

		edge1 := positions[i1].Sub(positions[i0])
		edge2 := positions[i2].Sub(positions[i0])
		normal := edge1.Cross(edge2)

		normals[i0] = normals[i0].Add(normal)
		normals[i1] = normals[i1].Add(normal)
		normals[i2] = normals[i2].Add(normal)
	}
	for i := range normals {
		normals[i] = normals[i].Normalized()
	}
	return normals
}

// ComputeExtents returns the axis-aligned bounds of the positions. An empty
// slice yields zero extents.
func ComputeExtents(positions []Vec3) Extents3D {
	if len(positions) == 0 {
		return Extents3D{}
	}
	ext := Extents3D{Min: positions[0], Max: positions[0]}
	for _, p := range positions[1:] {
		if p.X < ext.Min.X {
			ext.Min.X = p.X
		}
		if p.Y < ext.Min.Y {
			ext.Min.Y = p.Y
		}
		if p.Z < ext.Min.Z {
			ext.Min.Z = p.Z
		}
		if p.X > ext.Max.X {
			ext.Max.X = p.X
		}
		if p.Y > ext.Max.Y {
			ext.Max.Y = p.Y
		}
		if p.Z > ext.Max.Z {
			ext.Max.Z = p.Z
		}
	}
	return ext
}
