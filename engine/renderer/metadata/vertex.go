package metadata

import "github.com/pellucidar/keel/engine/math"

// Vertex is the interleaved layout every mesh pipeline consumes.
type Vertex struct {
	Position     math.Vec3
	Color        math.Vec3
	TexCoord     math.Vec2
	Normal       math.Vec3
	TextureIndex uint32
}

// VertexSize is the byte stride of one Vertex: 11 float32 fields plus one
// uint32 texture index.
const VertexSize = 12 * 4
