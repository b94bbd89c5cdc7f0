package loaders

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pellucidar/keel/engine/math"
)

func writeOBJ(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mesh.obj")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadOBJTriangle(t *testing.T) {
	path := writeOBJ(t, `
# comment
v 0 0 0
v 1 0 0
v 0 1 0
vt 0 0
vt 1 0
vt 0 1
vn 0 0 1
f 1/1/1 2/2/1 3/3/1
`)

	vertices, indices, err := LoadOBJ(path)
	require.NoError(t, err)
	require.Len(t, vertices, 3)
	assert.Equal(t, []uint32{0, 1, 2}, indices)

	assert.True(t, vertices[1].Position.Compare(math.NewVec3(1, 0, 0), 1e-6))
	assert.True(t, vertices[0].Normal.Compare(math.NewVec3(0, 0, 1), 1e-6))
	// OBJ texcoords have a bottom-left origin; loading flips V.
	assert.InDelta(t, 1, vertices[0].TexCoord.Y, 1e-6)
	assert.InDelta(t, 0, vertices[2].TexCoord.Y, 1e-6)
}

func TestLoadOBJDedupsCorners(t *testing.T) {
	path := writeOBJ(t, `
v -1 -1 0
v 1 -1 0
v 1 1 0
v -1 1 0
f 1 2 3
f 1 3 4
`)

	vertices, indices, err := LoadOBJ(path)
	require.NoError(t, err)
	assert.Len(t, vertices, 4, "shared corners are deduplicated")
	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3}, indices)
}

func TestLoadOBJTriangulatesQuads(t *testing.T) {
	path := writeOBJ(t, `
v -1 -1 0
v 1 -1 0
v 1 1 0
v -1 1 0
f 1 2 3 4
`)

	_, indices, err := LoadOBJ(path)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3}, indices, "fan triangulation")
}

func TestLoadOBJGeneratesMissingNormals(t *testing.T) {
	path := writeOBJ(t, `
v 0 0 0
v 1 0 0
v 0 1 0
f 1 2 3
`)

	vertices, _, err := LoadOBJ(path)
	require.NoError(t, err)
	for _, v := range vertices {
		assert.InDelta(t, 1, v.Normal.Length(), 1e-5, "generated normals are unit length")
	}
}

func TestLoadOBJNegativeIndices(t *testing.T) {
	path := writeOBJ(t, `
v 0 0 0
v 1 0 0
v 0 1 0
f -3 -2 -1
`)

	vertices, indices, err := LoadOBJ(path)
	require.NoError(t, err)
	assert.Len(t, vertices, 3)
	assert.Equal(t, []uint32{0, 1, 2}, indices)
}

func TestLoadOBJRejectsGarbage(t *testing.T) {
	_, _, err := LoadOBJ(writeOBJ(t, "v 1 2\nf 1 2 3\n"))
	assert.Error(t, err)

	_, _, err = LoadOBJ(writeOBJ(t, "v 0 0 0\nf 1 2 9\n"))
	assert.Error(t, err, "face index out of range")

	_, _, err = LoadOBJ(writeOBJ(t, "# empty\n"))
	assert.Error(t, err, "no geometry")
}

func TestLoadOBJMissingFile(t *testing.T) {
	_, _, err := LoadOBJ(filepath.Join(t.TempDir(), "absent.obj"))
	assert.Error(t, err)
}
