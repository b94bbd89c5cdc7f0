package renderer

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pellucidar/keel/engine/assets"
)

const testCubeOBJ = `v -1 -1 0
v 1 -1 0
v 1 1 0
v -1 1 0
vn 0 0 1
f 1//1 2//1 3//1
f 1//1 3//1 4//1
`

func writeTestMesh(t *testing.T) (string, *assets.AssetManager) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "quad.obj")
	require.NoError(t, os.WriteFile(path, []byte(testCubeOBJ), 0o644))
	return path, assets.NewAssetManager()
}

func TestResourceManagerUploadsMeshOnce(t *testing.T) {
	path, am := writeTestMesh(t)
	handle, ok := am.GetMesh(path)
	require.True(t, ok)

	backend := newFakeBackend()
	rm := NewResourceManager(backend, am)

	first, ok := rm.GetMesh(handle)
	require.True(t, ok)
	assert.Equal(t, 2, backend.buffers, "one vertex and one index buffer")
	assert.EqualValues(t, 6, first.IndexCount)

	second, ok := rm.GetMesh(handle)
	require.True(t, ok)
	assert.Equal(t, first, second)
	assert.Equal(t, 2, backend.buffers, "second request must not upload again")
	assert.Equal(t, 1, rm.MeshCount())
}

func TestResourceManagerUnknownMesh(t *testing.T) {
	backend := newFakeBackend()
	rm := NewResourceManager(backend, assets.NewAssetManager())

	_, ok := rm.GetMesh(assets.MeshHandle(42))
	assert.False(t, ok)
	assert.Zero(t, backend.buffers)
}

func whitePixelPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			img.Set(x, y, color.White)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestResourceManagerUploadsTextureOnce(t *testing.T) {
	am := assets.NewAssetManager()
	path := filepath.Join(t.TempDir(), "white.png")
	require.NoError(t, os.WriteFile(path, whitePixelPNG(t), 0o644))

	handle, ok := am.GetImage(path)
	require.True(t, ok)

	backend := newFakeBackend()
	rm := NewResourceManager(backend, am)

	first, ok := rm.GetTexture(handle)
	require.True(t, ok)
	assert.Equal(t, 1, backend.images)
	assert.Equal(t, 1, backend.imageWrites[first.Image])

	_, ok = rm.GetTexture(handle)
	require.True(t, ok)
	assert.Equal(t, 1, backend.images, "second request must not upload again")
}
