package vulkan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescriptorChunkAccountingSurvivesRetirement(t *testing.T) {
	da := &descriptorAllocator{}
	da.chunks = append(da.chunks, descriptorPoolChunk{allocated: 37})
	require.NotNil(t, da.reusableChunk())

	// A chunk the driver refused keeps its allocation count; only the full
	// flag takes it out of rotation.
	da.chunks[0].full = true
	assert.Nil(t, da.reusableChunk(), "retired chunk is skipped")
	assert.EqualValues(t, 37, da.allocatedSets(), "retirement does not distort the live-set total")

	da.chunks = append(da.chunks, descriptorPoolChunk{allocated: maxSetsPerPool})
	assert.Nil(t, da.reusableChunk(), "budget-exhausted chunk is skipped")
	assert.EqualValues(t, 37+maxSetsPerPool, da.allocatedSets())

	da.chunks = append(da.chunks, descriptorPoolChunk{allocated: 3})
	chunk := da.reusableChunk()
	require.NotNil(t, chunk)
	assert.EqualValues(t, 3, chunk.allocated)
}
