package metadata

// BufferHandle is an opaque index into the resource registry's buffer list.
type BufferHandle uint32

type BufferUsageFlags uint32

const (
	BufferUsageVertex BufferUsageFlags = 1 << iota
	BufferUsageIndex
	BufferUsageUniform
	BufferUsageStorage
	BufferUsageTransferSrc
	BufferUsageTransferDst
)

// MemoryHint selects the allocation/upload policy for a buffer.
type MemoryHint uint32

const (
	// MemoryGPUOnly places the buffer in device-local memory. Initial data is
	// staged through a temporary host-visible buffer and copied once.
	MemoryGPUOnly MemoryHint = iota
	// MemoryCPUWritable places the buffer in host-visible memory and keeps it
	// persistently mapped for the backend's lifetime.
	MemoryCPUWritable
)

type BufferDesc struct {
	Size       uint64
	Usage      BufferUsageFlags
	MemoryHint MemoryHint
}
