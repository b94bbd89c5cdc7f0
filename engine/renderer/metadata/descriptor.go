package metadata

// DescriptorSetHandle is an opaque index into the registry's descriptor set list.
type DescriptorSetHandle uint32

// DescriptorLayoutHandle is an opaque index into the registry's layout list.
type DescriptorLayoutHandle uint32

type DescriptorType uint32

const (
	DescriptorUniformBuffer DescriptorType = iota
	DescriptorStorageBuffer
	DescriptorCombinedImageSampler
	DescriptorStorageImage
)

type ShaderStageFlags uint32

const (
	ShaderStageVertex ShaderStageFlags = 1 << iota
	ShaderStageFragment
)

// BindingDesc is one slot of a descriptor set layout.
type BindingDesc struct {
	Binding uint32
	Type    DescriptorType
	Stages  ShaderStageFlags
	Count   uint32
}

type DescriptorLayoutDesc struct {
	Bindings []BindingDesc
}

// DescriptorWrite points one binding of a set at a concrete resource. Buffer
// bindings set Buffer; image bindings set Image and Sampler.
type DescriptorWrite struct {
	Binding uint32
	Type    DescriptorType
	Buffer  BufferHandle
	Image   ImageHandle
	Sampler SamplerHandle
}
