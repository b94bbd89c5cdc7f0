package renderer

import (
	"github.com/pellucidar/keel/engine/renderer/metadata"
)

// fakeBackend records resource creation so tests can assert get-or-create
// behavior without a GPU.
type fakeBackend struct {
	images    int
	buffers   int
	samplers  int
	layouts   int
	sets      int
	pipelines int

	bufferWrites map[metadata.BufferHandle]int
	bufferData   map[metadata.BufferHandle][]byte
	imageWrites  map[metadata.ImageHandle]int
	setWrites    map[metadata.DescriptorSetHandle][]metadata.DescriptorWrite

	width  uint32
	height uint32
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		bufferWrites: make(map[metadata.BufferHandle]int),
		bufferData:   make(map[metadata.BufferHandle][]byte),
		imageWrites:  make(map[metadata.ImageHandle]int),
		setWrites:    make(map[metadata.DescriptorSetHandle][]metadata.DescriptorWrite),
		width:        1280,
		height:       720,
	}
}

func (f *fakeBackend) Initialize(appName string, width, height uint32) error { return nil }

func (f *fakeBackend) Shutdown() error { return nil }

func (f *fakeBackend) Resized(width, height uint32) { f.width, f.height = width, height }

func (f *fakeBackend) CreateImage(desc metadata.ImageDesc) metadata.ImageHandle {
	f.images++
	return metadata.ImageHandle(f.images - 1)
}

func (f *fakeBackend) CreateBuffer(desc metadata.BufferDesc) metadata.BufferHandle {
	f.buffers++
	return metadata.BufferHandle(f.buffers - 1)
}

func (f *fakeBackend) CreateSampler(desc metadata.SamplerDesc) metadata.SamplerHandle {
	f.samplers++
	return metadata.SamplerHandle(f.samplers - 1)
}

func (f *fakeBackend) CreateDescriptorLayout(desc metadata.DescriptorLayoutDesc) metadata.DescriptorLayoutHandle {
	f.layouts++
	return metadata.DescriptorLayoutHandle(f.layouts - 1)
}

func (f *fakeBackend) AllocateDescriptorSet(layout metadata.DescriptorLayoutHandle) metadata.DescriptorSetHandle {
	f.sets++
	return metadata.DescriptorSetHandle(f.sets - 1)
}

func (f *fakeBackend) CreateGraphicsPipeline(desc metadata.PipelineDesc) (metadata.PipelineHandle, error) {
	f.pipelines++
	return metadata.PipelineHandle(f.pipelines - 1), nil
}

func (f *fakeBackend) UpdateBuffer(buffer metadata.BufferHandle, offset uint64, data []byte) {
	f.bufferWrites[buffer]++
	stored := make([]byte, len(data))
	copy(stored, data)
	f.bufferData[buffer] = stored
}

func (f *fakeBackend) UpdateImageData(image metadata.ImageHandle, pixels []byte) {
	f.imageWrites[image]++
}

func (f *fakeBackend) UpdateDescriptorSet(set metadata.DescriptorSetHandle, writes []metadata.DescriptorWrite) {
	f.setWrites[set] = writes
}

func (f *fakeBackend) BeginFrame() error { return nil }

func (f *fakeBackend) EndFrame(presentImage metadata.ImageHandle) error { return nil }

func (f *fakeBackend) EndRendering() {}

func (f *fakeBackend) BindPipeline(pipeline metadata.PipelineHandle) {}

func (f *fakeBackend) BindVertexBuffer(buffer metadata.BufferHandle) {}

func (f *fakeBackend) BindIndexBuffer(buffer metadata.BufferHandle) {}

func (f *fakeBackend) Draw(vertexCount uint32) {}

func (f *fakeBackend) DrawIndexed(indexCount, firstIndex uint32, vertexOffset int32) {
}

func (f *fakeBackend) BeginRendering(colorAttachments []metadata.ImageHandle, depthAttachment *metadata.ImageHandle, layer uint32) {
}

func (f *fakeBackend) BeginRenderingWithExtent(colorAttachments []metadata.ImageHandle, depthAttachment *metadata.ImageHandle, layer, width, height uint32) {
}

func (f *fakeBackend) BindDescriptorSets(pipeline metadata.PipelineHandle, firstSet uint32, sets []metadata.DescriptorSetHandle) {
}

func (f *fakeBackend) UpdatePushConstants(pipeline metadata.PipelineHandle, stages metadata.ShaderStageFlags, offset uint32, data []byte) {
}

func (f *fakeBackend) TransitionImage(image metadata.ImageHandle, transition metadata.ImageTransition) {
}

func (f *fakeBackend) FramebufferExtent() (uint32, uint32) {
	return f.width, f.height
}
