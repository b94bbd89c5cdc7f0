package metadata

// PipelineHandle is an opaque index into the registry's pipeline list.
type PipelineHandle uint32

type CullMode uint32

const (
	CullModeNone CullMode = iota
	CullModeBack
	CullModeFront
)

type CompareOp uint32

const (
	CompareOpLess CompareOp = iota
	CompareOpLessOrEqual
	CompareOpGreaterOrEqual
	CompareOpAlways
)

type PushConstantRange struct {
	Stages ShaderStageFlags
	Offset uint32
	Size   uint32
}

// PipelineDesc describes a graphics pipeline. Shader modules are resolved as
// "<name>.spv" inside the configured shader directory; VertexShaderName is
// required, FragmentShaderName may be empty for depth-only pipelines.
// Attachment formats are read from the registry through the image handles.
type PipelineDesc struct {
	Name               string
	VertexShaderName   string
	FragmentShaderName string

	ColorAttachments []ImageHandle
	DepthAttachment  *ImageHandle

	DescriptorLayouts  []DescriptorLayoutHandle
	PushConstantRanges []PushConstantRange

	// HasVertexInput selects the standard Vertex layout; full-screen passes
	// that generate geometry in the shader leave it false.
	HasVertexInput bool

	CullMode         CullMode
	DepthTestEnable  bool
	DepthWriteEnable bool
	DepthCompareOp   CompareOp
	DepthClampEnable bool
	BlendEnable      bool
}
