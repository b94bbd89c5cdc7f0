package metadata

// SamplerHandle is an opaque index into the registry's sampler list.
type SamplerHandle uint32

type Filter uint32

const (
	FilterLinear Filter = iota
	FilterNearest
)

type AddressMode uint32

const (
	AddressModeRepeat AddressMode = iota
	AddressModeClampToEdge
	AddressModeClampToBorder
)

type SamplerDesc struct {
	MinFilter   Filter
	MagFilter   Filter
	AddressMode AddressMode
}
