package core

import (
	"errors"
)

var (
	// ErrSwapchainOutOfDate is returned by frame acquisition/presentation when
	// the surface no longer matches the swapchain. The renderer skips the frame.
	ErrSwapchainOutOfDate = errors.New("swapchain out of date")
	// ErrShaderNotFound is returned when a named .spv module is missing from
	// the shader directory. Pipeline creation treats this as fatal.
	ErrShaderNotFound = errors.New("shader not found")
	// ErrAssetDecode is wrapped around mesh/image decode failures. Callers get
	// a nil asset and keep running.
	ErrAssetDecode = errors.New("asset decode failed")
	ErrUnknown     = errors.New("unknown")
)
