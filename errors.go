package linden

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidHandle is returned when a geometry handle is out of range or
	// refers to a freed slot.
	ErrInvalidHandle = errors.New("linden: invalid geometry handle")
	// ErrInvalidLight is returned when a light index is out of range.
	ErrInvalidLight = errors.New("linden: invalid light index")
	// ErrInvalidMaterial is returned when a material index is out of range.
	ErrInvalidMaterial = errors.New("linden: invalid material index")
	// ErrNilGeom is returned when a nil geometry resource is added.
	ErrNilGeom = errors.New("linden: nil geom")
	// ErrCyclicAttach is returned when an attachment would make an instance
	// its own ancestor.
	ErrCyclicAttach = errors.New("linden: cyclic attachment")
	// ErrUnknownAnimation is returned when a mesh has no sequence with the
	// requested name.
	ErrUnknownAnimation = errors.New("linden: unknown animation sequence")
	// ErrUnknownStereoMode is returned when a stereo mode is out of range.
	ErrUnknownStereoMode = errors.New("linden: unknown stereo mode")
	// ErrUnknownShader is returned by EbitenResources.LoadShader for a name
	// that was never registered.
	ErrUnknownShader = errors.New("linden: unknown shader")
)

// HandleError describes a failed operation on a geometry handle.
// It unwraps to one of the sentinel errors above.
type HandleError struct {
	Op     string
	Handle int
	Err    error
}

func (e *HandleError) Error() string {
	return fmt.Sprintf("%s %d: %v", e.Op, e.Handle, e.Err)
}

func (e *HandleError) Unwrap() error { return e.Err }
