package core

import (
	"errors"
)

var (
	// ErrNoSurface is returned when there is nothing to render into yet
	// (zero sized viewport). Callers treat it as a silent no-op.
	ErrNoSurface          = errors.New("no rendering surface available")
	ErrNoScene            = errors.New("no scene has been built")
	ErrReadbackDisabled   = errors.New("renderer was created without pixel readback")
	ErrInvalidTransition  = errors.New("invalid state transition")
	ErrNoPlants           = errors.New("no plants placed in the garden")
	ErrSessionNotComplete = errors.New("photorealization session is not complete")
	ErrDisposed           = errors.New("resource already disposed")
	ErrUnknown            = errors.New("unknown")
)
