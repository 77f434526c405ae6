package scene

import "errors"

var (
	// ErrNotFound indicates an image id that is not present in the layout.
	ErrNotFound = errors.New("scene: image not found")

	// ErrOutOfRange indicates a rejected value such as an opacity outside
	// [0,1] or a non-positive size. The operation is a no-op.
	ErrOutOfRange = errors.New("scene: value out of range")

	// ErrInvalidMargins indicates margins that are negative or exceed the
	// page extents. The page is left unchanged.
	ErrInvalidMargins = errors.New("scene: invalid margins")
)
