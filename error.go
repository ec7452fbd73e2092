package clockpro

import "fmt"

// sentinel is a constant implementing error, matchable with errors.Is,
// without the indirection of a package-level var.
type sentinel string

func (s sentinel) Error() string { return string(s) }

// ErrInvalidCapacity may be returned from [New].
const ErrInvalidCapacity = sentinel("invalid capacity")

func minCapacityError(requested int) error {
	return fmt.Errorf(
		"%w: capacity must be >= %d, got %d",
		ErrInvalidCapacity, MinimumCapacity, requested)
}
