package block

import "errors"

// Failure kinds for the block store and the view activation protocol.
// Every failure in this layer is a caller contract violation or a
// setup-time data problem; none are transient, so there is no retry
// path. Callers distinguish kinds with errors.Is.
var (
	// ErrInvalidDimension reports malformed extents at allocation or
	// resize: a non-positive axis extent, or a halo width narrower than
	// the declared stencil half-width.
	ErrInvalidDimension = errors.New("invalid dimension")

	// ErrHandleInUse reports a release or resize attempted while a View
	// is bound to the block.
	ErrHandleInUse = errors.New("handle in use")

	// ErrSelectionNotFound reports an activation (or store access)
	// targeting a block, multigrid level, or time-spectral instance that
	// was never allocated, or a handle whose block has been released.
	ErrSelectionNotFound = errors.New("selection not found")

	// ErrDimensionMismatch reports an activation target whose arrays
	// disagree on shape or were never sized.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrStaleView reports access through a View after deactivation or
	// before any activation.
	ErrStaleView = errors.New("stale view access")
)
