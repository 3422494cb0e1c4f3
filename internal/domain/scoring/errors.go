package scoring

import "errors"

// Match integrity errors. They are returned before any status is computed.
var (
	ErrTooManySets       = errors.New("too many sets")
	ErrDuplicateSet      = errors.New("duplicate set number")
	ErrNonContiguousSets = errors.New("non-contiguous set numbers")
)
