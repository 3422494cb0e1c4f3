package rotation

import "errors"

var (
	ErrNoLineup            = errors.New("no lineup")
	ErrInvalidSlot         = errors.New("invalid slot")
	ErrNotOnCourt          = errors.New("player not on court")
	ErrIllegalSubstitution = errors.New("illegal substitution")
	ErrSubstitutionLimit   = errors.New("substitution limit reached")
	ErrIllegalLibero       = errors.New("illegal libero replacement")
)
