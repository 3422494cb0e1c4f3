package types

import "errors"

// ErrUnknownValue is returned when parsing a label outside a closed enumeration.
var ErrUnknownValue = errors.New("unknown value")
