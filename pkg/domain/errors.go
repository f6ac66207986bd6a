package domain

import "errors"

// ErrStoreUnavailable marks connectivity-class failures from the durable
// stores. The engine's fail mode keys off it rather than off raw driver
// errors.
var ErrStoreUnavailable = errors.New("durable store unavailable")
