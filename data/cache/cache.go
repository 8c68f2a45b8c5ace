package cache

import "errors"

// ErrMiss is returned when nothing is cached for the requested key.
var ErrMiss = errors.New("cache miss")
