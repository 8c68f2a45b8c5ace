package externalApi

import (
	"errors"
	"fmt"
)

var (
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrRateLimited         = fmt.Errorf("%w: rate limited", ErrUpstreamUnavailable)
)
