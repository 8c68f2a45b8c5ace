package service

import "errors"

var (
	ErrNotFound            = errors.New("error not found")
	ErrValidation          = errors.New("error validation")
	ErrUpstreamUnavailable = errors.New("error upstream unavailable")
	ErrRateUnavailable     = errors.New("error rate unavailable")
)
