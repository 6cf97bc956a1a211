package domain

import "errors"

var (
	ErrBadQuery    = errors.New("unsupported query value")
	ErrNoData      = errors.New("no data available")
	ErrFetchFailed = errors.New("fetch failed")
	ErrDisabled    = errors.New("fetching disabled")
)
