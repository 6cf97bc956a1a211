package errcode

type Code string

const (
	BadQuery    Code = "BAD_QUERY"
	NoData      Code = "NO_DATA"
	FetchFailed Code = "FETCH_FAILED"
	Disabled    Code = "DISABLED"

	Internal Code = "INTERNAL_ERROR"
)
