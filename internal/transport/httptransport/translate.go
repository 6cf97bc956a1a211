package httptransport

import (
	"errors"

	"github.com/NastyaGoryachaya/coin-market-board/internal/domain"
	"github.com/NastyaGoryachaya/coin-market-board/internal/ports/errcode"
)

func FromServiceError(err error) errcode.Code {
	switch {
	case errors.Is(err, domain.ErrBadQuery):
		return errcode.BadQuery
	case errors.Is(err, domain.ErrNoData):
		return errcode.NoData
	case errors.Is(err, domain.ErrFetchFailed):
		return errcode.FetchFailed
	case errors.Is(err, domain.ErrDisabled):
		return errcode.Disabled
	default:
		return errcode.Internal
	}
}
