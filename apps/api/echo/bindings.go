package echoapi

import (
	"github.com/labstack/echo/v4"

	"github.com/grecko-app/grecko/core"
)

// History sources
const (
	sourceSession = "session"
	sourceStore   = "store"
)

var sourceParam = "source"

// HistoryQuery selects where the trend line is read from: the session (default) or the store.
type HistoryQuery struct {
	Source string
}

func (hq *HistoryQuery) Bind(ctx echo.Context) error {
	hq.Source = sourceSession
	val := core.CleanString(ctx.QueryParam(sourceParam), true)
	switch val {
	case "", sourceSession:
	case sourceStore:
		hq.Source = sourceStore
	default:
		return core.NewValidationError(nil, core.FieldError{Field: sourceParam, Error: "must be one of: session, store"})
	}
	return nil
}
