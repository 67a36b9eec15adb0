package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/grecko-app/grecko/core/gpa"
	"github.com/grecko-app/grecko/core/session"
)

type (
	goalView struct {
		gpa.GoalState
		Reachability gpa.Reachability `json:"reachability"`
	}

	sessionView struct {
		OpenedAt time.Time          `json:"opened_at"`
		Goal     goalView           `json:"goal"`
		History  []gpa.HistoryEntry `json:"history"`
	}
)

func newGoalView(gs gpa.GoalState) goalView {
	return goalView{GoalState: gs, Reachability: gs.Reachability()}
}

type sessionApi struct {
	svc session.ServiceInterface
}

func registerSessionAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc session.ServiceInterface) {
	api := sessionApi{svc: svc}

	sg := g.Group("/session", jwt)
	sg.POST("", api.open)
	sg.DELETE("", api.close)
}

// Handlers

func (api *sessionApi) open(ctx echo.Context) error {
	userID, err := getContextUserID(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user ID")
	}
	sess, err := api.svc.Open(ctx.Request().Context(), userID)
	if err != nil {
		return errors.Wrap(err, "opening session")
	}
	return ctx.JSON(http.StatusOK, sessionView{
		OpenedAt: sess.OpenedAt(),
		Goal:     newGoalView(sess.Goal()),
		History:  sess.History(),
	})
}

func (api *sessionApi) close(ctx echo.Context) error {
	userID, err := getContextUserID(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user ID")
	}
	api.svc.Close(userID)
	return ctx.NoContent(http.StatusNoContent)
}
