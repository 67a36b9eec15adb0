package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/grecko-app/grecko/core/gpa"
	"github.com/grecko-app/grecko/core/session"
	"github.com/grecko-app/grecko/services/metrics"
)

type goalApi struct {
	svc      session.ServiceInterface
	validate *validator.Validate
	metrics  *metrics.Metrics
}

func registerGoalAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc session.ServiceInterface,
	validate *validator.Validate,
	m *metrics.Metrics,
) {
	api := goalApi{
		svc:      svc,
		validate: validate,
		metrics:  m,
	}

	// session-bound endpoints
	sg := g.Group("", jwt, sessionMiddleware(svc))
	sg.GET("/goal", api.retrieve)
	sg.PUT("/goal", api.update)
	sg.POST("/goal/apply", api.apply)
	sg.GET("/history", api.history)
	sg.POST("/history", api.recordSnapshot)
	sg.GET("/notices", api.notices)
}

// Handlers

func (api *goalApi) retrieve(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, newGoalView(sess.Goal()))
}

func (api *goalApi) update(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}

	var data gpa.GoalUpdate
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GoalUpdate")
	}
	if err = api.validate.Struct(data); err != nil {
		return err
	}

	gs := api.svc.UpdateGoal(sess, data)
	api.metrics.ObserveCalculation(metrics.CalcRequired)
	return ctx.JSON(http.StatusOK, newGoalView(gs))
}

func (api *goalApi) apply(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}

	var data gpa.CourseList
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CourseList")
	}
	if err = api.validate.Struct(data); err != nil {
		return err
	}

	gs, entry := api.svc.ApplyCalculation(sess, data.Courses, data.Label)
	api.metrics.ObserveCalculation(metrics.CalcApply)
	return ctx.JSON(http.StatusOK, echo.Map{
		"gpa":   gpa.FormatGPA(gs.CurrentGPA),
		"goal":  newGoalView(gs),
		"entry": entry,
	})
}

func (api *goalApi) history(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}

	var query HistoryQuery
	if err = query.Bind(ctx); err != nil {
		return err
	}

	if query.Source == sourceStore {
		entries, err := api.svc.StoredHistory(ctx.Request().Context(), sess.UserID())
		if err != nil {
			return errors.Wrap(err, "reading stored history")
		}
		return ctx.JSON(http.StatusOK, entries)
	}
	return ctx.JSON(http.StatusOK, sess.History())
}

func (api *goalApi) recordSnapshot(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}

	var data gpa.NewSnapshot
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSnapshot")
	}
	data.Clean()
	if err = api.validate.Struct(data); err != nil {
		return err
	}

	entry := api.svc.RecordSnapshot(sess, *data.Value, data.Label)
	return ctx.JSON(http.StatusCreated, entry)
}

func (api *goalApi) notices(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sess.DrainNotices())
}
