package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/grecko-app/grecko/core/gpa"
	"github.com/grecko-app/grecko/services/metrics"
)

type calcApi struct {
	validate *validator.Validate
	metrics  *metrics.Metrics
}

// registerCalcAPI exposes the pure calculators; they need a token but no session.
func registerCalcAPI(g *echo.Group, jwt echo.MiddlewareFunc, validate *validator.Validate, m *metrics.Metrics) {
	api := calcApi{validate: validate, metrics: m}

	cg := g.Group("/calc", jwt)
	cg.POST("/gpa", api.average)
	cg.POST("/required", api.required)
}

// Handlers

func (api *calcApi) average(ctx echo.Context) error {
	var data gpa.CourseList
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CourseList")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	api.metrics.ObserveCalculation(metrics.CalcAverage)
	return ctx.JSON(http.StatusOK, echo.Map{
		"gpa":     gpa.AverageGPA(data.Courses),
		"courses": len(data.Courses),
	})
}

func (api *calcApi) required(ctx echo.Context) error {
	var data gpa.RequiredInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RequiredInput")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	api.metrics.ObserveCalculation(metrics.CalcRequired)
	return ctx.JSON(http.StatusOK, data.Calculate())
}
