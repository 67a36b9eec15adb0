package metrics

import (
	"errors"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	pkgerrors "github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grecko-app/grecko/core"
)

func TestMetrics_observe(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveCalculation(CalcAverage)
	m.ObserveCalculation(CalcAverage)
	m.ObserveCalculation(CalcApply)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Calculations.WithLabelValues(CalcAverage)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Calculations.WithLabelValues(CalcApply)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Calculations.WithLabelValues(CalcRequired)))

	m.ObservePersistJob("upsert_goal", OutcomeOK, 10*time.Millisecond)
	m.ObservePersistJob("upsert_goal", OutcomeFailed, 10*time.Millisecond)
	m.ObservePersistJob("upsert_goal", OutcomeDropped, 0)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PersistJobs.WithLabelValues("upsert_goal", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PersistJobs.WithLabelValues("upsert_goal", OutcomeFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PersistJobs.WithLabelValues("upsert_goal", OutcomeDropped)))
	// dropped jobs never ran
	assert.Equal(t, 1, testutil.CollectAndCount(m.PersistDuration))
}

func TestMetrics_RegisterGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	val := 3.0
	m.RegisterGauge("open_sessions", "Number of open user sessions", func() float64 { return val })

	expected := `
# HELP grecko_open_sessions Number of open user sessions
# TYPE grecko_open_sessions gauge
grecko_open_sessions 3
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "grecko_open_sessions"))

	val = 1
	expected = strings.Replace(expected, "grecko_open_sessions 3", "grecko_open_sessions 1", 1)
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "grecko_open_sessions"))
}

func TestMetrics_Middleware(t *testing.T) {
	m := New(prometheus.NewRegistry())

	app := echo.New()
	// maps errors the way the API error handler does
	app.HTTPErrorHandler = func(err error, c echo.Context) {
		switch origErr := pkgerrors.Cause(err).(type) {
		case *echo.HTTPError:
			_ = c.NoContent(origErr.Code)
		case *core.ValidationError:
			_ = c.NoContent(http.StatusBadRequest)
		default:
			_ = c.NoContent(http.StatusInternalServerError)
		}
	}
	app.Use(m.Middleware())
	app.GET("/v1/goal", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	app.GET("/v1/history", func(c echo.Context) error { return echo.NewHTTPError(http.StatusUnauthorized) })
	app.GET("/v1/session", func(c echo.Context) error {
		return pkgerrors.Wrap(echo.NewHTTPError(http.StatusUnauthorized), "getting context user ID")
	})
	app.PUT("/v1/goal", func(c echo.Context) error {
		return core.NewValidationError(nil, core.FieldError{Field: "current_gpa", Error: "must be a finite number"})
	})
	app.GET("/v1/notices", func(c echo.Context) error { return errors.New("boom") })

	reqs := []struct {
		method, path string
		wantCode     int
	}{
		{http.MethodGet, "/v1/goal", http.StatusOK},
		{http.MethodGet, "/v1/goal", http.StatusOK},
		{http.MethodGet, "/v1/history", http.StatusUnauthorized},
		{http.MethodGet, "/v1/session", http.StatusUnauthorized},
		{http.MethodPut, "/v1/goal", http.StatusBadRequest},
		{http.MethodGet, "/v1/notices", http.StatusInternalServerError},
	}
	for _, r := range reqs {
		rec := httptest.NewRecorder()
		app.ServeHTTP(rec, httptest.NewRequest(r.method, r.path, nil))
		require.Equal(t, r.wantCode, rec.Code, "%s %s", r.method, r.path)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestCounter.WithLabelValues(http.MethodGet, "/v1/goal", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestCounter.WithLabelValues(http.MethodGet, "/v1/history", "401")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestCounter.WithLabelValues(http.MethodGet, "/v1/session", "401")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestCounter.WithLabelValues(http.MethodPut, "/v1/goal", "400")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.RequestCounter.WithLabelValues(http.MethodPut, "/v1/goal", "500")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestCounter.WithLabelValues(http.MethodGet, "/v1/notices", "500")))
	assert.Equal(t, 5, testutil.CollectAndCount(m.RequestDuration))
}

func TestMetrics_Middleware_handlesErrorOnce(t *testing.T) {
	m := New(prometheus.NewRegistry())

	var handled int
	app := echo.New()
	app.HTTPErrorHandler = func(err error, c echo.Context) {
		handled++
		_ = c.NoContent(http.StatusTeapot)
	}
	app.Use(m.Middleware())
	app.GET("/v1/goal", func(c echo.Context) error { return errors.New("boom") })

	app.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/goal", nil))
	assert.Equal(t, 1, handled)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestCounter.WithLabelValues(http.MethodGet, "/v1/goal", "418")))
}

func TestMetrics_Handler(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveCalculation(CalcRequired)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := ioutil.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `grecko_calculations_total{kind="required"} 1`)
}
