package echoapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	. "github.com/grecko-app/grecko/apps/api/echo"
	"github.com/grecko-app/grecko/core"
	"github.com/grecko-app/grecko/core/gpa"
	"github.com/grecko-app/grecko/core/session"
	"github.com/grecko-app/grecko/services/logger"
	"github.com/grecko-app/grecko/services/metrics"
	"github.com/grecko-app/grecko/storage/database/dummy"
)

const (
	secret   = "secret"
	audience = "authenticated"
)

var (
	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errInvalidToken = httpErr{Error: "invalid or expired jwt"}
	errUnauthorized = httpErr{Error: "user not authenticated"}
	errNoSession    = httpErr{Error: "session not started"}
)

type httpErr struct {
	Error string `json:"error"`
}

// syncDispatcher runs persistence jobs right away so tests can inspect the store.
type syncDispatcher struct{}

func (syncDispatcher) Dispatch(_, _ string, job func(ctx context.Context) error) error {
	_ = job(context.Background())
	return nil
}

type testApp struct {
	server  *Server
	db      *dummydb.DB
	logger  *logsvc.MockLogger
	metrics *metrics.Metrics
}

func setup(t *testing.T) testApp {
	t.Helper()
	conf := &core.Config{
		Env:      "TEST",
		TestMode: true,
		AppName:  "Grecko",
		Server:   core.ServerConfig{DisableReqLogs: true},
		Auth:     core.AuthConfig{JWTSecret: secret, JWTAudience: audience},
	}

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	logger := logsvc.NewMockLogger()
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	gpa.InitValidators(validate, translator)

	svc := session.NewService(dummydb.NewGoalRepository(db), dummydb.NewHistoryRepository(db), syncDispatcher{}, logger)
	m := metrics.New(prometheus.NewRegistry())

	return testApp{
		server:  NewServer(conf, logger, validate, translator, svc, m),
		db:      db,
		logger:  logger,
		metrics: m,
	}
}

func getToken(t *testing.T, userID string, aud ...string) string {
	t.Helper()
	claims := &Claims{
		StandardClaims: jwt.StandardClaims{
			Subject:   userID,
			Audience:  audience,
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
			IssuedAt:  time.Now().Unix(),
		},
		Email: userID + "@test.test",
	}
	if len(aud) > 0 {
		claims.Audience = aud[0]
	}
	token, err := GenerateToken(claims, secret)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func (app testApp) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		_ = json.NewEncoder(&buf).Encode(b)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.server.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("json.Unmarshal(%s) failed: %v", rec.Body.String(), err)
	}
}

type goalResp struct {
	CurrentGPA       float64 `json:"current_gpa"`
	TargetGPA        float64 `json:"target_gpa"`
	CoursesTaken     int     `json:"courses_taken"`
	TotalCourses     int     `json:"total_courses"`
	CoursesRemaining int     `json:"courses_remaining"`
	RequiredGPA      string  `json:"required_gpa"`
	Reachability     string  `json:"reachability"`
}

func TestHome(t *testing.T) {
	app := setup(t)
	rec := app.do(http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to Grecko API!", rec.Body.String())
}

func TestAuth(t *testing.T) {
	app := setup(t)
	expired := func() string {
		claims := &Claims{StandardClaims: jwt.StandardClaims{Subject: "u1", Audience: audience, ExpiresAt: time.Now().Add(-time.Hour).Unix()}}
		token, _ := GenerateToken(claims, secret)
		return token
	}()
	forged := func() string {
		claims := &Claims{StandardClaims: jwt.StandardClaims{Subject: "u1", Audience: audience}}
		token, _ := GenerateToken(claims, "not-the-secret")
		return token
	}()

	tests := []struct {
		name     string
		token    string
		wantCode int
		wantErr  httpErr
	}{
		{name: "no token", wantCode: http.StatusUnauthorized, wantErr: errMissingToken},
		{name: "expired token", token: expired, wantCode: http.StatusUnauthorized, wantErr: errInvalidToken},
		{name: "forged token", token: forged, wantCode: http.StatusUnauthorized, wantErr: errInvalidToken},
		{name: "wrong audience", token: getToken(t, "u1", "someone-else"), wantCode: http.StatusUnauthorized, wantErr: errUnauthorized},
		{name: "no subject", token: getToken(t, ""), wantCode: http.StatusUnauthorized, wantErr: errUnauthorized},
		{name: "no session", token: getToken(t, "u1"), wantCode: http.StatusUnauthorized, wantErr: errNoSession},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(http.MethodGet, "/v1/goal", tt.token, nil)
			assert.Equal(t, tt.wantCode, rec.Code)
			var got httpErr
			decode(t, rec, &got)
			assert.Equal(t, tt.wantErr, got)
		})
	}
}

func TestSessionLifecycle(t *testing.T) {
	app := setup(t)
	token := getToken(t, "u1")

	rec := app.do(http.MethodPost, "/v1/session", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var opened struct {
		Goal    goalResp           `json:"goal"`
		History []gpa.HistoryEntry `json:"history"`
	}
	decode(t, rec, &opened)
	assert.Equal(t, goalResp{RequiredGPA: gpa.NoRequirement}, opened.Goal)
	assert.Empty(t, opened.History)

	rec = app.do(http.MethodGet, "/v1/goal", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(http.MethodDelete, "/v1/session", token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = app.do(http.MethodGet, "/v1/goal", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// sessions are per user
	rec = app.do(http.MethodPost, "/v1/session", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = app.do(http.MethodGet, "/v1/goal", getToken(t, "u2"), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUpdateGoal(t *testing.T) {
	app := setup(t)
	token := getToken(t, "u1")
	app.do(http.MethodPost, "/v1/session", token, nil)

	tests := []struct {
		name     string
		body     interface{}
		wantCode int
		wantData interface{}
	}{
		{
			name:     "empty",
			body:     map[string]interface{}{},
			wantCode: http.StatusBadRequest,
			wantData: map[string]string{
				"current_gpa":   "at least one goal field is required",
				"target_gpa":    "at least one goal field is required",
				"courses_taken": "at least one goal field is required",
				"total_courses": "at least one goal field is required",
			},
		},
		{
			name:     "negative count",
			body:     map[string]interface{}{"courses_taken": -1},
			wantCode: http.StatusBadRequest,
			wantData: map[string]string{"courses_taken": "courses_taken must be 0 or greater"},
		},
		{
			name:     "malformed",
			body:     `{"current_gpa": "lol"}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "all inputs",
			body:     map[string]interface{}{"current_gpa": 3.0, "target_gpa": 4.0, "courses_taken": 2, "total_courses": 4},
			wantCode: http.StatusOK,
			wantData: goalResp{CurrentGPA: 3, TargetGPA: 4, CoursesTaken: 2, TotalCourses: 4, CoursesRemaining: 2, RequiredGPA: "5.00", Reachability: "unreachable"},
		},
		{
			name:     "partial edit",
			body:     map[string]interface{}{"target_gpa": 3.5},
			wantCode: http.StatusOK,
			wantData: goalResp{CurrentGPA: 3, TargetGPA: 3.5, CoursesTaken: 2, TotalCourses: 4, CoursesRemaining: 2, RequiredGPA: "4.00", Reachability: "on-track"},
		},
		{
			name:     "taken over total",
			body:     map[string]interface{}{"courses_taken": 6},
			wantCode: http.StatusOK,
			wantData: goalResp{CurrentGPA: 3, TargetGPA: 3.5, CoursesTaken: 6, TotalCourses: 4, RequiredGPA: "---"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(http.MethodPut, "/v1/goal", token, tt.body)
			assert.Equal(t, tt.wantCode, rec.Code)
			switch want := tt.wantData.(type) {
			case goalResp:
				var got goalResp
				decode(t, rec, &got)
				assert.Equal(t, want, got)
			case map[string]string:
				var got map[string]string
				decode(t, rec, &got)
				assert.Equal(t, want, got)
			}
		})
	}

	// upserted, once per user
	assert.Equal(t, 1, app.db.GoalRows())

	// requests are counted with the status actually sent
	counter := app.metrics.RequestCounter
	assert.Equal(t, 3.0, testutil.ToFloat64(counter.WithLabelValues(http.MethodPut, "/v1/goal", "400")))
	assert.Equal(t, 3.0, testutil.ToFloat64(counter.WithLabelValues(http.MethodPut, "/v1/goal", "200")))
	assert.Equal(t, 0.0, testutil.ToFloat64(counter.WithLabelValues(http.MethodPut, "/v1/goal", "500")))
	assert.Empty(t, app.logger.Entries("ERROR"))
}

func TestApplyCalculation(t *testing.T) {
	app := setup(t)
	token := getToken(t, "u1")
	app.do(http.MethodPost, "/v1/session", token, nil)
	app.do(http.MethodPut, "/v1/goal", token, map[string]interface{}{"target_gpa": 3.5, "courses_taken": 5, "total_courses": 8})

	courses := []map[string]interface{}{{"name": "Math", "grade": 4.0}, {"name": "Art", "grade": 2.0}}
	rec := app.do(http.MethodPost, "/v1/goal/apply", token, map[string]interface{}{"courses": courses})
	assert.Equal(t, http.StatusOK, rec.Code)

	var applied struct {
		GPA   string           `json:"gpa"`
		Goal  goalResp         `json:"goal"`
		Entry gpa.HistoryEntry `json:"entry"`
	}
	decode(t, rec, &applied)
	assert.Equal(t, "3.00", applied.GPA)
	assert.Equal(t, 3.0, applied.Goal.CurrentGPA)
	assert.Equal(t, "4.33", applied.Goal.RequiredGPA)
	assert.Equal(t, "unreachable", applied.Goal.Reachability)
	assert.Equal(t, gpa.CalcLabel(time.Now().UTC()), applied.Entry.Label)

	rec = app.do(http.MethodGet, "/v1/history", token, nil)
	var history []gpa.HistoryEntry
	decode(t, rec, &history)
	if assert.Len(t, history, 1) {
		assert.Equal(t, 3.0, history[0].Value)
	}
}

func TestHistory(t *testing.T) {
	app := setup(t)
	token := getToken(t, "u1")
	app.do(http.MethodPost, "/v1/session", token, nil)

	rec := app.do(http.MethodPost, "/v1/history", token, map[string]interface{}{"label": "  ", "value": 3.2})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var fldErrs map[string]string
	decode(t, rec, &fldErrs)
	assert.Equal(t, map[string]string{"label": "this field cannot be blank"}, fldErrs)

	rec = app.do(http.MethodPost, "/v1/history", token, map[string]interface{}{"label": "Fall 2020"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	for i := 0; i < 2; i++ {
		rec = app.do(http.MethodPost, "/v1/history", token, map[string]interface{}{"label": "Fall 2020", "value": 3.2})
		assert.Equal(t, http.StatusCreated, rec.Code)
	}
	rec = app.do(http.MethodPost, "/v1/history", token, map[string]interface{}{"label": "Spring 2021", "value": 0})
	assert.Equal(t, http.StatusCreated, rec.Code)

	labels := func(entries []gpa.HistoryEntry) []string {
		res := make([]string, 0, len(entries))
		for _, e := range entries {
			res = append(res, e.Label)
		}
		return res
	}
	want := []string{"Fall 2020", "Fall 2020", "Spring 2021"}

	var sessHistory, storeHistory []gpa.HistoryEntry
	decode(t, app.do(http.MethodGet, "/v1/history", token, nil), &sessHistory)
	decode(t, app.do(http.MethodGet, "/v1/history?source=store", token, nil), &storeHistory)
	assert.Equal(t, want, labels(sessHistory))
	assert.Equal(t, want, labels(storeHistory))
	for _, e := range storeHistory {
		assert.NotEmpty(t, e.ID)
	}

	rec = app.do(http.MethodGet, "/v1/history?source=lol", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNotices(t *testing.T) {
	app := setup(t)
	token := getToken(t, "u1")
	app.do(http.MethodPost, "/v1/session", token, nil)

	app.db.FailWrites(errors.New("store down"))
	rec := app.do(http.MethodPut, "/v1/goal", token, map[string]interface{}{"current_gpa": 3.4})
	assert.Equal(t, http.StatusOK, rec.Code)

	// the edit stays visible
	var goal goalResp
	decode(t, app.do(http.MethodGet, "/v1/goal", token, nil), &goal)
	assert.Equal(t, 3.4, goal.CurrentGPA)

	var notices []session.Notice
	decode(t, app.do(http.MethodGet, "/v1/notices", token, nil), &notices)
	if assert.Len(t, notices, 1) {
		assert.Equal(t, session.NoticePersistenceFailed, notices[0].Kind)
	}
	decode(t, app.do(http.MethodGet, "/v1/notices", token, nil), &notices)
	assert.Empty(t, notices)

	assert.Len(t, app.logger.Entries("ERROR"), 1)
}

func TestCalc(t *testing.T) {
	app := setup(t)
	token := getToken(t, "u1")

	tests := []struct {
		name     string
		path     string
		body     interface{}
		wantCode int
		wantData map[string]interface{}
	}{
		{
			name:     "gpa: no courses",
			path:     "/v1/calc/gpa",
			body:     map[string]interface{}{"courses": []interface{}{}},
			wantCode: http.StatusOK,
			wantData: map[string]interface{}{"gpa": "0.00", "courses": float64(0)},
		},
		{
			name:     "gpa: two courses",
			path:     "/v1/calc/gpa",
			body:     map[string]interface{}{"courses": []map[string]interface{}{{"grade": 4.0}, {"grade": 2.0}}},
			wantCode: http.StatusOK,
			wantData: map[string]interface{}{"gpa": "3.00", "courses": float64(2)},
		},
		{
			name:     "required: unreachable",
			path:     "/v1/calc/required",
			body:     map[string]interface{}{"current_gpa": 3.0, "target_gpa": 4.0, "courses_taken": 2, "courses_remaining": 2},
			wantCode: http.StatusOK,
			wantData: map[string]interface{}{"required_gpa": "5.00", "reachability": "unreachable", "courses_remaining": float64(2)},
		},
		{
			name:     "required: easy",
			path:     "/v1/calc/required",
			body:     map[string]interface{}{"current_gpa": 3.8, "target_gpa": 3.5, "courses_taken": 5, "total_courses": 8},
			wantCode: http.StatusOK,
			wantData: map[string]interface{}{"required_gpa": "3.00", "reachability": "easy", "courses_remaining": float64(3)},
		},
		{
			name:     "required: no remaining",
			path:     "/v1/calc/required",
			body:     map[string]interface{}{"current_gpa": 3.8, "target_gpa": 3.5, "courses_taken": 5, "courses_remaining": 0},
			wantCode: http.StatusOK,
			wantData: map[string]interface{}{"required_gpa": "---", "reachability": "", "courses_remaining": float64(0)},
		},
		{
			name:     "required: no remaining nor total",
			path:     "/v1/calc/required",
			body:     map[string]interface{}{"current_gpa": 3.8, "target_gpa": 3.5},
			wantCode: http.StatusBadRequest,
			wantData: map[string]interface{}{
				"courses_remaining": "one of courses_remaining or total_courses is required",
				"total_courses":     "one of courses_remaining or total_courses is required",
			},
		},
		{
			name:     "required: missing gpa",
			path:     "/v1/calc/required",
			body:     map[string]interface{}{"target_gpa": 3.5, "courses_remaining": 2},
			wantCode: http.StatusBadRequest,
			wantData: map[string]interface{}{"current_gpa": "this field is required"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(http.MethodPost, tt.path, token, tt.body)
			assert.Equal(t, tt.wantCode, rec.Code)
			var got map[string]interface{}
			decode(t, rec, &got)
			assert.Equal(t, tt.wantData, got)
		})
	}

	// token still required
	rec := app.do(http.MethodPost, "/v1/calc/gpa", "", map[string]interface{}{"courses": []interface{}{}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
