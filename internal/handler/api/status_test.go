package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/service/ratelimit"
)

type fakeRegime struct {
	history  []models.DetectionRecord
	report   *models.MarketAnalysisReport
	outcomes map[string]bool
}

func (f *fakeRegime) History() []models.DetectionRecord          { return f.history }
func (f *fakeRegime) SuccessRate() (float64, int)                { return 0.5, 2 }
func (f *fakeRegime) LatestReport() *models.MarketAnalysisReport { return f.report }
func (f *fakeRegime) RecordOutcome(_ context.Context, id string, success bool) bool {
	for _, r := range f.history {
		if r.ID == id {
			f.outcomes[id] = success
			return true
		}
	}
	return false
}

type checkFunc func(context.Context) error

func (f checkFunc) Health(ctx context.Context) error { return f(ctx) }

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func serve(t *testing.T, h *StatusHandler, method, target string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	e := echo.New()
	h.RegisterRoutes(e)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func newHandler(r *fakeRegime) *StatusHandler {
	return NewStatusHandler(nil, r, "ma_crossover", []string{"bollinger_bands", "ma_crossover"})
}

func TestHealthz(t *testing.T) {
	rec, env := serve(t, newHandler(&fakeRegime{}), http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, string(env.Data))
}

func TestReadyzReportsFailingDependency(t *testing.T) {
	h := newHandler(&fakeRegime{})
	h.AddCheck("clickhouse", checkFunc(func(context.Context) error { return errors.New("dial tcp: refused") }))
	h.AddCheck("redis", checkFunc(func(context.Context) error { return nil }))

	rec, env := serve(t, h, http.MethodGet, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, http.StatusServiceUnavailable, env.Status)
	assert.JSONEq(t, `{"clickhouse":"dial tcp: refused","redis":"ok"}`, string(env.Data))
}

func TestStrategies(t *testing.T) {
	_, env := serve(t, newHandler(&fakeRegime{}), http.MethodGet, "/v1/strategies")
	assert.JSONEq(t, `{"active":"ma_crossover","available":["bollinger_bands","ma_crossover"]}`, string(env.Data))
}

func TestReport(t *testing.T) {
	rec, _ := serve(t, newHandler(&fakeRegime{}), http.MethodGet, "/v1/regime/report")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	r := &fakeRegime{report: &models.MarketAnalysisReport{Sentiment: models.SentimentBullish, SentimentScore: 72.5}}
	rec, env := serve(t, newHandler(r), http.MethodGet, "/v1/regime/report")
	assert.Equal(t, http.StatusOK, rec.Code)
	var got models.MarketAnalysisReport
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, models.SentimentBullish, got.Sentiment)
	assert.Equal(t, 72.5, got.SentimentScore)
}

func TestHistory(t *testing.T) {
	r := &fakeRegime{history: []models.DetectionRecord{{ID: "a", Instrument: "BTC", Outcome: models.OutcomePending}}}
	_, env := serve(t, newHandler(r), http.MethodGet, "/v1/regime/history")

	var got historyResponse
	require.NoError(t, json.Unmarshal(env.Data, &got))
	require.Len(t, got.Records, 1)
	assert.Equal(t, "a", got.Records[0].ID)
	assert.Equal(t, 0.5, got.SuccessRate)
	assert.Equal(t, 2, got.Resolved)
}

func TestOutcome(t *testing.T) {
	r := &fakeRegime{
		history:  []models.DetectionRecord{{ID: "a"}},
		outcomes: map[string]bool{},
	}
	h := newHandler(r)

	rec, _ := serve(t, h, http.MethodPost, "/v1/regime/history/a/outcome?result=success")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, r.outcomes["a"])

	rec, _ = serve(t, h, http.MethodPost, "/v1/regime/history/a/outcome?result=maybe")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = serve(t, h, http.MethodPost, "/v1/regime/history/zzz/outcome?result=failure")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOutcomeIsRateLimited(t *testing.T) {
	r := &fakeRegime{history: []models.DetectionRecord{{ID: "a"}}, outcomes: map[string]bool{}}
	h := newHandler(r)
	h.SetLimiter(ratelimit.New(1, 0))

	rec, _ := serve(t, h, http.MethodPost, "/v1/regime/history/a/outcome?result=failure")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = serve(t, h, http.MethodPost, "/v1/regime/history/a/outcome?result=success")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.False(t, r.outcomes["a"])
}
