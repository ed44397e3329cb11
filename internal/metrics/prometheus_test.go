package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"OptionSentinel/internal/model"
)

func TestRecordAnalysis(t *testing.T) {
	RecordAnalysis(&model.AnalysisResponse{
		Instrument:     model.Sensex,
		Spot:           80010,
		Support:        79900.5,
		MarketPressure: -0.4,
		Regime:         model.RegimeCompression,
		RefreshCount:   3,
	})

	assert.Equal(t, 80010.0, testutil.ToFloat64(Spot.WithLabelValues("SENSEX")))
	assert.Equal(t, 79900.5, testutil.ToFloat64(Support.WithLabelValues("SENSEX")))
	assert.Equal(t, -0.4, testutil.ToFloat64(Pressure.WithLabelValues("SENSEX")))
	assert.Equal(t, 3.0, testutil.ToFloat64(RefreshCount.WithLabelValues("SENSEX")))
	assert.Equal(t, 1.0, testutil.ToFloat64(Regime.WithLabelValues("SENSEX", "COMPRESSION")))
	assert.Equal(t, 0.0, testutil.ToFloat64(Regime.WithLabelValues("SENSEX", "NORMAL")))

	ResetInstrument(model.Sensex)
	assert.Equal(t, 0.0, testutil.ToFloat64(Spot.WithLabelValues("SENSEX")))
}

func TestRecordCycleAndFetch(t *testing.T) {
	before := testutil.ToFloat64(Cycles.WithLabelValues("NIFTY", StatusStale))
	RecordCycle(model.Nifty, StatusStale, 20*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(Cycles.WithLabelValues("NIFTY", StatusStale)))

	errsBefore := testutil.ToFloat64(FetchErrors.WithLabelValues("mock", "NIFTY"))
	RecordFetch("mock", model.Nifty, time.Millisecond, nil)
	RecordFetch("mock", model.Nifty, time.Millisecond, errors.New("down"))
	assert.Equal(t, errsBefore+1, testutil.ToFloat64(FetchErrors.WithLabelValues("mock", "NIFTY")))
}

func TestHandlerServesRegisteredMetrics(t *testing.T) {
	Init()
	Init()
	RecordCycle(model.BankNifty, StatusOK, time.Millisecond)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "optionsentinel_cycles_total"))
}
