package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"OptionSentinel/internal/model"
)

const sampleChain = `{
  "s": "ok",
  "code": 200,
  "data": {
    "expiryData": [{"date": "05-MAR-2026", "expiry": 1741132800}],
    "optionsChain": [
      {"strikePrice": 24400,
       "call": {"ltp": 95.5, "oi": 4100000, "chg_oi": 300, "volume": 120000, "iv": 12.1},
       "put": {"ltp": 110.2, "oi": 3900000, "chg_oi": -40, "volume": 90000, "iv": 12.9}},
      {"strikePrice": 24350,
       "call_options": {"ltp": "130.0", "oi": 2000000, "change_oi": 10, "volume": 5000, "iv": 12.4},
       "put_options": {"ltp": 70.1, "oi": 5000000, "change_oi": 500, "volume": 150000, "iv": 13.0}},
      {"strikePrice": 0, "call": {"oi": 1}}
    ],
    "spot": {"ltp": 24380.5, "timestamp": "2026-02-27 14:30:00"}
  }
}`

func newTestFyers(t *testing.T, handler http.HandlerFunc) *FyersFetcher {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewFyersFetcher(FyersOptions{
		BaseURL:     srv.URL + "/",
		AppID:       "APP-100",
		AccessToken: "tok",
		StrikeCount: 10,
		Timeout:     2 * time.Second,
	})
}

var niftyConfig = model.DefaultRegistry()[model.Nifty]

func TestFyersFetcher_FetchSnapshot(t *testing.T) {
	var gotAuth, gotSymbol, gotCount, gotPath string
	f := newTestFyers(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotSymbol = r.URL.Query().Get("symbol")
		gotCount = r.URL.Query().Get("strikecount")
		gotPath = r.URL.Path
		w.Write([]byte(sampleChain))
	})

	snap, err := f.FetchSnapshot(context.Background(), model.Nifty, niftyConfig)
	require.NoError(t, err)

	assert.Equal(t, "APP-100:tok", gotAuth)
	assert.Equal(t, "NSE:NIFTY50-INDEX", gotSymbol)
	assert.Equal(t, "10", gotCount)
	assert.Equal(t, "/optionChain", gotPath)

	assert.Equal(t, model.Nifty, snap.Instrument)
	assert.Equal(t, "2026-02-27 14:30:00", snap.Timestamp)
	assert.Equal(t, 24380.5, snap.SpotPrice)
	assert.Equal(t, "05-MAR-2026", snap.ExpiryDate)
	require.Len(t, snap.OptionChain, 2)

	low := snap.OptionChain[0]
	assert.Equal(t, 24350.0, low.StrikePrice)
	assert.Equal(t, 130.0, low.CallLTP)
	assert.Equal(t, 10.0, low.CallOIChange)
	assert.Equal(t, 500.0, low.PutOIChange)

	high := snap.OptionChain[1]
	assert.Equal(t, 300.0, high.CallOIChange)
	assert.Equal(t, -40.0, high.PutOIChange)
	assert.Equal(t, 12.9, high.PutIV)
}

func TestFyersFetcher_HTTPError(t *testing.T) {
	f := newTestFyers(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "token expired", http.StatusUnauthorized)
	})

	_, err := f.FetchSnapshot(context.Background(), model.Nifty, niftyConfig)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestFyersFetcher_BrokerStatus(t *testing.T) {
	f := newTestFyers(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"s":"error","code":-16,"message":"invalid token"}`))
	})

	_, err := f.FetchSnapshot(context.Background(), model.Nifty, niftyConfig)

	assert.ErrorIs(t, err, ErrBrokerStatus)
	assert.Contains(t, err.Error(), "invalid token")
}

func TestFyersFetcher_ContextCancelled(t *testing.T) {
	f := newTestFyers(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleChain))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.FetchSnapshot(ctx, model.Nifty, niftyConfig)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseOptionChain_Invalid(t *testing.T) {
	now := func() time.Time { return time.Date(2026, 2, 27, 9, 0, 0, 0, time.UTC) }
	tests := []struct {
		name string
		body string
	}{
		{"no data", `{"s":"ok"}`},
		{"zero spot", `{"s":"ok","data":{"spot":{"ltp":0},"optionsChain":[{"strikePrice":100}]}}`},
		{"empty chain", `{"s":"ok","data":{"spot":{"ltp":100},"optionsChain":[]}}`},
		{"only invalid strikes", `{"s":"ok","data":{"spot":{"ltp":100},"optionsChain":[{"strikePrice":-5}]}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var raw fyersResponse
			require.NoError(t, decodeString(tt.body, &raw))
			_, err := parseOptionChain(&raw, model.Nifty, now)
			assert.ErrorIs(t, err, ErrInvalidSnapshot)
		})
	}
}

func TestParseOptionChain_TimestampFallbacks(t *testing.T) {
	now := func() time.Time { return time.Date(2026, 2, 27, 9, 0, 0, 0, time.UTC) }

	var raw fyersResponse
	require.NoError(t, decodeString(`{"code":200,"data":{"spot":{"ltp":100},"optionsChain":[{"strikePrice":100}]}}`, &raw))
	snap, err := parseOptionChain(&raw, model.Nifty, now)
	require.NoError(t, err)
	assert.Equal(t, "2026-02-27T09:00:00Z", snap.Timestamp)

	raw = fyersResponse{}
	require.NoError(t, decodeString(`{"s":"ok","data":{"spot":{"ltp":100,"timestamp":1772202600},"optionsChain":[{"strikePrice":100}]}}`, &raw))
	snap, err = parseOptionChain(&raw, model.Nifty, now)
	require.NoError(t, err)
	assert.Equal(t, "1772202600", snap.Timestamp)
}

func TestNumber_UnmarshalJSON(t *testing.T) {
	var v struct {
		A number `json:"a"`
		B number `json:"b"`
		C number `json:"c"`
		D number `json:"d"`
	}
	require.NoError(t, decodeString(`{"a": 1.5, "b": "2.25", "c": null, "d": ""}`, &v))
	assert.Equal(t, number(1.5), v.A)
	assert.Equal(t, number(2.25), v.B)
	assert.Zero(t, v.C)
	assert.Zero(t, v.D)

	assert.Error(t, decodeString(`{"a": "abc"}`, &v))
}
