package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"OptionSentinel/internal/model"
)

// FyersOptions configures a FyersFetcher.
type FyersOptions struct {
	BaseURL     string
	AppID       string
	AccessToken string
	StrikeCount int
	// RateLimit is requests per second across all instruments; 0 disables it.
	RateLimit float64
	Timeout   time.Duration
	Proxy     string
}

// FyersFetcher implements Fetcher using the Fyers v3 option chain endpoint.
type FyersFetcher struct {
	BaseURL     string
	AppID       string
	AccessToken string
	StrikeCount int
	Client      *http.Client

	limiter *rate.Limiter
}

// NewFyersFetcher creates a new fetcher with optional proxy support.
func NewFyersFetcher(opts FyersOptions) *FyersFetcher {
	transport := &http.Transport{}
	if opts.Proxy != "" {
		if u, err := url.Parse(opts.Proxy); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 8 * time.Second
	}
	strikeCount := opts.StrikeCount
	if strikeCount == 0 {
		strikeCount = 20
	}

	f := &FyersFetcher{
		BaseURL:     strings.TrimRight(opts.BaseURL, "/"),
		AppID:       opts.AppID,
		AccessToken: opts.AccessToken,
		StrikeCount: strikeCount,
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
	if opts.RateLimit > 0 {
		f.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}
	return f
}

func (f *FyersFetcher) Name() string { return "fyers" }

func (f *FyersFetcher) FetchSnapshot(ctx context.Context, inst model.Instrument, cfg model.InstrumentConfig) (*model.MarketSnapshot, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("fetch option chain %s: rate limit: %w", inst, err)
		}
	}

	q := url.Values{}
	q.Set("symbol", cfg.BrokerSymbol)
	q.Set("strikecount", strconv.Itoa(f.StrikeCount))
	endpoint := f.BaseURL + "/optionChain?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", f.AppID+":"+f.AccessToken)

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch option chain %s: %w", inst, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch option chain %s: status %d, body: %s", inst, resp.StatusCode, string(body))
	}

	var raw fyersResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode option chain %s: %w", inst, err)
	}
	return parseOptionChain(&raw, inst, time.Now)
}

// fyersResponse is the expected JSON shape of the option chain endpoint.
type fyersResponse struct {
	S       string `json:"s"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    *struct {
		Spot *struct {
			LTP       number          `json:"ltp"`
			Timestamp json.RawMessage `json:"timestamp"`
		} `json:"spot"`
		ExpiryData []struct {
			Date string `json:"date"`
		} `json:"expiryData"`
		OptionsChain []fyersStrike `json:"optionsChain"`
	} `json:"data"`
}

type fyersStrike struct {
	StrikePrice number      `json:"strikePrice"`
	Call        *fyersQuote `json:"call"`
	Put         *fyersQuote `json:"put"`
	CallOptions *fyersQuote `json:"call_options"`
	PutOptions  *fyersQuote `json:"put_options"`
}

type fyersQuote struct {
	LTP      number  `json:"ltp"`
	OI       number  `json:"oi"`
	ChgOI    *number `json:"chg_oi"`
	ChangeOI *number `json:"change_oi"`
	Volume   number  `json:"volume"`
	IV       number  `json:"iv"`
}

func (q *fyersQuote) oiChange() float64 {
	switch {
	case q == nil:
		return 0
	case q.ChgOI != nil:
		return float64(*q.ChgOI)
	case q.ChangeOI != nil:
		return float64(*q.ChangeOI)
	}
	return 0
}

func pickQuote(primary, alt *fyersQuote) *fyersQuote {
	if primary != nil {
		return primary
	}
	if alt != nil {
		return alt
	}
	return &fyersQuote{}
}

// number decodes a JSON number, numeric string or null.
type number float64

func (n *number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*n = 0
		return nil
	}
	s := strings.Trim(string(b), `"`)
	if s == "" {
		*n = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("parse number %s: %w", string(b), err)
	}
	*n = number(v)
	return nil
}

func parseOptionChain(raw *fyersResponse, inst model.Instrument, now func() time.Time) (*model.MarketSnapshot, error) {
	if raw.S != "ok" && raw.Code != 200 {
		msg := raw.Message
		if msg == "" {
			msg = fmt.Sprintf("s=%q code=%d", raw.S, raw.Code)
		}
		return nil, fmt.Errorf("%w: %s: %s", ErrBrokerStatus, inst, msg)
	}
	if raw.Data == nil {
		return nil, fmt.Errorf("%w: %s: no data field", ErrInvalidSnapshot, inst)
	}

	snap := &model.MarketSnapshot{Instrument: inst}
	if raw.Data.Spot != nil {
		snap.SpotPrice = float64(raw.Data.Spot.LTP)
		snap.Timestamp = rawTimestamp(raw.Data.Spot.Timestamp)
	}
	if snap.Timestamp == "" {
		snap.Timestamp = now().UTC().Format(time.RFC3339Nano)
	}
	if len(raw.Data.ExpiryData) > 0 {
		snap.ExpiryDate = raw.Data.ExpiryData[0].Date
	}

	for _, entry := range raw.Data.OptionsChain {
		strike := float64(entry.StrikePrice)
		if strike <= 0 {
			continue
		}
		call := pickQuote(entry.Call, entry.CallOptions)
		put := pickQuote(entry.Put, entry.PutOptions)

		snap.OptionChain = append(snap.OptionChain, model.OptionStrike{
			StrikePrice:  strike,
			CallOI:       float64(call.OI),
			PutOI:        float64(put.OI),
			CallOIChange: call.oiChange(),
			PutOIChange:  put.oiChange(),
			CallVolume:   float64(call.Volume),
			PutVolume:    float64(put.Volume),
			CallLTP:      float64(call.LTP),
			PutLTP:       float64(put.LTP),
			CallIV:       float64(call.IV),
			PutIV:        float64(put.IV),
		})
	}
	sort.Slice(snap.OptionChain, func(i, j int) bool {
		return snap.OptionChain[i].StrikePrice < snap.OptionChain[j].StrikePrice
	})

	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidSnapshot, inst, err)
	}
	return snap, nil
}

// rawTimestamp keeps string timestamps as sent and renders numeric ones in
// decimal so they parse as unix time.
func rawTimestamp(b json.RawMessage) string {
	if len(b) == 0 || string(b) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		return n.String()
	}
	return ""
}
