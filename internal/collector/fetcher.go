package collector

import (
	"context"
	"errors"

	"OptionSentinel/internal/model"
)

var (
	// ErrInvalidSnapshot is returned when a broker payload fails validation.
	ErrInvalidSnapshot = errors.New("invalid snapshot")
	// ErrBrokerStatus is returned when the broker reports a non-ok status.
	ErrBrokerStatus = errors.New("broker returned non-ok status")
)

// Fetcher defines the interface for fetching option chain snapshots.
type Fetcher interface {
	FetchSnapshot(ctx context.Context, inst model.Instrument, cfg model.InstrumentConfig) (*model.MarketSnapshot, error)
	Name() string
}
