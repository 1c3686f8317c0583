// Package market adapts external market-data providers to a single
// daily-bar interface.
package market

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/viktsys/nifty50/timestamp"
)

// ErrNoData is returned by providers that answer successfully with an empty series.
var ErrNoData = errors.New("no data returned")

// Bar is one OHLCV bar for a ticker.
type Bar struct {
	Date   timestamp.Timestamp
	Tic    string
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume int64
}

// Provider fetches historical bars for one symbol in [start, end).
type Provider interface {
	Name() string
	FetchBars(ctx context.Context, symbol string, start, end time.Time, interval string) ([]Bar, error)
}

// FetchError records why a single ticker produced no bars.
type FetchError struct {
	Ticker string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Ticker, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Config selects and configures a provider.
type Config struct {
	Name        string
	BaseURL     string
	Proxy       string
	TiingoToken string
}

// New builds the provider named in cfg.
func New(cfg Config) (Provider, error) {
	switch strings.ToLower(cfg.Name) {
	case "", "yahoo":
		p := NewYahooProvider(cfg.Proxy)
		if cfg.BaseURL != "" {
			p.BaseURL = cfg.BaseURL
		}
		return p, nil
	case "tiingo":
		if cfg.TiingoToken == "" {
			return nil, errors.New("tiingo provider requires a token")
		}
		return NewTiingoProvider(cfg.TiingoToken), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Name)
	}
}

// StripSuffix drops an exchange suffix such as ".NS" from a provider symbol.
func StripSuffix(symbol string) string {
	if i := strings.LastIndex(symbol, "."); i > 0 {
		return symbol[:i]
	}
	return symbol
}
