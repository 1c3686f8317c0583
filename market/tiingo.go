package market

import (
	"context"
	"fmt"
	"time"

	quote "github.com/markcheno/go-quote"

	"github.com/viktsys/nifty50/timestamp"
)

type tiingoFunc func(symbol, startDate, endDate string, period quote.Period, token string) (quote.Quote, error)

// TiingoProvider implements Provider on top of go-quote's Tiingo client.
// Tiingo reports dates without an offset, so its bars are naive.
type TiingoProvider struct {
	Token string
	fetch tiingoFunc
}

func NewTiingoProvider(token string) *TiingoProvider {
	return &TiingoProvider{Token: token, fetch: quote.NewQuoteFromTiingo}
}

func (p *TiingoProvider) Name() string { return "tiingo" }

func tiingoPeriod(interval string) (quote.Period, error) {
	switch interval {
	case "", "1d":
		return quote.Daily, nil
	case "1wk":
		return quote.Weekly, nil
	case "1mo":
		return quote.Monthly, nil
	}
	return "", fmt.Errorf("tiingo: unsupported interval %q", interval)
}

func (p *TiingoProvider) FetchBars(ctx context.Context, symbol string, start, end time.Time, interval string) ([]Bar, error) {
	period, err := tiingoPeriod(interval)
	if err != nil {
		return nil, err
	}

	type outcome struct {
		q   quote.Quote
		err error
	}
	// go-quote has no context support; the call is abandoned, not cancelled, on timeout.
	done := make(chan outcome, 1)
	go func() {
		q, err := p.fetch(symbol, start.Format(timestamp.DateLayout), end.Format(timestamp.DateLayout), period, p.Token)
		done <- outcome{q: q, err: err}
	}()

	var q quote.Quote
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("tiingo fetch: %w", ctx.Err())
	case res := <-done:
		if res.err != nil {
			return nil, fmt.Errorf("tiingo fetch: %w", res.err)
		}
		q = res.q
	}

	tic := StripSuffix(symbol)
	bars := make([]Bar, 0, len(q.Date))
	for i, d := range q.Date {
		bars = append(bars, Bar{
			Date:   timestamp.Timestamp{Time: d},
			Tic:    tic,
			Open:   price(q.Open[i]),
			High:   price(q.High[i]),
			Low:    price(q.Low[i]),
			Close:  price(q.Close[i]),
			Volume: int64(q.Volume[i]),
		})
	}
	if len(bars) == 0 {
		return nil, ErrNoData
	}
	return bars, nil
}
