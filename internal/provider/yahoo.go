package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/quantlab/signalcore/internal/core"
)

const baseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// validSymbol matches stock symbols like AAPL, MSFT, 600519.SS, 0700.HK
var validSymbol = regexp.MustCompile(`^[A-Za-z0-9]{1,10}(\.[A-Za-z]{1,4})?$`)

// Yahoo fetches daily bars from the Yahoo Finance chart API. Transient HTTP
// failures are retried with exponential backoff; every request is bounded by
// the client timeout and the caller's context.
type Yahoo struct {
	client     *http.Client
	maxRetries uint64
}

// NewYahoo creates a Yahoo provider with a bounded request timeout.
func NewYahoo(timeout time.Duration, maxRetries int) *Yahoo {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Yahoo{
		client:     &http.Client{Timeout: timeout},
		maxRetries: uint64(maxRetries),
	}
}

func validateSymbol(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("symbol cannot be empty")
	}
	if !validSymbol.MatchString(symbol) {
		return fmt.Errorf("invalid symbol format: %s", symbol)
	}
	return nil
}

// GetClose returns the closing price for symbol on date.
func (y *Yahoo) GetClose(ctx context.Context, symbol string, date time.Time) (float64, error) {
	day := date.Truncate(24 * time.Hour)
	bars, err := y.GetOHLCV(ctx, symbol, day, day.Add(24*time.Hour))
	if err != nil {
		return 0, err
	}
	for _, bar := range bars {
		if sameDay(bar.Date, day) {
			return bar.Close, nil
		}
	}
	return 0, core.WrapError(core.ErrDataUnavailable,
		fmt.Errorf("no close for %s on %s", symbol, day.Format("2006-01-02")))
}

// GetOHLCV returns daily bars in [start, end], ascending.
func (y *Yahoo) GetOHLCV(ctx context.Context, symbol string, start, end time.Time) ([]core.DailyBar, error) {
	if err := validateSymbol(symbol); err != nil {
		return nil, core.WrapError(core.ErrValidation, err)
	}

	url := fmt.Sprintf("%s/%s?interval=1d&period1=%d&period2=%d",
		baseURL, symbol, start.Unix(), end.Add(24*time.Hour).Unix())

	var result chartResponse
	fetch := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := y.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("retryable status: %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("unexpected status: %d", resp.StatusCode))
		}

		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return backoff.Permanent(fmt.Errorf("decoding response: %w", err))
		}
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), y.maxRetries), ctx)
	if err := backoff.Retry(fetch, policy); err != nil {
		if ctx.Err() != nil {
			return nil, core.WrapError(core.ErrProviderTimeout, err)
		}
		return nil, core.WrapError(core.ErrDataUnavailable, err)
	}

	if result.Chart.Error != nil {
		return nil, core.WrapError(core.ErrDataUnavailable,
			fmt.Errorf("yahoo error: %s", result.Chart.Error.Description))
	}
	if len(result.Chart.Result) == 0 {
		return nil, core.WrapError(core.ErrDataUnavailable,
			fmt.Errorf("no data for symbol: %s", symbol))
	}

	r := result.Chart.Result[0]
	if len(r.Indicators.Quote) == 0 {
		return nil, core.WrapError(core.ErrDataUnavailable,
			fmt.Errorf("no quote series for symbol: %s", symbol))
	}

	return decodeBars(r, symbol, start, end), nil
}

// decodeBars converts a chart result into daily bars. The API nulls fields
// independently for halted or partial sessions, so a bar is kept only when
// all five fields are present.
func decodeBars(r chartResult, symbol string, start, end time.Time) []core.DailyBar {
	quotes := r.Indicators.Quote[0]

	bars := make([]core.DailyBar, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		if !quotes.complete(i) {
			continue
		}
		day := time.Unix(int64(ts), 0).UTC()
		if day.Before(start) || day.After(end.Add(24*time.Hour)) {
			continue
		}
		bars = append(bars, core.DailyBar{
			Symbol: symbol,
			Date:   day.Truncate(24 * time.Hour),
			Open:   *quotes.Open[i],
			High:   *quotes.High[i],
			Low:    *quotes.Low[i],
			Close:  *quotes.Close[i],
			Volume: int64(*quotes.Volume[i]),
		})
	}

	return bars
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// Yahoo API response types
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Timestamp  []int      `json:"timestamp"`
	Indicators indicators `json:"indicators"`
}

type indicators struct {
	Quote []quoteIndicator `json:"quote"`
}

type quoteIndicator struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*int     `json:"volume"`
}

// complete reports whether every field has a value at index i.
func (q quoteIndicator) complete(i int) bool {
	if i >= len(q.Open) || i >= len(q.High) || i >= len(q.Low) ||
		i >= len(q.Close) || i >= len(q.Volume) {
		return false
	}
	return q.Open[i] != nil && q.High[i] != nil && q.Low[i] != nil &&
		q.Close[i] != nil && q.Volume[i] != nil
}
