// Package binance selects the USDT-M futures symbol universe and streams
// aggregate trades as normalized trade events.
package binance

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/davidhoang101/Bot-FuVol-Signal-Alert/internal/logger"
	"github.com/davidhoang101/Bot-FuVol-Signal-Alert/internal/models"
)

// Config holds feed behavior configuration.
type Config struct {
	APIKey               string
	APISecret            string
	Min24hVolume         float64
	MaxSymbols           int
	StreamBatchSize      int
	ReconnectDelay       time.Duration
	MaxReconnectAttempts int

	// OnRecover, when set, is invoked after a stream batch reconnects
	// following one or more consecutive failures.
	OnRecover func(failures int)
}

// Client provides access to Binance USDT-M futures market data. API keys are
// optional: both the symbol universe and the trade streams are public.
type Client struct {
	rest *futures.Client
	cfg  Config
}

// NewClient creates a futures market-data client.
func NewClient(cfg Config) *Client {
	if cfg.StreamBatchSize <= 0 {
		cfg.StreamBatchSize = 20
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 5 * time.Second
	}
	return &Client{
		rest: futures.NewClient(cfg.APIKey, cfg.APISecret),
		cfg:  cfg,
	}
}

// LoadSymbols returns the trading USDT perpetual contracts to monitor,
// highest 24h quote volume first, filtered by Min24hVolume and capped at
// MaxSymbols.
func (c *Client) LoadSymbols(ctx context.Context) ([]string, error) {
	info, err := c.rest.NewExchangeInfoService().Do(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch exchange info")
	}

	tradable := make(map[string]bool, len(info.Symbols))
	for _, s := range info.Symbols {
		if s.Status == "TRADING" && s.QuoteAsset == "USDT" && s.ContractType == "PERPETUAL" {
			tradable[s.Symbol] = true
		}
	}
	logger.Info("Found %d active USDT perpetual contracts", len(tradable))

	stats, err := c.rest.NewListPriceChangeStatsService().Do(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch 24h ticker stats")
	}

	type symbolVolume struct {
		symbol string
		volume float64
	}
	candidates := make([]symbolVolume, 0, len(stats))
	for _, t := range stats {
		if !tradable[t.Symbol] {
			continue
		}
		vol, err := decimal.NewFromString(t.QuoteVolume)
		if err != nil {
			logger.Warn("Skipping %s: unparseable 24h quote volume %q", t.Symbol, t.QuoteVolume)
			continue
		}
		v := vol.InexactFloat64()
		if v < c.cfg.Min24hVolume {
			continue
		}
		candidates = append(candidates, symbolVolume{symbol: t.Symbol, volume: v})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].volume > candidates[j].volume
	})
	if c.cfg.MaxSymbols > 0 && len(candidates) > c.cfg.MaxSymbols {
		candidates = candidates[:c.cfg.MaxSymbols]
	}

	symbols := make([]string, len(candidates))
	for i, cand := range candidates {
		symbols[i] = cand.symbol
	}
	logger.Info("Selected %d symbols (min 24h volume: %.0f USDT, max: %d)",
		len(symbols), c.cfg.Min24hVolume, c.cfg.MaxSymbols)
	return symbols, nil
}

// Stream subscribes to aggregate trade streams for the given symbols and
// writes normalized trade events to out until ctx is cancelled. Symbols are
// split into combined-stream batches; each batch reconnects independently
// with a linear backoff, giving up after MaxReconnectAttempts consecutive
// failures. Stream returns when all batches have stopped.
func (c *Client) Stream(ctx context.Context, symbols []string, out chan<- models.TradeEvent) error {
	batches := splitBatches(symbols, c.cfg.StreamBatchSize)
	logger.Info("Starting %d websocket stream batches for %d symbols", len(batches), len(symbols))

	var wg sync.WaitGroup
	errc := make(chan error, len(batches))
	for _, batch := range batches {
		wg.Add(1)
		go func(batch []string) {
			defer wg.Done()
			if err := c.streamBatch(ctx, batch, out); err != nil {
				errc <- err
			}
		}(batch)
	}
	wg.Wait()
	close(errc)
	return <-errc
}

func (c *Client) streamBatch(ctx context.Context, symbols []string, out chan<- models.TradeEvent) error {
	handler := func(event *futures.WsAggTradeEvent) {
		ev, err := normalizeTrade(event)
		if err != nil {
			logger.Debug("Dropping malformed trade for %s: %v", event.Symbol, err)
			return
		}
		select {
		case out <- ev:
		case <-ctx.Done():
		}
	}

	failures := 0
	for {
		streamErr := make(chan error, 1)
		doneC, stopC, err := futures.WsCombinedAggTradeServe(symbols, handler, func(err error) {
			select {
			case streamErr <- err:
			default:
			}
		})
		if err == nil {
			if failures > 0 && c.cfg.OnRecover != nil {
				c.cfg.OnRecover(failures)
			}
			failures = 0
			select {
			case <-ctx.Done():
				close(stopC)
				<-doneC
				return nil
			case err = <-streamErr:
				close(stopC)
				<-doneC
			case <-doneC:
				err = errors.New("stream closed unexpectedly")
			}
		}

		failures++
		if c.cfg.MaxReconnectAttempts > 0 && failures >= c.cfg.MaxReconnectAttempts {
			return errors.Wrapf(err, "aggTrade stream for %d symbols failed after %d attempts", len(symbols), failures)
		}
		delay := c.cfg.ReconnectDelay * time.Duration(failures)
		logger.Warn("Stream batch disconnected (%v), reconnecting in %v (attempt %d)", err, delay, failures)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
	}
}

// normalizeTrade converts a raw websocket aggregate trade into a TradeEvent.
// Price and quantity arrive as decimal strings; the notional is computed
// exactly before conversion to float64.
func normalizeTrade(event *futures.WsAggTradeEvent) (models.TradeEvent, error) {
	price, err := decimal.NewFromString(event.Price)
	if err != nil {
		return models.TradeEvent{}, errors.Wrapf(err, "failed to parse price %q", event.Price)
	}
	qty, err := decimal.NewFromString(event.Quantity)
	if err != nil {
		return models.TradeEvent{}, errors.Wrapf(err, "failed to parse quantity %q", event.Quantity)
	}
	return models.TradeEvent{
		Symbol:    event.Symbol,
		Timestamp: time.UnixMilli(event.TradeTime).UTC(),
		Notional:  price.Mul(qty).InexactFloat64(),
	}, nil
}

func splitBatches(symbols []string, size int) [][]string {
	var batches [][]string
	for start := 0; start < len(symbols); start += size {
		end := start + size
		if end > len(symbols) {
			end = len(symbols)
		}
		batches = append(batches, symbols[start:end])
	}
	return batches
}
