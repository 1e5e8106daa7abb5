// Command fuvol monitors Binance USDT-M futures trade streams and sends a
// Telegram alert when a symbol's interval volume spikes against its own
// recent baseline.
package main

import (
	"context"
	"flag"
	"fmt"
	"hash/fnv"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/davidhoang101/Bot-FuVol-Signal-Alert/internal/binance"
	"github.com/davidhoang101/Bot-FuVol-Signal-Alert/internal/config"
	"github.com/davidhoang101/Bot-FuVol-Signal-Alert/internal/engine"
	"github.com/davidhoang101/Bot-FuVol-Signal-Alert/internal/logger"
	"github.com/davidhoang101/Bot-FuVol-Signal-Alert/internal/models"
	"github.com/davidhoang101/Bot-FuVol-Signal-Alert/internal/storage"
	"github.com/davidhoang101/Bot-FuVol-Signal-Alert/internal/telegram"
)

const (
	numWorkers      = 8
	tradeQueueSize  = 8192
	alertQueueSize  = 64
	shutdownTimeout = 5 * time.Second
)

var configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	defer logger.Sync()
	logger.Info("Configuration loaded from %s", *configPath)

	store, err := storage.New(cfg.Storage.MaxAlerts, cfg.Storage.DBPath)
	if err != nil {
		logger.Fatal("Failed to initialize storage: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close storage: %v", err)
		}
	}()

	eng := engine.New(engine.Config{
		Interval:              cfg.Detector.Interval,
		BaselineWindow:        cfg.Detector.BaselineWindow,
		MinSamples:            cfg.Detector.MinSamples,
		SpikeRatioThreshold:   cfg.Detector.SpikeRatioThreshold,
		MinVolumeThreshold:    cfg.Detector.MinVolumeThreshold,
		ConfirmationIntervals: cfg.Detector.ConfirmationIntervals,
		CooldownPeriod:        cfg.Detector.CooldownPeriod,
		GlobalRateCeiling:     cfg.Detector.GlobalAlertRateCeiling,
	})

	cooldowns, err := store.LoadCooldowns()
	if err != nil {
		logger.Warn("Failed to load persisted cooldowns: %v", err)
	} else if len(cooldowns) > 0 {
		eng.RestoreCooldowns(cooldowns)
		logger.Info("Restored %d persisted symbol cooldowns", len(cooldowns))
	}

	var telegramClient *telegram.Client
	if cfg.Telegram.Enabled {
		telegramClient, err = telegram.NewClient(
			cfg.Telegram.BotToken, cfg.Telegram.ChatID,
			cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase,
			cfg.Detector.Interval,
		)
		if err != nil {
			logger.Fatal("Failed to initialize Telegram client: %v", err)
		}
		telegramClient.SetStatsProvider(func() string { return formatStats(eng.Stats()) })
		logger.Info("Telegram client initialized successfully")
	} else {
		logger.Debug("Telegram notifications disabled")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, cleaning up...")
		cancel()
	}()

	if cfg.Telegram.Enabled && telegramClient != nil {
		telegramClient.ListenForCommands(ctx)
	}

	feedCfg := binance.Config{
		APIKey:               cfg.Binance.APIKey,
		APISecret:            cfg.Binance.APISecret,
		Min24hVolume:         cfg.Binance.Min24hVolume,
		MaxSymbols:           cfg.Binance.MaxSymbols,
		StreamBatchSize:      cfg.Binance.StreamBatchSize,
		ReconnectDelay:       cfg.Binance.ReconnectDelay,
		MaxReconnectAttempts: cfg.Binance.MaxReconnectAttempts,
	}
	if telegramClient != nil {
		feedCfg.OnRecover = func(failures int) {
			if err := telegramClient.SendRecovery(failures); err != nil {
				logger.Warn("Failed to send recovery notification to Telegram: %v", err)
			}
		}
	}
	feed := binance.NewClient(feedCfg)

	symbols, err := feed.LoadSymbols(ctx)
	if err != nil {
		logger.Fatal("Failed to load symbol universe: %v", err)
	}
	if len(symbols) == 0 {
		logger.Fatal("No symbols passed the volume filter, nothing to monitor")
	}

	logger.Info("Starting detection (interval: %v, baseline_window: %v, ratio_threshold: %.1f, min_volume: %.0f, confirmations: %d, cooldown: %v)",
		cfg.Detector.Interval,
		cfg.Detector.BaselineWindow,
		cfg.Detector.SpikeRatioThreshold,
		cfg.Detector.MinVolumeThreshold,
		cfg.Detector.ConfirmationIntervals,
		cfg.Detector.CooldownPeriod,
	)

	trades := make(chan models.TradeEvent, tradeQueueSize)
	alerts := make(chan models.AlertEvent, alertQueueSize)

	// Alert delivery runs off the hot path so a slow send never blocks
	// bucket sealing.
	var notifierWG sync.WaitGroup
	notifierWG.Add(1)
	go func() {
		defer notifierWG.Done()
		for alert := range alerts {
			if err := store.AddAlert(&alert); err != nil {
				logger.Error("Failed to persist alert for %s: %v", alert.Symbol, err)
			}
			logger.Info("ALERT %s: current=%.0f baseline=%.0f ratio=%.2fx confirmed_at=%s",
				alert.Symbol, alert.CurrentVolume, alert.BaselineVolume, alert.SpikeRatio,
				alert.ConfirmedAt.UTC().Format(time.RFC3339))
			if telegramClient != nil {
				if err := telegramClient.SendAlert(alert); err != nil {
					logger.Error("Failed to send Telegram alert for %s: %v", alert.Symbol, err)
				}
			}
		}
	}()

	// Trades are dispatched to a fixed worker by symbol hash so each symbol's
	// pipeline processes its sealed buckets in arrival order.
	shards := make([]chan models.TradeEvent, numWorkers)
	var workerWG sync.WaitGroup
	for i := range shards {
		shards[i] = make(chan models.TradeEvent, tradeQueueSize/numWorkers)
		workerWG.Add(1)
		go func(in <-chan models.TradeEvent) {
			defer workerWG.Done()
			for ev := range in {
				for _, alert := range eng.Process(ev) {
					select {
					case alerts <- alert:
					default:
						logger.Warn("Alert queue full, dropping alert for %s", alert.Symbol)
					}
				}
			}
		}(shards[i])
	}

	var dispatchWG sync.WaitGroup
	dispatchWG.Add(1)
	go func() {
		defer dispatchWG.Done()
		for ev := range trades {
			shards[shardIndex(ev.Symbol)] <- ev
		}
	}()

	checkpointTicker := time.NewTicker(cfg.Detector.CheckpointInterval)
	defer checkpointTicker.Stop()
	statsTicker := time.NewTicker(cfg.Detector.StatsInterval)
	defer statsTicker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-checkpointTicker.C:
				if err := store.SaveCooldowns(eng.CooldownSnapshot()); err != nil {
					logger.Warn("Failed to checkpoint cooldowns: %v", err)
				}
			case <-statsTicker.C:
				logger.Info("%s", formatStats(eng.Stats()))
			}
		}
	}()

	streamDone := make(chan error, 1)
	go func() {
		streamDone <- feed.Stream(ctx, symbols, trades)
	}()

	select {
	case <-ctx.Done():
		<-streamDone
	case err := <-streamDone:
		if err != nil {
			logger.Error("Trade stream failed: %v", err)
			if telegramClient != nil {
				if sendErr := telegramClient.SendError(err); sendErr != nil {
					logger.Warn("Failed to send error notification to Telegram: %v", sendErr)
				}
			}
		}
		cancel()
	}

	// Drain the pipeline: stop accepting trades, let workers finish, then
	// flush alerts. Open buckets are intentionally discarded.
	close(trades)
	dispatchWG.Wait()
	for _, shard := range shards {
		close(shard)
	}
	workerWG.Wait()
	close(alerts)

	flushed := make(chan struct{})
	go func() {
		notifierWG.Wait()
		close(flushed)
	}()
	select {
	case <-flushed:
	case <-time.After(shutdownTimeout):
		logger.Warn("Timed out flushing pending alerts")
	}

	if err := store.SaveCooldowns(eng.CooldownSnapshot()); err != nil {
		logger.Warn("Failed to checkpoint cooldowns at shutdown: %v", err)
	}

	logger.Info("Service stopped. Final %s", formatStats(eng.Stats()))
}

func shardIndex(symbol string) int {
	h := fnv.New32a()
	h.Write([]byte(symbol)) //nolint:errcheck
	return int(h.Sum32() % numWorkers)
}

func formatStats(s engine.Stats) string {
	return fmt.Sprintf(
		"stats: symbols=%d trades=%d rejected=%d buckets=%d alerts=%d suppressed_cooldown=%d suppressed_rate=%d",
		s.Symbols, s.TradesProcessed, s.TradesRejected, s.BucketsSealed,
		s.AlertsEmitted, s.SuppressedCooldown, s.SuppressedRate,
	)
}
