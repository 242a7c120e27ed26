// cmd/techbot runs the option scanner and backtester.
//
// Usage:
//
//	techbot scan [--config stocks.yaml] [--force] [--paper]
//	techbot nfoscan [--input NFO_symbols.csv] [--output resultant.csv]
//	techbot backtest --instrument RELIANCE-EQ [--days 30]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anil-lina/techbot/config"
	"github.com/anil-lina/techbot/internal/backtest"
	"github.com/anil-lina/techbot/internal/contracts"
	"github.com/anil-lina/techbot/internal/execution"
	"github.com/anil-lina/techbot/internal/logger"
	"github.com/anil-lina/techbot/internal/markethours"
	"github.com/anil-lina/techbot/internal/metrics"
	"github.com/anil-lina/techbot/internal/model"
	"github.com/anil-lina/techbot/internal/notification"
	"github.com/anil-lina/techbot/internal/scanner"
	redisstore "github.com/anil-lina/techbot/internal/store/redis"
	sqlitestore "github.com/anil-lina/techbot/internal/store/sqlite"
	"github.com/anil-lina/techbot/internal/strategy"
	"github.com/anil-lina/techbot/pkg/noren"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: techbot <scan|nfoscan|backtest> [flags]")
		os.Exit(2)
	}
	mode := os.Args[1]

	fs := flag.NewFlagSet(mode, flag.ExitOnError)
	configPath := fs.String("config", "stocks.yaml", "Path to the YAML configuration")
	instrument := fs.String("instrument", "", "Instrument to backtest (e.g. RELIANCE-EQ)")
	days := fs.Int("days", 0, "Days of history to backtest (default from config)")
	input := fs.String("input", "NFO_symbols.csv", "NFO symbol list CSV for nfoscan")
	output := fs.String("output", "resultant.csv", "Results CSV for nfoscan")
	force := fs.Bool("force", false, "Scan even when the market is closed")
	paper := fs.Bool("paper", false, "Record orders locally instead of placing them")
	fs.Parse(os.Args[2:])

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.Init("techbot", logger.ParseLevel(cfg.LogLevel))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.RequireCreds(); err != nil {
		log.Error("configuration incomplete", "err", err)
		os.Exit(1)
	}

	client := noren.New(cfg.NorenConfig())
	if err := client.Login(ctx); err != nil {
		log.Error("broker login failed", "err", err)
		os.Exit(1)
	}

	strat, err := strategy.New(cfg.Strategy.Variant, cfg.StrategyConfig())
	if err != nil {
		log.Error("strategy setup failed", "err", err)
		os.Exit(1)
	}
	finder := contracts.NewFinder(client, "NFO", log)

	met := metrics.New()
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, log)
	metricsSrv.Start()
	defer func() {
		shutdownCtx, stop := context.WithTimeout(context.Background(), 2*time.Second)
		defer stop()
		metricsSrv.Stop(shutdownCtx)
	}()

	switch mode {
	case "scan":
		err = runScan(ctx, cfg, client, strat, finder, met, log, *force, *paper)
	case "nfoscan":
		err = runNFOScan(ctx, cfg, client, strat, finder, met, log, *input, *output)
	case "backtest":
		if *instrument == "" {
			fmt.Fprintln(os.Stderr, "backtest requires --instrument")
			os.Exit(2)
		}
		err = runBacktest(ctx, cfg, client, strat, finder, log, *instrument, *days)
	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q\n", mode)
		os.Exit(2)
	}
	if err != nil {
		log.Error("run failed", "mode", mode, "err", err)
		os.Exit(1)
	}
}

func runScan(ctx context.Context, cfg *config.Config, client *noren.Client, strat strategy.Strategy, finder *contracts.Finder, met *metrics.Metrics, log *slog.Logger, force, paper bool) error {
	if !markethours.IsMarketOpen(time.Now()) && !force {
		log.Warn("refusing to scan", "status", markethours.StatusString(time.Now()))
		return nil
	}

	journal, err := sqlitestore.NewJournal(cfg.JournalPath, log)
	if err != nil {
		return err
	}
	defer journal.Close()

	notifier := buildNotifier(cfg, log)
	sc := scanner.New(client, strat, finder, cfg.ScanConfig(), log).
		WithJournal(journal).
		WithNotifier(notifier).
		WithMetrics(met)

	live := cfg.Scan.PlaceOrders && !paper
	if live {
		sc.WithExecutor(execution.NewBroker(client, log))
	} else {
		sc.WithExecutor(execution.NewPaper(log))
	}

	summary := sc.Run(ctx, cfg.ScanInstruments())
	printSummary(summary)

	if live {
		watchPositions(ctx, client, summary, notifier, log)
	}
	return nil
}

// watchPositions streams last-price updates for the legs the scan
// entered and alerts on stop breaches until the session closes.
func watchPositions(ctx context.Context, client *noren.Client, summary scanner.Summary, notifier notification.Notifier, log *slog.Logger) {
	watch := scanner.NewStopWatch(notifier, log)
	for _, r := range summary.BuySide {
		watch.Track(r)
	}
	for _, r := range summary.SellSide {
		watch.Track(r)
	}
	keys := watch.Keys()
	if len(keys) == 0 {
		return
	}

	remaining := markethours.TimeUntilClose(time.Now())
	if remaining <= 0 {
		log.Info("market closed, skipping position watch")
		return
	}

	feed, err := noren.NewFeed(client, watch.OnUpdate)
	if err != nil {
		log.Warn("position watch unavailable", "err", err)
		return
	}
	if err := feed.Subscribe(keys...); err != nil {
		log.Warn("position watch subscribe failed", "err", err)
		return
	}

	watchCtx, cancel := context.WithTimeout(ctx, remaining)
	defer cancel()
	log.Info("watching positions until close", "legs", len(keys), "remaining", remaining.Round(time.Minute))
	if err := feed.Run(watchCtx); err != nil && watchCtx.Err() == nil {
		log.Warn("position watch stopped", "err", err)
	}
}

func runNFOScan(ctx context.Context, cfg *config.Config, client *noren.Client, strat strategy.Strategy, finder *contracts.Finder, met *metrics.Metrics, log *slog.Logger, input, output string) error {
	rows, err := scanner.ReadSymbolCSV(input)
	if err != nil {
		return err
	}

	sc := scanner.New(client, strat, finder, cfg.ScanConfig(), log).WithMetrics(met)
	hits := sc.RunList(ctx, rows)
	if len(hits) == 0 {
		log.Info("no signals found")
		return nil
	}
	if err := scanner.WriteSymbolCSV(output, hits); err != nil {
		return err
	}
	log.Info("results saved", "path", output, "hits", len(hits))
	return nil
}

func runBacktest(ctx context.Context, cfg *config.Config, client *noren.Client, strat strategy.Strategy, finder *contracts.Finder, log *slog.Logger, instrument string, days int) error {
	optionSymbol := ""
	for _, inst := range cfg.Instruments {
		if inst.Name == instrument {
			optionSymbol = inst.OptionSymbol
			break
		}
	}
	if optionSymbol == "" {
		return fmt.Errorf("instrument %s not found in configuration", instrument)
	}

	btCfg := cfg.Backtest
	if days > 0 {
		btCfg.Days = days
	}

	var cache backtest.SeriesCache
	if cfg.Redis.Addr != "" {
		rc, err := redisstore.NewCache(redisstore.CacheConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      time.Duration(cfg.Redis.TTLMinutes) * time.Minute,
		}, log)
		if err != nil {
			log.Warn("redis cache unavailable, using memory", "err", err)
		} else {
			defer rc.Close()
			cache = rc
		}
	}

	bt := backtest.New(client, strat, finder, cache, btCfg, log)
	report, err := bt.Run(ctx, instrument, optionSymbol)
	if err != nil {
		return err
	}

	journal, err := sqlitestore.NewJournal(cfg.JournalPath, log)
	if err == nil {
		defer journal.Close()
		if err := journal.RecordTrades(ctx, instrument, report.Trades); err != nil {
			log.Warn("journal write failed", "err", err)
		}
	}

	printReport(instrument, report)
	return nil
}

func buildNotifier(cfg *config.Config, log *slog.Logger) notification.Notifier {
	backends := []notification.Notifier{notification.NewLogNotifier(log)}
	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != "" {
		backends = append(backends, notification.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, log))
	}
	if cfg.WebhookURL != "" {
		backends = append(backends, notification.NewWebhookNotifier(cfg.WebhookURL))
	}
	if len(backends) == 1 {
		return backends[0]
	}
	return notification.NewMulti(backends...)
}

func printSummary(s scanner.Summary) {
	fmt.Println("\n--- Scan Results ---")
	fmt.Printf("Scanned: %d (skipped %d) in %s\n", s.Scanned, s.Skipped, s.Elapsed.Round(time.Second))
	for _, r := range s.BuySide {
		fmt.Printf("CALL  %-24s %s @ %.2f\n", r.Contract.TradingSymbol, r.Signal.Kind, r.Signal.Entry)
	}
	for _, r := range s.SellSide {
		fmt.Printf("PUT   %-24s %s @ %.2f\n", r.Contract.TradingSymbol, r.Signal.Kind, r.Signal.Entry)
	}
	fmt.Println("--------------------")
}

func printReport(instrument string, r model.BacktestReport) {
	closed := 0
	for _, t := range r.Trades {
		if t.Closed() {
			closed++
		}
	}
	fmt.Println("\n--- Backtest Results ---")
	fmt.Printf("Instrument: %s\n", instrument)
	fmt.Printf("Total Trades: %d (%d closed)\n", len(r.Trades), closed)
	fmt.Printf("Win Rate: %.2f%%\n", r.WinRate*100)
	fmt.Printf("Total PnL: %.2f\n", r.TotalPnL)
	fmt.Printf("Average Win: %.2f\n", r.AvgWin)
	fmt.Printf("Average Loss: %.2f\n", r.AvgLoss)
	fmt.Printf("Risk/Reward Ratio: %.2f\n", r.RiskReward)
	fmt.Println("------------------------")
}
