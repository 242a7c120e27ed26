// Package sqlite persists scan signals and simulated trades to a local
// SQLite journal for later analysis.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/anil-lina/techbot/internal/model"
)

// Journal records found signals and backtest trades.
type Journal struct {
	mu  sync.Mutex
	db  *sql.DB
	log *slog.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS signals (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	instrument  TEXT NOT NULL,
	tsym        TEXT NOT NULL,
	exchange    TEXT NOT NULL,
	option_type TEXT NOT NULL,
	strike      REAL NOT NULL,
	kind        TEXT NOT NULL,
	entry       REAL NOT NULL,
	stop_loss   REAL NOT NULL,
	take_profit REAL,
	signal_at   DATETIME NOT NULL,
	created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_signals_instrument ON signals(instrument);
CREATE INDEX IF NOT EXISTS idx_signals_signal_at ON signals(signal_at);

CREATE TABLE IF NOT EXISTS backtest_trades (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	run_at      DATETIME NOT NULL,
	instrument  TEXT NOT NULL,
	tsym        TEXT NOT NULL,
	side        TEXT NOT NULL,
	entry_time  DATETIME NOT NULL,
	entry_price REAL NOT NULL,
	stop_loss   REAL NOT NULL,
	take_profit REAL,
	exit_time   DATETIME,
	exit_price  REAL,
	exit_reason TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_bt_trades_instrument ON backtest_trades(instrument);
`

// NewJournal opens (or creates) the journal database in WAL mode.
func NewJournal(dbPath string, log *slog.Logger) (*Journal, error) {
	if log == nil {
		log = slog.Default()
	}
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open %s: %w", dbPath, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Info("journal opened", "path", dbPath)
	return &Journal{db: db, log: log.With(slog.String("component", "journal"))}, nil
}

// RecordSignal persists one live-scan hit.
func (j *Journal) RecordSignal(ctx context.Context, instrument string, c model.Contract, sig model.Signal) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.ExecContext(ctx,
		`INSERT INTO signals (instrument, tsym, exchange, option_type, strike, kind, entry, stop_loss, take_profit, signal_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		instrument, c.TradingSymbol, c.Exchange, string(c.OptionType), c.Strike,
		string(sig.Kind), sig.Entry, sig.StopLoss, sig.TakeProfit,
		sig.TS.Format(time.RFC3339))
	return err
}

// RecordTrades persists a backtest run's trades under one run
// timestamp. Still-open trades are stored with NULL exit fields.
func (j *Journal) RecordTrades(ctx context.Context, instrument string, trades []model.Trade) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	runAt := time.Now().Format(time.RFC3339)
	for _, t := range trades {
		var exitTime, exitPrice any
		if t.Closed() {
			exitTime = t.ExitTime.Format(time.RFC3339)
			exitPrice = t.ExitPrice
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO backtest_trades (run_at, instrument, tsym, side, entry_time, entry_price, stop_loss, take_profit, exit_time, exit_price, exit_reason)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runAt, instrument, t.Symbol, string(t.Side),
			t.EntryTime.Format(time.RFC3339), t.EntryPrice, t.StopLoss, t.TakeProfit,
			exitTime, exitPrice, string(t.ExitReason)); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// SignalRecord is one row from the signals table.
type SignalRecord struct {
	ID         int64   `json:"id"`
	Instrument string  `json:"instrument"`
	Tsym       string  `json:"tsym"`
	OptionType string  `json:"option_type"`
	Strike     float64 `json:"strike"`
	Kind       string  `json:"kind"`
	Entry      float64 `json:"entry"`
	SignalAt   string  `json:"signal_at"`
}

// RecentSignals returns the last n recorded signals, newest first.
func (j *Journal) RecentSignals(ctx context.Context, n int) ([]SignalRecord, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	rows, err := j.db.QueryContext(ctx,
		`SELECT id, instrument, tsym, option_type, strike, kind, entry, signal_at
		 FROM signals ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SignalRecord
	for rows.Next() {
		var r SignalRecord
		if err := rows.Scan(&r.ID, &r.Instrument, &r.Tsym, &r.OptionType,
			&r.Strike, &r.Kind, &r.Entry, &r.SignalAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the journal database.
func (j *Journal) Close() error {
	return j.db.Close()
}
