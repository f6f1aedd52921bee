package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"PortfolioRebalancer/internal/model"
)

// SQLiteRecorder persists rebalance runs to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS rebalance_runs (
			id          TEXT PRIMARY KEY,
			timestamp   INTEGER NOT NULL,
			run_trigger TEXT,
			status      TEXT,
			total_value REAL,
			net_cash    REAL,
			buys        INTEGER,
			sells       INTEGER,
			failed      INTEGER,
			error       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON rebalance_runs(timestamp)`,

		`CREATE TABLE IF NOT EXISTS rebalance_records (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id         TEXT NOT NULL REFERENCES rebalance_runs(id),
			seq            INTEGER,
			ticker         TEXT,
			allocation     REAL,
			quantity       REAL,
			unit_price     REAL,
			current_value  REAL,
			target_value   REAL,
			trade_action   TEXT,
			trade_quantity INTEGER,
			error          TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_run ON rebalance_records(run_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRun(snap *RunSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}
	plan := snap.Plan

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO rebalance_runs
		(id, timestamp, run_trigger, status, total_value, net_cash, buys, sells, failed, error)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		snap.ID, time.Now().Unix(), snap.Trigger, StatusOK,
		plan.TotalValue, plan.NetCash(),
		len(plan.Buys()), len(plan.Sells()), len(plan.Failed()), "",
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for i, rec := range plan.Records {
		if _, err := tx.Exec(`INSERT INTO rebalance_records
			(run_id, seq, ticker, allocation, quantity, unit_price, current_value,
			 target_value, trade_action, trade_quantity, error)
			VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
			snap.ID, i, rec.Ticker, rec.Allocation, rec.Quantity, nullablePrice(rec),
			rec.CurrentValue, rec.TargetValue, string(rec.Action), rec.TradeQuantity, rec.Error,
		); err != nil {
			return fmt.Errorf("insert record %s: %w", rec.Ticker, err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) RecordFailure(evt *FailureEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	msg := ""
	if evt.Err != nil {
		msg = evt.Err.Error()
	}
	_, err := r.db.Exec(`INSERT INTO rebalance_runs
		(id, timestamp, run_trigger, status, total_value, net_cash, buys, sells, failed, error)
		VALUES (?,?,?,?,0,0,0,0,0,?)`,
		evt.ID, time.Now().Unix(), evt.Trigger, StatusFailed, msg,
	)
	return err
}

// RecentRuns returns up to limit runs, newest first.
func (r *SQLiteRecorder) RecentRuns(limit int) ([]RunSummary, error) {
	rows, err := r.db.Query(`SELECT id, timestamp, run_trigger, status, total_value, net_cash,
		buys, sells, failed, error
		FROM rebalance_runs ORDER BY timestamp DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var s RunSummary
		var ts int64
		if err := rows.Scan(&s.ID, &ts, &s.Trigger, &s.Status, &s.TotalValue, &s.NetCash,
			&s.Buys, &s.Sells, &s.Failed, &s.Error); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		s.Timestamp = time.Unix(ts, 0)
		out = append(out, s)
	}
	return out, rows.Err()
}

// Records returns the stored records of a run in their original order.
func (r *SQLiteRecorder) Records(runID string) ([]model.ComputedRecord, error) {
	rows, err := r.db.Query(`SELECT ticker, allocation, quantity, unit_price, current_value,
		target_value, trade_action, trade_quantity, error
		FROM rebalance_records WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var out []model.ComputedRecord
	for rows.Next() {
		var rec model.ComputedRecord
		var price sql.NullFloat64
		var action string
		if err := rows.Scan(&rec.Ticker, &rec.Allocation, &rec.Quantity, &price,
			&rec.CurrentValue, &rec.TargetValue, &action, &rec.TradeQuantity, &rec.Error); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		if price.Valid {
			p := price.Float64
			rec.UnitPrice = &p
		}
		rec.Action = model.Action(action)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}

func nullablePrice(rec model.ComputedRecord) sql.NullFloat64 {
	if !rec.HasPrice() {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *rec.UnitPrice, Valid: true}
}

var _ Recorder = (*SQLiteRecorder)(nil)
