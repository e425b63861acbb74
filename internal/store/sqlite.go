package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id            TEXT PRIMARY KEY,
	started_at    DATETIME NOT NULL,
	finished_at   DATETIME,
	dry_run       INTEGER NOT NULL DEFAULT 0,
	dates_priced  INTEGER NOT NULL DEFAULT 0,
	dates_skipped INTEGER NOT NULL DEFAULT 0,
	sends_ok      INTEGER NOT NULL DEFAULT 0,
	sends_failed  INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS rate_updates (
	id           TEXT PRIMARY KEY,
	run_id       TEXT NOT NULL REFERENCES runs(id),
	apartment_id INTEGER NOT NULL,
	date         TEXT NOT NULL,
	price        REAL NOT NULL,
	score        REAL,
	occupancy    REAL NOT NULL,
	status       TEXT NOT NULL,
	created_at   DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_rate_updates_run_id ON rate_updates(run_id);
CREATE INDEX IF NOT EXISTS idx_rate_updates_date ON rate_updates(date);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, dryRun bool) (*Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, dry_run) VALUES (?, ?, ?)`,
		id, now, dryRun,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &Run{ID: id, StartedAt: now, DryRun: dryRun}, nil
}

func (s *SQLiteStore) FinishRun(ctx context.Context, runID string, totals RunTotals) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, dates_priced = ?, dates_skipped = ?, sends_ok = ?, sends_failed = ? WHERE id = ?`,
		time.Now().UTC(), totals.DatesPriced, totals.DatesSkipped, totals.SendsOK, totals.SendsFailed, runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: finish run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) RecordRateUpdate(ctx context.Context, u RateUpdate) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	var score any
	if u.Score != nil {
		score = *u.Score
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO rate_updates (id, run_id, apartment_id, date, price, score, occupancy, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.RunID, u.Apartment, u.Date, u.Price, score, u.Occupancy, u.Status, u.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert rate update")
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, dry_run, dates_priced, dates_skipped, sends_ok, sends_failed
		 FROM runs ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var finished sql.NullTime
		if err := rows.Scan(&r.ID, &r.StartedAt, &finished, &r.DryRun,
			&r.DatesPriced, &r.DatesSkipped, &r.SendsOK, &r.SendsFailed); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		if finished.Valid {
			t := finished.Time
			r.FinishedAt = &t
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) ListRateUpdates(ctx context.Context, filter UpdateFilter) ([]RateUpdate, error) {
	query := `SELECT id, run_id, apartment_id, date, price, score, occupancy, status, created_at
	          FROM rate_updates WHERE 1=1`
	var args []any

	if filter.RunID != "" {
		query += ` AND run_id = ?`
		args = append(args, filter.RunID)
	}
	if filter.Date != "" {
		query += ` AND date = ?`
		args = append(args, filter.Date)
	}
	if filter.Apartment != 0 {
		query += ` AND apartment_id = ?`
		args = append(args, filter.Apartment)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list rate updates")
	}
	defer rows.Close()

	var updates []RateUpdate
	for rows.Next() {
		var u RateUpdate
		var score sql.NullFloat64
		if err := rows.Scan(&u.ID, &u.RunID, &u.Apartment, &u.Date, &u.Price,
			&score, &u.Occupancy, &u.Status, &u.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan rate update")
		}
		if score.Valid {
			v := score.Float64
			u.Score = &v
		}
		updates = append(updates, u)
	}
	return updates, eris.Wrap(rows.Err(), "sqlite: list rate updates iterate")
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}
