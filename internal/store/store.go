// Package store handles SQLite persistence of check runs.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/codecheck/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// timeLayout is fixed width so text order matches time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store wraps SQLite access for check history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS check_runs (
			id INTEGER PRIMARY KEY,
			request_id TEXT NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			lesson TEXT NOT NULL,
			exercise INTEGER NOT NULL,
			code TEXT NOT NULL,
			outcome TEXT NOT NULL,
			message TEXT NOT NULL,
			hint TEXT NOT NULL,
			tests_passed INTEGER NOT NULL,
			tests_total INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS check_run_tests (
			run_id INTEGER NOT NULL,
			position INTEGER NOT NULL,
			passed INTEGER NOT NULL,
			description TEXT NOT NULL,
			message TEXT NOT NULL,
			PRIMARY KEY (run_id, position)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_check_runs_ended_at ON check_runs(ended_at);`,
		`CREATE INDEX IF NOT EXISTS idx_check_runs_exercise ON check_runs(lesson, exercise);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// RecordRun stores run and discards its id.
func (s *Store) RecordRun(ctx context.Context, run model.RunRecord) error {
	_, err := s.InsertRun(ctx, run)
	return err
}

// InsertRun stores a completed check run and its test outcomes.
func (s *Store) InsertRun(ctx context.Context, run model.RunRecord) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO check_runs (request_id, started_at, ended_at, lesson, exercise, code, outcome, message, hint, tests_passed, tests_total, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RequestID,
		run.StartedAt.UTC().Format(timeLayout),
		run.EndedAt.UTC().Format(timeLayout),
		run.Lesson,
		run.Exercise,
		run.Code,
		run.Outcome,
		run.Message,
		run.Hint,
		run.TestsPassed,
		run.TestsTotal,
		run.DurationMs,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if len(run.Tests) > 0 {
		var stmt *sql.Stmt
		stmt, err = tx.PrepareContext(ctx,
			`INSERT INTO check_run_tests (run_id, position, passed, description, message)
			 VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return 0, err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for i, t := range run.Tests {
			if _, err = stmt.ExecContext(ctx, id, i, t.Passed, t.Description, t.Message); err != nil {
				return 0, err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

func filterClauses(cfg model.HistoryConfig) ([]string, []any) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Lesson != "" {
		clauses = append(clauses, "lesson = ?")
		args = append(args, cfg.Lesson)
	}
	if cfg.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, cfg.Since.UTC().Format(timeLayout))
	}
	return clauses, args
}

// ListRuns returns runs matching cfg, newest first. Tests are not loaded.
func (s *Store) ListRuns(ctx context.Context, cfg model.HistoryConfig) ([]model.RunRecord, error) {
	clauses, args := filterClauses(cfg)
	query := fmt.Sprintf(`SELECT id, request_id, started_at, ended_at, lesson, exercise, code, outcome, message, hint, tests_passed, tests_total, duration_ms
		FROM check_runs
		WHERE %s
		ORDER BY ended_at DESC, id DESC`, strings.Join(clauses, " AND "))
	if cfg.Last > 0 {
		query += " LIMIT ?"
		args = append(args, cfg.Last)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var runs []model.RunRecord
	for rows.Next() {
		var run model.RunRecord
		var startedAt, endedAt string
		if err := rows.Scan(&run.ID, &run.RequestID, &startedAt, &endedAt, &run.Lesson, &run.Exercise, &run.Code,
			&run.Outcome, &run.Message, &run.Hint, &run.TestsPassed, &run.TestsTotal, &run.DurationMs); err != nil {
			return nil, err
		}
		if run.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
			return nil, err
		}
		if run.EndedAt, err = time.Parse(timeLayout, endedAt); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// RunTests returns the test outcomes of a run in their original order.
func (s *Store) RunTests(ctx context.Context, runID int64) ([]model.TestOutcome, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT passed, description, message FROM check_run_tests WHERE run_id = ? ORDER BY position ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var tests []model.TestOutcome
	for rows.Next() {
		var t model.TestOutcome
		if err := rows.Scan(&t.Passed, &t.Description, &t.Message); err != nil {
			return nil, err
		}
		tests = append(tests, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tests, nil
}

// ListExerciseAggregates summarizes runs per exercise, ordered by lesson and
// exercise. With cfg.Last set only the newest Last runs are counted, matching ListRuns.
func (s *Store) ListExerciseAggregates(ctx context.Context, cfg model.HistoryConfig) ([]model.ExerciseAggregate, error) {
	clauses, args := filterClauses(cfg)
	source := fmt.Sprintf(`SELECT lesson, exercise, outcome, ended_at
		FROM check_runs
		WHERE %s
		ORDER BY ended_at DESC, id DESC`, strings.Join(clauses, " AND "))
	if cfg.Last > 0 {
		source += " LIMIT ?"
		args = append(args, cfg.Last)
	}
	query := fmt.Sprintf(`SELECT lesson, exercise, COUNT(*) AS runs,
		SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END) AS passed,
		MAX(ended_at) AS last_run
		FROM (%s)
		GROUP BY lesson, exercise
		ORDER BY lesson ASC, exercise ASC`, source)
	args = append([]any{model.OutcomePassed}, args...)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.ExerciseAggregate
	for rows.Next() {
		var agg model.ExerciseAggregate
		var lastRun string
		if err := rows.Scan(&agg.Lesson, &agg.Exercise, &agg.Runs, &agg.Passed, &lastRun); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(timeLayout, lastRun)
		if err != nil {
			return nil, err
		}
		agg.LastRunAt = parsed
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
