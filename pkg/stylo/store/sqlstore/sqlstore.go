// Package sqlstore implements store.Store over database/sql. The sqlite and
// postgres packages open a driver and hand the handle to New.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cognicore/stylo/pkg/stylo/classify"
	"github.com/cognicore/stylo/pkg/stylo/codec"
	"github.com/cognicore/stylo/pkg/stylo/internalerr"
	"github.com/cognicore/stylo/pkg/stylo/likelihood"
	"github.com/cognicore/stylo/pkg/stylo/model"
	"github.com/cognicore/stylo/pkg/stylo/store"
)

// Dialect captures the SQL differences between drivers.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

var _ store.Store = (*Store)(nil)

// Store persists models and decisions in a SQL database
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// New initializes the schema and returns a store. The store owns db and
// closes it on Close.
func New(ctx context.Context, db *sql.DB, dialect Dialect) (*Store, error) {
	s := &Store{db: db, dialect: dialect}
	if err := s.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// rebind rewrites ? placeholders to $n for postgres.
func (s *Store) rebind(query string) string {
	if s.dialect != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// initSchema creates tables if they don't exist
func (s *Store) initSchema(ctx context.Context) error {
	schema := []string{`
CREATE TABLE IF NOT EXISTS model_tables (
	table_key TEXT PRIMARY KEY,
	model TEXT NOT NULL,
	channel TEXT NOT NULL,
	body TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`, `
CREATE INDEX IF NOT EXISTS idx_model_tables_model ON model_tables(model)`, `
CREATE TABLE IF NOT EXISTS decisions (
	id TEXT PRIMARY KEY,
	unknown_model TEXT NOT NULL,
	source1 TEXT NOT NULL,
	source2 TEXT NOT NULL,
	scores1 TEXT NOT NULL,
	scores2 TEXT NOT NULL,
	weighted1 DOUBLE PRECISION NOT NULL,
	weighted2 DOUBLE PRECISION NOT NULL,
	votes1 INTEGER NOT NULL,
	votes2 INTEGER NOT NULL,
	winner_index INTEGER NOT NULL,
	winner TEXT NOT NULL,
	tie INTEGER NOT NULL,
	decided_at TEXT NOT NULL
)`}

	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveModel upserts the five tables of m in one transaction
func (s *Store) SaveModel(ctx context.Context, m *model.Model) error {
	blobs, err := store.EncodeModel(m)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save %s: %v: %w", m.Name, err, internalerr.ErrStoreUnavailable)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, s.rebind(`
INSERT INTO model_tables (table_key, model, channel, body, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(table_key) DO UPDATE SET
	body=excluded.body,
	updated_at=excluded.updated_at`))
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, ch := range model.Channels() {
		key := codec.Key(m.Name, ch)
		if _, err := stmt.ExecContext(ctx, key, m.Name, ch.String(), string(blobs[ch]), now); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}
	return tx.Commit()
}

// LoadModel reads every table of name inside one read transaction so a
// concurrent save never yields a mixed model.
func (s *Store) LoadModel(ctx context.Context, name string) (*model.Model, error) {
	if err := store.ValidateName(name); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("load %s: %v: %w", name, err, internalerr.ErrStoreUnavailable)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, s.rebind(`SELECT channel, body FROM model_tables WHERE model = ?`), name)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	defer rows.Close()

	blobs := make(map[model.Channel][]byte, len(model.Channels()))
	for rows.Next() {
		var channel, body string
		if err := rows.Scan(&channel, &body); err != nil {
			return nil, err
		}
		ch, err := model.ParseChannel(channel)
		if err != nil {
			return nil, fmt.Errorf("load %s: %v: %w", name, err, internalerr.ErrMalformedModel)
		}
		blobs[ch] = []byte(body)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(blobs) == 0 {
		return nil, fmt.Errorf("load %s: %w", name, internalerr.ErrNotFound)
	}
	return store.DecodeModel(name, blobs)
}

// ListModels returns the names of stored models, sorted
func (s *Store) ListModels(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT DISTINCT model FROM model_tables WHERE channel = ? ORDER BY model`), model.Words.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// DeleteModel removes every table of name
func (s *Store) DeleteModel(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM model_tables WHERE model = ?`), name)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("delete %s: %w", name, internalerr.ErrNotFound)
	}
	return nil
}

// RecordDecision stores one classification outcome
func (s *Store) RecordDecision(ctx context.Context, d classify.Decision) error {
	scores1, err := json.Marshal(d.Scores1)
	if err != nil {
		return err
	}
	scores2, err := json.Marshal(d.Scores2)
	if err != nil {
		return err
	}
	tie := 0
	if d.Tie {
		tie = 1
	}

	_, err = s.db.ExecContext(ctx, s.rebind(`
INSERT INTO decisions (id, unknown_model, source1, source2, scores1, scores2, weighted1, weighted2,
	votes1, votes2, winner_index, winner, tie, decided_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		d.ID, d.Unknown, d.Source1, d.Source2, string(scores1), string(scores2),
		d.Weighted1, d.Weighted2, d.Votes1, d.Votes2, d.WinnerIndex, d.Winner, tie,
		d.DecidedAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

// Decisions returns up to limit decisions, newest first. ULIDs sort by time.
func (s *Store) Decisions(ctx context.Context, limit int) ([]classify.Decision, error) {
	if limit <= 0 {
		limit = store.DefaultDecisionLimit
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(`
SELECT id, unknown_model, source1, source2, scores1, scores2, weighted1, weighted2,
	votes1, votes2, winner_index, winner, tie, decided_at
FROM decisions
ORDER BY id DESC
LIMIT ?`), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []classify.Decision
	for rows.Next() {
		var (
			d                classify.Decision
			scores1, scores2 string
			tie              int
			decidedAt        string
		)
		if err := rows.Scan(&d.ID, &d.Unknown, &d.Source1, &d.Source2, &scores1, &scores2,
			&d.Weighted1, &d.Weighted2, &d.Votes1, &d.Votes2, &d.WinnerIndex, &d.Winner, &tie, &decidedAt); err != nil {
			return nil, err
		}
		if d.Scores1, err = parseScores(scores1); err != nil {
			return nil, fmt.Errorf("decision %s: %w", d.ID, err)
		}
		if d.Scores2, err = parseScores(scores2); err != nil {
			return nil, fmt.Errorf("decision %s: %w", d.ID, err)
		}
		d.Tie = tie != 0
		if t, err := time.Parse(time.RFC3339Nano, decidedAt); err == nil {
			d.DecidedAt = t
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func parseScores(raw string) (likelihood.Scores, error) {
	var s likelihood.Scores
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return s, fmt.Errorf("scores %q: %v: %w", raw, err, internalerr.ErrMalformedModel)
	}
	return s, nil
}
