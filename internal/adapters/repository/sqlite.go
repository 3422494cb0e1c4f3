package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/okian/courtside/internal/domain/model"
)

//go:embed schema.sql
var schema string

// SQLiteStore keeps the event logs in a single SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens the database at path and applies the schema.
func OpenSQLite(path string, opts ...SQLiteOption) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	cfg := sqliteConfig{busyTimeoutMs: 5000, journalMode: "WAL"}
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(%s)&_pragma=foreign_keys(1)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)",
		filepath.Clean(path), cfg.journalMode, cfg.busyTimeoutMs)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the database.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func isConstraintError(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT || code == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
		code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY || code == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
}

// SaveTeam implements Store.SaveTeam.
func (s *SQLiteStore) SaveTeam(ctx context.Context, team *model.Team) (err error) {
	defer func(start time.Time) { observe(BackendSQLite, "save_team", start, err) }(time.Now())
	payload, err := json.Marshal(team)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO teams (id, payload) VALUES (?, ?)
ON CONFLICT(id) DO UPDATE SET payload = excluded.payload
`, team.ID.String(), string(payload))
	if err != nil {
		return fmt.Errorf("save team: %w", err)
	}
	return nil
}

// LoadTeam implements Store.LoadTeam.
func (s *SQLiteStore) LoadTeam(ctx context.Context, teamID uuid.UUID) (_ *model.Team, err error) {
	defer func(start time.Time) { observe(BackendSQLite, "load_team", start, err) }(time.Now())
	var payload string
	err = s.db.QueryRowContext(ctx, `SELECT payload FROM teams WHERE id = ?`, teamID.String()).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("team %s: %w", teamID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load team: %w", err)
	}
	var t model.Team
	if err := json.Unmarshal([]byte(payload), &t); err != nil {
		return nil, fmt.Errorf("%w: team %s: %v", ErrCorrupt, teamID, err)
	}
	return &t, nil
}

// SaveMatch implements Store.SaveMatch.
func (s *SQLiteStore) SaveMatch(ctx context.Context, m model.Match) (err error) {
	defer func(start time.Time) { observe(BackendSQLite, "save_match", start, err) }(time.Now())
	payload, err := json.Marshal(m)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO matches (id, team_id, played, payload) VALUES (?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET team_id = excluded.team_id, played = excluded.played, payload = excluded.payload
`, m.ID, m.TeamID.String(), m.Date.UTC().UnixMilli(), string(payload))
	if isConstraintError(err) {
		return fmt.Errorf("team %s: %w", m.TeamID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("save match: %w", err)
	}
	return nil
}

// LoadMatch implements Store.LoadMatch.
func (s *SQLiteStore) LoadMatch(ctx context.Context, matchID string) (_ model.Match, err error) {
	defer func(start time.Time) { observe(BackendSQLite, "load_match", start, err) }(time.Now())
	var payload string
	err = s.db.QueryRowContext(ctx, `SELECT payload FROM matches WHERE id = ?`, matchID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Match{}, fmt.Errorf("match %s: %w", matchID, ErrNotFound)
	}
	if err != nil {
		return model.Match{}, fmt.Errorf("load match: %w", err)
	}
	var m model.Match
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		return model.Match{}, fmt.Errorf("%w: match %s: %v", ErrCorrupt, matchID, err)
	}
	return m, nil
}

// ListMatches implements Store.ListMatches.
func (s *SQLiteStore) ListMatches(ctx context.Context, teamID uuid.UUID) (_ []model.Match, err error) {
	defer func(start time.Time) { observe(BackendSQLite, "list_matches", start, err) }(time.Now())
	var exists int
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM teams WHERE id = ?`, teamID.String()).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("team %s: %w", teamID, ErrNotFound)
	}
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM matches WHERE team_id = ? ORDER BY played DESC, id`, teamID.String())
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()
	var out []model.Match
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var m model.Match
		if err := json.Unmarshal([]byte(payload), &m); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// CreateSet implements Store.CreateSet.
func (s *SQLiteStore) CreateSet(ctx context.Context, matchID string, d model.SetDescriptor) (err error) {
	defer func(start time.Time) { observe(BackendSQLite, "create_set", start, err) }(time.Now())
	if err := d.Validate(); err != nil {
		return err
	}
	if _, err := s.LoadMatch(ctx, matchID); err != nil {
		return err
	}
	payload, err := json.Marshal(d)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO sets (match_id, number, descriptor) VALUES (?, ?, ?)`, matchID, d.Number, string(payload))
	if isConstraintError(err) {
		return fmt.Errorf("match %s set %d: %w", matchID, d.Number, ErrSetExists)
	}
	if err != nil {
		return fmt.Errorf("create set: %w", err)
	}
	return nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func loadSet(ctx context.Context, q queryer, matchID string, number int, descriptor string) (*model.SetRecord, error) {
	var d model.SetDescriptor
	if err := json.Unmarshal([]byte(descriptor), &d); err != nil {
		return nil, fmt.Errorf("%w: descriptor: %v", ErrCorrupt, err)
	}
	rows, err := q.QueryContext(ctx, `SELECT payload FROM events WHERE match_id = ? AND set_number = ? ORDER BY seq`, matchID, number)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var events []model.RallyEvent
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var e model.RallyEvent
		if err := json.Unmarshal([]byte(payload), &e); err != nil {
			return nil, fmt.Errorf("%w: event: %v", ErrCorrupt, err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rec, err := model.RestoreSetRecord(d, events)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return rec, nil
}

// LoadSet implements Store.LoadSet.
func (s *SQLiteStore) LoadSet(ctx context.Context, matchID string, number int) (_ *model.SetRecord, err error) {
	defer func(start time.Time) { observe(BackendSQLite, "load_set", start, err) }(time.Now())
	var descriptor string
	err = s.db.QueryRowContext(ctx, `SELECT descriptor FROM sets WHERE match_id = ? AND number = ?`, matchID, number).Scan(&descriptor)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("match %s set %d: %w", matchID, number, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load set: %w", err)
	}
	rec, err := loadSet(ctx, s.db, matchID, number, descriptor)
	if err != nil {
		return nil, fmt.Errorf("match %s set %d: %w", matchID, number, err)
	}
	return rec, nil
}

// LoadSets implements Store.LoadSets.
func (s *SQLiteStore) LoadSets(ctx context.Context, matchID string) (_ []*model.SetRecord, err error) {
	defer func(start time.Time) { observe(BackendSQLite, "load_sets", start, err) }(time.Now())
	if _, err := s.LoadMatch(ctx, matchID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT number, descriptor FROM sets WHERE match_id = ? ORDER BY number`, matchID)
	if err != nil {
		return nil, fmt.Errorf("load sets: %w", err)
	}
	type row struct {
		number     int
		descriptor string
	}
	var found []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.number, &r.descriptor); err != nil {
			_ = rows.Close()
			return nil, err
		}
		found = append(found, r)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(found) > model.LastSetNumber {
		return nil, fmt.Errorf("%w: match %s has %d sets", ErrCorrupt, matchID, len(found))
	}
	out := make([]*model.SetRecord, 0, len(found))
	for _, r := range found {
		rec, err := loadSet(ctx, s.db, matchID, r.number, r.descriptor)
		if err != nil {
			return nil, fmt.Errorf("match %s set %d: %w", matchID, r.number, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Append implements Store.Append. The next sequence number is taken inside
// the inserting transaction.
func (s *SQLiteStore) Append(ctx context.Context, matchID string, number int, e model.RallyEvent) (err error) {
	defer func(start time.Time) { observe(BackendSQLite, "append", start, err) }(time.Now())
	if err := e.Validate(); err != nil {
		return err
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM sets WHERE match_id = ? AND number = ?`, matchID, number).Scan(&exists); err != nil {
		return fmt.Errorf("append: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("match %s set %d: %w", matchID, number, ErrNotFound)
	}
	_, err = tx.ExecContext(ctx, `
INSERT INTO events (match_id, set_number, seq, payload)
SELECT ?, ?, COALESCE(MAX(seq), 0) + 1, ? FROM events WHERE match_id = ? AND set_number = ?
`, matchID, number, string(payload), matchID, number)
	if err != nil {
		return fmt.Errorf("append: %w", err)
	}
	return tx.Commit()
}

// RemoveLast implements Store.RemoveLast.
func (s *SQLiteStore) RemoveLast(ctx context.Context, matchID string, number int) (_ *model.RallyEvent, err error) {
	defer func(start time.Time) { observe(BackendSQLite, "remove_last", start, err) }(time.Now())
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM sets WHERE match_id = ? AND number = ?`, matchID, number).Scan(&exists); err != nil {
		return nil, fmt.Errorf("remove last: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("match %s set %d: %w", matchID, number, ErrNotFound)
	}
	var (
		seq     int64
		payload string
	)
	err = tx.QueryRowContext(ctx, `
SELECT seq, payload FROM events WHERE match_id = ? AND set_number = ? ORDER BY seq DESC LIMIT 1
`, matchID, number).Scan(&seq, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("remove last: %w", err)
	}
	var e model.RallyEvent
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		return nil, fmt.Errorf("%w: event: %v", ErrCorrupt, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM events WHERE match_id = ? AND set_number = ? AND seq = ?`, matchID, number, seq); err != nil {
		return nil, fmt.Errorf("remove last: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &e, nil
}
