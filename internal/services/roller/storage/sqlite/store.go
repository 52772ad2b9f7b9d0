// Package sqlite provides a SQLite-backed roll log.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/louisbranch/dicenotation/internal/platform/grpc/pagination"
	"github.com/louisbranch/dicenotation/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/dicenotation/internal/random"
	"github.com/louisbranch/dicenotation/internal/rollctx"
	"github.com/louisbranch/dicenotation/internal/services/roller/storage"
	"github.com/louisbranch/dicenotation/internal/services/roller/storage/sqlite/migrations"
)

const rollCursorKind = "roll"

// Store persists roll records in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite roll log and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(context.Background(), sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// PutRoll inserts one roll record.
func (s *Store) PutRoll(ctx context.Context, record storage.RollRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	id := strings.TrimSpace(record.ID)
	if id == "" {
		return fmt.Errorf("roll id is required")
	}
	if strings.TrimSpace(record.Expression) == "" {
		return fmt.Errorf("expression is required")
	}
	rolls := record.Rolls
	if rolls == nil {
		rolls = []rollctx.Entry{}
	}
	rollsJSON, err := json.Marshal(rolls)
	if err != nil {
		return fmt.Errorf("encode rolls: %w", err)
	}
	createdAt := record.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	mode := record.Mode
	if mode == "" {
		mode = random.RollModeLive
	}
	source := record.SeedSource
	if source == "" {
		source = random.SeedSourceServer
	}

	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO rolls (
		   id,
		   expression,
		   canonical,
		   detail,
		   value,
		   value_is_text,
		   rolls_json,
		   seed,
		   seed_source,
		   roll_mode,
		   replay_of,
		   created_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		record.Expression,
		record.Canonical,
		record.Detail,
		record.Value,
		record.ValueIsText,
		string(rollsJSON),
		record.Seed,
		string(source),
		string(mode),
		strings.TrimSpace(record.ReplayOf),
		toMillis(createdAt),
	)
	if err != nil {
		if isRollUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("put roll: %w", err)
	}
	return nil
}

const selectRoll = `SELECT seq, id, expression, canonical, detail, value, value_is_text,
        rolls_json, seed, seed_source, roll_mode, replay_of, created_at
   FROM rolls`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoll(row rowScanner) (int64, storage.RollRecord, error) {
	var (
		record    storage.RollRecord
		seq       int64
		rollsJSON string
		source    string
		mode      string
		createdAt int64
	)
	if err := row.Scan(
		&seq,
		&record.ID,
		&record.Expression,
		&record.Canonical,
		&record.Detail,
		&record.Value,
		&record.ValueIsText,
		&rollsJSON,
		&record.Seed,
		&source,
		&mode,
		&record.ReplayOf,
		&createdAt,
	); err != nil {
		return 0, storage.RollRecord{}, err
	}
	if err := json.Unmarshal([]byte(rollsJSON), &record.Rolls); err != nil {
		return 0, storage.RollRecord{}, fmt.Errorf("decode rolls of %s: %w", record.ID, err)
	}
	record.SeedSource = random.SeedSource(source)
	record.Mode = random.ParseRollMode(mode)
	record.CreatedAt = fromMillis(createdAt)
	return seq, record, nil
}

// GetRoll returns one roll by ID.
func (s *Store) GetRoll(ctx context.Context, id string) (storage.RollRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.RollRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.RollRecord{}, fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return storage.RollRecord{}, fmt.Errorf("roll id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, selectRoll+` WHERE id = ?`, id)
	_, record, err := scanRoll(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.RollRecord{}, storage.ErrNotFound
		}
		return storage.RollRecord{}, fmt.Errorf("get roll: %w", err)
	}
	return record, nil
}

// ListRolls returns one page of rolls, newest first. The page token is
// opaque to callers.
func (s *Store) ListRolls(ctx context.Context, pageSize int, pageToken string) (storage.RollPage, error) {
	if err := ctx.Err(); err != nil {
		return storage.RollPage{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.RollPage{}, fmt.Errorf("storage is not configured")
	}
	if pageSize <= 0 {
		return storage.RollPage{}, fmt.Errorf("page size must be greater than zero")
	}
	pageToken = strings.TrimSpace(pageToken)

	var (
		rows *sql.Rows
		err  error
	)
	if pageToken == "" {
		rows, err = s.sqlDB.QueryContext(ctx, selectRoll+` ORDER BY seq DESC LIMIT ?`, pageSize+1)
	} else {
		before, perr := pagination.DecodeCursor(rollCursorKind, pageToken)
		if perr != nil {
			return storage.RollPage{}, fmt.Errorf("%w: %q", storage.ErrInvalidPageToken, pageToken)
		}
		rows, err = s.sqlDB.QueryContext(ctx, selectRoll+` WHERE seq < ? ORDER BY seq DESC LIMIT ?`, before, pageSize+1)
	}
	if err != nil {
		return storage.RollPage{}, fmt.Errorf("list rolls: %w", err)
	}
	defer rows.Close()

	page := storage.RollPage{Rolls: make([]storage.RollRecord, 0, pageSize)}
	var seqs []int64
	for rows.Next() {
		seq, record, err := scanRoll(rows)
		if err != nil {
			return storage.RollPage{}, fmt.Errorf("list rolls: %w", err)
		}
		seqs = append(seqs, seq)
		page.Rolls = append(page.Rolls, record)
	}
	if err := rows.Err(); err != nil {
		return storage.RollPage{}, fmt.Errorf("list rolls: %w", err)
	}
	if len(page.Rolls) > pageSize {
		page.NextPageToken = pagination.EncodeCursor(rollCursorKind, seqs[pageSize-1])
		page.Rolls = page.Rolls[:pageSize]
	}
	return page, nil
}

func isRollUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "unique constraint failed") &&
		strings.Contains(message, "rolls.id")
}

var _ storage.RollStore = (*Store)(nil)
