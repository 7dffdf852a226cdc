package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/hylla/outliner/internal/app"
	"github.com/hylla/outliner/internal/domain"
)

// driverName defines a package constant value.
const driverName = "sqlite"

// Repository stores sheets and entries in SQLite.
type Repository struct {
	db *sql.DB
}

// Open opens or creates the database file at path.
func Open(path string) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// OpenInMemory opens a private in-memory database.
func OpenInMemory() (*Repository, error) {
	db, err := sql.Open(driverName, ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	// Each pooled connection would get its own empty in-memory database.
	db.SetMaxOpenConns(1)
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// Close closes the database.
func (r *Repository) Close() error {
	return r.db.Close()
}

// migrate creates the schema.
func (r *Repository) migrate(ctx context.Context) error {
	stmts := []string{
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS sheets (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			kind TEXT NOT NULL DEFAULT 'traits',
			sort_config TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS entries (
			id TEXT PRIMARY KEY,
			sheet_id TEXT NOT NULL,
			parent_id TEXT NOT NULL DEFAULT '',
			position INTEGER NOT NULL,
			open INTEGER NOT NULL DEFAULT 0,
			container INTEGER NOT NULL DEFAULT 0,
			kind TEXT NOT NULL DEFAULT '',
			name TEXT NOT NULL,
			points INTEGER NOT NULL DEFAULT 0,
			quantity INTEGER NOT NULL DEFAULT 0,
			weight REAL NOT NULL DEFAULT 0,
			reference TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			features_json TEXT NOT NULL DEFAULT '[]',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			FOREIGN KEY(sheet_id) REFERENCES sheets(id) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_entries_sheet_parent_position ON entries(sheet_id, parent_id, position);`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

// CreateSheet inserts a sheet.
func (r *Repository) CreateSheet(ctx context.Context, s domain.Sheet) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sheets(id, name, kind, sort_config, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?, ?)
	`, s.ID, s.Name, string(s.Kind), s.SortConfig, ts(s.CreatedAt), ts(s.UpdatedAt))
	return err
}

// UpdateSheet rewrites a sheet's name, kind and sort.
func (r *Repository) UpdateSheet(ctx context.Context, s domain.Sheet) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE sheets
		SET name = ?, kind = ?, sort_config = ?, updated_at = ?
		WHERE id = ?
	`, s.Name, string(s.Kind), s.SortConfig, ts(s.UpdatedAt), s.ID)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

// GetSheet loads one sheet.
func (r *Repository) GetSheet(ctx context.Context, id string) (domain.Sheet, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, kind, sort_config, created_at, updated_at
		FROM sheets
		WHERE id = ?
	`, id)
	return scanSheet(row)
}

// ListSheets lists sheets oldest first.
func (r *Repository) ListSheets(ctx context.Context) ([]domain.Sheet, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, kind, sort_config, created_at, updated_at
		FROM sheets
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Sheet, 0)
	for rows.Next() {
		s, err := scanSheet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// DeleteSheet removes a sheet and its entries.
func (r *Repository) DeleteSheet(ctx context.Context, id string) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM entries WHERE sheet_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM sheets WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if err = translateNoRows(res); err != nil {
		return err
	}
	err = tx.Commit()
	return err
}

// ListEntries lists a sheet's entries grouped by parent in position order.
func (r *Repository) ListEntries(ctx context.Context, sheetID string) ([]domain.Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, sheet_id, parent_id, position, open, container, kind, name, points, quantity, weight, reference, notes, features_json, created_at, updated_at
		FROM entries
		WHERE sheet_id = ?
		ORDER BY parent_id ASC, position ASC, id ASC
	`, sheetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ReplaceEntries swaps a sheet's entries for entries in one transaction.
func (r *Repository) ReplaceEntries(ctx context.Context, sheetID string, entries []domain.Entry) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var exists int
	if err = tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM sheets WHERE id = ?`, sheetID).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		err = app.ErrNotFound
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM entries WHERE sheet_id = ?`, sheetID); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entries(id, sheet_id, parent_id, position, open, container, kind, name, points, quantity, weight, reference, notes, features_json, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range entries {
		if e.SheetID != sheetID {
			err = fmt.Errorf("entry %q belongs to sheet %q: %w", e.ID, e.SheetID, domain.ErrInvalidID)
			return err
		}
		features, encErr := encodeFeatures(e.Features)
		if encErr != nil {
			err = encErr
			return err
		}
		if _, err = stmt.ExecContext(ctx,
			e.ID, e.SheetID, e.ParentID, e.Position, boolToInt(e.Open), boolToInt(e.Container),
			e.Kind, e.Name, e.Points, e.Quantity, e.Weight, e.Reference, e.Notes, features,
			ts(e.CreatedAt), ts(e.UpdatedAt),
		); err != nil {
			return fmt.Errorf("insert entry %q: %w", e.ID, err)
		}
	}
	err = tx.Commit()
	return err
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSheet(s scanner) (domain.Sheet, error) {
	var (
		sh         domain.Sheet
		kind       string
		createdRaw string
		updatedRaw string
	)
	if err := s.Scan(&sh.ID, &sh.Name, &kind, &sh.SortConfig, &createdRaw, &updatedRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Sheet{}, app.ErrNotFound
		}
		return domain.Sheet{}, err
	}
	sh.Kind = domain.SheetKind(kind)
	sh.CreatedAt = parseTS(createdRaw)
	sh.UpdatedAt = parseTS(updatedRaw)
	return sh, nil
}

func scanEntry(s scanner) (domain.Entry, error) {
	var (
		e           domain.Entry
		open        int
		container   int
		featuresRaw string
		createdRaw  string
		updatedRaw  string
	)
	if err := s.Scan(
		&e.ID, &e.SheetID, &e.ParentID, &e.Position, &open, &container, &e.Kind, &e.Name,
		&e.Points, &e.Quantity, &e.Weight, &e.Reference, &e.Notes, &featuresRaw, &createdRaw, &updatedRaw,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Entry{}, app.ErrNotFound
		}
		return domain.Entry{}, err
	}
	if strings.TrimSpace(featuresRaw) == "" {
		featuresRaw = "[]"
	}
	if err := json.Unmarshal([]byte(featuresRaw), &e.Features); err != nil {
		return domain.Entry{}, fmt.Errorf("decode entry features_json: %w", err)
	}
	e.Open = open != 0
	e.Container = container != 0
	e.CreatedAt = parseTS(createdRaw)
	e.UpdatedAt = parseTS(updatedRaw)
	return e, nil
}

func encodeFeatures(features []domain.Feature) (string, error) {
	if len(features) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(features)
	if err != nil {
		return "", fmt.Errorf("encode entry features_json: %w", err)
	}
	return string(data), nil
}

func translateNoRows(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return app.ErrNotFound
	}
	return nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTS(v string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}
