// Package store handles SQLite persistence of presets and exports.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/calcviz/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ErrPresetNotFound is returned when no preset has the requested name.
var ErrPresetNotFound = errors.New("preset not found")

// Store wraps SQLite access for presets and the export log.
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
		`CREATE TABLE IF NOT EXISTS presets (
			name TEXT PRIMARY KEY,
			function TEXT NOT NULL,
			x_min REAL NOT NULL,
			x_max REAL NOT NULL,
			steps INTEGER NOT NULL,
			subdivisions INTEGER NOT NULL,
			amplitude REAL NOT NULL,
			frequency REAL NOT NULL,
			phase REAL NOT NULL,
			flags INTEGER NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS exports (
			id INTEGER PRIMARY KEY,
			path TEXT NOT NULL,
			function TEXT NOT NULL,
			x_min REAL NOT NULL,
			x_max REAL NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_exports_created_at ON exports(created_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SavePreset inserts or replaces the preset with p.Name.
func (s *Store) SavePreset(ctx context.Context, p model.Preset) error {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return fmt.Errorf("preset name is empty")
	}
	updated := p.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	cfg := p.Config
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO presets (name, function, x_min, x_max, steps, subdivisions, amplitude, frequency, phase, flags, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
			function = excluded.function,
			x_min = excluded.x_min,
			x_max = excluded.x_max,
			steps = excluded.steps,
			subdivisions = excluded.subdivisions,
			amplitude = excluded.amplitude,
			frequency = excluded.frequency,
			phase = excluded.phase,
			flags = excluded.flags,
			updated_at = excluded.updated_at`,
		name,
		cfg.Function,
		cfg.Domain.XMin,
		cfg.Domain.XMax,
		cfg.Steps,
		cfg.Subdivisions,
		cfg.Params.Amplitude,
		cfg.Params.Frequency,
		cfg.Params.Phase,
		int64(cfg.Flags),
		updated.UTC().Format(time.RFC3339Nano),
	)
	return err
}

// GetPreset loads one preset by name.
func (s *Store) GetPreset(ctx context.Context, name string) (model.Preset, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT name, function, x_min, x_max, steps, subdivisions, amplitude, frequency, phase, flags, updated_at
		 FROM presets WHERE name = ?`, strings.TrimSpace(name))
	p, err := scanPreset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Preset{}, fmt.Errorf("%w: %q", ErrPresetNotFound, name)
	}
	return p, err
}

// ListPresets returns all presets ordered by name.
func (s *Store) ListPresets(ctx context.Context) ([]model.Preset, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, function, x_min, x_max, steps, subdivisions, amplitude, frequency, phase, flags, updated_at
		 FROM presets ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var presets []model.Preset
	for rows.Next() {
		p, err := scanPreset(rows)
		if err != nil {
			return nil, err
		}
		presets = append(presets, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return presets, nil
}

// DeletePreset removes a preset. Unknown names return ErrPresetNotFound.
func (s *Store) DeletePreset(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM presets WHERE name = ?`, strings.TrimSpace(name))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %q", ErrPresetNotFound, name)
	}
	return nil
}

// RecordExport appends an export to the log and returns its id.
func (s *Store) RecordExport(ctx context.Context, rec model.ExportRecord) (int64, error) {
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO exports (path, function, x_min, x_max, created_at) VALUES (?, ?, ?, ?, ?)`,
		rec.Path,
		rec.Function,
		rec.Domain.XMin,
		rec.Domain.XMax,
		created.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListExports returns the most recent exports first. limit <= 0 means all.
func (s *Store) ListExports(ctx context.Context, limit int) ([]model.ExportRecord, error) {
	query := `SELECT id, path, function, x_min, x_max, created_at FROM exports ORDER BY created_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
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

	var records []model.ExportRecord
	for rows.Next() {
		var rec model.ExportRecord
		var createdAt string
		if err := rows.Scan(&rec.ID, &rec.Path, &rec.Function, &rec.Domain.XMin, &rec.Domain.XMax, &createdAt); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, err
		}
		rec.CreatedAt = parsed
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPreset(row scanner) (model.Preset, error) {
	var p model.Preset
	var flags int64
	var updatedAt string
	cfg := &p.Config
	if err := row.Scan(&p.Name, &cfg.Function, &cfg.Domain.XMin, &cfg.Domain.XMax, &cfg.Steps, &cfg.Subdivisions,
		&cfg.Params.Amplitude, &cfg.Params.Frequency, &cfg.Params.Phase, &flags, &updatedAt); err != nil {
		return model.Preset{}, err
	}
	parsed, err := time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return model.Preset{}, err
	}
	cfg.Flags = uint32(flags)
	p.UpdatedAt = parsed
	return p, nil
}
