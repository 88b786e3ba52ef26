// Package sqlite persists extracted recipes. One row per (owner, source URL):
// re-extracting the same page for the same owner overwrites the stored record.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"recipe-extractor/internal/core/recipe"
	"recipe-extractor/internal/pkg/common"
)

const schema = `
CREATE TABLE IF NOT EXISTS recipes (
	id          TEXT PRIMARY KEY,
	owner       TEXT NOT NULL,
	source_url  TEXT NOT NULL,
	title       TEXT NOT NULL,
	language    TEXT NOT NULL,
	method      TEXT NOT NULL,
	confidence  REAL NOT NULL,
	payload     TEXT NOT NULL,
	created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(owner, source_url)
);

CREATE INDEX IF NOT EXISTS idx_recipes_owner ON recipes(owner);
`

type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the recipe database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set journal mode: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save upserts a recipe for an owner. A recipe without an ID gets one; when
// the (owner, source URL) pair already exists the stored row keeps its ID and
// creation time. Returns the effective ID.
func (s *Store) Save(ctx context.Context, owner string, r *recipe.Recipe) (string, error) {
	if r.ID == "" {
		r.ID = common.GenerateUUID()
	}

	var existingID string
	err := s.db.QueryRowContext(ctx,
		"SELECT id FROM recipes WHERE owner = ? AND source_url = ?",
		owner, r.SourceURL).Scan(&existingID)
	if err == nil {
		r.ID = existingID
	} else if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("failed to check existing recipe: %w", err)
	}

	payload, err := common.ToJSON(r)
	if err != nil {
		return "", fmt.Errorf("failed to serialize recipe: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO recipes (id, owner, source_url, title, language, method, confidence, payload, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner, source_url) DO UPDATE SET
			title = excluded.title,
			language = excluded.language,
			method = excluded.method,
			confidence = excluded.confidence,
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`, r.ID, owner, r.SourceURL, r.Title, string(r.Language), string(r.Method),
		r.Confidence, payload, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("failed to save recipe: %w", err)
	}

	return r.ID, nil
}

// Get loads one recipe by ID. Returns nil when the ID is unknown.
func (s *Store) Get(ctx context.Context, id string) (*recipe.Recipe, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		"SELECT payload FROM recipes WHERE id = ?", id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load recipe: %w", err)
	}

	var r recipe.Recipe
	if err := common.ParseJSON(payload, &r); err != nil {
		return nil, fmt.Errorf("failed to decode stored recipe: %w", err)
	}
	return &r, nil
}

// ListByOwner returns an owner's recipes, most recently updated first.
func (s *Store) ListByOwner(ctx context.Context, owner string, limit int) ([]*recipe.Recipe, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT payload FROM recipes
		WHERE owner = ?
		ORDER BY updated_at DESC
		LIMIT ?
	`, owner, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	defer rows.Close()

	var out []*recipe.Recipe
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan recipe row: %w", err)
		}
		var r recipe.Recipe
		if err := common.ParseJSON(payload, &r); err != nil {
			return nil, fmt.Errorf("failed to decode stored recipe: %w", err)
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

// Delete removes a recipe owned by owner. Returns false when nothing matched.
func (s *Store) Delete(ctx context.Context, owner, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM recipes WHERE owner = ? AND id = ?", owner, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete recipe: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
