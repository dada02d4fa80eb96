package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/storykeep/storykeep-server/internal/domain"
	"github.com/storykeep/storykeep-server/internal/store"
)

const themeColumns = `id, created_at, updated_at, name, css, active`

func scanTheme(scanner interface{ Scan(dest ...any) error }) (*domain.Theme, error) {
	var th domain.Theme

	var (
		createdAt string
		updatedAt string
		active    int
	)
	err := scanner.Scan(&th.ID, &createdAt, &updatedAt, &th.Name, &th.CSS, &active)
	if err != nil {
		return nil, err
	}

	th.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	th.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	th.Active = active != 0

	return &th, nil
}

// CreateTheme inserts a new theme.
// Returns store.ErrAlreadyExists on a duplicate id or name.
func (s *Store) CreateTheme(ctx context.Context, th *domain.Theme) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO themes (id, created_at, updated_at, name, css, active)
		VALUES (?, ?, ?, ?, ?, ?)`,
		th.ID,
		formatTime(th.CreatedAt),
		formatTime(th.UpdatedAt),
		th.Name,
		th.CSS,
		boolToInt(th.Active),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetTheme retrieves a theme by id.
// Returns store.ErrNotFound if the theme does not exist.
func (s *Store) GetTheme(ctx context.Context, id string) (*domain.Theme, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+themeColumns+` FROM themes WHERE id = ?`, id)

	th, err := scanTheme(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return th, nil
}

// ListThemes returns every theme ordered by name, ignoring case.
func (s *Store) ListThemes(ctx context.Context) ([]*domain.Theme, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+themeColumns+` FROM themes ORDER BY name COLLATE NOCASE ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*domain.Theme
	for rows.Next() {
		th, err := scanTheme(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, th)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateTheme performs a full row update on an existing theme. The active
// flag is not touched here; use ActivateTheme.
// Returns store.ErrNotFound if the theme does not exist.
func (s *Store) UpdateTheme(ctx context.Context, th *domain.Theme) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE themes SET updated_at = ?, name = ?, css = ? WHERE id = ?`,
		formatTime(th.UpdatedAt),
		th.Name,
		th.CSS,
		th.ID,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ActivateTheme makes the given theme the single active one. Deactivation
// of every other theme and activation of the target happen in one
// transaction, so readers never observe two active themes.
// Returns store.ErrNotFound if the theme does not exist.
func (s *Store) ActivateTheme(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := formatTime(time.Now())

	if _, err := tx.ExecContext(ctx,
		`UPDATE themes SET active = 0, updated_at = ? WHERE active = 1 AND id != ?`,
		now, id); err != nil {
		return fmt.Errorf("deactivate themes: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE themes SET active = 1, updated_at = ? WHERE id = ?`, now, id)
	if err != nil {
		return fmt.Errorf("activate theme: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}

	return tx.Commit()
}

// ActiveTheme returns the active theme.
// Returns store.ErrNotFound when no theme is active.
func (s *Store) ActiveTheme(ctx context.Context) (*domain.Theme, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+themeColumns+` FROM themes WHERE active = 1`)

	th, err := scanTheme(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return th, nil
}
