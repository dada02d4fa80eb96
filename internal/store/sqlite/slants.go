package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/storykeep/storykeep-server/internal/domain"
	"github.com/storykeep/storykeep-server/internal/store"
)

const slantColumns = `id, created_at, updated_at, name, display_order, code_abbr`

func scanSlant(scanner interface{ Scan(dest ...any) error }) (*domain.Slant, error) {
	var sl domain.Slant

	var (
		createdAt string
		updatedAt string
		codeAbbr  sql.NullString
	)
	err := scanner.Scan(&sl.ID, &createdAt, &updatedAt, &sl.Name, &sl.DisplayOrder, &codeAbbr)
	if err != nil {
		return nil, err
	}

	sl.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	sl.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	if codeAbbr.Valid {
		sl.CodeAbbr = codeAbbr.String
	}

	return &sl, nil
}

// CreateSlant inserts a new slant.
// Returns store.ErrAlreadyExists on a duplicate id or name.
func (s *Store) CreateSlant(ctx context.Context, sl *domain.Slant) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO slants (id, created_at, updated_at, name, display_order, code_abbr)
		VALUES (?, ?, ?, ?, ?, ?)`,
		sl.ID,
		formatTime(sl.CreatedAt),
		formatTime(sl.UpdatedAt),
		sl.Name,
		sl.DisplayOrder,
		nullString(sl.CodeAbbr),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetSlant retrieves a slant by id.
// Returns store.ErrNotFound if the slant does not exist.
func (s *Store) GetSlant(ctx context.Context, id string) (*domain.Slant, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+slantColumns+` FROM slants WHERE id = ?`, id)

	sl, err := scanSlant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return sl, nil
}

// ListSlants returns every slant in display order.
func (s *Store) ListSlants(ctx context.Context) ([]*domain.Slant, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+slantColumns+` FROM slants ORDER BY display_order ASC, name COLLATE NOCASE ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*domain.Slant
	for rows.Next() {
		sl, err := scanSlant(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, sl)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateSlant performs a full row update on an existing slant.
// Returns store.ErrNotFound if the slant does not exist.
func (s *Store) UpdateSlant(ctx context.Context, sl *domain.Slant) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE slants SET updated_at = ?, name = ?, display_order = ?, code_abbr = ?
		WHERE id = ?`,
		formatTime(sl.UpdatedAt),
		sl.Name,
		sl.DisplayOrder,
		nullString(sl.CodeAbbr),
		sl.ID,
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
