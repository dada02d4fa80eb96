package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/storykeep/storykeep-server/internal/domain"
	"github.com/storykeep/storykeep-server/internal/store"
)

const sourceColumns = `id, created_at, updated_at, name, abbr, website`

func scanSource(scanner interface{ Scan(dest ...any) error }) (*domain.Source, error) {
	var src domain.Source

	var (
		createdAt string
		updatedAt string
		abbr      sql.NullString
		website   sql.NullString
	)
	err := scanner.Scan(&src.ID, &createdAt, &updatedAt, &src.Name, &abbr, &website)
	if err != nil {
		return nil, err
	}

	src.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	src.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	if abbr.Valid {
		src.Abbr = abbr.String
	}
	if website.Valid {
		src.Website = website.String
	}

	return &src, nil
}

// CreateSource inserts a new external archive reference.
func (s *Store) CreateSource(ctx context.Context, src *domain.Source) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sources (id, created_at, updated_at, name, abbr, website)
		VALUES (?, ?, ?, ?, ?, ?)`,
		src.ID,
		formatTime(src.CreatedAt),
		formatTime(src.UpdatedAt),
		src.Name,
		nullString(src.Abbr),
		nullString(src.Website),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetSource retrieves a source by id.
// Returns store.ErrNotFound if the source does not exist.
func (s *Store) GetSource(ctx context.Context, id string) (*domain.Source, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sourceColumns+` FROM sources WHERE id = ?`, id)

	src, err := scanSource(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return src, nil
}

// ListSources returns every source ordered by name, ignoring case.
func (s *Store) ListSources(ctx context.Context) ([]*domain.Source, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sourceColumns+` FROM sources ORDER BY name COLLATE NOCASE ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*domain.Source
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, src)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateSource performs a full row update on an existing source.
// Returns store.ErrNotFound if the source does not exist.
func (s *Store) UpdateSource(ctx context.Context, src *domain.Source) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE sources SET updated_at = ?, name = ?, abbr = ?, website = ?
		WHERE id = ?`,
		formatTime(src.UpdatedAt),
		src.Name,
		nullString(src.Abbr),
		nullString(src.Website),
		src.ID,
	)
	if err != nil {
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
