package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/storykeep/storykeep-server/internal/domain"
	"github.com/storykeep/storykeep-server/internal/store"
)

// CreateCode inserts a new classification code.
// Returns store.ErrAlreadyExists on a duplicate abbreviation.
func (s *Store) CreateCode(ctx context.Context, c *domain.Code) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO codes (abbr, name, created_at) VALUES (?, ?, ?)`,
		c.Abbr,
		nullString(c.Name),
		formatTime(c.CreatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetCode retrieves a code by abbreviation.
// Returns store.ErrNotFound if the code does not exist.
func (s *Store) GetCode(ctx context.Context, abbr string) (*domain.Code, error) {
	var (
		c         domain.Code
		name      sql.NullString
		createdAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT abbr, name, created_at FROM codes WHERE abbr = ?`, abbr).
		Scan(&c.Abbr, &name, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if name.Valid {
		c.Name = name.String
	}
	c.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCodes returns every code ordered by abbreviation.
func (s *Store) ListCodes(ctx context.Context) ([]*domain.Code, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT abbr, name, created_at FROM codes ORDER BY abbr ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*domain.Code
	for rows.Next() {
		var (
			c         domain.Code
			name      sql.NullString
			createdAt string
		)
		if err := rows.Scan(&c.Abbr, &name, &createdAt); err != nil {
			return nil, err
		}
		if name.Valid {
			c.Name = name.String
		}
		c.CreatedAt, err = parseTime(createdAt)
		if err != nil {
			return nil, err
		}
		items = append(items, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// DeleteCode removes a code. Story links are cascaded away.
func (s *Store) DeleteCode(ctx context.Context, abbr string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM codes WHERE abbr = ?`, abbr)
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
