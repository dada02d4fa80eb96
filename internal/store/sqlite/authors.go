package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/storykeep/storykeep-server/internal/domain"
	"github.com/storykeep/storykeep-server/internal/store"
)

// authorColumns is the ordered list of columns selected in author queries.
// Must match the scan order in scanAuthor.
const authorColumns = `id, created_at, updated_at, name, slug`

func scanAuthor(scanner interface{ Scan(dest ...any) error }) (*domain.Author, error) {
	var a domain.Author

	var createdAt, updatedAt string
	err := scanner.Scan(&a.ID, &createdAt, &updatedAt, &a.Name, &a.Slug)
	if err != nil {
		return nil, err
	}

	a.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	a.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &a, nil
}

// CreateAuthor inserts a new author.
// Returns store.ErrAlreadyExists on a duplicate id or slug.
func (s *Store) CreateAuthor(ctx context.Context, a *domain.Author) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO authors (id, created_at, updated_at, name, slug)
		VALUES (?, ?, ?, ?, ?)`,
		a.ID,
		formatTime(a.CreatedAt),
		formatTime(a.UpdatedAt),
		a.Name,
		a.Slug,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetAuthor retrieves an author by id.
// Returns store.ErrNotFound if the author does not exist.
func (s *Store) GetAuthor(ctx context.Context, id string) (*domain.Author, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+authorColumns+` FROM authors WHERE id = ?`, id)

	a, err := scanAuthor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GetAuthorBySlug retrieves an author whose slug matches, ignoring case.
// Returns store.ErrNotFound if no author matches.
func (s *Store) GetAuthorBySlug(ctx context.Context, slug string) (*domain.Author, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+authorColumns+` FROM authors WHERE slug = ? COLLATE NOCASE`, slug)

	a, err := scanAuthor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// UpdateAuthor performs a full row update on an existing author.
// Returns store.ErrNotFound if the author does not exist,
// store.ErrAlreadyExists if the new slug collides with another author.
func (s *Store) UpdateAuthor(ctx context.Context, a *domain.Author) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE authors SET updated_at = ?, name = ?, slug = ? WHERE id = ?`,
		formatTime(a.UpdatedAt),
		a.Name,
		a.Slug,
		a.ID,
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

// ListAuthors returns every author ordered by name, ignoring case.
func (s *Store) ListAuthors(ctx context.Context) ([]*domain.Author, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+authorColumns+` FROM authors ORDER BY name COLLATE NOCASE ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*domain.Author
	for rows.Next() {
		a, err := scanAuthor(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
