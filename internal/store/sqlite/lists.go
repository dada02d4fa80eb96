package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/storykeep/storykeep-server/internal/domain"
	"github.com/storykeep/storykeep-server/internal/store"
)

const listColumns = `id, created_at, updated_at, owner_id, name, color, priority, auto_sort`

func scanList(scanner interface{ Scan(dest ...any) error }) (*domain.List, error) {
	var l domain.List

	var (
		createdAt string
		updatedAt string
		autoSort  int
	)
	err := scanner.Scan(&l.ID, &createdAt, &updatedAt, &l.OwnerID, &l.Name,
		&l.Color, &l.Priority, &autoSort)
	if err != nil {
		return nil, err
	}

	l.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	l.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	l.AutoSort = autoSort != 0

	return &l, nil
}

// CreateList inserts a new reading list.
// Returns store.ErrAlreadyExists when the owner already has a list with the
// same name.
func (s *Store) CreateList(ctx context.Context, l *domain.List) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO lists (id, created_at, updated_at, owner_id, name, color, priority, auto_sort)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID,
		formatTime(l.CreatedAt),
		formatTime(l.UpdatedAt),
		l.OwnerID,
		l.Name,
		l.Color,
		l.Priority,
		boolToInt(l.AutoSort),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetList retrieves a list by id, scoped to its owner.
// Returns store.ErrNotFound when the list does not exist or belongs to a
// different owner.
func (s *Store) GetList(ctx context.Context, ownerID, id string) (*domain.List, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+listColumns+` FROM lists WHERE id = ? AND owner_id = ?`, id, ownerID)

	l, err := scanList(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

// ListsByOwner returns the owner's lists ordered by priority then name.
func (s *Store) ListsByOwner(ctx context.Context, ownerID string) ([]*domain.List, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+listColumns+` FROM lists
		WHERE owner_id = ?
		ORDER BY priority DESC, name COLLATE NOCASE ASC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*domain.List
	for rows.Next() {
		l, err := scanList(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateList performs a full row update on an existing list.
// Returns store.ErrNotFound if the list does not exist,
// store.ErrAlreadyExists on an owner+name collision.
func (s *Store) UpdateList(ctx context.Context, l *domain.List) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE lists SET updated_at = ?, name = ?, color = ?, priority = ?, auto_sort = ?
		WHERE id = ? AND owner_id = ?`,
		formatTime(l.UpdatedAt),
		l.Name,
		l.Color,
		l.Priority,
		boolToInt(l.AutoSort),
		l.ID,
		l.OwnerID,
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

// DeleteList removes a list and cascades its entries away.
func (s *Store) DeleteList(ctx context.Context, ownerID, id string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM lists WHERE id = ? AND owner_id = ?`, id, ownerID)
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

// ToggleListEntry adds the story to the list, or removes it when already
// present. Returns true when the story ended up on the list. A concurrent
// duplicate insert is treated as already-present, not an error.
func (s *Store) ToggleListEntry(ctx context.Context, listID, storyID string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM list_entries WHERE list_id = ? AND story_id = ?`, listID, storyID)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if n > 0 {
		// The story was on the list; the toggle removed it.
		return false, nil
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO list_entries (id, list_id, story_id, added_at)
		VALUES (?, ?, ?, ?)`,
		uuid.New().String(),
		listID,
		storyID,
		formatTime(time.Now()),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			// Lost a race with another toggle; the story is on the list.
			return true, nil
		}
		return false, err
	}
	return true, nil
}

// ListEntries returns the entries of a list in insertion order.
func (s *Store) ListEntries(ctx context.Context, listID string) ([]*domain.ListEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, list_id, story_id, added_at FROM list_entries
		WHERE list_id = ?
		ORDER BY added_at ASC, id ASC`, listID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*domain.ListEntry
	for rows.Next() {
		var (
			e       domain.ListEntry
			addedAt string
		)
		if err := rows.Scan(&e.ID, &e.ListID, &e.StoryID, &addedAt); err != nil {
			return nil, err
		}
		e.AddedAt, err = parseTime(addedAt)
		if err != nil {
			return nil, err
		}
		items = append(items, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// StoriesInList returns the listed stories on a list. Auto-sorted lists
// order by sort title; manual lists keep insertion order. Removed stories
// are excluded.
func (s *Store) StoriesInList(ctx context.Context, l *domain.List) ([]*domain.Story, error) {
	order := `le.added_at ASC, le.id ASC`
	if l.AutoSort {
		order = `stories.sort_title ASC, stories.id ASC`
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+storyColumnsQualified+` FROM stories
		JOIN list_entries le ON le.story_id = stories.id
		WHERE le.list_id = ? AND stories.removed IS NULL
		ORDER BY `+order, l.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectStories(rows)
}
