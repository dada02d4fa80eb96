package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/storykeep/storykeep-server/internal/domain"
	"github.com/storykeep/storykeep-server/internal/store"
)

const sagaColumns = `id, created_at, updated_at, name, sort_name, synopsis`

func scanSaga(scanner interface{ Scan(dest ...any) error }) (*domain.Saga, error) {
	var sg domain.Saga

	var (
		createdAt string
		updatedAt string
		synopsis  sql.NullString
	)
	err := scanner.Scan(&sg.ID, &createdAt, &updatedAt, &sg.Name, &sg.SortName, &synopsis)
	if err != nil {
		return nil, err
	}

	sg.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	sg.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	if synopsis.Valid {
		sg.Synopsis = synopsis.String
	}

	return &sg, nil
}

// CreateSaga inserts a new saga.
// Returns store.ErrAlreadyExists when the short id is already taken; the
// caller regenerates and retries.
func (s *Store) CreateSaga(ctx context.Context, sg *domain.Saga) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sagas (id, created_at, updated_at, name, sort_name, synopsis)
		VALUES (?, ?, ?, ?, ?, ?)`,
		sg.ID,
		formatTime(sg.CreatedAt),
		formatTime(sg.UpdatedAt),
		sg.Name,
		sg.SortName,
		nullString(sg.Synopsis),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetSaga retrieves a saga by short id.
// Returns store.ErrNotFound if the saga does not exist.
func (s *Store) GetSaga(ctx context.Context, id string) (*domain.Saga, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sagaColumns+` FROM sagas WHERE id = ?`, id)

	sg, err := scanSaga(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return sg, nil
}

// ListSagas returns every saga ordered by sort name.
func (s *Store) ListSagas(ctx context.Context) ([]*domain.Saga, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sagaColumns+` FROM sagas ORDER BY sort_name ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*domain.Saga
	for rows.Next() {
		sg, err := scanSaga(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, sg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateSaga performs a full row update on an existing saga.
// Returns store.ErrNotFound if the saga does not exist.
func (s *Store) UpdateSaga(ctx context.Context, sg *domain.Saga) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE sagas SET updated_at = ?, name = ?, sort_name = ?, synopsis = ?
		WHERE id = ?`,
		formatTime(sg.UpdatedAt),
		sg.Name,
		sg.SortName,
		nullString(sg.Synopsis),
		sg.ID,
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

// DeleteSaga removes a saga and cascades its entries away.
func (s *Store) DeleteSaga(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM sagas WHERE id = ?`, id)
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

// AddSagaEntry places a story in a saga at an explicit position.
// Returns store.ErrAlreadyExists when the story is already in the saga.
func (s *Store) AddSagaEntry(ctx context.Context, e *domain.SagaEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO saga_entries (id, saga_id, story_id, position)
		VALUES (?, ?, ?, ?)`,
		e.ID, e.SagaID, e.StoryID, e.Order)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// RemoveSagaEntry removes a story from a saga.
func (s *Store) RemoveSagaEntry(ctx context.Context, sagaID, storyID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM saga_entries WHERE saga_id = ? AND story_id = ?`, sagaID, storyID)
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

// SagaEntries returns the entries of a saga in reading order.
func (s *Store) SagaEntries(ctx context.Context, sagaID string) ([]*domain.SagaEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, saga_id, story_id, position FROM saga_entries
		WHERE saga_id = ?
		ORDER BY position ASC, id ASC`, sagaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*domain.SagaEntry
	for rows.Next() {
		var e domain.SagaEntry
		if err := rows.Scan(&e.ID, &e.SagaID, &e.StoryID, &e.Order); err != nil {
			return nil, err
		}
		items = append(items, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// MaxSagaPosition returns the highest position in a saga, 0 when empty.
func (s *Store) MaxSagaPosition(ctx context.Context, sagaID string) (int, error) {
	var max sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(position) FROM saga_entries WHERE saga_id = ?`, sagaID).Scan(&max)
	if err != nil {
		return 0, err
	}
	if !max.Valid {
		return 0, nil
	}
	return int(max.Int64), nil
}

// RenumberSaga reassigns contiguous positions 1..n in current reading order.
func (s *Store) RenumberSaga(ctx context.Context, sagaID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM saga_entries WHERE saga_id = ? ORDER BY position ASC, id ASC`, sagaID)
	if err != nil {
		return err
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	for i, id := range ids {
		if _, err := tx.ExecContext(ctx,
			`UPDATE saga_entries SET position = ? WHERE id = ?`, i+1, id); err != nil {
			return fmt.Errorf("renumber entry: %w", err)
		}
	}

	return tx.Commit()
}

// SagaPlacement locates a story within a saga: 1-based index, total entry
// count, and the neighboring entries.
// Returns store.ErrNotFound when the story is not in the saga.
func (s *Store) SagaPlacement(ctx context.Context, sagaID, storyID string) (*store.SagaPlacement, error) {
	entries, err := s.SagaEntries(ctx, sagaID)
	if err != nil {
		return nil, err
	}

	for i, e := range entries {
		if e.StoryID != storyID {
			continue
		}
		p := &store.SagaPlacement{
			Index: i + 1,
			Total: len(entries),
		}
		if i > 0 {
			p.Prev = entries[i-1]
		}
		if i < len(entries)-1 {
			p.Next = entries[i+1]
		}
		return p, nil
	}
	return nil, store.ErrNotFound
}

// SagasForStory returns the sagas containing a story, ordered by sort name.
func (s *Store) SagasForStory(ctx context.Context, storyID string) ([]*domain.Saga, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT sagas.id, sagas.created_at, sagas.updated_at, sagas.name,
			sagas.sort_name, sagas.synopsis
		FROM sagas
		JOIN saga_entries se ON se.saga_id = sagas.id
		WHERE se.story_id = ?
		ORDER BY sagas.sort_name ASC, sagas.id ASC`, storyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*domain.Saga
	for rows.Next() {
		sg, err := scanSaga(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, sg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
