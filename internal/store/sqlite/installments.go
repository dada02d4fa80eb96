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

// installmentColumns is the ordered list of columns selected in installment
// queries. Must match the scan order in scanInstallment.
const installmentColumns = `id, created_at, updated_at, story_id, ordinal,
	is_current, title, published, length, length_unit, file_path, checksum`

func scanInstallment(scanner interface{ Scan(dest ...any) error }) (*domain.Installment, error) {
	var inst domain.Installment

	var (
		createdAt  string
		updatedAt  string
		isCurrent  int
		title      sql.NullString
		published  string
		length     sql.NullInt64
		lengthUnit sql.NullString
	)

	err := scanner.Scan(
		&inst.ID,
		&createdAt,
		&updatedAt,
		&inst.StoryID,
		&inst.Ordinal,
		&isCurrent,
		&title,
		&published,
		&length,
		&lengthUnit,
		&inst.FilePath,
		&inst.Checksum,
	)
	if err != nil {
		return nil, err
	}

	inst.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	inst.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	inst.Published, err = parseDate(published)
	if err != nil {
		return nil, err
	}

	inst.IsCurrent = isCurrent != 0
	if title.Valid {
		inst.Title = title.String
	}
	if length.Valid {
		inst.Length = int(length.Int64)
	}
	if lengthUnit.Valid {
		inst.LengthUnit = domain.LengthUnit(lengthUnit.String)
	}

	return &inst, nil
}

// CreateInstallment inserts a new installment revision. When the new row is
// current, every prior row for the same (story, ordinal) loses its current
// flag in the same transaction.
// Returns store.ErrAlreadyExists when (story, ordinal, published) already
// has a revision.
func (s *Store) CreateInstallment(ctx context.Context, inst *domain.Installment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if inst.IsCurrent {
		if _, err := tx.ExecContext(ctx,
			`UPDATE installments SET is_current = 0, updated_at = ?
			WHERE story_id = ? AND ordinal = ? AND is_current = 1`,
			formatTime(inst.UpdatedAt), inst.StoryID, inst.Ordinal); err != nil {
			return fmt.Errorf("supersede installments: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO installments (
			id, created_at, updated_at, story_id, ordinal,
			is_current, title, published, length, length_unit, file_path, checksum
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inst.ID,
		formatTime(inst.CreatedAt),
		formatTime(inst.UpdatedAt),
		inst.StoryID,
		inst.Ordinal,
		boolToInt(inst.IsCurrent),
		nullString(inst.Title),
		formatDate(inst.Published),
		nullInt64(int64(inst.Length)),
		nullString(string(inst.LengthUnit)),
		inst.FilePath,
		inst.Checksum,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}

	return tx.Commit()
}

// GetInstallment retrieves an installment revision by id.
// Returns store.ErrNotFound if the revision does not exist.
func (s *Store) GetInstallment(ctx context.Context, id string) (*domain.Installment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+installmentColumns+` FROM installments WHERE id = ?`, id)

	inst, err := scanInstallment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return inst, nil
}

// CurrentInstallment retrieves the current revision of one ordinal.
// Returns store.ErrNotFound if the ordinal has no current row.
func (s *Store) CurrentInstallment(ctx context.Context, storyID string, ordinal int) (*domain.Installment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+installmentColumns+` FROM installments
		WHERE story_id = ? AND ordinal = ? AND is_current = 1`,
		storyID, ordinal)

	inst, err := scanInstallment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return inst, nil
}

// CurrentInstallments returns the current revision of every ordinal of a
// story, ordered by ordinal.
func (s *Store) CurrentInstallments(ctx context.Context, storyID string) ([]*domain.Installment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+installmentColumns+` FROM installments
		WHERE story_id = ? AND is_current = 1
		ORDER BY ordinal ASC`, storyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectInstallments(rows)
}

// InstallmentRevisions returns every historical revision of one ordinal,
// oldest first.
func (s *Store) InstallmentRevisions(ctx context.Context, storyID string, ordinal int) ([]*domain.Installment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+installmentColumns+` FROM installments
		WHERE story_id = ? AND ordinal = ?
		ORDER BY published ASC, id ASC`, storyID, ordinal)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectInstallments(rows)
}

// UpdateInstallment performs a full row update on an existing revision.
// Returns store.ErrNotFound if the revision does not exist.
func (s *Store) UpdateInstallment(ctx context.Context, inst *domain.Installment) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE installments SET
			updated_at = ?,
			is_current = ?,
			title = ?,
			published = ?,
			length = ?,
			length_unit = ?,
			file_path = ?,
			checksum = ?
		WHERE id = ?`,
		formatTime(inst.UpdatedAt),
		boolToInt(inst.IsCurrent),
		nullString(inst.Title),
		formatDate(inst.Published),
		nullInt64(int64(inst.Length)),
		nullString(string(inst.LengthUnit)),
		inst.FilePath,
		inst.Checksum,
		inst.ID,
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

// SetInstallmentAuthors replaces the author credits of one revision.
func (s *Store) SetInstallmentAuthors(ctx context.Context, installmentID string, authorIDs []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM installment_authors WHERE installment_id = ?`, installmentID); err != nil {
		return fmt.Errorf("delete installment_authors: %w", err)
	}
	for _, authorID := range authorIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO installment_authors (installment_id, author_id) VALUES (?, ?)`,
			installmentID, authorID); err != nil {
			return fmt.Errorf("insert installment_author: %w", err)
		}
	}

	return tx.Commit()
}

// InstallmentAuthors returns the credited authors of one revision,
// case-insensitive by name.
func (s *Store) InstallmentAuthors(ctx context.Context, installmentID string) ([]domain.AuthorRef, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT a.name, a.slug FROM installment_authors ia
		JOIN authors a ON a.id = ia.author_id
		WHERE ia.installment_id = ?
		ORDER BY a.name COLLATE NOCASE ASC`, installmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []domain.AuthorRef
	for rows.Next() {
		var ref domain.AuthorRef
		if err := rows.Scan(&ref.Name, &ref.Slug); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return refs, nil
}

func collectInstallments(rows *sql.Rows) ([]*domain.Installment, error) {
	var items []*domain.Installment
	for rows.Next() {
		inst, err := scanInstallment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
