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

// storyColumns is the ordered list of columns selected in story queries.
// Must match the scan order in scanStory.
const storyColumns = `id, created_at, updated_at, title, sort_title, slug,
	synopsis, slant_id, source_id, published, updated, removed`

// storyColumnsQualified disambiguates story columns in joined queries.
const storyColumnsQualified = `stories.id, stories.created_at, stories.updated_at,
	stories.title, stories.sort_title, stories.slug, stories.synopsis,
	stories.slant_id, stories.source_id, stories.published, stories.updated,
	stories.removed`

// scanStory scans a sql.Row (or sql.Rows via its Scan method) into a domain.Story.
func scanStory(scanner interface{ Scan(dest ...any) error }) (*domain.Story, error) {
	var st domain.Story

	var (
		createdAt string
		updatedAt string
		synopsis  sql.NullString
		slantID   sql.NullString
		sourceID  sql.NullString
		published sql.NullString
		updated   sql.NullString
		removed   sql.NullString
	)

	err := scanner.Scan(
		&st.ID,
		&createdAt,
		&updatedAt,
		&st.Title,
		&st.SortTitle,
		&st.Slug,
		&synopsis,
		&slantID,
		&sourceID,
		&published,
		&updated,
		&removed,
	)
	if err != nil {
		return nil, err
	}

	st.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	st.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	if synopsis.Valid {
		st.Synopsis = synopsis.String
	}
	if slantID.Valid {
		st.SlantID = slantID.String
	}
	if sourceID.Valid {
		st.SourceID = sourceID.String
	}

	st.Published, err = parseNullableDate(published)
	if err != nil {
		return nil, err
	}
	st.Updated, err = parseNullableDate(updated)
	if err != nil {
		return nil, err
	}
	st.Removed, err = parseNullableDate(removed)
	if err != nil {
		return nil, err
	}

	return &st, nil
}

// CreateStory inserts a new story.
// Returns store.ErrAlreadyExists on a duplicate id or slug.
func (s *Store) CreateStory(ctx context.Context, st *domain.Story) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stories (
			id, created_at, updated_at, title, sort_title, slug,
			synopsis, slant_id, source_id, published, updated, removed
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		st.ID,
		formatTime(st.CreatedAt),
		formatTime(st.UpdatedAt),
		st.Title,
		st.SortTitle,
		st.Slug,
		nullString(st.Synopsis),
		nullString(st.SlantID),
		nullString(st.SourceID),
		nullDateString(st.Published),
		nullDateString(st.Updated),
		nullDateString(st.Removed),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetStory retrieves a story by id, removed or not.
// Returns store.ErrNotFound if the story does not exist.
func (s *Store) GetStory(ctx context.Context, id string) (*domain.Story, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+storyColumns+` FROM stories WHERE id = ?`, id)

	st, err := scanStory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return st, nil
}

// GetStoryBySlug retrieves a listed story by slug. Removed stories are
// treated as absent. Returns store.ErrNotFound if no such story.
func (s *Store) GetStoryBySlug(ctx context.Context, slug string) (*domain.Story, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+storyColumns+` FROM stories WHERE slug = ? AND removed IS NULL`, slug)

	st, err := scanStory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return st, nil
}

// StoriesByIDs retrieves listed stories by id in one query, keyed by id.
// Removed or unknown ids are simply absent from the map.
func (s *Store) StoriesByIDs(ctx context.Context, ids []string) (map[string]*domain.Story, error) {
	if len(ids) == 0 {
		return make(map[string]*domain.Story), nil
	}

	placeholders, args := inArgs(ids)
	query := fmt.Sprintf(
		`SELECT `+storyColumns+` FROM stories
		WHERE id IN (%s) AND removed IS NULL`,
		placeholders,
	)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]*domain.Story, len(ids))
	for rows.Next() {
		st, err := scanStory(rows)
		if err != nil {
			return nil, err
		}
		result[st.ID] = st
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateStory performs a full row update on an existing story.
// Returns store.ErrNotFound if the story does not exist,
// store.ErrAlreadyExists if the new slug collides with another story.
func (s *Store) UpdateStory(ctx context.Context, st *domain.Story) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE stories SET
			updated_at = ?,
			title = ?,
			sort_title = ?,
			slug = ?,
			synopsis = ?,
			slant_id = ?,
			source_id = ?,
			published = ?,
			updated = ?,
			removed = ?
		WHERE id = ?`,
		formatTime(st.UpdatedAt),
		st.Title,
		st.SortTitle,
		st.Slug,
		nullString(st.Synopsis),
		nullString(st.SlantID),
		nullString(st.SourceID),
		nullDateString(st.Published),
		nullDateString(st.Updated),
		nullDateString(st.Removed),
		st.ID,
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

// RemoveStory soft-removes a story as of the given date. The row stays in
// place so historical data survives, but every listing excludes it.
func (s *Store) RemoveStory(ctx context.Context, id string, date time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE stories SET removed = ?, updated_at = ? WHERE id = ?`,
		formatDate(date), formatTime(time.Now()), id)
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

// ListStories returns paginated listed stories ordered by sort title then id.
// Removed stories are excluded.
func (s *Store) ListStories(ctx context.Context, params store.PaginationParams) (*store.PaginatedResult[*domain.Story], error) {
	params.Validate()

	var cursorSort, cursorID string
	if params.Cursor != "" {
		decoded, err := store.DecodeCursor(params.Cursor)
		if err != nil {
			return nil, fmt.Errorf("decode cursor: %w", err)
		}
		// The id comes first: ids never contain the separator, while a
		// sort title may.
		parts := strings.SplitN(decoded, "|", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid cursor format")
		}
		cursorID = parts[0]
		cursorSort = parts[1]
	}

	var total int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM stories WHERE removed IS NULL`).Scan(&total)
	if err != nil {
		return nil, err
	}

	// Fetch one extra to determine HasMore.
	fetchLimit := params.Limit + 1

	var rows *sql.Rows
	if cursorSort != "" || cursorID != "" {
		rows, err = s.db.QueryContext(ctx,
			`SELECT `+storyColumns+` FROM stories
			WHERE removed IS NULL
				AND (sort_title > ? OR (sort_title = ? AND id > ?))
			ORDER BY sort_title ASC, id ASC
			LIMIT ?`,
			cursorSort, cursorSort, cursorID, fetchLimit)
	} else {
		rows, err = s.db.QueryContext(ctx,
			`SELECT `+storyColumns+` FROM stories
			WHERE removed IS NULL
			ORDER BY sort_title ASC, id ASC
			LIMIT ?`,
			fetchLimit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := collectStories(rows)
	if err != nil {
		return nil, err
	}

	result := &store.PaginatedResult[*domain.Story]{
		Items: items,
		Total: total,
	}

	if len(items) > params.Limit {
		result.HasMore = true
		result.Items = items[:params.Limit]
		last := result.Items[params.Limit-1]
		result.NextCursor = store.EncodeCursor(last.ID + "|" + last.SortTitle)
	}

	if result.Items == nil {
		result.Items = []*domain.Story{}
	}

	return result, nil
}

// StoriesByLetter returns listed stories whose sort title starts with the
// given initial, ordered by sort title. The "_" bucket collects titles that
// start with a non-letter.
func (s *Store) StoriesByLetter(ctx context.Context, letter string) ([]*domain.Story, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if letter == "_" {
		rows, err = s.db.QueryContext(ctx,
			`SELECT `+storyColumns+` FROM stories
			WHERE removed IS NULL
				AND upper(substr(sort_title, 1, 1)) NOT BETWEEN 'A' AND 'Z'
			ORDER BY sort_title ASC, id ASC`)
	} else {
		rows, err = s.db.QueryContext(ctx,
			`SELECT `+storyColumns+` FROM stories
			WHERE removed IS NULL AND upper(substr(sort_title, 1, 1)) = upper(?)
			ORDER BY sort_title ASC, id ASC`, letter)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectStories(rows)
}

// StoriesByAuthor returns listed stories credited to the author, ordered by
// sort title.
func (s *Store) StoriesByAuthor(ctx context.Context, authorID string) ([]*domain.Story, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+storyColumnsQualified+` FROM stories
		JOIN story_authors sa ON sa.story_id = stories.id
		WHERE sa.author_id = ? AND stories.removed IS NULL
		ORDER BY stories.sort_title ASC, stories.id ASC`, authorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectStories(rows)
}

// StoriesByCode returns listed stories tagged with the code, ordered by
// sort title.
func (s *Store) StoriesByCode(ctx context.Context, abbr string) ([]*domain.Story, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+storyColumnsQualified+` FROM stories
		JOIN story_codes sc ON sc.story_id = stories.id
		WHERE sc.code_abbr = ? AND stories.removed IS NULL
		ORDER BY stories.sort_title ASC, stories.id ASC`, abbr)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectStories(rows)
}

// SetStoryAuthors replaces the author credits of a story in one transaction.
func (s *Store) SetStoryAuthors(ctx context.Context, storyID string, authorIDs []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM story_authors WHERE story_id = ?`, storyID); err != nil {
		return fmt.Errorf("delete story_authors: %w", err)
	}
	for _, authorID := range authorIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO story_authors (story_id, author_id) VALUES (?, ?)`,
			storyID, authorID); err != nil {
			return fmt.Errorf("insert story_author: %w", err)
		}
	}

	return tx.Commit()
}

// SetStoryCodes replaces the code markers of a story in one transaction.
func (s *Store) SetStoryCodes(ctx context.Context, storyID string, abbrs []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM story_codes WHERE story_id = ?`, storyID); err != nil {
		return fmt.Errorf("delete story_codes: %w", err)
	}
	for _, abbr := range abbrs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO story_codes (story_id, code_abbr) VALUES (?, ?)`,
			storyID, abbr); err != nil {
			return fmt.Errorf("insert story_code: %w", err)
		}
	}

	return tx.Commit()
}

// collectStories drains rows into a slice of stories.
func collectStories(rows *sql.Rows) ([]*domain.Story, error) {
	var items []*domain.Story
	for rows.Next() {
		st, err := scanStory(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
