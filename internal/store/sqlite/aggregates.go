package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/storykeep/storykeep-server/internal/domain"
	"github.com/storykeep/storykeep-server/internal/store"
)

// Batch aggregate queries. Listing pages fetch per-story derived values for
// a whole page of stories at once, one query per aggregate, never one query
// per story.

// inArgs builds an IN-clause placeholder list and its argument slice.
func inArgs(ids []string) (string, []any) {
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	return strings.Join(placeholders, ","), args
}

// AuthorsByStory returns the credited authors of each story, ordered
// case-insensitively by name and de-duplicated. Stories without credits are
// omitted from the map.
func (s *Store) AuthorsByStory(ctx context.Context, storyIDs []string) (map[string][]domain.AuthorRef, error) {
	if len(storyIDs) == 0 {
		return make(map[string][]domain.AuthorRef), nil
	}

	placeholders, args := inArgs(storyIDs)
	query := fmt.Sprintf(
		`SELECT DISTINCT sa.story_id, a.name, a.slug
		FROM story_authors sa
		JOIN authors a ON a.id = sa.author_id
		WHERE sa.story_id IN (%s)
		ORDER BY a.name COLLATE NOCASE ASC, a.slug ASC`,
		placeholders,
	)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string][]domain.AuthorRef)
	for rows.Next() {
		var (
			storyID string
			ref     domain.AuthorRef
		)
		if err := rows.Scan(&storyID, &ref.Name, &ref.Slug); err != nil {
			return nil, err
		}
		result[storyID] = append(result[storyID], ref)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// CodeAbbrsByStory returns each story's code abbreviations joined with a
// single space, ordered alphabetically. Stories without codes are omitted.
func (s *Store) CodeAbbrsByStory(ctx context.Context, storyIDs []string) (map[string]string, error) {
	if len(storyIDs) == 0 {
		return make(map[string]string), nil
	}

	placeholders, args := inArgs(storyIDs)
	query := fmt.Sprintf(
		`SELECT story_id, GROUP_CONCAT(code_abbr, ' ')
		FROM (
			SELECT story_id, code_abbr FROM story_codes
			WHERE story_id IN (%s)
			ORDER BY code_abbr ASC
		)
		GROUP BY story_id`,
		placeholders,
	)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]string)
	for rows.Next() {
		var (
			storyID string
			abbrs   sql.NullString
		)
		if err := rows.Scan(&storyID, &abbrs); err != nil {
			return nil, err
		}
		if abbrs.Valid {
			result[storyID] = abbrs.String
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// DistinctCodeAbbrs returns the union of code abbreviations across a set of
// stories, alphabetical, space-joined. Used for saga-wide code rollups.
func (s *Store) DistinctCodeAbbrs(ctx context.Context, storyIDs []string) (string, error) {
	if len(storyIDs) == 0 {
		return "", nil
	}

	placeholders, args := inArgs(storyIDs)
	query := fmt.Sprintf(
		`SELECT GROUP_CONCAT(code_abbr, ' ')
		FROM (
			SELECT DISTINCT code_abbr FROM story_codes
			WHERE story_id IN (%s)
			ORDER BY code_abbr ASC
		)`,
		placeholders,
	)

	var abbrs sql.NullString
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&abbrs); err != nil {
		return "", err
	}
	if !abbrs.Valid {
		return "", nil
	}
	return abbrs.String, nil
}

// InstallmentStatsByStory summarizes the current installment rows of each
// story: body-present ordinal count, body-missing count, and the lowest and
// highest ordinal that has a stored body. Stories with no current rows are
// omitted.
func (s *Store) InstallmentStatsByStory(ctx context.Context, storyIDs []string) (map[string]store.InstallmentStats, error) {
	if len(storyIDs) == 0 {
		return make(map[string]store.InstallmentStats), nil
	}

	placeholders, args := inArgs(storyIDs)
	query := fmt.Sprintf(
		`SELECT story_id,
			COUNT(CASE WHEN checksum != '' THEN 1 END),
			SUM(CASE WHEN checksum = '' THEN 1 ELSE 0 END),
			MIN(CASE WHEN checksum != '' THEN ordinal END),
			MAX(CASE WHEN checksum != '' THEN ordinal END)
		FROM installments
		WHERE story_id IN (%s) AND is_current = 1
		GROUP BY story_id`,
		placeholders,
	)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]store.InstallmentStats)
	for rows.Next() {
		var (
			storyID string
			stats   store.InstallmentStats
			first   sql.NullInt64
			last    sql.NullInt64
		)
		if err := rows.Scan(&storyID, &stats.InstallmentCount, &stats.MissingCount, &first, &last); err != nil {
			return nil, err
		}
		if first.Valid {
			stats.FirstPublished = int(first.Int64)
		}
		if last.Valid {
			stats.LastPublished = int(last.Int64)
		}
		result[storyID] = stats
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// InstallmentDates reports, per ordinal of one story, the earliest and
// latest publish date across every historical revision. Last is nil when
// the ordinal was only published once.
func (s *Store) InstallmentDates(ctx context.Context, storyID string) ([]store.InstallmentDateRange, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ordinal, MIN(published), MAX(published)
		FROM installments
		WHERE story_id = ?
		GROUP BY ordinal
		ORDER BY ordinal ASC`, storyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.InstallmentDateRange
	for rows.Next() {
		var (
			r        store.InstallmentDateRange
			min, max string
		)
		if err := rows.Scan(&r.Ordinal, &min, &max); err != nil {
			return nil, err
		}
		r.First, err = parseDate(min)
		if err != nil {
			return nil, err
		}
		if max != min {
			last, err := parseDate(max)
			if err != nil {
				return nil, err
			}
			r.Last = &last
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// PrevNextOrdinal returns the readable neighbors of one ordinal: the
// highest current, body-present ordinal below it and the lowest above it.
func (s *Store) PrevNextOrdinal(ctx context.Context, storyID string, ordinal int) (*store.OrdinalNeighbors, error) {
	var n store.OrdinalNeighbors

	var prev sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(ordinal) FROM installments
		WHERE story_id = ? AND ordinal < ? AND is_current = 1 AND checksum != ''`,
		storyID, ordinal).Scan(&prev)
	if err != nil {
		return nil, err
	}
	if prev.Valid {
		v := int(prev.Int64)
		n.Prev = &v
	}

	var next sql.NullInt64
	err = s.db.QueryRowContext(ctx,
		`SELECT MIN(ordinal) FROM installments
		WHERE story_id = ? AND ordinal > ? AND is_current = 1 AND checksum != ''`,
		storyID, ordinal).Scan(&next)
	if err != nil {
		return nil, err
	}
	if next.Valid {
		v := int(next.Int64)
		n.Next = &v
	}

	return &n, nil
}

// LetterIndex buckets listed stories by the upper-cased first character of
// their sort title. Non-letter initials collapse into the "_" bucket.
func (s *Store) LetterIndex(ctx context.Context) ([]store.LetterBucket, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT
			CASE
				WHEN upper(substr(sort_title, 1, 1)) BETWEEN 'A' AND 'Z'
					THEN upper(substr(sort_title, 1, 1))
				ELSE '_'
			END AS letter,
			COUNT(*)
		FROM stories
		WHERE removed IS NULL
		GROUP BY letter
		ORDER BY letter ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.LetterBucket
	for rows.Next() {
		var b store.LetterBucket
		if err := rows.Scan(&b.Letter, &b.Count); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
