package sqlite

import (
	"context"
	"fmt"
	"sort"

	"github.com/storykeep/storykeep-server/internal/domain"
	"github.com/storykeep/storykeep-server/internal/store"
)

// LatestUpdateDays returns the most recent distinct story update dates
// (newest first, at most limit days), each with the listed stories whose
// installments published that day. A story's NewOrdinals counts the
// ordinals that debuted on the date; zero marks a pure revision.
func (s *Store) LatestUpdateDays(ctx context.Context, limit int) ([]store.UpdateDay, error) {
	if limit <= 0 {
		limit = 2
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT updated FROM stories
		WHERE removed IS NULL AND updated IS NOT NULL
		ORDER BY updated DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			rows.Close()
			return nil, err
		}
		dates = append(dates, d)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	var out []store.UpdateDay
	for _, d := range dates {
		day, err := s.updateDay(ctx, d)
		if err != nil {
			return nil, err
		}
		out = append(out, *day)
	}
	return out, nil
}

// updateDay collects the stories that published an installment on one date.
func (s *Store) updateDay(ctx context.Context, date string) (*store.UpdateDay, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+storyColumnsQualified+`,
			(SELECT COUNT(*) FROM (
				SELECT ordinal, MIN(published) AS first_pub
				FROM installments i2
				WHERE i2.story_id = stories.id
				GROUP BY ordinal
			) WHERE first_pub = ?) AS debuts
		FROM stories
		WHERE stories.removed IS NULL
			AND EXISTS (
				SELECT 1 FROM installments i
				WHERE i.story_id = stories.id AND i.published = ?
			)
		ORDER BY stories.sort_title ASC, stories.id ASC`, date, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	day := &store.UpdateDay{}
	day.Date, err = parseDate(date)
	if err != nil {
		return nil, err
	}

	for rows.Next() {
		var debut storyDebutScan
		st, err := debut.scan(rows)
		if err != nil {
			return nil, err
		}
		day.Stories = append(day.Stories, store.StoryDebut{
			Story:       st,
			NewOrdinals: debut.newOrdinals,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return day, nil
}

// storyDebutScan adapts scanStory to a row that carries one extra trailing
// count column.
type storyDebutScan struct {
	newOrdinals int
	inner       interface{ Scan(dest ...any) error }
}

func (d *storyDebutScan) scan(scanner interface{ Scan(dest ...any) error }) (*domain.Story, error) {
	d.inner = scanner
	return scanStory(d)
}

func (d *storyDebutScan) Scan(dest ...any) error {
	return d.inner.Scan(append(dest, &d.newOrdinals)...)
}

// WhatWasNew returns the year's installment publish events bucketed by ISO
// week, newest week first. Each event lands in Added when its ordinal
// debuted on that date, otherwise in Updated. Within a partition, events
// keep story sort order.
// Returns store.ErrNotFound when the year has no events.
func (s *Store) WhatWasNew(ctx context.Context, year int) ([]store.WeekBucket, error) {
	lo := fmt.Sprintf("%04d-01-01", year)
	hi := fmt.Sprintf("%04d-12-31", year)

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+storyColumnsQualified+`, i.ordinal, i.published,
			CASE WHEN i.published = (
				SELECT MIN(published) FROM installments i2
				WHERE i2.story_id = i.story_id AND i2.ordinal = i.ordinal
			) THEN 1 ELSE 0 END AS debut
		FROM installments i
		JOIN stories ON stories.id = i.story_id
		WHERE stories.removed IS NULL AND i.published BETWEEN ? AND ?
		ORDER BY stories.sort_title ASC, stories.id ASC, i.ordinal ASC`, lo, hi)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type weekKey struct {
		year int
		week int
	}
	buckets := make(map[weekKey]*store.WeekBucket)

	for rows.Next() {
		var ev publishEventScan
		st, err := ev.scan(rows)
		if err != nil {
			return nil, err
		}

		date, err := parseDate(ev.published)
		if err != nil {
			return nil, err
		}
		isoYear, isoWeek := date.ISOWeek()
		key := weekKey{year: isoYear, week: isoWeek}

		b, ok := buckets[key]
		if !ok {
			b = &store.WeekBucket{Year: isoYear, Week: isoWeek}
			buckets[key] = b
		}

		event := store.PublishEvent{Story: st, Ordinal: ev.ordinal, Date: date}
		if ev.debut != 0 {
			b.Added = append(b.Added, event)
		} else {
			b.Updated = append(b.Updated, event)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(buckets) == 0 {
		return nil, store.ErrNotFound
	}

	out := make([]store.WeekBucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year > out[j].Year
		}
		return out[i].Week > out[j].Week
	})
	return out, nil
}

// publishEventScan adapts scanStory to a row carrying ordinal, published
// date, and debut flag after the story columns.
type publishEventScan struct {
	ordinal   int
	published string
	debut     int
	inner     interface{ Scan(dest ...any) error }
}

func (e *publishEventScan) scan(scanner interface{ Scan(dest ...any) error }) (*domain.Story, error) {
	e.inner = scanner
	return scanStory(e)
}

func (e *publishEventScan) Scan(dest ...any) error {
	return e.inner.Scan(append(dest, &e.ordinal, &e.published, &e.debut)...)
}
