package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/storykeep/storykeep-server/internal/domain"
)

func TestAuthorsByStory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreateStory(t, s, makeTestStory("story-1", "One", "one"))
	mustCreateStory(t, s, makeTestStory("story-2", "Two", "two"))

	for _, a := range []*domain.Author{
		makeTestAuthor("auth-1", "zeta", "zeta"),
		makeTestAuthor("auth-2", "Alpha", "Alpha"),
	} {
		if err := s.CreateAuthor(ctx, a); err != nil {
			t.Fatalf("CreateAuthor: %v", err)
		}
	}

	if err := s.SetStoryAuthors(ctx, "story-1", []string{"auth-1", "auth-2"}); err != nil {
		t.Fatalf("SetStoryAuthors: %v", err)
	}

	got, err := s.AuthorsByStory(ctx, []string{"story-1", "story-2"})
	if err != nil {
		t.Fatalf("AuthorsByStory: %v", err)
	}

	refs, ok := got["story-1"]
	if !ok || len(refs) != 2 {
		t.Fatalf("story-1: %v", refs)
	}
	// Case-insensitive name order.
	if refs[0].Name != "Alpha" || refs[1].Name != "zeta" {
		t.Errorf("order: %q, %q", refs[0].Name, refs[1].Name)
	}

	if _, ok := got["story-2"]; ok {
		t.Error("story without credits should be omitted")
	}
}

func TestCodeAbbrsByStory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreateStory(t, s, makeTestStory("story-1", "One", "one"))

	now := time.Now()
	for _, abbr := range []string{"ws", "dr", "aa"} {
		if err := s.CreateCode(ctx, &domain.Code{Abbr: abbr, CreatedAt: now}); err != nil {
			t.Fatalf("CreateCode: %v", err)
		}
	}
	if err := s.SetStoryCodes(ctx, "story-1", []string{"ws", "dr", "aa"}); err != nil {
		t.Fatalf("SetStoryCodes: %v", err)
	}

	got, err := s.CodeAbbrsByStory(ctx, []string{"story-1"})
	if err != nil {
		t.Fatalf("CodeAbbrsByStory: %v", err)
	}
	if got["story-1"] != "aa dr ws" {
		t.Errorf("abbrs: %q, want %q", got["story-1"], "aa dr ws")
	}
}

func TestDistinctCodeAbbrs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreateStory(t, s, makeTestStory("story-1", "One", "one"))
	mustCreateStory(t, s, makeTestStory("story-2", "Two", "two"))

	now := time.Now()
	for _, abbr := range []string{"ws", "dr"} {
		if err := s.CreateCode(ctx, &domain.Code{Abbr: abbr, CreatedAt: now}); err != nil {
			t.Fatalf("CreateCode: %v", err)
		}
	}
	if err := s.SetStoryCodes(ctx, "story-1", []string{"ws", "dr"}); err != nil {
		t.Fatalf("SetStoryCodes: %v", err)
	}
	if err := s.SetStoryCodes(ctx, "story-2", []string{"dr"}); err != nil {
		t.Fatalf("SetStoryCodes: %v", err)
	}

	got, err := s.DistinctCodeAbbrs(ctx, []string{"story-1", "story-2"})
	if err != nil {
		t.Fatalf("DistinctCodeAbbrs: %v", err)
	}
	if got != "dr ws" {
		t.Errorf("got %q, want %q", got, "dr ws")
	}
}

func TestInstallmentStatsByStory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreateStory(t, s, makeTestStory("story-1", "Serial", "serial"))

	// Three current ordinals: 1 and 3 have bodies, 2 is missing.
	one := makeTestInstallment("inst-1", "story-1", 1, date(2019, time.March, 1))
	two := makeTestInstallment("inst-2", "story-1", 2, date(2019, time.March, 2))
	two.Checksum = ""
	three := makeTestInstallment("inst-3", "story-1", 3, date(2019, time.March, 3))
	for _, inst := range []*domain.Installment{one, two, three} {
		if err := s.CreateInstallment(ctx, inst); err != nil {
			t.Fatalf("CreateInstallment: %v", err)
		}
	}

	// A superseded historical revision must not count.
	newer := makeTestInstallment("inst-1b", "story-1", 1, date(2020, time.March, 1))
	if err := s.CreateInstallment(ctx, newer); err != nil {
		t.Fatalf("CreateInstallment revision: %v", err)
	}

	got, err := s.InstallmentStatsByStory(ctx, []string{"story-1"})
	if err != nil {
		t.Fatalf("InstallmentStatsByStory: %v", err)
	}

	stats, ok := got["story-1"]
	if !ok {
		t.Fatal("story-1 missing from stats")
	}
	if stats.InstallmentCount != 2 {
		t.Errorf("InstallmentCount: %d, want 2", stats.InstallmentCount)
	}
	if stats.MissingCount != 1 {
		t.Errorf("MissingCount: %d, want 1", stats.MissingCount)
	}
	if stats.FirstPublished != 1 || stats.LastPublished != 3 {
		t.Errorf("span: %d..%d, want 1..3", stats.FirstPublished, stats.LastPublished)
	}
}

func TestInstallmentStatsPlaceholderNotCounted(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreateStory(t, s, makeTestStory("story-1", "The Bar", "bar"))

	one := makeTestInstallment("inst-1", "story-1", 1, date(2021, time.January, 1))
	two := makeTestInstallment("inst-2", "story-1", 2, date(2021, time.February, 1))
	two.Checksum = ""
	for _, inst := range []*domain.Installment{one, two} {
		if err := s.CreateInstallment(ctx, inst); err != nil {
			t.Fatalf("CreateInstallment: %v", err)
		}
	}

	got, err := s.InstallmentStatsByStory(ctx, []string{"story-1"})
	if err != nil {
		t.Fatalf("InstallmentStatsByStory: %v", err)
	}

	stats := got["story-1"]
	if stats.InstallmentCount != 1 {
		t.Errorf("InstallmentCount: %d, want 1", stats.InstallmentCount)
	}
	if stats.MissingCount != 1 {
		t.Errorf("MissingCount: %d, want 1", stats.MissingCount)
	}
	if stats.FirstPublished != 1 || stats.LastPublished != 1 {
		t.Errorf("span: %d..%d, want 1..1", stats.FirstPublished, stats.LastPublished)
	}
}

func TestInstallmentDates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreateStory(t, s, makeTestStory("story-1", "Serial", "serial"))

	// Ordinal 1 revised once, ordinal 2 published once.
	if err := s.CreateInstallment(ctx, makeTestInstallment("inst-1", "story-1", 1, date(2019, time.March, 1))); err != nil {
		t.Fatalf("CreateInstallment: %v", err)
	}
	if err := s.CreateInstallment(ctx, makeTestInstallment("inst-1b", "story-1", 1, date(2020, time.May, 5))); err != nil {
		t.Fatalf("CreateInstallment: %v", err)
	}
	if err := s.CreateInstallment(ctx, makeTestInstallment("inst-2", "story-1", 2, date(2019, time.April, 2))); err != nil {
		t.Fatalf("CreateInstallment: %v", err)
	}

	got, err := s.InstallmentDates(ctx, "story-1")
	if err != nil {
		t.Fatalf("InstallmentDates: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d ranges", len(got))
	}

	if got[0].Ordinal != 1 || !got[0].First.Equal(date(2019, time.March, 1)) {
		t.Errorf("ordinal 1 first: %v", got[0].First)
	}
	if got[0].Last == nil || !got[0].Last.Equal(date(2020, time.May, 5)) {
		t.Errorf("ordinal 1 last: %v", got[0].Last)
	}

	// Single publication reports no distinct last date.
	if got[1].Ordinal != 2 || got[1].Last != nil {
		t.Errorf("ordinal 2: last %v, want nil", got[1].Last)
	}
}

func TestPrevNextOrdinal(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreateStory(t, s, makeTestStory("story-1", "Serial", "serial"))

	// Ordinals 1, 2 (no body), 4.
	one := makeTestInstallment("inst-1", "story-1", 1, date(2019, time.March, 1))
	two := makeTestInstallment("inst-2", "story-1", 2, date(2019, time.March, 2))
	two.Checksum = ""
	four := makeTestInstallment("inst-4", "story-1", 4, date(2019, time.March, 4))
	for _, inst := range []*domain.Installment{one, two, four} {
		if err := s.CreateInstallment(ctx, inst); err != nil {
			t.Fatalf("CreateInstallment: %v", err)
		}
	}

	// Around ordinal 2: body-less neighbor is skipped upward and downward.
	n, err := s.PrevNextOrdinal(ctx, "story-1", 2)
	if err != nil {
		t.Fatalf("PrevNextOrdinal: %v", err)
	}
	if n.Prev == nil || *n.Prev != 1 {
		t.Errorf("Prev: %v", n.Prev)
	}
	if n.Next == nil || *n.Next != 4 {
		t.Errorf("Next: %v", n.Next)
	}

	// Boundaries.
	n, err = s.PrevNextOrdinal(ctx, "story-1", 1)
	if err != nil {
		t.Fatalf("PrevNextOrdinal first: %v", err)
	}
	if n.Prev != nil {
		t.Errorf("first Prev: %v", n.Prev)
	}
	n, err = s.PrevNextOrdinal(ctx, "story-1", 4)
	if err != nil {
		t.Fatalf("PrevNextOrdinal last: %v", err)
	}
	if n.Next != nil {
		t.Errorf("last Next: %v", n.Next)
	}
}

func TestLetterIndex(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	fixtures := []struct {
		id, sortTitle string
	}{
		{"story-1", "autumn leaves"},
		{"story-2", "another day"},
		{"story-3", "breakwater"},
		{"story-4", "1 more thing"},
	}
	for _, f := range fixtures {
		st := makeTestStory(f.id, f.sortTitle, f.id)
		st.SortTitle = f.sortTitle
		mustCreateStory(t, s, st)
	}

	// Removed stories stay out of the index.
	removed := makeTestStory("story-5", "absent", "absent")
	removed.SortTitle = "absent"
	removed.Removed = datePtr(2021, time.June, 1)
	mustCreateStory(t, s, removed)

	got, err := s.LetterIndex(ctx)
	if err != nil {
		t.Fatalf("LetterIndex: %v", err)
	}

	want := map[string]int{"A": 2, "B": 1, "_": 1}
	if len(got) != len(want) {
		t.Fatalf("got %d buckets: %+v", len(got), got)
	}
	for _, b := range got {
		if want[b.Letter] != b.Count {
			t.Errorf("bucket %q: count %d, want %d", b.Letter, b.Count, want[b.Letter])
		}
	}
}
