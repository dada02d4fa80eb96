// Package main seeds the catalog with a small demonstration library.
//
// This creates codes, slants, a source, a handful of stories with delimited
// author credits, their installments, a saga, a reading list, and a theme,
// so the read pages have something to show.
//
// Usage:
//
//	DATABASE_PATH=~/Storykeep/catalog.db go run ./cmd/seed
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/samber/do/v2"

	"github.com/storykeep/storykeep-server/internal/di"
	"github.com/storykeep/storykeep-server/internal/domain"
	"github.com/storykeep/storykeep-server/internal/service"
)

type seedStory struct {
	title     string
	authors   string // delimited author string, as catalog imports carry them
	codes     []string
	published time.Time
	parts     []string
}

func main() {
	injector := di.NewContainer()
	if err := di.Bootstrap(injector); err != nil {
		log.Fatalf("Failed to bootstrap: %v", err)
	}
	defer injector.Shutdown()

	ctx := context.Background()
	authors := do.MustInvoke[*service.AuthorService](injector)
	stories := do.MustInvoke[*service.StoryService](injector)
	installments := do.MustInvoke[*service.InstallmentService](injector)
	taxonomy := do.MustInvoke[*service.TaxonomyService](injector)
	lists := do.MustInvoke[*service.ListService](injector)
	sagas := do.MustInvoke[*service.SagaService](injector)
	themes := do.MustInvoke[*service.ThemeService](injector)

	for _, code := range []service.CodeInput{
		{Abbr: "aa", Name: "Alternate angle"},
		{Abbr: "dr", Name: "Drama"},
		{Abbr: "ws", Name: "Winter setting"},
	} {
		if _, err := taxonomy.CreateCode(ctx, code); err != nil {
			log.Fatalf("Failed to create code %s: %v", code.Abbr, err)
		}
	}

	if _, err := taxonomy.CreateSlant(ctx, service.SlantInput{
		Name: "Editor's picks", DisplayOrder: 1, CodeAbbr: "dr",
	}); err != nil {
		log.Fatalf("Failed to create slant: %v", err)
	}

	source, err := taxonomy.CreateSource(ctx, service.SourceInput{
		Name:    "The Weekly Serial Archive",
		Abbr:    "WSA",
		Website: "https://example.org/wsa",
	})
	if err != nil {
		log.Fatalf("Failed to create source: %v", err)
	}

	seeds := []seedStory{
		{
			title:     "The Winter Station",
			authors:   "Jane Scrivener|Marta Quill",
			codes:     []string{"ws", "dr"},
			published: date(2024, time.January, 8),
			parts: []string{
				"<p>The platform lights came on an hour before the first train.</p>",
				"<p>Nobody boarded at Halvik anymore, but the train still stopped.</p>",
			},
		},
		{
			title:     "Nine Letters North",
			authors:   "Marta Quill",
			codes:     []string{"aa"},
			published: date(2024, time.February, 12),
			parts: []string{
				"<p>The first letter arrived before the thaw.</p>",
			},
		},
		{
			title:     "A Quiet Arrangement",
			authors:   "Jane Scrivener",
			codes:     []string{"dr"},
			published: date(2024, time.March, 3),
			parts: []string{
				"<p>The house had been empty for eleven years.</p>",
				"<p>The second key never turned up.</p>",
				"<p>In the end the garden told them everything.</p>",
			},
		},
	}

	var created []*domain.Story
	for _, seed := range seeds {
		names := make([]string, 0, 2)
		for _, ref := range authors.ParseAuthors(seed.authors) {
			names = append(names, ref.Name)
		}

		pub := seed.published
		story, err := stories.CreateStory(ctx, service.StoryInput{
			Title:     seed.title,
			SourceID:  source.ID,
			Published: &pub,
			Authors:   names,
			CodeAbbrs: seed.codes,
		})
		if err != nil {
			log.Fatalf("Failed to create story %q: %v", seed.title, err)
		}
		created = append(created, story)

		day := seed.published
		for ordinal, body := range seed.parts {
			if _, err := installments.Publish(ctx, service.PublishInput{
				StoryID:   story.ID,
				Ordinal:   ordinal + 1,
				Published: day,
				Body:      []byte(body),
			}); err != nil {
				log.Fatalf("Failed to publish %q #%d: %v", seed.title, ordinal+1, err)
			}
			day = day.AddDate(0, 0, 7)
		}

		fmt.Printf("Seeded %q with %d installments\n", story.Title, len(seed.parts))
	}

	saga, err := sagas.CreateSaga(ctx, "The Halvik Cycle", "", "Stories set on the northern line.")
	if err != nil {
		log.Fatalf("Failed to create saga: %v", err)
	}
	for _, story := range created[:2] {
		if _, err := sagas.AddStory(ctx, saga.ID, story.ID); err != nil {
			log.Fatalf("Failed to add story to saga: %v", err)
		}
	}

	list, err := lists.CreateList(ctx, "user_demo", service.ListInput{
		Name:     "Currently Reading",
		Color:    "#2a9d8f",
		Priority: 10,
		AutoSort: true,
	})
	if err != nil {
		log.Fatalf("Failed to create list: %v", err)
	}
	if _, err := lists.ToggleStory(ctx, "user_demo", list.ID, created[0].ID); err != nil {
		log.Fatalf("Failed to fill list: %v", err)
	}

	theme, err := themes.CreateTheme(ctx, "Midnight", "body { background: #101418; color: #e8e8e8 }")
	if err != nil {
		log.Fatalf("Failed to create theme: %v", err)
	}
	if err := themes.Activate(ctx, theme.ID); err != nil {
		log.Fatalf("Failed to activate theme: %v", err)
	}

	fmt.Printf("\nSeeded %d stories, saga %s, list %s, theme %s\n",
		len(created), saga.ID, list.ID, theme.ID)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
