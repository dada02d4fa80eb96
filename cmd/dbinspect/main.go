// Package main prints a summary of the catalog database: story counts,
// letter distribution, installment coverage, and the latest update days.
//
// Usage:
//
//	DATABASE_PATH=~/Storykeep/catalog.db go run ./cmd/dbinspect
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/storykeep/storykeep-server/internal/store"
	"github.com/storykeep/storykeep-server/internal/store/sqlite"
)

func main() {
	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/Storykeep/catalog.db")
	}

	s, err := sqlite.Open(dbPath, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer s.Close()

	ctx := context.Background()

	fmt.Println("=== Catalog Inspection ===")
	fmt.Println()

	page, err := s.ListStories(ctx, store.DefaultPaginationParams())
	if err != nil {
		log.Fatalf("Failed to list stories: %v", err)
	}
	fmt.Printf("Stories: %d listed\n", page.Total)

	authors, err := s.ListAuthors(ctx)
	if err != nil {
		log.Fatalf("Failed to list authors: %v", err)
	}
	fmt.Printf("Authors: %d\n", len(authors))

	codes, err := s.ListCodes(ctx)
	if err != nil {
		log.Fatalf("Failed to list codes: %v", err)
	}
	fmt.Printf("Codes:   %d\n", len(codes))

	sagasList, err := s.ListSagas(ctx)
	if err != nil {
		log.Fatalf("Failed to list sagas: %v", err)
	}
	fmt.Printf("Sagas:   %d\n", len(sagasList))

	fmt.Println()
	fmt.Println("Letter index:")
	buckets, err := s.LetterIndex(ctx)
	if err != nil {
		log.Fatalf("Failed to build letter index: %v", err)
	}
	for _, b := range buckets {
		fmt.Printf("  %s  %d\n", b.Letter, b.Count)
	}

	if len(page.Items) > 0 {
		ids := make([]string, 0, len(page.Items))
		for _, st := range page.Items {
			ids = append(ids, st.ID)
		}

		stats, err := s.InstallmentStatsByStory(ctx, ids)
		if err != nil {
			log.Fatalf("Failed to load installment stats: %v", err)
		}

		fmt.Println()
		fmt.Println("Installment coverage:")
		for _, st := range page.Items {
			stat, ok := stats[st.ID]
			if !ok {
				fmt.Printf("  %-40s no installments\n", st.Title)
				continue
			}
			fmt.Printf("  %-40s %d installments, %d missing\n",
				st.Title, stat.InstallmentCount, stat.MissingCount)
		}
	}

	days, err := s.LatestUpdateDays(ctx, 2)
	if err != nil {
		log.Fatalf("Failed to load update days: %v", err)
	}
	if len(days) > 0 {
		fmt.Println()
		fmt.Println("Latest update days:")
		for _, day := range days {
			fmt.Printf("  %s\n", day.Date.Format("2006-01-02"))
			for _, debut := range day.Stories {
				label := "revised"
				if debut.NewOrdinals > 0 {
					label = fmt.Sprintf("%d new", debut.NewOrdinals)
				}
				fmt.Printf("    %-38s %s\n", debut.Story.Title, label)
			}
		}
	}
}
