// Package seed loads the bundled scripture catalog into an empty database.
package seed

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/iliyamo/zenpod/internal/logger"
	"github.com/iliyamo/zenpod/internal/model"
	"github.com/iliyamo/zenpod/internal/repository"
)

//go:embed catalog.json
var catalogJSON []byte

// Entry is one scripture of the bundled catalog with its chapters.
type Entry struct {
	Title       string `json:"title"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Chapters    []struct {
		ChapterNo uint32 `json:"chapter_no"`
		Title     string `json:"title"`
		Content   string `json:"content"`
	} `json:"chapters"`
}

// Catalog decodes the embedded catalog.
func Catalog() ([]Entry, error) {
	var entries []Entry
	if err := json.Unmarshal(catalogJSON, &entries); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return entries, nil
}

// Seed inserts the catalog when no scripture exists yet.  It reports
// whether anything was written.  All inserts share one transaction.
func Seed(ctx context.Context, repo *repository.ScriptureRepo, log logger.Logger) (bool, error) {
	n, err := repo.Count(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	entries, err := Catalog()
	if err != nil {
		return false, err
	}

	tx, err := repo.DB().BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	for _, e := range entries {
		s := model.Scripture{Title: e.Title, Category: e.Category}
		if e.Description != "" {
			d := e.Description
			s.Description = &d
		}
		chapters := make([]model.Chapter, 0, len(e.Chapters))
		for _, c := range e.Chapters {
			chapters = append(chapters, model.Chapter{ChapterNo: c.ChapterNo, Title: c.Title, Content: c.Content})
		}
		if err := repo.CreateWithChaptersTx(ctx, tx, &s, chapters); err != nil {
			return false, fmt.Errorf("seed %q: %w", e.Title, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	committed = true
	log.Info("scripture catalog seeded", map[string]interface{}{"scriptures": len(entries)})
	return true, nil
}
