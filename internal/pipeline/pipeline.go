package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/ktakeda/ArticleHub/internal/categorizer"
	"github.com/ktakeda/ArticleHub/internal/collector"
	"github.com/ktakeda/ArticleHub/internal/config"
	"github.com/ktakeda/ArticleHub/internal/markdown"
	"github.com/ktakeda/ArticleHub/internal/storage"
	"github.com/ktakeda/ArticleHub/internal/summarizer"
)

// Pipeline sequences one archive run: fetch all sources, drop what the
// index already holds, then per article categorize, summarize, write the
// markdown block and index the row; finally regenerate the category
// README pages. Runs are sequential and independent; only the index is
// shared between them.
type Pipeline struct {
	tax         *config.Taxonomy
	fetchers    []collector.Fetcher
	categorizer *categorizer.Categorizer
	summarizer  *summarizer.Summarizer
	store       *storage.Store
	paths       *markdown.PathBuilder
}

func New(
	tax *config.Taxonomy,
	fetchers []collector.Fetcher,
	cat *categorizer.Categorizer,
	sum *summarizer.Summarizer,
	store *storage.Store,
	paths *markdown.PathBuilder,
) *Pipeline {
	return &Pipeline{
		tax:         tax,
		fetchers:    fetchers,
		categorizer: cat,
		summarizer:  sum,
		store:       store,
		paths:       paths,
	}
}

// Run executes one full pass. Fetcher and per-article failures are
// logged and skipped; storage failures abort.
func (p *Pipeline) Run(ctx context.Context) error {
	log.Println("pipeline: start run...")

	var articles []collector.Article
	for _, f := range p.fetchers {
		items, err := f.Fetch()
		if err != nil {
			log.Printf("pipeline: fetch %s error: %v", f.Name(), err)
			continue
		}
		log.Printf("pipeline: %s: %d articles", f.Name(), len(items))
		articles = append(articles, items...)
	}

	if len(articles) == 0 {
		log.Println("pipeline: no articles matched, nothing to do")
		return nil
	}

	newArticles, err := p.filterNew(normalize(articles))
	if err != nil {
		return err
	}
	if len(newArticles) == 0 {
		log.Println("pipeline: no new articles")
		return nil
	}
	log.Printf("pipeline: %d new articles", len(newArticles))

	processed := 0
	for i, article := range newArticles {
		log.Printf("pipeline: [%d/%d] %s", i+1, len(newArticles), article.Title)

		stored, err := p.processOne(ctx, article)
		if err != nil {
			return err
		}
		if stored {
			processed++
		}
	}

	log.Printf("pipeline: run done, processed=%d/%d", processed, len(newArticles))

	if processed > 0 {
		if err := p.updateReadmes(); err != nil {
			return err
		}
	}
	return nil
}

// processOne handles a single new article. The bool reports whether the
// article was stored; a false return with nil error means the article was
// skipped after a recovered failure. Only storage errors come back as
// errors.
func (p *Pipeline) processOne(ctx context.Context, article collector.Article) (bool, error) {
	result := p.categorizer.Categorize(ctx, article.Title, article.Tags, article.Body)
	info := p.tax.Info(result.Category, result.Subcategory)
	log.Printf("pipeline:   -> %s/%s (%s)", result.Category, result.Subcategory, result.Method)

	sum := p.summarizer.Summarize(ctx, article)
	article.Summary = sum.Summary
	article.KeyPoints = sum.KeyPoints
	article.TechStack = sum.TechStack

	path, err := p.paths.ArticlePath(result.Category, result.Subcategory, article.PublishedAt)
	if err != nil {
		log.Printf("pipeline: skip %q: %v", article.Title, err)
		return false, nil
	}

	block := markdown.RenderArticle(article, info)
	if err := markdown.AppendToFile(block, path); err != nil {
		log.Printf("pipeline: skip %q: %v", article.Title, err)
		return false, nil
	}

	if _, err := p.store.Add(article, result.Category, result.Subcategory, path); err != nil {
		return false, fmt.Errorf("store %q: %w", article.Title, err)
	}
	return true, nil
}

// filterNew drops articles the index already knows. Index errors abort
// the run.
func (p *Pipeline) filterNew(articles []collector.Article) ([]collector.Article, error) {
	out := make([]collector.Article, 0, len(articles))
	for _, a := range articles {
		exists, err := p.store.Exists(a.Source, a.ArticleID)
		if err != nil {
			return nil, err
		}
		if exists {
			log.Printf("pipeline: skipping duplicate: %s", a.Title)
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

// normalize trims titles and collapses duplicate (source, article_id)
// keys within one batch to the first occurrence, so a topic feed echoing
// the main feed does not process an article twice.
func normalize(articles []collector.Article) []collector.Article {
	out := make([]collector.Article, 0, len(articles))
	seen := make(map[string]struct{})

	for _, a := range articles {
		key := a.Source + "/" + a.ArticleID
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		a.Title = strings.TrimSpace(a.Title)
		out = append(out, a)
	}
	return out
}

// updateReadmes regenerates the index page of every stored pair. Reading
// the pair list is a storage operation and aborts on error; a single
// page failing to render or write only costs that page.
func (p *Pipeline) updateReadmes() error {
	log.Println("pipeline: updating category READMEs...")

	pairs, err := p.store.AllCategories()
	if err != nil {
		return err
	}

	for _, pair := range pairs {
		if err := p.updateReadme(pair); err != nil {
			log.Printf("pipeline: update README %s/%s: %v", pair.Category, pair.Subcategory, err)
		}
	}
	return nil
}

func (p *Pipeline) updateReadme(pair storage.CategoryPair) error {
	info := p.tax.Info(pair.Category, pair.Subcategory)

	articles, err := p.store.ListByCategory(pair.Category, pair.Subcategory, 20)
	if err != nil {
		return err
	}
	stats, err := p.store.Stats(pair.Category, pair.Subcategory)
	if err != nil {
		return err
	}

	path, err := p.paths.ReadmePath(pair.Category, pair.Subcategory)
	if err != nil {
		return err
	}

	content := markdown.RenderCategoryReadme(info, articles, stats)
	if err := markdown.WriteFile(content, path); err != nil {
		return err
	}

	log.Printf("pipeline: updated README: %s", path)
	return nil
}
