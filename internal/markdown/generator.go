package markdown

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ktakeda/ArticleHub/internal/collector"
	"github.com/ktakeda/ArticleHub/internal/config"
	"github.com/ktakeda/ArticleHub/internal/storage"
)

// BlockDelimiter separates appended article blocks inside a daily file.
const BlockDelimiter = "\n\n---\n\n"

// RenderArticle formats one enriched article as a markdown section for
// its daily digest file.
func RenderArticle(article collector.Article, info config.CategoryInfo) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## [%s](%s)\n\n", article.Title, article.URL)
	fmt.Fprintf(&b, "> **%s** › **%s**\n\n", info.CategoryName, info.SubcategoryName)

	b.WriteString("**Meta:**\n\n")
	fmt.Fprintf(&b, "- Author: [@%s](%s)\n", article.Author, article.AuthorURL)
	fmt.Fprintf(&b, "- Published: %s\n", article.PublishedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "- Likes: %d\n", article.LikesCount)
	fmt.Fprintf(&b, "- Stocks: %d\n", article.StocksCount)
	fmt.Fprintf(&b, "- Tags: %s\n", strings.Join(article.Tags, ", "))
	fmt.Fprintf(&b, "- Source: %s\n\n", strings.ToUpper(article.Source))

	b.WriteString("**Summary:**\n\n")
	summary := article.Summary
	if summary == "" {
		summary = "No summary available"
	}
	b.WriteString(summary)
	b.WriteString("\n\n")

	if len(article.KeyPoints) > 0 {
		b.WriteString("**Key Points:**\n\n")
		for _, point := range article.KeyPoints {
			fmt.Fprintf(&b, "- %s\n", point)
		}
		b.WriteString("\n")
	}

	if len(article.TechStack) > 0 {
		b.WriteString("**Tech Stack:**\n\n")
		for _, tech := range article.TechStack {
			fmt.Fprintf(&b, "- %s\n", tech)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// RenderCategoryReadme formats the regenerated index page for one
// (category, subcategory) pair.
func RenderCategoryReadme(info config.CategoryInfo, articles []storage.Article, stats *storage.CategoryStat) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", info.SubcategoryName)
	if info.CategoryDescription != "" {
		fmt.Fprintf(&b, "> %s\n\n", info.CategoryDescription)
	}

	if stats != nil {
		b.WriteString("## Stats\n\n")
		fmt.Fprintf(&b, "- Articles: %d\n", stats.ArticleCount)
		fmt.Fprintf(&b, "- Total likes: %d\n", stats.TotalLikes)
		fmt.Fprintf(&b, "- Last updated: %s\n\n", stats.LastUpdated.Format("2006-01-02 15:04:05"))
	}

	if len(articles) > 0 {
		b.WriteString("## Recent articles\n\n")
		n := len(articles)
		if n > 10 {
			n = 10
		}
		for _, a := range articles[:n] {
			fmt.Fprintf(&b, "- [%s](%s) - %s (%d likes)\n",
				a.Title, a.URL, a.PublishedAt.Format("2006-01-02"), a.LikesCount)
		}
		b.WriteString("\n")
	}

	b.WriteString("---\n\n")
	fmt.Fprintf(&b, "*Updated: %s*\n", time.Now().Format("2006-01-02 15:04:05"))

	return b.String()
}

// RenderDailyReport formats an aggregate digest of one day's articles.
func RenderDailyReport(articles []storage.Article, date time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Tech article digest - %s\n\n", date.Format("2006-01-02"))
	fmt.Fprintf(&b, "> Generated: %s\n\n", time.Now().Format("2006-01-02 15:04:05"))

	b.WriteString("## Overview\n\n")
	fmt.Fprintf(&b, "- Articles: %d\n", len(articles))

	if len(articles) > 0 {
		total := 0
		tagCounts := make(map[string]int)
		for _, a := range articles {
			total += a.LikesCount
			for _, tag := range a.Tags {
				tagCounts[tag]++
			}
		}
		fmt.Fprintf(&b, "- Average likes: %.1f\n", float64(total)/float64(len(articles)))

		if len(tagCounts) > 0 {
			tags := make([]string, 0, len(tagCounts))
			for tag := range tagCounts {
				tags = append(tags, tag)
			}
			sort.Slice(tags, func(i, j int) bool {
				if tagCounts[tags[i]] != tagCounts[tags[j]] {
					return tagCounts[tags[i]] > tagCounts[tags[j]]
				}
				return tags[i] < tags[j]
			})
			if len(tags) > 5 {
				tags = tags[:5]
			}
			fmt.Fprintf(&b, "- Top tags: %s\n", strings.Join(tags, ", "))
		}
	}
	b.WriteString("\n---\n\n")

	for _, a := range articles {
		fmt.Fprintf(&b, "## [%s](%s)\n\n", a.Title, a.URL)
		fmt.Fprintf(&b, "- %s/%s, %s, %d likes\n\n", a.Category, a.Subcategory,
			a.PublishedAt.Format("2006-01-02"), a.LikesCount)
		if a.Summary != "" {
			b.WriteString(a.Summary)
			b.WriteString("\n\n")
		}
	}

	b.WriteString("*This report was generated automatically*\n")
	return b.String()
}

// AppendToFile appends a block (plus the delimiter) to a daily file,
// creating parents as needed and never truncating existing content.
func AppendToFile(content, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(content + BlockDelimiter); err != nil {
		return fmt.Errorf("append to %s: %w", path, err)
	}

	log.Printf("markdown: appended block to %s", path)
	return nil
}

// WriteFile replaces a regenerated file (the category READMEs).
func WriteFile(content, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
