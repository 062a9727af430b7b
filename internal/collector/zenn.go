package collector

import (
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/ktakeda/ArticleHub/internal/config"
)

const zennClientTimeout = 30 * time.Second

var (
	zennArticleIDRe = regexp.MustCompile(`/articles/([^/]+)$`)
	htmlTagRe       = regexp.MustCompile(`<[^>]+>`)
)

// ZennFetcher reads the Zenn syndication feed (and optional per-topic
// feeds) and normalizes the entries. Items missing an id, title or link
// are dropped, as are items older than the recency threshold.
type ZennFetcher struct {
	cfg    config.ZennConfig
	parser *gofeed.Parser

	now func() time.Time
}

func NewZennFetcher(cfg config.ZennConfig) *ZennFetcher {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: zennClientTimeout}

	return &ZennFetcher{
		cfg:    cfg,
		parser: parser,
		now:    time.Now,
	}
}

func (z *ZennFetcher) Name() string {
	return "zenn"
}

func (z *ZennFetcher) Fetch() ([]Article, error) {
	log.Printf("zenn: fetching feed (last %d days)...", z.cfg.DaysBack)

	articles, err := z.fetchFeed(z.cfg.RSSURL, z.cfg.DaysBack, z.cfg.MaxArticles)
	if err != nil {
		return nil, err
	}

	// Topic feeds are additive; a broken topic should not sink the main
	// feed result.
	for _, topic := range z.cfg.Topics {
		topicURL := fmt.Sprintf("https://zenn.dev/topics/%s/feed", topic)
		extra, err := z.fetchFeed(topicURL, z.cfg.DaysBack, 20)
		if err != nil {
			log.Printf("zenn: topic %s: %v", topic, err)
			continue
		}
		log.Printf("zenn: topic %s: %d articles", topic, len(extra))
		articles = append(articles, extra...)
	}

	log.Printf("zenn: fetched %d articles", len(articles))
	return articles, nil
}

func (z *ZennFetcher) fetchFeed(feedURL string, daysBack, maxItems int) ([]Article, error) {
	feed, err := z.parser.ParseURL(feedURL)
	if err != nil {
		return nil, fmt.Errorf("zenn: parse feed %s: %w", feedURL, err)
	}

	threshold := z.now().AddDate(0, 0, -daysBack)

	items := feed.Items
	if maxItems > 0 && len(items) > maxItems {
		items = items[:maxItems]
	}

	articles := make([]Article, 0, len(items))
	for _, item := range items {
		article, ok := z.parseItem(item)
		if !ok {
			continue
		}
		if article.PublishedAt.Before(threshold) {
			continue
		}
		articles = append(articles, article)
	}
	return articles, nil
}

func (z *ZennFetcher) parseItem(item *gofeed.Item) (Article, bool) {
	if item.Title == "" || item.Link == "" || item.PublishedParsed == nil {
		return Article{}, false
	}

	m := zennArticleIDRe.FindStringSubmatch(item.Link)
	if m == nil {
		log.Printf("zenn: could not extract article id from url: %s", item.Link)
		return Article{}, false
	}
	articleID := m[1]

	author := "unknown"
	if item.Author != nil && item.Author.Name != "" {
		author = item.Author.Name
	}

	tags := make([]string, 0, len(item.Categories))
	for _, c := range item.Categories {
		if c != "" {
			tags = append(tags, c)
		}
	}
	if len(tags) == 0 {
		tags = []string{"Zenn"}
	}

	publishedAt := *item.PublishedParsed

	return Article{
		Source:      "zenn",
		ArticleID:   articleID,
		Title:       item.Title,
		URL:         item.Link,
		Author:      author,
		AuthorName:  author,
		AuthorURL:   "https://zenn.dev/" + author,
		PublishedAt: publishedAt,
		UpdatedAt:   publishedAt,
		Tags:        tags,
		Body:        stripHTML(item.Description),
	}, true
}

// stripHTML removes markup from a feed description, leaving plain text.
func stripHTML(s string) string {
	return strings.TrimSpace(htmlTagRe.ReplaceAllString(s, ""))
}
