package collector

import (
	"fmt"
	"time"

	"github.com/ktakeda/ArticleHub/internal/config"
)

// Article is the normalized record every fetcher produces. The uniqueness
// key across the whole system is (Source, ArticleID).
type Article struct {
	Source      string
	ArticleID   string
	Title       string
	URL         string
	Author      string
	AuthorName  string
	AuthorURL   string
	PublishedAt time.Time
	UpdatedAt   time.Time
	LikesCount  int
	StocksCount int
	Tags        []string
	Body        string

	// Filled in by the summarizer before rendering.
	Summary   string
	KeyPoints []string
	TechStack []string
}

// Fetcher abstracts one content source.
type Fetcher interface {
	Name() string
	Fetch() ([]Article, error)
}

// FromConfig builds the enabled fetchers. A missing Qiita token while the
// source is enabled is a startup error; everything else degrades at fetch
// time.
func FromConfig(cfg *config.Config) ([]Fetcher, error) {
	var fetchers []Fetcher

	if cfg.Qiita.Enabled {
		if cfg.QiitaToken == "" {
			return nil, fmt.Errorf("qiita is enabled but QIITA_ACCESS_TOKEN is not set")
		}
		fetchers = append(fetchers, NewQiitaFetcher(cfg.QiitaToken, cfg.Qiita))
	}
	if cfg.Zenn.Enabled {
		fetchers = append(fetchers, NewZennFetcher(cfg.Zenn))
	}
	return fetchers, nil
}
