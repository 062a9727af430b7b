package collector

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ktakeda/ArticleHub/internal/config"
)

const (
	qiitaClientTimeout    = 30 * time.Second
	qiitaMaxResponseBytes = 8 << 20 // 8MB, items carry full bodies
	qiitaMaxPerPage       = 100
)

// QiitaFetcher pulls recent items from the Qiita v2 search API.
//
// Only the first result page is consumed. The request still carries an
// explicit page parameter so full pagination stays a local change, but
// today one page per run is the intended behavior.
type QiitaFetcher struct {
	token   string
	baseURL string
	cfg     config.QiitaConfig
	client  *http.Client

	// now is swappable in tests so the date threshold is deterministic.
	now func() time.Time
}

func NewQiitaFetcher(token string, cfg config.QiitaConfig) *QiitaFetcher {
	return &QiitaFetcher{
		token:   token,
		baseURL: cfg.BaseURL,
		cfg:     cfg,
		client:  &http.Client{Timeout: qiitaClientTimeout},
		now:     time.Now,
	}
}

func (q *QiitaFetcher) Name() string {
	return "qiita"
}

type qiitaItem struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	URL          string `json:"url"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
	LikesCount   int    `json:"likes_count"`
	StocksCount  int    `json:"stocks_count"`
	Body         string `json:"body"`
	RenderedBody string `json:"rendered_body"`
	User         struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"user"`
	Tags []struct {
		Name string `json:"name"`
	} `json:"tags"`
}

func (q *QiitaFetcher) Fetch() ([]Article, error) {
	log.Printf("qiita: fetching items from last %d days (min stocks %d)...",
		q.cfg.DaysBack, q.cfg.MinLikes)

	threshold := q.now().AddDate(0, 0, -q.cfg.DaysBack)
	search := fmt.Sprintf("created:>=%s stocks:>=%d",
		threshold.Format("2006-01-02"), q.cfg.MinLikes)
	if q.cfg.Query != "" {
		search = q.cfg.Query + " " + search
	}

	perPage := q.cfg.PerPage
	if perPage <= 0 || perPage > qiitaMaxPerPage {
		perPage = qiitaMaxPerPage
	}

	params := url.Values{}
	params.Set("page", "1")
	params.Set("per_page", strconv.Itoa(perPage))
	params.Set("query", search)

	req, err := http.NewRequest(http.MethodGet, q.baseURL+"/items?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("qiita: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+q.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := q.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("qiita: fetch items: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("qiita: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, qiitaMaxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("qiita: read items: %w", err)
	}

	var items []qiitaItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("qiita: unmarshal items: %w", err)
	}

	articles := make([]Article, 0, len(items))
	for _, it := range items {
		articles = append(articles, parseQiitaItem(it))
	}

	log.Printf("qiita: fetched %d articles", len(articles))
	return articles, nil
}

func parseQiitaItem(it qiitaItem) Article {
	createdAt, _ := time.Parse(time.RFC3339, it.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339, it.UpdatedAt)

	authorName := it.User.Name
	if authorName == "" {
		authorName = it.User.ID
	}

	tags := make([]string, 0, len(it.Tags))
	for _, t := range it.Tags {
		tags = append(tags, t.Name)
	}

	return Article{
		Source:      "qiita",
		ArticleID:   it.ID,
		Title:       it.Title,
		URL:         it.URL,
		Author:      it.User.ID,
		AuthorName:  authorName,
		AuthorURL:   "https://qiita.com/" + it.User.ID,
		PublishedAt: createdAt,
		UpdatedAt:   updatedAt,
		LikesCount:  it.LikesCount,
		StocksCount: it.StocksCount,
		Tags:        tags,
		Body:        it.Body,
	}
}
