package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ktakeda/ArticleHub/internal/collector"
)

// Article is the persisted index record. (Source, ArticleID) is the
// uniqueness key; a second insert for the same key replaces the row.
type Article struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Source      string    `gorm:"size:32;uniqueIndex:idx_source_article" json:"source"`
	ArticleID   string    `gorm:"size:128;uniqueIndex:idx_source_article" json:"articleId"`
	URL         string    `gorm:"size:1024" json:"url"`
	Title       string    `gorm:"size:512" json:"title"`
	Author      string    `gorm:"size:128" json:"author"`
	AuthorName  string    `gorm:"size:128" json:"authorName"`
	PublishedAt time.Time `gorm:"index" json:"publishedAt"`
	FetchedAt   time.Time `gorm:"index;autoCreateTime" json:"fetchedAt"`

	Category    string `gorm:"size:64;index:idx_category" json:"category"`
	Subcategory string `gorm:"size:64;index:idx_category" json:"subcategory"`

	FilePath string `gorm:"size:512" json:"filePath"`

	Tags      datatypes.JSONSlice[string] `json:"tags"`
	KeyPoints datatypes.JSONSlice[string] `json:"keyPoints"`
	TechStack datatypes.JSONSlice[string] `json:"techStack"`
	Summary   string                      `gorm:"size:2048" json:"summary"`

	LikesCount   int  `json:"likesCount"`
	StocksCount  int  `json:"stocksCount"`
	IsSummarized bool `json:"isSummarized"`
}

// CategoryStat is a running per-(category, subcategory) counter, bumped
// on every insert.
type CategoryStat struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Category     string    `gorm:"size:64;uniqueIndex:idx_cat_sub" json:"category"`
	Subcategory  string    `gorm:"size:64;uniqueIndex:idx_cat_sub" json:"subcategory"`
	ArticleCount int       `json:"articleCount"`
	TotalLikes   int       `json:"totalLikes"`
	LastUpdated  time.Time `json:"lastUpdated"`
}

// CategoryPair identifies one stored (category, subcategory) bucket.
type CategoryPair struct {
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
}

// TagCount is one entry of the popular-tag aggregation.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

type Store struct {
	DB    *gorm.DB
	Redis *redis.Client
}

// NewStore opens (and migrates) the SQLite index. redisAddr may be empty;
// the cache then stays off. A redis server that does not answer only
// costs the cache, never the run.
func NewStore(dbPath, redisAddr string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(&Article{}, &CategoryStat{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	var rdb *redis.Client
	if redisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: redisAddr})

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Printf("warn: redis ping failed: %v", err)
		}
	}

	return &Store{DB: db, Redis: rdb}, nil
}

// Exists is the dedup point lookup on (source, article_id).
func (s *Store) Exists(source, articleID string) (bool, error) {
	var n int64
	err := s.DB.Model(&Article{}).
		Where("source = ? AND article_id = ?", source, articleID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("check article exists: %w", err)
	}
	return n > 0, nil
}

// Add upserts an enriched article under its uniqueness key (last write
// wins) and bumps the matching stats row. Returns the row id.
func (s *Store) Add(article collector.Article, category, subcategory, filePath string) (uint, error) {
	row := Article{
		Source:       article.Source,
		ArticleID:    article.ArticleID,
		URL:          article.URL,
		Title:        article.Title,
		Author:       article.Author,
		AuthorName:   article.AuthorName,
		PublishedAt:  article.PublishedAt,
		Category:     category,
		Subcategory:  subcategory,
		FilePath:     filePath,
		Tags:         datatypes.NewJSONSlice(article.Tags),
		KeyPoints:    datatypes.NewJSONSlice(article.KeyPoints),
		TechStack:    datatypes.NewJSONSlice(article.TechStack),
		Summary:      article.Summary,
		LikesCount:   article.LikesCount,
		StocksCount:  article.StocksCount,
		IsSummarized: true,
	}

	err := s.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "source"}, {Name: "article_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"url", "title", "author", "author_name", "published_at",
			"category", "subcategory", "file_path", "tags", "key_points",
			"tech_stack", "summary", "likes_count", "stocks_count",
			"is_summarized",
		}),
	}).Create(&row).Error
	if err != nil {
		return 0, fmt.Errorf("add article: %w", err)
	}

	if err := s.bumpStats(category, subcategory, article.LikesCount); err != nil {
		return 0, err
	}

	// On conflict the replaced row keeps its original id; read it back.
	var saved Article
	if err := s.DB.Select("id").
		Where("source = ? AND article_id = ?", article.Source, article.ArticleID).
		First(&saved).Error; err != nil {
		return 0, fmt.Errorf("read back article id: %w", err)
	}

	// Cached list queries are left to expire on their short TTL rather
	// than scanning redis for keys on every write.
	return saved.ID, nil
}

func (s *Store) bumpStats(category, subcategory string, likes int) error {
	err := s.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "category"}, {Name: "subcategory"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"article_count": gorm.Expr("article_count + 1"),
			"total_likes":   gorm.Expr("total_likes + ?", likes),
			"last_updated":  time.Now(),
		}),
	}).Create(&CategoryStat{
		Category:     category,
		Subcategory:  subcategory,
		ArticleCount: 1,
		TotalLikes:   likes,
		LastUpdated:  time.Now(),
	}).Error
	if err != nil {
		return fmt.Errorf("update category stats: %w", err)
	}
	return nil
}

// ListByCategory returns articles of a category, newest first. An empty
// subcategory matches the whole category. Results are cached briefly when
// redis is around; the pipeline never comes through here, only the API.
func (s *Store) ListByCategory(category, subcategory string, limit int) ([]Article, error) {
	if limit <= 0 || limit > 1000 {
		limit = 10
	}

	cacheKey := fmt.Sprintf("articles:list:%s:%s:%d", category, subcategory, limit)
	if cached, ok := s.cacheGet(cacheKey); ok {
		return cached, nil
	}

	q := s.DB.Where("category = ?", category)
	if subcategory != "" {
		q = q.Where("subcategory = ?", subcategory)
	}

	var list []Article
	if err := q.Order("published_at DESC").Limit(limit).Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}

	s.cacheSet(cacheKey, list)
	return list, nil
}

// Recent returns articles published in the last N days, newest first.
func (s *Store) Recent(days, limit int) ([]Article, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	cacheKey := fmt.Sprintf("articles:recent:%d:%d", days, limit)
	if cached, ok := s.cacheGet(cacheKey); ok {
		return cached, nil
	}

	since := time.Now().AddDate(0, 0, -days)

	var list []Article
	err := s.DB.Where("published_at >= ?", since).
		Order("published_at DESC").Limit(limit).Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("list recent articles: %w", err)
	}

	s.cacheSet(cacheKey, list)
	return list, nil
}

// AllCategories lists the distinct (category, subcategory) pairs present
// in the index.
func (s *Store) AllCategories() ([]CategoryPair, error) {
	var pairs []CategoryPair
	err := s.DB.Model(&Article{}).
		Distinct("category", "subcategory").
		Order("category").Order("subcategory").
		Find(&pairs).Error
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return pairs, nil
}

// Stats returns the counter row for a pair, or nil when the pair has
// never been written.
func (s *Store) Stats(category, subcategory string) (*CategoryStat, error) {
	var stat CategoryStat
	err := s.DB.Where("category = ? AND subcategory = ?", category, subcategory).
		First(&stat).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read category stats: %w", err)
	}
	return &stat, nil
}

// PopularTags aggregates tag occurrences over every stored article,
// descending by count. Tags live in a JSON column, so the counting
// happens here rather than in SQL.
func (s *Store) PopularTags(limit int) ([]TagCount, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows []Article
	if err := s.DB.Select("tags").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("read tags: %w", err)
	}

	counts := make(map[string]int)
	for _, row := range rows {
		for _, tag := range row.Tags {
			counts[tag]++
		}
	}

	out := make([]TagCount, 0, len(counts))
	for tag, n := range counts {
		out = append(out, TagCount{Tag: tag, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

const listCacheTTL = 5 * time.Minute

func (s *Store) cacheGet(key string) ([]Article, bool) {
	if s.Redis == nil {
		return nil, false
	}
	bs, err := s.Redis.Get(context.Background(), key).Bytes()
	if err != nil {
		return nil, false
	}
	var cached []Article
	if err := json.Unmarshal(bs, &cached); err != nil {
		return nil, false
	}
	return cached, true
}

func (s *Store) cacheSet(key string, list []Article) {
	if s.Redis == nil || len(list) == 0 {
		return
	}
	if bs, err := json.Marshal(list); err == nil {
		_ = s.Redis.Set(context.Background(), key, bs, listCacheTTL).Err()
	}
}
