package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ktakeda/ArticleHub/internal/config"
	"github.com/ktakeda/ArticleHub/internal/markdown"
	"github.com/ktakeda/ArticleHub/internal/storage"
)

// Server exposes the archive index read-only: recent articles, per
// category listings, stats and tag popularity.
type Server struct {
	store *storage.Store
	tax   *config.Taxonomy
}

func NewServer(store *storage.Store, tax *config.Taxonomy) *Server {
	return &Server{store: store, tax: tax}
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.health)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/articles", s.listArticles)
		v1.GET("/categories", s.listCategories)
		v1.GET("/tags", s.popularTags)
		v1.GET("/report", s.dailyReport)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) listArticles(c *gin.Context) {
	category := c.Query("category")
	subcategory := c.Query("subcategory")
	limit := intQuery(c, "limit", 20)

	var (
		items []storage.Article
		err   error
	)
	if category != "" {
		items, err = s.store.ListByCategory(category, subcategory, limit)
	} else {
		days := intQuery(c, "days", 7)
		items, err = s.store.Recent(days, limit)
	}
	if err != nil {
		internalError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": "ok", "data": items})
}

func (s *Server) listCategories(c *gin.Context) {
	pairs, err := s.store.AllCategories()
	if err != nil {
		internalError(c)
		return
	}

	type entry struct {
		Category        string                `json:"category"`
		CategoryName    string                `json:"categoryName"`
		Subcategory     string                `json:"subcategory"`
		SubcategoryName string                `json:"subcategoryName"`
		Stats           *storage.CategoryStat `json:"stats,omitempty"`
	}

	out := make([]entry, 0, len(pairs))
	for _, pair := range pairs {
		info := s.tax.Info(pair.Category, pair.Subcategory)
		stats, err := s.store.Stats(pair.Category, pair.Subcategory)
		if err != nil {
			internalError(c)
			return
		}
		out = append(out, entry{
			Category:        pair.Category,
			CategoryName:    info.CategoryName,
			Subcategory:     pair.Subcategory,
			SubcategoryName: info.SubcategoryName,
			Stats:           stats,
		})
	}

	c.JSON(http.StatusOK, gin.H{"code": "ok", "data": out})
}

func (s *Server) popularTags(c *gin.Context) {
	limit := intQuery(c, "limit", 20)

	tags, err := s.store.PopularTags(limit)
	if err != nil {
		internalError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": "ok", "data": tags})
}

// dailyReport renders today's aggregate digest as markdown text.
func (s *Server) dailyReport(c *gin.Context) {
	articles, err := s.store.Recent(1, 100)
	if err != nil {
		internalError(c)
		return
	}

	report := markdown.RenderDailyReport(articles, time.Now())
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(report))
}

func intQuery(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.DefaultQuery(key, strconv.Itoa(def)))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func internalError(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"code":    "internal_error",
		"message": "internal server error",
	})
}
