package main

import (
	"log"
	"net/http"
	"time"

	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
	"github.com/gin-gonic/gin"

	"github.com/ktakeda/ArticleHub/internal/api"
	"github.com/ktakeda/ArticleHub/internal/categorizer"
	"github.com/ktakeda/ArticleHub/internal/collector"
	"github.com/ktakeda/ArticleHub/internal/config"
	"github.com/ktakeda/ArticleHub/internal/markdown"
	"github.com/ktakeda/ArticleHub/internal/pipeline"
	"github.com/ktakeda/ArticleHub/internal/scheduler"
	"github.com/ktakeda/ArticleHub/internal/storage"
	"github.com/ktakeda/ArticleHub/internal/summarizer"
)

// Long-running entry: serves the report API and repeats archive runs on
// the configured cron spec.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}

	tax, err := config.LoadTaxonomy(cfg.TaxonomyPath)
	if err != nil {
		log.Fatalf("load taxonomy failed: %v", err)
	}

	store, err := storage.NewStore(cfg.Database.Path, cfg.RedisAddr)
	if err != nil {
		log.Fatalf("init store failed: %v", err)
	}

	fetchers, err := collector.FromConfig(cfg)
	if err != nil {
		log.Fatalf("init fetchers failed: %v", err)
	}

	paths, err := markdown.NewPathBuilder(cfg.Output.BaseDir)
	if err != nil {
		log.Fatalf("init output dir failed: %v", err)
	}

	var cat *categorizer.Categorizer
	var sum *summarizer.Summarizer
	if cfg.CohereAPIKey != "" {
		chat := cohereclient.NewClient(
			cohereclient.WithToken(cfg.CohereAPIKey),
			cohereclient.WithHTTPClient(&http.Client{Timeout: 60 * time.Second}),
		)
		cat = categorizer.New(tax, chat, cfg.Summarizer.Model)
		sum = summarizer.New(chat, cfg.Summarizer)
	} else {
		cat = categorizer.New(tax, nil, cfg.Summarizer.Model)
		sum = summarizer.New(nil, cfg.Summarizer)
	}

	pipe := pipeline.New(tax, fetchers, cat, sum, store, paths)

	sched, err := scheduler.New(cfg.CronSpec, pipe)
	if err != nil {
		log.Fatalf("init scheduler failed: %v", err)
	}
	sched.Start()

	r := gin.Default()
	apiServer := api.NewServer(store, tax)
	apiServer.RegisterRoutes(r)

	addr := ":" + cfg.APIPort
	log.Printf("starting api server at %s ...", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("server exit: %v", err)
	}
}
