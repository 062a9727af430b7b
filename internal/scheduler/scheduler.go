package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ktakeda/ArticleHub/internal/pipeline"
)

// Scheduler repeats archive runs on a cron spec. Each run is independent;
// the shared index provides the dedup between them.
type Scheduler struct {
	cron *cron.Cron
	pipe *pipeline.Pipeline
}

func New(spec string, pipe *pipeline.Pipeline) (*Scheduler, error) {
	c := cron.New()
	s := &Scheduler{cron: c, pipe: pipe}

	if _, err := c.AddFunc(spec, s.runOnce); err != nil {
		return nil, err
	}
	return s, nil
}

// Start begins the cron loop and fires a first run shortly after boot so
// a fresh deployment does not wait for the next cron tick.
func (s *Scheduler) Start() {
	s.cron.Start()

	const startupDelay = 15 * time.Second
	time.AfterFunc(startupDelay, func() {
		go s.runOnce()
	})
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// RunOnce triggers a single run, for manual invocations.
func (s *Scheduler) RunOnce() {
	s.runOnce()
}

func (s *Scheduler) runOnce() {
	if err := s.pipe.Run(context.Background()); err != nil {
		log.Printf("scheduler: run failed: %v", err)
	}
}
