package scheduler

import (
	"log"

	"github.com/robfig/cron/v3"

	"github.com/mpwrightt/Game-Release/internal/jobs"
)

// Scheduler enqueues the periodic catalog refresh. The cron spec is the
// whole freshness policy: the cache itself enforces no TTL.
type Scheduler struct {
	queue    *jobs.Queue
	schedule string
	cron     *cron.Cron
}

func New(queue *jobs.Queue, schedule string) *Scheduler {
	return &Scheduler{
		queue:    queue,
		schedule: schedule,
		cron:     cron.New(),
	}
}

// Start registers the refresh schedule and begins the cron loop. An
// initial refresh is enqueued immediately so a fresh deployment has a
// catalog before the first tick.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.enqueueRefresh); err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("[scheduler] catalog refresh scheduled (%s)", s.schedule)

	go s.enqueueRefresh()
	return nil
}

// Stop stops the cron loop without waiting for running jobs.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("[scheduler] stopped")
}

func (s *Scheduler) enqueueRefresh() {
	if _, err := s.queue.EnqueueUnique(jobs.TaskCatalogRefresh, struct{}{}, jobs.TaskCatalogRefresh); err != nil {
		log.Printf("[scheduler] enqueue refresh: %v", err)
	}
}
