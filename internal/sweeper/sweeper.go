// Package sweeper periodically triggers the idle-session sweep. The sweep
// policy itself lives in the memory store; this package only owns the
// timer, so tests can drive Sweep directly with a controlled clock.
package sweeper

import (
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Store is the slice of the memory store the sweeper needs.
type Store interface {
	Sweep(now time.Time) int
}

// Sweeper runs the idle sweep on a cron schedule.
type Sweeper struct {
	store    Store
	schedule string
	cron     *cron.Cron
}

// New creates a sweeper. An empty schedule defaults to every five minutes.
func New(store Store, schedule string) *Sweeper {
	if schedule == "" {
		schedule = "@every 5m"
	}
	return &Sweeper{
		store:    store,
		schedule: schedule,
		cron:     cron.New(),
	}
}

// Start registers the sweep job and starts the scheduler.
func (s *Sweeper) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.runOnce); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.schedule, err)
	}
	s.cron.Start()
	log.Printf("sweeper: started with schedule %s", s.schedule)
	return nil
}

// Stop halts the scheduler and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
	log.Printf("sweeper: stopped")
}

func (s *Sweeper) runOnce() {
	s.store.Sweep(time.Now())
}
