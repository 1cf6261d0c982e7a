package infrastructure

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Sweeper is anything that can drop stale entries up to a point in time.
type Sweeper interface {
	Sweep(now time.Time) int
}

// Scheduler runs the tracker eviction sweep on a cron spec such as "@every 10m".
type Scheduler struct {
	cron    *cron.Cron
	spec    string
	sweeper Sweeper
	log     logrus.FieldLogger
}

func NewScheduler(spec string, sweeper Sweeper, log logrus.FieldLogger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		spec:    spec,
		sweeper: sweeper,
		log:     log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.runSweep); err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}
	s.cron.Start()
	s.log.WithField("spec", s.spec).Info("tracker sweep scheduled")
	return nil
}

// Stop halts the schedule and waits for a running sweep to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("tracker sweep stopped")
}

func (s *Scheduler) runSweep() {
	if n := s.sweeper.Sweep(time.Now()); n > 0 {
		s.log.WithField("removed", n).Info("evicted finished runs from tracker")
	}
}
