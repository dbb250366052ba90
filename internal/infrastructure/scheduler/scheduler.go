// Package scheduler runs background jobs on cron schedules.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"fanders-backend/internal/infrastructure/metrics"
)

// Job is one unit of scheduled work.
type Job func(ctx context.Context) error

type Scheduler struct {
	cron    *cron.Cron
	log     *logrus.Logger
	timeout time.Duration
}

func New(log *logrus.Logger, timeout time.Duration) *Scheduler {
	cl := cron.PrintfLogger(log)
	return &Scheduler{
		cron:    cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		log:     log,
		timeout: timeout,
	}
}

// Add registers job under name with a standard 5-field cron spec.
func (s *Scheduler) Add(name, spec string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() { s.Run(name, job) })
	if err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"job": name, "spec": spec}).Info("scheduler: job registered")
	return nil
}

// Run executes job once with the scheduler's timeout, logging and recording the outcome.
func (s *Scheduler) Run(name string, job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	err := job(ctx)
	elapsed := time.Since(start)
	metrics.RecordJobRun(name, elapsed, err == nil)

	entry := s.log.WithFields(logrus.Fields{"job": name, "duration_ms": elapsed.Milliseconds()})
	if err != nil {
		entry.WithError(err).Error("scheduler: job failed")
		return
	}
	entry.Debug("scheduler: job done")
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop waits for running jobs or ctx, whichever comes first.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}
