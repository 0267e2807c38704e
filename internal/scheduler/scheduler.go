// Package scheduler triggers sync runs on an interval or cron expression.
package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Scheduler wraps a cron runner. Jobs are standard 5-field cron expressions
// or "@every" interval specs.
type Scheduler struct {
	c   *cron.Cron
	log zerolog.Logger
}

// New creates a stopped scheduler.
func New(log zerolog.Logger) *Scheduler {
	l := log.With().Str("component", "scheduler").Logger()
	return &Scheduler{
		c:   cron.New(cron.WithLogger(cronLogger{l})),
		log: l,
	}
}

// SpecFromInterval converts a fixed interval into a cron spec.
func SpecFromInterval(d time.Duration) string {
	return "@every " + d.String()
}

// Schedule registers fn under the given spec. An invalid spec is a startup
// error, not something to discover at the first tick.
func (s *Scheduler) Schedule(spec string, fn func()) error {
	if _, err := s.c.AddFunc(spec, fn); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	s.log.Info().Str("spec", spec).Msg("sync scheduled")
	return nil
}

// Start launches the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.c.Start()
}

// Stop halts scheduling and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.c.Stop().Done()
}

// cronLogger adapts zerolog to the cron.Logger interface.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
