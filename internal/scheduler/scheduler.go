// Package scheduler triggers the weekly invoice run and the daily overdue sweep.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/01moynul/taptosell-settlement/internal/invoicing"
)

// Jobs are the batch operations the scheduler fires.
type Jobs interface {
	GenerateWeekly(ctx context.Context, now time.Time) (*invoicing.RunReport, error)
	SweepOverdue(ctx context.Context, now time.Time) (*invoicing.SweepReport, error)
}

// jobs glues the engine and the lifecycle manager into one Jobs.
type jobs struct {
	*invoicing.Engine
	*invoicing.Manager
}

// NewJobs combines the invoice engine and lifecycle manager.
func NewJobs(engine *invoicing.Engine, manager *invoicing.Manager) Jobs {
	return jobs{Engine: engine, Manager: manager}
}

// Config holds the cron specs. Both use the standard five-field syntax.
type Config struct {
	WeeklyInvoices string
	OverdueSweep   string
	Location       *time.Location
	// JobTimeout bounds one run; zero means no limit.
	JobTimeout time.Duration
}

type Scheduler struct {
	cron   *cron.Cron
	jobs   Jobs
	cfg    Config
	logger *zap.Logger
	now    func() time.Time
}

func New(jobs Jobs, cfg Config, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(cfg.Location),
			cron.WithChain(cron.Recover(cronLogger{logger}), cron.SkipIfStillRunning(cronLogger{logger})),
		),
		jobs:   jobs,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
	if _, err := s.cron.AddFunc(cfg.WeeklyInvoices, s.RunWeekly); err != nil {
		return nil, fmt.Errorf("weekly invoice schedule %q: %w", cfg.WeeklyInvoices, err)
	}
	if _, err := s.cron.AddFunc(cfg.OverdueSweep, s.RunOverdueSweep); err != nil {
		return nil, fmt.Errorf("overdue sweep schedule %q: %w", cfg.OverdueSweep, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduler started",
		zap.String("weekly_invoices", s.cfg.WeeklyInvoices),
		zap.String("overdue_sweep", s.cfg.OverdueSweep),
		zap.String("location", s.cfg.Location.String()),
	)
}

// Stop stops scheduling and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("Scheduler stopped before running jobs finished")
	}
}

// RunWeekly runs the weekly invoice job once.
func (s *Scheduler) RunWeekly() {
	ctx, cancel := s.jobContext()
	defer cancel()

	report, err := s.jobs.GenerateWeekly(ctx, s.now())
	if err != nil {
		s.logger.Error("Weekly invoice job failed", zap.Error(err))
		return
	}
	s.logger.Info("Weekly invoice job done",
		zap.Int("created", len(report.Created)),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", len(report.Failures)),
	)
}

// RunOverdueSweep runs the overdue sweep once.
func (s *Scheduler) RunOverdueSweep() {
	ctx, cancel := s.jobContext()
	defer cancel()

	report, err := s.jobs.SweepOverdue(ctx, s.now())
	if err != nil {
		s.logger.Error("Overdue sweep failed", zap.Error(err))
		return
	}
	s.logger.Info("Overdue sweep done",
		zap.Int("checked", report.Checked),
		zap.Int("flipped", len(report.Flipped)),
		zap.Int("failed", len(report.Failures)),
	)
}

func (s *Scheduler) jobContext() (context.Context, context.CancelFunc) {
	if s.cfg.JobTimeout > 0 {
		return context.WithTimeout(context.Background(), s.cfg.JobTimeout)
	}
	return context.WithCancel(context.Background())
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct{ l *zap.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Sugar().Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
