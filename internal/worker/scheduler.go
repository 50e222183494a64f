package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/backoffice/internal/config"
	"github.com/spec-kit/backoffice/internal/service"
)

// Job names accepted by the scheduler and the admin trigger endpoint.
const (
	JobDeadlineReminders  = "deadline-reminders"
	JobOverdueNotices     = "overdue-notifications"
	JobWeeklySummaries    = "weekly-summaries"
	JobPurgeNotifications = "purge-notifications"
)

// Job is one periodic operation.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) (service.JobResult, error)
}

// ReminderJobs lists the reminder operations with their configured
// intervals. A non-positive interval keeps the job manual-only.
func ReminderJobs(reminders *service.ReminderService, cfg config.SchedulerConfig) []Job {
	return []Job{
		{Name: JobDeadlineReminders, Interval: minutes(cfg.ReminderIntervalMin), Run: reminders.SendDeadlineReminders},
		{Name: JobOverdueNotices, Interval: minutes(cfg.OverdueIntervalMin), Run: reminders.SendOverdueNotifications},
		{Name: JobWeeklySummaries, Interval: minutes(cfg.WeeklySummaryInterval), Run: reminders.SendWeeklySummaries},
		{Name: JobPurgeNotifications, Interval: minutes(cfg.RetentionIntervalMin), Run: reminders.PurgeReadNotifications},
	}
}

func minutes(n int) time.Duration {
	return time.Duration(n) * time.Minute
}

// Scheduler runs each job on its own ticker until the context ends.
type Scheduler struct {
	jobs   []Job
	logger *zap.Logger
	wg     sync.WaitGroup
}

// NewScheduler constructs a scheduler.
func NewScheduler(jobs []Job, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{jobs: jobs, logger: logger}
}

// Start launches one goroutine per job with a positive interval.
func (s *Scheduler) Start(ctx context.Context) {
	for _, job := range s.jobs {
		if job.Interval <= 0 {
			continue
		}
		s.wg.Add(1)
		go s.loop(ctx, job)
	}
}

// Wait blocks until every job loop has returned.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, job Job) {
	defer s.wg.Done()
	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	s.logger.Info("scheduled job registered", zap.String("job", job.Name), zap.Duration("interval", job.Interval))
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx, job)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, job Job) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduled job panicked", zap.String("job", job.Name), zap.Any("panic", r))
		}
	}()
	if _, err := job.Run(ctx); err != nil {
		s.logger.Error("scheduled job failed", zap.String("job", job.Name), zap.Error(err))
	}
}
