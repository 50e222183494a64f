package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/backoffice/internal/clock"
	"github.com/spec-kit/backoffice/internal/config"
	"github.com/spec-kit/backoffice/internal/deadline"
	"github.com/spec-kit/backoffice/internal/domain"
	"github.com/spec-kit/backoffice/internal/repository"
	apperrors "github.com/spec-kit/backoffice/pkg/util"
)

const staffPageSize = 100

// JobResult reports what a scheduled run did.
type JobResult struct {
	Job      string `json:"job"`
	Sent     int    `json:"sent"`
	Failed   int    `json:"failed"`
	Purged   int    `json:"purged,omitempty"`
	Duration string `json:"duration"`
}

// ReminderService holds the periodic jobs an external clock triggers.
// Individual notification failures are logged and counted, never fatal.
type ReminderService struct {
	tasks         repository.TaskRepository
	staff         repository.StaffRepository
	notifications *NotificationService
	logger        *zap.Logger
	clock         clock.Clock
	cfg           config.NotificationConfig
}

// ReminderDependencies bundles requirements.
type ReminderDependencies struct {
	TaskRepo      repository.TaskRepository
	StaffRepo     repository.StaffRepository
	Notifications *NotificationService
	Logger        *zap.Logger
	Clock         clock.Clock
	Config        config.NotificationConfig
}

// NewReminderService constructs the service.
func NewReminderService(deps ReminderDependencies) *ReminderService {
	clk := deps.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := deps.Config
	if cfg.ReminderWindowDays <= 0 {
		cfg.ReminderWindowDays = deadline.DueSoonWindowDays
	}
	return &ReminderService{
		tasks:         deps.TaskRepo,
		staff:         deps.StaffRepo,
		notifications: deps.Notifications,
		logger:        logger,
		clock:         clk,
		cfg:           cfg,
	}
}

// SendDeadlineReminders notifies assignees of actionable tasks due within
// the reminder window.
func (s *ReminderService) SendDeadlineReminders(ctx context.Context) (JobResult, error) {
	start := s.clock.Now()
	today := startOfToday(start)
	end := today.AddDate(0, 0, s.cfg.ReminderWindowDays+1)
	tasks, err := s.actionableTasks(ctx, &today, &end)
	if err != nil {
		return JobResult{}, err
	}

	result := JobResult{Job: "deadline_reminders"}
	for _, task := range tasks {
		if task.AssignedStaffID == nil {
			continue
		}
		err := s.notifications.NotifyAssignedStaff(ctx, *task.AssignedStaffID, domain.NotificationTaskDueSoon, NotificationContent{
			Title:         "Task due soon",
			Message:       fmt.Sprintf("%q is due on %s.", task.Title, task.DueDate.Format("2006-01-02")),
			RelatedTaskID: strPtr(task.ID),
		})
		s.count(&result, task.ID, err)
	}
	return s.finish(result, start), nil
}

// SendOverdueNotifications notifies assignees of actionable tasks past their
// due date. Unassigned overdue tasks go to the administrators.
func (s *ReminderService) SendOverdueNotifications(ctx context.Context) (JobResult, error) {
	start := s.clock.Now()
	today := startOfToday(start)
	tasks, err := s.actionableTasks(ctx, nil, &today)
	if err != nil {
		return JobResult{}, err
	}

	result := JobResult{Job: "overdue_notifications"}
	for _, task := range tasks {
		content := NotificationContent{
			Title:         "Task overdue",
			Message:       fmt.Sprintf("%q was due on %s.", task.Title, task.DueDate.Format("2006-01-02")),
			RelatedTaskID: strPtr(task.ID),
		}
		var err error
		if task.AssignedStaffID != nil {
			err = s.notifications.NotifyAssignedStaff(ctx, *task.AssignedStaffID, domain.NotificationTaskOverdue, content)
		} else {
			err = s.notifications.NotifyAdmins(ctx, domain.NotificationTaskOverdue, content)
		}
		s.count(&result, task.ID, err)
	}
	return s.finish(result, start), nil
}

// SendWeeklySummaries sends each staff member with open work a count of
// their tasks per deadline classification.
func (s *ReminderService) SendWeeklySummaries(ctx context.Context) (JobResult, error) {
	start := s.clock.Now()
	result := JobResult{Job: "weekly_summaries"}
	for offset := 0; ; offset += staffPageSize {
		members, err := s.staff.List(ctx, repository.StaffFilter{Limit: staffPageSize, Offset: offset})
		if err != nil {
			return JobResult{}, apperrors.MapError(err)
		}
		for _, member := range members {
			staffID := member.ID
			tasks, err := s.tasks.List(ctx, repository.TaskFilter{
				AssignedStaffID: &staffID,
				Statuses:        []domain.TaskStatus{domain.TaskStatusPending, domain.TaskStatusInProgress, domain.TaskStatusOnHold},
				Unbounded:       true,
			})
			if err != nil {
				return JobResult{}, apperrors.MapError(err)
			}
			if len(tasks) == 0 {
				continue
			}
			summary := deadline.Summarize(tasks, start)
			err = s.notifications.Notify(ctx, member.UserID, domain.NotificationWeeklySummary, NotificationContent{
				Title: "Weekly summary",
				Message: fmt.Sprintf("%d open tasks: %d overdue, %d due soon, %d on track.",
					len(tasks), summary.Overdue, summary.DueSoon, summary.Safe),
			})
			s.count(&result, staffID, err)
		}
		if len(members) < staffPageSize {
			break
		}
	}
	return s.finish(result, start), nil
}

// PurgeReadNotifications removes read notifications older than the
// retention period. Unread notifications are kept.
func (s *ReminderService) PurgeReadNotifications(ctx context.Context) (JobResult, error) {
	start := s.clock.Now()
	removed, err := s.notifications.PurgeRead(ctx, start.Add(-s.cfg.Retention()))
	if err != nil {
		return JobResult{}, err
	}
	return s.finish(JobResult{Job: "purge_read_notifications", Purged: removed}, start), nil
}

func (s *ReminderService) actionableTasks(ctx context.Context, from, to *time.Time) ([]domain.Task, error) {
	tasks, err := s.tasks.List(ctx, repository.TaskFilter{
		Statuses:  []domain.TaskStatus{domain.TaskStatusPending, domain.TaskStatusInProgress},
		DueFrom:   from,
		DueTo:     to,
		Unbounded: true,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tasks, nil
}

func (s *ReminderService) count(result *JobResult, subject string, err error) {
	if err != nil {
		result.Failed++
		s.logger.Warn("scheduled notification failed",
			zap.String("job", result.Job),
			zap.String("subject", subject),
			zap.Error(err))
		return
	}
	result.Sent++
}

func (s *ReminderService) finish(result JobResult, start time.Time) JobResult {
	result.Duration = s.clock.Now().Sub(start).String()
	s.logger.Info("scheduled job finished",
		zap.String("job", result.Job),
		zap.Int("sent", result.Sent),
		zap.Int("failed", result.Failed),
		zap.Int("purged", result.Purged))
	return result
}

func startOfToday(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}
