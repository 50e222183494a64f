// Package deadline classifies task due dates relative to today.
//
// Classification is computed on every read and never stored: "today"
// moves, so a persisted value would go stale.
package deadline

import (
	"time"

	"github.com/spec-kit/backoffice/internal/domain"
)

// Classification is the urgency of a task deadline.
type Classification string

const (
	Safe    Classification = "SAFE"
	DueSoon Classification = "DUE_SOON"
	Overdue Classification = "OVERDUE"
)

// DueSoonWindowDays is how many days ahead of today still count as due soon.
const DueSoonWindowDays = 3

// Classify maps a task status and due date to an urgency. Only PENDING and
// IN_PROGRESS tasks can be DUE_SOON or OVERDUE. Dates are compared at day
// granularity in now's location.
func Classify(status domain.TaskStatus, due *time.Time, now time.Time) Classification {
	if due == nil || !status.Actionable() {
		return Safe
	}
	today := startOfDay(now, now.Location())
	dueDay := startOfDay(*due, now.Location())
	switch {
	case dueDay.Before(today):
		return Overdue
	case !dueDay.After(today.AddDate(0, 0, DueSoonWindowDays)):
		return DueSoon
	default:
		return Safe
	}
}

// ClassifyTask is Classify applied to a task.
func ClassifyTask(task *domain.Task, now time.Time) Classification {
	return Classify(task.Status, task.DueDate, now)
}

// Summary counts classifications across a set of tasks.
type Summary struct {
	Safe    int `json:"safe"`
	DueSoon int `json:"due_soon"`
	Overdue int `json:"overdue"`
}

// Summarize classifies every task and tallies the result.
func Summarize(tasks []domain.Task, now time.Time) Summary {
	var s Summary
	for i := range tasks {
		switch ClassifyTask(&tasks[i], now) {
		case Overdue:
			s.Overdue++
		case DueSoon:
			s.DueSoon++
		default:
			s.Safe++
		}
	}
	return s
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
