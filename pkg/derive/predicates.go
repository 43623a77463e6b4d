// Package derive computes the dashboard's read-only views from a snapshot.
// Every function is pure: the snapshot is never modified and the same input
// always yields the same output.
package derive

import (
	"time"

	"github.com/harrisonrobin/taskboard/pkg/model"
	"github.com/harrisonrobin/taskboard/pkg/util"
)

func isOpen(status string) bool {
	return status == model.StatusPending || status == model.StatusInProgress
}

func isCompleted(status string) bool {
	return status == model.StatusCompleted
}

// inMonthOf reports whether date falls in the calendar month (year and
// month) of now. Blank or unparsable dates never match.
func inMonthOf(date string, now time.Time) bool {
	t, ok := util.ParseDate(date, now.Location())
	if !ok {
		return false
	}
	t = t.In(now.Location())
	return t.Year() == now.Year() && t.Month() == now.Month()
}

// isOverdue reports whether an unfinished item with a known due date is past
// it. Unparsable due dates are treated as absent.
func isOverdue(status, due string, now time.Time) bool {
	if isCompleted(status) {
		return false
	}
	t, ok := util.ParseDate(due, now.Location())
	if !ok {
		return false
	}
	return t.Before(now)
}
