package derive

import (
	"time"

	"github.com/harrisonrobin/taskboard/pkg/model"
)

// Stats are the four headline counters.
type Stats struct {
	// Pending counts meetings that are 待處理 or 進行中.
	Pending int `json:"pending"`
	// Monthly counts meetings assigned in the current calendar month.
	Monthly int `json:"monthlyCount"`
	// Completed counts meetings that are 已完成.
	Completed int `json:"completed"`
	// Overdue counts unfinished todos past their due date.
	Overdue int `json:"overdue"`
	// TotalMeetings is the size of the meetings table.
	TotalMeetings int `json:"totalMeetings"`
}

// MonthlyDisplay is the number shown on the monthly card. When no meeting was
// assigned this month it falls back to the total meeting count. This is a
// display convenience; Monthly stays the real count.
func (s Stats) MonthlyDisplay() int {
	if s.Monthly == 0 {
		return s.TotalMeetings
	}
	return s.Monthly
}

// ComputeStats counts the headline figures of snap as of now.
func ComputeStats(snap *model.Snapshot, now time.Time) Stats {
	meetings := snap.MeetingList()
	stats := Stats{
		TotalMeetings: len(meetings),
		Overdue:       len(OverdueTodos(snap, now)),
	}
	for _, m := range meetings {
		if isOpen(m.Status) {
			stats.Pending++
		}
		if isCompleted(m.Status) {
			stats.Completed++
		}
		if inMonthOf(m.AssignDate, now) {
			stats.Monthly++
		}
	}
	return stats
}
