package derive

import (
	"time"

	"github.com/harrisonrobin/taskboard/pkg/model"
)

// OverdueTodos returns the todos that are not completed and whose due date is
// before now, in sheet order.
func OverdueTodos(snap *model.Snapshot, now time.Time) []model.Todo {
	var overdue []model.Todo
	for _, t := range snap.TodoList() {
		if isOverdue(t.Status, t.DueDate, now) {
			overdue = append(overdue, t)
		}
	}
	return overdue
}
