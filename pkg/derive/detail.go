package derive

import (
	"fmt"
	"time"

	"github.com/harrisonrobin/taskboard/pkg/model"
)

// StatKind names a headline counter that can be drilled into.
type StatKind string

const (
	KindPending   StatKind = "pending"
	KindMonthly   StatKind = "monthly"
	KindCompleted StatKind = "completed"
	KindOverdue   StatKind = "overdue"
)

var kindTitles = map[StatKind]string{
	KindPending:   "待處理會議",
	KindMonthly:   "本月公文",
	KindCompleted: "已完成決議",
	KindOverdue:   "逾期待辦",
}

// ParseStatKind validates a kind name.
func ParseStatKind(s string) (StatKind, error) {
	k := StatKind(s)
	if _, ok := kindTitles[k]; !ok {
		return "", fmt.Errorf("unknown stat kind %q", s)
	}
	return k, nil
}

// Status classes of a detail row.
const (
	ClassPending   = "pending"
	ClassCompleted = "completed"
	ClassOverdue   = "overdue"
)

// DetailItem is one row of a drill-down list.
type DetailItem struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Assignee string `json:"assignee"`
	DueDate  string `json:"dueDate"`
	Status   string `json:"status"`
	Class    string `json:"class"`
}

// Detail is the drill-down list behind one counter.
type Detail struct {
	Kind  StatKind     `json:"kind"`
	Title string       `json:"title"`
	Items []DetailItem `json:"items"`
}

// ComputeDetail lists the items counted by ComputeStats for kind. The lengths
// always agree with the matching Stats field.
func ComputeDetail(snap *model.Snapshot, kind StatKind, now time.Time) (Detail, error) {
	title, ok := kindTitles[kind]
	if !ok {
		return Detail{}, fmt.Errorf("unknown stat kind %q", kind)
	}
	d := Detail{Kind: kind, Title: title, Items: []DetailItem{}}

	if kind == KindOverdue {
		for _, t := range OverdueTodos(snap, now) {
			d.Items = append(d.Items, DetailItem{
				ID:       t.ID,
				Title:    t.Task,
				Assignee: t.Assignee,
				DueDate:  t.DueDate,
				Status:   t.Status,
				Class:    classify(t.Status, t.DueDate, now),
			})
		}
		return d, nil
	}

	for _, m := range snap.MeetingList() {
		var match bool
		switch kind {
		case KindPending:
			match = isOpen(m.Status)
		case KindMonthly:
			match = inMonthOf(m.AssignDate, now)
		case KindCompleted:
			match = isCompleted(m.Status)
		}
		if !match {
			continue
		}
		d.Items = append(d.Items, DetailItem{
			ID:       m.ID,
			Title:    m.Title,
			Category: m.Category,
			Assignee: m.Assignee,
			DueDate:  m.DueDate,
			Status:   m.Status,
			Class:    classify(m.Status, m.DueDate, now),
		})
	}
	return d, nil
}

func classify(status, due string, now time.Time) string {
	switch {
	case isCompleted(status):
		return ClassCompleted
	case isOverdue(status, due, now):
		return ClassOverdue
	default:
		return ClassPending
	}
}
