package writer

import "github.com/harrisonrobin/taskboard/pkg/model"

// NewMeeting is the input of an addMeeting write.
type NewMeeting struct {
	Title        string `json:"title"`
	Category     string `json:"category"`
	Organization string `json:"organization"`
	Assignee     string `json:"assignee"`
	AssignDate   string `json:"assignDate"`
	DueDate      string `json:"dueDate"`
	Status       string `json:"status"`
	Note         string `json:"note"`
}

// Payload returns the flat parameters for addMeeting. Status defaults to
// 待處理.
func (m NewMeeting) Payload() map[string]string {
	status := m.Status
	if status == "" {
		status = model.StatusPending
	}
	return map[string]string{
		"title":        m.Title,
		"category":     m.Category,
		"organization": m.Organization,
		"assignee":     m.Assignee,
		"assignDate":   m.AssignDate,
		"dueDate":      m.DueDate,
		"status":       status,
		"note":         m.Note,
	}
}

// NewTodo is the input of an addTodo write.
type NewTodo struct {
	MeetingID string `json:"meetingId"`
	Task      string `json:"task"`
	Assignee  string `json:"assignee"`
	Assigner  string `json:"assigner"`
	DueDate   string `json:"dueDate"`
	Priority  string `json:"priority"`
	Status    string `json:"status"`
}

// Payload returns the flat parameters for addTodo. Priority defaults to 中
// and status to 待處理.
func (t NewTodo) Payload() map[string]string {
	priority := t.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}
	status := t.Status
	if status == "" {
		status = model.StatusPending
	}
	return map[string]string{
		"meetingId": t.MeetingID,
		"task":      t.Task,
		"assignee":  t.Assignee,
		"assigner":  t.Assigner,
		"dueDate":   t.DueDate,
		"priority":  priority,
		"status":    status,
	}
}

// StatusUpdate is the input of an updateStatus write. Sheet is the sheet
// name holding the row.
type StatusUpdate struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Sheet  string `json:"sheet"`
}

func (s StatusUpdate) Payload() map[string]string {
	return map[string]string{
		"id":     s.ID,
		"status": s.Status,
		"sheet":  s.Sheet,
	}
}
