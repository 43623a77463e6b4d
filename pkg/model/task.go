package model

// Column headers of the meetings sheet.
const (
	MeetingID           = "編號"
	MeetingTitle        = "主題"
	MeetingCategory     = "工作分類"
	MeetingOrganization = "相關單位"
	MeetingAssignee     = "負責人"
	MeetingAssignDate   = "指派日期"
	MeetingDueDate      = "截止日期"
	MeetingStatus       = "狀態"
	MeetingNote         = "備註"
)

// Column headers of the todos sheet.
const (
	TodoID        = "待辦編號"
	TodoTask      = "待辦事項"
	TodoMeetingID = "關聯會議編號"
	TodoAssignee  = "負責人"
	TodoAssigner  = "交辦人"
	TodoDueDate   = "截止日期"
	TodoPriority  = "優先級"
	TodoStatus    = "狀態"
)

// Meeting is a row of the meetings sheet. Dates keep their source text;
// consumers normalize them with util.ParseDate.
type Meeting struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Category     string `json:"category"`
	Organization string `json:"organization"`
	Assignee     string `json:"assignee"`
	AssignDate   string `json:"assignDate"`
	DueDate      string `json:"dueDate"`
	Status       string `json:"status"`
	Note         string `json:"note"`
}

// Todo is a row of the todos sheet. MeetingID is a weak reference to a
// Meeting and may point at nothing.
type Todo struct {
	ID        string `json:"id"`
	Task      string `json:"task"`
	MeetingID string `json:"meetingId"`
	Assignee  string `json:"assignee"`
	Assigner  string `json:"assigner"`
	DueDate   string `json:"dueDate"`
	Priority  string `json:"priority"`
	Status    string `json:"status"`
}

// MeetingFromRecord maps a meetings row onto a Meeting.
func MeetingFromRecord(r Record) Meeting {
	return Meeting{
		ID:           r.Get(MeetingID),
		Title:        r.Get(MeetingTitle),
		Category:     r.Get(MeetingCategory),
		Organization: r.Get(MeetingOrganization),
		Assignee:     r.Get(MeetingAssignee),
		AssignDate:   r.Get(MeetingAssignDate),
		DueDate:      r.Get(MeetingDueDate),
		Status:       r.Get(MeetingStatus),
		Note:         r.Get(MeetingNote),
	}
}

// TodoFromRecord maps a todos row onto a Todo.
func TodoFromRecord(r Record) Todo {
	return Todo{
		ID:        r.Get(TodoID),
		Task:      r.Get(TodoTask),
		MeetingID: r.Get(TodoMeetingID),
		Assignee:  r.Get(TodoAssignee),
		Assigner:  r.Get(TodoAssigner),
		DueDate:   r.Get(TodoDueDate),
		Priority:  r.Get(TodoPriority),
		Status:    r.Get(TodoStatus),
	}
}
