package model

// Record is one row of a table keyed by its column header label.
// Every non-empty header of the table is present; missing cells are "".
type Record map[string]string

// Get returns the value of field, or "" when the field is absent.
func (r Record) Get(field string) string {
	if r == nil {
		return ""
	}
	return r[field]
}

// Clone returns an independent copy of r.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Table identifies one of the five sheets mirrored by the dashboard.
type Table string

const (
	Meetings      Table = "meetings"
	Categories    Table = "categories"
	Organizations Table = "organizations"
	Staff         Table = "staff"
	Todos         Table = "todos"
)

// AllTables lists the tables in the order they are loaded and reported.
var AllTables = []Table{Meetings, Categories, Organizations, Staff, Todos}

// Status values shared by meetings and todos.
const (
	StatusPending    = "待處理"
	StatusInProgress = "進行中"
	StatusReview     = "待核定"
	StatusCompleted  = "已完成"
)

// Priority values for todos.
const (
	PriorityHigh   = "高"
	PriorityMedium = "中"
	PriorityLow    = "低"
)

// Enabled flag values used by the lookup tables.
const (
	FlagYes = "是"
	FlagNo  = "否"
)
