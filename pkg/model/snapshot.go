package model

import "time"

// Snapshot is the complete set of the five tables at one point in time.
// A Snapshot is never modified after it is built; a reload replaces it whole.
type Snapshot struct {
	Meetings      []Record  `json:"meetings"`
	Categories    []Record  `json:"categories"`
	Organizations []Record  `json:"organizations"`
	Staff         []Record  `json:"staff"`
	Todos         []Record  `json:"todos"`
	LoadedAt      time.Time `json:"loadedAt"`
}

// NewSnapshot assembles a Snapshot from tables keyed by name. Missing tables
// are empty.
func NewSnapshot(tables map[Table][]Record, loadedAt time.Time) *Snapshot {
	rows := func(t Table) []Record {
		if r := tables[t]; r != nil {
			return r
		}
		return []Record{}
	}
	return &Snapshot{
		Meetings:      rows(Meetings),
		Categories:    rows(Categories),
		Organizations: rows(Organizations),
		Staff:         rows(Staff),
		Todos:         rows(Todos),
		LoadedAt:      loadedAt,
	}
}

// Table returns the rows of t.
func (s *Snapshot) Table(t Table) []Record {
	switch t {
	case Meetings:
		return s.Meetings
	case Categories:
		return s.Categories
	case Organizations:
		return s.Organizations
	case Staff:
		return s.Staff
	case Todos:
		return s.Todos
	}
	return nil
}

// MeetingList returns the meetings as typed records.
func (s *Snapshot) MeetingList() []Meeting {
	out := make([]Meeting, 0, len(s.Meetings))
	for _, r := range s.Meetings {
		out = append(out, MeetingFromRecord(r))
	}
	return out
}

// TodoList returns the todos as typed records.
func (s *Snapshot) TodoList() []Todo {
	out := make([]Todo, 0, len(s.Todos))
	for _, r := range s.Todos {
		out = append(out, TodoFromRecord(r))
	}
	return out
}

func (s *Snapshot) CategoryList() []Category {
	out := make([]Category, 0, len(s.Categories))
	for _, r := range s.Categories {
		out = append(out, CategoryFromRecord(r))
	}
	return out
}

func (s *Snapshot) OrganizationList() []Organization {
	out := make([]Organization, 0, len(s.Organizations))
	for _, r := range s.Organizations {
		out = append(out, OrganizationFromRecord(r))
	}
	return out
}

func (s *Snapshot) StaffList() []StaffMember {
	out := make([]StaffMember, 0, len(s.Staff))
	for _, r := range s.Staff {
		out = append(out, StaffFromRecord(r))
	}
	return out
}
