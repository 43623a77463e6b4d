package derive

import (
	"time"

	"github.com/harrisonrobin/taskboard/pkg/model"
	"github.com/harrisonrobin/taskboard/pkg/util"
)

// MaxCardsPerColumn caps how many cards a column renders. Column.Total still
// reports the full size.
const MaxCardsPerColumn = 5

// Card tags shown in the card header.
const (
	TagUrgent    = "急件"
	TagCompleted = "完成"
	TagNormal    = "一般"
)

// Card is the shared shape of meetings and todos on the board.
type Card struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Assignee    string `json:"assignee"`
	DueDate     string `json:"dueDate"`
	DisplayDate string `json:"displayDate"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	Tag         string `json:"tag"`
}

// Column is one kanban bucket.
type Column struct {
	Cards []Card `json:"cards"`
	Total int    `json:"total"`
}

// Kanban is the three-column board.
type Kanban struct {
	Pending   Column `json:"pending"`
	Review    Column `json:"review"`
	Completed Column `json:"completed"`
}

// ComputeKanban merges todos then meetings into cards, drops untitled items
// and buckets them by status. Items with any other status are left off the
// board. loc is used for display dates.
func ComputeKanban(snap *model.Snapshot, loc *time.Location) Kanban {
	var board Kanban
	for _, card := range Cards(snap, loc) {
		switch {
		case isOpen(card.Status):
			board.Pending.add(card)
		case card.Status == model.StatusReview:
			board.Review.add(card)
		case isCompleted(card.Status):
			board.Completed.add(card)
		}
	}
	board.Pending.ensure()
	board.Review.ensure()
	board.Completed.ensure()
	return board
}

func (c *Column) add(card Card) {
	c.Total++
	if len(c.Cards) < MaxCardsPerColumn {
		c.Cards = append(c.Cards, card)
	}
}

func (c *Column) ensure() {
	if c.Cards == nil {
		c.Cards = []Card{}
	}
}

// Cards returns every titled todo and meeting as a card, todos first.
func Cards(snap *model.Snapshot, loc *time.Location) []Card {
	var cards []Card
	for _, t := range snap.TodoList() {
		if t.Task == "" {
			continue
		}
		cards = append(cards, newCard(t.ID, t.Task, t.MeetingID, t.Assignee, t.DueDate, t.Status, t.Priority, loc))
	}
	for _, m := range snap.MeetingList() {
		if m.Title == "" {
			continue
		}
		cards = append(cards, newCard(m.ID, m.Title, m.Category, m.Assignee, m.DueDate, m.Status, "", loc))
	}
	return cards
}

func newCard(id, title, desc, assignee, due, status, priority string, loc *time.Location) Card {
	tag := TagNormal
	switch {
	case priority == model.PriorityHigh:
		tag = TagUrgent
	case isCompleted(status):
		tag = TagCompleted
	}
	return Card{
		ID:          id,
		Title:       title,
		Description: desc,
		Assignee:    assignee,
		DueDate:     due,
		DisplayDate: util.ShortDate(due, loc),
		Status:      status,
		Priority:    priority,
		Tag:         tag,
	}
}
