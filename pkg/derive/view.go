package derive

import (
	"time"

	"github.com/harrisonrobin/taskboard/pkg/model"
)

// View bundles everything the presentation layer renders for one snapshot.
// It is rebuilt on every snapshot change and never stored as a source of
// truth.
type View struct {
	Stats          Stats     `json:"stats"`
	MonthlyDisplay int       `json:"monthlyDisplay"`
	Kanban         Kanban    `json:"kanban"`
	Options        Options   `json:"options"`
	LoadedAt       time.Time `json:"loadedAt"`
	ComputedAt     time.Time `json:"computedAt"`
}

// ComputeView derives the full view of snap as of now.
func ComputeView(snap *model.Snapshot, now time.Time) View {
	stats := ComputeStats(snap, now)
	return View{
		Stats:          stats,
		MonthlyDisplay: stats.MonthlyDisplay(),
		Kanban:         ComputeKanban(snap, now.Location()),
		Options:        ComputeOptions(snap),
		LoadedAt:       snap.LoadedAt,
		ComputedAt:     now,
	}
}
