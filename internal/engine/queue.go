package engine

import (
	"sort"

	"github.com/fullzer4/dusty/internal/notification"
)

// sortVisible orders the display queue: urgency descending, then arrival
// time ascending, then id ascending so the order is total and stable
// across recomputations.
func sortVisible(ns []notification.Notification) {
	sort.Slice(ns, func(i, j int) bool {
		a, b := &ns[i], &ns[j]
		if a.Urgency != b.Urgency {
			return a.Urgency > b.Urgency
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
