package scheduler

import "github.com/hamed0406/handlewatch/internal/domain"

// ShouldConsiderNotifying reports whether moving from prev to curr is worth
// telling the operator about. The first classification only counts when it
// is Available. Quiet hours are not considered here.
func ShouldConsiderNotifying(prev, curr domain.Status) bool {
	if prev == domain.StatusNone {
		return curr == domain.StatusAvailable
	}
	return curr != prev
}
