package scheduler

import (
	"fmt"
	"time"
)

// QuietHours is the daily window [Start, End) during which notifications are
// held back. Start > End wraps midnight; Start == End disables the window.
type QuietHours struct {
	Start    int
	End      int
	Location *time.Location
}

func (q QuietHours) IsQuiet(t time.Time) bool {
	if q.Start == q.End {
		return false
	}
	if q.Location != nil {
		t = t.In(q.Location)
	}
	h := t.Hour()
	if q.Start < q.End {
		return h >= q.Start && h < q.End
	}
	return h >= q.Start || h < q.End
}

func (q QuietHours) String() string {
	if q.Start == q.End {
		return "disabled"
	}
	return fmt.Sprintf("%02d:00-%02d:00", q.Start, q.End)
}
