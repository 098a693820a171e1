package scheduler

import "time"

// DeferredFlag holds at most one "became available while quiet" alert.
//
// It arms only inside the quiet window and releases only at the first cycle
// that crosses from quiet to active. While armed, further detections keep
// the first DetectedAt.
type DeferredFlag struct {
	pending    bool
	detectedAt time.Time
}

// Arm records at as the detection time. It returns true only when the flag
// moved from idle to armed.
func (f *DeferredFlag) Arm(at time.Time, quiet bool) bool {
	if !quiet || f.pending {
		return false
	}
	f.pending = true
	f.detectedAt = at
	return true
}

// Release clears an armed flag at the quiet->active boundary and returns the
// stored detection time.
func (f *DeferredFlag) Release(wasQuiet, nowQuiet bool) (time.Time, bool) {
	if !f.pending || !wasQuiet || nowQuiet {
		return time.Time{}, false
	}
	at := f.detectedAt
	f.pending = false
	f.detectedAt = time.Time{}
	return at, true
}

func (f *DeferredFlag) Pending() bool { return f.pending }

// DetectedAt is zero unless the flag is armed.
func (f *DeferredFlag) DetectedAt() time.Time { return f.detectedAt }
