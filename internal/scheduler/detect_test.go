package scheduler

import (
	"testing"

	"github.com/hamed0406/handlewatch/internal/domain"
)

func TestShouldConsiderNotifying(t *testing.T) {
	tests := []struct {
		prev, curr domain.Status
		want       bool
	}{
		{domain.StatusNone, domain.StatusAvailable, true},
		{domain.StatusNone, domain.StatusTaken, false},
		{domain.StatusNone, domain.StatusTransientError, false},
		{domain.StatusTaken, domain.StatusTaken, false},
		{domain.StatusTaken, domain.StatusAvailable, true},
		{domain.StatusAvailable, domain.StatusTaken, true},
		{domain.StatusTaken, domain.StatusAmbiguous, true},
		{domain.StatusAvailable, domain.StatusAvailable, false},
	}
	for _, tt := range tests {
		if got := ShouldConsiderNotifying(tt.prev, tt.curr); got != tt.want {
			t.Errorf("ShouldConsiderNotifying(%s, %s) = %v, want %v", tt.prev, tt.curr, got, tt.want)
		}
	}
}
