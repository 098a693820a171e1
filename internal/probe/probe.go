package probe

import (
	"context"

	"github.com/hamed0406/handlewatch/internal/domain"
)

// Prober performs one lookup of a handle.
//
// Expected failure modes (timeout, unreachable host, throttling, odd bodies)
// come back as outcome fields. A non-nil error means the lookup could not be
// attempted at all, e.g. the request could not be built.
type Prober interface {
	Probe(ctx context.Context, handle string) (domain.ProbeOutcome, error)
}
