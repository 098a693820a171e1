package probe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hamed0406/handlewatch/internal/domain"
)

// fake prober you can control
type fakeProber struct {
	outs []domain.ProbeOutcome
	errs []error
	i    int
}

func (f *fakeProber) Probe(ctx context.Context, handle string) (domain.ProbeOutcome, error) {
	if f.i >= len(f.outs) {
		return domain.ProbeOutcome{}, errors.New("no more")
	}
	o, err := f.outs[f.i], f.errs[f.i]
	f.i++
	return o, err
}

func TestRetryProber_SucceedsAfterRetry(t *testing.T) {
	f := &fakeProber{
		outs: []domain.ProbeOutcome{{}, {HTTPStatus: 200}},
		errs: []error{errors.New("connection reset"), nil},
	}
	rp := &RetryProber{Inner: f, Attempts: 3, Backoff: 5 * time.Millisecond}

	out, err := rp.Probe(context.Background(), "x")
	if err != nil {
		t.Fatalf("expected success after retry, got %v", err)
	}
	if out.HTTPStatus != 200 || f.i != 2 {
		t.Fatalf("unexpected outcome %+v after %d calls", out, f.i)
	}
}

func TestRetryProber_DoesNotRetryOutcomes(t *testing.T) {
	f := &fakeProber{
		outs: []domain.ProbeOutcome{{HTTPStatus: 429}, {HTTPStatus: 200}},
		errs: []error{nil, nil},
	}
	rp := &RetryProber{Inner: f, Attempts: 3}

	out, _ := rp.Probe(context.Background(), "x")
	if out.HTTPStatus != 429 || f.i != 1 {
		t.Fatalf("throttled outcome should be returned as-is, got %+v after %d calls", out, f.i)
	}
}

func TestRetryProber_AllFailAnnotates(t *testing.T) {
	boom := errors.New("boom")
	f := &fakeProber{
		outs: []domain.ProbeOutcome{{}, {}},
		errs: []error{boom, boom},
	}
	rp := &RetryProber{Inner: f, Attempts: 2}

	_, err := rp.Probe(context.Background(), "x")
	if !errors.Is(err, boom) {
		t.Fatalf("want wrapped boom, got %v", err)
	}
	if err.Error() != "after 2 attempts: boom" {
		t.Fatalf("unexpected annotation: %q", err.Error())
	}
}

func TestRetryProber_StopsOnCancel(t *testing.T) {
	f := &fakeProber{
		outs: []domain.ProbeOutcome{{}, {}, {}},
		errs: []error{errors.New("a"), errors.New("b"), errors.New("c")},
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rp := &RetryProber{Inner: f, Attempts: 3, Backoff: time.Hour}

	if _, err := rp.Probe(ctx, "x"); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
	if f.i != 1 {
		t.Fatalf("want a single attempt, got %d", f.i)
	}
}

func TestRetryProber_RetriesUnreachableThroughSleep(t *testing.T) {
	down := domain.ProbeOutcome{Unreachable: true, Reason: "connect: connection refused"}
	f := &fakeProber{
		outs: []domain.ProbeOutcome{down, down, {HTTPStatus: 200}},
		errs: []error{nil, nil, nil},
	}
	var waits []time.Duration
	rp := &RetryProber{
		Inner:    f,
		Attempts: 3,
		Backoff:  2 * time.Second,
		Sleep: func(ctx context.Context, d time.Duration) error {
			waits = append(waits, d)
			return nil
		},
	}

	out, err := rp.Probe(context.Background(), "x")
	if err != nil || out.HTTPStatus != 200 {
		t.Fatalf("want 200 after retries, got %+v err=%v", out, err)
	}
	if len(waits) != 2 || waits[0] != 2*time.Second {
		t.Fatalf("want two 2s waits, got %v", waits)
	}
}

func TestRetryProber_UnreachableAfterAllAttemptsIsAnOutcome(t *testing.T) {
	down := domain.ProbeOutcome{Unreachable: true, Reason: "no such host"}
	f := &fakeProber{
		outs: []domain.ProbeOutcome{down, down},
		errs: []error{nil, nil},
	}
	rp := &RetryProber{Inner: f, Attempts: 2}

	out, err := rp.Probe(context.Background(), "x")
	if err != nil {
		t.Fatalf("unreachable must not be an error: %v", err)
	}
	if !out.Unreachable || f.i != 2 {
		t.Fatalf("want the unreachable outcome after 2 calls, got %+v after %d", out, f.i)
	}
	if got := Classify(out).Status; got != domain.StatusTransientError {
		t.Fatalf("want transient_error, got %s", got)
	}
}
