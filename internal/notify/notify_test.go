package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/mail.v2"

	"github.com/hamed0406/handlewatch/internal/domain"
)

type countingNotifier struct {
	n   int
	err error
}

func (c *countingNotifier) Send(ctx context.Context, title, text string) error {
	c.n++
	return c.err
}

func TestMulti_SendsToAllAndCombinesErrors(t *testing.T) {
	a := &countingNotifier{err: errors.New("a down")}
	b := &countingNotifier{}
	c := &countingNotifier{err: errors.New("c down")}

	err := Multi{a, nil, b, c}.Send(context.Background(), "t", "x")
	if a.n != 1 || b.n != 1 || c.n != 1 {
		t.Fatalf("every notifier should be called once: %d %d %d", a.n, b.n, c.n)
	}
	if got := len(multierr.Errors(err)); got != 2 {
		t.Fatalf("want 2 combined errors, got %d (%v)", got, err)
	}
}

func TestBuild_SkipsNil(t *testing.T) {
	if Build(nil, nil) != nil {
		t.Fatalf("expected nil when nothing is configured")
	}
	n := &countingNotifier{}
	if err := Build(nil, n).Send(context.Background(), "t", "x"); err != nil || n.n != 1 {
		t.Fatalf("expected one delivery, got n=%d err=%v", n.n, err)
	}
}

type fakeSender struct {
	msgs []*mail.Message
	err  error
}

func (f *fakeSender) DialAndSend(m ...*mail.Message) error {
	f.msgs = append(f.msgs, m...)
	return f.err
}

func TestEmail_SendBuildsMessage(t *testing.T) {
	if NewEmail(SMTPConfig{Host: "smtp.example.com"}) != nil {
		t.Fatalf("no recipients should disable email")
	}
	fs := &fakeSender{}
	e := &Email{cfg: SMTPConfig{From: "me@example.com", To: []string{"you@example.com"}}, dialer: fs}

	if err := e.Send(context.Background(), "Subject line", "body"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(fs.msgs) != 1 {
		t.Fatalf("want one message, got %d", len(fs.msgs))
	}
	m := fs.msgs[0]
	if got := m.GetHeader("Subject"); len(got) != 1 || got[0] != "Subject line" {
		t.Fatalf("subject header: %v", got)
	}
	if got := m.GetHeader("To"); len(got) != 1 || got[0] != "you@example.com" {
		t.Fatalf("to header: %v", got)
	}
}

func TestEmail_SendWrapsError(t *testing.T) {
	e := &Email{cfg: SMTPConfig{From: "a@b", To: []string{"c@d"}}, dialer: &fakeSender{err: errors.New("auth failed")}}
	err := e.Send(context.Background(), "s", "b")
	if err == nil || !strings.Contains(err.Error(), "auth failed") {
		t.Fatalf("want wrapped auth error, got %v", err)
	}
}

func TestMessages(t *testing.T) {
	now := time.Date(2025, 8, 18, 9, 5, 0, 0, time.UTC)
	link := "https://www.instagram.com/jane/"

	m := StatusChange("jane", link, domain.Result{Status: domain.StatusAvailable, HTTPStatus: 404, Detail: "gone"}, now)
	if m.Subject != "Handle possibly free: @jane" || !strings.Contains(m.Body, link) || !strings.Contains(m.Body, "HTTP:     404") {
		t.Fatalf("unexpected available message: %+v", m)
	}

	m = StatusChange("jane", link, domain.Result{Status: domain.StatusTaken, HTTPStatus: 200, Detail: "taken"}, now)
	if m.Subject != "Taken: @jane" || strings.Contains(m.Body, link) {
		t.Fatalf("unexpected taken message: %+v", m)
	}

	detected := time.Date(2025, 8, 18, 2, 0, 0, 0, time.UTC)
	m = DeferredAvailable("jane", link, detected, now)
	if !strings.Contains(m.Body, "detected at 2025-08-18 02:00:00") || !strings.Contains(m.Body, "HTTP:     n/a") {
		t.Fatalf("deferred body missing detection time: %s", m.Body)
	}

	m = RepeatedFailures("jane", 5, 30*time.Minute, now)
	if m.Subject != "Problem checking @jane" || !strings.Contains(m.Body, "5 checks in a row") {
		t.Fatalf("unexpected failure message: %+v", m)
	}

	m = Started("jane", 30*time.Minute, "00:00-09:00")
	if !strings.Contains(m.Body, "No mail between 00:00-09:00") {
		t.Fatalf("unexpected started message: %s", m.Body)
	}
}
