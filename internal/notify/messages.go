package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/hamed0406/handlewatch/internal/domain"
)

const stampLayout = "2006-01-02 15:04:05"

// Message is a rendered notification.
type Message struct {
	Subject string
	Body    string
}

// Subject lines by status; kept plain so mail filters can match them.
func subjectFor(handle string, s domain.Status) string {
	switch s {
	case domain.StatusAvailable:
		return fmt.Sprintf("Handle possibly free: @%s", handle)
	case domain.StatusRateLimited:
		return fmt.Sprintf("Temporarily rate limited: @%s", handle)
	case domain.StatusTransientError, domain.StatusAmbiguous:
		return fmt.Sprintf("Problem checking @%s", handle)
	case domain.StatusTaken:
		return fmt.Sprintf("Taken: @%s", handle)
	default:
		return fmt.Sprintf("Update @%s: %s", handle, s)
	}
}

func header(handle string, at time.Time, status string, code int, detail string) string {
	httpTxt := "n/a"
	if code != 0 {
		httpTxt = fmt.Sprintf("%d", code)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Hi,\n\nChecked @%s at %s.\n\n", handle, at.Format(stampLayout))
	fmt.Fprintf(&b, "Status:   %s\n", strings.ToUpper(status))
	fmt.Fprintf(&b, "HTTP:     %s\n", httpTxt)
	fmt.Fprintf(&b, "Details:  %s\n", detail)
	return b.String()
}

func claimHint(handle, profileURL string) string {
	return "\nIf you want it, try now:\n" +
		"Settings -> Edit Profile -> Username\n" +
		fmt.Sprintf("Set the username to: %s\n", handle) +
		fmt.Sprintf("\nLink: %s\n", profileURL) +
		"\nThe window can be short; if it fails the first time, retry right away.\n"
}

// StatusChange renders an immediate notification for a classified result.
func StatusChange(handle, profileURL string, res domain.Result, now time.Time) Message {
	body := header(handle, now, res.Status.String(), res.HTTPStatus, res.Detail)
	if res.Status == domain.StatusAvailable {
		body += claimHint(handle, profileURL)
	} else {
		body += "\nYou only hear from me when the status changes.\n"
	}
	return Message{Subject: subjectFor(handle, res.Status), Body: body}
}

// DeferredAvailable renders the single alert released when quiet hours end.
func DeferredAvailable(handle, profileURL string, detectedAt, now time.Time) Message {
	body := header(handle, now, domain.StatusAvailable.String(), 0,
		"seen as possibly free during quiet hours; sending the alert now")
	body += fmt.Sprintf("\nNote: detected at %s\n", detectedAt.Format(stampLayout))
	body += claimHint(handle, profileURL)
	return Message{Subject: subjectFor(handle, domain.StatusAvailable), Body: body}
}

// RepeatedFailures renders the error-streak escalation.
func RepeatedFailures(handle string, streak int, cooldown time.Duration, now time.Time) Message {
	detail := fmt.Sprintf("%d checks in a row failed; pausing %s and retrying with a fresh session", streak, cooldown)
	body := header(handle, now, "repeated_errors", 0, detail)
	body += "\nYou only hear from me when the status changes.\n"
	return Message{Subject: fmt.Sprintf("Problem checking @%s", handle), Body: body}
}

// Started renders the notice sent when the monitor comes up outside quiet hours.
func Started(handle string, interval time.Duration, quietWindow string) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi,\n\nStarted monitoring @%s.\n\n", handle)
	fmt.Fprintf(&b, "Checking roughly every %s (with a little jitter).\n", interval)
	if quietWindow != "" {
		fmt.Fprintf(&b, "No mail between %s.\n", quietWindow)
		b.WriteString("If it shows up free during that window, I note the time and tell you right after.\n")
	}
	return Message{Subject: fmt.Sprintf("Monitor started for @%s", handle), Body: b.String()}
}
