package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/hamed0406/handlewatch/internal/domain"
)

const (
	maxBodyBytes = 1 << 20
	webAppID     = "936619743392459"
)

// HTTPProber looks a handle up through the web profile endpoint.
type HTTPProber struct {
	Session *Session
	Timeout time.Duration
}

func NewHTTPProber(s *Session, timeout time.Duration) *HTTPProber {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPProber{Session: s, Timeout: timeout}
}

func (p *HTTPProber) profileURL(handle string) string {
	return p.Session.BaseURL.String() + "/api/v1/users/web_profile_info/?username=" + url.QueryEscape(handle)
}

func (p *HTTPProber) Probe(ctx context.Context, handle string) (domain.ProbeOutcome, error) {
	cctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(cctx, http.MethodGet, p.profileURL(handle), nil)
	if err != nil {
		return domain.ProbeOutcome{}, fmt.Errorf("probe %s: %w", handle, err)
	}
	req.Header.Set("User-Agent", randomUserAgent())
	req.Header.Set("X-CSRFToken", p.Session.CSRF())
	req.Header.Set("X-IG-App-ID", webAppID)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Referer", p.Session.BaseURL.String()+"/"+url.PathEscape(handle)+"/")
	req.Header.Set("Sec-Fetch-Dest", "empty")
	req.Header.Set("Sec-Fetch-Mode", "cors")
	req.Header.Set("Sec-Fetch-Site", "same-origin")

	resp, err := p.Session.Client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return domain.ProbeOutcome{}, ctx.Err()
		}
		if isTimeout(err) {
			return domain.ProbeOutcome{TimedOut: true, Reason: err.Error()}, nil
		}
		// Refused, reset and unresolvable hosts are an outage, not a bug.
		return domain.ProbeOutcome{Unreachable: true, Reason: err.Error()}, nil
	}
	defer resp.Body.Close()

	out := domain.ProbeOutcome{HTTPStatus: resp.StatusCode}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	out.Body = body
	if err != nil {
		if isTimeout(err) && ctx.Err() == nil {
			out.TimedOut = true
		}
		out.Malformed = true
		out.Reason = err.Error()
	}
	return out, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
