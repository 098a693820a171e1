package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/publicsuffix"
)

// ErrNoCSRF is returned when the landing page did not set a csrftoken cookie.
var ErrNoCSRF = errors.New("no csrftoken cookie in response")

const csrfCookie = "csrftoken"

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_5) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:126.0) Gecko/20100101 Firefox/126.0",
}

// Session holds the cookie jar and CSRF token the profile lookup needs.
// It is used from a single goroutine.
type Session struct {
	BaseURL *url.URL
	Client  *http.Client

	csrf string
}

// NewSession builds an HTTP/2-capable client with a cookie jar bound to baseURL.
func NewSession(baseURL string, timeout time.Duration) (*Session, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", baseURL)
	}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConns:          4,
	}
	if err := http2.ConfigureTransport(tr); err != nil {
		return nil, fmt.Errorf("configure http2: %w", err)
	}
	return &Session{
		BaseURL: u,
		Client:  &http.Client{Transport: tr, Jar: jar, Timeout: timeout},
	}, nil
}

// CSRF returns the token captured by the last successful Refresh.
func (s *Session) CSRF() string { return s.csrf }

// Refresh loads the landing page to obtain fresh cookies and a CSRF token.
// The token must come from this load; a token left in the jar by an earlier
// refresh does not count. On failure the previous token is kept.
func (s *Session) Refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL.String()+"/", nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", randomUserAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch landing page: %w", err)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
	resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("fetch landing page: HTTP %d", resp.StatusCode)
	}
	if tok := freshToken(resp, s.Client.Jar.Cookies(s.BaseURL), s.csrf); tok != "" {
		s.csrf = tok
		return nil
	}
	return ErrNoCSRF
}

// freshToken returns the csrftoken set by resp, or a jar value that differs
// from prev (set earlier in a redirect chain). It returns "" otherwise.
func freshToken(resp *http.Response, jar []*http.Cookie, prev string) string {
	for _, c := range resp.Cookies() {
		if c.Name == csrfCookie && c.Value != "" {
			return c.Value
		}
	}
	for _, c := range jar {
		if c.Name == csrfCookie && c.Value != "" && c.Value != prev {
			return c.Value
		}
	}
	return ""
}

func randomUserAgent() string {
	return userAgents[rand.IntN(len(userAgents))]
}
