package probe

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/hamed0406/handlewatch/internal/domain"
)

const (
	notFoundMarker = "Page Not Found"
	loginScanLimit = 2000
	excerptLimit   = 150
)

// Rule inspects an outcome and claims it by returning ok=true.
type Rule struct {
	Name  string
	Match func(in *Input) (domain.Result, bool)
}

// Input is what rules see: the raw outcome plus the body decoded at most once.
type Input struct {
	Outcome domain.ProbeOutcome

	decoded bool
	doc     map[string]any
}

// Document returns the body decoded as a JSON object, or nil when the body is
// not well-formed JSON.
func (in *Input) Document() map[string]any {
	if in.decoded {
		return in.doc
	}
	in.decoded = true
	if in.Outcome.Malformed {
		return nil
	}
	body := bytes.TrimSpace(in.Outcome.Body)
	if len(body) == 0 || body[0] != '{' {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil
	}
	in.doc = doc
	return doc
}

// Classifier applies rules in order; the first match wins.
type Classifier struct {
	Rules []Rule
}

// NewClassifier returns the classifier for web profile lookups.
func NewClassifier() *Classifier {
	return &Classifier{Rules: DefaultRules()}
}

func (c *Classifier) Classify(o domain.ProbeOutcome) domain.Result {
	in := &Input{Outcome: o}
	for _, r := range c.Rules {
		if res, ok := r.Match(in); ok {
			if res.HTTPStatus == 0 {
				res.HTTPStatus = o.HTTPStatus
			}
			return res
		}
	}
	return ambiguous(in)
}

// Classify runs the default rule list.
func Classify(o domain.ProbeOutcome) domain.Result {
	return NewClassifier().Classify(o)
}

func DefaultRules() []Rule {
	return []Rule{
		{Name: "throttled", Match: matchThrottled},
		{Name: "timed_out", Match: matchTimedOut},
		{Name: "unreachable", Match: matchUnreachable},
		{Name: "page_not_found", Match: matchNotFoundPage},
		{Name: "profile_present", Match: matchProfilePresent},
		{Name: "profile_null", Match: matchProfileNull},
		{Name: "login_wall", Match: matchLoginWall},
	}
}

func matchThrottled(in *Input) (domain.Result, bool) {
	if in.Outcome.HTTPStatus != http.StatusTooManyRequests {
		return domain.Result{}, false
	}
	return domain.Result{
		Status: domain.StatusRateLimited,
		Detail: "throttled (429); backing off before retrying with a fresh session",
	}, true
}

func matchTimedOut(in *Input) (domain.Result, bool) {
	if !in.Outcome.TimedOut {
		return domain.Result{}, false
	}
	detail := "request timed out"
	if in.Outcome.Reason != "" {
		detail += ": " + in.Outcome.Reason
	}
	return domain.Result{Status: domain.StatusTransientError, Detail: detail}, true
}

func matchUnreachable(in *Input) (domain.Result, bool) {
	if !in.Outcome.Unreachable {
		return domain.Result{}, false
	}
	detail := "site unreachable"
	if in.Outcome.Reason != "" {
		detail += ": " + in.Outcome.Reason
	}
	return domain.Result{Status: domain.StatusTransientError, Detail: detail}, true
}

func matchNotFoundPage(in *Input) (domain.Result, bool) {
	if !bytes.Contains(in.Outcome.Body, []byte(notFoundMarker)) {
		return domain.Result{}, false
	}
	return domain.Result{
		Status: domain.StatusAvailable,
		Detail: "profile page does not exist; the handle looks free",
	}, true
}

// userRecord returns data.user and whether the key was present at all.
func userRecord(in *Input) (any, bool) {
	doc := in.Document()
	if doc == nil {
		return nil, false
	}
	data, ok := doc["data"].(map[string]any)
	if !ok {
		return nil, false
	}
	user, ok := data["user"]
	return user, ok
}

func matchProfilePresent(in *Input) (domain.Result, bool) {
	raw, ok := userRecord(in)
	if !ok {
		return domain.Result{}, false
	}
	user, ok := raw.(map[string]any)
	if !ok || len(user) == 0 {
		return domain.Result{}, false
	}
	p := extractProfile(user)
	return domain.Result{
		Status:  domain.StatusTaken,
		Detail:  "taken: " + p.Summary(),
		Profile: &p,
	}, true
}

func matchProfileNull(in *Input) (domain.Result, bool) {
	raw, ok := userRecord(in)
	if !ok {
		return domain.Result{}, false
	}
	if raw != nil {
		if user, isObj := raw.(map[string]any); !isObj || len(user) > 0 {
			return domain.Result{}, false
		}
	}
	return domain.Result{
		Status: domain.StatusAvailable,
		Detail: "lookup returned an empty user record; the handle looks free",
	}, true
}

func matchLoginWall(in *Input) (domain.Result, bool) {
	body := in.Outcome.Body
	if len(body) > loginScanLimit {
		body = body[:loginScanLimit]
	}
	if !bytes.Contains(bytes.ToLower(body), []byte("login")) {
		return domain.Result{}, false
	}
	return domain.Result{
		Status: domain.StatusTransientError,
		Detail: "login required; the profile cannot be read right now",
	}, true
}

func ambiguous(in *Input) domain.Result {
	detail := fmt.Sprintf("unclear response (HTTP %d): %s",
		in.Outcome.HTTPStatus, in.Outcome.Excerpt(excerptLimit))
	return domain.Result{
		Status:     domain.StatusAmbiguous,
		HTTPStatus: in.Outcome.HTTPStatus,
		Detail:     detail,
	}
}

func extractProfile(user map[string]any) domain.Profile {
	p := domain.Profile{Followers: -1}
	if name, ok := user["full_name"].(string); ok {
		p.FullName = strings.TrimSpace(name)
	}
	if priv, ok := user["is_private"].(bool); ok {
		p.IsPrivate = priv
	}
	if edge, ok := user["edge_followed_by"].(map[string]any); ok {
		if n, ok := edge["count"].(json.Number); ok {
			if v, err := n.Int64(); err == nil {
				p.Followers = v
			}
		}
	}
	return p
}
