package domain

import (
	"fmt"
	"time"
)

// Status is the classified outcome of one probe cycle.
type Status string

const (
	// StatusNone marks "no classification yet"; it never comes out of a probe.
	StatusNone           Status = ""
	StatusTaken          Status = "taken"
	StatusAvailable      Status = "available"
	StatusRateLimited    Status = "rate_limited"
	StatusTransientError Status = "transient_error"
	StatusAmbiguous      Status = "ambiguous"
)

// IsError reports whether s counts toward the error streak.
func (s Status) IsError() bool {
	return s == StatusTransientError || s == StatusAmbiguous
}

func (s Status) String() string {
	if s == StatusNone {
		return "none"
	}
	return string(s)
}

// Profile holds display attributes of a taken handle. Advisory only.
// Followers is -1 when the count was not present in the response.
type Profile struct {
	FullName  string `json:"full_name"`
	IsPrivate bool   `json:"is_private"`
	Followers int64  `json:"followers"`
}

func (p Profile) Summary() string {
	name := "no display name"
	if p.FullName != "" {
		name = fmt.Sprintf("%q", p.FullName)
	}
	followers := "?"
	if p.Followers >= 0 {
		followers = fmt.Sprintf("%d", p.Followers)
	}
	return fmt.Sprintf("%s, private=%t, followers=%s", name, p.IsPrivate, followers)
}

// Result is a classified probe outcome.
type Result struct {
	Status     Status    `json:"status"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	Profile    *Profile  `json:"profile,omitempty"`
	CheckedAt  time.Time `json:"checked_at"`
}
