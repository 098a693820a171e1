package domain

import (
	"encoding/json"
	"testing"
	"unicode/utf8"
)

func TestStatus_IsError(t *testing.T) {
	cases := []struct {
		in   Status
		want bool
	}{
		{StatusTransientError, true},
		{StatusAmbiguous, true},
		{StatusTaken, false},
		{StatusAvailable, false},
		{StatusRateLimited, false},
		{StatusNone, false},
	}
	for _, c := range cases {
		if got := c.in.IsError(); got != c.want {
			t.Fatalf("%s.IsError()=%v want %v", c.in, got, c.want)
		}
	}
	if StatusNone.String() != "none" {
		t.Fatalf("StatusNone should print as none, got %q", StatusNone.String())
	}
}

func TestProfile_Summary(t *testing.T) {
	p := Profile{FullName: "Jane", IsPrivate: true, Followers: 12}
	if got := p.Summary(); got != `"Jane", private=true, followers=12` {
		t.Fatalf("unexpected summary: %q", got)
	}
	p = Profile{Followers: -1}
	if got := p.Summary(); got != "no display name, private=false, followers=?" {
		t.Fatalf("unexpected summary: %q", got)
	}
}

func TestProbeOutcome_Excerpt(t *testing.T) {
	o := ProbeOutcome{Body: []byte("  line one\nline two\r\nline three  ")}
	if got := o.Excerpt(19); got != "line one line two" {
		t.Fatalf("excerpt=%q", got)
	}
	if got := (ProbeOutcome{}).Excerpt(10); got != "" {
		t.Fatalf("empty body excerpt=%q", got)
	}
}

func TestProbeOutcome_ExcerptKeepsRunesWhole(t *testing.T) {
	o := ProbeOutcome{Body: []byte("hé café ☕ ok")}
	for n := 1; n <= len(o.Body); n++ {
		got := o.Excerpt(n)
		if !utf8.ValidString(got) {
			t.Fatalf("Excerpt(%d)=%q is not valid UTF-8", n, got)
		}
		if len(got) > n {
			t.Fatalf("Excerpt(%d)=%q is longer than %d bytes", n, got, n)
		}
	}
	if got := o.Excerpt(2); got != "h" {
		t.Fatalf("want the split rune dropped, got %q", got)
	}
}

func TestResult_JSONOmitsEmptyProfile(t *testing.T) {
	b, err := json.Marshal(Result{Status: StatusAvailable})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := m["profile"]; ok {
		t.Fatalf("profile should be omitted: %s", b)
	}
	if m["status"] != "available" {
		t.Fatalf("status field wrong: %s", b)
	}
}
