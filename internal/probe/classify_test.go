package probe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamed0406/handlewatch/internal/domain"
)

func outcome(code int, body string) domain.ProbeOutcome {
	return domain.ProbeOutcome{HTTPStatus: code, Body: []byte(body)}
}

func TestClassify_DecisionOrder(t *testing.T) {
	cases := []struct {
		name string
		in   domain.ProbeOutcome
		want domain.Status
	}{
		{"throttled wins over body", outcome(429, `{"data":{"user":null}}`), domain.StatusRateLimited},
		{"timeout", domain.ProbeOutcome{TimedOut: true, Reason: "deadline"}, domain.StatusTransientError},
		{"not found page", outcome(404, "<html><title>Page Not Found • Instagram</title>login</html>"), domain.StatusAvailable},
		{"populated user", outcome(200, `{"data":{"user":{"full_name":"A","is_private":false}}}`), domain.StatusTaken},
		{"null user", outcome(200, `{"data":{"user":null},"status":"ok"}`), domain.StatusAvailable},
		{"empty user object", outcome(200, ` {"data":{"user":{}}}`), domain.StatusAvailable},
		{"login wall", outcome(200, "<html><a href=/accounts/Login/>Log in</a></html>"), domain.StatusTransientError},
		{"malformed json with login", outcome(200, `{"data": {"user": login`), domain.StatusTransientError},
		{"json without data", outcome(200, `{"message":"Please wait a few minutes","status":"fail"}`), domain.StatusAmbiguous},
		{"server error", outcome(500, "oops"), domain.StatusAmbiguous},
		{"empty", domain.ProbeOutcome{}, domain.StatusAmbiguous},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, Classify(c.in).Status)
		})
	}
}

func TestClassify_TakenExtractsProfile(t *testing.T) {
	res := Classify(outcome(200, `{"data":{"user":{"full_name":" Jane Doe ","is_private":true,"edge_followed_by":{"count":4821}}}}`))

	require.Equal(t, domain.StatusTaken, res.Status)
	require.NotNil(t, res.Profile)
	assert.Equal(t, "Jane Doe", res.Profile.FullName)
	assert.True(t, res.Profile.IsPrivate)
	assert.EqualValues(t, 4821, res.Profile.Followers)
	assert.Equal(t, 200, res.HTTPStatus)
	assert.Contains(t, res.Detail, "followers=4821")
}

func TestClassify_TakenWithoutFollowerCount(t *testing.T) {
	res := Classify(outcome(200, `{"data":{"user":{"username":"x"}}}`))

	require.NotNil(t, res.Profile)
	assert.EqualValues(t, -1, res.Profile.Followers)
	assert.Contains(t, res.Detail, "followers=?")
}

func TestClassify_MalformedFlagSkipsStructuredRules(t *testing.T) {
	o := outcome(200, `{"data":{"user":null}}`)
	o.Malformed = true

	assert.Equal(t, domain.StatusAmbiguous, Classify(o).Status)
}

func TestClassify_LoginScanIsBounded(t *testing.T) {
	body := make([]byte, loginScanLimit+10)
	for i := range body {
		body[i] = 'x'
	}
	copy(body[loginScanLimit+2:], "login")

	assert.Equal(t, domain.StatusAmbiguous, Classify(domain.ProbeOutcome{HTTPStatus: 200, Body: body}).Status)
}

func TestClassify_AmbiguousCarriesExcerpt(t *testing.T) {
	res := Classify(outcome(503, "upstream\nconnect error"))

	assert.Equal(t, 503, res.HTTPStatus)
	assert.Equal(t, "unclear response (HTTP 503): upstream connect error", res.Detail)
}

func TestClassifier_CustomRuleRunsInOrder(t *testing.T) {
	c := NewClassifier()
	c.Rules = append([]Rule{{
		Name: "maintenance",
		Match: func(in *Input) (domain.Result, bool) {
			if in.Outcome.HTTPStatus != 503 {
				return domain.Result{}, false
			}
			return domain.Result{Status: domain.StatusTransientError, Detail: "maintenance"}, true
		},
	}}, c.Rules...)

	res := c.Classify(outcome(503, ""))
	assert.Equal(t, domain.StatusTransientError, res.Status)
	assert.Equal(t, 503, res.HTTPStatus)
	assert.Equal(t, domain.StatusTaken, c.Classify(outcome(200, `{"data":{"user":{"id":"1"}}}`)).Status)
}
