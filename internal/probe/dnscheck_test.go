package probe

import (
	"context"
	"errors"
	"net"
	"testing"
)

type fakeResolver struct {
	ips []net.IP
	err error
}

func (f fakeResolver) LookupIP(ctx context.Context, network, host string) ([]net.IP, error) {
	return f.ips, f.err
}

func TestCheckDNS_Classes(t *testing.T) {
	cases := []struct {
		name string
		host string
		r    fakeResolver
		want DNSClass
	}{
		{"resolves", "example.com", fakeResolver{ips: []net.IP{net.ParseIP("93.184.216.34")}}, DNSResolves},
		{"nxdomain", "nope.invalid", fakeResolver{err: &net.DNSError{Err: "no such host", IsNotFound: true}}, DNSNXDomain},
		{"servfail", "example.com", fakeResolver{err: errors.New("i/o timeout")}, DNSTempFailure},
		{"no records", "example.com", fakeResolver{}, DNSNoARecord},
		{"url is not a host", "https://example.com", fakeResolver{}, DNSInvalidName},
		{"empty", "  ", fakeResolver{}, DNSInvalidName},
	}
	for _, c := range cases {
		got := checkDNS(context.Background(), c.r, c.host)
		if got.Class != c.want {
			t.Fatalf("%s: class=%s want %s", c.name, got.Class, c.want)
		}
	}
}
