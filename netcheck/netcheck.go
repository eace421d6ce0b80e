// Package netcheck answers whether this machine has a network path before a
// fetch is attempted. It never contacts the news service itself, so a
// service that is down is left for the fetcher to report.
package netcheck

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"

	"golang.org/x/net/http/httpproxy"
)

// DefaultTimeout bounds the route lookup.
const DefaultTimeout = 3 * time.Second

// DefaultRouteAddress stands in for "the internet" when the service host is
// a name. A UDP connect only consults the routing table; no packet is sent.
const DefaultRouteAddress = "1.1.1.1:53"

// Checker reports whether the kernel has a route to Address. An empty
// Address means no check applies and the checker always reports online.
type Checker struct {
	Address string
	Timeout time.Duration
	Dialer  interface {
		DialContext(ctx context.Context, network, address string) (net.Conn, error)
	}
}

// ForURL returns the checker to consult before fetching rawURL.
//
// A request that the environment sends through a proxy gets no check: only
// the proxy knows whether the service is reachable. A host given as an IP
// literal or "localhost" is routed to directly. Any other host is looked
// up against DefaultRouteAddress.
func ForURL(rawURL string) (*Checker, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	host := u.Hostname()
	if host == "" {
		return nil, fmt.Errorf("no host in %q", rawURL)
	}

	if proxy, err := httpproxy.FromEnvironment().ProxyFunc()(u); err == nil && proxy != nil {
		return &Checker{}, nil
	}

	if host == "localhost" {
		host = "127.0.0.1"
	}
	if ip := net.ParseIP(host); ip != nil {
		return &Checker{Address: net.JoinHostPort(ip.String(), defaultPort(u))}, nil
	}

	return &Checker{Address: DefaultRouteAddress}, nil
}

func defaultPort(u *url.URL) string {
	if port := u.Port(); port != "" {
		return port
	}
	if u.Scheme == "http" {
		return "80"
	}
	return "443"
}

// Online reports whether a route to Address exists. It fails when the
// machine has no usable interface or no default route.
func (c *Checker) Online(ctx context.Context) bool {
	if c.Address == "" {
		return true
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	dialer := c.Dialer
	if dialer == nil {
		dialer = &net.Dialer{}
	}

	conn, err := dialer.DialContext(ctx, "udp", c.Address)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
