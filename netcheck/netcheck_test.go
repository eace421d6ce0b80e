package netcheck

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDialer struct {
	network string
	address string
	err     error
}

func (d *recordingDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	d.network, d.address = network, address
	if d.err != nil {
		return nil, d.err
	}
	client, server := net.Pipe()
	server.Close()
	return client, nil
}

func clearProxyEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"HTTP_PROXY", "http_proxy", "HTTPS_PROXY", "https_proxy", "NO_PROXY", "no_proxy", "REQUEST_METHOD"} {
		t.Setenv(key, "")
	}
}

func TestOnline_ClosedServicePort(t *testing.T) {
	clearProxyEnv(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	// Nothing listens there, but the route exists.
	c, err := ForURL("http://" + addr + "/search")
	require.NoError(t, err)
	assert.Equal(t, addr, c.Address)
	assert.True(t, c.Online(context.Background()))
}

func TestOnline_RouteLookupUsesUDP(t *testing.T) {
	d := &recordingDialer{}
	c := &Checker{Address: DefaultRouteAddress, Timeout: time.Second, Dialer: d}

	assert.True(t, c.Online(context.Background()))
	assert.Equal(t, "udp", d.network)
	assert.Equal(t, DefaultRouteAddress, d.address)
}

func TestOnline_NoRoute(t *testing.T) {
	d := &recordingDialer{err: errors.New("connect: network is unreachable")}
	c := &Checker{Address: DefaultRouteAddress, Dialer: d}

	assert.False(t, c.Online(context.Background()))
}

func TestOnline_NoCheck(t *testing.T) {
	d := &recordingDialer{err: errors.New("must not dial")}
	c := &Checker{Dialer: d}

	assert.True(t, c.Online(context.Background()))
	assert.Empty(t, d.network)
}

func TestOnline_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := &Checker{Address: "127.0.0.1:1"}
	assert.False(t, c.Online(ctx))
}

func TestForURL(t *testing.T) {
	clearProxyEnv(t)

	tests := []struct {
		url  string
		want string
	}{
		{"https://content.guardianapis.com/", DefaultRouteAddress},
		{"http://www.theguardian.com/world/rss", DefaultRouteAddress},
		{"http://localhost/", "127.0.0.1:80"},
		{"https://localhost/", "127.0.0.1:443"},
		{"http://127.0.0.1:8080/search", "127.0.0.1:8080"},
		{"http://[::1]:8080/search", "[::1]:8080"},
	}

	for _, tt := range tests {
		c, err := ForURL(tt.url)
		require.NoError(t, err, tt.url)
		assert.Equal(t, tt.want, c.Address, tt.url)
	}
}

func TestForURL_Proxied(t *testing.T) {
	clearProxyEnv(t)
	t.Setenv("HTTPS_PROXY", "http://proxy.internal:3128")

	c, err := ForURL("https://content.guardianapis.com/")
	require.NoError(t, err)
	assert.Empty(t, c.Address)

	// The proxy does not apply to plain http.
	c, err = ForURL("http://www.theguardian.com/")
	require.NoError(t, err)
	assert.Equal(t, DefaultRouteAddress, c.Address)
}

func TestForURL_NoHost(t *testing.T) {
	_, err := ForURL("/search")
	assert.Error(t, err)

	_, err = ForURL("http://%zz")
	assert.Error(t, err)
}
