// If you are AI: This file opens TCP connections for sessions, directly or through a proxy.
// Proxy schemes come from golang.org/x/net/proxy; http CONNECT is registered in httpconnect.go.

package transport

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

// Default dial settings.
const (
	DefaultTimeout   = 10 * time.Second
	DefaultKeepAlive = 10 * time.Second
)

// Dialer dials the target server with a timeout and TCP keep-alive.
type Dialer struct {
	Timeout   time.Duration
	KeepAlive time.Duration
}

// NewDialer creates a dialer; zero durations fall back to the defaults.
func NewDialer(timeout, keepAlive time.Duration) *Dialer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if keepAlive <= 0 {
		keepAlive = DefaultKeepAlive
	}
	return &Dialer{Timeout: timeout, KeepAlive: keepAlive}
}

// Dial connects to addr, through proxyAddr when it is not empty.
func (d *Dialer) Dial(ctx context.Context, addr, proxyAddr string) (net.Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, d.Timeout)
	defer cancel()

	forward := &net.Dialer{Timeout: d.Timeout, KeepAlive: d.KeepAlive}
	if proxyAddr == "" {
		return forward.DialContext(ctx, "tcp", addr)
	}

	u, err := ParseProxy(proxyAddr)
	if err != nil {
		return nil, err
	}
	pd, err := proxy.FromURL(u, forward)
	if err != nil {
		return nil, fmt.Errorf("proxy %s: %w", u.Redacted(), err)
	}
	cd, ok := pd.(proxy.ContextDialer)
	if !ok {
		return nil, fmt.Errorf("proxy %s: dialer does not support contexts", u.Scheme)
	}
	conn, err := cd.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s via %s: %w", addr, u.Redacted(), err)
	}
	return conn, nil
}

// ParseProxy accepts a proxy URL or a bare host:port, which is treated as an HTTP proxy.
func ParseProxy(s string) (*url.URL, error) {
	if !strings.Contains(s, "://") {
		s = "http://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("parse proxy: %w", err)
	}
	switch u.Scheme {
	case "http", "socks5", "socks5h":
	default:
		return nil, fmt.Errorf("unsupported proxy scheme %q", u.Scheme)
	}
	if _, _, err := net.SplitHostPort(u.Host); err != nil {
		return nil, fmt.Errorf("proxy address %q: %w", u.Host, err)
	}
	return u, nil
}
