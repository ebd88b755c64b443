// If you are AI: This file adds an HTTP CONNECT tunnel as a proxy scheme for golang.org/x/net/proxy.

package transport

import (
	"bufio"
	"context"
	"encoding/base64"
	"fmt"
	"net"
	"net/http"
	"net/url"

	"golang.org/x/net/proxy"
)

// init registers the http scheme so proxy.FromURL can build CONNECT tunnels.
func init() {
	proxy.RegisterDialerType("http", newHTTPConnectDialer)
}

// httpConnectDialer tunnels TCP through an HTTP proxy with the CONNECT method.
type httpConnectDialer struct {
	proxyAddr string
	user      *url.Userinfo
	forward   proxy.Dialer
}

// newHTTPConnectDialer builds the dialer for an http:// proxy URL.
func newHTTPConnectDialer(u *url.URL, forward proxy.Dialer) (proxy.Dialer, error) {
	return &httpConnectDialer{proxyAddr: u.Host, user: u.User, forward: forward}, nil
}

// Dial connects to addr through the proxy.
func (d *httpConnectDialer) Dial(network, addr string) (net.Conn, error) {
	return d.DialContext(context.Background(), network, addr)
}

// DialContext connects to addr through the proxy, honouring ctx while the tunnel is set up.
func (d *httpConnectDialer) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	var conn net.Conn
	var err error
	if cd, ok := d.forward.(proxy.ContextDialer); ok {
		conn, err = cd.DialContext(ctx, network, d.proxyAddr)
	} else {
		conn, err = d.forward.Dial(network, d.proxyAddr)
	}
	if err != nil {
		return nil, err
	}

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	req := &http.Request{
		Method: http.MethodConnect,
		URL:    &url.URL{Opaque: addr},
		Host:   addr,
		Header: make(http.Header),
	}
	if d.user != nil {
		pass, _ := d.user.Password()
		token := base64.StdEncoding.EncodeToString([]byte(d.user.Username() + ":" + pass))
		req.Header.Set("Proxy-Authorization", "Basic "+token)
	}
	if err := req.Write(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("write CONNECT: %w", err)
	}

	br := bufio.NewReader(conn)
	resp, err := http.ReadResponse(br, req)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("read CONNECT response: %w", err)
	}
	// the response body is the tunnel; it is read through br, never through resp.Body
	if resp.StatusCode != http.StatusOK {
		conn.Close()
		return nil, fmt.Errorf("proxy refused CONNECT: %s", resp.Status)
	}
	if br.Buffered() > 0 {
		return &bufferedConn{Conn: conn, r: br}, nil
	}
	return conn, nil
}

// bufferedConn drains bytes read ahead while parsing the CONNECT response.
type bufferedConn struct {
	net.Conn
	r *bufio.Reader
}

// Read reads from the buffer first, then the connection.
func (c *bufferedConn) Read(p []byte) (int, error) {
	return c.r.Read(p)
}
