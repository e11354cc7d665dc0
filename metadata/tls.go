package metadata

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"

	utls "github.com/refraction-networking/utls"
	"golang.org/x/net/http2"
)

// chromeTransport presents a Chrome 120 ClientHello. It prefers HTTP/2 and
// falls back to HTTP/1.1 when the h2 round trip fails before a response.
type chromeTransport struct {
	h2 *http2.Transport
	h1 *http.Transport
}

// NewChromeClient returns an http.Client with a Chrome TLS fingerprint.
func NewChromeClient(timeout time.Duration) *http.Client {
	dialTimeout := timeout
	if dialTimeout <= 0 {
		dialTimeout = 10 * time.Second
	}
	t := &chromeTransport{
		h2: &http2.Transport{
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				return dialChrome(ctx, network, addr, dialTimeout, nil)
			},
		},
		h1: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				return dialChrome(ctx, network, addr, dialTimeout, []string{"http/1.1"})
			},
		},
	}
	return &http.Client{Timeout: timeout, Transport: t}
}

func (t *chromeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Scheme == "https" && req.Body == nil {
		if resp, err := t.h2.RoundTrip(req); err == nil {
			return resp, nil
		}
	}
	return t.h1.RoundTrip(req)
}

func dialChrome(ctx context.Context, network, addr string, timeout time.Duration, protos []string) (net.Conn, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	dialer := &net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	tlsConn := utls.UClient(conn, &utls.Config{
		ServerName: host,
		MinVersion: tls.VersionTLS12,
		NextProtos: protos,
	}, utls.HelloChrome_120)

	if err := tlsConn.Handshake(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("tls handshake: %w", err)
	}
	return tlsConn, nil
}
