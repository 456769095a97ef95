package zsdl

import (
	"context"
	"net"
	"net/http"
	"time"
)

// Requests are sent with an empty User-Agent, so the client does not
// identify itself to the storage host.
const userAgent = ""

// DefaultTimeout bounds each blocking network step of a request.
const DefaultTimeout = 60 * time.Second

// DefaultClient is used when no client is set.
var DefaultClient = NewClient(DefaultTimeout)

// NewRequest returns a GET-style request for URL with the zsdl headers set.
func NewRequest(ctx context.Context, method, URL string) (*http.Request, error) {

	req, err := http.NewRequestWithContext(ctx, method, URL, nil)

	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", userAgent)

	return req, nil
}

// NewClient returns an http.Client whose dial, TLS handshake, response
// header wait and every single body read are each bounded by timeout. The
// read deadline resets on every read, so a slow but progressing download
// keeps going while a stalled one errors out.
func NewClient(timeout time.Duration) *http.Client {

	dialer := &net.Dialer{Timeout: timeout}

	return &http.Client{
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {

				conn, err := dialer.DialContext(ctx, network, addr)

				if err != nil {
					return nil, err
				}

				return &deadlineConn{Conn: conn, timeout: timeout}, nil
			},
			TLSHandshakeTimeout:   timeout,
			ResponseHeaderTimeout: timeout,
			IdleConnTimeout:       30 * time.Second,
		},
	}
}

// deadlineConn applies a fresh read deadline before every read, the way a
// socket timeout bounds each blocking receive.
type deadlineConn struct {
	net.Conn
	timeout time.Duration
}

func (c *deadlineConn) Read(b []byte) (int, error) {

	if c.timeout > 0 {
		if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
			return 0, err
		}
	}

	return c.Conn.Read(b)
}
