// Package transport builds the HTTP transport used by the Verm client.
package transport

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
)

// Config configures the transport. Zero timeouts disable the corresponding
// bound.
type Config struct {
	// ConnectTimeout bounds establishing the TCP connection.
	ConnectTimeout time.Duration
	// ReadTimeout bounds each read from the connection.
	ReadTimeout time.Duration
	// TLSTimeout bounds the TLS handshake.
	TLSTimeout time.Duration
	// TLSConfig is used for https connections. May be nil.
	TLSConfig *tls.Config
	// EnableNagle leaves the Nagle algorithm enabled on the socket. By
	// default TCP_NODELAY is set after connect so a request written as
	// header then body is not held back waiting for a delayed ACK.
	EnableNagle bool
}

// New returns an http.Transport that dials with cfg.
//
// The transport keeps at most one idle connection and does not negotiate
// compression; response decoding is left to the caller.
func New(cfg Config) *http.Transport {
	d := &Dialer{
		Dialer:      net.Dialer{Timeout: cfg.ConnectTimeout},
		ReadTimeout: cfg.ReadTimeout,
		NoDelay:     !cfg.EnableNagle,
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           d.DialContext,
		TLSClientConfig:       cfg.TLSConfig,
		TLSHandshakeTimeout:   cfg.TLSTimeout,
		ResponseHeaderTimeout: cfg.ReadTimeout,
		IdleConnTimeout:       cfg.ReadTimeout,
		MaxIdleConnsPerHost:   1,
		DisableCompression:    true,
	}
}

// Dialer dials TCP connections with socket options and read deadlines
// applied.
type Dialer struct {
	net.Dialer
	// ReadTimeout, if positive, wraps connections so that every read must
	// complete within it.
	ReadTimeout time.Duration
	// NoDelay sets TCP_NODELAY on TCP connections.
	NoDelay bool
}

// DialContext connects to addr on the named network.
func (d *Dialer) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	conn, err := d.Dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, errors.Wrapf(err, "connecting to %s", addr)
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		if err := tc.SetNoDelay(d.NoDelay); err != nil {
			_ = conn.Close()
			return nil, errors.Wrapf(err, "setting TCP_NODELAY on %s", addr)
		}
	}
	if d.ReadTimeout > 0 {
		conn = &deadlineConn{Conn: conn, timeout: d.ReadTimeout}
	}
	return conn, nil
}
