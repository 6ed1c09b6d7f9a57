package vermclient

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/vermclient/internal/transport"
	"github.com/google/uuid"
)

// Defaults applied to a zero ClientConfig.
const (
	DefaultPort    = 3404
	DefaultTimeout = 15 * time.Second
)

// requestIDHeader carries a per-request id that server logs can be matched
// against.
const requestIDHeader = "X-Request-Id"

// ClientConfig configures a Client. Zero values select the defaults.
type ClientConfig struct {
	// Port is the server port. Defaults to DefaultPort.
	Port int
	// Timeout bounds connecting, each read, and the TLS handshake.
	// Defaults to DefaultTimeout.
	Timeout time.Duration
	// TLSConfig, if non-nil, makes the client use https.
	TLSConfig *tls.Config
	// EnableNagle leaves the Nagle algorithm on for the connection. The
	// default disables it, which avoids ~40ms delayed-ACK stalls when
	// POSTing small files on reused connections.
	EnableNagle bool
	// IncompressibleTypes lists media types Store never compresses. Defaults
	// to DefaultIncompressibleTypes.
	IncompressibleTypes []string
	// Logger is the logger for diagnostic messages. If nil, DefaultLogger is used.
	Logger Logger
}

// Client is a client for a single Verm server.
//
// Client is NOT intended for concurrent use. It keeps at most one idle
// connection to the server and each call blocks until its exchange completes.
type Client struct {
	baseURL        *url.URL
	timeout        time.Duration
	incompressible []string
	logger         Logger
	transport      *http.Transport
	httpClient     *http.Client
}

// NewClient creates a client for the Verm server on hostname.
// No connection is made until the first request.
func NewClient(hostname string, cfg ...ClientConfig) (*Client, error) {
	var c ClientConfig
	if len(cfg) > 0 {
		c = cfg[0]
	}
	if strings.TrimSpace(hostname) == "" {
		return nil, invalidArgumentf("hostname is required")
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Port < 0 || c.Port > 65535 {
		return nil, invalidArgumentf("invalid port %d", c.Port)
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.IncompressibleTypes == nil {
		c.IncompressibleTypes = DefaultIncompressibleTypes
	}
	if c.Logger == nil {
		c.Logger = DefaultLogger
	}

	scheme := "http"
	if c.TLSConfig != nil {
		scheme = "https"
	}
	tr := transport.New(transport.Config{
		ConnectTimeout: c.Timeout,
		ReadTimeout:    c.Timeout,
		TLSTimeout:     c.Timeout,
		TLSConfig:      c.TLSConfig,
		EnableNagle:    c.EnableNagle,
	})
	return &Client{
		baseURL: &url.URL{
			Scheme: scheme,
			Host:   net.JoinHostPort(hostname, strconv.Itoa(c.Port)),
		},
		timeout:        c.Timeout,
		incompressible: c.IncompressibleTypes,
		logger:         c.Logger,
		transport:      tr,
		httpClient: &http.Client{
			Transport: tr,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}, nil
}

// Addr returns the host:port of the server this client talks to.
func (c *Client) Addr() string {
	return c.baseURL.Host
}

// Close closes idle connections held by the client.
func (c *Client) Close() error {
	c.transport.CloseIdleConnections()
	return nil
}

// request describes a single exchange with the server.
type request struct {
	method string
	path   string
	header http.Header
	body   io.Reader
	// contentLength is -1 for chunked bodies.
	contentLength int64
}

// response is a successful (2xx) response. The caller must close body.
type response struct {
	statusCode  int
	header      http.Header
	contentType string
	body        io.ReadCloser
}

// do issues req and returns the response for a 2xx status. Any other status
// is returned as an *HTTPError marked ErrTransport.
//
// Unless req.header already carries Accept-Encoding, gzip is requested and a
// gzip-encoded body is decoded before it is returned.
func (c *Client) do(ctx context.Context, req request) (*response, error) {
	// The path goes on the wire as given; percent escapes and a query are
	// kept rather than re-escaped.
	ref, err := url.Parse(req.path)
	if err != nil {
		return nil, invalidArgumentf("invalid path %q: %v", req.path, err)
	}
	u := *c.baseURL
	u.Path, u.RawPath, u.RawQuery = ref.Path, ref.RawPath, ref.RawQuery

	var body io.Reader
	if req.body != nil && req.contentLength != 0 {
		// Keep the transport from closing the caller's reader.
		body = io.NopCloser(req.body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, u.String(), body)
	if err != nil {
		return nil, invalidArgumentf("building %s %s: %v", req.method, req.path, err)
	}
	if body != nil {
		httpReq.ContentLength = req.contentLength
	}
	for k, values := range req.header {
		for _, v := range values {
			httpReq.Header.Add(k, v)
		}
	}
	decode := httpReq.Header.Get("Accept-Encoding") == ""
	if decode {
		httpReq.Header.Set("Accept-Encoding", EncodingGzip)
	}
	reqID := uuid.NewString()
	httpReq.Header.Set(requestIDHeader, reqID)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, transportError(err, req.method, req.path)
	}
	c.logger.Infof("verm: %s %s -> %d in %s (request %s)",
		req.method, req.path, resp.StatusCode, time.Since(start), reqID)

	if !isSuccess(resp.StatusCode) {
		return nil, statusError(resp, req.method, req.path)
	}

	rc := resp.Body
	if decode && strings.EqualFold(resp.Header.Get("Content-Encoding"), EncodingGzip) {
		rc, err = newGzipReadCloser(resp.Body)
		if err != nil {
			closeBody(resp.Body)
			return nil, transportError(err, req.method, req.path)
		}
		resp.Header.Del("Content-Encoding")
		resp.Header.Del("Content-Length")
	}
	return &response{
		statusCode:  resp.StatusCode,
		header:      resp.Header,
		contentType: resp.Header.Get("Content-Type"),
		body:        rc,
	}, nil
}

// get issues a GET for path with the caller's extra headers.
func (c *Client) get(ctx context.Context, path string, header http.Header) (*response, error) {
	return c.do(ctx, request{
		method: http.MethodGet,
		path:   normalizePath(path),
		header: header,
	})
}

// readAll reads the full body, classifying read failures as transport errors.
func readAll(resp *response, method, path string) ([]byte, error) {
	defer resp.body.Close()
	data, err := io.ReadAll(resp.body)
	if err != nil {
		return nil, transportError(errors.Wrap(err, "reading response body"), method, path)
	}
	return data, nil
}
