package vermclient

import (
	"fmt"
	"io"
	"net/http"

	"github.com/cockroachdb/errors"
)

// Error classes returned by the client. Use errors.Is to classify an error.
var (
	// ErrInvalidArgument is returned when the caller passes arguments the
	// client rejects before doing any network I/O.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrTransport is returned for connection failures, timeouts, and any
	// non-2xx HTTP response. Non-2xx responses are also *HTTPError values.
	ErrTransport = errors.New("transport error")
	// ErrProtocolViolation is returned when the server answers a store with a
	// success status that the store contract does not allow.
	ErrProtocolViolation = errors.New("protocol violation")
)

// maxErrorBody bounds the response body excerpt kept in an HTTPError.
const maxErrorBody = 4 << 10

// HTTPError describes a non-2xx response returned by the server.
type HTTPError struct {
	Method     string
	Path       string
	StatusCode int
	Status     string
	Header     http.Header
	// Body holds at most the first 4 KiB of the response body.
	Body []byte
}

func (e *HTTPError) Error() string {
	if len(e.Body) == 0 {
		return fmt.Sprintf("%s %s: %s", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("%s %s: %s: %s", e.Method, e.Path, e.Status, e.Body)
}

// IsNotFound returns true if err is an HTTPError with status 404.
func IsNotFound(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound
}

func invalidArgumentf(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrInvalidArgument)
}

func protocolViolationf(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrProtocolViolation)
}

// transportError wraps a failure to complete an exchange with the server.
func transportError(err error, method, path string) error {
	return errors.Mark(errors.Wrapf(err, "%s %s", method, path), ErrTransport)
}

// statusError consumes and closes resp.Body, returning the HTTPError for a
// non-2xx response.
func statusError(resp *http.Response, method, path string) error {
	defer closeBody(resp.Body)
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return errors.Mark(&HTTPError{
		Method:     method,
		Path:       path,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header.Clone(),
		Body:       body,
	}, ErrTransport)
}

func isSuccess(code int) bool {
	return code >= 200 && code <= 299
}

func closeBody(rc io.ReadCloser) {
	if rc != nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(rc, maxErrorBody))
		_ = rc.Close()
	}
}
