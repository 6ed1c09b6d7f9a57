package vermclient

import (
	"context"
	"io"
	"net/http"

	"github.com/cockroachdb/errors"
)

// streamBufferSize is the size of each read from a streamed body.
const streamBufferSize = 32 << 10

// Stream fetches the content at path and calls fn with each chunk of the body
// as it arrives, in order, on the calling goroutine. header holds extra
// request headers and may be nil; Accept-Encoding opts out of decompression
// as for Load.
//
// The chunk slice is only valid until fn returns. Chunk sizes depend on the
// transport. A non-2xx status is returned before fn is called. If fn returns
// an error, streaming stops and that error is returned. Any other error
// returned after fn has been called means the body may be incomplete.
func (c *Client) Stream(
	ctx context.Context, path string, header http.Header, fn func(chunk []byte) error,
) error {
	path = normalizePath(path)
	resp, err := c.get(ctx, path, header)
	if err != nil {
		return err
	}
	defer resp.body.Close()

	buf := make([]byte, streamBufferSize)
	for {
		n, err := resp.body.Read(buf)
		if n > 0 {
			if ferr := fn(buf[:n]); ferr != nil {
				return ferr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return transportError(errors.Wrap(err, "reading response body"), http.MethodGet, path)
		}
	}
}

// StreamTo copies the content at path to w and returns the number of bytes
// written.
func (c *Client) StreamTo(ctx context.Context, path string, header http.Header, w io.Writer) (int64, error) {
	var written int64
	err := c.Stream(ctx, path, header, func(chunk []byte) error {
		n, err := w.Write(chunk)
		written += int64(n)
		return err
	})
	return written, err
}
