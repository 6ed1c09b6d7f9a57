package vermclient

import (
	"bytes"
	"io"
	"os"
	"syscall"

	"github.com/cockroachdb/errors"
)

// UnknownSize marks a streamed payload whose length is not known up front.
// Such payloads are sent with chunked transfer encoding.
const UnknownSize int64 = -1

// Payload is the content passed to Store. It is either an in-memory buffer
// (see Bytes) or a readable stream (see Stream). The zero value is an empty
// in-memory payload.
type Payload struct {
	data []byte

	r    io.Reader
	size int64
}

// Bytes returns an in-memory payload. In-memory payloads are eligible for
// automatic compression and are always sent with a Content-Length.
func Bytes(data []byte) Payload {
	return Payload{data: data}
}

// Stream returns a payload read from r. If size is UnknownSize, the body is
// sent chunked; otherwise size bytes are sent with a Content-Length. If r
// implements io.Seeker it is rewound to its start before sending, unless the
// seek fails with ESPIPE, in which case r is read from where it is.
//
// Streamed payloads are never compressed by the client. Pass
// StoreOptions.Encoding if r yields already-encoded data.
func Stream(r io.Reader, size int64) Payload {
	if size < 0 {
		size = UnknownSize
	}
	return Payload{r: r, size: size}
}

// FilePayload returns a streamed payload for f with its size taken from
// f.Stat. Regular files are rewound before each Store. Pipes, sockets and
// other non-regular files are read once, chunked. f is never closed.
func FilePayload(f *os.File) (Payload, error) {
	fi, err := f.Stat()
	if err != nil {
		return Payload{}, errors.Wrapf(err, "stat %s", f.Name())
	}
	if !fi.Mode().IsRegular() {
		// Hide Seek; it fails on pipes and sockets.
		return Stream(struct{ io.Reader }{f}, UnknownSize), nil
	}
	return Stream(f, fi.Size()), nil
}

// IsStream returns true if the payload is read from a stream.
func (p Payload) IsStream() bool {
	return p.r != nil
}

// Size returns the payload length in bytes, or UnknownSize.
func (p Payload) Size() int64 {
	if p.r != nil {
		return p.size
	}
	return int64(len(p.data))
}

// body returns the request body and its content length for the payload.
// A content length of -1 selects chunked transfer encoding.
func (p Payload) body() (io.Reader, int64, error) {
	if p.r == nil {
		return bytes.NewReader(p.data), int64(len(p.data)), nil
	}
	if s, ok := p.r.(io.Seeker); ok {
		if _, err := s.Seek(0, io.SeekStart); err != nil {
			if !errors.Is(err, syscall.ESPIPE) {
				return nil, 0, errors.Wrap(err, "rewinding payload")
			}
		}
	}
	return p.r, p.size, nil
}
