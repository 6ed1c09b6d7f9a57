package vermclient

import (
	"bytes"
	"io"
	"mime"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/gzip"
)

// EncodingGzip is the content-encoding label for gzip-compressed content.
const EncodingGzip = "gzip"

// DefaultIncompressibleTypes lists media types that are already compressed
// and are never compressed again by Store.
var DefaultIncompressibleTypes = []string{"image/jpeg", "image/png", "image/gif"}

// gzipContainerTypes are rejected by Store unless an encoding is given. Verm
// wants the real content type plus Content-Encoding: gzip instead.
var gzipContainerTypes = []string{"application/gzip", "application/x-gzip"}

// mediaType returns the lowercased media type of contentType without
// parameters.
func mediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt, _, _ = strings.Cut(contentType, ";")
	}
	return strings.ToLower(strings.TrimSpace(mt))
}

func containsType(types []string, mt string) bool {
	for _, t := range types {
		if strings.EqualFold(t, mt) {
			return true
		}
	}
	return false
}

// compress gzips data and returns the compressed bytes with the gzip label if
// that is strictly smaller. Otherwise data is returned with an empty label.
func compress(data []byte) ([]byte, string, error) {
	var buf bytes.Buffer
	buf.Grow(len(data) / 2)
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(data); err != nil {
		_ = gz.Close()
		return nil, "", errors.Wrap(err, "compressing payload")
	}
	if err := gz.Close(); err != nil {
		return nil, "", errors.Wrap(err, "compressing payload")
	}
	if buf.Len() < len(data) {
		return buf.Bytes(), EncodingGzip, nil
	}
	return data, "", nil
}

// gzipReadCloser decodes a gzip response body and closes both the decoder
// and the underlying body.
type gzipReadCloser struct {
	gz   *gzip.Reader
	body io.ReadCloser
}

func newGzipReadCloser(body io.ReadCloser) (io.ReadCloser, error) {
	gz, err := gzip.NewReader(body)
	if err == io.EOF {
		// Empty body: nothing to decode.
		return body, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading gzip header")
	}
	return &gzipReadCloser{gz: gz, body: body}, nil
}

func (r *gzipReadCloser) Read(p []byte) (int, error) {
	return r.gz.Read(p)
}

func (r *gzipReadCloser) Close() error {
	err := r.gz.Close()
	if cerr := r.body.Close(); err == nil {
		err = cerr
	}
	return err
}
