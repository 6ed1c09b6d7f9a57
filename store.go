package vermclient

import (
	"context"
	"net/http"

	"github.com/cockroachdb/errors"
)

// StoreOptions controls how Store uploads a payload.
type StoreOptions struct {
	// Encoding is the content-encoding of the payload as given, e.g. "gzip"
	// for data that is already gzipped. Setting it disables automatic
	// compression.
	Encoding string
	// DisableAutocompress sends in-memory payloads as given. By default
	// they are gzipped when that makes them smaller and the content type is
	// not already compressed.
	DisableAutocompress bool
}

// Store uploads payload to directory and returns the location the server
// stored it at. contentType must be the type of the uncompressed content;
// gzipped content is passed with its real type and Encoding "gzip".
//
// Since Verm is content addressed, storing the same content and type to the
// same directory always yields the same location.
func (c *Client) Store(
	ctx context.Context, directory string, payload Payload, contentType string, opts ...StoreOptions,
) (string, error) {
	var o StoreOptions
	if len(opts) > 0 {
		o = opts[0]
	}

	mt := mediaType(contentType)
	if containsType(gzipContainerTypes, mt) && o.Encoding == "" {
		return "", errors.WithHint(
			invalidArgumentf("content type %q given without an encoding", contentType),
			"pass the real content type and Encoding: \"gzip\" for gzipped uploads")
	}

	directory = normalizePath(directory)

	encoding := o.Encoding
	if !o.DisableAutocompress && encoding == "" && !payload.IsStream() &&
		!containsType(c.incompressible, mt) {
		data, enc, err := compress(payload.data)
		if err != nil {
			return "", err
		}
		payload, encoding = Bytes(data), enc
	}

	body, length, err := payload.body()
	if err != nil {
		return "", err
	}
	header := http.Header{"Content-Type": []string{contentType}}
	if encoding != "" {
		header.Set("Content-Encoding", encoding)
	}

	resp, err := c.do(ctx, request{
		method:        http.MethodPost,
		path:          directory,
		header:        header,
		body:          body,
		contentLength: length,
	})
	if err != nil {
		return "", err
	}
	closeBody(resp.body)

	if resp.statusCode != http.StatusCreated {
		c.logger.Errorf("verm: POST %s returned %d, expected 201", directory, resp.statusCode)
		return "", protocolViolationf(
			"got HTTP %d when storing content to %s, should always be 201", resp.statusCode, directory)
	}
	location := resp.header.Get("Location")
	if location == "" {
		c.logger.Errorf("verm: POST %s returned no Location", directory)
		return "", protocolViolationf(
			"no location was returned when storing content to %s", directory)
	}
	return location, nil
}
