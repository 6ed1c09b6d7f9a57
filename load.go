package vermclient

import (
	"context"
	"net/http"
)

// LoadOptions controls how Load requests and decodes content.
type LoadOptions struct {
	// Header holds extra request headers. Sending Accept-Encoding opts out
	// of automatic decompression: the body is returned as the server sent it.
	Header http.Header
	// TextEncoding is the encoding text/* content is labelled with in
	// LoadResult. The bytes are not touched. Defaults to DefaultTextEncoding.
	TextEncoding string
	// DisableTextEncoding leaves text/* content unlabelled.
	DisableTextEncoding bool
	// TranscodeText converts text/* content from the charset the server
	// declares into TextEncoding. Off by default, so loaded bytes match the
	// stored bytes.
	TranscodeText bool
}

// LoadResult is the content loaded from a location.
type LoadResult struct {
	Content []byte
	// ContentType is the declared media type without parameters.
	ContentType string
	// TextEncoding names the encoding Content is to be read as for text/*
	// content, or is empty if no text encoding was applied.
	TextEncoding string
}

// Load fetches the content at path.
//
// gzip-encoded responses are decompressed unless opts carries an
// Accept-Encoding header; ContentType is the declared type in both cases.
func (c *Client) Load(ctx context.Context, path string, opts ...LoadOptions) (*LoadResult, error) {
	var o LoadOptions
	if len(opts) > 0 {
		o = opts[0]
	}

	var text *textEncoder
	if !o.DisableTextEncoding {
		label := o.TextEncoding
		if label == "" {
			label = DefaultTextEncoding
		}
		var err error
		if text, err = newTextEncoder(label); err != nil {
			return nil, err
		}
	}

	path = normalizePath(path)
	resp, err := c.get(ctx, path, o.Header)
	if err != nil {
		return nil, err
	}
	content, err := readAll(resp, http.MethodGet, path)
	if err != nil {
		return nil, err
	}

	res := &LoadResult{
		Content:     content,
		ContentType: mediaType(resp.contentType),
	}
	if text != nil && isText(res.ContentType) {
		if o.TranscodeText {
			if res.Content, err = text.transcode(content, resp.contentType); err != nil {
				return nil, err
			}
		}
		res.TextEncoding = text.label
	}
	return res, nil
}
