package vermclient

import (
	"mime"
	"strings"

	"github.com/cockroachdb/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// DefaultTextEncoding is the encoding Load labels text content with unless
// LoadOptions says otherwise.
const DefaultTextEncoding = "UTF-8"

// textEncoder resolves the encoding a Load labels text bodies with.
type textEncoder struct {
	label string
	enc   encoding.Encoding
	name  string
}

func newTextEncoder(label string) (*textEncoder, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, errors.WithHint(
			invalidArgumentf("unknown text encoding %q", label),
			"use a WHATWG encoding label such as \"utf-8\" or \"iso-8859-1\"")
	}
	name, _ := htmlindex.Name(enc)
	return &textEncoder{label: label, enc: enc, name: name}, nil
}

// isText returns true for media types in the text/* family.
func isText(mt string) bool {
	return strings.HasPrefix(mt, "text/")
}

// transcode converts body from the charset declared by contentType into the
// target encoding. Bodies with no charset, an unknown charset, or the target
// charset are returned unchanged.
//
// A body that is not valid in its declared charset is a protocol violation.
// Content the target encoding cannot represent is an invalid argument, since
// the caller picked the target.
func (t *textEncoder) transcode(body []byte, contentType string) ([]byte, error) {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return body, nil
	}
	charset := params["charset"]
	if charset == "" {
		return body, nil
	}
	src, err := htmlindex.Get(charset)
	if err != nil {
		return body, nil
	}
	if name, _ := htmlindex.Name(src); name == t.name {
		return body, nil
	}

	utf8, err := src.NewDecoder().Bytes(body)
	if err != nil {
		return nil, errors.Mark(
			errors.Wrapf(err, "decoding %s text", charset), ErrProtocolViolation)
	}
	out, err := t.enc.NewEncoder().Bytes(utf8)
	if err != nil {
		return nil, errors.WithHint(
			errors.Mark(errors.Wrapf(err, "encoding text as %s", t.label), ErrInvalidArgument),
			"load without TranscodeText to get the stored bytes")
	}
	return out, nil
}
