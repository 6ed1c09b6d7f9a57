package vermclient

import (
	"bytes"
	"io"
	"os"
	"strings"
	"syscall"
	"testing"

	"github.com/cockroachdb/errors"
)

func TestCompress(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		encoding string
	}{
		{"empty", nil, ""},
		{"short", []byte("this is a test"), ""},
		{"incompressible", randomBytes(4096), ""},
		{"repetitive", bytes.Repeat([]byte("this is a test"), 100), EncodingGzip},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, encoding, err := compress(tt.data)
			if err != nil {
				t.Fatalf("compress failed: %v", err)
			}
			if encoding != tt.encoding {
				t.Fatalf("encoding: got %q, want %q", encoding, tt.encoding)
			}
			if encoding == "" {
				if !bytes.Equal(out, tt.data) {
					t.Fatal("expected data to be returned unmodified")
				}
				return
			}
			if len(out) >= len(tt.data) {
				t.Fatalf("compressed size %d not smaller than %d", len(out), len(tt.data))
			}
			decoded, err := gunzipBytes(out)
			if err != nil {
				t.Fatalf("gunzip failed: %v", err)
			}
			if !bytes.Equal(decoded, tt.data) {
				t.Fatal("round trip mismatch")
			}
		})
	}
}

func TestMediaType(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"text/plain", "text/plain"},
		{"Text/Plain; charset=UTF-8", "text/plain"},
		{" image/png ", "image/png"},
		{"application/x-gzip;", "application/x-gzip"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := mediaType(tt.in); got != tt.want {
			t.Errorf("mediaType(%q): got %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGzipReadCloser(t *testing.T) {
	payload := bytes.Repeat([]byte("abc"), 1000)
	rc, err := newGzipReadCloser(io.NopCloser(bytes.NewReader(gzipBytes(t, payload))))
	if err != nil {
		t.Fatalf("newGzipReadCloser failed: %v", err)
	}
	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if err := rc.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatal("decoded body mismatch")
	}

	// An empty body decodes to nothing.
	rc, err = newGzipReadCloser(io.NopCloser(strings.NewReader("")))
	if err != nil {
		t.Fatalf("newGzipReadCloser on empty body failed: %v", err)
	}
	if got, _ := io.ReadAll(rc); len(got) != 0 {
		t.Fatalf("expected empty body, got %d bytes", len(got))
	}

	if _, err := newGzipReadCloser(io.NopCloser(strings.NewReader("not gzip"))); err == nil {
		t.Fatal("expected error for a non-gzip body")
	}
}

func TestTextEncoderTranscode(t *testing.T) {
	latin1 := []byte{'c', 'a', 'f', 0xE9}
	tests := []struct {
		name        string
		label       string
		contentType string
		body        []byte
		want        []byte
		wantErr     error
	}{
		{"no charset", "UTF-8", "text/plain", latin1, latin1, nil},
		{"same charset", "utf-8", "text/plain; charset=UTF-8", []byte("café"), []byte("café"), nil},
		{"alias charset", "windows-1252", "text/plain; charset=latin1", latin1, latin1, nil},
		{"unknown charset", "UTF-8", "text/plain; charset=x-made-up", latin1, latin1, nil},
		{"latin1 to utf-8", "UTF-8", "text/plain; charset=ISO-8859-1", latin1, []byte("café"), nil},
		{"utf-8 to latin1", "latin1", "text/csv; charset=utf-8", []byte("café"), latin1, nil},
		{"unrepresentable", "latin1", "text/plain; charset=utf-8", []byte("日本"), nil, ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := newTextEncoder(tt.label)
			if err != nil {
				t.Fatalf("newTextEncoder failed: %v", err)
			}
			got, err := enc.transcode(tt.body, tt.contentType)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("transcode failed: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := newTextEncoder("no-such-encoding"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected invalid argument for an unknown encoding, got %v", err)
	}
}

func TestPayload(t *testing.T) {
	p := Bytes([]byte("abc"))
	if p.IsStream() || p.Size() != 3 {
		t.Fatalf("unexpected in-memory payload: stream=%v size=%d", p.IsStream(), p.Size())
	}

	p = Stream(strings.NewReader("abc"), -5)
	if !p.IsStream() || p.Size() != UnknownSize {
		t.Fatalf("unexpected stream payload: stream=%v size=%d", p.IsStream(), p.Size())
	}

	r := strings.NewReader("abcdef")
	_, _ = r.Read(make([]byte, 4))
	body, n, err := Stream(r, 6).body()
	if err != nil {
		t.Fatalf("body failed: %v", err)
	}
	data, _ := io.ReadAll(body)
	if n != 6 || string(data) != "abcdef" {
		t.Fatalf("expected rewound body of 6 bytes, got %d %q", n, data)
	}

	pipe := unseekable{strings.NewReader("abc"), syscall.ESPIPE}
	if _, _, err := Stream(pipe, UnknownSize).body(); err != nil {
		t.Fatalf("expected ESPIPE to mean not seekable, got %v", err)
	}
	broken := unseekable{strings.NewReader("abc"), syscall.EBADF}
	if _, _, err := Stream(broken, UnknownSize).body(); !errors.Is(err, syscall.EBADF) {
		t.Fatalf("expected rewind failure, got %v", err)
	}

	r2, w2, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer r2.Close()
	defer w2.Close()
	p, err = FilePayload(r2)
	if err != nil {
		t.Fatalf("FilePayload failed: %v", err)
	}
	if _, ok := p.r.(io.Seeker); ok || p.Size() != UnknownSize {
		t.Fatalf("expected an unseekable chunked payload for a pipe, size=%d", p.Size())
	}
}

// unseekable is a reader whose Seek always fails with err.
type unseekable struct {
	io.Reader
	err error
}

func (u unseekable) Seek(int64, int) (int64, error) {
	return 0, &os.PathError{Op: "seek", Path: "|0", Err: u.err}
}
