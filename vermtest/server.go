// Package vermtest provides an in-memory Verm server for tests.
//
// The server mimics the parts of Verm the client depends on: POSTed content
// is stored under a location derived from a SHA-256 of its decoded bytes,
// gzip-encoded uploads are kept encoded and served encoded only to clients
// that accept gzip, and every request is recorded for inspection.
package vermtest

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
)

// extensions maps media types to the file extension the server appends to
// locations. Types not listed get no extension.
var extensions = map[string]string{
	"text/plain":       "txt",
	"text/csv":         "csv",
	"text/html":        "html",
	"image/png":        "png",
	"image/jpeg":       "jpg",
	"image/gif":        "gif",
	"application/json": "json",
}

// Request is a request received by the server, with the body as received
// on the wire.
type Request struct {
	Method string
	Path   string
	// URI is the request target exactly as sent, escapes and query included.
	URI              string
	Header           http.Header
	ContentLength    int64
	TransferEncoding []string
	Body             []byte
}

// Chunked returns true if the request body was sent with chunked transfer
// encoding.
func (r Request) Chunked() bool {
	for _, te := range r.TransferEncoding {
		if te == "chunked" {
			return true
		}
	}
	return false
}

type object struct {
	contentType string
	encoding    string
	data        []byte
}

// Server is a fake Verm server running on a local port.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	objects  map[string]object
	requests []Request
	hook     func(w http.ResponseWriter, r *http.Request) bool
}

// NewServer starts a Server. Callers must Close it.
func NewServer() *Server {
	s := &Server{objects: make(map[string]object)}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serveHTTP))
	return s
}

// Host returns the host the server listens on.
func (s *Server) Host() string {
	host, _, _ := net.SplitHostPort(s.Listener.Addr().String())
	return host
}

// Port returns the port the server listens on.
func (s *Server) Port() int {
	_, port, _ := net.SplitHostPort(s.Listener.Addr().String())
	n, _ := strconv.Atoi(port)
	return n
}

// SetHook installs fn to intercept requests. fn is called after the request
// is recorded; if it returns true the server does no further handling.
// Pass nil to remove it.
func (s *Server) SetHook(fn func(w http.ResponseWriter, r *http.Request) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hook = fn
}

// Requests returns the requests received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// LastRequest returns the most recent request, or the zero Request.
func (s *Server) LastRequest() Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return Request{}
	}
	return s.requests[len(s.requests)-1]
}

// Reset forgets recorded requests. Stored objects are kept.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

func (s *Server) serveHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Method:           r.Method,
		Path:             r.URL.Path,
		URI:              r.RequestURI,
		Header:           r.Header.Clone(),
		ContentLength:    r.ContentLength,
		TransferEncoding: append([]string(nil), r.TransferEncoding...),
		Body:             body,
	})
	hook := s.hook
	s.mu.Unlock()

	if hook != nil && hook(w, r) {
		return
	}

	switch r.Method {
	case http.MethodPost:
		s.store(w, r, body)
	case http.MethodGet, http.MethodHead:
		s.load(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) store(w http.ResponseWriter, r *http.Request, body []byte) {
	contentType := r.Header.Get("Content-Type")
	encoding := r.Header.Get("Content-Encoding")

	decoded := body
	switch encoding {
	case "":
	case "gzip":
		gz, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			http.Error(w, "invalid gzip body", http.StatusBadRequest)
			return
		}
		decoded, err = io.ReadAll(gz)
		if err != nil {
			http.Error(w, "invalid gzip body", http.StatusBadRequest)
			return
		}
	default:
		http.Error(w, "unsupported content encoding", http.StatusUnsupportedMediaType)
		return
	}

	location := Location(r.URL.Path, decoded, contentType)
	s.mu.Lock()
	if _, ok := s.objects[location]; !ok {
		s.objects[location] = object{contentType: contentType, encoding: encoding, data: body}
	}
	s.mu.Unlock()

	w.Header().Set("Location", location)
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) load(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	obj, ok := s.objects[r.URL.Path]
	s.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}

	data := obj.data
	if obj.encoding == "gzip" {
		if strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			w.Header().Set("Content-Encoding", "gzip")
		} else {
			gz, err := gzip.NewReader(bytes.NewReader(obj.data))
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			if data, err = io.ReadAll(gz); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
		}
	}
	w.Header().Set("Content-Type", obj.contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodGet {
		_, _ = w.Write(data)
	}
}

// Location returns the location the server assigns to content of the given
// type stored in directory.
func Location(directory string, content []byte, contentType string) string {
	directory = "/" + strings.Trim(directory, "/")
	sum := sha256.Sum256(content)
	name := base64.RawURLEncoding.EncodeToString(sum[:])
	loc := directory + "/" + name[:2] + "/" + name[2:]
	mt, _, _ := strings.Cut(contentType, ";")
	if ext, ok := extensions[strings.TrimSpace(mt)]; ok {
		loc += "." + ext
	}
	return loc
}
