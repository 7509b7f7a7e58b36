package request

import (
	"bytes"

	"github.com/1kamson2/server/internal/scan"
)

// MaxBodyBytes caps the declared Content-Length a request may carry;
// anything larger is treated as having no body at all.
const MaxBodyBytes = 8192

// Method is the closed set of request methods.
type Method int

const (
	MethodInvalid Method = iota
	MethodGet
	MethodPost
)

func (m Method) String() string {
	switch m {
	case MethodGet:
		return "GET"
	case MethodPost:
		return "POST"
	default:
		return "INVALID"
	}
}

var (
	tokenGet           = []byte("GET")
	tokenPost          = []byte("POST")
	contentLengthField = []byte("Content-Length: ")
)

// Request is the parsed view of one captured buffer. Nothing here outlives
// the connection that produced it.
type Request struct {
	Method   Method
	Resource []byte
	Body     []byte
}

// Parse runs the classifier and both extractors over one captured buffer.
func Parse(buf []byte) Request {
	m := Classify(buf)
	return Request{
		Method:   m,
		Resource: Resource(buf, m),
		Body:     Body(buf),
	}
}

// Classify reads the method from the fixed-length prefix of buf: 3 bytes
// for GET, 4 for POST. Anything else, including buffers shorter than 4
// bytes, is MethodInvalid. Never panics on short input.
func Classify(buf []byte) Method {
	if len(buf) < 4 {
		return MethodInvalid
	}
	if bytes.Equal(buf[:3], tokenGet) {
		return MethodGet
	}
	if bytes.Equal(buf[:4], tokenPost) {
		return MethodPost
	}
	return MethodInvalid
}

// Resource copies the requested path out of the request line: skip the
// method token and the single space after it, then take bytes up to the
// next space. Empty for an invalid method or when no terminating space
// follows.
func Resource(buf []byte, m Method) []byte {
	var start int
	switch m {
	case MethodGet:
		start = len(tokenGet) + 1
	case MethodPost:
		start = len(tokenPost) + 1
	default:
		return nil
	}
	if start >= len(buf) {
		return nil
	}
	end := bytes.IndexByte(buf[start:], ' ')
	if end <= 0 {
		return nil
	}
	return append([]byte(nil), buf[start:start+end]...)
}

// Body slices the request body out of buf: the final declared-length bytes
// of the capture. That framing assumes request line, headers, blank line,
// and body arrived in a single read; bodies split across reads are not
// representable here. A missing Content-Length field yields an empty body,
// which callers treat as a handshake-like request.
func Body(buf []byte) []byte {
	idx := scan.Find(buf, contentLengthField)
	if idx == scan.NotFound {
		return nil
	}
	n := scan.Number(buf[idx+len(contentLengthField):])
	// reject lengths the capture cannot satisfy before slicing
	if n <= 0 || n > MaxBodyBytes || n > len(buf) {
		return nil
	}
	return buf[len(buf)-n:]
}
