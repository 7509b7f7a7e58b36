package response

import (
	"bytes"
	"fmt"
)

// StatusCode is the closed set of statuses this server emits.
type StatusCode int

const (
	StatusOK          StatusCode = 200
	StatusNoContent   StatusCode = 204
	StatusNotModified StatusCode = 304
	StatusBadRequest  StatusCode = 400
	StatusForbidden   StatusCode = 403
	StatusNotFound    StatusCode = 404
	StatusTeapot      StatusCode = 418
)

var reasonPhrases = map[StatusCode]string{
	StatusOK:          "OK",
	StatusNoContent:   "No Content",
	StatusNotModified: "Not Modified",
	StatusBadRequest:  "Bad Request",
	StatusForbidden:   "Forbidden",
	StatusNotFound:    "Not Found",
	StatusTeapot:      "I'm a Teapot",
}

// Reason returns the canonical reason phrase, or "" for a code outside the
// closed set.
func (s StatusCode) Reason() string {
	return reasonPhrases[s]
}

// Format serializes a complete response: status line, the fixed CORS
// header, Content-Length framing, a blank line, then the body bytes.
func Format(status StatusCode, body []byte) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "HTTP/1.1 %d %s\r\nAccess-Control-Allow-Origin: *\r\nContent-Length: %d\r\n\r\n",
		status, status.Reason(), len(body))
	buf.Write(body)
	return buf.Bytes()
}
