package request

import (
	"strings"
	"testing"
)

var postFixture = []byte("POST /api/data HTTP/1.1\r\n" +
	"Host: example.com\r\n" +
	"Content-Type: application/json\r\n" +
	"Content-Length: 27\r\n" +
	"\r\n" +
	`{"key":"value","number":42}`)

func TestParseFixture(t *testing.T) {
	req := Parse(postFixture)

	if req.Method != MethodPost {
		t.Errorf("Method = %v, want %v", req.Method, MethodPost)
	}
	if got := string(req.Resource); got != "/api/data" {
		t.Errorf("Resource = %q, want %q", got, "/api/data")
	}
	want := `{"key":"value","number":42}`
	if got := string(req.Body); got != want {
		t.Errorf("Body = %q, want %q", got, want)
	}
	if len(req.Body) != 27 {
		t.Errorf("Body length = %d, want 27", len(req.Body))
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		buf  string
		want Method
	}{
		{"get", "GET /index.html HTTP/1.1\r\n", MethodGet},
		{"post", "POST /api/data HTTP/1.1\r\n", MethodPost},
		{"unsupported method", "PUT /x HTTP/1.1\r\n", MethodInvalid},
		{"lowercase", "get / HTTP/1.1\r\n", MethodInvalid},
		{"shorter than four bytes", "GET", MethodInvalid},
		{"empty", "", MethodInvalid},
		{"garbage", "\r\n\r\n", MethodInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify([]byte(tt.buf)); got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.buf, got, tt.want)
			}
		})
	}
}

func TestMethodString(t *testing.T) {
	if got := MethodGet.String(); got != "GET" {
		t.Errorf("MethodGet.String() = %q", got)
	}
	if got := MethodPost.String(); got != "POST" {
		t.Errorf("MethodPost.String() = %q", got)
	}
	if got := MethodInvalid.String(); got != "INVALID" {
		t.Errorf("MethodInvalid.String() = %q", got)
	}
}

func TestResource(t *testing.T) {
	tests := []struct {
		name string
		buf  string
		m    Method
		want string
	}{
		{"get path", "GET /index.html HTTP/1.1\r\n", MethodGet, "/index.html"},
		{"post path", "POST /api/data HTTP/1.1\r\n", MethodPost, "/api/data"},
		{"root", "GET / HTTP/1.1\r\n", MethodGet, "/"},
		{"invalid method", "PUT /x HTTP/1.1\r\n", MethodInvalid, ""},
		{"no terminating space", "GET /broken\r\n", MethodGet, ""},
		{"double space", "GET  HTTP/1.1\r\n", MethodGet, ""},
		{"truncated after method", "GET ", MethodGet, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(Resource([]byte(tt.buf), tt.m)); got != tt.want {
				t.Errorf("Resource(%q, %v) = %q, want %q", tt.buf, tt.m, got, tt.want)
			}
		})
	}
}

// The extracted path must be a copy, not a window into the capture buffer.
func TestResourceCopies(t *testing.T) {
	buf := []byte("GET /index.html HTTP/1.1\r\n")
	resource := Resource(buf, MethodGet)
	copy(buf, strings.Repeat("x", len(buf)))
	if got := string(resource); got != "/index.html" {
		t.Errorf("Resource aliased the capture buffer: %q", got)
	}
}

func TestBody(t *testing.T) {
	tests := []struct {
		name string
		buf  string
		want string
	}{
		{"fixture", string(postFixture), `{"key":"value","number":42}`},
		{"no content length", "GET / HTTP/1.1\r\nHost: x\r\n\r\n", ""},
		{"zero length", "POST / HTTP/1.1\r\nContent-Length: 0\r\n\r\n", ""},
		{"oversized", "POST / HTTP/1.1\r\nContent-Length: 8193\r\n\r\nabc", ""},
		{"longer than capture", "POST / HTTP/1.1\r\nContent-Length: 99\r\n\r\nabc", ""},
		{"empty buffer", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(Body([]byte(tt.buf))); got != tt.want {
				t.Errorf("Body(%q) = %q, want %q", tt.buf, got, tt.want)
			}
		})
	}
}

// A declared length of 2^64+4096 would wrap a naive accumulator to 4096
// and sail under the cap; it must be rejected, never sliced.
func TestBodyWrappedLength(t *testing.T) {
	buf := []byte("POST / HTTP/1.1\r\n" +
		"Content-Length: 18446744073709555712\r\n" +
		"\r\n" + strings.Repeat("a", 4096))
	if got := Body(buf); got != nil {
		t.Fatalf("Body accepted a wrapped declared length: %d bytes", len(got))
	}
}

// 8192 is the largest admissible declared length; 8193 is rejected above.
func TestBodyAtCap(t *testing.T) {
	body := strings.Repeat("a", MaxBodyBytes)
	buf := []byte("POST /big HTTP/1.1\r\nContent-Length: 8192\r\n\r\n" + body)
	got := Body(buf)
	if len(got) != MaxBodyBytes {
		t.Fatalf("Body length = %d, want %d", len(got), MaxBodyBytes)
	}
	if string(got) != body {
		t.Error("Body content mangled at the cap")
	}
}
