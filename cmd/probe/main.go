// probe is a tiny debugging client: it sends one request to a running
// server, dumps the raw response to stdout, and reports the declared
// content length on stderr.
package main

import (
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/1kamson2/server/internal/scan"
)

var contentLengthField = []byte("Content-Length: ")

func main() {
	addr := flag.String("addr", "127.0.0.1:8080", "server address")
	path := flag.String("path", "/index.html", "resource to request")
	body := flag.String("body", `{"probe":true}`, "request body; empty sends a bodyless request")
	timeout := flag.Duration("timeout", 5*time.Second, "dial and read timeout")
	flag.Parse()

	conn, err := net.DialTimeout("tcp", *addr, *timeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dial %s: %v\n", *addr, err)
		os.Exit(1)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(*timeout))

	raw := "GET " + *path + " HTTP/1.1\r\nHost: probe\r\n\r\n"
	if *body != "" {
		raw = "POST " + *path + " HTTP/1.1\r\n" +
			"Host: probe\r\n" +
			"Content-Length: " + strconv.Itoa(len(*body)) + "\r\n" +
			"\r\n" + *body
	}
	if _, err := conn.Write([]byte(raw)); err != nil {
		fmt.Fprintf(os.Stderr, "write: %v\n", err)
		os.Exit(1)
	}

	resp, err := io.ReadAll(conn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read: %v\n", err)
		os.Exit(1)
	}
	if len(resp) == 0 {
		fmt.Fprintln(os.Stderr, "connection closed without a response")
		os.Exit(1)
	}

	os.Stdout.Write(resp)
	if idx := scan.Find(resp, contentLengthField); idx != scan.NotFound {
		n := scan.Number(resp[idx+len(contentLengthField):])
		fmt.Fprintf(os.Stderr, "\n%d response bytes, declared content length %d\n", len(resp), n)
	}
}
