package server

import (
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog"

	"github.com/1kamson2/server/internal/cache"
	"github.com/1kamson2/server/internal/config"
	"github.com/1kamson2/server/internal/request"
	"github.com/1kamson2/server/internal/response"
)

// maxRequestBytes is the most of a request we ever read. Bodies are
// capped below this by the parser, so one read captures a full request.
const maxRequestBytes = 8192

var bufPool = sync.Pool{
	New: func() any {
		b := make([]byte, maxRequestBytes)
		return &b
	},
}

// Server accepts TCP connections and answers one request per connection.
type Server struct {
	cfg      config.Config
	store    *cache.Cache
	log      zerolog.Logger
	listener net.Listener
	closed   atomic.Bool

	// sem bounds concurrently handled connections; a slot is taken in
	// the accept loop and released when the handler goroutine exits.
	sem   chan struct{}
	conns *xsync.MapOf[net.Conn, struct{}]

	served   *xsync.Counter
	rejected *xsync.Counter
}

// Serve binds cfg.Addr and starts accepting in the background.
func Serve(cfg config.Config, store *cache.Cache, log zerolog.Logger) (*Server, error) {
	listener, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return nil, fmt.Errorf("bind %s: %w", cfg.Addr(), err)
	}

	s := &Server{
		cfg:      cfg,
		store:    store,
		log:      log,
		listener: listener,
		sem:      make(chan struct{}, cfg.MaxConnected),
		conns:    xsync.NewMapOf[net.Conn, struct{}](),
		served:   xsync.NewCounter(),
		rejected: xsync.NewCounter(),
	}
	log.Info().
		Stringer("addr", listener.Addr()).
		Int("max_connected", cfg.MaxConnected).
		Msg("listening")

	go s.listen()

	return s, nil
}

// Addr reports the bound address, useful when the configured port is 0.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Close stops accepting and tears down live connections.
func (s *Server) Close() error {
	s.closed.Store(true)
	err := s.listener.Close()
	s.conns.Range(func(conn net.Conn, _ struct{}) bool {
		conn.Close()
		return true
	})
	s.log.Info().
		Int64("served", s.served.Value()).
		Int64("rejected", s.rejected.Value()).
		Msg("server closed")
	return err
}

// Stats reports how many responses were written and how many
// connections were turned away at the door.
func (s *Server) Stats() (served, rejected int64) {
	return s.served.Value(), s.rejected.Value()
}

// listen is the accept loop. Admission control happens here, not in the
// handler, so a connection over the limit is dropped before any read.
func (s *Server) listen() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.closed.Load() {
				return
			}
			s.log.Error().Err(err).Msg("accept")
			continue
		}
		select {
		case s.sem <- struct{}{}:
		default:
			s.rejected.Inc()
			s.log.Warn().Stringer("remote", conn.RemoteAddr()).Msg("connection limit reached, dropping")
			conn.Close()
			continue
		}
		s.conns.Store(conn, struct{}{})
		go func() {
			defer func() {
				s.conns.Delete(conn)
				<-s.sem
			}()
			s.handle(conn)
		}()
	}
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()
	log := s.log.With().Stringer("remote", conn.RemoteAddr()).Logger()

	if t := s.cfg.Timeout(); t > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(t)); err != nil {
			log.Debug().Err(err).Msg("arm read deadline")
		}
	}

	bufp := bufPool.Get().(*[]byte)
	defer bufPool.Put(bufp)
	buf := *bufp

	n, err := conn.Read(buf)
	if n == 0 {
		if err != nil && err != io.EOF {
			log.Warn().Err(err).Msg("read request")
		}
		return
	}
	log.Debug().Int("bytes", n).Msg("request received")

	req := request.Parse(buf[:n])

	// A request without a body is treated as a handshake-style probe:
	// it gets the not-found page, never a resource.
	if len(req.Body) == 0 {
		content, _ := s.store.Fetch("")
		s.respond(conn, log, response.StatusNotFound, content)
		return
	}
	if req.Method == request.MethodInvalid {
		log.Warn().Msg("unrecognized method, closing")
		return
	}
	key := string(req.Resource)
	if key == "" {
		log.Warn().Stringer("method", req.Method).Msg("no resource in request, closing")
		return
	}
	if !cache.SafeKey(key) {
		log.Warn().Str("resource", key).Msg("path traversal attempt")
		s.respond(conn, log, response.StatusForbidden, nil)
		return
	}

	content, ok := s.store.Fetch(key)
	status := response.StatusOK
	if !ok {
		status = response.StatusNotFound
	}
	log.Info().
		Stringer("method", req.Method).
		Str("resource", key).
		Int("status", int(status)).
		Msg("serving")
	s.respond(conn, log, status, content)
}

func (s *Server) respond(conn net.Conn, log zerolog.Logger, status response.StatusCode, body []byte) {
	if t := s.cfg.Timeout(); t > 0 {
		if err := conn.SetWriteDeadline(time.Now().Add(t)); err != nil {
			log.Debug().Err(err).Msg("arm write deadline")
		}
	}
	if _, err := conn.Write(response.Format(status, body)); err != nil {
		log.Warn().Err(err).Msg("write response")
		return
	}
	s.served.Inc()
}
