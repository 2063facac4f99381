package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"shuffler/internal/logging"
)

// Route classifies an inbound request.
type Route int

const (
	RouteOther Route = iota
	RouteStatus
	RouteSkip
)

func (r Route) String() string {
	switch r {
	case RouteStatus:
		return "status"
	case RouteSkip:
		return "skip"
	default:
		return "other"
	}
}

// RouteFor maps a request to its route. Only GET and HEAD reach status and
// skip; any other method falls through to the catch-all.
func RouteFor(method, path string) Route {
	if method != http.MethodGet && method != http.MethodHead {
		return RouteOther
	}
	switch path {
	case "", "/":
		return RouteStatus
	case "/skip":
		return RouteSkip
	default:
		return RouteOther
	}
}

// Response is a rendered reply.
type Response struct {
	Status      int
	ContentType string
	Body        string
}

// Request is an inbound control request awaiting a Response.
type Request struct {
	Route  Route
	Method string
	Path   string
	reply  chan Response
}

// NewRequest builds a request for path.
func NewRequest(method, path string) *Request {
	return &Request{Route: RouteFor(method, path), Method: method, Path: path, reply: make(chan Response, 1)}
}

// Respond answers the request. Only the first call has effect and it never blocks.
func (r *Request) Respond(resp Response) {
	select {
	case r.reply <- resp:
	default:
	}
}

// Reply returns the channel the response is delivered on.
func (r *Request) Reply() <-chan Response {
	return r.reply
}

const defaultReplyTimeout = 30 * time.Second

// Server accepts HTTP requests and queues them for Receive.
type Server struct {
	logger       *slog.Logger
	listener     net.Listener
	server       *http.Server
	requests     chan *Request
	closing      chan struct{}
	replyTimeout time.Duration
}

// Listen binds addr. A bind failure is returned immediately.
func Listen(addr string, logger *slog.Logger) (*Server, error) {
	addr = strings.TrimSpace(addr)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("control listen %s: %w", addr, err)
	}
	s := &Server{
		logger:       logging.NewComponentLogger(logger, "control"),
		listener:     listener,
		requests:     make(chan *Request),
		closing:      make(chan struct{}),
		replyTimeout: defaultReplyTimeout,
	}
	s.server = &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      defaultReplyTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Addr returns the bound address.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Serve starts accepting connections in the background.
func (s *Server) Serve() {
	go func() {
		if err := s.server.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.ErrorWithContext(s.logger, "control server stopped", "control_serve_failed", logging.Error(err))
		}
	}()
	s.logger.Info("control surface listening", logging.String("address", s.Addr()))
}

// Receive waits up to timeout for one request. ok is false when none arrived.
func (s *Server) Receive(ctx context.Context, timeout time.Duration) (*Request, bool, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case req := <-s.requests:
		return req, true, nil
	case <-timer.C:
		return nil, false, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

// Shutdown stops accepting requests and closes idle connections.
func (s *Server) Shutdown(ctx context.Context) error {
	select {
	case <-s.closing:
	default:
		close(s.closing)
	}
	err := s.server.Shutdown(ctx)
	_ = s.listener.Close()
	return err
}

// ServeHTTP hands the request to the control loop and writes its reply.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req := NewRequest(r.Method, r.URL.Path)
	select {
	case s.requests <- req:
	case <-s.closing:
		writeResponse(w, Response{Status: http.StatusServiceUnavailable, ContentType: contentTypeText, Body: "shutting down"})
		return
	case <-r.Context().Done():
		return
	}

	timer := time.NewTimer(s.replyTimeout)
	defer timer.Stop()
	select {
	case resp := <-req.reply:
		if err := writeResponse(w, resp); err != nil {
			logging.WarnWithContext(s.logger, "control response write failed", "control_write_failed",
				logging.String("path", req.Path),
				logging.Error(err),
			)
		}
	case <-timer.C:
		writeResponse(w, Response{Status: http.StatusGatewayTimeout, ContentType: contentTypeText, Body: "control loop did not answer"})
	case <-r.Context().Done():
	}
}

func writeResponse(w http.ResponseWriter, resp Response) error {
	if resp.ContentType != "" {
		w.Header().Set("Content-Type", resp.ContentType)
	}
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, err := w.Write([]byte(resp.Body))
	return err
}
