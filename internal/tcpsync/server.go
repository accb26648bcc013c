// Package tcpsync streams watch-progress events to TCP subscribers as
// newline-delimited JSON.
package tcpsync

import (
	"bufio"
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"streamhub/internal/logger"
	"streamhub/internal/metrics"
	"streamhub/pkg/models"
)

const (
	// sendBuffer is how many encoded events a client may lag behind before
	// it is dropped.
	sendBuffer = 64
	writeWait  = 5 * time.Second
)

// client owns one subscriber connection. Only its writeLoop writes to conn.
type client struct {
	conn net.Conn
	send chan []byte
}

// Server reads progress events from a channel and queues each one for every
// connected client. Clients never send anything meaningful; reads only detect
// disconnects. s.mu is never held across network I/O.
type Server struct {
	addr string
	ln   net.Listener

	mu      sync.Mutex
	clients map[*client]struct{}

	events <-chan models.ProgressUpdate
}

func New(addr string, events <-chan models.ProgressUpdate) *Server {
	return &Server{
		addr:    addr,
		clients: make(map[*client]struct{}),
		events:  events,
	}
}

// Listen binds the listener; Addr is valid afterwards.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.ln = ln
	logger.Infof("TCP progress feed listening on %s", ln.Addr())
	return nil
}

func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

// Start listens and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// Serve accepts clients and broadcasts events until ctx is done, then closes
// the listener and every client.
func (s *Server) Serve(ctx context.Context) error {
	go s.broadcastLoop(ctx)
	go func() {
		<-ctx.Done()
		_ = s.ln.Close()
	}()
	defer s.closeAll()

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			logger.Warning("tcp accept:", err)
			continue
		}
		c := s.addClient(conn)
		logger.Debugf("TCP client connected: %s", conn.RemoteAddr())
		go s.writeLoop(c)
		go s.readLoop(c)
	}
}

// Clients reports the number of connected subscribers.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) addClient(conn net.Conn) *client {
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c] = struct{}{}
	metrics.RealtimeClients.WithLabelValues("tcp").Inc()
	return c
}

// removeClient must be called with s.mu held. Closing send stops the
// client's writeLoop; closing conn unblocks its readLoop.
func (s *Server) removeClient(c *client) {
	if _, ok := s.clients[c]; !ok {
		return
	}
	delete(s.clients, c)
	close(c.send)
	_ = c.conn.Close()
	metrics.RealtimeClients.WithLabelValues("tcp").Dec()
}

func (s *Server) drop(c *client) {
	s.mu.Lock()
	s.removeClient(c)
	s.mu.Unlock()
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		s.removeClient(c)
	}
}

func (s *Server) readLoop(c *client) {
	sc := bufio.NewScanner(c.conn)
	for sc.Scan() {
		// ignore input
	}
	s.drop(c)
	logger.Debugf("TCP client disconnected: %s", c.conn.RemoteAddr())
}

func (s *Server) writeLoop(c *client) {
	for b := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if _, err := c.conn.Write(b); err != nil {
			logger.Debugf("TCP client %s write failed: %v", c.conn.RemoteAddr(), err)
			s.drop(c)
			return
		}
	}
}

// broadcast queues b for every client. A client whose queue is full is
// too slow to keep up and is dropped.
func (s *Server) broadcast(b []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		select {
		case c.send <- b:
		default:
			logger.Warningf("TCP client %s too slow, dropping", c.conn.RemoteAddr())
			s.removeClient(c)
		}
	}
}

func (s *Server) broadcastLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-s.events:
			if !ok {
				return
			}
			b, err := json.Marshal(evt)
			if err != nil {
				logger.Warning("tcp marshal:", err)
				continue
			}
			s.broadcast(append(b, '\n'))
		}
	}
}
