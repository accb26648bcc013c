// Package udpnotify announces catalog news to UDP subscribers. A client
// sends SUBSCRIBE to start receiving JSON notifications and UNSUBSCRIBE to stop.
package udpnotify

import (
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"streamhub/internal/logger"
	"streamhub/internal/metrics"
)

type Notification struct {
	Type      string `json:"type"` // always "notification"
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

type Server struct {
	addr string
	conn *net.UDPConn

	mu      sync.Mutex
	clients map[string]*net.UDPAddr // key = ip:port
}

func New(addr string) *Server {
	return &Server{
		addr:    addr,
		clients: make(map[string]*net.UDPAddr),
	}
}

func (s *Server) Listen() error {
	udpAddr, err := net.ResolveUDPAddr("udp", s.addr)
	if err != nil {
		return err
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	logger.Infof("UDP notices listening on %s", conn.LocalAddr())
	return nil
}

func (s *Server) Addr() net.Addr {
	return s.conn.LocalAddr()
}

func (s *Server) Start(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// Serve handles subscription datagrams until ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		_ = s.conn.Close()
	}()

	buf := make([]byte, 2048)
	for {
		n, clientAddr, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			logger.Warning("udp read:", err)
			continue
		}

		switch strings.ToUpper(strings.TrimSpace(string(buf[:n]))) {
		case "SUBSCRIBE":
			s.subscribe(clientAddr)
		case "UNSUBSCRIBE":
			s.unsubscribe(clientAddr)
		}
	}
}

func (s *Server) subscribe(addr *net.UDPAddr) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[addr.String()]; ok {
		return
	}
	s.clients[addr.String()] = addr
	metrics.RealtimeClients.WithLabelValues("udp").Inc()
	logger.Debugf("UDP subscribed: %s (total=%d)", addr, len(s.clients))
}

func (s *Server) unsubscribe(addr *net.UDPAddr) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[addr.String()]; !ok {
		return
	}
	delete(s.clients, addr.String())
	metrics.RealtimeClients.WithLabelValues("udp").Dec()
	logger.Debugf("UDP unsubscribed: %s (total=%d)", addr, len(s.clients))
}

func (s *Server) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Broadcast sends message to every subscriber. It is a no-op before Listen.
func (s *Server) Broadcast(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		logger.Debug("udp notice dropped, listener not started")
		return
	}

	b, err := json.Marshal(Notification{
		Type:      "notification",
		Message:   message,
		Timestamp: time.Now().Unix(),
	})
	if err != nil {
		logger.Warning("udp marshal:", err)
		return
	}
	for key, addr := range s.clients {
		if _, err := s.conn.WriteToUDP(b, addr); err != nil {
			logger.Warningf("udp send to %s failed: %v", key, err)
		}
	}
}
