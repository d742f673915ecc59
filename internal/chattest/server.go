// Package chattest provides a scripted chat peer for exercising the client
// end to end over a real loopback TCP connection.
package chattest

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"tcpchat/internal/wire"
)

// ErrClosed is returned by Expect once the client has closed its side.
var ErrClosed = errors.New("chattest: client connection closed")

// Server accepts a single client and records every frame it sends.
type Server struct {
	listener net.Listener

	mutex     sync.Mutex
	conn      net.Conn
	connected chan struct{}

	frames    chan wire.Message
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// Start listens on an ephemeral loopback port.
func Start() (*Server, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to start server: %v", err)
	}

	s := &Server{
		listener:  listener,
		connected: make(chan struct{}),
		frames:    make(chan wire.Message, 64),
		done:      make(chan struct{}),
	}
	s.wg.Add(1)
	go s.serve()
	return s, nil
}

func (s *Server) serve() {
	defer s.wg.Done()
	defer close(s.frames)

	conn, err := s.listener.Accept()
	if err != nil {
		return
	}
	s.mutex.Lock()
	select {
	case <-s.done:
		s.mutex.Unlock()
		conn.Close()
		return
	default:
	}
	s.conn = conn
	s.mutex.Unlock()
	close(s.connected)

	buf := make([]byte, wire.FrameSize)
	for {
		if _, err := io.ReadFull(conn, buf); err != nil {
			return
		}
		msg, _ := wire.Decode(buf)
		select {
		case s.frames <- msg:
		case <-s.done:
			return
		}
	}
}

// Addr returns the host:port clients should dial.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Host and Port split Addr.
func (s *Server) Host() string {
	return s.listener.Addr().(*net.TCPAddr).IP.String()
}

func (s *Server) Port() int {
	return s.listener.Addr().(*net.TCPAddr).Port
}

// WaitConnected blocks until a client has connected.
func (s *Server) WaitConnected(timeout time.Duration) error {
	select {
	case <-s.connected:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("chattest: no client connected within %v", timeout)
	}
}

// Expect returns the next frame the client sent.
func (s *Server) Expect(timeout time.Duration) (wire.Message, error) {
	select {
	case msg, ok := <-s.frames:
		if !ok {
			return wire.Message{}, ErrClosed
		}
		return msg, nil
	case <-time.After(timeout):
		return wire.Message{}, fmt.Errorf("chattest: no frame within %v", timeout)
	}
}

// ExpectType reads frames until one of type t arrives.
func (s *Server) ExpectType(t wire.Type, timeout time.Duration) (wire.Message, error) {
	deadline := time.Now().Add(timeout)
	for {
		msg, err := s.Expect(time.Until(deadline))
		if err != nil {
			return msg, err
		}
		if msg.Type == t {
			return msg, nil
		}
	}
}

// Drain waits for the client to close its side and returns the frames that
// arrived before that.
func (s *Server) Drain(timeout time.Duration) ([]wire.Message, error) {
	var got []wire.Message
	deadline := time.Now().Add(timeout)
	for {
		msg, err := s.Expect(time.Until(deadline))
		if errors.Is(err, ErrClosed) {
			return got, nil
		}
		if err != nil {
			return got, err
		}
		got = append(got, msg)
	}
}

// Send writes m to the client as one frame.
func (s *Server) Send(m wire.Message) error {
	return s.SendRaw(wire.Encode(m))
}

// SendRaw writes b verbatim, which lets tests send partial frames.
func (s *Server) SendRaw(b []byte) error {
	conn, err := s.client()
	if err != nil {
		return err
	}
	_, err = conn.Write(b)
	return err
}

// CloseClient closes the accepted connection, as a server hanging up would.
func (s *Server) CloseClient() error {
	conn, err := s.client()
	if err != nil {
		return err
	}
	return conn.Close()
}

// ResetClient aborts the accepted connection so the client sees a reset
// instead of an orderly close.
func (s *Server) ResetClient() error {
	conn, err := s.client()
	if err != nil {
		return err
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		if err := tc.SetLinger(0); err != nil {
			return err
		}
	}
	return conn.Close()
}

func (s *Server) client() (net.Conn, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.conn == nil {
		return nil, errors.New("chattest: no client connected")
	}
	return s.conn, nil
}

// Close stops the listener and the connection and waits for the reader.
func (s *Server) Close() {
	s.closeOnce.Do(func() { close(s.done) })
	s.listener.Close()
	s.mutex.Lock()
	if s.conn != nil {
		s.conn.Close()
	}
	s.mutex.Unlock()
	s.wg.Wait()
}
