// Package transport owns the client's TCP connection and moves whole frames
// across it.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrShortRead means the stream ended or failed before a full read.
	ErrShortRead = errors.New("short read")
	// ErrShortWrite means the stream failed before a full write.
	ErrShortWrite = errors.New("short write")
	// ErrInterrupted means a pending read was unblocked by Interrupt.
	ErrInterrupted = errors.New("read interrupted")
)

// TransferError describes a partial read or write.
type TransferError struct {
	Op   string // "read" or "write"
	Want int
	Got  int
	Err  error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("%s: transferred %d of %d bytes: %v", e.Op, e.Got, e.Want, e.Err)
}

func (e *TransferError) Unwrap() []error {
	kind := ErrShortRead
	if e.Op == "write" {
		kind = ErrShortWrite
	}
	if e.Err == nil {
		return []error{kind}
	}
	return []error{kind, e.Err}
}

// Channel wraps a stream connection. One goroutine may read while another
// writes; concurrent reads (or concurrent writes) are not supported.
type Channel struct {
	conn   net.Conn
	done   <-chan struct{}
	logger *zap.Logger

	closeOnce sync.Once
	closeErr  error
}

// New wraps conn. Once done is closed, ReadExact stops reading and returns
// immediately. A nil done never fires.
func New(conn net.Conn, done <-chan struct{}, logger *zap.Logger) *Channel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Channel{
		conn:   conn,
		done:   done,
		logger: logger.Named("transport"),
	}
}

// Dial connects to addr and wraps the connection.
func Dial(ctx context.Context, network, addr string, done <-chan struct{}, logger *zap.Logger) (*Channel, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, network, addr)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", addr, err)
	}
	return New(conn, done, logger), nil
}

func (c *Channel) stopped() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// ReadExact reads exactly n bytes. If the session is already shutting down it
// returns an empty slice and no error without touching the connection.
func (c *Channel) ReadExact(n int) ([]byte, error) {
	if c.stopped() {
		return nil, nil
	}

	buf := make([]byte, n)
	got := 0
	for got < n {
		r, err := c.conn.Read(buf[got:])
		got += r
		if got == n {
			break
		}
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) && c.stopped() {
				return nil, ErrInterrupted
			}
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			c.logger.Debug("read failed", zap.Int("want", n), zap.Int("got", got), zap.Error(err))
			return nil, &TransferError{Op: "read", Want: n, Got: got, Err: err}
		}
		if r == 0 {
			return nil, &TransferError{Op: "read", Want: n, Got: got, Err: io.ErrNoProgress}
		}
	}
	return buf, nil
}

// WriteExact writes all of p, retrying partial writes until it is done or
// the connection fails.
func (c *Channel) WriteExact(p []byte) error {
	sent := 0
	for sent < len(p) {
		w, err := c.conn.Write(p[sent:])
		sent += w
		if err != nil {
			c.logger.Debug("write failed", zap.Int("want", len(p)), zap.Int("got", sent), zap.Error(err))
			return &TransferError{Op: "write", Want: len(p), Got: sent, Err: err}
		}
		if w == 0 {
			return &TransferError{Op: "write", Want: len(p), Got: sent, Err: io.ErrShortWrite}
		}
	}
	return nil
}

// Interrupt unblocks a pending ReadExact by expiring the read deadline.
func (c *Channel) Interrupt() {
	if err := c.conn.SetReadDeadline(time.Now()); err != nil {
		c.logger.Debug("set read deadline", zap.Error(err))
	}
}

// Close closes the connection. Later calls return the first result.
func (c *Channel) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

func (c *Channel) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}
