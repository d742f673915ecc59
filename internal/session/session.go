// Package session runs one chat session: it connects, logs in, and drives
// the receive and send loops over a shared connection until either side ends
// the session.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tcpchat/internal/config"
	"tcpchat/internal/render"
	"tcpchat/internal/shutdown"
	"tcpchat/internal/transport"
	"tcpchat/internal/wire"
)

// ErrStartup wraps every failure that happens before the loops start.
var ErrStartup = errors.New("session startup failed")

// Session holds the collaborators of one chat session.
type Session struct {
	cfg     config.ClientConfig
	logger  *zap.Logger
	display *render.Renderer
	input   io.Reader
	signals []os.Signal
	now     func() time.Time
	dial    dialFunc

	coord *shutdown.Coordinator
}

type dialFunc func(ctx context.Context, network, addr string, done <-chan struct{}, logger *zap.Logger) (*transport.Channel, error)

// Option configures a Session.
type Option func(*Session)

func WithLogger(l *zap.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithDisplay sets the renderer for chat traffic and diagnostics.
func WithDisplay(r *render.Renderer) Option {
	return func(s *Session) { s.display = r }
}

// WithInput sets the stream user lines are read from.
func WithInput(r io.Reader) Option {
	return func(s *Session) { s.input = r }
}

// WithSignals makes the given OS signals end the session.
func WithSignals(sigs ...os.Signal) Option {
	return func(s *Session) { s.signals = sigs }
}

// WithClock sets the clock used to stamp outgoing CHAT frames.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// New returns a session for cfg. Without options it reads os.Stdin and
// renders to os.Stdout and os.Stderr.
func New(cfg config.ClientConfig, opts ...Option) *Session {
	s := &Session{
		cfg:    cfg,
		logger: zap.NewNop(),
		input:  os.Stdin,
		now:    time.Now,
		dial:   transport.Dial,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.display == nil {
		s.display = render.New(os.Stdout, os.Stderr, cfg.DisplayName, cfg.Quiet)
	}
	return s
}

// Run connects, sends the login frame, and runs both loops until the session
// ends. It returns nil when the session ended normally (end of input, signal,
// server disconnect) and the transport error otherwise. Startup failures
// wrap ErrStartup.
func (s *Session) Run(ctx context.Context) error {
	logger := s.logger.With(
		zap.String("session", uuid.NewString()),
		zap.String("server", s.cfg.Addr()),
	)

	coord := shutdown.New(ctx)
	s.coord = coord
	defer coord.Stop()
	coord.Notify(s.signals...)

	// a signal during a slow connect must cancel the dial too
	ch, err := s.dial(coord.Context(), "tcp", s.cfg.Addr(), coord.Done(), logger)
	if err != nil {
		s.display.Errorf("Could not connect: %v", err)
		logger.Error("connect failed", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrStartup, err)
	}
	defer ch.Close()
	s.display.Infof("connected to server")
	logger.Info("connected", zap.Stringer("remote", ch.RemoteAddr()))

	if err := ch.WriteExact(wire.Encode(wire.NewLogin(s.cfg.DisplayName))); err != nil {
		s.display.Errorf("Write error sending login: %v", err)
		logger.Error("login failed", zap.Error(err))
		return fmt.Errorf("%w: send login: %w", ErrStartup, err)
	}
	logger.Debug("sent login", zap.String("name", s.cfg.DisplayName))

	coord.OnRaise(ch.Interrupt)

	recv := &receiver{
		ch:      ch,
		coord:   coord,
		display: s.display,
		logger:  logger.Named("receiver"),
	}
	send := &sender{
		name:    s.cfg.DisplayName,
		ch:      ch,
		coord:   coord,
		display: s.display,
		logger:  logger.Named("sender"),
		lines:   readLines(s.input, coord.Done()),
		now:     s.now,
	}

	var g errgroup.Group
	g.Go(recv.run)
	g.Go(send.run)
	err = g.Wait()

	coord.Stop()
	logger.Info("session ended", zap.Stringer("reason", coord.Reason()), zap.Error(err))
	return err
}

// Reason reports what ended the last Run.
func (s *Session) Reason() shutdown.Reason {
	if s.coord == nil {
		return shutdown.ReasonNone
	}
	return s.coord.Reason()
}

// State reports the coordinator state of the last Run.
func (s *Session) State() shutdown.State {
	if s.coord == nil {
		return shutdown.Active
	}
	return s.coord.State()
}
