package session

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"tcpchat/internal/render"
	"tcpchat/internal/shutdown"
	"tcpchat/internal/transport"
	"tcpchat/internal/wire"
)

// sender reads lines from the user and writes them as CHAT frames. It owns
// the write side of the connection.
type sender struct {
	name    string
	ch      *transport.Channel
	coord   *shutdown.Coordinator
	display *render.Renderer
	logger  *zap.Logger
	lines   *lineSource
	now     func() time.Time

	loggedOut bool
}

func (s *sender) run() error {
	for s.coord.Active() {
		line, err := s.lines.next(s.coord.Done())
		switch {
		case errors.Is(err, errInterrupted):
			return s.logout()
		case err == io.EOF:
			s.coord.Raise(shutdown.ReasonEndOfInput)
			return s.logout()
		case err != nil:
			s.display.Errorf("Could not read input: %v", err)
			s.logger.Error("input read failed", zap.Error(err))
			s.coord.Raise(shutdown.ReasonEndOfInput)
			return s.logout()
		}

		text := trimTerminator(line)
		if text == "" {
			s.display.Errorf("No input")
			continue
		}
		if r, ok := firstNonPrintable(text); ok {
			s.display.Errorf("Invalid message, please use only printable characters")
			s.logger.Debug("rejected input", zap.String("char", fmt.Sprintf("%U", r)))
			continue
		}

		if !s.coord.Active() {
			return s.logout()
		}

		msg := wire.NewChat(s.name, text, s.now())
		if err := s.ch.WriteExact(wire.Encode(msg)); err != nil {
			s.display.Errorf("Could not write message: %v", err)
			s.logger.Error("send failed", zap.Error(err))
			s.coord.Raise(shutdown.ReasonTransport)
			return fmt.Errorf("send: %w", err)
		}
		s.logger.Debug("sent chat", zap.Int("bytes", len(msg.Body)))
	}
	return s.logout()
}

// logout sends the single LOGOUT frame of the session. It is skipped once
// the connection has failed.
func (s *sender) logout() error {
	if s.loggedOut {
		return nil
	}
	s.loggedOut = true

	reason := s.coord.Reason()
	if reason == shutdown.ReasonTransport {
		return nil
	}
	err := s.ch.WriteExact(wire.Encode(wire.NewLogout(s.name)))
	if err == nil {
		s.logger.Debug("sent logout", zap.Stringer("reason", reason))
		return nil
	}
	if reason == shutdown.ReasonDisconnect {
		// the server has already hung up
		s.logger.Debug("logout after disconnect not delivered", zap.Error(err))
		return nil
	}
	s.display.Errorf("Write error sending logout: %v", err)
	s.logger.Error("logout failed", zap.Error(err))
	return fmt.Errorf("send logout: %w", err)
}

// trimTerminator strips one trailing "\n" or "\r\n".
func trimTerminator(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}

// firstNonPrintable returns the first rune of s that is not printable.
// Invalid UTF-8 counts as non-printable.
func firstNonPrintable(s string) (rune, bool) {
	for i, r := range s {
		if r == utf8.RuneError {
			if _, size := utf8.DecodeRuneInString(s[i:]); size == 1 {
				return r, true
			}
		}
		if !unicode.IsPrint(r) {
			return r, true
		}
	}
	return 0, false
}
