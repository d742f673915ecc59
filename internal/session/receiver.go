package session

import (
	"fmt"

	"go.uber.org/zap"

	"tcpchat/internal/render"
	"tcpchat/internal/shutdown"
	"tcpchat/internal/transport"
	"tcpchat/internal/wire"
)

// receiver reads frames from the server and renders them until the session
// ends.
type receiver struct {
	ch      *transport.Channel
	coord   *shutdown.Coordinator
	display *render.Renderer
	logger  *zap.Logger
}

func (r *receiver) run() error {
	for {
		frame, err := r.ch.ReadExact(wire.FrameSize)
		if !r.coord.Active() {
			r.stopped()
			return nil
		}
		if err != nil {
			r.display.Errorf("Could not read message: %v", err)
			r.logger.Error("receive failed", zap.Error(err))
			r.coord.Raise(shutdown.ReasonTransport)
			return fmt.Errorf("receive: %w", err)
		}

		msg, err := wire.Decode(frame)
		if err != nil {
			// ReadExact returned a full frame, so this is a programming error.
			return fmt.Errorf("receive: %w", err)
		}
		if done := r.dispatch(msg); done {
			return nil
		}
	}
}

// dispatch renders one message and reports whether the session is over.
func (r *receiver) dispatch(msg wire.Message) bool {
	switch msg.Type {
	case wire.TypeChat, wire.TypeBroadcast:
		r.logger.Debug("chat received",
			zap.String("username", msg.Username),
			zap.Time("sent", msg.Time()))
		r.display.Chat(msg)
	case wire.TypeSystem:
		r.display.System(msg.Body)
	case wire.TypeDisconnect:
		r.display.Disconnect(msg.Body)
		r.logger.Info("server ended session", zap.String("reason", msg.Body))
		r.coord.Raise(shutdown.ReasonDisconnect)
		return true
	default:
		r.display.Errorf("Unrecognizable message type %d", uint32(msg.Type))
		// LOGIN and LOGOUT only travel client to server
		what := "unrecognized message type"
		if msg.Type.Known() {
			what = "unexpected message direction"
		}
		r.logger.Warn(what,
			zap.Stringer("type", msg.Type),
			zap.String("username", msg.Username))
	}
	return false
}

// stopped runs when someone else ended the session while the receiver was
// waiting for a frame.
func (r *receiver) stopped() {
	reason := r.coord.Reason()
	r.logger.Debug("receiver stopping", zap.Stringer("reason", reason))
	switch reason {
	case shutdown.ReasonEndOfInput, shutdown.ReasonSignal, shutdown.ReasonCanceled:
		r.display.LoggedOut()
	}
}
