// Package wire implements the fixed-size binary frame exchanged between the
// chat client and the server.
//
// Every frame is FrameSize bytes long regardless of its type:
//
//	offset 0   type       uint32, big-endian
//	offset 4   timestamp  uint32, big-endian, seconds since epoch
//	offset 8   username   [32]byte, NUL-padded
//	offset 40  body       [1024]byte, NUL-padded
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"
)

// Field sizes in bytes.
const (
	TypeSize      = 4
	TimestampSize = 4
	UsernameSize  = 32
	BodySize      = 1024

	HeaderSize = TypeSize + TimestampSize
	FrameSize  = HeaderSize + UsernameSize + BodySize

	// MaxUsernameLen and MaxBodyLen leave room for the terminating NUL.
	MaxUsernameLen = UsernameSize - 1
	MaxBodyLen     = BodySize - 1
)

const (
	typeOff      = 0
	timestampOff = typeOff + TypeSize
	usernameOff  = timestampOff + TimestampSize
	bodyOff      = usernameOff + UsernameSize
)

// Type identifies the kind of frame.
type Type uint32

// Type codes shared with the server. LOGIN is 0 and LOGOUT is 1 because that
// is what deployed servers expect on the wire.
const (
	TypeLogin      Type = 0
	TypeLogout     Type = 1
	TypeChat       Type = 2
	TypeBroadcast  Type = 10
	TypeDisconnect Type = 12
	TypeSystem     Type = 13
)

var typeNames = map[Type]string{
	TypeLogin:      "LOGIN",
	TypeLogout:     "LOGOUT",
	TypeChat:       "CHAT",
	TypeBroadcast:  "BROADCAST",
	TypeDisconnect: "DISCONNECT",
	TypeSystem:     "SYSTEM",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", uint32(t))
}

// Known reports whether t is one of the protocol's type codes.
func (t Type) Known() bool {
	_, ok := typeNames[t]
	return ok
}

// ErrFrameSize is returned when a buffer is not exactly FrameSize bytes.
var ErrFrameSize = errors.New("wire: buffer is not a full frame")

// Message is the decoded form of one frame.
type Message struct {
	Type      Type
	Timestamp uint32
	Username  string
	Body      string
}

// Time returns the advisory timestamp carried by the frame.
func (m Message) Time() time.Time {
	return time.Unix(int64(m.Timestamp), 0)
}

// NewLogin builds the login frame announcing name. The timestamp is left zero.
func NewLogin(name string) Message {
	return Message{Type: TypeLogin, Username: name}
}

// NewLogout builds the logout frame. The body is always empty.
func NewLogout(name string) Message {
	return Message{Type: TypeLogout, Username: name}
}

// NewChat builds an outgoing chat frame stamped with at.
// The body is cut to MaxBodyLen bytes without splitting a UTF-8 sequence.
func NewChat(name, body string, at time.Time) Message {
	return Message{
		Type:      TypeChat,
		Timestamp: uint32(at.Unix()),
		Username:  name,
		Body:      TruncateUTF8(body, MaxBodyLen),
	}
}

// Encode returns m as a freshly allocated frame.
func Encode(m Message) []byte {
	buf := make([]byte, FrameSize)
	// cannot fail, buf has the right size
	_ = EncodeTo(buf, m)
	return buf
}

// EncodeTo writes m into dst, which must be exactly FrameSize bytes.
// Text longer than its field is cut so the field always keeps a NUL.
func EncodeTo(dst []byte, m Message) error {
	if len(dst) != FrameSize {
		return fmt.Errorf("%w: got %d bytes", ErrFrameSize, len(dst))
	}
	binary.BigEndian.PutUint32(dst[typeOff:], uint32(m.Type))
	binary.BigEndian.PutUint32(dst[timestampOff:], m.Timestamp)
	putText(dst[usernameOff:bodyOff], m.Username)
	putText(dst[bodyOff:FrameSize], m.Body)
	return nil
}

// Decode parses a full frame. Unknown type codes are returned as-is; it is up
// to the caller to classify them.
func Decode(frame []byte) (Message, error) {
	if len(frame) != FrameSize {
		return Message{}, fmt.Errorf("%w: got %d bytes", ErrFrameSize, len(frame))
	}
	return Message{
		Type:      Type(binary.BigEndian.Uint32(frame[typeOff:])),
		Timestamp: binary.BigEndian.Uint32(frame[timestampOff:]),
		Username:  text(frame[usernameOff:bodyOff]),
		Body:      text(frame[bodyOff:FrameSize]),
	}, nil
}

// putText copies s into field and zero-fills the rest. At most len(field)-1
// bytes of s are kept.
func putText(field []byte, s string) {
	n := copy(field[:len(field)-1], s)
	clear(field[n:])
}

// text reads a NUL-terminated string from field. A field with no NUL yields
// all of its bytes and nothing past it.
func text(field []byte) string {
	for i, b := range field {
		if b == 0 {
			return string(field[:i])
		}
	}
	return string(field)
}

// TruncateUTF8 cuts s to at most limit bytes, backing off so a multi-byte
// sequence is never split.
func TruncateUTF8(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
