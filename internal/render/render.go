// Package render turns decoded frames and local notices into terminal lines.
//
// A Renderer has two sinks: the display, which receives chat traffic and
// server notices, and the diagnostic stream, which receives protocol,
// validation and transport errors.
package render

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"tcpchat/internal/wire"
)

// DefaultTimeFormat matches the timestamp the client prints before each chat
// line.
const DefaultTimeFormat = "2006-01-02 15:04:05"

const bell = "\a"

// Renderer writes styled lines. It is safe for concurrent use; each line is
// written with a single Write call.
type Renderer struct {
	mu   sync.Mutex
	out  io.Writer
	diag io.Writer

	styles     Styles
	handle     string
	quiet      bool
	bell       bool
	timeFormat string
	now        func() time.Time
}

// Option configures a Renderer.
type Option func(*Renderer)

func WithStyles(s Styles) Option {
	return func(r *Renderer) { r.styles = s }
}

// WithClock replaces the wall clock used for chat timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) { r.now = now }
}

func WithTimeFormat(layout string) Option {
	return func(r *Renderer) {
		if layout != "" {
			r.timeFormat = layout
		}
	}
}

// WithBell toggles the terminal bell sent before a highlighted mention.
func WithBell(on bool) Option {
	return func(r *Renderer) { r.bell = on }
}

// New returns a Renderer for the user called name. With quiet set, mentions
// of name are not highlighted.
func New(out, diag io.Writer, name string, quiet bool, opts ...Option) *Renderer {
	r := &Renderer{
		out:        out,
		diag:       diag,
		styles:     DefaultStyles(lipgloss.NewRenderer(out)),
		handle:     Handle(name),
		quiet:      quiet,
		bell:       true,
		timeFormat: DefaultTimeFormat,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Chat renders a CHAT or BROADCAST frame. The timestamp is the local time of
// receipt, not the one on the wire.
func (r *Renderer) Chat(m wire.Message) {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s: ", r.now().Format(r.timeFormat), m.Username)
	if r.quiet {
		b.WriteString(m.Body)
	} else {
		for _, seg := range SplitMentions(m.Body, r.handle) {
			if !seg.Mention {
				b.WriteString(seg.Text)
				continue
			}
			if r.bell {
				b.WriteString(bell)
			}
			b.WriteString(r.styles.Mention.Render(seg.Text))
		}
	}
	b.WriteByte('\n')
	r.write(r.out, b.String())
}

// System renders a server notice.
func (r *Renderer) System(body string) {
	r.write(r.out, r.styles.System.Render("[SYSTEM] "+body)+"\n")
}

// Disconnect renders the reason the server gave for ending the session.
func (r *Renderer) Disconnect(body string) {
	r.write(r.out, r.styles.Disconnect.Render("[DISCONNECT] "+body)+"\n")
}

// LoggedOut renders the local notice shown when the user ends the session.
func (r *Renderer) LoggedOut() {
	r.write(r.out, "[DISCONNECT] User logged out\n")
}

// Infof writes an unstyled line to the display.
func (r *Renderer) Infof(format string, args ...any) {
	r.write(r.out, fmt.Sprintf(format, args...)+"\n")
}

// Errorf writes an error line to the diagnostic stream.
func (r *Renderer) Errorf(format string, args ...any) {
	r.write(r.diag, r.styles.Error.Render("Error: "+fmt.Sprintf(format, args...))+"\n")
}

func (r *Renderer) write(w io.Writer, s string) {
	if w == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	io.WriteString(w, s)
}
