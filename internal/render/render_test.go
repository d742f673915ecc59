package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"tcpchat/internal/wire"
)

var fixedNow = func() time.Time {
	return time.Date(2024, 3, 9, 14, 5, 6, 0, time.Local)
}

func newTestRenderer(name string, quiet bool, opts ...Option) (*Renderer, *bytes.Buffer, *bytes.Buffer) {
	var out, diag bytes.Buffer
	opts = append([]Option{WithStyles(ANSIStyles()), WithClock(fixedNow)}, opts...)
	return New(&out, &diag, name, quiet, opts...), &out, &diag
}

func TestSplitMentions(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		handle   string
		mentions int
	}{
		{"NoMention", "hello world", "@alice", 0},
		{"Single", "hello @alice", "@alice", 1},
		{"Leading", "@alice hi", "@alice", 1},
		{"Adjacent", "@alice@alice", "@alice", 2},
		{"Repeated", "@alice, @alice and @bob", "@alice", 2},
		{"NotWordAware", "mail@alicea.com", "@alice", 1},
		{"NoOverlap", "@aa@aa@aa", "@aa@aa", 1},
		{"EmptyHandle", "hello @alice", "", 0},
		{"EmptyBody", "", "@alice", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segs := SplitMentions(tt.body, tt.handle)

			var joined strings.Builder
			mentions := 0
			for _, s := range segs {
				joined.WriteString(s.Text)
				if s.Mention {
					mentions++
					assert.Equal(t, tt.handle, s.Text)
				}
			}
			assert.Equal(t, tt.body, joined.String(), "no body character may be dropped")
			assert.Equal(t, tt.mentions, mentions)
		})
	}
}

func TestChatHighlightsMention(t *testing.T) {
	r, out, diag := newTestRenderer("alice", false)
	r.Chat(wire.Message{Type: wire.TypeBroadcast, Timestamp: 1700000000, Username: "bob", Body: "hello @alice"})

	highlighted := ANSIStyles().Mention.Render("@alice")
	assert.NotEqual(t, "@alice", highlighted, "ANSI profile must emit escapes")
	assert.True(t, ANSIStyles().Mention.GetBold())

	want := "[2024-03-09 14:05:06] bob: hello " + bell + highlighted + "\n"
	assert.Equal(t, want, out.String())
	assert.Empty(t, diag.String())
}

func TestChatQuietLeavesBodyUnstyled(t *testing.T) {
	r, out, _ := newTestRenderer("alice", true)
	r.Chat(wire.Message{Type: wire.TypeBroadcast, Username: "bob", Body: "hello @alice"})

	assert.Equal(t, "[2024-03-09 14:05:06] bob: hello @alice\n", out.String())
}

func TestChatWithoutBell(t *testing.T) {
	r, out, _ := newTestRenderer("alice", false, WithBell(false))
	r.Chat(wire.Message{Username: "bob", Body: "@alice @alice"})

	hl := ANSIStyles().Mention.Render("@alice")
	assert.Equal(t, "[2024-03-09 14:05:06] bob: "+hl+" "+hl+"\n", out.String())
	assert.NotContains(t, out.String(), bell)
}

func TestChatTimeFormat(t *testing.T) {
	r, out, _ := newTestRenderer("alice", true, WithTimeFormat("15:04"))
	r.Chat(wire.Message{Username: "bob", Body: "hi"})
	assert.Equal(t, "[14:05] bob: hi\n", out.String())
}

func TestNotices(t *testing.T) {
	r, out, diag := newTestRenderer("alice", false)
	styles := ANSIStyles()

	r.System("carol joined")
	r.Disconnect("server full")
	r.LoggedOut()
	r.Errorf("No input")

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	assert.Equal(t, []string{
		styles.System.Render("[SYSTEM] carol joined"),
		styles.Disconnect.Render("[DISCONNECT] server full"),
		"[DISCONNECT] User logged out",
	}, lines)
	assert.Equal(t, styles.Error.Render("Error: No input")+"\n", diag.String())
}

func TestPlainStylesEmitNoEscapes(t *testing.T) {
	var out bytes.Buffer
	r := New(&out, &out, "alice", false, WithStyles(PlainStyles()), WithClock(fixedNow), WithBell(false))
	r.Chat(wire.Message{Username: "bob", Body: "hey @alice"})
	r.System("note")

	assert.NotContains(t, out.String(), "\x1b[")
	assert.Contains(t, out.String(), "bob: hey @alice\n")
	assert.Contains(t, out.String(), "[SYSTEM] note\n")
}
