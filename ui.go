// ui.go
package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jroimartin/gocui"
	"go.uber.org/zap"

	"tcpchat/internal/config"
	"tcpchat/internal/render"
)

// ChatUI is the full-screen front end. Rendered output goes to the messages
// view and every submitted line is fed to the session as if typed on stdin.
type ChatUI struct {
	gui        *gocui.Gui
	msgView    string
	inputView  string
	statusView string
	status     string

	lines  *io.PipeReader
	input  *io.PipeWriter
	submit chan string
}

func NewChatUI(status string) (*ChatUI, error) {
	g, err := gocui.NewGui(gocui.OutputNormal)
	if err != nil {
		return nil, err
	}

	pr, pw := io.Pipe()
	ui := &ChatUI{
		gui:        g,
		msgView:    "messages",
		inputView:  "input",
		statusView: "status",
		status:     status,
		lines:      pr,
		input:      pw,
		submit:     make(chan string, 16),
	}

	g.Cursor = true
	g.SetManagerFunc(ui.layout)
	return ui, nil
}

func (ui *ChatUI) layout(g *gocui.Gui) error {
	maxX, maxY := g.Size()
	msgHeight := maxY - 6

	// Messages view
	if v, err := g.SetView(ui.msgView, 0, 0, maxX-1, msgHeight); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "Messages"
		v.Wrap = true
		v.Autoscroll = true
	}

	// Status bar
	if v, err := g.SetView(ui.statusView, 0, msgHeight+1, maxX-1, msgHeight+3); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "Status"
		fmt.Fprint(v, ui.status)
	}

	// Input field
	if v, err := g.SetView(ui.inputView, 0, msgHeight+3, maxX-1, maxY-1); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "Input"
		v.Editable = true
		v.Wrap = true

		if _, err := g.SetCurrentView(ui.inputView); err != nil {
			return err
		}
	}

	return nil
}

func (ui *ChatUI) keybindings() error {
	// Enter submits, Ctrl-C and Ctrl-D end the input stream.
	if err := ui.gui.SetKeybinding(ui.inputView, gocui.KeyEnter, gocui.ModNone,
		ui.handleInput); err != nil {
		return err
	}

	for _, key := range []gocui.Key{gocui.KeyCtrlC, gocui.KeyCtrlD} {
		if err := ui.gui.SetKeybinding("", key, gocui.ModNone,
			func(_ *gocui.Gui, _ *gocui.View) error {
				ui.input.Close()
				return nil
			}); err != nil {
			return err
		}
	}

	return nil
}

func (ui *ChatUI) handleInput(_ *gocui.Gui, v *gocui.View) error {
	line := inputLine(v.Buffer())
	v.Clear()
	if err := v.SetCursor(0, 0); err != nil {
		return err
	}
	if err := v.SetOrigin(0, 0); err != nil {
		return err
	}

	select {
	case ui.submit <- line:
	default:
		ui.writeMessage("Error: input queue full, line dropped\n")
	}
	return nil
}

// pump forwards submitted lines to the session in order.
func (ui *ChatUI) pump() {
	for line := range ui.submit {
		if _, err := io.WriteString(ui.input, line+"\n"); err != nil {
			return
		}
	}
}

// Write appends rendered output to the messages view.
func (ui *ChatUI) Write(p []byte) (int, error) {
	ui.writeMessage(string(p))
	return len(p), nil
}

func (ui *ChatUI) writeMessage(s string) {
	ui.gui.Update(func(g *gocui.Gui) error {
		v, err := g.View(ui.msgView)
		if err != nil {
			return err
		}
		fmt.Fprint(v, s)
		return nil
	})
}

// Input is the stream of submitted lines. It ends with io.EOF after Ctrl-C
// or Ctrl-D.
func (ui *ChatUI) Input() io.Reader {
	return ui.lines
}

// Run shows the interface while runSession executes and returns its error.
// The interface closes when the session ends.
func (ui *ChatUI) Run(runSession func() error) error {
	if err := ui.keybindings(); err != nil {
		return err
	}

	go ui.pump()
	errc := make(chan error, 1)
	go func() {
		err := runSession()
		ui.lines.Close()
		ui.gui.Update(func(*gocui.Gui) error { return gocui.ErrQuit })
		errc <- err
	}()

	loopErr := ui.gui.MainLoop()
	if loopErr == gocui.ErrQuit {
		loopErr = nil
	}
	// the terminal loop may fail on its own; end the session too
	ui.input.Close()
	close(ui.submit)

	if err := <-errc; err != nil {
		return err
	}
	return loopErr
}

func (ui *ChatUI) Close() {
	ui.gui.Close()
}

// inputLine turns the input view buffer into one chat line. The view wraps
// long input over several rows.
func inputLine(buf string) string {
	return strings.ReplaceAll(strings.TrimRight(buf, "\n"), "\n", "")
}

func statusLine(cc config.ClientConfig) string {
	return fmt.Sprintf("Connected to %s | Name: %s | Ctrl-C: Quit", cc.Addr(), cc.DisplayName)
}

// tuiStyles keeps to the eight basic colors the view parser understands.
func tuiStyles() render.Styles {
	styles := render.ANSIStyles()
	styles.System = styles.System.Foreground(lipgloss.Color("6"))
	return styles
}

func runTUI(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	cc := cfg.ClientConfig()
	ui, err := NewChatUI(statusLine(cc))
	if err != nil {
		return err
	}
	defer ui.Close()

	display := render.New(ui, ui, cc.DisplayName, cc.Quiet,
		render.WithStyles(tuiStyles()),
		render.WithTimeFormat(cfg.Display.TimeFormat),
		render.WithBell(false))
	sess := newSession(cc, logger, display, ui.Input())

	return ui.Run(func() error { return sess.Run(ctx) })
}
