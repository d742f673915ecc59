// main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tcpchat/internal/config"
	"tcpchat/internal/logging"
	"tcpchat/internal/render"
	"tcpchat/internal/session"
)

// options collects the command line flags.
type options struct {
	ip         string
	domain     string
	port       int
	quiet      bool
	name       string
	configPath string
	logFile    string
	tui        bool
	noColor    bool
	verbose    bool
}

// shutdownSignals end the session with a logout in both display modes.
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// reportedError marks an error the session has already shown to the user.
type reportedError struct{ err error }

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

func main() {
	if err := execute(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// execute runs the root command with the given arguments and streams.
func execute(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) error {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(in)
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	err := cmd.ExecuteContext(ctx)
	var shown *reportedError
	if err != nil && !errors.As(err, &shown) {
		fmt.Fprintf(errOut, "Error: %v\n", err)
	}
	return err
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "tcpchat",
		Short: "Terminal chat client",
		Long: `tcpchat connects to a chat server over TCP, prints incoming messages and
sends every line typed on standard input.

Mentions of your name ("@name") are highlighted unless --quiet is given.
End the session with Ctrl-D (end of input) or Ctrl-C.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.ip, "ip", "", "server IPv4/IPv6 address")
	flags.StringVar(&opts.domain, "domain", "", "server host name")
	flags.IntVar(&opts.port, "port", 8080, "server port")
	flags.BoolVar(&opts.quiet, "quiet", false, "do not highlight mentions of your name")
	flags.StringVar(&opts.name, "name", "", "display name (default: OS username)")
	flags.StringVar(&opts.configPath, "config", config.DefaultPath(), "config file")
	flags.StringVar(&opts.logFile, "log-file", "", "write the debug log to this file")
	flags.BoolVar(&opts.tui, "tui", false, "full-screen interface")
	flags.BoolVar(&opts.noColor, "no-color", false, "disable colors")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging on stderr")
	cmd.MarkFlagsMutuallyExclusive("ip", "domain")

	return cmd
}

func run(cmd *cobra.Command, opts *options) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging, opts.verbose)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	cc := cfg.ClientConfig()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "[SERVER] information\naddress: %s\nport: %d\n", cc.Address, cc.Port)
	logger.Debug("starting", zap.String("server", cc.Addr()), zap.String("name", cc.DisplayName), zap.Bool("quiet", cc.Quiet))

	if cfg.Display.TUI {
		err = runTUI(cmd.Context(), cfg, logger)
	} else {
		display := render.New(out, cmd.ErrOrStderr(), cc.DisplayName, cc.Quiet, displayOptions(cfg)...)
		err = newSession(cc, logger, display, cmd.InOrStdin()).Run(cmd.Context())
	}
	if err != nil {
		return &reportedError{err: err}
	}
	return nil
}

// loadConfig layers defaults, the config file, the environment and the
// command line flags, then fills in the display name.
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("ip") {
		if net.ParseIP(opts.ip) == nil {
			return nil, fmt.Errorf("error parsing ip %q", opts.ip)
		}
		cfg.Server.Address = opts.ip
	}
	if flags.Changed("domain") {
		addr, err := resolveDomain(cmd.Context(), opts.domain)
		if err != nil {
			return nil, err
		}
		cfg.Server.Address = addr
	}
	if flags.Changed("port") {
		cfg.Server.Port = opts.port
	}
	if flags.Changed("quiet") {
		cfg.User.Quiet = opts.quiet
	}
	if flags.Changed("name") {
		cfg.User.DisplayName = opts.name
	}
	if flags.Changed("tui") {
		cfg.Display.TUI = opts.tui
	}
	if flags.Changed("no-color") {
		cfg.Display.NoColor = opts.noColor
	}
	if opts.logFile != "" {
		cfg.Logging.DebugMode = true
		cfg.Logging.File = opts.logFile
	}

	// the full-screen display owns the terminal, so logs must go to a file
	if cfg.Display.TUI && cfg.Logging.File == "" && (opts.verbose || cfg.Logging.Enabled()) {
		return nil, fmt.Errorf("logging with --tui needs --log-file")
	}

	if cfg.User.DisplayName == "" {
		name, err := config.ResolveUsername()
		if err != nil {
			return nil, err
		}
		cfg.User.DisplayName = name
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newSession(cc config.ClientConfig, logger *zap.Logger, display *render.Renderer, input io.Reader) *session.Session {
	return session.New(cc,
		session.WithLogger(logger),
		session.WithDisplay(display),
		session.WithInput(input),
		session.WithSignals(shutdownSignals...))
}

// resolveDomain returns the first address the host name resolves to.
func resolveDomain(ctx context.Context, host string) (string, error) {
	addrs, err := net.DefaultResolver.LookupHost(ctx, host)
	if err != nil || len(addrs) == 0 {
		return "", fmt.Errorf("could not resolve hostname %q: %v", host, err)
	}
	return addrs[0], nil
}

func displayOptions(cfg *config.Config) []render.Option {
	opts := []render.Option{
		render.WithTimeFormat(cfg.Display.TimeFormat),
		render.WithBell(cfg.User.Bell),
	}
	if cfg.Display.NoColor {
		opts = append(opts, render.WithStyles(render.PlainStyles()))
	}
	return opts
}
