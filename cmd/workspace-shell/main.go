// Command workspace-shell signs in to the unified workspace and opens
// child applications with single sign-on.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/upb/unified-workspace/internal/session"
	"github.com/upb/unified-workspace/internal/sso"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const usage = `usage: workspace-shell <command> [args]

commands:
  status        show the signed-in account
  login         sign in with a device code
  logout        sign out and forget cached tokens
  token         print a fresh access token
  open <url>    open a child application with single sign-on
  redeem <id>   print and consume the token of a handoff
`

var errUsage = errors.New("invalid usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "workspace-shell: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	cfg, err := session.LoadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(os.Getenv("WORKSPACE_LOG_LEVEL"))
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	store, closer, err := sso.OpenStore(ctx, cfg.Handoff)
	if err != nil {
		return err
	}
	defer closer.Close() //nolint:errcheck

	provider := session.NewEntraProvider(cfg,
		session.NewFileTokenCache(cfg.TokenCachePath),
		session.WriterPrompter{Out: os.Stdout},
		logger.Named("entra"),
	)
	controller := session.NewController(provider, session.WithLogger(logger.Named("session")))
	if err := controller.Init(ctx); err != nil {
		return err
	}

	sh := &shell{
		session:   controller,
		navigator: sso.NewNavigator(controller, store, sso.BrowserOpener{}, cfg.Handoff.TTL, logger.Named("sso")),
		store:     store,
		out:       os.Stdout,
	}
	return sh.exec(ctx, args)
}

// newLogger writes warnings and above to stderr so command output stays
// clean on stdout.
func newLogger(level string) (*zap.Logger, error) {
	lvl := zapcore.WarnLevel
	if level != "" {
		var err error
		if lvl, err = zapcore.ParseLevel(level); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableStacktrace = true
	return cfg.Build()
}

type sessionController interface {
	State() session.State
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	AccessToken(ctx context.Context) (string, bool)
}

type shell struct {
	session   sessionController
	navigator *sso.Navigator
	store     sso.Store
	out       io.Writer
}

func (s *shell) exec(ctx context.Context, args []string) error {
	switch args[0] {
	case "status":
		return s.status()
	case "login":
		if err := s.session.Login(ctx); err != nil {
			return err
		}
		return s.status()
	case "logout":
		return s.session.Logout(ctx)
	case "token":
		token, ok := s.session.AccessToken(ctx)
		if !ok {
			return errors.New("no access token available, run login first")
		}
		_, err := fmt.Fprintln(s.out, token)
		return err
	case "open":
		if len(args) != 2 {
			return errUsage
		}
		return s.navigator.NavigateWithSSO(ctx, args[1])
	case "redeem":
		if len(args) != 2 {
			return errUsage
		}
		token, err := sso.Redeem(ctx, s.store, args[1])
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(s.out, token)
		return err
	default:
		return errUsage
	}
}

func (s *shell) status() error {
	st := s.session.State()
	if !st.IsAuthenticated() {
		_, err := fmt.Fprintln(s.out, "not signed in")
		return err
	}
	_, err := fmt.Fprintf(s.out, "signed in as %s (%s)\n", st.Account.Username, st.Account.TenantID)
	return err
}
