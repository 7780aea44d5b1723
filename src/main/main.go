package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"code-popup/src/clipboard"
	"code-popup/src/config"
	"code-popup/src/eventloop"
	"code-popup/src/gui"
	"code-popup/src/hotkey"
	"code-popup/src/llm"
	"code-popup/src/notification"
	"code-popup/src/popup"
	"code-popup/src/runtimeinit"
	"code-popup/src/singleinstance"
	"code-popup/src/tray"
	"code-popup/src/worker"
)

const (
	appTitle      = "Code Popup"
	pingTimeout   = 15 * time.Second
	shutdownGrace = 2 * time.Second
)

type mainOptions struct {
	apiKeyPath string
	envFile    string
	logFile    bool
}

func main() {
	opts := &mainOptions{}
	if err := newRootCmd(opts).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(opts *mainOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "code-popup",
		Short:         "Hotkey popup that turns a description into code via Gemini",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(*opts)
		},
	}

	cmd.Flags().StringVar(&opts.apiKeyPath, "api-key-path", "", "Path to API key file (highest precedence)")
	cmd.Flags().StringVar(&opts.envFile, "env-file", "", "Path to .env file (overrides the default lookup)")
	cmd.Flags().BoolVar(&opts.logFile, "log-file", false, "Write a debug log file regardless of ENABLE_FILE_LOGGING")
	return cmd
}

func run(opts mainOptions) error {
	enableDPIAwareness()

	cfg, err := runtimeinit.Bootstrap(runtimeinit.Options{
		LoadOptions: config.LoadOptions{
			APIKeyPathOverride: opts.apiKeyPath,
			EnvFileOverride:    opts.envFile,
		},
		ForceFileLogging: opts.logFile,
	})
	if err != nil {
		return fatal("Configuration error", err)
	}
	logMonitorConfiguration()

	// The lock is taken before any UI exists; a SHOW from a second launch is
	// forwarded once the loop is up.
	var current atomic.Pointer[eventloop.Loop]
	lock, err := singleinstance.Acquire(cfg.SingleInstancePort, func() {
		if l := current.Load(); l != nil {
			l.ShowPopup()
		}
	})
	if err != nil {
		return fatal("Already running", err)
	}
	defer lock.Close()

	if err := clipboard.Init(); err != nil {
		return fatal("Clipboard unavailable", fmt.Errorf("failed to initialize clipboard: %w", err))
	}

	client := llm.New(llm.Config{
		APIKey:   cfg.APIKey,
		Model:    cfg.Model,
		Endpoint: cfg.Endpoint,
		Timeout:  cfg.RequestTimeout,
	})
	go checkAPI(client)

	pool := worker.New(client)
	defer closePool(pool, shutdownGrace)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ui := gui.New(appTitle, tray.Icon)
	router := hotkey.NewRouter()

	var loop *eventloop.Loop
	ctrl := popup.New(popup.Options{
		Window:     ui,
		Binder:     router,
		Screen:     gui.Screen{},
		CloseCombo: cfg.CloseHotkey,
		OnClose:    func() { loop.HidePopup() },
	})
	loop = eventloop.New(eventloop.Options{
		Surface:    ui,
		Clipboard:  clipboard.System{},
		Popup:      ctrl,
		Dispatcher: pool,
		AutoClear:  cfg.AutoClear,
	})
	current.Store(loop)

	ui.SetOnCloseRequest(loop.HidePopup)
	ui.SetTray(tray.Menu(appTitle, cfg.ShowHotkey, cfg.ClearHotkey, tray.Actions{
		Show:  loop.ShowPopup,
		Clear: loop.Clear,
		Quit:  cancel,
	}), tray.Icon)

	if err := registerBindings(router, cfg, loop); err != nil {
		return fatal("Invalid hotkey", err)
	}
	if err := router.Start(); err != nil {
		return fatal("Hotkeys unavailable", fmt.Errorf("%w; on Linux the X server must allow input recording", err))
	}
	defer router.Close()

	log.Info().
		Str("show", cfg.ShowHotkey).
		Str("submit", cfg.SubmitHotkey).
		Str("clear", cfg.ClearHotkey).
		Str("close", cfg.CloseHotkey).
		Msg("Code Popup ready")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := loop.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		ui.Quit()
		return nil
	})

	ui.Run()
	cancel()

	// A UI call queued just as fyne stopped never completes; don't hang on it.
	stopped := make(chan error, 1)
	go func() { stopped <- g.Wait() }()
	select {
	case err := <-stopped:
		if err != nil {
			log.Error().Err(err).Msg("event loop stopped")
			return err
		}
	case <-time.After(shutdownGrace):
		log.Warn().Dur("grace", shutdownGrace).Msg("event loop did not stop in time")
	}
	log.Info().Msg("shutdown complete")
	return nil
}

type closer interface {
	Close(ctx context.Context) error
}

// closePool cancels outstanding requests. A delivery can be stuck posting into
// an event loop that never stopped, so the wait is bounded.
func closePool(p closer, grace time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := p.Close(ctx); err != nil {
		log.Warn().Err(err).Msg("abandoning in-flight requests")
	}
}

// Registrar is the subset of hotkey.Router used for the permanent bindings.
type Registrar interface {
	Register(combo string, handler func()) (hotkey.Handle, error)
}

type loopActions interface {
	ShowPopup()
	Submit()
	Clear()
}

// registerBindings wires the permanent hotkeys. Each handler only posts into
// the event loop.
func registerBindings(r Registrar, cfg *config.Config, loop loopActions) error {
	bindings := []struct {
		name    string
		combo   string
		handler func()
	}{
		{"show", cfg.ShowHotkey, loop.ShowPopup},
		{"submit", cfg.SubmitHotkey, loop.Submit},
		{"clear", cfg.ClearHotkey, loop.Clear},
	}
	for _, b := range bindings {
		if _, err := r.Register(b.combo, b.handler); err != nil {
			return fmt.Errorf("%s hotkey: %w", b.name, err)
		}
	}
	return nil
}

type pinger interface {
	Ping(ctx context.Context) error
}

func checkAPI(p pinger) {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := p.Ping(ctx); err != nil {
		log.Warn().Err(err).Msg("Gemini check failed; requests will show an error until this is fixed")
		return
	}
	log.Info().Msg("Gemini check succeeded")
}

func fatal(title string, err error) error {
	notification.ShowBlockingError(title, err.Error())
	return err
}
