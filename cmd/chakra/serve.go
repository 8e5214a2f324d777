package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ayusman/chakra/internal/app"
	"github.com/ayusman/chakra/internal/config"
	"github.com/ayusman/chakra/internal/logger"
	"github.com/ayusman/chakra/internal/server"
	"github.com/ayusman/chakra/internal/tray"
)

const shutdownTimeout = 5 * time.Second

type serveFlags struct {
	addr      string
	staticDir string
}

func (f *serveFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.addr, "addr", "", "override the listen address")
	cmd.Flags().StringVar(&f.staticDir, "static", "", "serve a web UI from this directory")
}

func newServeCmd(root *rootFlags) *cobra.Command {
	flags := &serveFlags{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the engine and its HTTP/WebSocket API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, root, flags, nil)
		},
	}
	flags.register(cmd)
	return cmd
}

func newTrayCmd(root *rootFlags) *cobra.Command {
	flags := &serveFlags{}
	cmd := &cobra.Command{
		Use:   "tray",
		Short: "Run the engine with a system tray toggle",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runTray(ctx, root, flags)
		},
	}
	flags.register(cmd)
	return cmd
}

// serve runs the app and HTTP server until ctx is done. ready, when not
// nil, receives the app once it is running.
func serve(ctx context.Context, root *rootFlags, flags *serveFlags, ready func(*app.App, *config.Config)) error {
	log := logger.Named("serve")

	cfg, err := loadConfig(ctx, root)
	if err != nil {
		return err
	}
	if flags.addr != "" {
		cfg.Addr = flags.addr
	}

	a, st, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := a.Start(ctx); err != nil {
		return fmt.Errorf("failed to start pipeline: %w", err)
	}
	defer a.Stop()

	srv := server.New(server.Config{
		App:       a,
		StaticDir: flags.staticDir,
		Logger:    logger.Get(),
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(cfg.Addr)
	}()

	if ready != nil {
		ready(a, cfg)
	}

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}

// runTray runs the tray on the calling goroutine, which systray requires,
// and the server in the background.
func runTray(ctx context.Context, root *rootFlags, flags *serveFlags) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	t := tray.New(true)
	t.OnQuit(cancel)

	errCh := make(chan error, 1)
	go func() {
		errCh <- serve(ctx, root, flags, func(a *app.App, cfg *config.Config) {
			t.OnToggle(a.SetEnabled)
			t.OnSettings(func() { openBrowser(settingsURL(cfg.Addr)) })
			a.Engine().Subscribe(t)
		})
		// quit the tray when the server stops on its own
		t.Quit()
	}()

	go func() {
		<-ctx.Done()
		t.Quit()
	}()

	t.Run()
	cancel()
	return <-errCh
}

func settingsURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "127.0.0.1" + addr
	}
	return "http://" + addr + "/"
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		logger.Named("tray").Warn(context.Background(), "failed to open browser", logger.Error(err))
	}
}
