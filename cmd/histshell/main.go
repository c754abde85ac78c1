// Package main is the entry point for the histshell daemon: notification
// server, popups, tray menu and the control interface.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
	godbus "github.com/godbus/dbus/v5"

	"github.com/jmylchreest/histshell/internal/audio"
	"github.com/jmylchreest/histshell/internal/config"
	"github.com/jmylchreest/histshell/internal/daemon"
	"github.com/jmylchreest/histshell/internal/dbus"
	"github.com/jmylchreest/histshell/internal/dbusmenu"
	"github.com/jmylchreest/histshell/internal/display"
	"github.com/jmylchreest/histshell/internal/eventloop"
	"github.com/jmylchreest/histshell/internal/notify"
	"github.com/jmylchreest/histshell/internal/theme"
	"github.com/jmylchreest/histshell/internal/toast"
)

const appID = "io.github.jmylchreest.histshell"

// Build-time variables
var version = "dev"

func main() {
	debug := flag.Bool("debug", false, "Enable debug logging (also HISTSHELL_DEBUG=1)")
	headless := flag.Bool("headless", false, "Run without popups or tray menu, keeping history only")
	configPath := flag.String("config", "", "Path to the config file")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("histshell version", version)
		return
	}

	level := slog.LevelInfo
	if *debug || os.Getenv("HISTSHELL_DEBUG") == "1" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	path := *configPath
	if path == "" {
		path = config.Path()
	}
	cfg, err := config.Load(path)
	if err != nil {
		logger.Error("failed to load config", "path", path, "error", err)
		os.Exit(1)
	}

	conn, err := godbus.ConnectSessionBus()
	if err != nil {
		logger.Error("failed to connect to session bus", "error", err)
		os.Exit(1)
	}
	defer func() { _ = conn.Close() }()

	if *headless {
		os.Exit(runHeadless(conn, cfg, path, logger))
	}
	os.Exit(runGTK(conn, cfg, path, logger))
}

// core is the part of the daemon shared by both modes. It must be built and
// torn down on the event goroutine.
type core struct {
	server  *dbus.NotificationServer
	control *dbus.ControlServer
	manager *notify.Manager
	shell   *daemon.Shell
	audio   *audio.Manager
	watcher *config.Watcher
	logger  *slog.Logger
}

func startCore(conn *godbus.Conn, cfg *config.Config, path string, d eventloop.Dispatcher, presenter notify.Presenter, logger *slog.Logger) (*core, error) {
	c := &core{logger: logger}

	c.server = dbus.NewNotificationServer(logger)
	c.server.SetDispatcher(d)
	info := dbus.DefaultServerInfo()
	info.Version = version
	c.server.SetServerInfo(info)

	c.audio = audio.NewManager(cfg, nil, logger)
	c.server.SetAcceptedHook(c.audio.OnAccepted)

	c.manager = notify.NewManager(c.server, presenter, eventloop.NewTimerScheduler(d), cfg.Notifications, logger)
	c.shell = daemon.NewShell(d, c.manager, cfg, logger)
	c.shell.SetNotifier(daemon.NewInternalNotifier(c.server.NotifyInternal, logger))
	c.shell.OnConfig(c.audio.UpdateConfig)

	if err := c.server.Start(conn); err != nil {
		c.stop()
		return nil, err
	}
	c.control = dbus.NewControlServer(c.shell, logger)
	if err := c.control.Start(conn); err != nil {
		c.stop()
		return nil, err
	}

	w, err := config.NewWatcher(path, logger)
	if err != nil {
		logger.Warn("config hot reload disabled", "error", err)
		return c, nil
	}
	w.OnChange(c.shell.ApplyConfig)
	w.OnError(c.shell.ReportConfigError)
	if err := w.Start(); err != nil {
		logger.Warn("config hot reload disabled", "error", err)
		_ = w.Stop()
		return c, nil
	}
	c.watcher = w
	return c, nil
}

func (c *core) stop() {
	if c.watcher != nil {
		_ = c.watcher.Stop()
	}
	if c.control != nil {
		c.control.Stop()
	}
	if c.manager != nil {
		c.manager.Cleanup()
	}
	if err := c.server.Stop(); err != nil {
		c.logger.Debug("notification server stop", "error", err)
	}
	c.audio.Close()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// runHeadless keeps history and serves the control interface on a plain
// event goroutine, without GTK.
func runHeadless(conn *godbus.Conn, cfg *config.Config, path string, logger *slog.Logger) int {
	logger.Info("starting histshell (headless)", "version", version)

	ctx, cancel := signalContext()
	defer cancel()

	loop := eventloop.NewLoop(256, logger)
	loop.Start(context.Background())
	defer loop.Stop()

	var (
		c   *core
		err error
	)
	if ierr := eventloop.Invoke(ctx, loop, func() {
		c, err = startCore(conn, cfg, path, loop, nil, logger)
	}); ierr != nil {
		return 1
	}
	if err != nil {
		logger.Error("failed to start", "error", err)
		return 1
	}

	logger.Info("histshell ready", "interface", dbus.ControlInterface)
	<-ctx.Done()
	logger.Info("shutting down")

	_ = eventloop.Invoke(context.Background(), loop, c.stop)
	return 0
}

// runGTK runs the full shell on the GTK main loop.
func runGTK(conn *godbus.Conn, cfg *config.Config, path string, logger *slog.Logger) int {
	logger.Info("starting histshell", "version", version)

	app := adw.NewApplication(appID, 0)

	var (
		c      *core
		themes *theme.Loader
		stack  *display.ToastStack
	)

	ctx, cancel := signalContext()
	defer cancel()
	go func() {
		<-ctx.Done()
		glib.IdleAdd(app.Quit)
	}()

	app.ConnectActivate(func() {
		if c != nil {
			return
		}

		applyColorScheme(cfg.Theme.ColorScheme)

		themes = theme.NewLoader(display.MainThread, logger)
		_ = themes.Load(cfg.Theme.Name)
		themes.Apply()

		presenter := display.NewPresenter(&app.Application, cfg, display.MainThread, logger)

		var err error
		c, err = startCore(conn, cfg, path, display.MainThread, presenter, logger)
		if err != nil {
			logger.Error("failed to start", "error", err)
			app.Quit()
			return
		}
		presenter.SetHandler(c.manager)

		decoder := dbusmenu.NewDecoder(logger)
		decoder.MaxDepth = cfg.Menu.MaxDepth
		decoder.MaxNodes = cfg.Menu.MaxNodes
		client := dbusmenu.NewClient(dbusmenu.NewConnCaller(conn), decoder, logger)
		loader := dbusmenu.NewLoader(client, display.MainThread, cfg.Menu.FetchTimeout.Duration(), logger)
		menu := display.NewTrayMenu(&app.Application, loader, cfg.Menu, logger)

		toasts := toast.NewManager(eventloop.NewTimerScheduler(display.MainThread), logger)
		stack = display.NewToastStack(&app.Application, toasts, display.MainThread, logger)
		menu.SetToasts(toasts)

		c.shell.SetMenu(menu)
		c.shell.SetTheme(themes)
		c.shell.OnConfig(presenter.UpdateConfig)
		c.shell.OnConfig(func(cfg *config.Config) { applyColorScheme(cfg.Theme.ColorScheme) })

		// GTK applications quit when their last window closes.
		keepAlive := gtk.NewWindow()
		keepAlive.SetApplication(&app.Application)
		keepAlive.SetDefaultSize(1, 1)
		keepAlive.SetDecorated(false)
		keepAlive.SetVisible(false)

		logger.Info("histshell ready", "interface", dbus.ControlInterface)
	})

	app.ConnectShutdown(func() {
		logger.Info("shutting down")
		if stack != nil {
			stack.Close()
		}
		if themes != nil {
			themes.Close()
		}
		if c != nil {
			c.stop()
		}
	})

	if status := app.Run(nil); status != 0 {
		logger.Error("application exited with error", "status", status)
		return status
	}
	return 0
}

func applyColorScheme(scheme string) {
	sm := adw.StyleManagerGetDefault()
	switch config.ColorScheme(scheme) {
	case config.ColorSchemeLight:
		sm.SetColorScheme(adw.ColorSchemeForceLight)
	case config.ColorSchemeDark:
		sm.SetColorScheme(adw.ColorSchemeForceDark)
	default:
		sm.SetColorScheme(adw.ColorSchemeDefault)
	}
}
