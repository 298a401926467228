package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/1broseidon/zonetile/internal/config"
	"github.com/1broseidon/zonetile/internal/daemon"
	"github.com/1broseidon/zonetile/internal/hotkeys"
	"github.com/1broseidon/zonetile/internal/ipc"
	"github.com/1broseidon/zonetile/internal/ledger"
	"github.com/1broseidon/zonetile/internal/persist"
	"github.com/1broseidon/zonetile/internal/runtimepath"
	"github.com/1broseidon/zonetile/internal/spatial"
	"github.com/1broseidon/zonetile/internal/tui"
	"github.com/1broseidon/zonetile/internal/x11"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "daemon":
		if len(os.Args) > 2 && (os.Args[2] == "help" || os.Args[2] == "-h" || os.Args[2] == "--help") {
			fmt.Fprintln(os.Stdout, "Usage: zonetile daemon")
			os.Exit(0)
		}
		if len(os.Args) > 2 {
			fmt.Fprintln(os.Stderr, "daemon takes no arguments")
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Usage: zonetile daemon")
			os.Exit(2)
		}
		runDaemon()
	case "ping":
		os.Exit(runPing(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "migrate":
		os.Exit(runMigrate(os.Args[2:]))
	case "state":
		os.Exit(runState(os.Args[2:]))
	case "layout":
		os.Exit(runLayout(os.Args[2:]))
	case "cycle":
		os.Exit(runCycle(os.Args[2:]))
	case "resources":
		os.Exit(runResources(os.Args[2:]))
	case "picker":
		os.Exit(runPicker(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: zonetile <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Start the zonetile daemon (foreground)")
	fmt.Fprintln(w, "  ping                Check daemon responsiveness")
	fmt.Fprintln(w, "  status              Show daemon status summary")
	fmt.Fprintln(w, "  state               Show per-space zone state")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  layout list         List available layouts")
	fmt.Fprintln(w, "  layout show         Render a layout's zones")
	fmt.Fprintln(w, "  layout apply        Assign a layout to a space")
	fmt.Fprintln(w, "  layout create       Create a user layout interactively")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  cycle               Cycle the active space's zone selection")
	fmt.Fprintln(w, "  resources           Show the daemon's resource leak report")
	fmt.Fprintln(w, "  migrate             Migrate legacy workspace state (daemon stopped)")
	fmt.Fprintln(w, "  picker              Open the interactive layout picker")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'zonetile <command> --help' for command-specific options.")
}

func runPing(args []string) int {
	fs := flag.NewFlagSet("ping", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: zonetile ping")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Check whether the daemon is responding over IPC.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "ping takes no arguments")
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	if err := client.Ping(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println("daemon is running")
	return 0
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: zonetile status")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show a daemon status summary via IPC.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	state, err := client.GetState()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	report, err := client.GetResourceReport()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	fmt.Printf("daemon_running: true\n")
	fmt.Printf("layouts:        %d\n", len(state.Layouts))
	fmt.Printf("spaces:         %d\n", len(state.Spaces))
	fmt.Printf("active_space:   %s\n", state.ActiveSpace)
	fmt.Printf("last_selected:  %s\n", state.LastSelected)
	fmt.Printf("handles:        %d\n", report.Outstanding)
	if len(report.Report.LeakedByCategory) > 0 {
		fmt.Printf("leaks:          %v\n", report.Report.LeakedByCategory)
	}
	return 0
}

func runMigrate(args []string) int {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: zonetile migrate [--connector NAME]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Migrate legacy per-workspace layout state onto per-space keys.")
		fmt.Fprintln(os.Stderr, "Runs against the state file directly; stop the daemon first.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	connector := fs.String("connector", "", "Target connector (default: the primary monitor)")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "migrate takes no arguments")
		fs.Usage()
		return 2
	}

	// The daemon migrates on startup and owns the state file while it
	// runs; refuse to race it.
	if err := ipc.NewClient().Ping(); err == nil {
		fmt.Fprintln(os.Stderr, "daemon is running; it migrates legacy state on startup")
		return 1
	}

	target := *connector
	if target == "" {
		conn, err := x11.NewConnection()
		if err != nil {
			fmt.Fprintf(os.Stderr, "cannot resolve primary connector (pass --connector): %v\n", err)
			return 1
		}
		defer conn.Close()
		target, err = conn.PrimaryConnector()
		if err != nil {
			fmt.Fprintf(os.Stderr, "cannot resolve primary connector (pass --connector): %v\n", err)
			return 1
		}
	}

	statePath, err := runtimepath.StatePath()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	kv := persist.NewFileKV(statePath)

	legacy := spatial.LoadLegacy(kv)
	if len(legacy) == 0 {
		fmt.Println("no legacy state found")
		return 0
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	store := spatial.NewStore(kv, logger)
	n := store.MigrateLegacy(legacy, target)
	if n == 0 {
		fmt.Println("nothing migrated (per-space state already present)")
		return 0
	}
	fmt.Printf("migrated %d workspace entries onto %s\n", n, target)
	return 0
}

func runState(args []string) int {
	fs := flag.NewFlagSet("state", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: zonetile state")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show the layout assignment of every known space.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "state takes no arguments")
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	state, err := client.GetState()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	fmt.Printf("active_space:  %s\n", state.ActiveSpace)
	fmt.Printf("last_selected: %s\n", state.LastSelected)
	for _, key := range sortedSpaceKeys(state) {
		st := state.Spaces[key]
		fmt.Printf("- %s: %s zone %d\n", key, st.LayoutID, st.ZoneIndex)
	}
	return 0
}

func runCycle(args []string) int {
	fs := flag.NewFlagSet("cycle", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: zonetile cycle [--reverse] [--space <connector:workspace>]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Advance the zone selection of a space (default: the active space).")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	reverse := fs.Bool("reverse", false, "Cycle backwards")
	space := fs.String("space", "", "Target space key")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "cycle takes no arguments")
		fs.Usage()
		return 2
	}

	direction := 1
	if *reverse {
		direction = -1
	}

	client := ipc.NewClient()
	result, err := client.Trigger(ipc.TriggerActionPayload{
		Action:    ipc.ActionCycleZone,
		Space:     *space,
		Direction: direction,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("%s: zone %d (%s)\n", result.Space, result.ZoneIndex, result.ZoneName)
	return 0
}

func runResources(args []string) int {
	fs := flag.NewFlagSet("resources", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: zonetile resources [--reset]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show the daemon's resource leak report.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	reset := fs.Bool("reset", false, "Clear resource tracking after reporting")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "resources takes no arguments")
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	report, err := client.GetResourceReport()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	fmt.Printf("outstanding: %d\n", report.Outstanding)
	if len(report.Report.LeakedByCategory) == 0 {
		fmt.Println("no leaks detected")
	} else {
		for cat, n := range report.Report.LeakedByCategory {
			fmt.Printf("leaked %s: %d\n", cat, n)
		}
		for _, owner := range report.Report.ComponentsWithLeaks {
			fmt.Printf("component: %s\n", owner)
		}
	}

	if *reset {
		if err := client.ResetResourceTracking(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println("resource tracking reset")
	}
	return 0
}

func runPicker(args []string) int {
	fs := flag.NewFlagSet("picker", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: zonetile picker")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Open the interactive layout picker (requires a TTY and a running daemon).")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "picker takes no arguments")
		fs.Usage()
		return 2
	}

	if err := tui.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runDaemon() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseSlogLevel(cfg.LogLevel),
	}))
	logger.Info("configuration loaded",
		"cycle_hotkey", cfg.CycleZoneHotkey,
		"default_layout", cfg.DefaultLayout)

	// Connect to display server
	conn, err := x11.NewConnection()
	if err != nil {
		log.Fatalf("Failed to connect to display: %v", err)
	}
	defer conn.Close()

	statePath, err := runtimepath.StatePath()
	if err != nil {
		log.Fatalf("Failed to resolve state path: %v", err)
	}
	kv := persist.NewFileKV(statePath)

	ldg := ledger.New(logger)

	engine, err := daemon.New(cfg, kv, conn, ldg, logger)
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}
	if err := engine.Start(); err != nil {
		log.Fatalf("Failed to start engine: %v", err)
	}

	// Setup hotkey handler
	hotkeyHandler := hotkeys.NewHandler(conn.XUtil, conn.Root, ldg)
	if cfg.CycleZoneHotkey != "" {
		if err := hotkeyHandler.RegisterFunc(cfg.CycleZoneHotkey, func() {
			if _, _, err := engine.CycleActive(1); err != nil {
				logger.Warn("cycle zone failed", "error", err)
			}
		}); err != nil {
			log.Fatalf("Failed to register cycle hotkey: %v", err)
		}
	}
	if cfg.CycleZoneReverseHotkey != "" {
		if err := hotkeyHandler.RegisterFunc(cfg.CycleZoneReverseHotkey, func() {
			if _, _, err := engine.CycleActive(-1); err != nil {
				logger.Warn("cycle zone failed", "error", err)
			}
		}); err != nil {
			logger.Warn("failed to register reverse cycle hotkey", "error", err)
		}
	}
	engine.RegisterTeardown(hotkeyHandler.Teardown)

	// Start IPC server
	ipcServer, err := ipc.NewServer(engine, ldg)
	if err != nil {
		log.Fatalf("Failed to create IPC server: %v", err)
	}
	if err := ipcServer.Start(); err != nil {
		log.Fatalf("Failed to start IPC server: %v", err)
	}
	engine.RegisterTeardown(ipcServer.Stop)

	// Setup signal handlers
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		for sig := range sigCh {
			switch sig {
			case syscall.SIGHUP:
				logger.Info("received SIGHUP, reloading catalog")
				if _, err := engine.Trigger(ipc.TriggerActionPayload{
					Action: ipc.ActionReloadCatalog,
				}); err != nil {
					logger.Warn("catalog reload failed", "error", err)
				}
			case os.Interrupt, syscall.SIGTERM:
				logger.Info("shutting down zonetile daemon")
				engine.Shutdown()
				conn.StopEventLoop()
				return
			}
		}
	}()

	logger.Info("zonetile daemon started")
	conn.EventLoop()
}

func parseSlogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
