package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/claude/liftlog/internal/autosync"
	"github.com/claude/liftlog/internal/config"
	"github.com/claude/liftlog/internal/ingest/alpha"
	"github.com/claude/liftlog/internal/localapi"
	"github.com/claude/liftlog/internal/mcp"
	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/netstate"
	"github.com/claude/liftlog/internal/resttimer"
	"github.com/claude/liftlog/internal/session"
	"github.com/claude/liftlog/internal/store"
	"github.com/claude/liftlog/internal/upload"
	"github.com/jonboulle/clockwork"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "liftlog.yaml", "path to config file")
	mcpMode := flag.Bool("mcp", false, "serve the MCP protocol on stdin/stdout instead of the local HTTP API")
	offline := flag.Bool("offline", false, "never contact the sync server")
	importAlpha := flag.String("import-alpha", "", "import exercise history from an Alpha Progression CSV export and exit")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("liftlog", Version)
		return
	}

	cfg, err := config.LoadClient(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// stdout carries the MCP protocol in -mcp mode
	var out io.Writer = os.Stdout
	if *mcpMode {
		out = os.Stderr
	}
	log := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))
	log.Info("LiftLog starting", "version", Version)

	st, err := store.Open(cfg.Client.StoreDir, log)
	if err != nil {
		log.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *importAlpha != "" {
		if err := runImport(ctx, st, *importAlpha, log); err != nil {
			log.Error("import failed", "error", err)
			os.Exit(1)
		}
		return
	}

	// Stored settings win over the config default.
	settings := store.GetOr(ctx, st, store.KeySettings, models.Settings{RestSeconds: cfg.Client.RestSeconds})
	timer := resttimer.New(clockwork.NewRealClock(), time.Duration(settings.RestSeconds)*time.Second,
		resttimer.NewBellAlerter(os.Stderr, log), log)
	defer timer.Close()

	tracker := session.NewTracker(st, log)
	editor := session.NewEditor(tracker)
	tracker.OnSetCompleted(func(exerciseID, setID string) {
		if err := timer.Start(exerciseID, setID, 0); err != nil {
			log.Warn("starting rest timer failed", "error", err)
		}
	})

	var observer autosync.Observer
	var prober *netstate.Prober
	if *offline || cfg.Client.ServerURL == "" {
		log.Info("sync disabled, running offline")
		observer = netstate.NewStatic(models.NetState{})
	} else {
		prober = netstate.NewProber(clockwork.NewRealClock(), cfg.Client.ServerURL, cfg.Client.ProbeInterval, log)
		observer = prober
	}

	uploader := upload.New(upload.NewClient(cfg.Client.ServerURL, cfg.Client.APIKey), tracker, log)
	trigger := autosync.New(observer, uploader, log)
	trigger.CheckAndSync(ctx)
	trigger.StartMonitoring(ctx)
	defer trigger.Wait()
	defer trigger.StopMonitoring()

	// Polling starts once the trigger holds its baseline and subscription, so
	// the first observed change reaches it.
	if prober != nil {
		prober.Start(ctx)
		defer prober.Stop()
	}

	if *mcpMode {
		var history mcp.History
		if cfg.Client.ServerURL != "" && !*offline {
			history = mcp.NewHTTPClient(cfg.Client.ServerURL, cfg.Client.APIKey)
		}
		mcpSrv := mcp.New(tracker, editor, timer, history, Version, log)
		log.Info("serving MCP on stdio")
		if err := server.ServeStdio(mcpSrv); err != nil {
			log.Error("mcp server error", "error", err)
		}
		return
	}

	api := localapi.New(tracker, editor, timer, trigger, st, log)
	httpSrv := &http.Server{
		Addr:              cfg.Client.Listen,
		Handler:           api,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("local API listening", "addr", cfg.Client.Listen)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errc:
		log.Error("server error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("LiftLog stopped")
}

func runImport(ctx context.Context, st *store.Store, path string, log *slog.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening export: %w", err)
	}
	defer f.Close()

	res, err := alpha.NewImporter(st, log).Import(ctx, f)
	if err != nil {
		return err
	}
	fmt.Println()
	fmt.Println("=== Import Summary ===")
	fmt.Printf("  Sessions:   %d\n", res.Sessions)
	fmt.Printf("  Exercises:  %d\n", res.Exercises)
	fmt.Printf("  Sets:       %d\n", res.Sets)
	fmt.Println()
	return nil
}
