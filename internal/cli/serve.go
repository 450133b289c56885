package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/avrelio/warden/internal/adapter"
	"github.com/avrelio/warden/internal/approval"
	"github.com/avrelio/warden/internal/audit"
	"github.com/avrelio/warden/internal/boundary"
	"github.com/avrelio/warden/internal/config"
	"github.com/avrelio/warden/internal/engine"
	"github.com/avrelio/warden/internal/model"
	"github.com/avrelio/warden/internal/notify"
	"github.com/avrelio/warden/internal/server"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the governance daemon",
	Long: "Runs the decision engine with its HTTP control surface.\n" +
		"Configuration comes from WARDEN_* environment variables; the boundary\n" +
		"config file hot-reloads on change.",
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	auditLog, err := audit.Open(cfg.AuditLogPath())
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer auditLog.Close()

	store, err := approval.NewStore(cfg.ApprovalDir())
	if err != nil {
		return fmt.Errorf("failed to open approval store: %w", err)
	}
	queue, err := approval.NewQueue(store, cfg.MaxPending)
	if err != nil {
		return fmt.Errorf("failed to load approval queue: %w", err)
	}

	if cfg.BoundaryConfigPath == "" {
		cfg.BoundaryConfigPath = boundary.DefaultPath()
	}
	boundaryCfg, configHash, err := boundary.LoadConfigWithHash(cfg.BoundaryConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load boundary config: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	emitter, closeEmitters, err := buildEmitter(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeEmitters()

	eng, err := engine.New(engine.Options{
		AutonomyLevel:  cfg.AutonomyLevel,
		BoundaryConfig: boundaryCfg,
		ConfigHash:     configHash,
		Log:            auditLog,
		Queue:          queue,
		Emitter:        emitter,
		ApprovalExpiry: cfg.ApprovalExpiry,
		RetentionDays:  cfg.AuditRetentionDays,
	})
	if err != nil {
		return err
	}
	registerAdapters(eng)

	srv := server.New(eng, server.Config{
		Listen:             cfg.Listen,
		BoundaryConfigPath: cfg.BoundaryConfigPath,
	})

	// Hot-reload watcher for the boundary config file
	reloader, err := server.NewReloader(srv, []string{cfg.BoundaryConfigPath})
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: hot-reload disabled: %v\n", err)
	}
	if reloader != nil {
		go reloader.Run(ctx)
	}

	go eng.Run(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down warden...")
		cancel()
		shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
		defer stop()
		srv.Shutdown(shutdownCtx)
	}()

	fmt.Fprintf(os.Stderr, "warden listening on %s (autonomy level %d)\n",
		cfg.Listen, cfg.AutonomyLevel)
	fmt.Fprintf(os.Stderr, "audit chain: %s\n\n", cfg.AuditLogPath())

	return srv.Serve()
}

func buildEmitter(ctx context.Context, cfg config.Config) (notify.Emitter, func(), error) {
	emitters := []notify.Emitter{notify.NewLogEmitter()}
	closers := []func(){}

	if cfg.WebhookURL != "" {
		emitters = append(emitters, notify.NewWebhookEmitter(notify.WebhookConfig{
			URL:    cfg.WebhookURL,
			Format: cfg.WebhookFormat,
		}))
	}
	if cfg.PubSubProject != "" && cfg.PubSubTopic != "" {
		ps, err := notify.NewPubSubEmitter(ctx, cfg.PubSubProject, cfg.PubSubTopic)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create pubsub emitter: %w", err)
		}
		emitters = append(emitters, ps)
		closers = append(closers, func() { ps.Close() })
	}

	var emitter notify.Emitter = notify.NewMulti(emitters...)
	if cfg.NotifyRatePerMin > 0 {
		emitter = notify.NewRateLimited(emitter, cfg.NotifyRatePerMin)
	}
	return emitter, func() {
		for _, c := range closers {
			c()
		}
	}, nil
}

// registerAdapters wires the built-in category adapters with handlers
// that log the execution. Deployments embedding the engine as a library
// supply real handlers through their own adapters.
func registerAdapters(eng *engine.Engine) {
	logHandler := func(verb string) func(context.Context, *model.Action) error {
		return func(ctx context.Context, a *model.Action) error {
			log.Printf("%s %s action %s (%s)", verb, a.Category, a.ID, a.Type)
			return nil
		}
	}
	eng.RegisterAdapter(adapter.NewTradingAdapter(logHandler("executing"), logHandler("unwinding")))
	eng.RegisterAdapter(adapter.NewContentAdapter(logHandler("publishing"), logHandler("retracting")))
	eng.RegisterAdapter(adapter.NewDevAdapter(logHandler("applying"), logHandler("reverting")))
}
