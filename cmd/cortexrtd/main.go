package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"

	"github.com/cortexrt/agent-runtime/internal/config"
	"github.com/cortexrt/agent-runtime/internal/db"
	"github.com/cortexrt/agent-runtime/internal/eventhub"
	"github.com/cortexrt/agent-runtime/internal/httpapi"
	"github.com/cortexrt/agent-runtime/internal/logging"
	"github.com/cortexrt/agent-runtime/internal/models"
	"github.com/cortexrt/agent-runtime/internal/provider"
	"github.com/cortexrt/agent-runtime/internal/runexec"
	"github.com/cortexrt/agent-runtime/internal/scheduler"
	"github.com/cortexrt/agent-runtime/internal/stepexec"
	"github.com/cortexrt/agent-runtime/internal/store"
	"github.com/cortexrt/agent-runtime/internal/tools"
)

var log = logging.New("cortexrtd")

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cortexrtd",
	Short: "cortexrtd runs and serves durable agent workflows",
	Long: `cortexrtd is the agent runtime's single entry point.

It brings up the Postgres-backed state store, the step dispatcher, the
worker-pool scheduler, the stale-run recovery sweep, and the HTTP
control plane in one process, and it registers agent definitions
against the same store.`,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Connect to Postgres, run migrations, and serve the control plane",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

var registerFile string

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Parse an agent definition YAML file and upsert it as active",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRegister(registerFile)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(registerCmd)

	registerCmd.Flags().StringVarP(&registerFile, "file", "f", "", "path to the agent definition YAML file (required)")
	registerCmd.MarkFlagRequired("file")
}

func runServe() error {
	cfg := config.Load()

	var st store.Store
	var runs httpapi.RunCreator
	var conn *sql.DB
	if cfg.DatabaseURL != "" {
		var err error
		conn, err = db.Connect(cfg.DatabaseURL, db.PoolConfig{
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: cfg.DBConnMaxLifetime,
			ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
		})
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		ps := store.NewPostgresStore(conn)
		st = ps
		runs = ps
	} else {
		log.Println("DATABASE_URL not set; running against an in-process MemoryStore")
		ms := store.NewMemoryStore()
		st = ms
		runs = ms
	}

	var openaiClient *openai.Client
	if cfg.OpenAIAPIKey != "" {
		openaiClient = openai.NewClient(cfg.OpenAIAPIKey)
	}
	llmProvider, err := provider.GetProvider(cfg.Provider, openaiClient)
	if err != nil {
		return fmt.Errorf("configuring provider: %w", err)
	}
	log.Printf("using provider %q", cfg.Provider)

	registry := tools.NewRegistry()
	tools.RegisterBuiltins(registry)

	events := eventhub.NewHub()
	steps := stepexec.New(llmProvider, registry)
	exec := runexec.New(st, steps, events)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.New(st, exec, scheduler.Config{
		MaxWorkers:  cfg.MaxWorkers,
		FetchLimit:  cfg.FetchLimit,
		IsMockStore: cfg.DatabaseURL == "",
	})
	schedDone := make(chan struct{})
	go func() {
		sched.Run(ctx)
		close(schedDone)
	}()

	recovery := scheduler.NewRecovery(st, scheduler.RecoveryConfig{
		Interval:      cfg.RecoveryInterval,
		WorkerTimeout: cfg.WorkerTimeout,
	})
	if err := recovery.Start(ctx); err != nil {
		return fmt.Errorf("starting recovery sweep: %w", err)
	}

	router := httpapi.NewRouter(&httpapi.Server{
		Runs:   runs,
		Exec:   exec,
		Events: events,
		DB:     conn,
	})

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("control plane listening on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("control plane failed to start: %v", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down")

	cancel()
	<-schedDone

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("control plane forced to shutdown: %v", err)
	} else {
		log.Println("control plane exited gracefully")
	}
	return nil
}

func runRegister(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	def, err := models.ParseDefinitionYAML(raw)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg := config.Load()
	conn, err := db.Connect(cfg.DatabaseURL, db.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
	})
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	ps := store.NewPostgresStore(conn)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := ps.RegisterDefinition(ctx, def.AgentName, raw); err != nil {
		return fmt.Errorf("registering %s: %w", def.AgentName, err)
	}

	log.Printf("registered agent %q (%d steps)", def.AgentName, len(def.Steps))
	return nil
}
