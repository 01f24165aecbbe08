package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"exam-portal/internal/app"
	"exam-portal/internal/config"
	"exam-portal/internal/infra/memory"
	"exam-portal/internal/infra/metrics"
	pgstore "exam-portal/internal/infra/postgres"
	"exam-portal/internal/infra/rabbit"
	rediscache "exam-portal/internal/infra/redis"
	"exam-portal/internal/jobs"
	transport "exam-portal/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the exam portal server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var store app.Store
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		store = pgstore.NewStore(pool, cfg.Exam.UniqueResults)
	} else {
		log.Printf("postgres not configured, using in-memory store")
		var opts []memory.StoreOption
		if cfg.Exam.UniqueResults {
			opts = append(opts, memory.WithUniqueResults())
		}
		store = memory.NewStore(opts...)
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	cacheTTL := config.TTLDuration(cfg.Exam.CacheTTL, 10*time.Minute)
	var exams app.ExamRepository
	var sessions app.SessionRepository
	if redisClient != nil {
		exams = rediscache.NewExamCache(redisClient, store, cacheTTL)
		sessions = rediscache.NewSessionStore(redisClient, config.TTLDuration(cfg.Redis.TTL, 3*time.Hour))
	} else {
		exams = memory.NewExamCache(store, cacheTTL)
		sessions = memory.NewSessionStore()
	}

	var notifier app.InvitationNotifier = memory.NewLogNotifier()
	if cfg.Invitations.RabbitURL != "" {
		publisher, err := rabbit.Dial(cfg.Invitations.RabbitURL, cfg.Invitations.Queue)
		if err != nil {
			return err
		}
		defer publisher.Close()
		notifier = publisher
	}

	recorder := metrics.NewRecorder()
	service := app.NewPortalService(store, exams, sessions,
		app.WithNotifier(notifier),
		app.WithSessionObserver(recorder),
	)

	if cfg.Invitations.Cron != "" {
		window := config.TTLDuration(cfg.Invitations.Window, time.Hour)
		scheduler, err := jobs.Schedule(cfg.Invitations.Cron, jobs.NewInvitationJob(service, window))
		if err != nil {
			return err
		}
		scheduler.Start()
		defer scheduler.Stop()
		log.Printf("invitation job scheduled (%s, window %s)", cfg.Invitations.Cron, window)
	}

	router := transport.NewRouter(transport.NewAPI(service), transport.NewWSHandler(service), recorder.Handler())

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// No write timeout: exam sockets stay open for the whole sitting.
	}

	go func() {
		log.Printf("starting exam portal on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
