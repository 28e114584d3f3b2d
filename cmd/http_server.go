package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hanifmaulana/orgops/internal"
	"github.com/hanifmaulana/orgops/internal/auth"
	authPostgres "github.com/hanifmaulana/orgops/internal/auth/postgres"
	"github.com/hanifmaulana/orgops/internal/core/events"
	"github.com/hanifmaulana/orgops/internal/hierarchy"
	"github.com/hanifmaulana/orgops/internal/leave"
	leavePostgres "github.com/hanifmaulana/orgops/internal/leave/postgres"
	"github.com/hanifmaulana/orgops/internal/notification"
	"github.com/hanifmaulana/orgops/internal/ticket"
	ticketPostgres "github.com/hanifmaulana/orgops/internal/ticket/postgres"
	"github.com/hanifmaulana/orgops/internal/transport/rest"
	"github.com/hanifmaulana/orgops/internal/user"
	userPostgres "github.com/hanifmaulana/orgops/internal/user/postgres"
	"github.com/hanifmaulana/orgops/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	GormDB *gorm.DB
	Router *chi.Mux
	Logger *slog.Logger

	AuthHandler   *auth.Handler
	RBAC          *auth.RBACAuthorization
	UserHandler   *user.Handler
	LeaveHandler  *leave.Handler
	TicketHandler *ticket.Handler
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	rest.RegisterAllRoutes(deps.Router, deps.DB.DB,
		deps.AuthHandler, deps.RBAC,
		deps.UserHandler, deps.LeaveHandler, deps.TicketHandler,
		deps.Logger)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(os.Getenv("APP_ENV"), config.Observability.Logging.Level)
	lg := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// GORM rides on the sqlx pool so both layers share one set of
	// connections and limits.
	gormDB, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	bus := events.NewEventBus(lg)

	dispatcher := notification.NewLogDispatcher(lg)
	notification.NewEventHandler(dispatcher, lg).RegisterHandlers(bus)

	authRepo := authPostgres.NewRepository(gormDB)
	authService := auth.NewService(authRepo, config.Security.AccessTokenSecret, config.Security.AccessTokenTTL, lg)
	authHandler := auth.NewHandler(authService)
	rbac := auth.NewRBACAuthorization(lg)

	userRepo := userPostgres.NewUserRepository(gormDB)
	userService := user.NewService(userRepo, lg)
	userHandler := user.NewHandler(userService)

	resolver := hierarchy.NewResolver(userRepo, lg)

	leaveRepo := leavePostgres.NewLeaveRepository(gormDB)
	leaveService := leave.NewService(leaveRepo, userRepo, resolver, bus, lg)
	leaveHandler := leave.NewHandler(leaveService)

	ticketRepo := ticketPostgres.NewTicketRepository(gormDB)
	ticketService := ticket.NewService(ticketRepo, userRepo, bus, lg)
	ticketHandler := ticket.NewHandler(ticketService)

	return &Dependencies{
		Config: config,
		DB:     db,
		GormDB: gormDB,
		Router: chi.NewRouter(),
		Logger: lg,

		AuthHandler:   authHandler,
		RBAC:          rbac,
		UserHandler:   userHandler,
		LeaveHandler:  leaveHandler,
		TicketHandler: ticketHandler,
	}, nil
}

// initDB opens the pgx-backed pool used by both sqlx and GORM.
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
