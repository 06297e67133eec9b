// Package server wires configuration, storage, services and transports into
// a runnable housing server and handles graceful shutdown.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/housing/internal/logging"
	"github.com/dmitrijs2005/housing/internal/server/auth"
	"github.com/dmitrijs2005/housing/internal/server/config"
	"github.com/dmitrijs2005/housing/internal/server/httpapi"
	"github.com/dmitrijs2005/housing/internal/server/notify"
	"github.com/dmitrijs2005/housing/internal/server/ratelimit"
	"github.com/dmitrijs2005/housing/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/housing/internal/server/services"

	gs "github.com/dmitrijs2005/housing/internal/server/grpc"
)

const probeInterval = 15 * time.Second

type App struct {
	config      *config.Config
	logger      logging.Logger
	repomanager repomanager.RepositoryManager
	users       *services.UserService
	api         *httpapi.API
	mail        *notify.BestEffort
	inbox       *notify.BestEffort
}

// OpenStore returns a migrated PostgreSQL manager for a non-empty DSN and
// the in-memory manager otherwise.
func OpenStore(ctx context.Context, c *config.Config, logger logging.Logger) (repomanager.RepositoryManager, error) {
	if c.DatabaseDSN == "" {
		logger.Warn(ctx, "no database configured, using in-memory store; data is lost on restart")
		return repomanager.NewMemoryRepositoryManager(nil), nil
	}

	rm, err := repomanager.OpenPostgres(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := rm.RunMigrations(ctx); err != nil {
		_ = rm.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}
	return rm, nil
}

// NewServices builds the service graph on top of rm. mail receives
// credential e-mails and the inbox receives in-app notices.
func NewServices(c *config.Config, rm repomanager.RepositoryManager, mail, inbox *notify.BestEffort, logger logging.Logger) (httpapi.Services, error) {
	keys, err := auth.DeriveKeys([]byte(c.SecretKey))
	if err != nil {
		return httpapi.Services{}, err
	}

	hasher := auth.NewPasswordHasher(auth.DefaultArgon2Params())
	tokens := services.NewTokenService(rm, keys, services.TokenTTLs{
		Access:  c.AccessTokenValidityDuration,
		Refresh: c.RefreshTokenValidityDuration,
		Reset:   c.ResetTokenValidityDuration,
	}, nil)
	codes := services.NewResetCodeService(rm, keys.ResetCode, nil, logger)

	rl := c.RateLimits
	gateway := services.NewAuthGateway(rm, ratelimit.New(), hasher, codes, tokens, mail, logger,
		services.WithRateLimits(services.RateLimits{
			LoginPerIP:      rl.LoginPerIP,
			LoginPerAccount: rl.LoginPerAccount,
			ForgotPerIP:     rl.ForgotPerIP,
			ForgotPerEmail:  rl.ForgotPerEmail,
			VerifyPerIP:     rl.VerifyPerIP,
			VerifyPerEmail:  rl.VerifyPerEmail,
		}))

	return httpapi.Services{
		Auth:          gateway,
		Tokens:        tokens,
		Users:         services.NewUserService(rm, hasher, tokens, logger),
		Listings:      services.NewListingService(rm, logger),
		Applications:  services.NewApplicationService(rm, inbox, logger),
		Contacts:      services.NewContactService(rm, inbox, logger),
		Notifications: services.NewNotificationService(rm),
	}, nil
}

// MailNotifier relays through SMTP when a host is configured and only logs
// otherwise.
func MailNotifier(c *config.Config, logger logging.Logger) notify.Notifier {
	if c.SMTPHost == "" {
		return notify.NewLog(logger)
	}
	return notify.NewSMTP(notify.SMTPConfig{
		Host:      c.SMTPHost,
		Port:      c.SMTPPort,
		Username:  c.SMTPUser,
		Password:  c.SMTPPassword,
		From:      c.SMTPFrom,
		PerSecond: c.MailPerSecond,
		Burst:     1,
	})
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, logging.ParseLevel(c.LogLevel))

	rm, err := OpenStore(ctx, c, logger)
	if err != nil {
		return nil, err
	}

	mail := notify.NewBestEffort(MailNotifier(c, logger), logger)
	inbox := notify.NewBestEffort(notify.NewInbox(rm.Notifications()), logger)

	svc, err := NewServices(c, rm, mail, inbox, logger)
	if err != nil {
		_ = rm.Close()
		return nil, err
	}

	return &App{
		config:      c,
		logger:      logger,
		repomanager: rm,
		users:       svc.Users,
		api:         httpapi.New(svc, logger, c.TrustProxyHeaders),
		mail:        mail,
		inbox:       inbox,
	}, nil
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case s := <-sigs:
			app.logger.Info(ctx, "Signal received", "signal", s.String())
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

// seedAdmin makes sure the configured admin account exists. Failure is
// logged, not fatal.
func (app *App) seedAdmin(ctx context.Context) {
	if app.config.AdminEmail == "" || app.config.AdminPassword == "" {
		return
	}
	if _, err := app.users.SeedAdmin(ctx, app.config.AdminEmail, app.config.AdminPassword); err != nil {
		app.logger.Error(ctx, "admin seeding failed", "email", app.config.AdminEmail, "error", err)
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewHTTPServer(app.config.HTTPAddr, app.logger, app.api.Router())
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	var opts []gs.Option
	if p, ok := app.repomanager.(interface{ Ping(context.Context) error }); ok {
		opts = append(opts, gs.WithProbe(p.Ping, probeInterval))
	}

	s := gs.NewGRPCServer(app.config.GRPCAddr, app.logger, opts...)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves HTTP and gRPC until a signal arrives or either server fails,
// then drains pending notifications and closes the store.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(ctx, cancelFunc)
	app.seedAdmin(ctx)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	if app.config.GRPCAddr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startGRPCServer(ctx, cancelFunc)
		}()
	}

	wg.Wait()

	app.mail.Wait()
	app.inbox.Wait()

	if err := app.repomanager.Close(); err != nil {
		app.logger.Error(ctx, "error closing store", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
