package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/justinas/alice"
	"github.com/sirupsen/logrus"
	"github.com/vfarias/sales-analytics-api/infrastructure/database/postgres"
	"github.com/vfarias/sales-analytics-api/infrastructure/repository"
	"github.com/vfarias/sales-analytics-api/internal/api/handler"
	"github.com/vfarias/sales-analytics-api/internal/api/handler/router"
	"github.com/vfarias/sales-analytics-api/internal/config"
	"github.com/vfarias/sales-analytics-api/internal/scheduler"
	"github.com/vfarias/sales-analytics-api/internal/usecases/achieving"
	"github.com/vfarias/sales-analytics-api/internal/usecases/aggregating"
	"github.com/vfarias/sales-analytics-api/internal/usecases/authenticating"
	"github.com/vfarias/sales-analytics-api/internal/usecases/selling"
	"github.com/vfarias/sales-analytics-api/internal/usecases/targeting"
	"github.com/vfarias/sales-analytics-api/pkg/middleware"
)

const shutdownTimeout = 15 * time.Second

type Server struct {
	httpServer *http.Server
}

func New(
	config *config.Config,
	conn postgres.Conn,
	aggregatorService aggregating.Aggregator,
	sellerService selling.Seller,
	targetService targeting.Targeter,
	achievementService achieving.Achiever,
	authenticator authenticating.Authenticator,
	snapshotRepo repository.AchievementSnapshotRepository,
	activityLogRepo repository.ActivityLogRepository,
	snapshotSyncService *scheduler.AchievementSnapshotService,
) (*Server, error) {
	// Inicializar o struct com os serviços de cron jobs
	cronServices := handler.CronJobServices{
		AchievementSnapshotService: snapshotSyncService,
	}

	rt := router.New(
		router.WithRoutes(handler.Healthcheck()...),
		router.WithRoutes(handler.Authentication(authenticator)...),
		router.WithRoutes(handler.User(authenticator)...),
		router.WithRoutes(handler.Analytics(aggregatorService)...),
		router.WithRoutes(handler.Sales(sellerService)...),
		router.WithRoutes(handler.Products(sellerService)...),
		router.WithRoutes(handler.Targets(targetService, achievementService)...),
		router.WithRoutes(handler.AchievementSnapshots(conn, snapshotRepo)...),
		router.WithRoutes(handler.ActivityLogs(conn, activityLogRepo)...),
		router.WithRoutes(handler.CronJobs(cronServices)...),
	)

	middlewares := []alice.Constructor{
		middleware.LogPanicMiddleware(),
		middleware.LoggingMiddleware(),
		middleware.Cors(),
		middleware.AuthMiddleware(authenticator),
	}

	handler := alice.New(middlewares...).Then(rt)

	srv := &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port),
			Handler:           handler,
			ReadHeaderTimeout: 2 * time.Second,
		},
	}

	return srv, nil
}

// Run sobe o servidor HTTP e bloqueia até um sinal de término ou o
// cancelamento do contexto, desligando graciosamente em seguida.
func (s Server) Run(ctx context.Context) error {
	go func() {
		logrus.WithField("address", s.httpServer.Addr).Info("Servidor iniciando")

		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Error("Erro durante a execução do servidor")
		}
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	select {
	case <-done:
		logrus.Info("Sinal de interrupção recebido")
	case <-ctx.Done():
		logrus.Info("Contexto de aplicação cancelado")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	logrus.WithField("timeout", shutdownTimeout.String()).Info("Iniciando desligamento gracioso do servidor")

	if err := s.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Erro durante o desligamento do servidor")
		return err
	}

	logrus.Info("Servidor desligado com sucesso")
	return nil
}

func (s Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}

	logrus.Info("Servidor HTTP desligado com sucesso")
	return nil
}
