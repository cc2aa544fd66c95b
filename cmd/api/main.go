package main

import (
	"context"
	"os"
	"path"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vfarias/sales-analytics-api/infrastructure/database/postgres"
	"github.com/vfarias/sales-analytics-api/infrastructure/repository"
	"github.com/vfarias/sales-analytics-api/internal/api"
	"github.com/vfarias/sales-analytics-api/internal/config"
	"github.com/vfarias/sales-analytics-api/internal/scheduler"
	"github.com/vfarias/sales-analytics-api/internal/usecases/achieving"
	"github.com/vfarias/sales-analytics-api/internal/usecases/aggregating"
	"github.com/vfarias/sales-analytics-api/internal/usecases/authenticating"
	"github.com/vfarias/sales-analytics-api/internal/usecases/selling"
	"github.com/vfarias/sales-analytics-api/internal/usecases/targeting"
)

func main() {
	// Inicializa configuração de logs
	configureLogger()

	cfg, err := config.NewConfig()
	if err != nil {
		logrus.Fatal(err)
	}

	// Define o nível de log com base na configuração
	logLevel, err := logrus.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		logrus.Warnf("Nível de log inválido: %s, usando 'info'", cfg.App.LogLevel)
		logLevel = logrus.InfoLevel
	}
	logrus.SetLevel(logLevel)
	logrus.Infof("Nível de log configurado para: %s", logLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pgConn := pgconn(ctx, cfg.Database)
	defer pgConn.Close()

	userRepo := repository.NewUserRepository(pgConn)
	saleRepo := repository.NewSaleRepository()
	targetRepo := repository.NewTargetRepository()
	productRepo := repository.NewProductRepository()
	activityLogRepo := repository.NewActivityLogRepository()
	snapshotRepo := repository.NewAchievementSnapshotRepository()

	authenticator := authenticating.NewService(userRepo, cfg)

	aggregatorService := aggregating.NewService(pgConn, saleRepo)
	sellerService := selling.NewService(pgConn, saleRepo, productRepo, activityLogRepo)
	targetService := targeting.NewService(pgConn, targetRepo, activityLogRepo)
	achievementService := achieving.NewService(targetService, aggregatorService)

	// Inicializa o agendador de snapshots mensais de atingimento
	snapshotSyncService := scheduler.NewAchievementSnapshotService(
		pgConn,
		achievementService,
		snapshotRepo,
		cfg,
	)

	if err := snapshotSyncService.Start(ctx); err != nil {
		logrus.WithError(err).Error("Erro ao iniciar o agendador de snapshots de atingimento")
	} else {
		logrus.Info("Agendador de snapshots de atingimento iniciado com sucesso")
	}

	server, err := api.New(
		cfg,
		pgConn,
		aggregatorService,
		sellerService,
		targetService,
		achievementService,
		authenticator,
		snapshotRepo,
		activityLogRepo,
		snapshotSyncService,
	)
	if err != nil {
		logrus.Fatal(err)
	}

	if err := server.Run(ctx); err != nil {
		logrus.Error(err)
	}
}

// configureLogger configura o formato e comportamento dos logs
func configureLogger() {
	_, file, _, _ := runtime.Caller(0)
	dir := path.Dir(file)
	os.Chdir(dir)

	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
}

// pgconn cria uma conexão com o banco de dados
func pgconn(ctx context.Context, dbConfig config.Database) *postgres.Connection {
	conn, err := postgres.NewConnection(ctx, dbConfig)
	if err != nil {
		logrus.WithError(err).Fatal("Erro ao conectar ao PostgreSQL")
	}

	err = conn.Ping(ctx)
	if err != nil {
		logrus.WithError(err).Fatal("Erro ao testar conexão com PostgreSQL")
	}

	logrus.Info("Conexão com PostgreSQL estabelecida com sucesso")
	return conn
}
