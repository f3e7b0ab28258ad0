package main

import (
	"context"
	"os"
	"path"
	"runtime"
	"time"

	"github.com/rmonteiro89/sales-analytics-api/infrastructure/database/postgres"
	"github.com/rmonteiro89/sales-analytics-api/infrastructure/repository"
	"github.com/rmonteiro89/sales-analytics-api/internal/api"
	"github.com/rmonteiro89/sales-analytics-api/internal/config"
	"github.com/rmonteiro89/sales-analytics-api/internal/scheduler"
	"github.com/rmonteiro89/sales-analytics-api/internal/session"
	"github.com/rmonteiro89/sales-analytics-api/internal/usecases/analyzing"
	"github.com/rmonteiro89/sales-analytics-api/internal/usecases/authenticating"
	"github.com/rmonteiro89/sales-analytics-api/internal/usecases/detecting"
	"github.com/rmonteiro89/sales-analytics-api/internal/usecases/forecasting"
	"github.com/rmonteiro89/sales-analytics-api/internal/usecases/ingesting"
	"github.com/rmonteiro89/sales-analytics-api/internal/usecases/querying"
	"github.com/rmonteiro89/sales-analytics-api/internal/usecases/scoping"
	"github.com/sirupsen/logrus"
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

	saleRepo := repository.NewSaleRepository(pgConn)
	userRepo := repository.NewUserRepository(pgConn)

	sessions := session.NewManager()

	authenticator := authenticating.NewService(userRepo, sessions, cfg)

	ingester := ingesting.NewService(saleRepo, cfg)
	scoper := scoping.NewService()
	querier := querying.NewService()
	forecaster := forecasting.NewService()
	detector := detecting.NewService()

	analysisService := analyzing.NewService(
		saleRepo,
		ingester,
		scoper,
		querier,
		forecaster,
		detector,
		cfg,
	)

	// Inicializa o agendador de re-ingestão da fonte
	ingestionSyncService := scheduler.NewIngestionSyncService(ingester, cfg)

	if err := ingestionSyncService.Start(ctx); err != nil {
		logrus.WithError(err).Error("Erro ao iniciar o agendador de re-ingestão")
	} else {
		logrus.Info("Agendador de re-ingestão iniciado com sucesso")
	}

	server, err := api.New(
		cfg,
		analysisService,
		authenticator,
		sessions,
		ingestionSyncService,
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
