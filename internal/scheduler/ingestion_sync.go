package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rmonteiro89/sales-analytics-api/internal/config"
	"github.com/rmonteiro89/sales-analytics-api/internal/usecases/ingesting"
	"github.com/sirupsen/logrus"
)

// IngestionSyncConfig representa a configuração do agendador de re-ingestão
type IngestionSyncConfig struct {
	CronSchedule string
	CSVPath      string
	SyncEnabled  bool
}

// IngestionSyncService agenda e executa a re-ingestão periódica da fonte
// bruta de vendas. A re-ingestão é um full replace do conjunto canônico;
// execuções sobrepostas são ignoradas.
type IngestionSyncService struct {
	scheduler           *gocron.Scheduler
	config              IngestionSyncConfig
	ingester            ingesting.Ingester
	syncRunning         bool
	syncMutex           sync.Mutex
	lastSyncStartedAt   time.Time
	lastSyncCompletedAt time.Time
}

// NewIngestionSyncService cria uma nova instância do serviço de re-ingestão
func NewIngestionSyncService(ingester ingesting.Ingester, appConfig *config.Config) *IngestionSyncService {
	syncConfig := IngestionSyncConfig{
		CronSchedule: appConfig.IngestionSync.CronSchedule,
		CSVPath:      appConfig.Ingestion.CSVPath,
		SyncEnabled:  appConfig.IngestionSync.Enabled,
	}

	scheduler := gocron.NewScheduler(time.Local)

	logrus.WithFields(logrus.Fields{
		"cron_schedule": syncConfig.CronSchedule,
		"csv_path":      syncConfig.CSVPath,
		"sync_enabled":  syncConfig.SyncEnabled,
	}).Info("Configuração do agendador de re-ingestão carregada")

	return &IngestionSyncService{
		scheduler:   scheduler,
		config:      syncConfig,
		ingester:    ingester,
		syncRunning: false,
	}
}

// Start inicia o agendador
func (s *IngestionSyncService) Start(ctx context.Context) error {
	if !s.config.SyncEnabled {
		logrus.Info("Re-ingestão agendada desabilitada por configuração")
		return nil
	}

	logrus.WithField("cron", s.config.CronSchedule).Info("Iniciando agendador de re-ingestão")

	_, err := s.scheduler.Cron(s.config.CronSchedule).Do(func() {
		s.runIngestion(context.Background())
	})
	if err != nil {
		return fmt.Errorf("erro ao agendar re-ingestão: %w", err)
	}

	s.scheduler.StartAsync()

	go func() {
		<-ctx.Done()
		logrus.Info("Parando agendador de re-ingestão")
		s.scheduler.Stop()
	}()

	return nil
}

// GetStatus retorna o estado atual do agendador de re-ingestão
func (s *IngestionSyncService) GetStatus() map[string]any {
	s.syncMutex.Lock()
	defer s.syncMutex.Unlock()

	status := map[string]any{
		"enabled":       s.config.SyncEnabled,
		"cron_schedule": s.config.CronSchedule,
		"running":       s.syncRunning,
	}

	if !s.lastSyncStartedAt.IsZero() {
		status["last_sync_started_at"] = s.lastSyncStartedAt
	}
	if !s.lastSyncCompletedAt.IsZero() {
		status["last_sync_completed_at"] = s.lastSyncCompletedAt
	}

	return status
}

// RunNow dispara uma re-ingestão imediata, fora do agendamento
func (s *IngestionSyncService) RunNow(ctx context.Context) error {
	return s.runIngestion(ctx)
}

// runIngestion executa a re-ingestão da fonte, no máximo uma por vez
func (s *IngestionSyncService) runIngestion(ctx context.Context) error {
	s.syncMutex.Lock()
	if s.syncRunning {
		s.syncMutex.Unlock()
		logrus.Info("Re-ingestão já em andamento, ignorando")
		return nil
	}
	s.syncRunning = true
	startTime := time.Now()
	s.lastSyncStartedAt = startTime
	s.syncMutex.Unlock()

	defer func() {
		s.syncMutex.Lock()
		s.syncRunning = false
		s.syncMutex.Unlock()
	}()

	logrus.WithField("csv_path", s.config.CSVPath).Info("Iniciando re-ingestão da fonte de vendas")

	records, err := s.ingester.IngestFile(ctx, s.config.CSVPath)
	if err != nil {
		logrus.WithError(err).Error("Erro na re-ingestão da fonte de vendas")
		return err
	}

	duration := time.Since(startTime)
	logrus.WithFields(logrus.Fields{
		"duration": duration.String(),
		"records":  len(records),
	}).Info("Re-ingestão concluída")

	s.syncMutex.Lock()
	s.lastSyncCompletedAt = time.Now()
	s.syncMutex.Unlock()

	return nil
}
