// Package scheduler contém os serviços de agendamento de tarefas recorrentes
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"
	"github.com/vfarias/sales-analytics-api/infrastructure/database/postgres"
	"github.com/vfarias/sales-analytics-api/infrastructure/repository"
	"github.com/vfarias/sales-analytics-api/internal/config"
	"github.com/vfarias/sales-analytics-api/internal/domain"
	"github.com/vfarias/sales-analytics-api/internal/usecases/achieving"
)

// snapshotPeriodLayout é o formato mm-yyyy usado como chave da fotografia.
const snapshotPeriodLayout = "01-2006"

type AchievementSnapshotConfig struct {
	CronSchedule string
	Enabled      bool
}

// AchievementSnapshotService grava periodicamente a fotografia mensal do
// relatório de atingimento, para consulta histórica sem recomputação.
type AchievementSnapshotService struct {
	scheduler           *gocron.Scheduler
	conn                postgres.Conn
	achiever            achieving.Achiever
	snapshotRepo        repository.AchievementSnapshotRepository
	config              AchievementSnapshotConfig
	syncRunning         bool
	syncMutex           sync.Mutex
	lastSyncStartedAt   time.Time
	lastSyncCompletedAt time.Time
}

func NewAchievementSnapshotService(
	conn postgres.Conn,
	achiever achieving.Achiever,
	snapshotRepo repository.AchievementSnapshotRepository,
	cfg *config.Config,
) *AchievementSnapshotService {
	snapshotConfig := AchievementSnapshotConfig{
		CronSchedule: cfg.AchievementSnapshot.CronSchedule,
		Enabled:      cfg.AchievementSnapshot.Enabled,
	}

	scheduler := gocron.NewScheduler(time.Local)

	logrus.WithFields(logrus.Fields{
		"cron_schedule": snapshotConfig.CronSchedule,
	}).Info("Configuração do agendador de snapshots de atingimento carregada")

	return &AchievementSnapshotService{
		scheduler:    scheduler,
		conn:         conn,
		achiever:     achiever,
		snapshotRepo: snapshotRepo,
		config:       snapshotConfig,
	}
}

func (s *AchievementSnapshotService) Start(ctx context.Context) error {
	if !s.config.Enabled {
		logrus.Info("Cron de snapshots de atingimento desabilitada por configuração")
		return nil
	}

	logrus.WithField("cron", s.config.CronSchedule).Info("Iniciando cron de snapshots de atingimento")

	_, err := s.scheduler.Cron(s.config.CronSchedule).Do(func() {
		if err := s.UpdateSnapshot(); err != nil {
			logrus.WithError(err).Error("Erro na gravação do snapshot de atingimento")
		}
	})
	if err != nil {
		return fmt.Errorf("erro ao agendar snapshot de atingimento: %w", err)
	}

	// Executar o cron em uma goroutine separada
	s.scheduler.StartAsync()

	// Configurar o cancelamento do cron quando o contexto for cancelado
	go func() {
		<-ctx.Done()
		logrus.Info("Parando cron de snapshots de atingimento")
		s.scheduler.Stop()
	}()

	return nil
}

// UpdateSnapshot computa o relatório de atingimento do dia e o grava na
// fotografia do mês corrente, sobrescrevendo a anterior.
func (s *AchievementSnapshotService) UpdateSnapshot() error {
	s.syncMutex.Lock()
	defer s.syncMutex.Unlock()

	if s.syncRunning {
		logrus.Warn("Gravação de snapshot de atingimento já está em execução")
		return nil
	}

	s.syncRunning = true
	s.lastSyncStartedAt = time.Now()
	defer func() {
		s.syncRunning = false
		s.lastSyncCompletedAt = time.Now()
	}()

	logrus.Info("Iniciando gravação do snapshot de atingimento")

	reference := time.Now()

	report, err := s.achiever.ComputeAchievement(reference)
	if err != nil {
		logrus.WithError(err).Error("Erro ao computar relatório de atingimento para o snapshot")
		return err
	}

	snapshot := &domain.AchievementSnapshot{
		Period: reference.Format(snapshotPeriodLayout),
		Report: report,
	}

	if err := s.snapshotRepo.SaveOrUpdate(s.conn, snapshot); err != nil {
		logrus.WithError(err).Error("Erro ao gravar snapshot de atingimento")
		return err
	}

	logrus.WithField("period", snapshot.Period).Info("Snapshot de atingimento gravado")

	return nil
}

// TriggerManualSync inicia manualmente a gravação do snapshot
func (s *AchievementSnapshotService) TriggerManualSync() {
	s.syncMutex.Lock()
	if s.syncRunning {
		s.syncMutex.Unlock()
		logrus.Info("Gravação de snapshot já em andamento, ignorando solicitação manual")
		return
	}
	s.syncMutex.Unlock()

	logrus.Info("Iniciando gravação manual do snapshot de atingimento")
	go s.UpdateSnapshot()
}

// GetStatus retorna o status atual do agendador
func (s *AchievementSnapshotService) GetStatus() map[string]any {
	return map[string]any{
		"enabled":                s.config.Enabled,
		"cron":                   s.config.CronSchedule,
		"last_sync_started_at":   s.lastSyncStartedAt,
		"last_sync_completed_at": s.lastSyncCompletedAt,
	}
}
