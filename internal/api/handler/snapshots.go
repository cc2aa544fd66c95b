package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/vfarias/sales-analytics-api/infrastructure/database/postgres"
	"github.com/vfarias/sales-analytics-api/infrastructure/repository"
	"github.com/vfarias/sales-analytics-api/pkg/apiErrors"
	"github.com/vfarias/sales-analytics-api/pkg/log"
)

// ListAchievementSnapshots lista os períodos com fotografia gravada.
func ListAchievementSnapshots(conn postgres.Conn, repo repository.AchievementSnapshotRepository) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.ForContext(r.Context())

		periods, err := repo.ListPeriods(conn)
		if err != nil {
			logger.WithError(err).Error("snapshots: erro ao listar períodos")
			apiErrors.WriteError(w, apiErrors.ErrDatabaseOperation, "Erro ao listar snapshots", nil)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]any{"periods": periods}); err != nil {
			logger.WithError(err).Error("snapshots: erro ao codificar resposta")
			apiErrors.WriteError(w, apiErrors.ErrInternalServer, "Erro ao enviar resposta", nil)
		}
	})
}

// GetAchievementSnapshot devolve a fotografia de um período mm-yyyy.
func GetAchievementSnapshot(conn postgres.Conn, repo repository.AchievementSnapshotRepository) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.ForContext(r.Context())

		period := httprouter.ParamsFromContext(r.Context()).ByName("period")
		if period == "" {
			apiErrors.WriteError(w, apiErrors.ErrMissingRequiredData, "Período não fornecido", nil)
			return
		}

		snapshot, err := repo.GetByPeriod(conn, period)
		if err != nil {
			logger.WithError(err).WithField("period", period).Error("snapshots: erro ao buscar snapshot")
			apiErrors.WriteError(w, apiErrors.ErrDatabaseOperation, "Erro ao buscar snapshot", nil)
			return
		}

		if snapshot == nil {
			apiErrors.WriteError(w, apiErrors.ErrNotFound, "Snapshot não encontrado para o período", nil)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(snapshot); err != nil {
			logger.WithError(err).Error("snapshots: erro ao codificar resposta")
			apiErrors.WriteError(w, apiErrors.ErrInternalServer, "Erro ao enviar resposta", nil)
		}
	})
}
