package handler

import (
	"net/http"
	"strconv"

	"github.com/vfarias/sales-analytics-api/infrastructure/database/postgres"
	"github.com/vfarias/sales-analytics-api/infrastructure/repository"
	"github.com/vfarias/sales-analytics-api/pkg/apiErrors"
	"github.com/vfarias/sales-analytics-api/pkg/log"
)

// ListActivityLogs devolve as entradas de auditoria mais recentes, da mais
// nova para a mais antiga. O parâmetro limit é opcional; sem ele o
// repositório aplica o padrão.
func ListActivityLogs(conn postgres.Conn, repo repository.ActivityLogRepository) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.ForContext(r.Context())

		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			value, err := strconv.Atoi(raw)
			if err != nil || value < 0 {
				apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, "Limite inválido", nil)
				return
			}
			limit = value
		}

		entries, err := repo.ListRecent(conn, limit)
		if err != nil {
			logger.WithError(err).Error("activity: erro ao listar auditoria")
			apiErrors.WriteError(w, apiErrors.ErrDatabaseOperation, "Erro ao listar auditoria", nil)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]any{"logs": entries}); err != nil {
			logger.WithError(err).Error("activity: erro ao codificar resposta")
			apiErrors.WriteError(w, apiErrors.ErrInternalServer, "Erro ao enviar resposta", nil)
		}
	})
}
