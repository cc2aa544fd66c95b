package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/vfarias/sales-analytics-api/internal/domain"
	"github.com/vfarias/sales-analytics-api/internal/usecases/achieving"
	"github.com/vfarias/sales-analytics-api/internal/usecases/targeting"
	"github.com/vfarias/sales-analytics-api/pkg/apiErrors"
	"github.com/vfarias/sales-analytics-api/pkg/log"
	"github.com/vfarias/sales-analytics-api/pkg/middleware"
)

// BulkTargetsRequest é o payload plano de metas: chaves temporais
// (monthly/quarterly/yearly) ou dimensionais (category_X, region_X, rep_X).
type BulkTargetsRequest struct {
	Targets     map[string]any `json:"targets"`
	PeriodStart string         `json:"period_start,omitempty"`
	PeriodEnd   string         `json:"period_end,omitempty"`
	Currency    string         `json:"currency,omitempty"`
}

type UpdateTargetRequest struct {
	TargetValue float64 `json:"target_value"`
	Currency    string  `json:"currency,omitempty"`
}

// BulkUpsertTargets reconcilia o payload plano de metas em uma transação.
func BulkUpsertTargets(service targeting.Targeter) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.ForContext(r.Context())

		var req BulkTargetsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.WithError(err).Warn("targets: corpo de requisição inválido")
			apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, "Erro ao decodificar requisição", nil)
			return
		}

		if len(req.Targets) == 0 {
			apiErrors.WriteError(w, apiErrors.ErrMissingRequiredData, "Nenhuma meta para reconciliar", nil)
			return
		}

		opts := domain.BulkTargetOptions{Currency: req.Currency}

		if req.PeriodStart != "" && req.PeriodEnd != "" {
			start, err := time.Parse(time.DateOnly, req.PeriodStart)
			if err != nil {
				apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, "period_start inválido", nil)
				return
			}
			end, err := time.Parse(time.DateOnly, req.PeriodEnd)
			if err != nil {
				apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, "period_end inválido", nil)
				return
			}
			opts.PeriodStart = &start
			opts.PeriodEnd = &end
		}

		if claims, ok := r.Context().Value(middleware.ContextKeyUser).(*domain.Claims); ok {
			userID := claims.UserID
			opts.CreatedBy = &userID
		}

		result, err := service.BulkUpsertTargets(r.Context(), req.Targets, opts)
		if err != nil {
			if errors.Is(err, targeting.ErrInvalidPeriod) {
				apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, err.Error(), nil)
				return
			}

			logger.WithError(err).Error("targets: erro na reconciliação em lote")
			apiErrors.WriteError(w, apiErrors.ErrDatabaseOperation, "Erro na reconciliação de metas", nil)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(result); err != nil {
			logger.WithError(err).Error("targets: erro ao codificar resposta")
			apiErrors.WriteError(w, apiErrors.ErrInternalServer, "Erro ao enviar resposta", nil)
		}
	})
}

// GetActiveTargets devolve as metas vigentes na data informada (hoje por omissão).
func GetActiveTargets(service targeting.Targeter) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.ForContext(r.Context())

		date, err := parseReferenceDate(r)
		if err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, "Data de referência inválida", nil)
			return
		}

		targets, err := service.GetActiveTargets(date)
		if err != nil {
			logger.WithError(err).Error("targets: erro ao buscar metas vigentes")
			apiErrors.WriteError(w, apiErrors.ErrDatabaseOperation, "Erro ao buscar metas vigentes", nil)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(targets); err != nil {
			logger.WithError(err).Error("targets: erro ao codificar resposta")
			apiErrors.WriteError(w, apiErrors.ErrInternalServer, "Erro ao enviar resposta", nil)
		}
	})
}

// CreateTarget cria uma meta individual.
func CreateTarget(service targeting.Targeter) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.ForContext(r.Context())

		var target domain.Target
		if err := json.NewDecoder(r.Body).Decode(&target); err != nil {
			logger.WithError(err).Warn("targets: corpo de requisição inválido")
			apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, "Erro ao decodificar requisição", nil)
			return
		}

		if claims, ok := r.Context().Value(middleware.ContextKeyUser).(*domain.Claims); ok {
			userID := claims.UserID
			target.CreatedBy = &userID
		}

		created, err := service.CreateTarget(&target)
		if err != nil {
			switch {
			case errors.Is(err, targeting.ErrInvalidTargetValue), errors.Is(err, targeting.ErrInvalidPeriod):
				apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, err.Error(), nil)
			default:
				logger.WithError(err).Error("targets: erro ao criar meta")
				apiErrors.WriteError(w, apiErrors.ErrDatabaseOperation, err.Error(), nil)
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		if err := json.NewEncoder(w).Encode(created); err != nil {
			logger.WithError(err).Error("targets: erro ao codificar resposta")
		}
	})
}

// UpdateTarget atualiza o valor de uma meta; período e dimensão são imutáveis.
func UpdateTarget(service targeting.Targeter) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.ForContext(r.Context())

		id, err := strconv.Atoi(httprouter.ParamsFromContext(r.Context()).ByName("id"))
		if err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, "ID da meta inválido", nil)
			return
		}

		var req UpdateTargetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.WithError(err).Warn("targets: corpo de requisição inválido")
			apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, "Erro ao decodificar requisição", nil)
			return
		}

		if err := service.UpdateTargetValue(id, req.TargetValue, req.Currency); err != nil {
			switch {
			case errors.Is(err, targeting.ErrTargetNotFound):
				apiErrors.WriteError(w, apiErrors.ErrNotFound, "Meta não encontrada", nil)
			case errors.Is(err, targeting.ErrInvalidTargetValue):
				apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, err.Error(), nil)
			default:
				logger.WithError(err).WithField("target_id", id).Error("targets: erro ao atualizar meta")
				apiErrors.WriteError(w, apiErrors.ErrDatabaseOperation, "Erro ao atualizar meta", nil)
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
	})
}

// DeleteTarget remove uma meta.
func DeleteTarget(service targeting.Targeter) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.ForContext(r.Context())

		id, err := strconv.Atoi(httprouter.ParamsFromContext(r.Context()).ByName("id"))
		if err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, "ID da meta inválido", nil)
			return
		}

		if err := service.DeleteTarget(id); err != nil {
			if errors.Is(err, targeting.ErrTargetNotFound) {
				apiErrors.WriteError(w, apiErrors.ErrNotFound, "Meta não encontrada", nil)
				return
			}

			logger.WithError(err).WithField("target_id", id).Error("targets: erro ao excluir meta")
			apiErrors.WriteError(w, apiErrors.ErrDatabaseOperation, "Erro ao excluir meta", nil)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	})
}

// GetAchievement computa o relatório de atingimento para a data informada.
func GetAchievement(service achieving.Achiever) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.ForContext(r.Context())

		date, err := parseReferenceDate(r)
		if err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, "Data de referência inválida", nil)
			return
		}

		logger.WithField("reference_date", date.Format(time.DateOnly)).
			Debug("targets: computando relatório de atingimento")

		report, err := service.ComputeAchievement(date)
		if err != nil {
			logger.WithError(err).Error("targets: erro ao computar atingimento")
			apiErrors.WriteError(w, apiErrors.ErrDatabaseOperation, "Erro ao computar atingimento", nil)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(report); err != nil {
			logger.WithError(err).Error("targets: erro ao codificar resposta")
			apiErrors.WriteError(w, apiErrors.ErrInternalServer, "Erro ao enviar resposta", nil)
		}
	})
}

func parseReferenceDate(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return time.Now(), nil
	}
	return time.Parse(time.DateOnly, raw)
}
