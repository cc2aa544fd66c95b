package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/vfarias/sales-analytics-api/internal/domain"
	"github.com/vfarias/sales-analytics-api/internal/usecases/aggregating"
	"github.com/vfarias/sales-analytics-api/pkg/apiErrors"
	"github.com/vfarias/sales-analytics-api/pkg/log"
)

// Aggregate executa uma consulta agregada sobre o razão de vendas.
// Parâmetros: group_by, aggregation e os filtros opcionais de dimensão/data.
func Aggregate(service aggregating.Aggregator) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.ForContext(r.Context())

		filter, err := parseSalesFilter(r)
		if err != nil {
			logger.WithError(err).Warn("analytics: parâmetros de filtro inválidos")
			apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, err.Error(), nil)
			return
		}

		req := domain.AggregationRequest{
			Filter:      filter,
			GroupBy:     domain.GroupBy(r.URL.Query().Get("group_by")),
			Aggregation: domain.AggregationFunc(r.URL.Query().Get("aggregation")),
		}
		if req.Aggregation == "" {
			req.Aggregation = domain.AggregationSum
		}

		logger.WithFields(log.Fields{
			"group_by":    req.GroupBy,
			"aggregation": req.Aggregation,
		}).Debug("analytics: executando agregação")

		rows, err := service.Aggregate(req)
		if err != nil {
			if errors.Is(err, aggregating.ErrInvalidGroupBy) ||
				errors.Is(err, aggregating.ErrInvalidAggregation) ||
				errors.Is(err, aggregating.ErrInvalidDateRange) {
				apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, err.Error(), nil)
				return
			}

			logger.WithError(err).Error("analytics: erro ao executar agregação")
			apiErrors.WriteError(w, apiErrors.ErrDatabaseOperation, "Erro ao executar agregação", nil)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(rows); err != nil {
			logger.WithError(err).Error("analytics: erro ao codificar resposta")
			apiErrors.WriteError(w, apiErrors.ErrInternalServer, "Erro ao enviar resposta", nil)
		}
	})
}

// GetSummary consolida os totais da fatia filtrada, com comparação contra o
// período anterior quando a janela de datas está completa.
func GetSummary(service aggregating.Aggregator) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.ForContext(r.Context())

		filter, err := parseSalesFilter(r)
		if err != nil {
			logger.WithError(err).Warn("analytics: parâmetros de filtro inválidos")
			apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, err.Error(), nil)
			return
		}

		summary, err := service.GetSummary(filter)
		if err != nil {
			if errors.Is(err, aggregating.ErrInvalidDateRange) {
				apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, err.Error(), nil)
				return
			}

			logger.WithError(err).Error("analytics: erro ao calcular resumo de vendas")
			apiErrors.WriteError(w, apiErrors.ErrDatabaseOperation, "Erro ao calcular resumo de vendas", nil)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(summary); err != nil {
			logger.WithError(err).Error("analytics: erro ao codificar resposta")
			apiErrors.WriteError(w, apiErrors.ErrInternalServer, "Erro ao enviar resposta", nil)
		}
	})
}

// parseSalesFilter monta o filtro estruturado a partir da query string.
func parseSalesFilter(r *http.Request) (domain.SalesFilter, error) {
	query := r.URL.Query()

	filter := domain.SalesFilter{
		Customer:  query.Get("customer"),
		SalesUnit: query.Get("sales_unit"),
		Material:  query.Get("material"),
		Category:  query.Get("category"),
		SalesRep:  query.Get("sales_rep"),
	}

	if raw := query.Get("start_date"); raw != "" {
		date, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return domain.SalesFilter{}, err
		}
		filter.StartDate = &date
	}

	if raw := query.Get("end_date"); raw != "" {
		date, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return domain.SalesFilter{}, err
		}
		filter.EndDate = &date
	}

	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return domain.SalesFilter{}, err
		}
		filter.Limit = limit
	}

	if raw := query.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil {
			return domain.SalesFilter{}, err
		}
		filter.Offset = offset
	}

	return filter, nil
}
