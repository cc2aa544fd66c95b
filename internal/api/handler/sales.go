package handler

import (
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/vfarias/sales-analytics-api/internal/domain"
	"github.com/vfarias/sales-analytics-api/internal/usecases/selling"
	"github.com/vfarias/sales-analytics-api/pkg/apiErrors"
	"github.com/vfarias/sales-analytics-api/pkg/log"
)

// GetSale busca uma linha do razão pelo invoice_id.
func GetSale(service selling.Seller) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.ForContext(r.Context())

		invoiceID := httprouter.ParamsFromContext(r.Context()).ByName("id")
		if invoiceID == "" {
			apiErrors.WriteError(w, apiErrors.ErrMissingRequiredData, "invoice_id não fornecido", nil)
			return
		}

		sale, err := service.GetSale(invoiceID)
		if err != nil {
			if errors.Is(err, selling.ErrSaleNotFound) {
				apiErrors.WriteError(w, apiErrors.ErrNotFound, "Venda não encontrada", nil)
				return
			}

			logger.WithError(err).WithField("invoice_id", invoiceID).Error("sales: erro ao buscar venda")
			apiErrors.WriteError(w, apiErrors.ErrDatabaseOperation, "Erro ao buscar venda", nil)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(sale); err != nil {
			logger.WithError(err).Error("sales: erro ao codificar resposta")
			apiErrors.WriteError(w, apiErrors.ErrInternalServer, "Erro ao enviar resposta", nil)
		}
	})
}

// ListSales lista linhas do razão com os filtros opcionais de dimensão/data.
func ListSales(service selling.Seller) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.ForContext(r.Context())

		filter, err := parseSalesFilter(r)
		if err != nil {
			logger.WithError(err).Warn("sales: parâmetros de filtro inválidos")
			apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, err.Error(), nil)
			return
		}

		sales, err := service.ListSales(filter)
		if err != nil {
			logger.WithError(err).Error("sales: erro ao listar vendas")
			apiErrors.WriteError(w, apiErrors.ErrDatabaseOperation, "Erro ao listar vendas", nil)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(sales); err != nil {
			logger.WithError(err).Error("sales: erro ao codificar resposta")
			apiErrors.WriteError(w, apiErrors.ErrInternalServer, "Erro ao enviar resposta", nil)
		}
	})
}

// CreateSale insere uma nova linha no razão.
func CreateSale(service selling.Seller) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.ForContext(r.Context())

		var sale domain.SalesLine
		if err := json.NewDecoder(r.Body).Decode(&sale); err != nil {
			logger.WithError(err).Warn("sales: corpo de requisição inválido")
			apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, "Erro ao decodificar requisição", nil)
			return
		}

		if err := service.CreateSale(&sale); err != nil {
			switch {
			case errors.Is(err, selling.ErrDuplicateInvoice):
				apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, "Já existe venda com este invoice_id", nil)
			case errors.Is(err, selling.ErrMissingRequiredData):
				apiErrors.WriteError(w, apiErrors.ErrMissingRequiredData, "invoice_id e data são obrigatórios", nil)
			default:
				logger.WithError(err).Error("sales: erro ao criar venda")
				apiErrors.WriteError(w, apiErrors.ErrDatabaseOperation, "Erro ao criar venda", nil)
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		if err := json.NewEncoder(w).Encode(sale); err != nil {
			logger.WithError(err).Error("sales: erro ao codificar resposta")
		}
	})
}

// UpdateSale atualiza uma linha existente; o invoice_id da URL é imutável.
func UpdateSale(service selling.Seller) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.ForContext(r.Context())

		invoiceID := httprouter.ParamsFromContext(r.Context()).ByName("id")
		if invoiceID == "" {
			apiErrors.WriteError(w, apiErrors.ErrMissingRequiredData, "invoice_id não fornecido", nil)
			return
		}

		var sale domain.SalesLine
		if err := json.NewDecoder(r.Body).Decode(&sale); err != nil {
			logger.WithError(err).Warn("sales: corpo de requisição inválido")
			apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, "Erro ao decodificar requisição", nil)
			return
		}
		sale.InvoiceID = invoiceID

		if err := service.UpdateSale(&sale); err != nil {
			switch {
			case errors.Is(err, selling.ErrSaleNotFound):
				apiErrors.WriteError(w, apiErrors.ErrNotFound, "Venda não encontrada", nil)
			case errors.Is(err, selling.ErrMissingRequiredData):
				apiErrors.WriteError(w, apiErrors.ErrMissingRequiredData, "invoice_id e data são obrigatórios", nil)
			default:
				logger.WithError(err).WithField("invoice_id", invoiceID).Error("sales: erro ao atualizar venda")
				apiErrors.WriteError(w, apiErrors.ErrDatabaseOperation, "Erro ao atualizar venda", nil)
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
	})
}

// DeleteSale remove uma linha do razão. Metas nunca são afetadas.
func DeleteSale(service selling.Seller) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.ForContext(r.Context())

		invoiceID := httprouter.ParamsFromContext(r.Context()).ByName("id")
		if invoiceID == "" {
			apiErrors.WriteError(w, apiErrors.ErrMissingRequiredData, "invoice_id não fornecido", nil)
			return
		}

		if err := service.DeleteSale(invoiceID); err != nil {
			if errors.Is(err, selling.ErrSaleNotFound) {
				apiErrors.WriteError(w, apiErrors.ErrNotFound, "Venda não encontrada", nil)
				return
			}

			logger.WithError(err).WithField("invoice_id", invoiceID).Error("sales: erro ao excluir venda")
			apiErrors.WriteError(w, apiErrors.ErrDatabaseOperation, "Erro ao excluir venda", nil)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	})
}
