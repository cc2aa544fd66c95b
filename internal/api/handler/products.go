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

// GetProduct busca um material do cadastro pelo material_id.
func GetProduct(service selling.Seller) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.ForContext(r.Context())

		materialID := httprouter.ParamsFromContext(r.Context()).ByName("id")
		if materialID == "" {
			apiErrors.WriteError(w, apiErrors.ErrMissingRequiredData, "material_id não fornecido", nil)
			return
		}

		product, err := service.GetProduct(materialID)
		if err != nil {
			if errors.Is(err, selling.ErrProductNotFound) {
				apiErrors.WriteError(w, apiErrors.ErrNotFound, "Produto não encontrado", nil)
				return
			}

			logger.WithError(err).WithField("material_id", materialID).Error("products: erro ao buscar produto")
			apiErrors.WriteError(w, apiErrors.ErrDatabaseOperation, "Erro ao buscar produto", nil)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(product); err != nil {
			logger.WithError(err).Error("products: erro ao codificar resposta")
			apiErrors.WriteError(w, apiErrors.ErrInternalServer, "Erro ao enviar resposta", nil)
		}
	})
}

// UpsertProduct cria ou atualiza um material do cadastro.
func UpsertProduct(service selling.Seller) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.ForContext(r.Context())

		var product domain.Product
		if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
			logger.WithError(err).Warn("products: corpo de requisição inválido")
			apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, "Erro ao decodificar requisição", nil)
			return
		}

		if err := service.UpsertProduct(&product); err != nil {
			if errors.Is(err, selling.ErrMissingRequiredData) {
				apiErrors.WriteError(w, apiErrors.ErrMissingRequiredData, "material_id é obrigatório", nil)
				return
			}

			logger.WithError(err).Error("products: erro ao gravar produto")
			apiErrors.WriteError(w, apiErrors.ErrDatabaseOperation, "Erro ao gravar produto", nil)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(product); err != nil {
			logger.WithError(err).Error("products: erro ao codificar resposta")
		}
	})
}

// ListProductCategories devolve as categorias distintas do cadastro, para
// popular o filtro de categoria da agregação.
func ListProductCategories(service selling.Seller) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.ForContext(r.Context())

		categories, err := service.ListCategories()
		if err != nil {
			logger.WithError(err).Error("products: erro ao listar categorias")
			apiErrors.WriteError(w, apiErrors.ErrDatabaseOperation, "Erro ao listar categorias", nil)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]any{"categories": categories}); err != nil {
			logger.WithError(err).Error("products: erro ao codificar resposta")
			apiErrors.WriteError(w, apiErrors.ErrInternalServer, "Erro ao enviar resposta", nil)
		}
	})
}
