package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/vfarias/sales-analytics-api/internal/domain"
	"github.com/vfarias/sales-analytics-api/internal/usecases/selling"
	"github.com/vfarias/sales-analytics-api/pkg/apiErrors"
	"github.com/vfarias/sales-analytics-api/pkg/log"
)

// ImportRequest é o corpo da importação em lote: linhas tabulares já
// convertidas para mapas chave→valor pelo cliente, mais as opções.
type ImportRequest struct {
	Rows    []map[string]any     `json:"rows"`
	Options domain.ImportOptions `json:"options"`
}

// importRow é a forma intermediária de uma linha antes da coerção de tipos.
// A decodificação fraca aceita números como string e vice-versa, como chegam
// de planilhas exportadas.
type importRow struct {
	InvoiceID    string  `mapstructure:"invoice_id"`
	Date         string  `mapstructure:"date"`
	CustomerID   string  `mapstructure:"customer_id"`
	SalesUnitID  string  `mapstructure:"sales_unit_id"`
	MaterialID   string  `mapstructure:"material_id"`
	SalesRepID   string  `mapstructure:"sales_rep_id"`
	Quantity     int     `mapstructure:"quantity"`
	Price        float64 `mapstructure:"price"`
	Discount     float64 `mapstructure:"discount"`
	Freight      float64 `mapstructure:"freight"`
	ItemNet      float64 `mapstructure:"item_net"`
	ItemTax      float64 `mapstructure:"item_tax"`
	ItemGross    float64 `mapstructure:"item_gross"`
	InvoiceNet   float64 `mapstructure:"invoice_net"`
	InvoiceTax   float64 `mapstructure:"invoice_tax"`
	InvoiceGross float64 `mapstructure:"invoice_gross"`
	Currency     string  `mapstructure:"currency"`
}

// dateLayouts são os formatos de data aceitos na importação, normalizados
// para YYYY-MM-DD antes de chegar ao importador.
var dateLayouts = []string{time.DateOnly, "02/01/2006", "01-02-2006", time.RFC3339}

// ImportSales recebe o lote tabular, normaliza cada linha e delega ao
// importador transacional. Linhas que falham na normalização entram na lista
// de erros do resultado sem impedir a importação das demais.
func ImportSales(service selling.Seller) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.ForContext(r.Context())

		var req ImportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.WithError(err).Warn("import: corpo de requisição inválido")
			apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, "Erro ao decodificar requisição", nil)
			return
		}

		if len(req.Rows) == 0 {
			apiErrors.WriteError(w, apiErrors.ErrMissingRequiredData, "Nenhuma linha para importar", nil)
			return
		}

		logger.WithField("total_rows", len(req.Rows)).Info("import: iniciando importação em lote")

		lines := make([]*domain.SalesLine, 0, len(req.Rows))
		preErrors := make([]domain.ImportRowError, 0)

		for i, raw := range req.Rows {
			line, err := normalizeImportRow(raw)
			if err != nil {
				invoiceID, _ := raw["invoice_id"].(string)
				if invoiceID == "" {
					invoiceID = fmt.Sprintf("linha %d", i+1)
				}
				preErrors = append(preErrors, domain.ImportRowError{
					InvoiceID: invoiceID,
					Message:   err.Error(),
				})
				continue
			}
			lines = append(lines, line)
		}

		result, err := service.ImportBatch(r.Context(), lines, req.Options)
		if err != nil {
			logger.WithError(err).Error("import: falha transacional na importação em lote")
			apiErrors.WriteError(w, apiErrors.ErrDatabaseOperation, "Erro na importação em lote", nil)
			return
		}

		// Mesclar os erros de normalização no resultado, respeitando o limite.
		result.TotalRows = len(req.Rows)
		for _, rowErr := range preErrors {
			result.AddError(rowErr.InvoiceID, rowErr.Message)
		}

		logger.WithFields(log.Fields{
			"total_rows": result.TotalRows,
			"imported":   result.ImportedCount,
			"errors":     result.ErrorCount,
		}).Info("import: importação em lote concluída")

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(result); err != nil {
			logger.WithError(err).Error("import: erro ao codificar resposta")
			apiErrors.WriteError(w, apiErrors.ErrInternalServer, "Erro ao enviar resposta", nil)
		}
	})
}

// normalizeImportRow decodifica o mapa bruto com coerção fraca de tipos e
// normaliza a data. Campos obrigatórios ausentes tornam a linha inválida.
func normalizeImportRow(raw map[string]any) (*domain.SalesLine, error) {
	var row importRow

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &row,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("linha inválida: %w", err)
	}

	if row.InvoiceID == "" {
		return nil, fmt.Errorf("invoice_id é obrigatório")
	}
	if row.Date == "" {
		return nil, fmt.Errorf("data é obrigatória")
	}

	date, err := parseImportDate(row.Date)
	if err != nil {
		return nil, fmt.Errorf("data inválida %q", row.Date)
	}

	return &domain.SalesLine{
		InvoiceID:    row.InvoiceID,
		Date:         date,
		CustomerID:   row.CustomerID,
		SalesUnitID:  row.SalesUnitID,
		MaterialID:   row.MaterialID,
		SalesRepID:   row.SalesRepID,
		Quantity:     row.Quantity,
		Price:        row.Price,
		Discount:     row.Discount,
		Freight:      row.Freight,
		ItemNet:      row.ItemNet,
		ItemTax:      row.ItemTax,
		ItemGross:    row.ItemGross,
		InvoiceNet:   row.InvoiceNet,
		InvoiceTax:   row.InvoiceTax,
		InvoiceGross: row.InvoiceGross,
		Currency:     row.Currency,
	}, nil
}

func parseImportDate(raw string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		date, err := time.Parse(layout, raw)
		if err == nil {
			return date, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
