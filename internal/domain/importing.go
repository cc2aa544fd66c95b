package domain

// MaxImportErrors limita a lista de erros devolvida ao cliente em uma
// importação em lote. Os contadores refletem sempre os totais reais.
const MaxImportErrors = 10

// ImportOptions parametriza a importação em lote do razão de vendas.
type ImportOptions struct {
	UpdateExisting bool `json:"updateExisting"`
}

// ImportRowError descreve a falha de uma linha individual, chaveada pelo
// invoice_id da linha (ou pela posição quando a chave está ausente).
type ImportRowError struct {
	InvoiceID string `json:"invoice_id"`
	Message   string `json:"message"`
}

/// ImportResult resume uma importação em lote: totais reais e a lista de
// erros limitada a MaxImportErrors entradas.
type ImportResult struct {
	TotalRows     int              `json:"totalRows"`
	ImportedCount int              `json:"importedCount"`
	ErrorCount    int              `json:"errorCount"`
	Errors        []ImportRowError `json:"errors"`
}

// AddError registra a falha de uma linha respeitando o limite da lista.
func (r *ImportResult) AddError(invoiceID, message string) {
	r.ErrorCount++
	if len(r.Errors) < MaxImportErrors {
		r.Errors = append(r.Errors, ImportRowError{InvoiceID: invoiceID, Message: message})
	}
}
