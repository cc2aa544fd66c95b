package selling

import "errors"

var (
	ErrSaleNotFound        = errors.New("venda não encontrada")
	ErrProductNotFound     = errors.New("produto não encontrado")
	ErrDuplicateInvoice    = errors.New("já existe venda com este invoice_id")
	ErrMissingRequiredData = errors.New("dados obrigatórios ausentes")
)
