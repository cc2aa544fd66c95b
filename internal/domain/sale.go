package domain

import "time"

// SalesLine representa uma linha de fatura no razão de vendas.
// A chave natural é o invoice_id (uma linha por fatura+item), imutável após a criação.
type SalesLine struct {
	InvoiceID    string    `json:"invoice_id"`
	Date         time.Time `json:"date"`
	CustomerID   string    `json:"customer_id"`
	SalesUnitID  string    `json:"sales_unit_id"`
	MaterialID   string    `json:"material_id"`
	SalesRepID   string    `json:"sales_rep_id"`
	Quantity     int       `json:"quantity"`
	Price        float64   `json:"price"`
	Discount     float64   `json:"discount"`
	Freight      float64   `json:"freight"`
	ItemNet      float64   `json:"item_net"`
	ItemTax      float64   `json:"item_tax"`
	ItemGross    float64   `json:"item_gross"`
	InvoiceNet   float64   `json:"invoice_net"`
	InvoiceTax   float64   `json:"invoice_tax"`
	InvoiceGross float64   `json:"invoice_gross"`
	Currency     string    `json:"currency"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SalesFilter define os filtros opcionais aplicáveis sobre o razão de vendas.
// Um valor vazio ou "all" em um filtro dimensional não restringe a consulta.
type SalesFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Customer  string
	SalesUnit string
	Material  string
	Category  string
	SalesRep  string
	Limit     int
	Offset    int
}

// HasPeriod indica se o filtro tem uma janela de datas completa,
// pré-requisito para o cálculo do período anterior comparável.
func (f SalesFilter) HasPeriod() bool {
	return f.StartDate != nil && f.EndDate != nil
}

// SalesSummary consolida os totais de uma fatia filtrada do razão.
// GrowthRate e PreviousPeriodSales só são preenchidos quando o filtro
// tem startDate e endDate.
type SalesSummary struct {
	TotalSales          float64    `json:"total_sales"`
	AverageSale         float64    `json:"average_sale"`
	MinSale             float64    `json:"min_sale"`
	MaxSale             float64    `json:"max_sale"`
	TotalQuantity       int        `json:"total_quantity"`
	LineCount           int        `json:"line_count"`
	FirstSaleDate       *time.Time `json:"first_sale_date,omitempty"`
	LastSaleDate        *time.Time `json:"last_sale_date,omitempty"`
	DistinctCustomers   int        `json:"distinct_customers"`
	DistinctMaterials   int        `json:"distinct_materials"`
	DistinctReps        int        `json:"distinct_reps"`
	PreviousPeriodSales *float64   `json:"previous_period_sales,omitempty"`
	GrowthRate          *float64   `json:"growth_rate,omitempty"`
}

// Product é o cadastro de materiais usado para resolver a categoria
// de uma linha de venda (material_id → category).
type Product struct {
	MaterialID  string    `json:"material_id"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Unit        string    `json:"unit"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
