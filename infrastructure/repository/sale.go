// Package repository contém as implementações dos repositórios para acesso aos dados
package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"github.com/vfarias/sales-analytics-api/infrastructure/database/postgres"
	"github.com/vfarias/sales-analytics-api/internal/domain"
)

const (
	salesTable    = "sales s"
	productsTable = "products p"

	salesColumns = "s.invoice_id, s.date, s.customer_id, s.sales_unit_id, s.material_id, " +
		"s.sales_rep_id, s.quantity, s.price, s.discount, s.freight, s.item_net, s.item_tax, " +
		"s.item_gross, s.invoice_net, s.invoice_tax, s.invoice_gross, s.currency, s.created_at, s.updated_at"
)

// filterAll é o valor de filtro que não restringe a consulta.
const filterAll = "all"

// groupExpression mapeia um agrupamento da enumeração fechada para a expressão
// SQL correspondente. Apenas o tag do enum seleciona a expressão; valores de
// filtro entram sempre como parâmetros ligados.
type groupExpression struct {
	expr         string
	joinProducts bool
}

var groupExpressions = map[domain.GroupBy]groupExpression{
	domain.GroupByDate:      {expr: "to_char(s.date, 'YYYY-MM-DD')"},
	domain.GroupByMonth:     {expr: "to_char(s.date, 'YYYY-MM')"},
	domain.GroupByCategory:  {expr: "COALESCE(p.category, 'Sem categoria')", joinProducts: true},
	domain.GroupByCustomer:  {expr: "s.customer_id"},
	domain.GroupBySalesUnit: {expr: "s.sales_unit_id"},
	domain.GroupByMaterial:  {expr: "s.material_id"},
	domain.GroupBySalesRep:  {expr: "s.sales_rep_id"},
}

var aggregateExpressions = map[domain.AggregationFunc]string{
	domain.AggregationSum:   "COALESCE(SUM(s.item_net), 0)",
	domain.AggregationAvg:   "COALESCE(AVG(s.item_net), 0)",
	domain.AggregationCount: "COUNT(*)",
	domain.AggregationMin:   "COALESCE(MIN(s.item_net), 0)",
	domain.AggregationMax:   "COALESCE(MAX(s.item_net), 0)",
}

type SaleRepository interface {
	GetByInvoiceID(q postgres.Queryer, invoiceID string) (*domain.SalesLine, error)
	Insert(q postgres.Queryer, sale *domain.SalesLine) error
	Update(q postgres.Queryer, sale *domain.SalesLine) error
	Delete(q postgres.Queryer, invoiceID string) error
	List(q postgres.Queryer, filter domain.SalesFilter) ([]*domain.SalesLine, error)
	Aggregate(q postgres.Queryer, req domain.AggregationRequest) ([]domain.AggregationRow, error)
	GetSummary(q postgres.Queryer, filter domain.SalesFilter) (*domain.SalesSummary, error)
	SumNet(q postgres.Queryer, filter domain.SalesFilter) (float64, error)
}

type saleRepository struct{}

func NewSaleRepository() SaleRepository {
	return &saleRepository{}
}

// IsUniqueViolation identifica violação de constraint de unicidade do
// Postgres, mesmo quando o erro do driver foi encadeado pelos repositórios.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

func (r *saleRepository) GetByInvoiceID(q postgres.Queryer, invoiceID string) (*domain.SalesLine, error) {
	query, args, err := squirrel.
		Select(salesColumns).
		From(salesTable).
		Where(squirrel.Eq{"s.invoice_id": invoiceID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("erro ao construir a query: %w", err)
	}

	sale, err := scanSale(q.QueryRow(query, args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("erro ao escanear venda: %w", err)
	}

	return sale, nil
}

func (r *saleRepository) Insert(q postgres.Queryer, sale *domain.SalesLine) error {
	query, args, err := squirrel.
		Insert("sales").
		Columns(
			"invoice_id", "date", "customer_id", "sales_unit_id", "material_id", "sales_rep_id",
			"quantity", "price", "discount", "freight", "item_net", "item_tax", "item_gross",
			"invoice_net", "invoice_tax", "invoice_gross", "currency",
		).
		Values(
			sale.InvoiceID, sale.Date.Format(time.DateOnly), sale.CustomerID, sale.SalesUnitID,
			sale.MaterialID, sale.SalesRepID, sale.Quantity, sale.Price, sale.Discount,
			sale.Freight, sale.ItemNet, sale.ItemTax, sale.ItemGross, sale.InvoiceNet,
			sale.InvoiceTax, sale.InvoiceGross, sale.Currency,
		).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("erro ao construir a query: %w", err)
	}

	if _, err := q.Exec(query, args...); err != nil {
		return fmt.Errorf("erro ao inserir venda %s: %w", sale.InvoiceID, err)
	}

	return nil
}

// Update atualiza todos os campos da linha exceto o invoice_id, que é imutável.
func (r *saleRepository) Update(q postgres.Queryer, sale *domain.SalesLine) error {
	query, args, err := squirrel.
		Update("sales").
		Set("date", sale.Date.Format(time.DateOnly)).
		Set("customer_id", sale.CustomerID).
		Set("sales_unit_id", sale.SalesUnitID).
		Set("material_id", sale.MaterialID).
		Set("sales_rep_id", sale.SalesRepID).
		Set("quantity", sale.Quantity).
		Set("price", sale.Price).
		Set("discount", sale.Discount).
		Set("freight", sale.Freight).
		Set("item_net", sale.ItemNet).
		Set("item_tax", sale.ItemTax).
		Set("item_gross", sale.ItemGross).
		Set("invoice_net", sale.InvoiceNet).
		Set("invoice_tax", sale.InvoiceTax).
		Set("invoice_gross", sale.InvoiceGross).
		Set("currency", sale.Currency).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"invoice_id": sale.InvoiceID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("erro ao construir a query: %w", err)
	}

	if _, err := q.Exec(query, args...); err != nil {
		return fmt.Errorf("erro ao atualizar venda %s: %w", sale.InvoiceID, err)
	}

	return nil
}

func (r *saleRepository) Delete(q postgres.Queryer, invoiceID string) error {
	query, args, err := squirrel.
		Delete("sales").
		Where(squirrel.Eq{"invoice_id": invoiceID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("erro ao construir a query: %w", err)
	}

	if _, err := q.Exec(query, args...); err != nil {
		return fmt.Errorf("erro ao excluir venda %s: %w", invoiceID, err)
	}

	return nil
}

func (r *saleRepository) List(q postgres.Queryer, filter domain.SalesFilter) ([]*domain.SalesLine, error) {
	qb := squirrel.
		Select(salesColumns).
		From(salesTable).
		OrderBy("s.date DESC", "s.invoice_id ASC").
		PlaceholderFormat(squirrel.Dollar)

	qb = applyFilter(qb, filter)

	if filter.Limit > 0 {
		qb = qb.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		qb = qb.Offset(uint64(filter.Offset))
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("erro ao construir a query: %w", err)
	}

	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("erro ao executar a query: %w", err)
	}
	defer rows.Close()

	sales := make([]*domain.SalesLine, 0)
	for rows.Next() {
		sale, err := scanSaleRows(rows)
		if err != nil {
			return nil, fmt.Errorf("erro ao escanear vendas: %w", err)
		}
		sales = append(sales, sale)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("erro durante a iteração de linhas: %w", err)
	}

	return sales, nil
}

// Aggregate executa a consulta agregada do motor de agregação. A expressão de
// agrupamento e a função agregada vêm exclusivamente dos mapas fechados acima;
// o chamador valida os enums antes de chegar aqui.
func (r *saleRepository) Aggregate(q postgres.Queryer, req domain.AggregationRequest) ([]domain.AggregationRow, error) {
	group, ok := groupExpressions[req.GroupBy]
	if !ok {
		return nil, fmt.Errorf("agrupamento desconhecido: %s", req.GroupBy)
	}

	aggregate, ok := aggregateExpressions[req.Aggregation]
	if !ok {
		return nil, fmt.Errorf("função de agregação desconhecida: %s", req.Aggregation)
	}

	qb := squirrel.
		Select(group.expr+" AS label", aggregate+" AS value").
		From(salesTable).
		GroupBy(group.expr).
		PlaceholderFormat(squirrel.Dollar)

	if group.joinProducts || hasCategoryFilter(req.Filter) {
		qb = qb.LeftJoin(productsTable + " ON p.material_id = s.material_id")
	}

	qb = applyFilter(qb, req.Filter)

	// Cronológico para date/month; demais dimensões por valor decrescente,
	// prontas para consumo "top N" sem reordenação posterior.
	if req.GroupBy.Chronological() {
		qb = qb.OrderBy("label ASC")
	} else {
		qb = qb.OrderBy("value DESC", "label ASC")
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("erro ao construir a query: %w", err)
	}

	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("erro ao executar a query: %w", err)
	}
	defer rows.Close()

	result := make([]domain.AggregationRow, 0)
	for rows.Next() {
		var row domain.AggregationRow
		if err := rows.Scan(&row.Label, &row.Value); err != nil {
			return nil, fmt.Errorf("erro ao escanear agregação: %w", err)
		}
		result = append(result, row)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("erro durante a iteração de linhas: %w", err)
	}

	return result, nil
}

func (r *saleRepository) GetSummary(q postgres.Queryer, filter domain.SalesFilter) (*domain.SalesSummary, error) {
	qb := squirrel.
		Select(
			"COALESCE(SUM(s.item_net), 0)",
			"COALESCE(AVG(s.item_net), 0)",
			"COALESCE(MIN(s.item_net), 0)",
			"COALESCE(MAX(s.item_net), 0)",
			"COALESCE(SUM(s.quantity), 0)",
			"COUNT(*)",
			"MIN(s.date)",
			"MAX(s.date)",
			"COUNT(DISTINCT s.customer_id)",
			"COUNT(DISTINCT s.material_id)",
			"COUNT(DISTINCT s.sales_rep_id)",
		).
		From(salesTable).
		PlaceholderFormat(squirrel.Dollar)

	if hasCategoryFilter(filter) {
		qb = qb.LeftJoin(productsTable + " ON p.material_id = s.material_id")
	}

	qb = applyFilter(qb, filter)

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("erro ao construir a query: %w", err)
	}

	summary := &domain.SalesSummary{}
	var firstDate, lastDate sql.NullTime

	err = q.QueryRow(query, args...).Scan(
		&summary.TotalSales,
		&summary.AverageSale,
		&summary.MinSale,
		&summary.MaxSale,
		&summary.TotalQuantity,
		&summary.LineCount,
		&firstDate,
		&lastDate,
		&summary.DistinctCustomers,
		&summary.DistinctMaterials,
		&summary.DistinctReps,
	)
	if err != nil {
		return nil, fmt.Errorf("erro ao escanear resumo de vendas: %w", err)
	}

	if firstDate.Valid {
		summary.FirstSaleDate = &firstDate.Time
	}
	if lastDate.Valid {
		summary.LastSaleDate = &lastDate.Time
	}

	return summary, nil
}

// SumNet devolve apenas o total de item_net da fatia filtrada, usado pelo
// cálculo de atingimento de metas.
func (r *saleRepository) SumNet(q postgres.Queryer, filter domain.SalesFilter) (float64, error) {
	qb := squirrel.
		Select("COALESCE(SUM(s.item_net), 0)").
		From(salesTable).
		PlaceholderFormat(squirrel.Dollar)

	if hasCategoryFilter(filter) {
		qb = qb.LeftJoin(productsTable + " ON p.material_id = s.material_id")
	}

	qb = applyFilter(qb, filter)

	query, args, err := qb.ToSql()
	if err != nil {
		return 0, fmt.Errorf("erro ao construir a query: %w", err)
	}

	var total float64
	if err := q.QueryRow(query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("erro ao escanear total de vendas: %w", err)
	}

	return total, nil
}

// applyFilter aplica os predicados estruturados do filtro. Valores vazios ou
// "all" não restringem; todos os valores entram como parâmetros ligados.
func applyFilter(qb squirrel.SelectBuilder, filter domain.SalesFilter) squirrel.SelectBuilder {
	if filter.StartDate != nil {
		qb = qb.Where(squirrel.GtOrEq{"s.date": filter.StartDate.Format(time.DateOnly)})
	}
	if filter.EndDate != nil {
		qb = qb.Where(squirrel.LtOrEq{"s.date": filter.EndDate.Format(time.DateOnly)})
	}
	if v := filterValue(filter.Customer); v != "" {
		qb = qb.Where(squirrel.Eq{"s.customer_id": v})
	}
	if v := filterValue(filter.SalesUnit); v != "" {
		qb = qb.Where(squirrel.Eq{"s.sales_unit_id": v})
	}
	if v := filterValue(filter.Material); v != "" {
		qb = qb.Where(squirrel.Eq{"s.material_id": v})
	}
	if v := filterValue(filter.Category); v != "" {
		qb = qb.Where(squirrel.Eq{"p.category": v})
	}
	if v := filterValue(filter.SalesRep); v != "" {
		qb = qb.Where(squirrel.Eq{"s.sales_rep_id": v})
	}

	return qb
}

func hasCategoryFilter(filter domain.SalesFilter) bool {
	return filterValue(filter.Category) != ""
}

func filterValue(v string) string {
	if v == filterAll {
		return ""
	}
	return v
}

func scanSale(row *sql.Row) (*domain.SalesLine, error) {
	sale := &domain.SalesLine{}
	err := row.Scan(
		&sale.InvoiceID, &sale.Date, &sale.CustomerID, &sale.SalesUnitID, &sale.MaterialID,
		&sale.SalesRepID, &sale.Quantity, &sale.Price, &sale.Discount, &sale.Freight,
		&sale.ItemNet, &sale.ItemTax, &sale.ItemGross, &sale.InvoiceNet, &sale.InvoiceTax,
		&sale.InvoiceGross, &sale.Currency, &sale.CreatedAt, &sale.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return sale, nil
}

func scanSaleRows(rows *sql.Rows) (*domain.SalesLine, error) {
	sale := &domain.SalesLine{}
	err := rows.Scan(
		&sale.InvoiceID, &sale.Date, &sale.CustomerID, &sale.SalesUnitID, &sale.MaterialID,
		&sale.SalesRepID, &sale.Quantity, &sale.Price, &sale.Discount, &sale.Freight,
		&sale.ItemNet, &sale.ItemTax, &sale.ItemGross, &sale.InvoiceNet, &sale.InvoiceTax,
		&sale.InvoiceGross, &sale.Currency, &sale.CreatedAt, &sale.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return sale, nil
}
