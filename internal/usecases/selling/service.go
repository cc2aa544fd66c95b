// Package selling implementa o CRUD do razão de vendas e a importação em
// lote com tolerância a falhas parciais.
package selling

import (
	"context"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"github.com/vfarias/sales-analytics-api/infrastructure/database/postgres"
	"github.com/vfarias/sales-analytics-api/infrastructure/repository"
	"github.com/vfarias/sales-analytics-api/internal/domain"
)

// consistencyTolerance é a divergência aceita entre o bruto informado e o
// recomputado (quantidade×preço − desconto + frete) antes de emitir aviso.
const consistencyTolerance = 0.01

type Seller interface {
	GetSale(invoiceID string) (*domain.SalesLine, error)
	ListSales(filter domain.SalesFilter) ([]*domain.SalesLine, error)
	CreateSale(sale *domain.SalesLine) error
	UpdateSale(sale *domain.SalesLine) error
	DeleteSale(invoiceID string) error
	ImportBatch(ctx context.Context, rows []*domain.SalesLine, opts domain.ImportOptions) (*domain.ImportResult, error)
	GetProduct(materialID string) (*domain.Product, error)
	UpsertProduct(product *domain.Product) error
	ListCategories() ([]string, error)
}

type Service struct {
	conn        postgres.Conn
	saleRepo    repository.SaleRepository
	productRepo repository.ProductRepository
	activityLog repository.ActivityLogRepository
}

func NewService(
	conn postgres.Conn,
	saleRepo repository.SaleRepository,
	productRepo repository.ProductRepository,
	activityLog repository.ActivityLogRepository,
) *Service {
	return &Service{
		conn:        conn,
		saleRepo:    saleRepo,
		productRepo: productRepo,
		activityLog: activityLog,
	}
}

func (s *Service) GetSale(invoiceID string) (*domain.SalesLine, error) {
	sale, err := s.saleRepo.GetByInvoiceID(s.conn, invoiceID)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, ErrSaleNotFound
	}

	return sale, nil
}

func (s *Service) ListSales(filter domain.SalesFilter) ([]*domain.SalesLine, error) {
	return s.saleRepo.List(s.conn, filter)
}

func (s *Service) CreateSale(sale *domain.SalesLine) error {
	if err := validateSale(sale); err != nil {
		return err
	}

	existing, err := s.saleRepo.GetByInvoiceID(s.conn, sale.InvoiceID)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrDuplicateInvoice
	}

	warnInconsistentAmounts(sale)

	return s.saleRepo.Insert(s.conn, sale)
}

func (s *Service) UpdateSale(sale *domain.SalesLine) error {
	if err := validateSale(sale); err != nil {
		return err
	}

	existing, err := s.saleRepo.GetByInvoiceID(s.conn, sale.InvoiceID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrSaleNotFound
	}

	warnInconsistentAmounts(sale)

	return s.saleRepo.Update(s.conn, sale)
}

func (s *Service) DeleteSale(invoiceID string) error {
	existing, err := s.saleRepo.GetByInvoiceID(s.conn, invoiceID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrSaleNotFound
	}

	return s.saleRepo.Delete(s.conn, invoiceID)
}

// ImportBatch executa a máquina de estados por linha dentro de uma única
// transação: ausente → inserir; presente com updateExisting → atualizar;
// presente sem updateExisting → erro de duplicidade da linha. Falhas de
// linha são registradas e o processamento continua; apenas a falha da
// própria transação aborta o lote inteiro.
//
// Cada linha roda sob um savepoint: no Postgres um comando que falha aborta a
// transação inteira, então a falha de uma linha é revertida até o savepoint
// antes de seguir para a próxima. Falhas nos próprios comandos de savepoint
// são fatais para o lote.
func (s *Service) ImportBatch(
	ctx context.Context,
	rows []*domain.SalesLine,
	opts domain.ImportOptions,
) (*domain.ImportResult, error) {
	result := &domain.ImportResult{
		TotalRows: len(rows),
		Errors:    make([]domain.ImportRowError, 0),
	}

	err := s.conn.RunInTransaction(ctx, func(q postgres.Queryer) error {
		for i, row := range rows {
			invoiceID := row.InvoiceID
			if invoiceID == "" {
				invoiceID = fmt.Sprintf("linha %d", i+1)
			}

			if err := validateSale(row); err != nil {
				result.AddError(invoiceID, err.Error())
				continue
			}

			warnInconsistentAmounts(row)

			if _, err := q.Exec("SAVEPOINT import_row"); err != nil {
				return fmt.Errorf("erro ao criar savepoint de importação: %w", err)
			}

			if rowErr := s.applyImportRow(q, row, opts); rowErr != nil {
				if _, err := q.Exec("ROLLBACK TO SAVEPOINT import_row"); err != nil {
					return fmt.Errorf("erro ao reverter savepoint de importação: %w", err)
				}
				result.AddError(invoiceID, rowErr.Error())
				continue
			}

			if _, err := q.Exec("RELEASE SAVEPOINT import_row"); err != nil {
				return fmt.Errorf("erro ao liberar savepoint de importação: %w", err)
			}
			result.ImportedCount++
		}

		return nil
	})
	if err != nil {
		logrus.WithError(err).Error("Erro na transação de importação em lote")
		return nil, fmt.Errorf("erro na importação em lote: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"total_rows": result.TotalRows,
		"imported":   result.ImportedCount,
		"errors":     result.ErrorCount,
	}).Info("Importação em lote concluída")

	s.recordActivity("sales.import", map[string]any{
		"total_rows": result.TotalRows,
		"imported":   result.ImportedCount,
		"errors":     result.ErrorCount,
	})

	return result, nil
}

// applyImportRow resolve uma única linha contra o razão. Qualquer erro
// devolvido é tratado como falha da linha pelo chamador, que reverte até o
// savepoint; violações de unicidade viram erro de duplicidade, cobrindo a
// corrida entre a consulta de existência e o insert.
func (s *Service) applyImportRow(q postgres.Queryer, row *domain.SalesLine, opts domain.ImportOptions) error {
	existing, err := s.saleRepo.GetByInvoiceID(q, row.InvoiceID)
	if err != nil {
		return err
	}

	if existing == nil {
		if err := s.saleRepo.Insert(q, row); err != nil {
			if repository.IsUniqueViolation(err) {
				return ErrDuplicateInvoice
			}
			return err
		}
		return nil
	}

	if !opts.UpdateExisting {
		return ErrDuplicateInvoice
	}

	return s.saleRepo.Update(q, row)
}

func (s *Service) GetProduct(materialID string) (*domain.Product, error) {
	product, err := s.productRepo.GetByMaterialID(s.conn, materialID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	return product, nil
}

func (s *Service) UpsertProduct(product *domain.Product) error {
	if product.MaterialID == "" {
		return ErrMissingRequiredData
	}

	return s.productRepo.Upsert(s.conn, product)
}

// ListCategories devolve as categorias distintas do cadastro de materiais,
// usadas para popular o filtro de categoria da agregação.
func (s *Service) ListCategories() ([]string, error) {
	return s.productRepo.ListCategories(s.conn)
}

func validateSale(sale *domain.SalesLine) error {
	if sale.InvoiceID == "" || sale.Date.IsZero() {
		return ErrMissingRequiredData
	}

	if sale.Quantity < 0 {
		return fmt.Errorf("quantidade negativa na fatura %s", sale.InvoiceID)
	}

	return nil
}

// warnInconsistentAmounts compara o bruto informado com o recomputado a
// partir dos componentes. Valores informados são confiados mesmo quando
// divergem; a divergência é apenas sinalizada no log.
func warnInconsistentAmounts(sale *domain.SalesLine) {
	recomputed := float64(sale.Quantity)*sale.Price - sale.Discount + sale.Freight
	if math.Abs(recomputed-sale.ItemGross) > consistencyTolerance {
		logrus.WithFields(logrus.Fields{
			"invoice_id": sale.InvoiceID,
			"item_gross": sale.ItemGross,
			"recomputed": recomputed,
		}).Warn("Valores da linha de venda inconsistentes com os componentes")
	}
}

func (s *Service) recordActivity(action string, details map[string]any) {
	if s.activityLog == nil {
		return
	}

	entry := &domain.ActivityLog{
		Action:  action,
		Entity:  "sale",
		Details: details,
	}

	if err := s.activityLog.Record(s.conn, entry); err != nil {
		logrus.WithError(err).Warn("Erro ao gravar auditoria de vendas")
	}
}
