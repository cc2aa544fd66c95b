package selling

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/vfarias/sales-analytics-api/infrastructure/database/postgres"
	"github.com/vfarias/sales-analytics-api/infrastructure/repository/mocks"
	"github.com/vfarias/sales-analytics-api/internal/domain"
	"go.uber.org/mock/gomock"
)

type stubConn struct{}

func (stubConn) Exec(query string, args ...any) (sql.Result, error) { return nil, nil }
func (stubConn) Query(query string, args ...any) (*sql.Rows, error) { return nil, nil }
func (stubConn) QueryRow(query string, args ...any) *sql.Row        { return nil }
func (stubConn) Close() error                                       { return nil }
func (stubConn) Ping(ctx context.Context) error                     { return nil }
func (c stubConn) RunInTransaction(ctx context.Context, fn func(q postgres.Queryer) error) error {
	return fn(c)
}

// savepointConn registra os comandos executados diretamente na transação,
// para verificar o protocolo de savepoints da importação.
type savepointConn struct {
	stubConn
	statements []string
}

func (c *savepointConn) Exec(query string, args ...any) (sql.Result, error) {
	c.statements = append(c.statements, query)
	return nil, nil
}

func (c *savepointConn) RunInTransaction(ctx context.Context, fn func(q postgres.Queryer) error) error {
	return fn(c)
}

func countStatements(statements []string, target string) int {
	count := 0
	for _, statement := range statements {
		if statement == target {
			count++
		}
	}
	return count
}

func testDate() time.Time {
	return time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC)
}

func makeRows(n int) []*domain.SalesLine {
	rows := make([]*domain.SalesLine, 0, n)
	for i := 1; i <= n; i++ {
		rows = append(rows, &domain.SalesLine{
			InvoiceID: fmt.Sprintf("INV-%03d", i),
			Date:      testDate(),
			Quantity:  1,
			Price:     100,
			ItemNet:   100,
			ItemGross: 100,
		})
	}
	return rows
}

func TestService_ImportBatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSaleRepo := mocks.NewMockSaleRepository(ctrl)
	service := &Service{conn: stubConn{}, saleRepo: mockSaleRepo}

	tests := []struct {
		name     string
		rows     []*domain.SalesLine
		opts     domain.ImportOptions
		setup    func(rows []*domain.SalesLine)
		validate func(t *testing.T, result *domain.ImportResult, err error)
	}{
		{
			name: "Linha duplicada é registrada e as demais seguem",
			rows: makeRows(10),
			opts: domain.ImportOptions{UpdateExisting: false},
			setup: func(rows []*domain.SalesLine) {
				for i, row := range rows {
					if i == 4 {
						// A quinta linha já existe no razão
						mockSaleRepo.EXPECT().
							GetByInvoiceID(gomock.Any(), row.InvoiceID).
							Return(&domain.SalesLine{InvoiceID: row.InvoiceID}, nil)
						continue
					}
					mockSaleRepo.EXPECT().
						GetByInvoiceID(gomock.Any(), row.InvoiceID).
						Return(nil, nil)
					mockSaleRepo.EXPECT().
						Insert(gomock.Any(), row).
						Return(nil)
				}
			},
			validate: func(t *testing.T, result *domain.ImportResult, err error) {
				assert.NoError(t, err)
				assert.Equal(t, 10, result.TotalRows)
				assert.Equal(t, 9, result.ImportedCount)
				assert.Equal(t, 1, result.ErrorCount)
				assert.Len(t, result.Errors, 1)
				assert.Equal(t, "INV-005", result.Errors[0].InvoiceID)
			},
		},
		{
			name: "Com updateExisting a linha duplicada é atualizada",
			rows: makeRows(2),
			opts: domain.ImportOptions{UpdateExisting: true},
			setup: func(rows []*domain.SalesLine) {
				mockSaleRepo.EXPECT().
					GetByInvoiceID(gomock.Any(), "INV-001").
					Return(&domain.SalesLine{InvoiceID: "INV-001"}, nil)
				mockSaleRepo.EXPECT().
					Update(gomock.Any(), rows[0]).
					Return(nil)

				mockSaleRepo.EXPECT().
					GetByInvoiceID(gomock.Any(), "INV-002").
					Return(nil, nil)
				mockSaleRepo.EXPECT().
					Insert(gomock.Any(), rows[1]).
					Return(nil)
			},
			validate: func(t *testing.T, result *domain.ImportResult, err error) {
				assert.NoError(t, err)
				assert.Equal(t, 2, result.ImportedCount)
				assert.Equal(t, 0, result.ErrorCount)
			},
		},
		{
			name: "Linhas sem dados obrigatórios falham sem consultar o banco",
			rows: []*domain.SalesLine{
				{InvoiceID: "", Date: testDate()},
				{InvoiceID: "INV-001"}, // sem data
				{InvoiceID: "INV-002", Date: testDate(), Quantity: -1},
			},
			opts:  domain.ImportOptions{},
			setup: func(rows []*domain.SalesLine) {},
			validate: func(t *testing.T, result *domain.ImportResult, err error) {
				assert.NoError(t, err)
				assert.Equal(t, 0, result.ImportedCount)
				assert.Equal(t, 3, result.ErrorCount)
				// Linha sem invoice_id é identificada pela posição
				assert.Equal(t, "linha 1", result.Errors[0].InvoiceID)
			},
		},
		{
			name: "A lista de erros é limitada mas os contadores são reais",
			rows: func() []*domain.SalesLine {
				rows := make([]*domain.SalesLine, 0, 15)
				for i := 0; i < 15; i++ {
					rows = append(rows, &domain.SalesLine{}) // todas inválidas
				}
				return rows
			}(),
			opts:  domain.ImportOptions{},
			setup: func(rows []*domain.SalesLine) {},
			validate: func(t *testing.T, result *domain.ImportResult, err error) {
				assert.NoError(t, err)
				assert.Equal(t, 15, result.TotalRows)
				assert.Equal(t, 15, result.ErrorCount)
				assert.Len(t, result.Errors, domain.MaxImportErrors)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup(tt.rows)

			result, err := service.ImportBatch(context.Background(), tt.rows, tt.opts)

			tt.validate(t, result, err)
		})
	}
}

func TestService_ImportBatch_UniqueViolation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSaleRepo := mocks.NewMockSaleRepository(ctrl)
	conn := &savepointConn{}
	service := &Service{conn: conn, saleRepo: mockSaleRepo}

	rows := makeRows(3)

	// A segunda linha estoura a constraint de unicidade no insert; as linhas
	// anterior e posterior devem ser preservadas.
	uniqueErr := fmt.Errorf("erro ao inserir venda %s: %w", rows[1].InvoiceID, &pq.Error{Code: "23505"})
	for i, row := range rows {
		mockSaleRepo.EXPECT().GetByInvoiceID(gomock.Any(), row.InvoiceID).Return(nil, nil)
		if i == 1 {
			mockSaleRepo.EXPECT().Insert(gomock.Any(), row).Return(uniqueErr)
			continue
		}
		mockSaleRepo.EXPECT().Insert(gomock.Any(), row).Return(nil)
	}

	result, err := service.ImportBatch(context.Background(), rows, domain.ImportOptions{})

	assert.NoError(t, err)
	assert.Equal(t, 3, result.TotalRows)
	assert.Equal(t, 2, result.ImportedCount)
	assert.Equal(t, 1, result.ErrorCount)
	assert.Equal(t, "INV-002", result.Errors[0].InvoiceID)
	assert.Equal(t, ErrDuplicateInvoice.Error(), result.Errors[0].Message)

	// Um savepoint por linha válida; só a linha que falhou é revertida
	assert.Equal(t, 3, countStatements(conn.statements, "SAVEPOINT import_row"))
	assert.Equal(t, 1, countStatements(conn.statements, "ROLLBACK TO SAVEPOINT import_row"))
	assert.Equal(t, 2, countStatements(conn.statements, "RELEASE SAVEPOINT import_row"))
}

func TestService_CreateSale(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSaleRepo := mocks.NewMockSaleRepository(ctrl)
	service := &Service{conn: stubConn{}, saleRepo: mockSaleRepo}

	tests := []struct {
		name     string
		sale     *domain.SalesLine
		setup    func(sale *domain.SalesLine)
		expected error
	}{
		{
			name: "Venda nova é inserida",
			sale: &domain.SalesLine{InvoiceID: "INV-001", Date: testDate(), Quantity: 1, Price: 100, ItemGross: 100},
			setup: func(sale *domain.SalesLine) {
				mockSaleRepo.EXPECT().GetByInvoiceID(gomock.Any(), "INV-001").Return(nil, nil)
				mockSaleRepo.EXPECT().Insert(gomock.Any(), sale).Return(nil)
			},
		},
		{
			name: "Invoice duplicado é rejeitado",
			sale: &domain.SalesLine{InvoiceID: "INV-001", Date: testDate()},
			setup: func(sale *domain.SalesLine) {
				mockSaleRepo.EXPECT().
					GetByInvoiceID(gomock.Any(), "INV-001").
					Return(&domain.SalesLine{InvoiceID: "INV-001"}, nil)
			},
			expected: ErrDuplicateInvoice,
		},
		{
			name:     "Dados obrigatórios ausentes são rejeitados antes do banco",
			sale:     &domain.SalesLine{InvoiceID: "INV-001"},
			setup:    func(sale *domain.SalesLine) {},
			expected: ErrMissingRequiredData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup(tt.sale)

			err := service.CreateSale(tt.sale)

			if tt.expected != nil {
				assert.ErrorIs(t, err, tt.expected)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestService_DeleteSale(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSaleRepo := mocks.NewMockSaleRepository(ctrl)
	service := &Service{conn: stubConn{}, saleRepo: mockSaleRepo}

	t.Run("Venda existente é removida", func(t *testing.T) {
		mockSaleRepo.EXPECT().
			GetByInvoiceID(gomock.Any(), "INV-001").
			Return(&domain.SalesLine{InvoiceID: "INV-001"}, nil)
		mockSaleRepo.EXPECT().Delete(gomock.Any(), "INV-001").Return(nil)

		assert.NoError(t, service.DeleteSale("INV-001"))
	})

	t.Run("Venda inexistente devolve ErrSaleNotFound", func(t *testing.T) {
		mockSaleRepo.EXPECT().GetByInvoiceID(gomock.Any(), "INV-404").Return(nil, nil)

		assert.ErrorIs(t, service.DeleteSale("INV-404"), ErrSaleNotFound)
	})
}

func TestService_Products(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockProductRepo := mocks.NewMockProductRepository(ctrl)
	service := &Service{conn: stubConn{}, productRepo: mockProductRepo}

	t.Run("Produto inexistente devolve ErrProductNotFound", func(t *testing.T) {
		mockProductRepo.EXPECT().GetByMaterialID(gomock.Any(), "MAT-404").Return(nil, nil)

		product, err := service.GetProduct("MAT-404")

		assert.ErrorIs(t, err, ErrProductNotFound)
		assert.Nil(t, product)
	})

	t.Run("Upsert exige material_id", func(t *testing.T) {
		assert.ErrorIs(t, service.UpsertProduct(&domain.Product{}), ErrMissingRequiredData)
	})

	t.Run("Categorias distintas do cadastro", func(t *testing.T) {
		mockProductRepo.EXPECT().
			ListCategories(gomock.Any()).
			Return([]string{"Filtros", "Lubrificantes"}, nil)

		categories, err := service.ListCategories()

		assert.NoError(t, err)
		assert.Equal(t, []string{"Filtros", "Lubrificantes"}, categories)
	})
}
