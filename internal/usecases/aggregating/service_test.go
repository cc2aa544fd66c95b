package aggregating

import (
	"context"
	"database/sql"
	"testing"
	"time"

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

func datePtr(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &d
}

func TestService_Aggregate_Validation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	service := &Service{conn: stubConn{}, saleRepo: mocks.NewMockSaleRepository(ctrl)}

	tests := []struct {
		name     string
		req      domain.AggregationRequest
		expected error
	}{
		{
			name:     "Agrupamento fora da enumeração é rejeitado",
			req:      domain.AggregationRequest{GroupBy: "bogus", Aggregation: domain.AggregationSum},
			expected: ErrInvalidGroupBy,
		},
		{
			name:     "Função de agregação fora da enumeração é rejeitada",
			req:      domain.AggregationRequest{GroupBy: domain.GroupByMonth, Aggregation: "median"},
			expected: ErrInvalidAggregation,
		},
		{
			name: "Início posterior ao fim é rejeitado",
			req: domain.AggregationRequest{
				GroupBy:     domain.GroupByMonth,
				Aggregation: domain.AggregationSum,
				Filter: domain.SalesFilter{
					StartDate: datePtr(2024, 6, 1),
					EndDate:   datePtr(2024, 5, 1),
				},
			},
			expected: ErrInvalidDateRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := service.Aggregate(tt.req)

			assert.ErrorIs(t, err, tt.expected)
			assert.Nil(t, rows)
		})
	}
}

func TestService_Aggregate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSaleRepo := mocks.NewMockSaleRepository(ctrl)
	service := &Service{conn: stubConn{}, saleRepo: mockSaleRepo}

	req := domain.AggregationRequest{
		GroupBy:     domain.GroupByCategory,
		Aggregation: domain.AggregationSum,
	}

	expected := []domain.AggregationRow{
		{Label: "Lubrificantes", Value: 5000},
		{Label: "Filtros", Value: 3000},
	}

	mockSaleRepo.EXPECT().Aggregate(gomock.Any(), req).Return(expected, nil)

	rows, err := service.Aggregate(req)

	assert.NoError(t, err)
	assert.Equal(t, expected, rows)
}

func TestService_GetSummary(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSaleRepo := mocks.NewMockSaleRepository(ctrl)
	service := &Service{conn: stubConn{}, saleRepo: mockSaleRepo}

	tests := []struct {
		name     string
		filter   domain.SalesFilter
		setup    func(filter domain.SalesFilter)
		validate func(t *testing.T, summary *domain.SalesSummary, err error)
	}{
		{
			name: "Sem janela de datas não há comparação com período anterior",
			filter: domain.SalesFilter{
				Customer: "CUST-01",
			},
			setup: func(filter domain.SalesFilter) {
				mockSaleRepo.EXPECT().
					GetSummary(gomock.Any(), filter).
					Return(&domain.SalesSummary{TotalSales: 1000}, nil)
			},
			validate: func(t *testing.T, summary *domain.SalesSummary, err error) {
				assert.NoError(t, err)
				assert.Equal(t, 1000.0, summary.TotalSales)
				assert.Nil(t, summary.PreviousPeriodSales)
				assert.Nil(t, summary.GrowthRate)
			},
		},
		{
			name: "Janela completa compara com o período anterior de mesma duração",
			filter: domain.SalesFilter{
				StartDate: datePtr(2024, 3, 1),
				EndDate:   datePtr(2024, 3, 31),
			},
			setup: func(filter domain.SalesFilter) {
				mockSaleRepo.EXPECT().
					GetSummary(gomock.Any(), filter).
					Return(&domain.SalesSummary{TotalSales: 150}, nil)

				// Janela anterior: mesma duração, terminando na véspera do início
				mockSaleRepo.EXPECT().
					SumNet(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ postgres.Queryer, prior domain.SalesFilter) (float64, error) {
						assert.Equal(t, time.Date(2024, 1, 30, 0, 0, 0, 0, time.UTC), *prior.StartDate)
						assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), *prior.EndDate)
						return 100, nil
					})
			},
			validate: func(t *testing.T, summary *domain.SalesSummary, err error) {
				assert.NoError(t, err)
				assert.Equal(t, 150.0, summary.TotalSales)
				assert.Equal(t, 100.0, *summary.PreviousPeriodSales)
				assert.Equal(t, 50.0, *summary.GrowthRate)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup(tt.filter)

			summary, err := service.GetSummary(tt.filter)

			tt.validate(t, summary, err)
		})
	}
}

func TestGrowthRate(t *testing.T) {
	tests := []struct {
		name     string
		previous float64
		current  float64
		expected float64
	}{
		{name: "Zero contra zero é 0", previous: 0, current: 0, expected: 0},
		{name: "Atividade nova sobre base zero é 100", previous: 0, current: 50, expected: 100},
		{name: "Crescimento de 50%", previous: 100, current: 150, expected: 50},
		{name: "Queda de 50%", previous: 200, current: 100, expected: -50},
		{name: "Arredondamento em duas casas", previous: 300, current: 400, expected: 33.33},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, growthRate(tt.previous, tt.current))
		})
	}
}

func TestPriorPeriodFilter(t *testing.T) {
	tests := []struct {
		name          string
		start         time.Time
		end           time.Time
		expectedStart time.Time
		expectedEnd   time.Time
	}{
		{
			name:          "Mês civil desliza para a janela anterior de mesma duração",
			start:         time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			end:           time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
			expectedStart: time.Date(2024, 1, 30, 0, 0, 0, 0, time.UTC),
			expectedEnd:   time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		},
		{
			name:          "Janela de um único dia compara com a véspera",
			start:         time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC),
			end:           time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC),
			expectedStart: time.Date(2024, 5, 14, 0, 0, 0, 0, time.UTC),
			expectedEnd:   time.Date(2024, 5, 14, 0, 0, 0, 0, time.UTC),
		},
		{
			name:          "Semana desliza para a semana anterior",
			start:         time.Date(2024, 5, 8, 0, 0, 0, 0, time.UTC),
			end:           time.Date(2024, 5, 14, 0, 0, 0, 0, time.UTC),
			expectedStart: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
			expectedEnd:   time.Date(2024, 5, 7, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter := domain.SalesFilter{StartDate: &tt.start, EndDate: &tt.end}

			prior := priorPeriodFilter(filter)

			assert.Equal(t, tt.expectedStart, *prior.StartDate)
			assert.Equal(t, tt.expectedEnd, *prior.EndDate)
		})
	}
}
