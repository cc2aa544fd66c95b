package achieving

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/vfarias/sales-analytics-api/internal/domain"
)

// fakeTargeter devolve metas vigentes fixas para o cálculo de atingimento.
type fakeTargeter struct {
	active *domain.ActiveTargets
	err    error
}

func (f *fakeTargeter) GetActiveTargets(date time.Time) (*domain.ActiveTargets, error) {
	return f.active, f.err
}

func (f *fakeTargeter) BulkUpsertTargets(ctx context.Context, entries map[string]any, opts domain.BulkTargetOptions) (*domain.BulkTargetResult, error) {
	return nil, nil
}

func (f *fakeTargeter) CreateTarget(target *domain.Target) (*domain.Target, error) { return nil, nil }
func (f *fakeTargeter) UpdateTargetValue(id int, value float64, currency string) error {
	return nil
}
func (f *fakeTargeter) DeleteTarget(id int) error { return nil }

// fakeAggregator responde TotalSales a partir de uma função de consulta.
type fakeAggregator struct {
	totalSales func(filter domain.SalesFilter) (float64, error)
}

func (f *fakeAggregator) TotalSales(filter domain.SalesFilter) (float64, error) {
	return f.totalSales(filter)
}

func (f *fakeAggregator) Aggregate(req domain.AggregationRequest) ([]domain.AggregationRow, error) {
	return nil, nil
}

func (f *fakeAggregator) GetSummary(filter domain.SalesFilter) (*domain.SalesSummary, error) {
	return nil, nil
}

func TestService_ComputeAchievement(t *testing.T) {
	referenceDate := time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC)

	mayStart := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	yearStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	yearEnd := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

	t.Run("Metas e vendas cruzadas sobre janelas idênticas", func(t *testing.T) {
		active := domain.NewActiveTargets()
		active.Monthly = &domain.Target{
			Type:        domain.TargetMonthly,
			TargetID:    domain.CompanyTargetID,
			TargetValue: 100000,
			PeriodStart: mayStart,
			PeriodEnd:   time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC),
		}
		active.Category["Filtros"] = &domain.Target{
			Type:        domain.TargetCategory,
			TargetID:    "Filtros",
			TargetValue: 500,
			PeriodStart: yearStart,
			PeriodEnd:   yearEnd,
		}
		active.Region["UN-01"] = &domain.Target{
			Type:        domain.TargetRegion,
			TargetID:    "UN-01",
			TargetValue: 40000,
			PeriodStart: yearStart,
			PeriodEnd:   yearEnd,
		}

		aggregator := &fakeAggregator{
			totalSales: func(filter domain.SalesFilter) (float64, error) {
				switch {
				case filter.Category == "Filtros":
					// Janela da dimensão é o período gravado na própria meta
					assert.Equal(t, yearStart, *filter.StartDate)
					assert.Equal(t, yearEnd, *filter.EndDate)
					return 0, nil
				case filter.SalesUnit == "UN-01":
					return 50000, nil
				case filter.StartDate.Equal(mayStart):
					return 120000, nil
				default:
					// Trimestre e ano sem meta vigente: vendas calculadas mesmo assim
					return 300000, nil
				}
			},
		}

		service := NewService(&fakeTargeter{active: active}, aggregator)

		report, err := service.ComputeAchievement(referenceDate)

		assert.NoError(t, err)
		assert.Equal(t, "2024-05-15", report.ReferenceDate)

		// Mensal: meta 100000, vendas 120000 → 120%
		assert.Equal(t, 100000.0, *report.Targets.Monthly)
		assert.Equal(t, 120000.0, *report.Sales.Monthly)
		assert.Equal(t, 120.0, *report.Achievement.Monthly)

		// Trimestral e anual sem meta: vendas preenchidas, percentual nulo
		assert.Nil(t, report.Targets.Quarterly)
		assert.Equal(t, 300000.0, *report.Sales.Quarterly)
		assert.Nil(t, report.Achievement.Quarterly)
		assert.Nil(t, report.Achievement.Yearly)

		// Categoria com vendas zero: atingimento 0, nunca nulo nem NaN
		assert.Equal(t, 0.0, report.Sales.Category["Filtros"])
		assert.NotNil(t, report.Achievement.Category["Filtros"])
		assert.Equal(t, 0.0, *report.Achievement.Category["Filtros"])

		// Região acima da meta
		assert.Equal(t, 125.0, *report.Achievement.Region["UN-01"])
	})

	t.Run("Sem metas vigentes o relatório traz apenas o realizado", func(t *testing.T) {
		aggregator := &fakeAggregator{
			totalSales: func(filter domain.SalesFilter) (float64, error) {
				return 1000, nil
			},
		}

		service := NewService(&fakeTargeter{active: domain.NewActiveTargets()}, aggregator)

		report, err := service.ComputeAchievement(referenceDate)

		assert.NoError(t, err)
		assert.Nil(t, report.Targets.Monthly)
		assert.Nil(t, report.Achievement.Monthly)
		assert.Equal(t, 1000.0, *report.Sales.Monthly)
		assert.Empty(t, report.Targets.Category)
	})

	t.Run("Erro ao buscar metas é propagado", func(t *testing.T) {
		service := NewService(&fakeTargeter{err: assert.AnError}, &fakeAggregator{})

		report, err := service.ComputeAchievement(referenceDate)

		assert.Error(t, err)
		assert.Nil(t, report)
	})
}

func TestPercent(t *testing.T) {
	tests := []struct {
		name     string
		sales    float64
		target   float64
		expected *float64
	}{
		{name: "Meta zero devolve nulo", sales: 100, target: 0, expected: nil},
		{name: "Meta negativa devolve nulo", sales: 100, target: -50, expected: nil},
		{name: "Atingimento exato", sales: 50000, target: 50000, expected: floatPtr(100)},
		{name: "Acima da meta", sales: 120000, target: 100000, expected: floatPtr(120)},
		{name: "Vendas zero contra meta positiva", sales: 0, target: 500, expected: floatPtr(0)},
		{name: "Arredondamento em duas casas", sales: 1000, target: 3000, expected: floatPtr(33.33)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := percent(tt.sales, tt.target)

			if tt.expected == nil {
				assert.Nil(t, result)
				return
			}

			assert.NotNil(t, result)
			assert.Equal(t, *tt.expected, *result)
		})
	}
}

func floatPtr(f float64) *float64 {
	return &f
}
