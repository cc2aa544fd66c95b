package targeting

import (
	"time"

	"github.com/vfarias/sales-analytics-api/internal/domain"
)

// ResolvePeriod mapeia um tipo de meta e uma data de referência para a janela
// de calendário concreta. Função pura e determinística: a reconciliação e o
// cálculo de atingimento derivam a mesma janela para o mesmo período lógico,
// o que impede a criação de linhas duplicadas de meta.
//
//   - monthly: primeiro e último dia do mês da data de referência
//   - quarterly: primeiro e último dia do trimestre civil
//   - yearly: 1º de janeiro a 31 de dezembro
//   - category/region/rep: ano corrente inteiro (o chamador pode sobrepor
//     a janela via opções do lote)
func ResolvePeriod(targetType domain.TargetType, reference time.Time) (time.Time, time.Time) {
	year, month, _ := reference.Date()
	loc := reference.Location()

	switch targetType {
	case domain.TargetMonthly:
		start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
		end := start.AddDate(0, 1, -1)
		return start, end

	case domain.TargetQuarterly:
		quarterStartMonth := time.Month((int(month)-1)/3*3 + 1)
		start := time.Date(year, quarterStartMonth, 1, 0, 0, 0, 0, loc)
		end := start.AddDate(0, 3, -1)
		return start, end

	default:
		// yearly e tipos dimensionais sem janela explícita
		start := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
		end := time.Date(year, time.December, 31, 0, 0, 0, 0, loc)
		return start, end
	}
}

// resolveEntryPeriod aplica a janela do lote para tipos dimensionais quando
// informada; metas temporais sempre derivam a janela da data de referência.
func resolveEntryPeriod(
	targetType domain.TargetType,
	reference time.Time,
	opts domain.BulkTargetOptions,
) (time.Time, time.Time) {
	if targetType.Dimensional() && opts.PeriodStart != nil && opts.PeriodEnd != nil {
		return *opts.PeriodStart, *opts.PeriodEnd
	}

	return ResolvePeriod(targetType, reference)
}
