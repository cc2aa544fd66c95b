// Package achieving cruza metas vigentes com vendas reais na mesma janela e
// produz o relatório de atingimento por dimensão.
package achieving

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vfarias/sales-analytics-api/internal/domain"
	"github.com/vfarias/sales-analytics-api/internal/usecases/aggregating"
	"github.com/vfarias/sales-analytics-api/internal/usecases/targeting"
	"github.com/vfarias/sales-analytics-api/pkg/utils"
)

type Achiever interface {
	ComputeAchievement(referenceDate time.Time) (*domain.AchievementReport, error)
}

type Service struct {
	targeter   targeting.Targeter
	aggregator aggregating.Aggregator
}

func NewService(targeter targeting.Targeter, aggregator aggregating.Aggregator) *Service {
	return &Service{
		targeter:   targeter,
		aggregator: aggregator,
	}
}

// ComputeAchievement monta o relatório para a data de referência. Metas e
// vendas são sempre comparadas sobre janelas idênticas: janelas de calendário
// derivadas da data para as metas da empresa, e o período gravado na própria
// meta para as dimensionais. Percentual é nulo quando não há meta vigente ou
// a meta não é positiva — nunca NaN.
func (s *Service) ComputeAchievement(referenceDate time.Time) (*domain.AchievementReport, error) {
	active, err := s.targeter.GetActiveTargets(referenceDate)
	if err != nil {
		return nil, fmt.Errorf("erro ao buscar metas vigentes: %w", err)
	}

	report := domain.NewAchievementReport(referenceDate)

	// Janelas temporais da empresa: vendas calculadas mesmo sem meta vigente,
	// para que o relatório mostre o realizado do mês/trimestre/ano.
	companyWindows := []struct {
		targetType  domain.TargetType
		target      *domain.Target
		targets     **float64
		sales       **float64
		achievement **float64
	}{
		{domain.TargetMonthly, active.Monthly, &report.Targets.Monthly, &report.Sales.Monthly, &report.Achievement.Monthly},
		{domain.TargetQuarterly, active.Quarterly, &report.Targets.Quarterly, &report.Sales.Quarterly, &report.Achievement.Quarterly},
		{domain.TargetYearly, active.Yearly, &report.Targets.Yearly, &report.Sales.Yearly, &report.Achievement.Yearly},
	}

	for _, window := range companyWindows {
		start, end := targeting.ResolvePeriod(window.targetType, referenceDate)

		sales, err := s.aggregator.TotalSales(domain.SalesFilter{
			StartDate: &start,
			EndDate:   &end,
		})
		if err != nil {
			logrus.WithError(err).WithField("window", window.targetType).
				Error("Erro ao calcular vendas da janela temporal")
			return nil, err
		}

		*window.sales = &sales

		if window.target != nil {
			value := window.target.TargetValue
			*window.targets = &value
			*window.achievement = percent(sales, value)
		}
	}

	for id, target := range active.Category {
		sales, err := s.dimensionSales(target, domain.SalesFilter{Category: id})
		if err != nil {
			return nil, err
		}
		report.Targets.Category[id] = target.TargetValue
		report.Sales.Category[id] = sales
		report.Achievement.Category[id] = percent(sales, target.TargetValue)
	}

	// Regiões são unidades de venda no razão.
	for id, target := range active.Region {
		sales, err := s.dimensionSales(target, domain.SalesFilter{SalesUnit: id})
		if err != nil {
			return nil, err
		}
		report.Targets.Region[id] = target.TargetValue
		report.Sales.Region[id] = sales
		report.Achievement.Region[id] = percent(sales, target.TargetValue)
	}

	for id, target := range active.Rep {
		sales, err := s.dimensionSales(target, domain.SalesFilter{SalesRep: id})
		if err != nil {
			return nil, err
		}
		report.Targets.Rep[id] = target.TargetValue
		report.Sales.Rep[id] = sales
		report.Achievement.Rep[id] = percent(sales, target.TargetValue)
	}

	return report, nil
}

// dimensionSales soma as vendas da dimensão na janela da própria meta.
func (s *Service) dimensionSales(target *domain.Target, filter domain.SalesFilter) (float64, error) {
	start := target.PeriodStart
	end := target.PeriodEnd
	filter.StartDate = &start
	filter.EndDate = &end

	sales, err := s.aggregator.TotalSales(filter)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"target_type": target.Type,
			"target_id":   target.TargetID,
		}).Error("Erro ao calcular vendas da dimensão")
		return 0, err
	}

	return sales, nil
}

// percent calcula o atingimento; nulo quando a meta não é positiva.
func percent(sales, target float64) *float64 {
	if target <= 0 {
		return nil
	}

	value := utils.RoundWithTwoDecimalPlace(sales / target * 100)
	return &value
}
