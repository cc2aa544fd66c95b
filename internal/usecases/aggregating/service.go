// Package aggregating implementa o motor de agregação dinâmica sobre o razão
// de vendas: consultas agrupadas por dimensão e o resumo com comparação
// contra o período anterior.
package aggregating

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/vfarias/sales-analytics-api/infrastructure/database/postgres"
	"github.com/vfarias/sales-analytics-api/infrastructure/repository"
	"github.com/vfarias/sales-analytics-api/internal/domain"
	"github.com/vfarias/sales-analytics-api/pkg/utils"
)

var (
	ErrInvalidGroupBy     = errors.New("agrupamento inválido")
	ErrInvalidAggregation = errors.New("função de agregação inválida")
	ErrInvalidDateRange   = errors.New("a data de início não pode ser posterior à data de fim")
)

type Aggregator interface {
	Aggregate(req domain.AggregationRequest) ([]domain.AggregationRow, error)
	GetSummary(filter domain.SalesFilter) (*domain.SalesSummary, error)
	TotalSales(filter domain.SalesFilter) (float64, error)
}

type Service struct {
	conn     postgres.Conn
	saleRepo repository.SaleRepository
}

func NewService(conn postgres.Conn, saleRepo repository.SaleRepository) *Service {
	return &Service{
		conn:     conn,
		saleRepo: saleRepo,
	}
}

// Aggregate valida os enums da requisição e delega ao repositório. A validação
// aqui é a última barreira antes da montagem da query: nenhum valor fora das
// enumerações fechadas chega ao SQL.
func (s *Service) Aggregate(req domain.AggregationRequest) ([]domain.AggregationRow, error) {
	if !req.GroupBy.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidGroupBy, req.GroupBy)
	}

	if !req.Aggregation.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAggregation, req.Aggregation)
	}

	if err := validateDateRange(req.Filter); err != nil {
		return nil, err
	}

	return s.saleRepo.Aggregate(s.conn, req)
}

// GetSummary consolida os totais da fatia filtrada e, quando a janela de
// datas está completa, calcula o período anterior comparável e a taxa de
// crescimento.
func (s *Service) GetSummary(filter domain.SalesFilter) (*domain.SalesSummary, error) {
	if err := validateDateRange(filter); err != nil {
		return nil, err
	}

	summary, err := s.saleRepo.GetSummary(s.conn, filter)
	if err != nil {
		return nil, err
	}

	if !filter.HasPeriod() {
		return summary, nil
	}

	priorFilter := priorPeriodFilter(filter)

	previous, err := s.saleRepo.SumNet(s.conn, priorFilter)
	if err != nil {
		logrus.WithError(err).Error("Erro ao calcular vendas do período anterior")
		return nil, err
	}

	growth := growthRate(previous, summary.TotalSales)

	summary.PreviousPeriodSales = &previous
	summary.GrowthRate = &growth

	return summary, nil
}

// TotalSales devolve o total de item_net da fatia filtrada.
func (s *Service) TotalSales(filter domain.SalesFilter) (float64, error) {
	if err := validateDateRange(filter); err != nil {
		return 0, err
	}

	return s.saleRepo.SumNet(s.conn, filter)
}

// priorPeriodFilter deriva a janela anterior comparável: mesma duração,
// terminando no dia imediatamente anterior ao início da janela atual.
func priorPeriodFilter(filter domain.SalesFilter) domain.SalesFilter {
	durationDays := int(filter.EndDate.Sub(*filter.StartDate).Hours() / 24)

	priorEnd := filter.StartDate.AddDate(0, 0, -1)
	priorStart := priorEnd.AddDate(0, 0, -durationDays)

	prior := filter
	prior.StartDate = &priorStart
	prior.EndDate = &priorEnd
	return prior
}

// growthRate aplica a política de crescimento: zero contra zero é 0;
// atividade nova sobre base zero é 100; caso geral é a variação percentual.
func growthRate(previous, current float64) float64 {
	if previous == 0 {
		if current == 0 {
			return 0
		}
		return 100
	}

	return utils.RoundWithTwoDecimalPlace((current - previous) / previous * 100)
}

func validateDateRange(filter domain.SalesFilter) error {
	if filter.StartDate != nil && filter.EndDate != nil && filter.StartDate.After(*filter.EndDate) {
		return ErrInvalidDateRange
	}
	return nil
}
