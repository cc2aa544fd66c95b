// Package targeting implementa o modelo de metas: resolução de períodos,
// decodificação de chaves e a reconciliação em lote contra o banco.
package targeting

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vfarias/sales-analytics-api/infrastructure/database/postgres"
	"github.com/vfarias/sales-analytics-api/infrastructure/repository"
	"github.com/vfarias/sales-analytics-api/internal/domain"
)

var (
	ErrTargetNotFound     = errors.New("meta não encontrada")
	ErrInvalidTargetValue = errors.New("o valor da meta deve ser maior que zero")
	ErrInvalidPeriod      = errors.New("período inválido: fim anterior ao início")
)

type Targeter interface {
	BulkUpsertTargets(ctx context.Context, entries map[string]any, opts domain.BulkTargetOptions) (*domain.BulkTargetResult, error)
	GetActiveTargets(date time.Time) (*domain.ActiveTargets, error)
	CreateTarget(target *domain.Target) (*domain.Target, error)
	UpdateTargetValue(id int, value float64, currency string) error
	DeleteTarget(id int) error
}

type Service struct {
	conn        postgres.Conn
	targetRepo  repository.TargetRepository
	activityLog repository.ActivityLogRepository
	now         func() time.Time
}

func NewService(
	conn postgres.Conn,
	targetRepo repository.TargetRepository,
	activityLog repository.ActivityLogRepository,
) *Service {
	return &Service{
		conn:        conn,
		targetRepo:  targetRepo,
		activityLog: activityLog,
		now:         time.Now,
	}
}

// BulkUpsertTargets reconcilia um payload plano chave→valor de metas em uma
// única transação. Entradas inválidas (chave desconhecida, valor não numérico
// ou não positivo) são registradas como erros individuais e não abortam o
// lote; falhas de infraestrutura abortam e revertem tudo.
func (s *Service) BulkUpsertTargets(
	ctx context.Context,
	entries map[string]any,
	opts domain.BulkTargetOptions,
) (*domain.BulkTargetResult, error) {
	if opts.PeriodStart != nil && opts.PeriodEnd != nil && opts.PeriodEnd.Before(*opts.PeriodStart) {
		return nil, ErrInvalidPeriod
	}

	currency := opts.Currency
	if currency == "" {
		currency = domain.DefaultTargetCurrency
	}

	// Ordem determinística de processamento, para logs e resultados estáveis.
	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	result := &domain.BulkTargetResult{
		Errors: make([]domain.TargetEntryError, 0),
	}

	reference := s.now()

	err := s.conn.RunInTransaction(ctx, func(q postgres.Queryer) error {
		for _, key := range keys {
			targetKey, err := ParseTargetKey(key)
			if err != nil {
				result.Errors = append(result.Errors, domain.TargetEntryError{
					Key:     key,
					Message: err.Error(),
				})
				continue
			}

			value, err := coerceTargetValue(entries[key])
			if err != nil {
				result.Errors = append(result.Errors, domain.TargetEntryError{
					Key:     key,
					Message: err.Error(),
				})
				continue
			}

			if value <= 0 {
				result.Errors = append(result.Errors, domain.TargetEntryError{
					Key:     key,
					Message: ErrInvalidTargetValue.Error(),
				})
				continue
			}

			periodStart, periodEnd := resolveEntryPeriod(targetKey.Type, reference, opts)

			existing, err := s.targetRepo.GetByTuple(q, targetKey.Type, targetKey.TargetID, periodStart, periodEnd)
			if err != nil {
				return err
			}

			if existing != nil {
				// Período e dimensão são imutáveis; só o valor muda.
				if err := s.targetRepo.UpdateValue(q, existing.ID, value, currency); err != nil {
					return err
				}
				result.Updated++
				continue
			}

			target := &domain.Target{
				Type:        targetKey.Type,
				TargetID:    targetKey.TargetID,
				PeriodStart: periodStart,
				PeriodEnd:   periodEnd,
				TargetValue: value,
				Currency:    currency,
				CreatedBy:   opts.CreatedBy,
			}
			if err := s.targetRepo.Insert(q, target); err != nil {
				return err
			}
			result.Created++
		}

		return nil
	})
	if err != nil {
		logrus.WithError(err).Error("Erro na reconciliação em lote de metas")
		return nil, fmt.Errorf("erro na reconciliação em lote de metas: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"created": result.Created,
		"updated": result.Updated,
		"errors":  len(result.Errors),
	}).Info("Reconciliação em lote de metas concluída")

	s.recordActivity(opts.CreatedBy, "targets.bulk_upsert", map[string]any{
		"created": result.Created,
		"updated": result.Updated,
		"errors":  len(result.Errors),
	})

	return result, nil
}

// GetActiveTargets devolve as metas cujo período contém a data de referência,
// separadas nas seis dimensões.
func (s *Service) GetActiveTargets(date time.Time) (*domain.ActiveTargets, error) {
	targets, err := s.targetRepo.GetActiveByDate(s.conn, date)
	if err != nil {
		return nil, err
	}

	active := domain.NewActiveTargets()
	for _, target := range targets {
		switch target.Type {
		case domain.TargetMonthly:
			active.Monthly = target
		case domain.TargetQuarterly:
			active.Quarterly = target
		case domain.TargetYearly:
			active.Yearly = target
		case domain.TargetCategory:
			active.Category[target.TargetID] = target
		case domain.TargetRegion:
			active.Region[target.TargetID] = target
		case domain.TargetRep:
			active.Rep[target.TargetID] = target
		}
	}

	return active, nil
}

func (s *Service) CreateTarget(target *domain.Target) (*domain.Target, error) {
	if !target.Type.Valid() {
		return nil, fmt.Errorf("tipo de meta inválido: %q", target.Type)
	}

	if target.TargetValue <= 0 {
		return nil, ErrInvalidTargetValue
	}

	if target.TargetID == "" {
		target.TargetID = domain.CompanyTargetID
	}

	if target.PeriodStart.IsZero() || target.PeriodEnd.IsZero() {
		target.PeriodStart, target.PeriodEnd = ResolvePeriod(target.Type, s.now())
	}

	if target.PeriodEnd.Before(target.PeriodStart) {
		return nil, ErrInvalidPeriod
	}

	if target.Currency == "" {
		target.Currency = domain.DefaultTargetCurrency
	}

	existing, err := s.targetRepo.GetByTuple(s.conn, target.Type, target.TargetID, target.PeriodStart, target.PeriodEnd)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("já existe meta para %s/%s no período informado", target.Type, target.TargetID)
	}

	if err := s.targetRepo.Insert(s.conn, target); err != nil {
		return nil, err
	}

	s.recordActivity(target.CreatedBy, "targets.create", map[string]any{
		"target_id":   target.ID,
		"target_type": string(target.Type),
	})

	return target, nil
}

func (s *Service) UpdateTargetValue(id int, value float64, currency string) error {
	if value <= 0 {
		return ErrInvalidTargetValue
	}

	target, err := s.targetRepo.GetByID(s.conn, id)
	if err != nil {
		return err
	}
	if target == nil {
		return ErrTargetNotFound
	}

	return s.targetRepo.UpdateValue(s.conn, id, value, currency)
}

func (s *Service) DeleteTarget(id int) error {
	target, err := s.targetRepo.GetByID(s.conn, id)
	if err != nil {
		return err
	}
	if target == nil {
		return ErrTargetNotFound
	}

	return s.targetRepo.Delete(s.conn, id)
}

// recordActivity grava auditoria fire-and-forget: falhas são apenas logadas.
func (s *Service) recordActivity(actorID *int, action string, details map[string]any) {
	if s.activityLog == nil {
		return
	}

	entry := &domain.ActivityLog{
		Action:  action,
		Entity:  "target",
		Details: details,
	}
	if actorID != nil {
		entry.ActorID = *actorID
	}

	if err := s.activityLog.Record(s.conn, entry); err != nil {
		logrus.WithError(err).Warn("Erro ao gravar auditoria de metas")
	}
}

// coerceTargetValue aceita os formatos numéricos que chegam de payloads JSON
// e planilhas: float64, int e string numérica.
func coerceTargetValue(raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		value, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("valor de meta não numérico: %q", v)
		}
		return value, nil
	default:
		return 0, fmt.Errorf("valor de meta com tipo não suportado: %T", raw)
	}
}
