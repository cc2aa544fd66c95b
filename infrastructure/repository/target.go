package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/vfarias/sales-analytics-api/infrastructure/database/postgres"
	"github.com/vfarias/sales-analytics-api/internal/domain"
)

const (
	targetsTable = "targets"

	targetColumns = "id, target_type, target_id, period_start, period_end, target_value, " +
		"currency, created_by, created_at, updated_at"
)

type TargetRepository interface {
	GetByTuple(q postgres.Queryer, targetType domain.TargetType, targetID string, periodStart, periodEnd time.Time) (*domain.Target, error)
	Insert(q postgres.Queryer, target *domain.Target) error
	UpdateValue(q postgres.Queryer, id int, targetValue float64, currency string) error
	GetActiveByDate(q postgres.Queryer, date time.Time) ([]*domain.Target, error)
	GetByID(q postgres.Queryer, id int) (*domain.Target, error)
	Delete(q postgres.Queryer, id int) error
}

type targetRepository struct{}

func NewTargetRepository() TargetRepository {
	return &targetRepository{}
}

// GetByTuple busca a meta pela tupla de unicidade. A reconciliação em lote
// decide entre criar e atualizar a partir do resultado desta consulta.
func (r *targetRepository) GetByTuple(
	q postgres.Queryer,
	targetType domain.TargetType,
	targetID string,
	periodStart, periodEnd time.Time,
) (*domain.Target, error) {
	query, args, err := squirrel.
		Select(targetColumns).
		From(targetsTable).
		Where(squirrel.Eq{
			"target_type":  string(targetType),
			"target_id":    targetID,
			"period_start": periodStart.Format(time.DateOnly),
			"period_end":   periodEnd.Format(time.DateOnly),
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("erro ao construir a query: %w", err)
	}

	target, err := scanTarget(q.QueryRow(query, args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("erro ao escanear meta: %w", err)
	}

	return target, nil
}

func (r *targetRepository) GetByID(q postgres.Queryer, id int) (*domain.Target, error) {
	query, args, err := squirrel.
		Select(targetColumns).
		From(targetsTable).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("erro ao construir a query: %w", err)
	}

	target, err := scanTarget(q.QueryRow(query, args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("erro ao escanear meta: %w", err)
	}

	return target, nil
}

func (r *targetRepository) Insert(q postgres.Queryer, target *domain.Target) error {
	query, args, err := squirrel.
		Insert(targetsTable).
		Columns("target_type", "target_id", "period_start", "period_end", "target_value", "currency", "created_by").
		Values(
			string(target.Type),
			target.TargetID,
			target.PeriodStart.Format(time.DateOnly),
			target.PeriodEnd.Format(time.DateOnly),
			target.TargetValue,
			target.Currency,
			target.CreatedBy,
		).
		Suffix("RETURNING id").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("erro ao construir a query: %w", err)
	}

	if err := q.QueryRow(query, args...).Scan(&target.ID); err != nil {
		return fmt.Errorf("erro ao inserir meta %s/%s: %w", target.Type, target.TargetID, err)
	}

	return nil
}

func (r *targetRepository) UpdateValue(q postgres.Queryer, id int, targetValue float64, currency string) error {
	qb := squirrel.
		Update(targetsTable).
		Set("target_value", targetValue).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id})

	if currency != "" {
		qb = qb.Set("currency", currency)
	}

	query, args, err := qb.PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return fmt.Errorf("erro ao construir a query: %w", err)
	}

	if _, err := q.Exec(query, args...); err != nil {
		return fmt.Errorf("erro ao atualizar meta %d: %w", id, err)
	}

	return nil
}

// GetActiveByDate devolve todas as metas cujo período contém a data de
// referência, em todas as dimensões.
func (r *targetRepository) GetActiveByDate(q postgres.Queryer, date time.Time) ([]*domain.Target, error) {
	day := date.Format(time.DateOnly)

	query, args, err := squirrel.
		Select(targetColumns).
		From(targetsTable).
		Where(squirrel.LtOrEq{"period_start": day}).
		Where(squirrel.GtOrEq{"period_end": day}).
		OrderBy("target_type ASC", "target_id ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("erro ao construir a query: %w", err)
	}

	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("erro ao executar a query: %w", err)
	}
	defer rows.Close()

	targets := make([]*domain.Target, 0)
	for rows.Next() {
		target := &domain.Target{}
		if err := rows.Scan(
			&target.ID, &target.Type, &target.TargetID, &target.PeriodStart, &target.PeriodEnd,
			&target.TargetValue, &target.Currency, &target.CreatedBy, &target.CreatedAt, &target.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("erro ao escanear metas: %w", err)
		}
		targets = append(targets, target)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("erro durante a iteração de linhas: %w", err)
	}

	return targets, nil
}

func (r *targetRepository) Delete(q postgres.Queryer, id int) error {
	query, args, err := squirrel.
		Delete(targetsTable).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("erro ao construir a query: %w", err)
	}

	if _, err := q.Exec(query, args...); err != nil {
		return fmt.Errorf("erro ao excluir meta %d: %w", id, err)
	}

	return nil
}

func scanTarget(row *sql.Row) (*domain.Target, error) {
	target := &domain.Target{}
	err := row.Scan(
		&target.ID, &target.Type, &target.TargetID, &target.PeriodStart, &target.PeriodEnd,
		&target.TargetValue, &target.Currency, &target.CreatedBy, &target.CreatedAt, &target.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return target, nil
}
