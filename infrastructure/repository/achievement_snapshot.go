package repository

import (
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"
	jsoniter "github.com/json-iterator/go"
	"github.com/vfarias/sales-analytics-api/infrastructure/database/postgres"
	"github.com/vfarias/sales-analytics-api/internal/domain"
)

type AchievementSnapshotRepository interface {
	SaveOrUpdate(q postgres.Queryer, snapshot *domain.AchievementSnapshot) error
	GetByPeriod(q postgres.Queryer, period string) (*domain.AchievementSnapshot, error)
	ListPeriods(q postgres.Queryer) ([]string, error)
}

type achievementSnapshotRepository struct{}

func NewAchievementSnapshotRepository() AchievementSnapshotRepository {
	return &achievementSnapshotRepository{}
}

// SaveOrUpdate grava a fotografia do período, sobrescrevendo a existente.
// O agendador roda mais de uma vez por mês, então o período é chave única.
func (r *achievementSnapshotRepository) SaveOrUpdate(q postgres.Queryer, snapshot *domain.AchievementSnapshot) error {
	report, err := jsoniter.Marshal(snapshot.Report)
	if err != nil {
		return fmt.Errorf("erro ao serializar relatório de atingimento: %w", err)
	}

	query, args, err := squirrel.
		Insert("achievement_snapshots").
		Columns("period", "report").
		Values(snapshot.Period, report).
		Suffix("ON CONFLICT (period) DO UPDATE SET report = EXCLUDED.report, updated_at = NOW() RETURNING id").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("erro ao construir a query: %w", err)
	}

	if err := q.QueryRow(query, args...).Scan(&snapshot.ID); err != nil {
		return fmt.Errorf("erro ao gravar snapshot do período %s: %w", snapshot.Period, err)
	}

	return nil
}

func (r *achievementSnapshotRepository) GetByPeriod(q postgres.Queryer, period string) (*domain.AchievementSnapshot, error) {
	query, args, err := squirrel.
		Select("id", "period", "report", "created_at", "updated_at").
		From("achievement_snapshots").
		Where(squirrel.Eq{"period": period}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("erro ao construir a query: %w", err)
	}

	snapshot := &domain.AchievementSnapshot{}
	var report []byte

	err = q.QueryRow(query, args...).Scan(
		&snapshot.ID, &snapshot.Period, &report, &snapshot.CreatedAt, &snapshot.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("erro ao escanear snapshot: %w", err)
	}

	if err := jsoniter.Unmarshal(report, &snapshot.Report); err != nil {
		return nil, fmt.Errorf("erro ao desserializar relatório do período %s: %w", period, err)
	}

	return snapshot, nil
}

func (r *achievementSnapshotRepository) ListPeriods(q postgres.Queryer) ([]string, error) {
	query, args, err := squirrel.
		Select("period").
		From("achievement_snapshots").
		OrderBy("created_at DESC").
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

	periods := make([]string, 0)
	for rows.Next() {
		var period string
		if err := rows.Scan(&period); err != nil {
			return nil, fmt.Errorf("erro ao escanear período: %w", err)
		}
		periods = append(periods, period)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("erro durante a iteração de linhas: %w", err)
	}

	return periods, nil
}
