package repository

import (
	"fmt"

	"github.com/Masterminds/squirrel"
	jsoniter "github.com/json-iterator/go"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/vfarias/sales-analytics-api/infrastructure/database/postgres"
	"github.com/vfarias/sales-analytics-api/internal/domain"
)

type ActivityLogRepository interface {
	Record(q postgres.Queryer, entry *domain.ActivityLog) error
	ListRecent(q postgres.Queryer, limit int) ([]*domain.ActivityLog, error)
}

type activityLogRepository struct{}

func NewActivityLogRepository() ActivityLogRepository {
	return &activityLogRepository{}
}

// Record grava uma entrada de auditoria. O ID é gerado aqui quando ausente,
// para que os chamadores não precisem se preocupar com isso.
func (r *activityLogRepository) Record(q postgres.Queryer, entry *domain.ActivityLog) error {
	if entry.ID == "" {
		id, err := gonanoid.New()
		if err != nil {
			return fmt.Errorf("erro ao gerar ID de auditoria: %w", err)
		}
		entry.ID = id
	}

	details, err := jsoniter.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("erro ao serializar detalhes de auditoria: %w", err)
	}

	query, args, err := squirrel.
		Insert("activity_logs").
		Columns("id", "actor_id", "actor_email", "action", "entity", "details").
		Values(entry.ID, entry.ActorID, entry.ActorEmail, entry.Action, entry.Entity, details).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("erro ao construir a query: %w", err)
	}

	if _, err := q.Exec(query, args...); err != nil {
		return fmt.Errorf("erro ao gravar auditoria: %w", err)
	}

	return nil
}

func (r *activityLogRepository) ListRecent(q postgres.Queryer, limit int) ([]*domain.ActivityLog, error) {
	if limit <= 0 {
		limit = 50
	}

	query, args, err := squirrel.
		Select("id", "actor_id", "actor_email", "action", "entity", "details", "created_at").
		From("activity_logs").
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
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

	entries := make([]*domain.ActivityLog, 0)
	for rows.Next() {
		entry := &domain.ActivityLog{}
		var details []byte
		if err := rows.Scan(
			&entry.ID, &entry.ActorID, &entry.ActorEmail, &entry.Action,
			&entry.Entity, &details, &entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("erro ao escanear auditoria: %w", err)
		}

		if len(details) > 0 {
			if err := jsoniter.Unmarshal(details, &entry.Details); err != nil {
				return nil, fmt.Errorf("erro ao desserializar detalhes de auditoria: %w", err)
			}
		}

		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("erro durante a iteração de linhas: %w", err)
	}

	return entries, nil
}
