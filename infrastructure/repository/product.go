package repository

import (
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/vfarias/sales-analytics-api/infrastructure/database/postgres"
	"github.com/vfarias/sales-analytics-api/internal/domain"
)

type ProductRepository interface {
	GetByMaterialID(q postgres.Queryer, materialID string) (*domain.Product, error)
	Upsert(q postgres.Queryer, product *domain.Product) error
	ListCategories(q postgres.Queryer) ([]string, error)
}

type productRepository struct{}

func NewProductRepository() ProductRepository {
	return &productRepository{}
}

func (r *productRepository) GetByMaterialID(q postgres.Queryer, materialID string) (*domain.Product, error) {
	query, args, err := squirrel.
		Select("material_id", "description", "category", "unit").
		From("products").
		Where(squirrel.Eq{"material_id": materialID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("erro ao construir a query: %w", err)
	}

	product := &domain.Product{}
	err = q.QueryRow(query, args...).Scan(
		&product.MaterialID,
		&product.Description,
		&product.Category,
		&product.Unit,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("erro ao escanear produto: %w", err)
	}

	return product, nil
}

func (r *productRepository) Upsert(q postgres.Queryer, product *domain.Product) error {
	query, args, err := squirrel.
		Insert("products").
		Columns("material_id", "description", "category", "unit").
		Values(product.MaterialID, product.Description, product.Category, product.Unit).
		Suffix("ON CONFLICT (material_id) DO UPDATE SET description = EXCLUDED.description, category = EXCLUDED.category, unit = EXCLUDED.unit").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("erro ao construir a query: %w", err)
	}

	if _, err := q.Exec(query, args...); err != nil {
		return fmt.Errorf("erro ao gravar produto %s: %w", product.MaterialID, err)
	}

	return nil
}

// ListCategories devolve as categorias distintas do catálogo, usadas para
// validar chaves de metas por categoria.
func (r *productRepository) ListCategories(q postgres.Queryer) ([]string, error) {
	query, args, err := squirrel.
		Select("DISTINCT category").
		From("products").
		Where(squirrel.NotEq{"category": ""}).
		OrderBy("category ASC").
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

	categories := make([]string, 0)
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, fmt.Errorf("erro ao escanear categoria: %w", err)
		}
		categories = append(categories, category)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("erro durante a iteração de linhas: %w", err)
	}

	return categories, nil
}
