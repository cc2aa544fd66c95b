package targeting

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

// stubConn satisfaz postgres.Conn nos testes; RunInTransaction apenas executa
// a função com o próprio stub como Queryer.
type stubConn struct{}

func (stubConn) Exec(query string, args ...any) (sql.Result, error)  { return nil, nil }
func (stubConn) Query(query string, args ...any) (*sql.Rows, error)  { return nil, nil }
func (stubConn) QueryRow(query string, args ...any) *sql.Row         { return nil }
func (stubConn) Close() error                                        { return nil }
func (stubConn) Ping(ctx context.Context) error                      { return nil }
func (c stubConn) RunInTransaction(ctx context.Context, fn func(q postgres.Queryer) error) error {
	return fn(c)
}

func newTestService(targetRepo *mocks.MockTargetRepository, reference time.Time) *Service {
	return &Service{
		conn:       stubConn{},
		targetRepo: targetRepo,
		now:        func() time.Time { return reference },
	}
}

func TestService_BulkUpsertTargets(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockTargetRepo := mocks.NewMockTargetRepository(ctrl)

	// Data de referência fixa: 15 de maio de 2024
	reference := time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC)
	service := newTestService(mockTargetRepo, reference)

	mayStart := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	mayEnd := time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC)
	q2Start := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	q2End := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	yearStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	yearEnd := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		entries  map[string]any
		opts     domain.BulkTargetOptions
		setup    func()
		validate func(t *testing.T, result *domain.BulkTargetResult, err error)
	}{
		{
			name: "Metas novas devem ser criadas com a janela derivada",
			entries: map[string]any{
				"monthly":               50000.0,
				"quarterly":             "150000",
				"category_Lubrificantes": 20000,
			},
			setup: func() {
				// Ordem de processamento é alfabética: category, monthly, quarterly
				mockTargetRepo.EXPECT().
					GetByTuple(gomock.Any(), domain.TargetCategory, "Lubrificantes", yearStart, yearEnd).
					Return(nil, nil)
				mockTargetRepo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ postgres.Queryer, target *domain.Target) error {
						assert.Equal(t, domain.TargetCategory, target.Type)
						assert.Equal(t, 20000.0, target.TargetValue)
						assert.Equal(t, domain.DefaultTargetCurrency, target.Currency)
						return nil
					})

				mockTargetRepo.EXPECT().
					GetByTuple(gomock.Any(), domain.TargetMonthly, domain.CompanyTargetID, mayStart, mayEnd).
					Return(nil, nil)
				mockTargetRepo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ postgres.Queryer, target *domain.Target) error {
						assert.Equal(t, domain.TargetMonthly, target.Type)
						assert.Equal(t, 50000.0, target.TargetValue)
						return nil
					})

				mockTargetRepo.EXPECT().
					GetByTuple(gomock.Any(), domain.TargetQuarterly, domain.CompanyTargetID, q2Start, q2End).
					Return(nil, nil)
				mockTargetRepo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ postgres.Queryer, target *domain.Target) error {
						assert.Equal(t, domain.TargetQuarterly, target.Type)
						assert.Equal(t, 150000.0, target.TargetValue)
						return nil
					})
			},
			validate: func(t *testing.T, result *domain.BulkTargetResult, err error) {
				assert.NoError(t, err)
				assert.Equal(t, 3, result.Created)
				assert.Equal(t, 0, result.Updated)
				assert.Empty(t, result.Errors)
			},
		},
		{
			name: "Reenvio do mesmo período atualiza o valor em vez de duplicar",
			entries: map[string]any{
				"monthly": 60000.0,
			},
			setup: func() {
				existing := &domain.Target{
					ID:          7,
					Type:        domain.TargetMonthly,
					TargetID:    domain.CompanyTargetID,
					PeriodStart: mayStart,
					PeriodEnd:   mayEnd,
					TargetValue: 50000.0,
				}
				mockTargetRepo.EXPECT().
					GetByTuple(gomock.Any(), domain.TargetMonthly, domain.CompanyTargetID, mayStart, mayEnd).
					Return(existing, nil)
				mockTargetRepo.EXPECT().
					UpdateValue(gomock.Any(), 7, 60000.0, domain.DefaultTargetCurrency).
					Return(nil)
			},
			validate: func(t *testing.T, result *domain.BulkTargetResult, err error) {
				assert.NoError(t, err)
				assert.Equal(t, 0, result.Created)
				assert.Equal(t, 1, result.Updated)
				assert.Empty(t, result.Errors)
			},
		},
		{
			name: "Entradas inválidas não abortam o lote",
			entries: map[string]any{
				"weekly":  1000.0,          // chave desconhecida
				"monthly": "não numérico",  // valor não coercível
				"rep_":    2000.0,          // identificador ausente
				"yearly":  -10.0,           // valor não positivo
			},
			setup: func() {
				// Nenhuma entrada chega ao repositório; todas falham antes
			},
			validate: func(t *testing.T, result *domain.BulkTargetResult, err error) {
				assert.NoError(t, err)
				assert.Equal(t, 0, result.Created)
				assert.Equal(t, 0, result.Updated)
				assert.Len(t, result.Errors, 4)
			},
		},
		{
			name: "Valor não positivo não sobrescreve meta existente",
			entries: map[string]any{
				"monthly": 0.0,
			},
			setup: func() {
				// A validação acontece antes da consulta ao banco, então a
				// meta vigente permanece intacta
			},
			validate: func(t *testing.T, result *domain.BulkTargetResult, err error) {
				assert.NoError(t, err)
				assert.Equal(t, 0, result.Created)
				assert.Equal(t, 0, result.Updated)
				assert.Len(t, result.Errors, 1)
				assert.Equal(t, "monthly", result.Errors[0].Key)
				assert.Equal(t, ErrInvalidTargetValue.Error(), result.Errors[0].Message)
			},
		},
		{
			name: "Falha de infraestrutura aborta e propaga o erro",
			entries: map[string]any{
				"monthly": 50000.0,
			},
			setup: func() {
				mockTargetRepo.EXPECT().
					GetByTuple(gomock.Any(), domain.TargetMonthly, domain.CompanyTargetID, mayStart, mayEnd).
					Return(nil, assert.AnError)
			},
			validate: func(t *testing.T, result *domain.BulkTargetResult, err error) {
				assert.Error(t, err)
				assert.Nil(t, result)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()

			result, err := service.BulkUpsertTargets(context.Background(), tt.entries, tt.opts)

			tt.validate(t, result, err)
		})
	}
}

func TestService_BulkUpsertTargets_InvalidPeriod(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	service := newTestService(mocks.NewMockTargetRepository(ctrl), time.Now())

	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	result, err := service.BulkUpsertTargets(context.Background(), map[string]any{"monthly": 100.0}, domain.BulkTargetOptions{
		PeriodStart: &start,
		PeriodEnd:   &end,
	})

	assert.ErrorIs(t, err, ErrInvalidPeriod)
	assert.Nil(t, result)
}

func TestService_UpdateTargetValue(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockTargetRepo := mocks.NewMockTargetRepository(ctrl)
	service := newTestService(mockTargetRepo, time.Now())

	tests := []struct {
		name     string
		id       int
		value    float64
		setup    func()
		expected error
	}{
		{
			name:  "Meta existente tem o valor atualizado",
			id:    3,
			value: 75000.0,
			setup: func() {
				mockTargetRepo.EXPECT().GetByID(gomock.Any(), 3).Return(&domain.Target{ID: 3}, nil)
				mockTargetRepo.EXPECT().UpdateValue(gomock.Any(), 3, 75000.0, "").Return(nil)
			},
		},
		{
			name:  "Meta inexistente devolve ErrTargetNotFound",
			id:    99,
			value: 75000.0,
			setup: func() {
				mockTargetRepo.EXPECT().GetByID(gomock.Any(), 99).Return(nil, nil)
			},
			expected: ErrTargetNotFound,
		},
		{
			name:     "Valor não positivo é rejeitado antes de consultar o banco",
			id:       3,
			value:    0,
			setup:    func() {},
			expected: ErrInvalidTargetValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()

			err := service.UpdateTargetValue(tt.id, tt.value, "")

			if tt.expected != nil {
				assert.ErrorIs(t, err, tt.expected)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestService_GetActiveTargets(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockTargetRepo := mocks.NewMockTargetRepository(ctrl)
	service := newTestService(mockTargetRepo, time.Now())

	date := time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC)

	mockTargetRepo.EXPECT().
		GetActiveByDate(gomock.Any(), date).
		Return([]*domain.Target{
			{ID: 1, Type: domain.TargetMonthly, TargetID: domain.CompanyTargetID, TargetValue: 50000},
			{ID: 2, Type: domain.TargetCategory, TargetID: "Filtros", TargetValue: 8000},
			{ID: 3, Type: domain.TargetRegion, TargetID: "UN-01", TargetValue: 12000},
			{ID: 4, Type: domain.TargetRep, TargetID: "REP-007", TargetValue: 6000},
		}, nil)

	active, err := service.GetActiveTargets(date)

	assert.NoError(t, err)
	assert.NotNil(t, active.Monthly)
	assert.Equal(t, 50000.0, active.Monthly.TargetValue)
	assert.Nil(t, active.Quarterly)
	assert.Nil(t, active.Yearly)
	assert.Contains(t, active.Category, "Filtros")
	assert.Contains(t, active.Region, "UN-01")
	assert.Contains(t, active.Rep, "REP-007")
}

func TestCoerceTargetValue(t *testing.T) {
	tests := []struct {
		name     string
		raw      any
		expected float64
		hasError bool
	}{
		{name: "float64", raw: 1500.5, expected: 1500.5},
		{name: "int", raw: 1500, expected: 1500},
		{name: "string numérica", raw: "1500.5", expected: 1500.5},
		{name: "string não numérica", raw: "abc", hasError: true},
		{name: "tipo não suportado", raw: []string{"x"}, hasError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, err := coerceTargetValue(tt.raw)

			if tt.hasError {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.expected, value)
		})
	}
}
