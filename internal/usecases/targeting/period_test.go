package targeting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/vfarias/sales-analytics-api/internal/domain"
)

func TestResolvePeriod(t *testing.T) {
	tests := []struct {
		name          string
		targetType    domain.TargetType
		reference     time.Time
		expectedStart time.Time
		expectedEnd   time.Time
	}{
		{
			name:          "Mensal deve cobrir o mês civil da data de referência",
			targetType:    domain.TargetMonthly,
			reference:     time.Date(2024, 5, 15, 10, 30, 0, 0, time.UTC),
			expectedStart: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
			expectedEnd:   time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC),
		},
		{
			name:          "Mensal em fevereiro de ano bissexto",
			targetType:    domain.TargetMonthly,
			reference:     time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC),
			expectedStart: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			expectedEnd:   time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		},
		{
			name:          "Trimestral deve cobrir o trimestre civil",
			targetType:    domain.TargetQuarterly,
			reference:     time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC),
			expectedStart: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
			expectedEnd:   time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
		},
		{
			name:          "Trimestral no primeiro dia do trimestre",
			targetType:    domain.TargetQuarterly,
			reference:     time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC),
			expectedStart: time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC),
			expectedEnd:   time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		},
		{
			name:          "Trimestral no último dia do trimestre",
			targetType:    domain.TargetQuarterly,
			reference:     time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC),
			expectedStart: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			expectedEnd:   time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		},
		{
			name:          "Anual deve cobrir o ano civil inteiro",
			targetType:    domain.TargetYearly,
			reference:     time.Date(2024, 7, 4, 0, 0, 0, 0, time.UTC),
			expectedStart: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			expectedEnd:   time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		},
		{
			name:          "Dimensional sem janela explícita usa o ano corrente",
			targetType:    domain.TargetCategory,
			reference:     time.Date(2024, 7, 4, 0, 0, 0, 0, time.UTC),
			expectedStart: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			expectedEnd:   time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := ResolvePeriod(tt.targetType, tt.reference)
			assert.Equal(t, tt.expectedStart, start)
			assert.Equal(t, tt.expectedEnd, end)
		})
	}
}

func TestResolvePeriod_Deterministic(t *testing.T) {
	// Duas datas dentro do mesmo período lógico devem derivar a mesma janela,
	// senão a reconciliação criaria linhas duplicadas de meta.
	s1, e1 := ResolvePeriod(domain.TargetMonthly, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	s2, e2 := ResolvePeriod(domain.TargetMonthly, time.Date(2024, 5, 31, 23, 0, 0, 0, time.UTC))

	assert.Equal(t, s1, s2)
	assert.Equal(t, e1, e2)
}

func TestResolvePeriod_AdjacentMonthsDisjoint(t *testing.T) {
	_, endMay := ResolvePeriod(domain.TargetMonthly, time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC))
	startJune, _ := ResolvePeriod(domain.TargetMonthly, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC))

	assert.True(t, endMay.Before(startJune), "janelas de meses adjacentes não podem se sobrepor")
	assert.Equal(t, endMay.AddDate(0, 0, 1), startJune)
}

func TestResolveEntryPeriod(t *testing.T) {
	reference := time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC)
	customStart := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	customEnd := time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		targetType    domain.TargetType
		opts          domain.BulkTargetOptions
		expectedStart time.Time
		expectedEnd   time.Time
	}{
		{
			name:          "Dimensional com janela do lote usa a janela informada",
			targetType:    domain.TargetCategory,
			opts:          domain.BulkTargetOptions{PeriodStart: &customStart, PeriodEnd: &customEnd},
			expectedStart: customStart,
			expectedEnd:   customEnd,
		},
		{
			name:          "Dimensional sem janela cai no ano corrente",
			targetType:    domain.TargetRep,
			opts:          domain.BulkTargetOptions{},
			expectedStart: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			expectedEnd:   time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		},
		{
			name:          "Temporal ignora a janela do lote",
			targetType:    domain.TargetMonthly,
			opts:          domain.BulkTargetOptions{PeriodStart: &customStart, PeriodEnd: &customEnd},
			expectedStart: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
			expectedEnd:   time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := resolveEntryPeriod(tt.targetType, reference, tt.opts)
			assert.Equal(t, tt.expectedStart, start)
			assert.Equal(t, tt.expectedEnd, end)
		})
	}
}
