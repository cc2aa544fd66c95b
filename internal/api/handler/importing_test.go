package handler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeImportRow(t *testing.T) {
	tests := []struct {
		name     string
		raw      map[string]any
		hasError bool
	}{
		{
			name: "Linha completa com tipos nativos",
			raw: map[string]any{
				"invoice_id": "INV-001",
				"date":       "2024-05-15",
				"quantity":   2,
				"price":      150.5,
				"item_gross": 301.0,
			},
		},
		{
			name: "Números como string são coercidos",
			raw: map[string]any{
				"invoice_id": "INV-002",
				"date":       "2024-05-15",
				"quantity":   "3",
				"price":      "99.90",
			},
		},
		{
			name: "Data em formato brasileiro é aceita",
			raw: map[string]any{
				"invoice_id": "INV-003",
				"date":       "15/05/2024",
			},
		},
		{
			name:     "invoice_id ausente torna a linha inválida",
			raw:      map[string]any{"date": "2024-05-15"},
			hasError: true,
		},
		{
			name:     "Data ausente torna a linha inválida",
			raw:      map[string]any{"invoice_id": "INV-004"},
			hasError: true,
		},
		{
			name: "Data em formato desconhecido torna a linha inválida",
			raw: map[string]any{
				"invoice_id": "INV-005",
				"date":       "15 de maio",
			},
			hasError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line, err := normalizeImportRow(tt.raw)

			if tt.hasError {
				assert.Error(t, err)
				assert.Nil(t, line)
				return
			}

			assert.NoError(t, err)
			assert.NotNil(t, line)
		})
	}
}

func TestNormalizeImportRow_Coercion(t *testing.T) {
	line, err := normalizeImportRow(map[string]any{
		"invoice_id": "INV-010",
		"date":       "15/05/2024",
		"quantity":   "4",
		"price":      "25.50",
		"discount":   2.0,
		"currency":   "OMR",
	})

	assert.NoError(t, err)
	assert.Equal(t, "INV-010", line.InvoiceID)
	assert.Equal(t, time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC), line.Date)
	assert.Equal(t, 4, line.Quantity)
	assert.Equal(t, 25.5, line.Price)
	assert.Equal(t, 2.0, line.Discount)
	assert.Equal(t, "OMR", line.Currency)
}

func TestParseImportDate(t *testing.T) {
	expected := time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		raw  string
	}{
		{name: "ISO", raw: "2024-05-15"},
		{name: "Brasileiro", raw: "15/05/2024"},
		{name: "RFC3339", raw: "2024-05-15T00:00:00Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			date, err := parseImportDate(tt.raw)

			assert.NoError(t, err)
			assert.Equal(t, expected, date)
		})
	}
}
