package targeting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vfarias/sales-analytics-api/internal/domain"
)

func TestParseTargetKey(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		expected TargetKey
		hasError bool
	}{
		{
			name:     "Chave mensal carrega o target_id implícito da empresa",
			key:      "monthly",
			expected: TargetKey{Type: domain.TargetMonthly, TargetID: domain.CompanyTargetID},
		},
		{
			name:     "Chave trimestral",
			key:      "quarterly",
			expected: TargetKey{Type: domain.TargetQuarterly, TargetID: domain.CompanyTargetID},
		},
		{
			name:     "Chave anual",
			key:      "yearly",
			expected: TargetKey{Type: domain.TargetYearly, TargetID: domain.CompanyTargetID},
		},
		{
			name:     "Chave de categoria carrega o identificador da dimensão",
			key:      "category_Lubrificantes",
			expected: TargetKey{Type: domain.TargetCategory, TargetID: "Lubrificantes"},
		},
		{
			name:     "Chave de região",
			key:      "region_UN-04",
			expected: TargetKey{Type: domain.TargetRegion, TargetID: "UN-04"},
		},
		{
			name:     "Chave de representante",
			key:      "rep_REP-123",
			expected: TargetKey{Type: domain.TargetRep, TargetID: "REP-123"},
		},
		{
			name:     "Identificador com underscore é preservado",
			key:      "category_pecas_de_reposicao",
			expected: TargetKey{Type: domain.TargetCategory, TargetID: "pecas_de_reposicao"},
		},
		{
			name:     "Prefixo dimensional sem identificador é erro",
			key:      "rep_",
			hasError: true,
		},
		{
			name:     "Chave desconhecida é erro",
			key:      "weekly",
			hasError: true,
		},
		{
			name:     "Chave vazia é erro",
			key:      "",
			hasError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := ParseTargetKey(tt.key)

			if tt.hasError {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.expected, key)
		})
	}
}

func TestFormatTargetKey(t *testing.T) {
	keys := []string{"monthly", "quarterly", "yearly", "category_Filtros", "region_UN-01", "rep_REP-007"}

	for _, raw := range keys {
		parsed, err := ParseTargetKey(raw)
		assert.NoError(t, err)
		assert.Equal(t, raw, FormatTargetKey(parsed))
	}
}
