package targeting

import (
	"fmt"
	"strings"

	"github.com/vfarias/sales-analytics-api/internal/domain"
)

// TargetKey é a forma tipada de uma chave de meta do payload plano.
// Chaves temporais (monthly/quarterly/yearly) carregam o TargetID implícito
// "company"; chaves dimensionais carregam o identificador da dimensão.
type TargetKey struct {
	Type     domain.TargetType
	TargetID string
}

var dimensionPrefixes = map[string]domain.TargetType{
	"category_": domain.TargetCategory,
	"region_":   domain.TargetRegion,
	"rep_":      domain.TargetRep,
}

// ParseTargetKey decodifica uma chave do payload de metas. Chaves com formato
// desconhecido produzem erro — tratado pelo chamador como falha da entrada,
// nunca do lote inteiro.
func ParseTargetKey(key string) (TargetKey, error) {
	switch key {
	case string(domain.TargetMonthly), string(domain.TargetQuarterly), string(domain.TargetYearly):
		return TargetKey{
			Type:     domain.TargetType(key),
			TargetID: domain.CompanyTargetID,
		}, nil
	}

	for prefix, targetType := range dimensionPrefixes {
		if strings.HasPrefix(key, prefix) {
			id := strings.TrimPrefix(key, prefix)
			if id == "" {
				return TargetKey{}, fmt.Errorf("chave de meta sem identificador de dimensão: %q", key)
			}
			return TargetKey{Type: targetType, TargetID: id}, nil
		}
	}

	return TargetKey{}, fmt.Errorf("chave de meta não reconhecida: %q", key)
}

// FormatTargetKey é o inverso de ParseTargetKey, usado em respostas e logs.
func FormatTargetKey(key TargetKey) string {
	if !key.Type.Dimensional() {
		return string(key.Type)
	}
	return string(key.Type) + "_" + key.TargetID
}
