package utils

import "math"

// RoundWithTwoDecimalPlace arredonda percentuais e valores monetários
// para duas casas, a precisão usada em toda a API.
func RoundWithTwoDecimalPlace(f float64) float64 {
	if f == 0 {
		return 0
	}

	return math.Round(f*100) / 100
}
