package domain

import "time"

// ReportValues agrupa valores absolutos (metas ou vendas) por dimensão.
// Campos temporais ausentes ficam null; mapas dimensionais vazios são omitidos.
type ReportValues struct {
	Monthly   *float64           `json:"monthly"`
	Quarterly *float64           `json:"quarterly"`
	Yearly    *float64           `json:"yearly"`
	Category  map[string]float64 `json:"category,omitempty"`
	Region    map[string]float64 `json:"region,omitempty"`
	Rep       map[string]float64 `json:"rep,omitempty"`
}

// ReportPercents agrupa percentuais de atingimento por dimensão.
// Um percentual é null quando não há meta vigente ou a meta não é positiva —
// nunca NaN, nunca divisão por zero.
type ReportPercents struct {
	Monthly   *float64            `json:"monthly"`
	Quarterly *float64            `json:"quarterly"`
	Yearly    *float64            `json:"yearly"`
	Category  map[string]*float64 `json:"category,omitempty"`
	Region    map[string]*float64 `json:"region,omitempty"`
	Rep       map[string]*float64 `json:"rep,omitempty"`
}

// AchievementReport é o resultado efêmero do cálculo de atingimento:
// metas vigentes, vendas reais na mesma janela e o percentual resultante.
type AchievementReport struct {
	ReferenceDate string         `json:"reference_date"`
	Targets       ReportValues   `json:"targets"`
	Sales         ReportValues   `json:"sales"`
	Achievement   ReportPercents `json:"achievement"`
}

// NewAchievementReport cria um relatório vazio para a data de referência.
func NewAchievementReport(referenceDate time.Time) *AchievementReport {
	return &AchievementReport{
		ReferenceDate: referenceDate.Format(time.DateOnly),
		Targets: ReportValues{
			Category: make(map[string]float64),
			Region:   make(map[string]float64),
			Rep:      make(map[string]float64),
		},
		Sales: ReportValues{
			Category: make(map[string]float64),
			Region:   make(map[string]float64),
			Rep:      make(map[string]float64),
		},
		Achievement: ReportPercents{
			Category: make(map[string]*float64),
			Region:   make(map[string]*float64),
			Rep:      make(map[string]*float64),
		},
	}
}

// AchievementSnapshot é a fotografia mensal do relatório de atingimento,
// gravada pelo agendador para consulta histórica.
type AchievementSnapshot struct {
	ID        int                `json:"id"`
	Period    string             `json:"period"` // formato mm-yyyy
	Report    *AchievementReport `json:"report"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}
