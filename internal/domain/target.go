package domain

import "time"

// TargetType enumera as dimensões de meta: três janelas temporais da empresa
// e três dimensões de negócio (categoria, região e representante).
type TargetType string

const (
	TargetMonthly   TargetType = "monthly"
	TargetQuarterly TargetType = "quarterly"
	TargetYearly    TargetType = "yearly"
	TargetCategory  TargetType = "category"
	TargetRegion    TargetType = "region"
	TargetRep       TargetType = "rep"
)

// CompanyTargetID é o target_id usado pelas metas puramente temporais.
const CompanyTargetID = "company"

// DefaultTargetCurrency é a moeda atribuída a metas criadas sem moeda explícita.
const DefaultTargetCurrency = "OMR"

// Valid verifica se o tipo pertence à enumeração fechada.
func (t TargetType) Valid() bool {
	switch t {
	case TargetMonthly, TargetQuarterly, TargetYearly, TargetCategory, TargetRegion, TargetRep:
		return true
	}
	return false
}

// Dimensional indica se o tipo carrega um identificador de dimensão
// (categoria, região ou representante) em vez de "company".
func (t TargetType) Dimensional() bool {
	return t == TargetCategory || t == TargetRegion || t == TargetRep
}

// Target é uma meta de desempenho para uma dimensão em uma janela de tempo.
// No máximo uma meta existe por tupla (target_type, target_id, period_start,
// period_end); a unicidade é verificada antes do insert e garantida por
// constraint no banco.
type Target struct {
	ID          int        `json:"id"`
	Type        TargetType `json:"target_type"`
	TargetID    string     `json:"target_id"`
	PeriodStart time.Time  `json:"period_start"`
	PeriodEnd   time.Time  `json:"period_end"`
	TargetValue float64    `json:"target_value"`
	Currency    string     `json:"currency"`
	CreatedBy   *int       `json:"created_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ContainsDate verifica se a data de referência cai dentro do período da meta
// (inclusivo nas duas pontas).
func (t *Target) ContainsDate(date time.Time) bool {
	return !date.Before(t.PeriodStart) && !date.After(t.PeriodEnd)
}

// ActiveTargets agrupa as metas vigentes em uma data de referência,
// separadas por dimensão.
type ActiveTargets struct {
	Monthly   *Target            `json:"monthly"`
	Quarterly *Target            `json:"quarterly"`
	Yearly    *Target            `json:"yearly"`
	Category  map[string]*Target `json:"category"`
	Region    map[string]*Target `json:"region"`
	Rep       map[string]*Target `json:"rep"`
}

// NewActiveTargets cria a estrutura com os mapas dimensionais inicializados.
func NewActiveTargets() *ActiveTargets {
	return &ActiveTargets{
		Category: make(map[string]*Target),
		Region:   make(map[string]*Target),
		Rep:      make(map[string]*Target),
	}
}

// BulkTargetOptions parametriza a reconciliação em lote de metas.
// PeriodStart/PeriodEnd valem apenas para tipos dimensionais; metas temporais
// sempre derivam a janela da data corrente.
type BulkTargetOptions struct {
	PeriodStart *time.Time
	PeriodEnd   *time.Time
	Currency    string
	CreatedBy   *int
}

// TargetEntryError descreve a falha de uma entrada individual do lote.
type TargetEntryError struct {
	Key     string `json:"key"`
	Message string `json:"message"`
}

// BulkTargetResult resume o resultado da reconciliação em lote.
type BulkTargetResult struct {
	Created int                `json:"created"`
	Updated int                `json:"updated"`
	Errors  []TargetEntryError `json:"errors"`
}
