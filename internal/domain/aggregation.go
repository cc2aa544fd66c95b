package domain

// GroupBy enumera as dimensões válidas de agrupamento do motor de agregação.
type GroupBy string

const (
	GroupByDate      GroupBy = "date"
	GroupByMonth     GroupBy = "month"
	GroupByCategory  GroupBy = "category"
	GroupByCustomer  GroupBy = "customer"
	GroupBySalesUnit GroupBy = "sales_unit"
	GroupByMaterial  GroupBy = "material"
	GroupBySalesRep  GroupBy = "sales_rep"
)

// Valid verifica se o agrupamento pertence à enumeração fechada.
func (g GroupBy) Valid() bool {
	switch g {
	case GroupByDate, GroupByMonth, GroupByCategory, GroupByCustomer,
		GroupBySalesUnit, GroupByMaterial, GroupBySalesRep:
		return true
	}
	return false
}

// Chronological indica se o resultado deve ser ordenado pelo rótulo
// (ordem cronológica) em vez de pelo valor agregado.
func (g GroupBy) Chronological() bool {
	return g == GroupByDate || g == GroupByMonth
}

// AggregationFunc enumera as funções de agregação suportadas.
// Todas operam sobre item_net, exceto count, que conta linhas.
type AggregationFunc string

const (
	AggregationSum   AggregationFunc = "sum"
	AggregationAvg   AggregationFunc = "avg"
	AggregationCount AggregationFunc = "count"
	AggregationMin   AggregationFunc = "min"
	AggregationMax   AggregationFunc = "max"
)

// Valid verifica se a função pertence à enumeração fechada.
func (a AggregationFunc) Valid() bool {
	switch a {
	case AggregationSum, AggregationAvg, AggregationCount, AggregationMin, AggregationMax:
		return true
	}
	return false
}

// AggregationRequest é o objeto efêmero que descreve uma consulta de agregação.
type AggregationRequest struct {
	Filter      SalesFilter
	GroupBy     GroupBy
	Aggregation AggregationFunc
}

// AggregationRow é uma linha do resultado agregado: o rótulo do grupo
// (data, mês, categoria, etc.) e o valor agregado.
type AggregationRow struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}
