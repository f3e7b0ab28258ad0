package domain

import (
	"fmt"
	"time"
)

// Filter é a conjunção de cláusulas opcionais aplicada sobre o conjunto
// escopado. Ponteiro nulo significa cláusula ausente (sempre verdadeira);
// um slice vazio explícito significa "não selecionar nada".
type Filter struct {
	Countries    *[]string
	Products     *[]string
	SalesPersons *[]string
	SaleTypes    *[]SaleType
	DateFrom     *time.Time // inclusivo
	DateTo       *time.Time // inclusivo
	AmountMin    *float64
	AmountMax    *float64
	BoxesMin     *int
	BoxesMax     *int
}

// SortKey é a chave única de ordenação do conjunto de resultados
type SortKey string

const (
	SortByAmount       SortKey = "amount"
	SortByBoxesShipped SortKey = "boxes_shipped"
	SortByDate         SortKey = "date"
)

// ParseSortKey converte uma string em SortKey
func ParseSortKey(s string) (SortKey, error) {
	switch SortKey(s) {
	case SortByAmount, SortByBoxesShipped, SortByDate:
		return SortKey(s), nil
	default:
		return "", fmt.Errorf("chave de ordenação desconhecida: %q", s)
	}
}

// SortOrder é a direção da ordenação
type SortOrder string

const (
	SortAscending  SortOrder = "asc"
	SortDescending SortOrder = "desc"
)

// GroupKey é o campo de agrupamento das agregações
type GroupKey string

const (
	GroupBySalesPerson GroupKey = "sales_person"
	GroupByCountry     GroupKey = "country"
	GroupByProduct     GroupKey = "product"
	GroupByCategory    GroupKey = "category"
)

// ParseGroupKey converte uma string em GroupKey
func ParseGroupKey(s string) (GroupKey, error) {
	switch GroupKey(s) {
	case GroupBySalesPerson, GroupByCountry, GroupByProduct, GroupByCategory:
		return GroupKey(s), nil
	default:
		return "", fmt.Errorf("chave de agrupamento desconhecida: %q", s)
	}
}

// ValueOf retorna o valor do campo de agrupamento para um registro
func (g GroupKey) ValueOf(record *SaleRecord) string {
	switch g {
	case GroupByCountry:
		return record.Country
	case GroupByProduct:
		return record.Product
	case GroupByCategory:
		return string(CategoryOf(record.Product))
	default:
		return record.SalesPerson
	}
}

// GroupTotal é a soma de uma métrica para um valor distinto do agrupamento
type GroupTotal struct {
	Group string  `json:"group"`
	Total float64 `json:"total"`
}

// ValueCount é a contagem de registros para um valor distinto de um campo
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}
