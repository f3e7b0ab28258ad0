package querying

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/rmonteiro89/sales-analytics-api/internal/domain"
	"github.com/samber/lo"
)

// Querier aplica filtros, ordenação e agregações sobre o conjunto escopado.
// Todas as operações são funções puras sobre entradas imutáveis; as
// agregações operam sempre sobre o conjunto já filtrado.
type Querier interface {
	Filter(records []*domain.SaleRecord, filter *domain.Filter) []*domain.SaleRecord
	Apply(records []*domain.SaleRecord, filter *domain.Filter, sortKey domain.SortKey, order domain.SortOrder) []*domain.SaleRecord
	TopN(records []*domain.SaleRecord, groupKey domain.GroupKey, metric domain.Metric, n int) []domain.GroupTotal
	GroupSum(records []*domain.SaleRecord, groupKey domain.GroupKey, metric domain.Metric) []domain.GroupTotal
	ValueCounts(records []*domain.SaleRecord, field string) ([]domain.ValueCount, error)
	MonthlyAverage(records []*domain.SaleRecord, product string, metric domain.Metric) []domain.MonthlyPoint
	ExportCSV(records []*domain.SaleRecord) ([]byte, error)
}

type Service struct{}

func NewService() Querier {
	return &Service{}
}

// Filter retém os registros que satisfazem a conjunção de cláusulas,
// preservando a ordem de inserção original
func (s *Service) Filter(records []*domain.SaleRecord, filter *domain.Filter) []*domain.SaleRecord {
	return lo.Filter(records, func(record *domain.SaleRecord, _ int) bool {
		return matches(record, filter)
	})
}

// Apply filtra pela conjunção das cláusulas presentes e ordena pela chave
// única informada. Chave vazia mantém a ordem original. A ordenação é
// estável: empates preservam a ordem de inserção, requisito para
// paginação e exportação reproduzíveis.
func (s *Service) Apply(records []*domain.SaleRecord, filter *domain.Filter, sortKey domain.SortKey, order domain.SortOrder) []*domain.SaleRecord {
	result := s.Filter(records, filter)

	if sortKey == "" {
		return result
	}

	sort.SliceStable(result, func(i, j int) bool {
		if order == domain.SortDescending {
			return compare(result[j], result[i], sortKey)
		}
		return compare(result[i], result[j], sortKey)
	})

	return result
}

// matches avalia a conjunção de cláusulas. Cláusula ausente (ponteiro nulo)
// é sempre verdadeira; um conjunto explicitamente vazio não seleciona nada.
func matches(record *domain.SaleRecord, filter *domain.Filter) bool {
	if filter == nil {
		return true
	}

	if filter.Countries != nil && !lo.Contains(*filter.Countries, record.Country) {
		return false
	}
	if filter.Products != nil && !lo.Contains(*filter.Products, record.Product) {
		return false
	}
	if filter.SalesPersons != nil && !lo.Contains(*filter.SalesPersons, record.SalesPerson) {
		return false
	}
	if filter.SaleTypes != nil && !lo.Contains(*filter.SaleTypes, record.SaleType) {
		return false
	}

	// Intervalos inclusivos nas duas pontas
	if filter.DateFrom != nil && record.Date.Before(*filter.DateFrom) {
		return false
	}
	if filter.DateTo != nil && record.Date.After(*filter.DateTo) {
		return false
	}
	if filter.AmountMin != nil && record.Amount < *filter.AmountMin {
		return false
	}
	if filter.AmountMax != nil && record.Amount > *filter.AmountMax {
		return false
	}
	if filter.BoxesMin != nil && record.BoxesShipped < *filter.BoxesMin {
		return false
	}
	if filter.BoxesMax != nil && record.BoxesShipped > *filter.BoxesMax {
		return false
	}

	return true
}

func compare(a, b *domain.SaleRecord, sortKey domain.SortKey) bool {
	switch sortKey {
	case domain.SortByBoxesShipped:
		return a.BoxesShipped < b.BoxesShipped
	case domain.SortByDate:
		return a.Date.Before(b.Date)
	default:
		return a.Amount < b.Amount
	}
}

// groupTotals soma a métrica por valor distinto do agrupamento,
// preservando a ordem de primeira ocorrência dos grupos
func groupTotals(records []*domain.SaleRecord, groupKey domain.GroupKey, metric domain.Metric) []domain.GroupTotal {
	totals := make(map[string]float64)
	groupOrder := make([]string, 0)

	for _, record := range records {
		group := groupKey.ValueOf(record)
		if _, seen := totals[group]; !seen {
			groupOrder = append(groupOrder, group)
		}
		totals[group] += metric.ValueOf(record)
	}

	return lo.Map(groupOrder, func(group string, _ int) domain.GroupTotal {
		return domain.GroupTotal{Group: group, Total: totals[group]}
	})
}

// TopN retorna os n grupos com as maiores somas da métrica. Empates seguem
// a ordem de primeira ocorrência dos grupos.
func (s *Service) TopN(records []*domain.SaleRecord, groupKey domain.GroupKey, metric domain.Metric, n int) []domain.GroupTotal {
	totals := groupTotals(records, groupKey, metric)

	sort.SliceStable(totals, func(i, j int) bool {
		return totals[i].Total > totals[j].Total
	})

	if n >= 0 && n < len(totals) {
		totals = totals[:n]
	}

	return totals
}

// GroupSum soma a métrica para todos os grupos, na ordem de primeira ocorrência
func (s *Service) GroupSum(records []*domain.SaleRecord, groupKey domain.GroupKey, metric domain.Metric) []domain.GroupTotal {
	return groupTotals(records, groupKey, metric)
}

// ValueCounts conta registros por valor distinto de um campo
func (s *Service) ValueCounts(records []*domain.SaleRecord, field string) ([]domain.ValueCount, error) {
	var valueOf func(*domain.SaleRecord) string

	if field == "sale_type" {
		valueOf = func(record *domain.SaleRecord) string { return string(record.SaleType) }
	} else {
		groupKey, err := domain.ParseGroupKey(field)
		if err != nil {
			return nil, fmt.Errorf("campo de contagem desconhecido: %q", field)
		}
		valueOf = groupKey.ValueOf
	}

	counts := make(map[string]int)
	valueOrder := make([]string, 0)

	for _, record := range records {
		value := valueOf(record)
		if _, seen := counts[value]; !seen {
			valueOrder = append(valueOrder, value)
		}
		counts[value]++
	}

	return lo.Map(valueOrder, func(value string, _ int) domain.ValueCount {
		return domain.ValueCount{Value: value, Count: counts[value]}
	}), nil
}

// MonthlyAverage calcula a média da métrica por mês do calendário (1..12)
// para um único produto, a visão sazonal dos gráficos
func (s *Service) MonthlyAverage(records []*domain.SaleRecord, product string, metric domain.Metric) []domain.MonthlyPoint {
	sums := make(map[time.Month]float64)
	counts := make(map[time.Month]int)

	for _, record := range records {
		if record.Product != product {
			continue
		}
		month := record.Date.Month()
		sums[month] += metric.ValueOf(record)
		counts[month]++
	}

	points := make([]domain.MonthlyPoint, 0, len(sums))
	for month := time.January; month <= time.December; month++ {
		if counts[month] == 0 {
			continue
		}
		points = append(points, domain.MonthlyPoint{
			// Ano 0 marca um mês do calendário, não um mês observado
			Month: time.Date(0, month, 1, 0, 0, 0, 0, time.UTC),
			Value: sums[month] / float64(counts[month]),
		})
	}

	return points
}

// Ordem fixa das colunas canônicas na exportação
var exportHeader = []string{"id", "sales_person", "country", "product", "date", "amount", "boxes_shipped", "sale_type"}

// ExportCSV serializa o conjunto de resultados em CSV com aspas padrão.
// Função pura do conjunto de resultados, independente da camada de exibição.
func (s *Service) ExportCSV(records []*domain.SaleRecord) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(exportHeader); err != nil {
		return nil, fmt.Errorf("erro ao escrever cabeçalho: %w", err)
	}

	for _, record := range records {
		row := []string{
			strconv.FormatInt(record.ID, 10),
			record.SalesPerson,
			record.Country,
			record.Product,
			record.Date.Format(time.DateOnly),
			strconv.FormatFloat(record.Amount, 'f', -1, 64),
			strconv.Itoa(record.BoxesShipped),
			string(record.SaleType),
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("erro ao escrever linha: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("erro ao finalizar exportação: %w", err)
	}

	return buf.Bytes(), nil
}
