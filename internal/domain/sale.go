package domain

import (
	"fmt"
	"strings"
	"time"
)

// SaleType identifica a classificação de uma venda
type SaleType string

const (
	SaleTypeRetail    SaleType = "Retail"
	SaleTypeWholesale SaleType = "Wholesale"
)

// Limites da regra padrão de classificação
const (
	WholesaleBoxesThreshold  = 100
	WholesaleAmountThreshold = 5000.0
)

// ParseSaleType converte uma string em SaleType, falhando para valores desconhecidos
func ParseSaleType(s string) (SaleType, error) {
	switch SaleType(s) {
	case SaleTypeRetail:
		return SaleTypeRetail, nil
	case SaleTypeWholesale:
		return SaleTypeWholesale, nil
	default:
		return "", fmt.Errorf("tipo de venda desconhecido: %q", s)
	}
}

// ClassifySale aplica a regra padrão de classificação de vendas.
// Atacado quando boxesShipped > 100 OU amount > 5000; caso contrário varejo.
func ClassifySale(boxesShipped int, amount float64) SaleType {
	if boxesShipped > WholesaleBoxesThreshold || amount > WholesaleAmountThreshold {
		return SaleTypeWholesale
	}
	return SaleTypeRetail
}

// SaleRecord representa uma transação de venda no conjunto canônico
type SaleRecord struct {
	ID           int64     `json:"id"`
	SalesPerson  string    `json:"sales_person"`
	Country      string    `json:"country"`
	Product      string    `json:"product"`
	Date         time.Time `json:"date"` // somente data, sem componente de hora
	Amount       float64   `json:"amount"`
	BoxesShipped int       `json:"boxes_shipped"`
	SaleType     SaleType  `json:"sale_type"`
}

// UpdateSaleRequest carrega os campos opcionais de uma atualização de venda.
// SaleType preenchido representa uma sobrescrita manual da classificação,
// que nunca é recalculada pela regra padrão depois de aplicada.
type UpdateSaleRequest struct {
	SalesPerson  *string   `json:"sales_person"`
	Country      *string   `json:"country"`
	Product      *string   `json:"product"`
	Date         *string   `json:"date"`
	Amount       *float64  `json:"amount"`
	BoxesShipped *int      `json:"boxes_shipped"`
	SaleType     *SaleType `json:"sale_type"`
}

// Category é a categoria de produto derivada, nunca persistida
type Category string

const (
	CategoryDarkChocolate Category = "Dark Chocolate"
	CategoryMilkChocolate Category = "Milk Chocolate"
	CategorySyrups        Category = "Syrups"
	CategoryOther         Category = "Other"
)

// CategoryOf deriva a categoria a partir do nome do produto.
// Função pura, recalculada a cada leitura.
func CategoryOf(product string) Category {
	switch {
	case strings.Contains(product, "Dark"):
		return CategoryDarkChocolate
	case strings.Contains(product, "Milk"):
		return CategoryMilkChocolate
	case strings.Contains(product, "Syrup"):
		return CategorySyrups
	default:
		return CategoryOther
	}
}

// Metric identifica a métrica numérica usada em agregações e séries
type Metric string

const (
	MetricAmount       Metric = "amount"
	MetricBoxesShipped Metric = "boxes_shipped"
)

// ParseMetric converte uma string em Metric
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case MetricAmount:
		return MetricAmount, nil
	case MetricBoxesShipped:
		return MetricBoxesShipped, nil
	default:
		return "", fmt.Errorf("métrica desconhecida: %q", s)
	}
}

// ValueOf retorna o valor da métrica para um registro
func (m Metric) ValueOf(record *SaleRecord) float64 {
	if m == MetricBoxesShipped {
		return float64(record.BoxesShipped)
	}
	return record.Amount
}
