package domain

import "time"

// SeriesKind distingue pontos históricos de pontos projetados, já que as
// duas séries podem ser concatenadas visualmente pelo consumidor
type SeriesKind string

const (
	SeriesHistorical SeriesKind = "historical"
	SeriesForecast   SeriesKind = "forecast"
)

// MonthlyPoint é um ponto de uma série mensal (primeiro dia do mês, UTC)
type MonthlyPoint struct {
	Month time.Time `json:"month"`
	Value float64   `json:"value"`
}

// LabeledSeries é uma série numérica rotulada pronta para gráficos
type LabeledSeries struct {
	Kind   SeriesKind     `json:"kind"`
	Metric Metric         `json:"metric"`
	Points []MonthlyPoint `json:"points"`
}

// ForecastResult agrupa a série histórica e a projetada de uma mesma métrica
type ForecastResult struct {
	Historical LabeledSeries `json:"historical"`
	Forecast   LabeledSeries `json:"forecast"`
}

// TrendDrop é uma queda mensal acima do limiar de alerta
type TrendDrop struct {
	Month     time.Time `json:"month"`
	ChangePct float64   `json:"change_pct"`
}

// AnomalyAlert é o payload de alerta de vendas fora do padrão.
// O ID serve apenas para o descarte transitório na camada de exibição.
type AnomalyAlert struct {
	ID      string        `json:"id"`
	Count   int           `json:"count"`
	Records []*SaleRecord `json:"records"`
}

// TrendDropAlert é o payload de alerta de quedas mês a mês
type TrendDropAlert struct {
	ID    string      `json:"id"`
	Count int         `json:"count"`
	Drops []TrendDrop `json:"drops"`
}
